package main

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/kiln/render/ebitenbackend"
)

// Generated texture names usable from scene files.
const (
	textureSquare = "square"
	textureCrate  = "crate"
	textureSpark  = "spark"
	textureHero   = "hero"
)

// heroFrames is the number of frames in the generated hero strip.
const heroFrames = 4

func registerTextures(textures *ebitenbackend.Textures) {
	textures.Register(textureSquare, ebiten.NewImageFromImage(solid(16, 16, color.RGBA{0x5a, 0x9b, 0xd5, 0xff})))
	textures.Register(textureCrate, ebiten.NewImageFromImage(framed(16, 16, color.RGBA{0xb5, 0x83, 0x4a, 0xff}, color.RGBA{0x6b, 0x45, 0x1e, 0xff})))
	textures.Register(textureSpark, ebiten.NewImageFromImage(disc(8, color.RGBA{0xff, 0xd2, 0x6b, 0xff})))
	textures.Register(textureHero, ebiten.NewImageFromImage(strip(16, 16, heroFrames)))
}

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func framed(w, h int, fill, border color.Color) *image.RGBA {
	img := solid(w, h, fill)
	for x := 0; x < w; x++ {
		img.Set(x, 0, border)
		img.Set(x, h-1, border)
		img.Set(x, x*h/w, border)
	}
	for y := 0; y < h; y++ {
		img.Set(0, y, border)
		img.Set(w-1, y, border)
	}
	return img
}

func disc(size int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	r := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)+0.5-r, float64(y)+0.5-r
			if dx*dx+dy*dy <= r*r {
				img.Set(x, y, c)
			}
		}
	}
	return img
}

// strip lays out frames horizontally, each a shade brighter than the last, so a
// playing animation is visible without art.
func strip(w, h, frames int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w*frames, h))
	for f := 0; f < frames; f++ {
		shade := uint8(0x60 + f*0x9f/max(frames-1, 1))
		c := color.RGBA{shade, 0x40, 0x80, 0xff}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				// a bar that walks across the frames
				if x/4 == f {
					img.Set(f*w+x, y, color.White)
					continue
				}
				img.Set(f*w+x, y, c)
			}
		}
	}
	return img
}
