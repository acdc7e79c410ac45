package ebitenbackend

import (
	"context"
	"fmt"
	_ "image/png"
	"io/fs"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/plus3/kiln/asset"
	"github.com/plus3/kiln/render"
)

// ImageLoader returns an asset loader decoding images from fsys.
func ImageLoader(fsys fs.FS) asset.Loader[string, *ebiten.Image] {
	return func(ctx context.Context, name string) (*ebiten.Image, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, _, err := ebitenutil.NewImageFromFileSystem(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return img, nil
	}
}

// Textures hands out one Renderable per texture name, so every entity using a
// texture shares a batch. Images come from an asset cache.
type Textures struct {
	images   *asset.Cache[string, *ebiten.Image]
	geometry *render.Geometry

	mu          sync.Mutex
	renderables map[string]*render.Renderable
}

// NewTextures creates a texture registry drawing every texture on geometry.
func NewTextures(images *asset.Cache[string, *ebiten.Image], geometry *render.Geometry) *Textures {
	if geometry == nil {
		geometry = render.Quad()
	}
	return &Textures{
		images:      images,
		geometry:    geometry,
		renderables: make(map[string]*render.Renderable),
	}
}

// Resolve returns the renderable for name, loading its image on first use. It
// matches scene.Resolver.
func (t *Textures) Resolve(name string) (*render.Renderable, error) {
	return t.ResolveContext(context.Background(), name)
}

// ResolveContext is Resolve with a context for the image load.
func (t *Textures) ResolveContext(ctx context.Context, name string) (*render.Renderable, error) {
	t.mu.Lock()
	r, ok := t.renderables[name]
	t.mu.Unlock()
	if ok {
		return r, nil
	}

	img, err := t.images.GetOrLoad(ctx, name)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if r, ok := t.renderables[name]; ok {
		return r, nil
	}
	r = render.NewRenderable(t.geometry, &render.Material{Name: name, Texture: img})
	t.renderables[name] = r
	return r, nil
}

// Register binds an already created image to name, e.g. a generated texture.
func (t *Textures) Register(name string, img *ebiten.Image) *render.Renderable {
	t.images.Put(name, img)
	t.mu.Lock()
	defer t.mu.Unlock()
	r := render.NewRenderable(t.geometry, &render.Material{Name: name, Texture: img})
	t.renderables[name] = r
	return r
}
