// Package ebitenbackend draws render batches with ebiten. Each batch is expanded
// into one vertex list and drawn with a single DrawTriangles call, split only
// when it outgrows 16-bit indices.
package ebitenbackend

import (
	"fmt"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/kiln/render"
)

// uint16 indices address at most this many vertices per draw.
const maxVertices = math.MaxUint16

// Backend is a render.Backend drawing onto a target image. Set the target at the
// start of each ebiten Draw.
type Backend struct {
	Target *ebiten.Image
	// Filter defaults to nearest.
	Filter ebiten.Filter

	vertices []ebiten.Vertex
	indices  []uint16
	draws    int
}

// New creates a backend with no target.
func New() *Backend {
	return &Backend{Filter: ebiten.FilterNearest}
}

// Draws returns the number of DrawTriangles calls since the last ResetStats.
func (b *Backend) Draws() int {
	return b.draws
}

// ResetStats zeroes the draw counter.
func (b *Backend) ResetStats() {
	b.draws = 0
}

// DrawInstanced draws instances copies of the renderable's geometry. The material
// texture must be an *ebiten.Image.
func (b *Backend) DrawInstanced(r *render.Renderable, data []float32, attrs []render.Attribute, instances int) error {
	if b.Target == nil {
		return fmt.Errorf("ebitenbackend: no target image")
	}
	if r == nil || r.Material == nil || r.Geometry == nil {
		return fmt.Errorf("ebitenbackend: incomplete renderable %s", r.Name())
	}
	img, ok := r.Material.Texture.(*ebiten.Image)
	if !ok || img == nil {
		return fmt.Errorf("ebitenbackend: material %s has texture %T, want *ebiten.Image", r.Material.Name, r.Material.Texture)
	}
	if instances == 0 {
		return nil
	}

	bind, err := newBinding(attrs)
	if err != nil {
		return err
	}
	if len(data) < instances*bind.stride {
		return fmt.Errorf("ebitenbackend: %d floats for %d instances of stride %d", len(data), instances, bind.stride)
	}

	geo := r.Geometry
	perInstance := len(geo.Vertices) / 4
	if perInstance == 0 || perInstance > maxVertices {
		return fmt.Errorf("ebitenbackend: geometry %s has %d vertices", geo.Name, perInstance)
	}
	perDraw := maxVertices / perInstance

	bounds := img.Bounds()
	texW, texH := float32(bounds.Dx()), float32(bounds.Dy())

	op := &ebiten.DrawTrianglesOptions{Filter: b.Filter}
	for start := 0; start < instances; start += perDraw {
		end := min(start+perDraw, instances)
		b.vertices = b.vertices[:0]
		b.indices = b.indices[:0]
		for i := start; i < end; i++ {
			base := uint16((i - start) * perInstance)
			for _, idx := range geo.Indices {
				b.indices = append(b.indices, base+idx)
			}
			b.vertices = appendInstance(b.vertices, geo, bind.read(data[i*bind.stride:(i+1)*bind.stride]), texW, texH)
		}
		b.Target.DrawTriangles(b.vertices, b.indices, img, op)
		b.draws++
	}
	return nil
}

// instance is one decoded instance in world units.
type instance struct {
	x, y           float32
	rotation       float32
	scaleX, scaleY float32
	width, height  float32
	pivotX, pivotY float32
	u, v, tw, th   float32
	alpha          float32
}

type binding struct {
	stride                                               int
	pos, rot, scale, size, pivot, texOff, texSize, alpha int
}

// newBinding locates the attributes the backend reads. Missing optional attributes
// take neutral defaults: rotation 0, scale and size 1, pivot 0, full texture, alpha 1.
func newBinding(attrs []render.Attribute) (binding, error) {
	b := binding{pos: -1, rot: -1, scale: -1, size: -1, pivot: -1, texOff: -1, texSize: -1, alpha: -1}
	for _, a := range attrs {
		if end := a.Offset + a.NumComponents; end > b.stride {
			b.stride = end
		}
		switch a.Name {
		case render.AttrPosition:
			b.pos = a.Offset
		case render.AttrRotation:
			b.rot = a.Offset
		case render.AttrScale:
			b.scale = a.Offset
		case render.AttrSize:
			b.size = a.Offset
		case render.AttrPivot:
			b.pivot = a.Offset
		case render.AttrTexOffset:
			b.texOff = a.Offset
		case render.AttrTexSize:
			b.texSize = a.Offset
		case render.AttrAlpha:
			b.alpha = a.Offset
		}
	}
	if b.pos < 0 {
		return b, fmt.Errorf("ebitenbackend: layout has no %s attribute", render.AttrPosition)
	}
	return b, nil
}

func (b binding) read(d []float32) instance {
	in := instance{
		x: d[b.pos], y: d[b.pos+1],
		scaleX: 1, scaleY: 1,
		width: 1, height: 1,
		tw: 1, th: 1,
		alpha: 1,
	}
	if b.rot >= 0 {
		in.rotation = d[b.rot]
	}
	if b.scale >= 0 {
		in.scaleX, in.scaleY = d[b.scale], d[b.scale+1]
	}
	if b.size >= 0 {
		in.width, in.height = d[b.size], d[b.size+1]
	}
	if b.pivot >= 0 {
		in.pivotX, in.pivotY = d[b.pivot], d[b.pivot+1]
	}
	if b.texOff >= 0 {
		in.u, in.v = d[b.texOff], d[b.texOff+1]
	}
	if b.texSize >= 0 {
		in.tw, in.th = d[b.texSize], d[b.texSize+1]
	}
	if b.alpha >= 0 {
		in.alpha = d[b.alpha]
	}
	return in
}

// appendInstance places each unit-space geometry vertex: shift by the pivot,
// stretch by size and scale, rotate, then translate. Texture coordinates map the
// unit uv into the instance's texture rectangle in pixels.
func appendInstance(dst []ebiten.Vertex, geo *render.Geometry, in instance, texW, texH float32) []ebiten.Vertex {
	sin, cos := math.Sincos(float64(in.rotation))
	s, c := float32(sin), float32(cos)

	for i := 0; i+3 < len(geo.Vertices); i += 4 {
		lx := (geo.Vertices[i] - in.pivotX) * in.width * in.scaleX
		ly := (geo.Vertices[i+1] - in.pivotY) * in.height * in.scaleY
		dst = append(dst, ebiten.Vertex{
			DstX:   in.x + lx*c - ly*s,
			DstY:   in.y + lx*s + ly*c,
			SrcX:   (in.u + geo.Vertices[i+2]*in.tw) * texW,
			SrcY:   (in.v + geo.Vertices[i+3]*in.th) * texH,
			ColorR: in.alpha,
			ColorG: in.alpha,
			ColorB: in.alpha,
			ColorA: in.alpha,
		})
	}
	return dst
}
