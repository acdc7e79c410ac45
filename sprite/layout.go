package sprite

import "github.com/plus3/kiln/render"

// Layout is the 13-float per-instance layout shared by plain and animated sprites.
// The offsets below are read from it.
var Layout = render.NewLayout(
	render.AttributeSpec{Name: render.AttrPosition, NumComponents: 2},
	render.AttributeSpec{Name: render.AttrRotation, NumComponents: 1},
	render.AttributeSpec{Name: render.AttrScale, NumComponents: 2},
	render.AttributeSpec{Name: render.AttrSize, NumComponents: 2},
	render.AttributeSpec{Name: render.AttrPivot, NumComponents: 2},
	render.AttributeSpec{Name: render.AttrTexOffset, NumComponents: 2},
	render.AttributeSpec{Name: render.AttrTexSize, NumComponents: 2},
)

// Float offsets of the sprite attributes within an instance.
var (
	OffsetPosition  = Layout.MustOffset(render.AttrPosition)
	OffsetRotation  = Layout.MustOffset(render.AttrRotation)
	OffsetScale     = Layout.MustOffset(render.AttrScale)
	OffsetSize      = Layout.MustOffset(render.AttrSize)
	OffsetPivot     = Layout.MustOffset(render.AttrPivot)
	OffsetTexOffset = Layout.MustOffset(render.AttrTexOffset)
	OffsetTexSize   = Layout.MustOffset(render.AttrTexSize)
	Stride          = Layout.Stride()
)

// Write packs one sprite instance into dst, which must be at least Stride long.
// Layouts extending Layout reuse it for the shared prefix.
func Write(dst []float32, pos Position, rot Rotation, scale Scale, s *Sprite, tex Frame) {
	_ = dst[Stride-1]
	dst[OffsetPosition] = pos.X
	dst[OffsetPosition+1] = pos.Y
	dst[OffsetRotation] = rot.Radians
	dst[OffsetScale] = scale.X
	dst[OffsetScale+1] = scale.Y
	dst[OffsetSize] = s.Width
	dst[OffsetSize+1] = s.Height
	dst[OffsetPivot] = s.PivotX
	dst[OffsetPivot+1] = s.PivotY
	dst[OffsetTexOffset] = tex.U
	dst[OffsetTexOffset+1] = tex.V
	dst[OffsetTexSize] = tex.W
	dst[OffsetTexSize+1] = tex.H
}
