package ebitenbackend

import (
	"math"
	"testing"

	"github.com/plus3/kiln/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLayout = render.NewLayout(
	render.AttributeSpec{Name: render.AttrPosition, NumComponents: 2},
	render.AttributeSpec{Name: render.AttrRotation, NumComponents: 1},
	render.AttributeSpec{Name: render.AttrScale, NumComponents: 2},
	render.AttributeSpec{Name: render.AttrSize, NumComponents: 2},
	render.AttributeSpec{Name: render.AttrPivot, NumComponents: 2},
	render.AttributeSpec{Name: render.AttrTexOffset, NumComponents: 2},
	render.AttributeSpec{Name: render.AttrTexSize, NumComponents: 2},
	render.AttributeSpec{Name: render.AttrAlpha, NumComponents: 1},
)

func TestBindingReadsLayout(t *testing.T) {
	bind, err := newBinding(testLayout.Attributes())
	require.NoError(t, err)
	assert.Equal(t, 14, bind.stride)

	in := bind.read([]float32{1, 2, 0.5, 3, 4, 5, 6, 0.1, 0.2, 0.25, 0.5, 0.25, 0.5, 0.75})
	assert.Equal(t, instance{
		x: 1, y: 2, rotation: 0.5,
		scaleX: 3, scaleY: 4,
		width: 5, height: 6,
		pivotX: 0.1, pivotY: 0.2,
		u: 0.25, v: 0.5, tw: 0.25, th: 0.5,
		alpha: 0.75,
	}, in)
}

func TestBindingDefaults(t *testing.T) {
	bind, err := newBinding(render.NewLayout(render.AttributeSpec{Name: render.AttrPosition, NumComponents: 2}).Attributes())
	require.NoError(t, err)

	in := bind.read([]float32{7, 8})
	assert.Equal(t, instance{x: 7, y: 8, scaleX: 1, scaleY: 1, width: 1, height: 1, tw: 1, th: 1, alpha: 1}, in)

	_, err = newBinding(render.NewLayout(render.AttributeSpec{Name: render.AttrSize, NumComponents: 2}).Attributes())
	assert.Error(t, err)
}

func TestAppendInstancePlacesQuad(t *testing.T) {
	quad := render.Quad()

	t.Run("pivot and size", func(t *testing.T) {
		in := instance{x: 100, y: 50, scaleX: 1, scaleY: 1, width: 20, height: 10, pivotX: 0.5, pivotY: 0.5, tw: 1, th: 1, alpha: 1}
		vs := appendInstance(nil, quad, in, 64, 32)
		require.Len(t, vs, 4)

		assert.Equal(t, float32(90), vs[0].DstX)
		assert.Equal(t, float32(45), vs[0].DstY)
		assert.Equal(t, float32(110), vs[3].DstX)
		assert.Equal(t, float32(55), vs[3].DstY)
		assert.Equal(t, float32(64), vs[3].SrcX)
		assert.Equal(t, float32(32), vs[3].SrcY)
	})

	t.Run("texture rectangle", func(t *testing.T) {
		in := instance{scaleX: 1, scaleY: 1, width: 1, height: 1, u: 0.5, v: 0.25, tw: 0.25, th: 0.5, alpha: 0.5}
		vs := appendInstance(nil, quad, in, 64, 32)
		assert.Equal(t, float32(32), vs[0].SrcX)
		assert.Equal(t, float32(8), vs[0].SrcY)
		assert.Equal(t, float32(48), vs[3].SrcX)
		assert.Equal(t, float32(24), vs[3].SrcY)
		assert.Equal(t, float32(0.5), vs[0].ColorA)
	})

	t.Run("rotation", func(t *testing.T) {
		in := instance{scaleX: 1, scaleY: 1, width: 10, height: 10, rotation: math.Pi / 2, tw: 1, th: 1, alpha: 1}
		vs := appendInstance(nil, quad, in, 1, 1)
		// (10, 0) turns to (0, 10)
		assert.InDelta(t, 0, vs[1].DstX, 1e-4)
		assert.InDelta(t, 10, vs[1].DstY, 1e-4)
	})
}
