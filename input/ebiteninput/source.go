// Package ebiteninput polls ebiten's keyboard and mouse into an input.Snapshot.
package ebiteninput

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/plus3/kiln/input"
)

var mouseButtons = [...]ebiten.MouseButton{
	ebiten.MouseButtonLeft,
	ebiten.MouseButtonRight,
	ebiten.MouseButtonMiddle,
}

// Source is an input.Source backed by ebiten. It must be polled from the ebiten
// update goroutine.
type Source struct {
	keys []ebiten.Key
}

// New creates an ebiten input source.
func New() *Source {
	return &Source{}
}

// Poll reports the currently pressed keys, mouse buttons and cursor position.
// Keys are named by ebiten.Key.String.
func (s *Source) Poll(dst *input.Snapshot) {
	s.keys = inpututil.AppendPressedKeys(s.keys[:0])
	for _, k := range s.keys {
		dst.Keys = append(dst.Keys, input.Key(k.String()))
	}

	for i, b := range mouseButtons {
		if ebiten.IsMouseButtonPressed(b) {
			dst.Buttons = append(dst.Buttons, input.Button(i))
		}
	}

	x, y := ebiten.CursorPosition()
	dst.PointerX = float64(x)
	dst.PointerY = float64(y)
}
