// Package render groups sprite-bearing entities into per-renderable instance
// batches and packs their component state into float buffers for a Backend.
package render

import "fmt"

// Attribute names shared by the layouts in this module and the backends that bind
// them. Backends give a missing optional attribute a neutral default.
const (
	AttrPosition  = "a_position"
	AttrRotation  = "a_rotation"
	AttrScale     = "a_scale"
	AttrSize      = "a_size"
	AttrPivot     = "a_pivot"
	AttrTexOffset = "a_texOffset"
	AttrTexSize   = "a_texSize"
	AttrAlpha     = "a_alpha"
)

// AttributeSpec names one per-instance vertex attribute and its width in floats.
type AttributeSpec struct {
	Name          string
	NumComponents int
}

// Attribute is an AttributeSpec placed at an offset within an instance.
type Attribute struct {
	Name          string
	NumComponents int
	Offset        int
}

// Layout describes how one instance is laid out in a float buffer. A single Layout
// is shared by the populator that writes instances and the backend that binds them.
type Layout struct {
	attrs  []Attribute
	stride int
	byName map[string]int
}

// NewLayout packs specs back to back in the order given. It panics on an empty or
// duplicate name or a non-positive width, since layouts are declared at init time.
func NewLayout(specs ...AttributeSpec) *Layout {
	l := &Layout{
		attrs:  make([]Attribute, 0, len(specs)),
		byName: make(map[string]int, len(specs)),
	}
	for _, spec := range specs {
		if spec.Name == "" || spec.NumComponents <= 0 {
			panic(fmt.Sprintf("render: invalid attribute %q with %d components", spec.Name, spec.NumComponents))
		}
		if _, dup := l.byName[spec.Name]; dup {
			panic(fmt.Sprintf("render: duplicate attribute %q", spec.Name))
		}
		l.byName[spec.Name] = len(l.attrs)
		l.attrs = append(l.attrs, Attribute{
			Name:          spec.Name,
			NumComponents: spec.NumComponents,
			Offset:        l.stride,
		})
		l.stride += spec.NumComponents
	}
	return l
}

// Extend returns a new layout with specs appended after l's attributes.
func (l *Layout) Extend(specs ...AttributeSpec) *Layout {
	all := make([]AttributeSpec, 0, len(l.attrs)+len(specs))
	for _, a := range l.attrs {
		all = append(all, AttributeSpec{Name: a.Name, NumComponents: a.NumComponents})
	}
	return NewLayout(append(all, specs...)...)
}

// Stride is the number of floats per instance.
func (l *Layout) Stride() int {
	return l.stride
}

// Attributes returns the attributes in buffer order. The slice must not be modified.
func (l *Layout) Attributes() []Attribute {
	return l.attrs
}

// Offset returns the float offset of the named attribute within an instance.
func (l *Layout) Offset(name string) (int, bool) {
	i, ok := l.byName[name]
	if !ok {
		return 0, false
	}
	return l.attrs[i].Offset, true
}

// MustOffset is Offset for layouts declared at init time. It panics when the
// attribute is missing.
func (l *Layout) MustOffset(name string) int {
	off, ok := l.Offset(name)
	if !ok {
		panic(fmt.Sprintf("render: layout has no attribute %q", name))
	}
	return off
}

// Attribute returns the named attribute.
func (l *Layout) Attribute(name string) (Attribute, bool) {
	i, ok := l.byName[name]
	if !ok {
		return Attribute{}, false
	}
	return l.attrs[i], true
}
