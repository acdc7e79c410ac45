package render

// Geometry is the mesh every instance of a batch is drawn with. Vertices are
// interleaved x, y, u, v in unit space.
type Geometry struct {
	Name     string
	Vertices []float32
	Indices  []uint16
}

// Quad returns a unit quad spanning (0,0) to (1,1) with matching texture
// coordinates. Instances scale it by their size and shift it by their pivot.
func Quad() *Geometry {
	return &Geometry{
		Name: "quad",
		Vertices: []float32{
			0, 0, 0, 0,
			1, 0, 1, 0,
			0, 1, 0, 1,
			1, 1, 1, 1,
		},
		Indices: []uint16{0, 1, 2, 1, 3, 2},
	}
}

// Material is the surface state a backend needs to draw a batch. Texture is opaque
// to the pipeline; each backend asserts the concrete type it understands.
type Material struct {
	Name    string
	Texture any
}

// Renderable pairs a geometry with a material. Entities pointing at the same
// *Renderable are drawn in one batch, so identity, not equality, is the key.
type Renderable struct {
	Geometry *Geometry
	Material *Material
}

// NewRenderable creates a renderable for the given geometry and material.
func NewRenderable(geometry *Geometry, material *Material) *Renderable {
	return &Renderable{Geometry: geometry, Material: material}
}

// Name returns a diagnostic name built from the material and geometry names.
func (r *Renderable) Name() string {
	if r == nil {
		return "<nil>"
	}
	name := "?"
	if r.Material != nil && r.Material.Name != "" {
		name = r.Material.Name
	}
	if r.Geometry != nil && r.Geometry.Name != "" {
		name += "/" + r.Geometry.Name
	}
	return name
}

// Backend draws instance batches. DrawInstanced receives instances×stride floats laid
// out as attrs describes and issues one instanced draw for them.
type Backend interface {
	DrawInstanced(r *Renderable, data []float32, attrs []Attribute, instances int) error
}
