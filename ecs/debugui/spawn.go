package debugui

import "github.com/plus3/kiln/ecs"

type Kinds struct {
	Item ecs.ComponentKind[ImguiItem]
}

func RegisterKinds(registry *ecs.ComponentRegistry) Kinds {
	return Kinds{Item: ecs.RegisterComponent[ImguiItem](registry)}
}

// Panels holds the built-in windows sharing one Context.
type Panels struct {
	Browser     *EntityBrowser
	Inspector   *ComponentInspector
	Columns     *ColumnViewer
	Performance *PerformanceStats
	Query       *QueryDebugger
	Batches     *BatchViewer
}

func NewPanels(ctx *Context) *Panels {
	browser := NewEntityBrowser(ctx, 100)
	return &Panels{
		Browser:     browser,
		Inspector:   NewComponentInspector(ctx),
		Columns:     NewColumnViewer(ctx, browser),
		Performance: NewPerformanceStats(ctx, 120),
		Query:       NewQueryDebugger(ctx),
		Batches:     NewBatchViewer(ctx),
	}
}

func (p *Panels) renderers() []func() {
	return []func(){
		p.Performance.Render,
		p.Browser.Render,
		p.Inspector.Render,
		p.Columns.Render,
		p.Query.Render,
		p.Batches.Render,
	}
}

// SpawnDebugUI spawns one ImguiItem entity per built-in panel and returns the
// panels and the spawned entities.
func SpawnDebugUI(storage *ecs.Storage, kinds Kinds, ctx *Context) (*Panels, []ecs.EntityId, error) {
	if ctx.Storage == nil {
		ctx.Storage = storage
	}
	panels := NewPanels(ctx)

	var entities []ecs.EntityId
	for _, render := range panels.renderers() {
		e, err := storage.Spawn(ecs.With(kinds.Item, ImguiItem{Render: render}))
		if err != nil {
			for _, spawned := range entities {
				storage.Delete(spawned)
			}
			return nil, nil, err
		}
		entities = append(entities, e)
	}
	return panels, entities, nil
}
