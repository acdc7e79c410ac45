package debugui

import (
	"fmt"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/kiln/ecs"
)

// idKind adapts a registry id to ecs.Kind so queries can be built from ids picked
// at runtime.
type idKind struct {
	id       ecs.ComponentId
	name     string
	registry *ecs.ComponentRegistry
}

func (k idKind) Id() ecs.ComponentId              { return k.id }
func (k idKind) Name() string                     { return k.name }
func (k idKind) Registry() *ecs.ComponentRegistry { return k.registry }

// QueryDebugger evaluates an ad-hoc query over the kinds ticked in its window.
type QueryDebugger struct {
	ctx      *Context
	selected map[ecs.ComponentId]bool
	preview  int
}

func NewQueryDebugger(ctx *Context) *QueryDebugger {
	return &QueryDebugger{
		ctx:      ctx,
		selected: make(map[ecs.ComponentId]bool),
		preview:  20,
	}
}

func (qd *QueryDebugger) Render() {
	if !imgui.BeginV("Query Debugger", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	registry := qd.ctx.Storage.Registry()

	imgui.Text("Select Component Kinds:")
	imgui.Separator()

	if imgui.Button("Clear All") {
		qd.selected = make(map[ecs.ComponentId]bool)
	}

	for _, id := range registry.Kinds() {
		selected := qd.selected[id]
		if imgui.Checkbox(fmt.Sprintf("%s##%d", registry.Name(id), id), &selected) {
			if selected {
				qd.selected[id] = true
			} else {
				delete(qd.selected, id)
			}
		}
	}

	imgui.Separator()

	query := qd.query()
	if query == nil {
		imgui.Text("No component kinds selected")
		imgui.End()
		return
	}

	rows := query.Execute()
	imgui.Text(fmt.Sprintf("Matching Entities: %d", len(rows)))

	if imgui.TreeNodeStr("Matches") {
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("QueryMatchTable", 2, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("Entity")
			imgui.TableSetupColumn("Values")
			imgui.TableHeadersRow()

			for _, row := range rows[:min(len(rows), qd.preview)] {
				imgui.TableNextRow()

				imgui.TableSetColumnIndex(0)
				if imgui.SelectableBoolV(row.Entity.String(), qd.ctx.Selected == row.Entity, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
					qd.ctx.Selected = row.Entity
				}

				imgui.TableSetColumnIndex(1)
				imgui.Text(rowSummary(row))
			}

			imgui.EndTable()
		}
		if len(rows) > qd.preview {
			imgui.Text(fmt.Sprintf("... and %d more", len(rows)-qd.preview))
		}
		imgui.TreePop()
	}

	imgui.End()
}

// query builds a query over the ticked kinds in registration order, or returns nil
// when nothing is ticked.
func (qd *QueryDebugger) query() *ecs.Query {
	registry := qd.ctx.Storage.Registry()

	var kinds []ecs.Kind
	for _, id := range registry.Kinds() {
		if qd.selected[id] {
			kinds = append(kinds, idKind{id: id, name: registry.Name(id), registry: registry})
		}
	}
	if len(kinds) == 0 {
		return nil
	}
	return ecs.NewQuery(qd.ctx.Storage, kinds...)
}

func rowSummary(row ecs.Row) string {
	parts := make([]string, row.Len())
	for i := range parts {
		parts[i] = fmt.Sprintf("%+v", row.At(i))
	}
	return strings.Join(parts, " ")
}
