package debugui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"
)

// BatchViewer lists the render pipelines with their batch and instance counts for
// the last frame.
type BatchViewer struct {
	ctx *Context
}

func NewBatchViewer(ctx *Context) *BatchViewer {
	return &BatchViewer{ctx: ctx}
}

func (bv *BatchViewer) Render() {
	if !imgui.BeginV("Render Batches", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	if len(bv.ctx.Pipelines) == 0 {
		imgui.Text("No pipelines")
		imgui.End()
		return
	}

	var batches, instances int
	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
	if imgui.BeginTableV("PipelineTable", 6, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Pipeline")
		imgui.TableSetupColumn("Layer")
		imgui.TableSetupColumn("Batches")
		imgui.TableSetupColumn("Instances")
		imgui.TableSetupColumn("Buffer")
		imgui.TableSetupColumn("Grows")
		imgui.TableHeadersRow()

		for _, p := range bv.ctx.Pipelines {
			st := p.Stats()
			batches += st.Batches
			instances += st.Instances

			imgui.TableNextRow()
			imgui.TableNextColumn()
			if imgui.TreeNodeStr(st.Name) {
				for _, b := range p.Batches() {
					imgui.BulletText(fmt.Sprintf("%s: %d / %d", b.Renderable().Name(), b.Instances(), b.Capacity()))
				}
				imgui.TreePop()
			}
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", st.Layer))
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", st.Batches))
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", st.Instances))
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d floats", st.BufferFloats))
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", st.Grows))
		}

		imgui.EndTable()
	}

	imgui.Text(fmt.Sprintf("Draw calls: %d  Instances: %d", batches, instances))
	imgui.End()
}
