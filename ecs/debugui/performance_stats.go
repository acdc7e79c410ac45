package debugui

import (
	"fmt"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/kiln/ecs"
)

// PerformanceStats plots frame times and lists the scheduler's systems. Each system
// row has a checkbox that enables or disables it.
type PerformanceStats struct {
	ctx           *Context
	historyFrames int
	frameHistory  []float32
	frameIndex    int
	lastFrame     uint64
}

func NewPerformanceStats(ctx *Context, historyFrames int) *PerformanceStats {
	if historyFrames <= 0 {
		historyFrames = 120
	}
	return &PerformanceStats{
		ctx:           ctx,
		historyFrames: historyFrames,
		frameHistory:  make([]float32, historyFrames),
	}
}

// record stores the raw delta of a new frame. Repeated calls within one frame are
// ignored.
func (ps *PerformanceStats) record() {
	t := ps.ctx.Time
	if t == nil || t.Frame() == ps.lastFrame {
		return
	}
	ps.lastFrame = t.Frame()
	ps.frameHistory[ps.frameIndex] = float32(t.RawDeltaTimeInMilliseconds())
	ps.frameIndex = (ps.frameIndex + 1) % ps.historyFrames
}

func (ps *PerformanceStats) averageFrameTime() float32 {
	var total float32
	var n int
	for _, ft := range ps.frameHistory {
		if ft > 0 {
			total += ft
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / float32(n)
}

func (ps *PerformanceStats) Render() {
	ps.record()

	if !imgui.BeginV("Performance Stats", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	stats := ps.ctx.Storage.CollectStats()
	imgui.Text(fmt.Sprintf("Total Entities: %d", stats.TotalEntityCount))
	imgui.Text(fmt.Sprintf("Columns: %d", stats.ColumnCount))

	if t := ps.ctx.Time; t != nil {
		imgui.Text(fmt.Sprintf("FPS: %d  Frame: %d  Time: %.1fs", t.FPS(), t.Frame(), t.TimeInSeconds()))
		imgui.Text(fmt.Sprintf("Avg Frame Time: %.2f ms", ps.averageFrameTime()))

		scale := float32(t.TimeScale())
		imgui.SetNextItemWidth(150)
		if imgui.InputFloat("Time Scale", &scale) && scale >= 0 {
			t.SetTimeScale(float64(scale))
		}
	}

	imgui.Separator()
	imgui.Text("Frame Time Graph (ms)")
	imgui.PlotLinesFloatPtr("##frametime", &ps.frameHistory[0], int32(len(ps.frameHistory)))

	if ps.ctx.Scheduler != nil && imgui.TreeNodeStr("Systems") {
		ps.renderSystems(ps.ctx.Scheduler)
		imgui.TreePop()
	}

	imgui.End()
}

func (ps *PerformanceStats) renderSystems(scheduler *ecs.Scheduler) {
	handles := scheduler.Systems()
	stats := scheduler.GetStats()

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSizingFixedFit
	if !imgui.BeginTableV("SystemsTable", 5, tableFlags, imgui.NewVec2(0, 0), 0) {
		return
	}
	imgui.TableSetupColumn("On")
	imgui.TableSetupColumn("System")
	imgui.TableSetupColumn("Priority")
	imgui.TableSetupColumn("Last")
	imgui.TableSetupColumn("Avg")
	imgui.TableHeadersRow()

	for i, h := range handles {
		st := stats.Systems[i]
		imgui.TableNextRow()

		imgui.TableNextColumn()
		enabled := h.Enabled()
		if imgui.Checkbox(fmt.Sprintf("##enabled%d", i), &enabled) {
			if enabled {
				h.Enable()
			} else {
				h.Disable()
			}
		}

		imgui.TableNextColumn()
		imgui.Text(h.Name())

		imgui.TableNextColumn()
		imgui.Text(fmt.Sprintf("%d", h.Priority()))

		imgui.TableNextColumn()
		imgui.Text(formatDuration(st.LastDuration))

		imgui.TableNextColumn()
		imgui.Text(formatDuration(st.AvgDuration))
	}

	imgui.EndTable()
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.3f ms", float64(d)/float64(time.Millisecond))
}
