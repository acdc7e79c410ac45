package debugui

import (
	"fmt"
	"sort"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/kiln/ecs"
)

// ColumnViewer shows every component column with its live and slot counts. Holes
// are tombstoned slots awaiting compaction. Clicking a row filters the entity
// browser, when one is attached, to holders of that kind.
type ColumnViewer struct {
	ctx           *Context
	browser       *EntityBrowser
	columns       []ecs.ColumnStats
	selected      ecs.ComponentId
	sortColumn    int
	sortAscending bool
}

func NewColumnViewer(ctx *Context, browser *EntityBrowser) *ColumnViewer {
	return &ColumnViewer{
		ctx:           ctx,
		browser:       browser,
		sortColumn:    2,
		sortAscending: false,
	}
}

func (cv *ColumnViewer) Render() {
	if !imgui.BeginV("Column Viewer", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	stats := cv.ctx.Storage.CollectStats()
	cv.columns = stats.ColumnBreakdown
	sortColumns(cv.columns, cv.sortColumn, cv.sortAscending)

	maxLive := 0
	for _, col := range cv.columns {
		maxLive = max(maxLive, col.Live)
	}

	imgui.Text(fmt.Sprintf("Entities: %d  Columns: %d", stats.TotalEntityCount, stats.ColumnCount))
	imgui.SameLine()
	if imgui.Button("Compact") {
		cv.ctx.Storage.Compact()
	}

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("ColumnTable", 4, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Id")
		imgui.TableSetupColumn("Component")
		imgui.TableSetupColumn("Live")
		imgui.TableSetupColumn("Holes")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			cv.sortColumn = int(spec.ColumnIndex())
			cv.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			sortColumns(cv.columns, cv.sortColumn, cv.sortAscending)
			sortSpecs.SetSpecsDirty(false)
		}

		for _, col := range cv.columns {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			if imgui.SelectableBoolV(fmt.Sprintf("%d", col.Id), cv.selected == col.Id, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				cv.selected = col.Id
				if cv.browser != nil {
					cv.browser.FilterColumn(col.Id)
				}
			}

			imgui.TableNextColumn()
			imgui.Text(col.Name)

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", col.Live))

			if maxLive > 0 {
				barWidth := float32(col.Live) / float32(maxLive) * 80.0
				imgui.SameLine()
				drawList := imgui.WindowDrawList()
				pos := imgui.CursorScreenPos()
				color := imgui.ColorU32Vec4(imgui.NewVec4(0.2, 0.6, 0.8, 0.6))
				drawList.AddRectFilled(pos, imgui.NewVec2(pos.X+barWidth, pos.Y+10), color)
			}

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", col.Slots-col.Live))
		}

		imgui.EndTable()
	}

	imgui.End()
}

func sortColumns(columns []ecs.ColumnStats, column int, ascending bool) {
	sort.SliceStable(columns, func(i, j int) bool {
		a, b := columns[i], columns[j]
		if !ascending {
			a, b = b, a
		}
		var less bool

		switch column {
		case 0:
			less = a.Id < b.Id
		case 1:
			less = a.Name < b.Name
		case 3:
			less = a.Slots-a.Live < b.Slots-b.Live
		default:
			less = a.Live < b.Live
		}
		return less
	})
}
