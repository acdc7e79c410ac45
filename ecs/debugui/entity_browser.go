package debugui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/kiln/ecs"
)

type EntityInfo struct {
	ID             ecs.EntityId
	Components     []ecs.ComponentId
	ComponentNames []string
}

type entityBrowserCache struct {
	entities      []EntityInfo
	fingerprint   int
	sortColumn    int
	sortAscending bool
}

// EntityBrowser lists live entities with their component kinds. Selecting a row
// sets Context.Selected.
type EntityBrowser struct {
	ctx                *Context
	cache              *entityBrowserCache
	filterText         string
	filterColumn       ecs.ComponentId
	maxEntitiesPerPage int
	currentPage        int
}

func NewEntityBrowser(ctx *Context, maxEntitiesPerPage int) *EntityBrowser {
	if maxEntitiesPerPage <= 0 {
		maxEntitiesPerPage = 100
	}
	return &EntityBrowser{
		ctx: ctx,
		cache: &entityBrowserCache{
			fingerprint:   -1,
			sortAscending: true,
		},
		maxEntitiesPerPage: maxEntitiesPerPage,
	}
}

// FilterColumn restricts the list to entities holding id; zero clears the filter.
func (eb *EntityBrowser) FilterColumn(id ecs.ComponentId) {
	eb.filterColumn = id
	eb.currentPage = 0
}

func (eb *EntityBrowser) Render() {
	if !imgui.BeginV("Entity Browser", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	eb.rebuildCacheIfNeeded()

	imgui.InputTextWithHint("##search", "Search...", &eb.filterText, imgui.InputTextFlagsNone, nil)
	imgui.SameLine()
	if imgui.Button("Clear Filter") {
		eb.filterText = ""
		eb.filterColumn = 0
	}
	if eb.filterColumn != 0 {
		imgui.Text(fmt.Sprintf("Holding: %s", eb.ctx.Storage.Registry().Name(eb.filterColumn)))
	}

	filtered := eb.filtered()
	pages := (len(filtered) + eb.maxEntitiesPerPage - 1) / eb.maxEntitiesPerPage
	if eb.currentPage >= pages {
		eb.currentPage = max(pages-1, 0)
	}

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("EntityTable", 3, tableFlags, imgui.NewVec2(0, -30), 0) {
		imgui.TableSetupColumn("Entity")
		imgui.TableSetupColumn("Components")
		imgui.TableSetupColumn("Count")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			eb.cache.sortColumn = int(spec.ColumnIndex())
			eb.cache.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			sortEntities(eb.cache.entities, eb.cache.sortColumn, eb.cache.sortAscending)
			filtered = eb.filtered()
			sortSpecs.SetSpecsDirty(false)
		}

		start := eb.currentPage * eb.maxEntitiesPerPage
		end := min(start+eb.maxEntitiesPerPage, len(filtered))

		for _, entity := range filtered[start:end] {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			if imgui.SelectableBoolV(entity.ID.String(), eb.ctx.Selected == entity.ID, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				eb.ctx.Selected = entity.ID
			}

			imgui.TableNextColumn()
			imgui.Text(strings.Join(entity.ComponentNames, ", "))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", len(entity.Components)))
		}

		imgui.EndTable()
	}

	if pages > 1 {
		imgui.Text(fmt.Sprintf("Page %d / %d (%d entities)", eb.currentPage+1, pages, len(filtered)))
		imgui.SameLine()
		if imgui.Button("Prev") && eb.currentPage > 0 {
			eb.currentPage--
		}
		imgui.SameLine()
		if imgui.Button("Next") && eb.currentPage < pages-1 {
			eb.currentPage++
		}
	} else {
		imgui.Text(fmt.Sprintf("Total: %d entities", len(filtered)))
	}

	imgui.End()
}

// storageFingerprint changes whenever an entity or component is added or removed.
// Collisions only delay a refresh until the next change.
func storageFingerprint(storage *ecs.Storage) int {
	stats := storage.CollectStats()
	fp := stats.TotalEntityCount
	for _, col := range stats.ColumnBreakdown {
		fp = fp*31 + col.Live
	}
	return fp
}

func (eb *EntityBrowser) rebuildCacheIfNeeded() {
	fp := storageFingerprint(eb.ctx.Storage)
	if fp == eb.cache.fingerprint && eb.cache.entities != nil {
		return
	}
	eb.cache.fingerprint = fp
	eb.cache.entities = collectEntities(eb.ctx.Storage)
	sortEntities(eb.cache.entities, eb.cache.sortColumn, eb.cache.sortAscending)
}

func (eb *EntityBrowser) filtered() []EntityInfo {
	return filterEntities(eb.cache.entities, eb.filterText, eb.filterColumn)
}

func collectEntities(storage *ecs.Storage) []EntityInfo {
	registry := storage.Registry()
	entities := make([]EntityInfo, 0, storage.EntityCount())

	for e := range storage.Entities() {
		ids := storage.Components(e)
		names := make([]string, len(ids))
		for i, id := range ids {
			names[i] = registry.Name(id)
		}
		entities = append(entities, EntityInfo{
			ID:             e,
			Components:     ids,
			ComponentNames: names,
		})
	}
	return entities
}

func sortEntities(entities []EntityInfo, column int, ascending bool) {
	sort.SliceStable(entities, func(i, j int) bool {
		a, b := entities[i], entities[j]
		if !ascending {
			a, b = b, a
		}
		var less bool

		switch column {
		case 1:
			less = strings.Join(a.ComponentNames, ",") < strings.Join(b.ComponentNames, ",")
		case 2:
			less = len(a.Components) < len(b.Components)
		default:
			less = a.ID.Index() < b.ID.Index()
		}
		return less
	})
}

// filterEntities keeps entities whose id or component names contain text, and
// that hold column when it is non-zero.
func filterEntities(entities []EntityInfo, text string, column ecs.ComponentId) []EntityInfo {
	if text == "" && column == 0 {
		return entities
	}

	filtered := make([]EntityInfo, 0, len(entities))
	filterLower := strings.ToLower(text)

	for _, entity := range entities {
		if column != 0 && !containsId(entity.Components, column) {
			continue
		}

		if text != "" {
			componentsStr := strings.ToLower(strings.Join(entity.ComponentNames, " "))
			if !strings.Contains(entity.ID.String(), filterLower) &&
				!strings.Contains(componentsStr, filterLower) {
				continue
			}
		}

		filtered = append(filtered, entity)
	}

	return filtered
}

func containsId(ids []ecs.ComponentId, id ecs.ComponentId) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
