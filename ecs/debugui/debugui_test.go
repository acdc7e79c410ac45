package debugui

import (
	"reflect"
	"testing"

	"github.com/plus3/kiln/clock"
	"github.com/plus3/kiln/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct{ X, Y float32 }

type label struct{ Text string }

type fixture struct {
	storage *ecs.Storage
	kinds   Kinds
	point   ecs.ComponentKind[point]
	label   ecs.ComponentKind[label]
}

func newFixture() *fixture {
	registry := ecs.NewComponentRegistry()
	return &fixture{
		kinds:   RegisterKinds(registry),
		point:   ecs.NewComponentKind[point](registry, "Point"),
		label:   ecs.NewComponentKind[label](registry, "Label"),
		storage: ecs.NewStorage(registry),
	}
}

func TestImguiSystemDefersRenders(t *testing.T) {
	f := newFixture()

	var order []string
	f.storage.MustSpawn(ecs.With(f.kinds.Item, ImguiItem{Render: func() { order = append(order, "panel") }}))
	f.storage.MustSpawn(ecs.With(f.kinds.Item, ImguiItem{}))

	state := &InputState{}
	scheduler := ecs.NewScheduler(f.storage)
	scheduler.Add(ImguiSystem(f.kinds.Item, state, func() (bool, bool) { return true, false }))
	scheduler.Add(ecs.System{
		Name:     "after-imgui",
		Priority: ecs.PriorityLate + 1,
		AfterAll: func(frame *ecs.UpdateFrame) error {
			order = append(order, "system")
			return nil
		},
	})

	require.NoError(t, scheduler.Once(clock.New()))
	assert.Equal(t, []string{"system", "panel"}, order, "renders run after every system")
	assert.True(t, state.WantCaptureMouse)
	assert.False(t, state.WantCaptureKeyboard)
}

func TestSpawnDebugUI(t *testing.T) {
	f := newFixture()
	ctx := &Context{}

	panels, entities, err := SpawnDebugUI(f.storage, f.kinds, ctx)
	require.NoError(t, err)
	assert.Len(t, entities, 6)
	assert.Same(t, f.storage, ctx.Storage)
	assert.Equal(t, 6, ecs.NewQuery(f.storage, f.kinds.Item).Count())
	assert.Same(t, panels.Browser, panels.Columns.browser)
}

type inspected struct {
	Name   string
	HP     int8
	Speed  float32
	Alive  bool
	Count  uint16
	Nested struct{ X float64 }
	Ptr    *struct{ Y int }
	hidden int
}

func TestReflectionCacheSkipsUnexported(t *testing.T) {
	fields := NewReflectionCache().GetFields(reflect.TypeFor[inspected]())
	require.Len(t, fields, 7)
	assert.Equal(t, "Ptr", fields[6].Name)
	assert.True(t, fields[6].IsPointer)
}

func TestSetField(t *testing.T) {
	v := &inspected{}

	require.NoError(t, setField(v, []int{0}, "bob"))
	require.NoError(t, setField(v, []int{1}, int64(-5)))
	require.NoError(t, setField(v, []int{2}, float64(2.5)))
	require.NoError(t, setField(v, []int{3}, true))
	require.NoError(t, setField(v, []int{4}, int64(7)))
	require.NoError(t, setField(v, []int{5, 0}, float64(1.5)))

	assert.Equal(t, "bob", v.Name)
	assert.Equal(t, int8(-5), v.HP)
	assert.Equal(t, float32(2.5), v.Speed)
	assert.True(t, v.Alive)
	assert.Equal(t, uint16(7), v.Count)
	assert.Equal(t, 1.5, v.Nested.X)

	tests := []struct {
		name  string
		path  []int
		value any
	}{
		{"int overflow", []int{1}, int64(300)},
		{"negative uint", []int{4}, int64(-1)},
		{"wrong type", []int{2}, "fast"},
		{"nil pointer", []int{6, 0}, int64(1)},
		{"whole struct", nil, int64(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, setField(v, tt.path, tt.value))
		})
	}
	assert.Equal(t, int8(-5), v.HP, "rejected edits leave the field alone")

	v.Ptr = &struct{ Y int }{}
	require.NoError(t, setField(v, []int{6, 0}, int64(4)))
	assert.Equal(t, 4, v.Ptr.Y)

	score := int32(3)
	require.NoError(t, setField(&score, nil, int64(9)))
	assert.Equal(t, int32(9), score)
}

func TestEntityListing(t *testing.T) {
	f := newFixture()
	a := f.storage.MustSpawn(ecs.With(f.point, point{}), ecs.With(f.label, label{"a"}))
	b := f.storage.MustSpawn(ecs.With(f.point, point{}))
	c := f.storage.MustSpawn(ecs.With(f.label, label{"c"}))

	entities := collectEntities(f.storage)
	require.Len(t, entities, 3)
	assert.Equal(t, []string{"Point", "Label"}, entities[0].ComponentNames)

	ids := func(infos []EntityInfo) []ecs.EntityId {
		out := make([]ecs.EntityId, len(infos))
		for i, info := range infos {
			out[i] = info.ID
		}
		return out
	}

	assert.Equal(t, []ecs.EntityId{a, c}, ids(filterEntities(entities, "LABEL", 0)))
	assert.Equal(t, []ecs.EntityId{a, b}, ids(filterEntities(entities, "", f.point.Id())))
	assert.Equal(t, []ecs.EntityId{a}, ids(filterEntities(entities, "label", f.point.Id())))
	assert.Equal(t, []ecs.EntityId{b}, ids(filterEntities(entities, b.String(), 0)))

	sortEntities(entities, 2, false)
	assert.Equal(t, []ecs.EntityId{a, b, c}, ids(entities))

	sortEntities(entities, 0, false)
	assert.Equal(t, []ecs.EntityId{c, b, a}, ids(entities))
}

func TestEntityBrowserRefreshesOnChange(t *testing.T) {
	f := newFixture()
	browser := NewEntityBrowser(&Context{Storage: f.storage}, 0)

	e := f.storage.MustSpawn(ecs.With(f.point, point{}))
	browser.rebuildCacheIfNeeded()
	require.Len(t, browser.cache.entities, 1)

	require.NoError(t, ecs.Add(f.storage, e, f.label, label{}))
	browser.rebuildCacheIfNeeded()
	assert.Len(t, browser.cache.entities[0].Components, 2)

	browser.FilterColumn(f.label.Id())
	assert.Len(t, browser.filtered(), 1)
	ecs.Remove(f.storage, e, f.label)
	browser.rebuildCacheIfNeeded()
	assert.Empty(t, browser.filtered())
}

func TestSortColumns(t *testing.T) {
	columns := []ecs.ColumnStats{
		{Id: 1, Name: "b", Live: 5, Slots: 5},
		{Id: 2, Name: "a", Live: 9, Slots: 12},
		{Id: 3, Name: "c", Live: 1, Slots: 8},
	}

	sortColumns(columns, 2, false)
	assert.Equal(t, ecs.ComponentId(2), columns[0].Id)
	assert.Equal(t, ecs.ComponentId(3), columns[2].Id)

	sortColumns(columns, 3, false)
	assert.Equal(t, ecs.ComponentId(3), columns[0].Id, "most holes first")

	sortColumns(columns, 1, true)
	assert.Equal(t, "a", columns[0].Name)
}

func TestQueryDebuggerQuery(t *testing.T) {
	f := newFixture()
	f.storage.MustSpawn(ecs.With(f.point, point{}), ecs.With(f.label, label{}))
	f.storage.MustSpawn(ecs.With(f.point, point{}))

	qd := NewQueryDebugger(&Context{Storage: f.storage})
	assert.Nil(t, qd.query())

	qd.selected[f.point.Id()] = true
	assert.Equal(t, 2, qd.query().Count())

	qd.selected[f.label.Id()] = true
	rows := qd.query().Execute()
	require.Len(t, rows, 1)
	assert.Equal(t, "&{X:0 Y:0} &{Text:}", rowSummary(rows[0]))
}

func TestPerformanceStatsRecordsOncePerFrame(t *testing.T) {
	tm := clock.New()
	ps := NewPerformanceStats(&Context{Time: tm}, 4)

	ps.record()
	assert.Zero(t, ps.averageFrameTime(), "no frame yet")

	tm.Update(16)
	ps.record()
	ps.record()
	tm.Update(48)
	ps.record()

	assert.Equal(t, 2, ps.frameIndex)
	assert.Equal(t, float32(24), ps.averageFrameTime())
}
