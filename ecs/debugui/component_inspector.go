package debugui

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/kiln/ecs"
)

// ComponentInspector shows and edits the components of the selected entity.
// Edits write straight into storage through the component pointer.
type ComponentInspector struct {
	ctx *Context
	// lastErr is the most recent rejected edit, shown under the component list.
	lastErr error
}

func NewComponentInspector(ctx *Context) *ComponentInspector {
	return &ComponentInspector{ctx: ctx}
}

func (ci *ComponentInspector) Render() {
	if !imgui.BeginV("Component Inspector", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	if !ci.ctx.selectedAlive() {
		imgui.Text("No entity selected")
		imgui.End()
		return
	}

	storage := ci.ctx.Storage
	registry := storage.Registry()
	entity := ci.ctx.Selected

	imgui.Text(fmt.Sprintf("Entity: %s", entity))
	imgui.SameLine()
	if imgui.Button("Delete") {
		storage.Delete(entity)
		ci.ctx.Selected = 0
		imgui.End()
		return
	}
	imgui.Separator()

	for _, id := range storage.Components(entity) {
		component := storage.GetComponent(entity, id)
		if component == nil {
			continue
		}

		if imgui.TreeNodeStr(registry.Name(id)) {
			ci.renderComponent(id, component)
			imgui.TreePop()
		}
	}

	if ci.lastErr != nil {
		imgui.Separator()
		imgui.TextColored(imgui.NewVec4(1, 0.4, 0.4, 1), ci.lastErr.Error())
	}

	imgui.End()
}

func (ci *ComponentInspector) renderComponent(id ecs.ComponentId, component any) {
	val, ok := fieldByPath(component, nil)
	if !ok {
		imgui.Text("<nil>")
		return
	}

	if val.Kind() != reflect.Struct {
		// non-struct components edit as a single value
		ci.renderField("value", val, id, component, nil)
		return
	}

	for _, field := range globalReflectionCache.GetFields(val.Type()) {
		ci.renderField(field.Name, val.Field(field.Index), id, component, []int{field.Index})
	}
}

func (ci *ComponentInspector) renderField(name string, val reflect.Value, id ecs.ComponentId, component any, path []int) {
	if val.Kind() == reflect.Pointer {
		if val.IsNil() {
			imgui.Text(fmt.Sprintf("%s: nil", name))
			return
		}
		val = val.Elem()
	}
	label := fmt.Sprintf("##%d/%v", id, path)

	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v := int32(val.Int())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt(label, &v) {
			ci.update(component, path, int64(v))
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v := int32(val.Uint())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt(label, &v) {
			ci.update(component, path, int64(v))
		}

	case reflect.Float32, reflect.Float64:
		v := float32(val.Float())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputFloat(label, &v) {
			ci.update(component, path, float64(v))
		}

	case reflect.Bool:
		v := val.Bool()
		if imgui.Checkbox(name+label, &v) {
			ci.update(component, path, v)
		}

	case reflect.String:
		v := val.String()
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(200)
		if imgui.InputTextWithHint(label, "", &v, imgui.InputTextFlagsNone, nil) {
			ci.update(component, path, v)
		}

	case reflect.Struct:
		if imgui.TreeNodeStr(name) {
			for _, nf := range globalReflectionCache.GetFields(val.Type()) {
				nested := append(append([]int(nil), path...), nf.Index)
				ci.renderField(nf.Name, val.Field(nf.Index), id, component, nested)
			}
			imgui.TreePop()
		}

	case reflect.Slice:
		imgui.Text(fmt.Sprintf("%s: [%d items]", name, val.Len()))

	case reflect.Map:
		imgui.Text(fmt.Sprintf("%s: map[%d items]", name, val.Len()))

	default:
		imgui.Text(fmt.Sprintf("%s: %s", name, describe(val)))
	}
}

func (ci *ComponentInspector) update(component any, path []int, v any) {
	ci.lastErr = setField(component, path, v)
}

// setField assigns v to the field reached by path inside component, which must be
// a pointer as returned by Storage.GetComponent.
func setField(component any, path []int, v any) error {
	field, ok := fieldByPath(component, path)
	if !ok {
		return fmt.Errorf("no field at %v", path)
	}
	return setValue(field, v)
}

func describe(val reflect.Value) string {
	if !val.IsValid() {
		return "<invalid>"
	}
	if !val.CanInterface() {
		return val.Type().String()
	}
	switch v := val.Interface().(type) {
	case fmt.Stringer:
		return v.String()
	case float32:
		return strconv.FormatFloat(float64(v), 'g', 4, 32)
	}
	return fmt.Sprintf("%v", val.Interface())
}
