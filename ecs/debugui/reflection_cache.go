package debugui

import (
	"fmt"
	"math"
	"reflect"
	"sync"
)

type FieldInfo struct {
	Name      string
	Type      reflect.Type
	Index     int
	IsPointer bool
}

// ReflectionCache memoizes the exported fields of component types. Component
// values are inspected every frame, so the field walk is done once per type.
type ReflectionCache struct {
	mu         sync.RWMutex
	fieldCache map[reflect.Type][]FieldInfo
}

func NewReflectionCache() *ReflectionCache {
	return &ReflectionCache{
		fieldCache: make(map[reflect.Type][]FieldInfo),
	}
}

func (rc *ReflectionCache) GetFields(t reflect.Type) []FieldInfo {
	rc.mu.RLock()
	cached, ok := rc.fieldCache[t]
	rc.mu.RUnlock()
	if ok {
		return cached
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	if cached, ok := rc.fieldCache[t]; ok {
		return cached
	}

	var fields []FieldInfo
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}

			fieldType := field.Type
			isPointer := fieldType.Kind() == reflect.Pointer
			if isPointer {
				fieldType = fieldType.Elem()
			}

			fields = append(fields, FieldInfo{
				Name:      field.Name,
				Type:      fieldType,
				Index:     i,
				IsPointer: isPointer,
			})
		}
	}

	rc.fieldCache[t] = fields
	return fields
}

var globalReflectionCache = NewReflectionCache()

// setValue assigns v to dst, converting between the numeric widths the inspector
// edits in (int64, float64) and the field's own kind. Values that do not fit the
// field are rejected.
func setValue(dst reflect.Value, v any) error {
	if !dst.CanSet() {
		return fmt.Errorf("field of type %s is not settable", dst.Type())
	}

	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := v.(int64)
		if !ok {
			return fmt.Errorf("cannot assign %T to %s", v, dst.Type())
		}
		if dst.OverflowInt(n) {
			return fmt.Errorf("%d overflows %s", n, dst.Type())
		}
		dst.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := v.(int64)
		if !ok {
			return fmt.Errorf("cannot assign %T to %s", v, dst.Type())
		}
		if n < 0 || dst.OverflowUint(uint64(n)) {
			return fmt.Errorf("%d overflows %s", n, dst.Type())
		}
		dst.SetUint(uint64(n))

	case reflect.Float32, reflect.Float64:
		f, ok := v.(float64)
		if !ok {
			return fmt.Errorf("cannot assign %T to %s", v, dst.Type())
		}
		if math.IsNaN(f) || dst.OverflowFloat(f) {
			return fmt.Errorf("%v does not fit %s", f, dst.Type())
		}
		dst.SetFloat(f)

	case reflect.Bool:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("cannot assign %T to %s", v, dst.Type())
		}
		dst.SetBool(b)

	case reflect.String:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("cannot assign %T to %s", v, dst.Type())
		}
		dst.SetString(s)

	default:
		return fmt.Errorf("editing %s is not supported", dst.Type())
	}
	return nil
}

// fieldByPath walks nested struct fields from the component value, following
// non-nil pointers.
func fieldByPath(component any, path []int) (reflect.Value, bool) {
	val := reflect.ValueOf(component)
	for _, idx := range path {
		for val.Kind() == reflect.Pointer {
			if val.IsNil() {
				return reflect.Value{}, false
			}
			val = val.Elem()
		}
		if val.Kind() != reflect.Struct || idx >= val.NumField() {
			return reflect.Value{}, false
		}
		val = val.Field(idx)
	}
	for val.Kind() == reflect.Pointer && !val.IsNil() {
		val = val.Elem()
	}
	return val, val.IsValid()
}
