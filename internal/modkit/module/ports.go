package module

import (
	"fmt"
	"reflect"
)

// PortsOf finds a T exposed by m.Ports().
// Ports may return a T directly, a struct of ports, or a pointer to such a struct.
// Only exported, non-nil fields are considered; the first match in field order wins.
func PortsOf[T any](m Module) (T, bool) {
	var zero T
	p := m.Ports()
	if p == nil {
		return zero, false
	}
	if v, ok := p.(T); ok {
		return v, true
	}

	rv := reflect.ValueOf(p)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return zero, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return zero, false
	}
	for i := range rv.NumField() {
		f := rv.Field(i)
		if !f.CanInterface() || isNilField(f) {
			continue
		}
		if v, ok := f.Interface().(T); ok {
			return v, true
		}
	}
	return zero, false
}

func isNilField(f reflect.Value) bool {
	switch f.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Func, reflect.Map, reflect.Slice, reflect.Chan:
		return f.IsNil()
	}
	return false
}

// MustPortsOf panics naming the module and the wanted port type when PortsOf finds nothing.
// A missing port is a wiring bug, so main uses this form.
func MustPortsOf[T any](m Module) T {
	if v, ok := PortsOf[T](m); ok {
		return v
	}
	panic(fmt.Sprintf("module %s: no %s port", m.Name(), reflect.TypeFor[T]()))
}
