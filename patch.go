package statex

import (
	"fmt"
	"reflect"

	"github.com/comalice/statex/internal/identity"
)

// Patch returns an operator producing a copy of an existing struct or
// string-keyed map state with the given entries replaced. A change value
// may itself be an Operator, in which case it is invoked with the
// existing field value and its result is used instead. Entries absent
// from changes are carried over untouched, by reference; Patch never
// recurses on its own, so nested shapes need nested Patch calls.
//
// The copy is made lazily: when every resolved value is identical to the
// existing one, the original state is returned as-is.
//
// The type parameter is never inferrable from the changes map; spell
// Patch[T] at every call site, nested calls included.
//
// Patch panics when T is neither a struct nor a string-keyed map, when a
// key names no exported field of a struct T, or when a resolved value is
// not assignable to its destination. A malformed patch is a programming
// error at the call site, not a runtime condition to recover from.
func Patch[T any](changes map[string]any) Operator[T] {
	return func(existing T) T {
		kind := reflect.TypeOf((*T)(nil)).Elem().Kind()
		switch kind {
		case reflect.Struct:
			return patchStruct(existing, changes)
		case reflect.Map:
			return patchMap(existing, changes)
		default:
			panic(fmt.Sprintf("statex: Patch target must be a struct or string-keyed map, got %v", reflect.TypeOf((*T)(nil)).Elem()))
		}
	}
}

func patchStruct[T any](existing T, changes map[string]any) T {
	cur := reflect.ValueOf(existing)
	st := cur.Type()

	var next reflect.Value // allocated on first real change
	for key, raw := range changes {
		field, ok := st.FieldByName(key)
		if !ok || field.PkgPath != "" {
			panic(fmt.Sprintf("statex: Patch key %q: no exported field on %v", key, st))
		}
		old := cur.FieldByIndex(field.Index).Interface()
		resolved := resolve(raw, old)
		if identity.Same(resolved, old) {
			continue
		}
		if !next.IsValid() {
			next = reflect.New(st).Elem()
			next.Set(cur)
		}
		setField(next.FieldByIndex(field.Index), resolved, key)
	}
	if !next.IsValid() {
		return existing
	}
	return next.Interface().(T)
}

func patchMap[T any](existing T, changes map[string]any) T {
	cur := reflect.ValueOf(existing)
	mt := cur.Type()
	if mt.Key().Kind() != reflect.String {
		panic(fmt.Sprintf("statex: Patch target map must have string keys, got %v", mt))
	}

	var next reflect.Value
	for key, raw := range changes {
		kv := reflect.ValueOf(key).Convert(mt.Key())

		var old any
		existed := false
		if !cur.IsNil() {
			if ov := cur.MapIndex(kv); ov.IsValid() {
				old = ov.Interface()
				existed = true
			}
		}
		resolved := resolve(raw, old)
		if existed && identity.Same(resolved, old) {
			continue
		}
		if !next.IsValid() {
			size := 1
			if !cur.IsNil() {
				size = cur.Len() + 1
			}
			next = reflect.MakeMapWithSize(mt, size)
			if !cur.IsNil() {
				iter := cur.MapRange()
				for iter.Next() {
					next.SetMapIndex(iter.Key(), iter.Value())
				}
			}
		}
		setMapEntry(next, kv, resolved, key)
	}
	if !next.IsValid() {
		return existing
	}
	return next.Interface().(T)
}

func setField(dst reflect.Value, v any, key string) {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(dst.Type()) {
		panic(fmt.Sprintf("statex: Patch key %q: cannot assign %T to %v", key, v, dst.Type()))
	}
	dst.Set(rv)
}

func setMapEntry(m, k reflect.Value, v any, key string) {
	et := m.Type().Elem()
	if v == nil {
		m.SetMapIndex(k, reflect.Zero(et))
		return
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(et) {
		panic(fmt.Sprintf("statex: Patch key %q: cannot assign %T to %v", key, v, et))
	}
	m.SetMapIndex(k, rv)
}
