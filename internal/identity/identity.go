// Package identity provides the reference-identity comparison that backs
// change detection across the operator algebra, the store's subscriber
// notification, and query memoization.
//
// "Same" deliberately means identity, not deep equality: operators signal
// "nothing changed" by returning their input unchanged, so identity is all
// a consumer needs to check.
package identity

import "reflect"

// Same reports whether a and b are the same value for change-detection
// purposes. Reference kinds (slices, maps, pointers, channels, functions)
// are the same when they share the underlying pointer; slices must also
// share length. Structs and arrays, which Go states pass by value, are
// the same when every field or element is. Comparable values are the
// same when == holds.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ra := reflect.ValueOf(a)
	rb := reflect.ValueOf(b)
	if ra.Type() != rb.Type() {
		return false
	}
	return sameValue(ra, rb)
}

func sameValue(a, b reflect.Value) bool {
	switch a.Kind() {
	case reflect.Slice:
		return a.Len() == b.Len() && a.Pointer() == b.Pointer()
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()
	case reflect.Struct:
		for i := 0; i < a.NumField(); i++ {
			if !sameValue(a.Field(i), b.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Array:
		for i := 0; i < a.Len(); i++ {
			if !sameValue(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		ea, eb := a.Elem(), b.Elem()
		return ea.Type() == eb.Type() && sameValue(ea, eb)
	default:
		if !a.Comparable() {
			return false
		}
		return a.Equal(b)
	}
}
