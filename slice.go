package statex

// Append returns an operator producing a new slice with items
// concatenated after the existing elements, both in their original
// order. A fresh slice is always allocated, even when items is empty.
func Append[T any](items ...T) Operator[[]T] {
	return func(existing []T) []T {
		next := make([]T, 0, len(existing)+len(items))
		next = append(next, existing...)
		return append(next, items...)
	}
}

// InsertItem returns an operator producing a new slice with value
// inserted. Without a position the value goes at the end. With one, the
// value is inserted immediately before the element currently at that
// index; positions outside [0, len] clamp to the nearest boundary. Only
// the first position argument is considered.
func InsertItem[T any](value T, beforePosition ...int) Operator[[]T] {
	return func(existing []T) []T {
		pos := len(existing)
		if len(beforePosition) > 0 {
			pos = beforePosition[0]
			if pos < 0 {
				pos = 0
			}
			if pos > len(existing) {
				pos = len(existing)
			}
		}
		next := make([]T, 0, len(existing)+1)
		next = append(next, existing[:pos]...)
		next = append(next, value)
		return append(next, existing[pos:]...)
	}
}

// RemoveItem returns an operator producing a new slice with the selected
// element removed. When the selector matches nothing the input slice is
// returned unchanged.
func RemoveItem[T any](sel Selector[T]) Operator[[]T] {
	return func(existing []T) []T {
		i := selectIndex(sel, existing)
		if i < 0 {
			return existing
		}
		next := make([]T, 0, len(existing)-1)
		next = append(next, existing[:i]...)
		return append(next, existing[i+1:]...)
	}
}

// UpdateItem returns an operator producing a new slice where the
// selected element is replaced. The replacement is either a plain T,
// used outright, or an Operator[T], invoked with the existing element;
// anything else panics. All other elements keep their original values
// in a shallow copy of the slice. When the selector matches nothing the
// input slice is returned unchanged.
func UpdateItem[T any](sel Selector[T], replacement any) Operator[[]T] {
	return func(existing []T) []T {
		i := selectIndex(sel, existing)
		if i < 0 {
			return existing
		}
		value := asState[T](resolve(replacement, existing[i]), "UpdateItem replacement")
		next := make([]T, len(existing))
		copy(next, existing)
		next[i] = value
		return next
	}
}
