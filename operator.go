// Package statex implements an immutable state store and the operator
// algebra used to describe updates to it.
//
// An Operator is a pure function from an existing state slice to its
// replacement. Primitives (Patch, Append, InsertItem, RemoveItem,
// UpdateItem) build operators from plain values and predicates;
// combinators (Iif, Compose) assemble them into pipelines. The Store
// applies an operator atomically to produce the next snapshot.
//
// Operators never mutate their input. When an operation has no effect
// (selector matched nothing, patch changed nothing) the input is returned
// unchanged, so consumers can detect change by identity comparison alone.
package statex

import "fmt"

// Operator describes a deep-immutable update: given the existing state
// slice it returns the next one. Implementations must not mutate the
// input and must not retain references to it after returning.
//
// Custom operators are ordinary functions converted to this type; they
// compose with Patch, Iif, and Compose without any further ceremony.
type Operator[T any] func(existing T) T

// Predicate locates one element of a slice by value and index.
type Predicate[T any] func(item T, index int) bool

// Condition gates Iif on the content of the whole state slice.
type Condition[T any] func(state T) bool

// Selector resolves the index of the element a slice operation targets,
// or -1 when nothing matches.
type Selector[T any] func(items []T) int

// At selects the element at a fixed index. Out-of-range indices select
// nothing, which downgrades the operation to a no-op.
func At[T any](index int) Selector[T] {
	return func(items []T) int {
		if index < 0 || index >= len(items) {
			return -1
		}
		return index
	}
}

// Match selects the first element, in ascending index order, for which
// pred returns true.
func Match[T any](pred Predicate[T]) Selector[T] {
	return func(items []T) int {
		if pred == nil {
			return -1
		}
		for i, item := range items {
			if pred(item, i) {
				return i
			}
		}
		return -1
	}
}

// anyOperator is how an operator hiding in an untyped slot (a Patch map
// value, an UpdateItem replacement, an Iif operand) is recognized and
// invoked without knowing its type parameter.
type anyOperator interface {
	apply(existing any) any
}

func (op Operator[T]) apply(existing any) any {
	var in T
	if existing != nil {
		v, ok := existing.(T)
		if !ok {
			panic(fmt.Sprintf("statex: operator over %T applied to %T", in, existing))
		}
		in = v
	}
	return op(in)
}

// resolve evaluates a value-or-operator operand against the existing
// value: operators are invoked with it, anything else is taken literally.
func resolve(operand, existing any) any {
	if op, ok := operand.(anyOperator); ok {
		return op.apply(existing)
	}
	return operand
}

// asState narrows a resolved operand back to the state type. A nil
// operand yields the zero value, which is the correct reading for
// nullable states (e.g. replacing a pointer element with nil).
func asState[T any](v any, label string) T {
	var zero T
	if v == nil {
		return zero
	}
	t, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("statex: %s is %T, want %T or Operator[%T]", label, v, zero, zero))
	}
	return t
}

// selectIndex bounds a Selector result to the slice so a misbehaving
// selector degrades to a no-op instead of a panic.
func selectIndex[T any](sel Selector[T], items []T) int {
	if sel == nil {
		return -1
	}
	if i := sel(items); i >= 0 && i < len(items) {
		return i
	}
	return -1
}
