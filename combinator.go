package statex

import "fmt"

// Compose chains operators into one: each operator is applied to the
// output of the previous, left to right, and the final value is
// returned. With no operators it is the identity. Nil entries are
// skipped, so handlers can return conditional pipelines without padding.
func Compose[T any](operators ...Operator[T]) Operator[T] {
	return func(existing T) T {
		next := existing
		for _, op := range operators {
			if op == nil {
				continue
			}
			next = op(next)
		}
		return next
	}
}

// Iif selects between two value-or-operator operands based on condition,
// which is a bool or a Condition[T] evaluated against the current state
// slice. A false condition with no else operand, or a nil selected
// operand, returns the state unchanged. The type parameter is never
// inferrable; spell Iif[T] at the call site.
func Iif[T any](condition, trueOperand any, elseOperand ...any) Operator[T] {
	return func(existing T) T {
		var operand any
		if evalCondition(condition, existing) {
			operand = trueOperand
		} else if len(elseOperand) > 0 {
			operand = elseOperand[0]
		} else {
			return existing
		}
		if operand == nil {
			return existing
		}
		return asState[T](resolve(operand, existing), "Iif operand")
	}
}

func evalCondition[T any](condition any, state T) bool {
	switch c := condition.(type) {
	case bool:
		return c
	case Condition[T]:
		return c(state)
	case func(T) bool:
		return c(state)
	default:
		panic(fmt.Sprintf("statex: Iif condition must be bool or Condition, got %T", condition))
	}
}
