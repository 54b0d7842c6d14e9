package statex_test

import (
	"testing"

	. "github.com/comalice/statex"
)

// Test compose threads left to right: compose(op1, op2)(s) == op2(op1(s)).
func TestComposeOrder(t *testing.T) {
	op1 := Append("a")
	op2 := Append("b")

	composed := Compose(op1, op2)([]string{})
	direct := op2(op1([]string{}))

	if len(composed) != 2 || composed[0] != "a" || composed[1] != "b" {
		t.Errorf("expected [a b], got %v", composed)
	}
	if len(direct) != len(composed) || direct[0] != composed[0] || direct[1] != composed[1] {
		t.Errorf("expected compose to equal sequential application, got %v vs %v", composed, direct)
	}
}

// Test empty compose is the identity, reference included.
func TestComposeEmptyIsIdentity(t *testing.T) {
	before := []string{"a"}
	after := Compose[[]string]()(before)
	if !sameSlice(after, before) {
		t.Error("expected identical slice from empty compose")
	}
}

func TestComposeSkipsNilOperators(t *testing.T) {
	after := Compose(nil, Append(1), nil)([]int{})
	if len(after) != 1 || after[0] != 1 {
		t.Errorf("expected [1], got %v", after)
	}
}

// Test compose of composes: pipelines are recursively composable.
func TestComposeNested(t *testing.T) {
	inner := Compose(Append("a"), Append("b"))
	after := Compose(inner, Append("c"))(nil)
	want := []string{"a", "b", "c"}
	for i := range want {
		if after[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, after)
		}
	}
}

// Test iif resolves the true operand, the else operand, or falls back to
// identity when no else operand is given.
func TestIifBooleanCondition(t *testing.T) {
	before := []string{"a"}

	ifTrue := Iif[[]string](true, Append("t"), Append("f"))(before)
	if ifTrue[len(ifTrue)-1] != "t" {
		t.Errorf("expected true branch, got %v", ifTrue)
	}

	ifFalse := Iif[[]string](false, Append("t"), Append("f"))(before)
	if ifFalse[len(ifFalse)-1] != "f" {
		t.Errorf("expected else branch, got %v", ifFalse)
	}

	noElse := Iif[[]string](false, Append("t"))(before)
	if !sameSlice(noElse, before) {
		t.Error("expected identity when condition is false and no else operand")
	}
}

// Test iif with a condition evaluated against the whole state slice.
func TestIifStateCondition(t *testing.T) {
	nonEmpty := Condition[[]string](func(s []string) bool { return len(s) > 0 })

	after := Iif[[]string](nonEmpty, RemoveItem(At[string](0)), Append("seed"))([]string{"a", "b"})
	if len(after) != 1 || after[0] != "b" {
		t.Errorf("expected [b], got %v", after)
	}

	seeded := Iif[[]string](nonEmpty, RemoveItem(At[string](0)), Append("seed"))(nil)
	if len(seeded) != 1 || seeded[0] != "seed" {
		t.Errorf("expected [seed], got %v", seeded)
	}

	// A bare func works without the Condition conversion.
	bare := Iif[[]string](func(s []string) bool { return false }, Append("t"))([]string{"a"})
	if len(bare) != 1 {
		t.Errorf("expected identity, got %v", bare)
	}
}

// Test iif with literal operands instead of operators.
func TestIifLiteralOperands(t *testing.T) {
	after := Iif[[]string](true, []string{"replaced"})([]string{"a", "b"})
	if len(after) != 1 || after[0] != "replaced" {
		t.Errorf("expected [replaced], got %v", after)
	}
}

func TestIifBadConditionPanics(t *testing.T) {
	mustPanic(t, "Iif condition", func() {
		Iif[[]string]("yes", Append("t"))([]string{})
	})
}

// Test a user-defined operator composes with the built-in vocabulary
// without special-casing.
func TestCustomOperatorInterop(t *testing.T) {
	reverse := Operator[[]string](func(s []string) []string {
		next := make([]string, len(s))
		for i, v := range s {
			next[len(s)-1-i] = v
		}
		return next
	})

	before := zoo{Pandas: []string{"Michael", "John"}}
	after := Patch[zoo](map[string]any{
		"Pandas": Compose(Append("Mary"), reverse),
	})(before)

	want := []string{"Mary", "John", "Michael"}
	for i := range want {
		if after.Pandas[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, after.Pandas)
		}
	}
}
