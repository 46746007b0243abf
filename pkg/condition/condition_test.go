package condition_test

import (
	"testing"

	"github.com/goliatone/go-formconf/pkg/condition"
)

func TestEqualsCoercion(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		cond   condition.Condition
		value  any
		expect bool
	}{
		{"string match", condition.Equals("on"), "on", true},
		{"string mismatch", condition.Equals("on"), "off", false},
		{"int against float", condition.Equals(18), float64(18), true},
		{"float against int", condition.Equals(18.0), 18, true},
		{"numeric string", condition.Equals(18), "18", true},
		{"bool match", condition.Equals(true), true, true},
		{"bool against nil", condition.Equals(true), nil, false},
		{"nil against nil", condition.Equals(nil), nil, true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.cond(tc.value); got != tc.expect {
				t.Fatalf("got %v, want %v", got, tc.expect)
			}
		})
	}
}

func TestNotEquals(t *testing.T) {
	t.Parallel()

	cond := condition.NotEquals("draft")
	if cond("draft") {
		t.Fatalf("expected false for matching value")
	}
	if !cond("published") {
		t.Fatalf("expected true for differing value")
	}
}

func TestTruthy(t *testing.T) {
	t.Parallel()

	cond := condition.Truthy()

	for _, truthy := range []any{true, "x", 1, 0.5, []any{"a"}, map[string]any{"k": 1}} {
		if !cond(truthy) {
			t.Fatalf("expected %v (%T) to be truthy", truthy, truthy)
		}
	}
	for _, falsy := range []any{nil, false, "", 0, 0.0, []any{}, map[string]any{}} {
		if cond(falsy) {
			t.Fatalf("expected %v (%T) to be falsy", falsy, falsy)
		}
	}
}

func TestIn(t *testing.T) {
	t.Parallel()

	cond := condition.In("a", "b", 3)
	if !cond("a") || !cond("b") || !cond(3) {
		t.Fatalf("expected membership matches")
	}
	if !cond(3.0) {
		t.Fatalf("expected numeric coercion inside membership")
	}
	if cond("c") || cond(nil) {
		t.Fatalf("expected non-members to fail")
	}
}

func TestOrdering(t *testing.T) {
	t.Parallel()

	gt := condition.GreaterThan(10)
	if !gt(11) || gt(10) || gt(9) {
		t.Fatalf("greater-than boundary misbehaved")
	}
	if !gt("12") {
		t.Fatalf("expected numeric string to compare")
	}
	if gt("abc") {
		t.Fatalf("expected non-numeric value to fail the comparison")
	}

	lt := condition.LessThan(10)
	if !lt(9) || lt(10) || lt(11) {
		t.Fatalf("less-than boundary misbehaved")
	}
}

func TestCombinators(t *testing.T) {
	t.Parallel()

	adult := condition.GreaterThan(17)
	senior := condition.GreaterThan(64)

	if !condition.And(adult, condition.Not(senior))(30) {
		t.Fatalf("expected 30 to satisfy adult AND NOT senior")
	}
	if condition.And(adult, condition.Not(senior))(70) {
		t.Fatalf("expected 70 to fail NOT senior")
	}
	if !condition.Or(senior, condition.Equals(5))(5) {
		t.Fatalf("expected OR alternative to hold")
	}
	if condition.Or(senior, condition.Equals(5))(30) {
		t.Fatalf("expected both OR branches to fail")
	}
}
