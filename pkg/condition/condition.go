// Package condition defines the value predicates evaluated by the dependency
// resolver. A Condition inspects a single sibling value and reports whether a
// dependency rule's overrides should apply. Helpers cover the common
// comparisons; pkg/condition/expr compiles serialised rule strings into
// conditions for models loaded from documents.
package condition

import (
	"strconv"
	"strings"
)

// Condition is a pure predicate over a sibling field's current value.
type Condition func(value any) bool

// Equals matches when the value equals want, with loose numeric and string
// coercion so "42" and 42 compare equal the way form values do.
func Equals(want any) Condition {
	return func(value any) bool {
		return looseEqual(value, want)
	}
}

// NotEquals is the negation of Equals.
func NotEquals(want any) Condition {
	return func(value any) bool {
		return !looseEqual(value, want)
	}
}

// Truthy matches non-empty, non-zero, non-false values.
func Truthy() Condition {
	return func(value any) bool {
		return IsTruthy(value)
	}
}

// In matches when the value loosely equals any of the candidates.
func In(candidates ...any) Condition {
	return func(value any) bool {
		for _, candidate := range candidates {
			if looseEqual(value, candidate) {
				return true
			}
		}
		return false
	}
}

// GreaterThan matches numeric values strictly above n.
func GreaterThan(n float64) Condition {
	return func(value any) bool {
		got, ok := ToNumber(value)
		return ok && got > n
	}
}

// LessThan matches numeric values strictly below n.
func LessThan(n float64) Condition {
	return func(value any) bool {
		got, ok := ToNumber(value)
		return ok && got < n
	}
}

// Not inverts a condition. A nil condition is treated as never matching, so
// Not(nil) always matches.
func Not(cond Condition) Condition {
	return func(value any) bool {
		if cond == nil {
			return true
		}
		return !cond(value)
	}
}

// And matches when every condition matches.
func And(conds ...Condition) Condition {
	return func(value any) bool {
		for _, cond := range conds {
			if cond == nil || !cond(value) {
				return false
			}
		}
		return true
	}
}

// Or matches when at least one condition matches.
func Or(conds ...Condition) Condition {
	return func(value any) bool {
		for _, cond := range conds {
			if cond != nil && cond(value) {
				return true
			}
		}
		return false
	}
}

// IsTruthy reports whether a form value should be treated as set. Empty
// strings, zero numbers, false, nil, and empty collections are falsy;
// anything else is truthy.
func IsTruthy(value any) bool {
	if value == nil {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case int:
		return v != 0
	case int32:
		return v != 0
	case int64:
		return v != 0
	case float32:
		return v != 0
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

// ToNumber coerces numeric types and numeric strings to float64.
func ToNumber(value any) (float64, bool) {
	if value == nil {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func looseEqual(got, want any) bool {
	if got == nil || want == nil {
		return got == nil && want == nil
	}
	if gotNum, ok := ToNumber(got); ok {
		if wantNum, ok := ToNumber(want); ok {
			return gotNum == wantNum
		}
	}
	if gotBool, ok := got.(bool); ok {
		if wantBool, ok := want.(bool); ok {
			return gotBool == wantBool
		}
	}
	if gotStr, ok := got.(string); ok {
		if wantStr, ok := want.(string); ok {
			return gotStr == wantStr
		}
	}
	return got == want
}
