package handler

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Comparator operators understood by Comparator.
const (
	OpEqual        = "eq"
	OpNotEqual     = "ne"
	OpGreater      = "gt"
	OpGreaterEqual = "gte"
	OpLess         = "lt"
	OpLessEqual    = "lte"
	OpContains     = "contains"
	OpNotContains  = "not_contains"
	OpIn           = "in"
	OpNotIn        = "not_in"
	OpStartsWith   = "starts_with"
	OpEndsWith     = "ends_with"
	OpMatches      = "matches"
)

// Comparator is the intrinsic handler of the field comparison kinds. It reads
// the fact named by the condition source and compares it with the target.
// Comparator values are comparable, so the same operator always yields an
// equal handler.
type Comparator struct {
	Op string
}

// NewComparator returns the comparator for op.
func NewComparator(op string) Comparator {
	return Comparator{Op: op}
}

// Check implements Checker. Ordering operators need a numeric target and
// matches needs a valid regular expression.
func (c Comparator) Check(target string) error {
	switch c.Op {
	case OpGreater, OpGreaterEqual, OpLess, OpLessEqual:
		if _, err := strconv.ParseFloat(strings.TrimSpace(target), 64); err != nil {
			return fmt.Errorf("%s needs a numeric target, got %q", c.Op, target)
		}
	case OpMatches:
		if _, err := regexp.Compile(target); err != nil {
			return fmt.Errorf("invalid regex pattern %q: %w", target, err)
		}
	}
	return nil
}

// Evaluate implements Condition.
func (c Comparator) Evaluate(_ context.Context, in ConditionInput) (bool, error) {
	actual, ok := LookupField(in.Facts, in.Source)
	if !ok {
		// A missing fact only satisfies the negated operators.
		switch c.Op {
		case OpNotEqual, OpNotContains, OpNotIn:
			return true, nil
		}
		return false, nil
	}
	return compare(c.Op, actual, in.Target)
}

// compare evaluates op between a fact value and the textual target.
func compare(op string, actual any, target string) (bool, error) {
	switch op {
	case OpEqual:
		return evaluateEqual(actual, target), nil

	case OpNotEqual:
		return !evaluateEqual(actual, target), nil

	case OpGreater, OpGreaterEqual, OpLess, OpLessEqual:
		a, b, err := toNumeric(actual, target)
		if err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		switch op {
		case OpGreater:
			return a > b, nil
		case OpGreaterEqual:
			return a >= b, nil
		case OpLess:
			return a < b, nil
		default:
			return a <= b, nil
		}

	case OpContains:
		return evaluateContains(actual, target), nil

	case OpNotContains:
		return !evaluateContains(actual, target), nil

	case OpIn:
		return evaluateIn(actual, target), nil

	case OpNotIn:
		return !evaluateIn(actual, target), nil

	case OpStartsWith:
		return strings.HasPrefix(toString(actual), target), nil

	case OpEndsWith:
		return strings.HasSuffix(toString(actual), target), nil

	case OpMatches:
		re, err := regexp.Compile(target)
		if err != nil {
			return false, fmt.Errorf("invalid regex pattern %q: %w", target, err)
		}
		return re.MatchString(toString(actual)), nil

	default:
		return false, fmt.Errorf("unknown operator: %q", op)
	}
}

// evaluateEqual compares numerically when both sides are numbers, as
// booleans when the fact is a boolean, and textually otherwise.
func evaluateEqual(actual any, target string) bool {
	if actual == nil {
		return target == "" || target == "null"
	}
	if a, err := convertToFloat64(actual); err == nil {
		if b, err := strconv.ParseFloat(strings.TrimSpace(target), 64); err == nil {
			return a == b
		}
	}
	if a, ok := actual.(bool); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(target)); err == nil {
			return a == b
		}
	}
	return toString(actual) == target
}

// evaluateContains checks substring containment for strings and element
// membership for slices.
func evaluateContains(actual any, target string) bool {
	if s, ok := actual.(string); ok {
		return strings.Contains(s, target)
	}
	v := reflect.ValueOf(actual)
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		for i := 0; i < v.Len(); i++ {
			if evaluateEqual(v.Index(i).Interface(), target) {
				return true
			}
		}
		return false
	}
	return strings.Contains(toString(actual), target)
}

// evaluateIn checks whether the fact is one of the comma separated target values.
func evaluateIn(actual any, target string) bool {
	for _, candidate := range strings.Split(target, ",") {
		if evaluateEqual(actual, strings.TrimSpace(candidate)) {
			return true
		}
	}
	return false
}

// toNumeric converts both operands to float64 for ordering comparisons.
func toNumeric(actual any, target string) (float64, float64, error) {
	a, err := convertToFloat64(actual)
	if err != nil {
		return 0, 0, fmt.Errorf("cannot convert actual value to number: %w", err)
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(target), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("cannot convert target %q to number: %w", target, err)
	}
	return a, b, nil
}

// convertToFloat64 converts a numeric value to float64.
func convertToFloat64(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int8:
		return float64(val), nil
	case int16:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case uint:
		return float64(val), nil
	case uint8:
		return float64(val), nil
	case uint16:
		return float64(val), nil
	case uint32:
		return float64(val), nil
	case uint64:
		return float64(val), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(val), 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", v)
	}
}

func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(v)
	}
}
