package engine

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"procureflow/backend/pkg/models"
)

// Evaluate folds a condition list left-to-right against a subject. An empty
// list is vacuously true. The joiner applied to a predicate is the
// logicalOperator carried over from the previous condition, AND for the
// first. Unknown operators evaluate to true; stored documents may carry
// operator strings this build does not recognize, and matching must not
// break on them.
func Evaluate(conditions []models.Condition, subject *models.Subject) bool {
	result := true
	joiner := models.LogicalAnd

	for _, c := range conditions {
		predicate := matchOperator(subject.Field(c.Field), c.Operator, c.Value)
		if joiner == models.LogicalOr {
			result = result || predicate
		} else {
			result = result && predicate
		}
		if c.LogicalOperator == models.LogicalOr {
			joiner = models.LogicalOr
		} else {
			joiner = models.LogicalAnd
		}
	}

	return result
}

func matchOperator(field any, op models.Operator, value any) bool {
	switch op {
	case models.OperatorEq:
		return looseEqual(field, value)
	case models.OperatorNeq:
		return !looseEqual(field, value)
	case models.OperatorGt:
		return compareNumeric(field, value, func(a, b float64) bool { return a > b })
	case models.OperatorGte:
		return compareNumeric(field, value, func(a, b float64) bool { return a >= b })
	case models.OperatorLt:
		return compareNumeric(field, value, func(a, b float64) bool { return a < b })
	case models.OperatorLte:
		return compareNumeric(field, value, func(a, b float64) bool { return a <= b })
	case models.OperatorContains:
		return contains(field, value)
	case models.OperatorIn:
		return member(value, field)
	case models.OperatorNotIn:
		return !member(value, field)
	case models.OperatorRegex:
		re, err := regexp.Compile(stringify(value))
		if err != nil {
			return false
		}
		return re.MatchString(stringify(field))
	default:
		// Fail open: an unrecognized operator never filters a subject out.
		return true
	}
}

// looseEqual compares two values the way dynamic condition data expects:
// numeric values of any width compare numerically, everything else by its
// string form. Nil only equals nil.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if aok && bok {
		return fa == fb
	}
	return stringify(a) == stringify(b)
}

func compareNumeric(a, b any, cmp func(a, b float64) bool) bool {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if aok && bok {
		return cmp(fa, fb)
	}
	sa, saok := a.(string)
	sb, sbok := b.(string)
	if saok && sbok {
		return cmp(float64(strings.Compare(sa, sb)), 0)
	}
	return false
}

// contains checks substring membership when the field is a string, and
// element membership when the field is a list.
func contains(field, value any) bool {
	switch f := field.(type) {
	case string:
		return strings.Contains(f, stringify(value))
	case []string:
		for _, item := range f {
			if looseEqual(item, value) {
				return true
			}
		}
	case []any:
		for _, item := range f {
			if looseEqual(item, value) {
				return true
			}
		}
	}
	return false
}

// member tests whether candidate is an element of set. The set may arrive as
// a JSON array or as a comma-separated string.
func member(set, candidate any) bool {
	for _, item := range elements(set) {
		if looseEqual(item, candidate) {
			return true
		}
	}
	return false
}

func elements(set any) []any {
	switch s := set.(type) {
	case []any:
		return s
	case []string:
		out := make([]any, len(s))
		for i, v := range s {
			out[i] = v
		}
		return out
	case []float64:
		out := make([]any, len(s))
		for i, v := range s {
			out[i] = v
		}
		return out
	case string:
		parts := strings.Split(s, ",")
		out := make([]any, 0, len(parts))
		for _, p := range parts {
			out = append(out, strings.TrimSpace(p))
		}
		return out
	case nil:
		return nil
	}
	if rv := reflect.ValueOf(set); rv.Kind() == reflect.Slice {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return []any{set}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
