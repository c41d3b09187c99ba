package schema

import (
	"math"

	"github.com/jacoelho/docq/internal/filter"
	"github.com/jacoelho/docq/internal/spec"
	"github.com/jacoelho/docq/internal/value"
)

func numberOperand(keyword string, operand any) (float64, error) {
	n, ok := value.ToFloat64(operand)
	if !ok {
		return 0, keywordError(keyword, "expected number, got %T", operand)
	}
	return n, nil
}

// bound builds maximum/minimum. A boolean sibling exclusive keyword switches
// the bound between inclusive (false) and exclusive (true); a numeric one is
// a separate bound handled by its own keyword.
func bound(keyword, exclusiveKeyword string, operand any, schema spec.Tree, inRange func(v, limit float64, exclusive bool) bool) (filter.Evaluator, error) {
	limit, err := numberOperand(keyword, operand)
	if err != nil {
		return nil, err
	}

	exclusive := false
	if sibling, ok := schema.Get(exclusiveKeyword); ok {
		if b, isBool := sibling.(bool); isBool {
			exclusive = b
		}
	}

	return func(v any, present bool) bool {
		n, ok := value.ToFloat64(v)
		return ok && inRange(n, limit, exclusive)
	}, nil
}

// exclusiveBound builds exclusiveMaximum/exclusiveMinimum: a boolean only
// modifies its sibling, a number is an exclusive bound of its own.
func exclusiveBound(keyword string, operand any, inRange func(v, limit float64, exclusive bool) bool) (filter.Evaluator, error) {
	if _, ok := operand.(bool); ok {
		return filter.Always, nil
	}

	limit, err := numberOperand(keyword, operand)
	if err != nil {
		return nil, err
	}

	return func(v any, present bool) bool {
		n, ok := value.ToFloat64(v)
		return ok && inRange(n, limit, true)
	}, nil
}

func below(v, limit float64, exclusive bool) bool {
	if exclusive {
		return v < limit
	}
	return v <= limit
}

func above(v, limit float64, exclusive bool) bool {
	if exclusive {
		return v > limit
	}
	return v >= limit
}

func maximumKeyword(operand any, _ recompile, schema spec.Tree) (filter.Evaluator, error) {
	return bound("maximum", "exclusiveMaximum", operand, schema, below)
}

func minimumKeyword(operand any, _ recompile, schema spec.Tree) (filter.Evaluator, error) {
	return bound("minimum", "exclusiveMinimum", operand, schema, above)
}

func exclusiveMaximumKeyword(operand any, _ recompile, _ spec.Tree) (filter.Evaluator, error) {
	return exclusiveBound("exclusiveMaximum", operand, below)
}

func exclusiveMinimumKeyword(operand any, _ recompile, _ spec.Tree) (filter.Evaluator, error) {
	return exclusiveBound("exclusiveMinimum", operand, above)
}

func multipleOfKeyword(operand any, _ recompile, _ spec.Tree) (filter.Evaluator, error) {
	divisor, err := numberOperand("multipleOf", operand)
	if err != nil {
		return nil, err
	}
	if divisor <= 0 {
		return nil, keywordError("multipleOf", "expected positive number, got %v", divisor)
	}

	return func(v any, present bool) bool {
		n, ok := value.ToFloat64(v)
		if !ok {
			return false
		}
		quotient := n / divisor
		return !math.IsInf(quotient, 0) && quotient == math.Trunc(quotient)
	}, nil
}
