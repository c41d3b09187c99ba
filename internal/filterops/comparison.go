package filterops

import (
	"github.com/jacoelho/docq/internal/filter"
	"github.com/jacoelho/docq/internal/spec"
	"github.com/jacoelho/docq/internal/value"
)

// Comparison holds $eq $ne $gt $gte $lt $lte $in $nin.
var Comparison = filter.Registry{
	"$eq":  eq,
	"$ne":  ne,
	"$gt":  ordered(func(c int) bool { return c > 0 }, false),
	"$gte": ordered(func(c int) bool { return c >= 0 }, true),
	"$lt":  ordered(func(c int) bool { return c < 0 }, false),
	"$lte": ordered(func(c int) bool { return c <= 0 }, true),
	"$in":  in,
	"$nin": nin,
}

func eq(operand any, _ filter.Recompile, _ spec.Tree) (filter.Evaluator, error) {
	return filter.Equals(operand), nil
}

func ne(operand any, _ filter.Recompile, _ spec.Tree) (filter.Evaluator, error) {
	return filter.Not(filter.Equals(operand)), nil
}

// ordered builds a range comparison. A null operand compares only against
// null or missing values, and only the inclusive operators accept those.
func ordered(accept func(int) bool, inclusive bool) filter.Builder {
	return func(operand any, _ filter.Recompile, _ spec.Tree) (filter.Evaluator, error) {
		if operand == nil {
			if inclusive {
				return filter.Equals(nil), nil
			}
			return filter.Never, nil
		}

		compare := func(v any) bool {
			result, ok := value.Compare(v, operand)
			return ok && accept(result)
		}

		return filter.Each(func(v any, present bool) bool {
			if !present {
				return false
			}
			return compare(v) || filter.AnyElement(v, compare)
		}), nil
	}
}

func inList(operator string, operand any) (filter.Evaluator, error) {
	candidates, ok := spec.AsList(operand)
	if !ok {
		return nil, operandError(operator, "array", operand)
	}

	parts := make([]filter.Evaluator, 0, len(candidates))
	for _, candidate := range candidates {
		parts = append(parts, filter.Equals(candidate))
	}

	return func(v any, present bool) bool {
		for _, part := range parts {
			if part(v, present) {
				return true
			}
		}
		return false
	}, nil
}

func in(operand any, _ filter.Recompile, _ spec.Tree) (filter.Evaluator, error) {
	return inList("$in", operand)
}

func nin(operand any, _ filter.Recompile, _ spec.Tree) (filter.Evaluator, error) {
	matches, err := inList("$nin", operand)
	if err != nil {
		return nil, err
	}
	return filter.Not(matches), nil
}
