package filterops

import (
	"github.com/jacoelho/docq/internal/filter"
	"github.com/jacoelho/docq/internal/spec"
	"github.com/jacoelho/docq/internal/value"
)

// Logical holds $and $or $nor $not.
var Logical = filter.Registry{
	"$and": and,
	"$or":  or,
	"$nor": nor,
	"$not": not,
}

func clauses(operator string, operand any, recompile filter.Recompile) ([]filter.Evaluator, error) {
	list, ok := spec.AsList(operand)
	if !ok || len(list) == 0 {
		return nil, operandError(operator, "non-empty array", operand)
	}

	out := make([]filter.Evaluator, 0, len(list))
	for _, item := range list {
		if _, ok := spec.AsTree(item); !ok {
			return nil, operandError(operator, "array of objects", item)
		}
		compiled, err := recompile(item)
		if err != nil {
			return nil, err
		}
		out = append(out, compiled)
	}
	return out, nil
}

func anyOf(parts []filter.Evaluator) filter.Evaluator {
	return func(v any, present bool) bool {
		for _, part := range parts {
			if part(v, present) {
				return true
			}
		}
		return false
	}
}

func and(operand any, recompile filter.Recompile, _ spec.Tree) (filter.Evaluator, error) {
	parts, err := clauses("$and", operand, recompile)
	if err != nil {
		return nil, err
	}
	return filter.And(parts), nil
}

func or(operand any, recompile filter.Recompile, _ spec.Tree) (filter.Evaluator, error) {
	parts, err := clauses("$or", operand, recompile)
	if err != nil {
		return nil, err
	}
	return anyOf(parts), nil
}

func nor(operand any, recompile filter.Recompile, _ spec.Tree) (filter.Evaluator, error) {
	parts, err := clauses("$nor", operand, recompile)
	if err != nil {
		return nil, err
	}
	return filter.Not(anyOf(parts)), nil
}

// not negates an operator expression or a regular expression. Unlike $ne it
// also matches documents where the field is missing.
func not(operand any, recompile filter.Recompile, _ spec.Tree) (filter.Evaluator, error) {
	if _, ok := value.AsRegex(operand); ok {
		return filter.Not(filter.Equals(operand)), nil
	}

	tree, ok := spec.AsTree(operand)
	if !ok || len(tree) == 0 {
		return nil, operandError("$not", "operator expression or regex", operand)
	}

	compiled, err := recompile(tree)
	if err != nil {
		return nil, err
	}
	return filter.Not(compiled), nil
}
