package filterops

import (
	"math"

	"github.com/jacoelho/docq/internal/filter"
	"github.com/jacoelho/docq/internal/spec"
)

// Array holds $all $elemMatch $size.
var Array = filter.Registry{
	"$all":       all,
	"$elemMatch": elemMatch,
	"$size":      size,
}

// all matches when every listed value is matched, each as an equality or,
// for {$elemMatch: ...} entries, as an element query. An empty list matches
// nothing.
func all(operand any, recompile filter.Recompile, _ spec.Tree) (filter.Evaluator, error) {
	list, ok := spec.AsList(operand)
	if !ok {
		return nil, operandError("$all", "array", operand)
	}
	if len(list) == 0 {
		return filter.Never, nil
	}

	parts := make([]filter.Evaluator, 0, len(list))
	for _, item := range list {
		if tree, ok := spec.AsTree(item); ok && tree.Has("$elemMatch") {
			compiled, err := recompile(tree)
			if err != nil {
				return nil, err
			}
			parts = append(parts, compiled)
			continue
		}
		parts = append(parts, filter.Equals(item))
	}
	return filter.And(parts), nil
}

func elemMatch(operand any, recompile filter.Recompile, _ spec.Tree) (filter.Evaluator, error) {
	if _, ok := spec.AsTree(operand); !ok {
		return nil, operandError("$elemMatch", "object", operand)
	}

	compiled, err := recompile(operand)
	if err != nil {
		return nil, err
	}

	return filter.Each(func(v any, present bool) bool {
		list, ok := spec.AsList(v)
		if !present || !ok {
			return false
		}
		for _, item := range list {
			if compiled(item, true) {
				return true
			}
		}
		return false
	}), nil
}

func size(operand any, _ filter.Recompile, _ spec.Tree) (filter.Evaluator, error) {
	f, ok := toFloat(operand)
	if !ok || f < 0 || f != math.Trunc(f) {
		return nil, operandError("$size", "non-negative integer", operand)
	}
	want := int(f)

	return filter.Each(func(v any, present bool) bool {
		list, ok := spec.AsList(v)
		return present && ok && len(list) == want
	}), nil
}
