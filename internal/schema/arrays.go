package schema

import (
	"github.com/jacoelho/docq/internal/filter"
	"github.com/jacoelho/docq/internal/spec"
	"github.com/jacoelho/docq/internal/value"
)

func compileSchema(keyword string, operand any, recompile recompile) (filter.Evaluator, error) {
	if !isSchema(operand) {
		return nil, keywordError(keyword, "expected schema, got %T", operand)
	}
	return recompile(operand)
}

// itemsKeyword validates every element against a single schema, or elements
// positionally against a list of schemas with the rest validated by the
// sibling additionalItems.
func itemsKeyword(operand any, recompile recompile, schema spec.Tree) (filter.Evaluator, error) {
	positional, ok := spec.AsList(operand)
	if !ok {
		each, err := compileSchema("items", operand, recompile)
		if err != nil {
			return nil, err
		}
		return func(v any, present bool) bool {
			list, ok := spec.AsList(v)
			if !ok {
				return false
			}
			for _, item := range list {
				if !each(item, true) {
					return false
				}
			}
			return true
		}, nil
	}

	prefix := make([]filter.Evaluator, 0, len(positional))
	for _, item := range positional {
		compiled, err := compileSchema("items", item, recompile)
		if err != nil {
			return nil, err
		}
		prefix = append(prefix, compiled)
	}

	rest := filter.Evaluator(filter.Always)
	if additional, ok := schema.Get("additionalItems"); ok {
		compiled, err := compileSchema("additionalItems", additional, recompile)
		if err != nil {
			return nil, err
		}
		rest = compiled
	}

	return func(v any, present bool) bool {
		list, ok := spec.AsList(v)
		if !ok {
			return false
		}
		for i, item := range list {
			check := rest
			if i < len(prefix) {
				check = prefix[i]
			}
			if !check(item, true) {
				return false
			}
		}
		return true
	}, nil
}

func additionalItemsKeyword(operand any, _ recompile, _ spec.Tree) (filter.Evaluator, error) {
	if !isSchema(operand) {
		return nil, keywordError("additionalItems", "expected schema, got %T", operand)
	}
	return filter.Always, nil
}

func itemCountKeyword(keyword string, operand any, accept func(count, limit int) bool) (filter.Evaluator, error) {
	limit, err := countOperand(keyword, operand)
	if err != nil {
		return nil, err
	}

	return func(v any, present bool) bool {
		list, ok := spec.AsList(v)
		return ok && accept(len(list), limit)
	}, nil
}

func maxItemsKeyword(operand any, _ recompile, _ spec.Tree) (filter.Evaluator, error) {
	return itemCountKeyword("maxItems", operand, func(count, limit int) bool { return count <= limit })
}

func minItemsKeyword(operand any, _ recompile, _ spec.Tree) (filter.Evaluator, error) {
	return itemCountKeyword("minItems", operand, func(count, limit int) bool { return count >= limit })
}

func uniqueItemsKeyword(operand any, _ recompile, _ spec.Tree) (filter.Evaluator, error) {
	unique, ok := operand.(bool)
	if !ok {
		return nil, keywordError("uniqueItems", "expected boolean, got %T", operand)
	}

	return func(v any, present bool) bool {
		list, ok := spec.AsList(v)
		if !ok {
			return false
		}
		if !unique {
			return true
		}

		for i, item := range list {
			if value.Contains(list[:i], item) {
				return false
			}
		}
		return true
	}, nil
}
