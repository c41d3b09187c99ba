package schema

import (
	"github.com/jacoelho/docq/internal/filter"
	"github.com/jacoelho/docq/internal/spec"
)

func schemaList(keyword string, operand any, recompile recompile) ([]filter.Evaluator, error) {
	list, ok := spec.AsList(operand)
	if !ok || len(list) == 0 {
		return nil, keywordError(keyword, "expected non-empty array of schemas, got %T", operand)
	}

	out := make([]filter.Evaluator, 0, len(list))
	for _, item := range list {
		compiled, err := compileSchema(keyword, item, recompile)
		if err != nil {
			return nil, err
		}
		out = append(out, compiled)
	}
	return out, nil
}

func allOfKeyword(operand any, recompile recompile, _ spec.Tree) (filter.Evaluator, error) {
	schemas, err := schemaList("allOf", operand, recompile)
	if err != nil {
		return nil, err
	}
	return filter.And(schemas), nil
}

func anyOfKeyword(operand any, recompile recompile, _ spec.Tree) (filter.Evaluator, error) {
	schemas, err := schemaList("anyOf", operand, recompile)
	if err != nil {
		return nil, err
	}

	return func(v any, present bool) bool {
		for _, s := range schemas {
			if s(v, present) {
				return true
			}
		}
		return false
	}, nil
}

func oneOfKeyword(operand any, recompile recompile, _ spec.Tree) (filter.Evaluator, error) {
	schemas, err := schemaList("oneOf", operand, recompile)
	if err != nil {
		return nil, err
	}

	return func(v any, present bool) bool {
		matched := 0
		for _, s := range schemas {
			if s(v, present) {
				matched++
				if matched > 1 {
					return false
				}
			}
		}
		return matched == 1
	}, nil
}

func notKeyword(operand any, recompile recompile, _ spec.Tree) (filter.Evaluator, error) {
	compiled, err := compileSchema("not", operand, recompile)
	if err != nil {
		return nil, err
	}
	return filter.Not(compiled), nil
}
