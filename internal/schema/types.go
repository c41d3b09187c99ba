package schema

import (
	"errors"
	"math"

	"github.com/jacoelho/docq/internal/bsontype"
	"github.com/jacoelho/docq/internal/filter"
	"github.com/jacoelho/docq/internal/spec"
	"github.com/jacoelho/docq/internal/value"
)

var jsonTypes = map[string]func(any) bool{
	"object": func(v any) bool {
		_, ok := spec.AsTree(v)
		return ok
	},
	"array": func(v any) bool {
		_, ok := spec.AsList(v)
		return ok
	},
	"string": func(v any) bool {
		_, ok := v.(string)
		return ok
	},
	"number": value.IsNumber,
	"integer": func(v any) bool {
		f, ok := value.ToFloat64(v)
		return ok && f == math.Trunc(f) && !math.IsInf(f, 0)
	},
	"boolean": func(v any) bool {
		_, ok := v.(bool)
		return ok
	},
	"null": func(v any) bool {
		return v == nil
	},
}

func typeNames(keyword string, operand any) ([]any, error) {
	if list, ok := spec.AsList(operand); ok {
		if len(list) == 0 {
			return nil, keywordError(keyword, "expected at least one type")
		}
		return list, nil
	}
	return []any{operand}, nil
}

func typeKeyword(operand any, _ recompile, _ spec.Tree) (filter.Evaluator, error) {
	names, err := typeNames("type", operand)
	if err != nil {
		return nil, err
	}

	checks := make([]func(any) bool, 0, len(names))
	for _, name := range names {
		s, ok := name.(string)
		if !ok {
			return nil, keywordError("type", "expected string, got %T", name)
		}
		check, ok := jsonTypes[s]
		if !ok {
			return nil, keywordError("type", "unknown type %q", s)
		}
		checks = append(checks, check)
	}

	return func(v any, present bool) bool {
		for _, check := range checks {
			if check(v) {
				return true
			}
		}
		return false
	}, nil
}

func bsonTypeKeyword(operand any, _ recompile, _ spec.Tree) (filter.Evaluator, error) {
	names, err := typeNames("bsonType", operand)
	if err != nil {
		return nil, err
	}

	types := make([]bsontype.Type, 0, len(names))
	for _, name := range names {
		parsed, err := bsontype.Parse(name)
		if err != nil {
			return nil, errors.Join(keywordError("bsonType", "%v", name), err)
		}
		types = append(types, parsed)
	}

	return func(v any, present bool) bool {
		for _, t := range types {
			if bsontype.Is(v, t) {
				return true
			}
		}
		return false
	}, nil
}

func enumKeyword(operand any, _ recompile, _ spec.Tree) (filter.Evaluator, error) {
	allowed, ok := spec.AsList(operand)
	if !ok {
		return nil, keywordError("enum", "expected array, got %T", operand)
	}

	return func(v any, present bool) bool {
		for _, candidate := range allowed {
			if value.Equal(v, candidate) {
				return true
			}
		}
		return false
	}, nil
}

func constKeyword(operand any, _ recompile, _ spec.Tree) (filter.Evaluator, error) {
	return func(v any, present bool) bool {
		return value.Equal(v, operand)
	}, nil
}
