package filterops

import (
	"errors"

	"github.com/jacoelho/docq/internal/bsontype"
	"github.com/jacoelho/docq/internal/filter"
	"github.com/jacoelho/docq/internal/spec"
)

// Element holds $exists and $type.
var Element = filter.Registry{
	"$exists": exists,
	"$type":   typeOf,
}

// exists with a false operand denies presence across every value the path
// reaches.
func exists(operand any, _ filter.Recompile, _ spec.Tree) (filter.Evaluator, error) {
	present := filter.Each(func(_ any, present bool) bool {
		return present
	})
	if truthy(operand) {
		return present, nil
	}
	return filter.Not(present), nil
}

// truthy follows the query language: false, null and zero are false.
func truthy(v any) bool {
	switch current := v.(type) {
	case nil:
		return false
	case bool:
		return current
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	return true
}

func typeOf(operand any, _ filter.Recompile, _ spec.Tree) (filter.Evaluator, error) {
	names, ok := spec.AsList(operand)
	if !ok {
		names = []any{operand}
	}
	if len(names) == 0 {
		return nil, operandError("$type", "type alias or array of aliases", operand)
	}

	types := make([]bsontype.Type, 0, len(names))
	for _, name := range names {
		parsed, err := bsontype.Parse(name)
		if err != nil {
			return nil, errors.Join(operandError("$type", "type alias or code", name), err)
		}
		types = append(types, parsed)
	}

	check := func(v any) bool {
		for _, t := range types {
			if bsontype.Is(v, t) {
				return true
			}
		}
		return false
	}

	return filter.Each(func(v any, present bool) bool {
		if !present {
			return false
		}
		return check(v) || filter.AnyElement(v, check)
	}), nil
}
