package updateops

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/jacoelho/docq/internal/clock"
	"github.com/jacoelho/docq/internal/fieldpath"
	"github.com/jacoelho/docq/internal/spec"
	"github.com/jacoelho/docq/internal/update"
	"github.com/jacoelho/docq/internal/value"
)

// Field holds $set $unset $inc $mul $min $max $rename $currentDate and
// $setOnInsert. $setOnInsert does nothing here; merge Insert over it when
// the update creates the document.
var Field = update.Registry{
	"$set":         perField("$set", set),
	"$unset":       perField("$unset", unset),
	"$inc":         perField("$inc", arithmetic("$inc", value.Add, func(arg any) any { return arg })),
	"$mul":         perField("$mul", arithmetic("$mul", value.Multiply, zeroOf)),
	"$min":         perField("$min", bound(func(c int) bool { return c < 0 })),
	"$max":         perField("$max", bound(func(c int) bool { return c > 0 })),
	"$rename":      rename,
	"$currentDate": perField("$currentDate", currentDate),
	"$setOnInsert": perField("$setOnInsert", skip),
}

// Insert makes $setOnInsert behave like $set.
var Insert = update.Registry{
	"$setOnInsert": perField("$setOnInsert", set),
}

func set(arg any) (step, error) {
	return func(doc map[string]any, path fieldpath.Path) error {
		_, err := path.Set(doc, value.Normalize(arg))
		return err
	}, nil
}

func unset(any) (step, error) {
	return func(doc map[string]any, path fieldpath.Path) error {
		path.Unset(doc)
		return nil
	}, nil
}

func skip(any) (step, error) {
	return func(map[string]any, fieldpath.Path) error {
		return nil
	}, nil
}

func zeroOf(arg any) any {
	return reflect.Zero(reflect.TypeOf(arg)).Interface()
}

// arithmetic combines the current number with the argument. A missing field
// is set to missing(arg).
func arithmetic(operator string, combine func(a, b any) (any, error), missing func(arg any) any) fieldBuilder {
	return func(arg any) (step, error) {
		if !value.IsNumber(arg) {
			return nil, operandError(operator, "number", arg)
		}

		return func(doc map[string]any, path fieldpath.Path) error {
			current, ok := path.Get(doc)
			if !ok {
				_, err := path.Set(doc, missing(arg))
				return err
			}
			if !value.IsNumber(current) {
				return mismatch(operator, path, current)
			}

			result, err := combine(current, arg)
			if err != nil {
				return fmt.Errorf("%w: %s: field '%s': %v", ErrTypeMismatch, operator, path, err)
			}
			_, err = path.Set(doc, result)
			return err
		}, nil
	}
}

// bound replaces the field when replace accepts the order of the argument
// against the current value.
func bound(replace func(int) bool) fieldBuilder {
	return func(arg any) (step, error) {
		return func(doc map[string]any, path fieldpath.Path) error {
			current, ok := path.Get(doc)
			if ok && !replace(value.Order(arg, current)) {
				return nil
			}
			_, err := path.Set(doc, value.Normalize(arg))
			return err
		}, nil
	}
}

func rename(operand any, _ update.Recompile, _ spec.Tree) (update.Updater, error) {
	fields, ok := spec.AsTree(operand)
	if !ok {
		return nil, operandError("$rename", "object", operand)
	}

	type move struct {
		from, to fieldpath.Path
	}
	moves := make([]move, 0, len(fields))
	for _, field := range fields {
		target, ok := field.Value.(string)
		if !ok || target == "" {
			return nil, operandError("$rename", "non-empty string target", field.Value)
		}
		if target == field.Key || strings.HasPrefix(target, field.Key+".") || strings.HasPrefix(field.Key, target+".") {
			return nil, fmt.Errorf("%w: $rename: source '%s' and target '%s' overlap", ErrInvalidOperand, field.Key, target)
		}
		moves = append(moves, move{from: fieldpath.Parse(field.Key), to: fieldpath.Parse(target)})
	}

	return func(doc map[string]any) (map[string]any, error) {
		for _, m := range moves {
			current, ok := m.from.Get(doc)
			if !ok {
				continue
			}
			if _, err := m.to.Set(doc, current); err != nil {
				return nil, err
			}
			m.from.Unset(doc)
		}
		return doc, nil
	}, nil
}

func currentDate(arg any) (step, error) {
	now := func() any { return clock.Now() }

	switch current := arg.(type) {
	case bool:
		if !current {
			return nil, operandError("$currentDate", "true or {$type: date|timestamp}", arg)
		}
	default:
		tree, ok := spec.AsTree(arg)
		if !ok {
			return nil, operandError("$currentDate", "true or {$type: date|timestamp}", arg)
		}
		kind, _ := tree.Get("$type")
		switch kind {
		case "date":
		case "timestamp":
			now = func() any { return clock.Timestamp() }
		default:
			return nil, operandError("$currentDate", "$type date or timestamp", kind)
		}
	}

	return func(doc map[string]any, path fieldpath.Path) error {
		_, err := path.Set(doc, now())
		return err
	}, nil
}
