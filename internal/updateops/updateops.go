// Package updateops provides the update operator modules: field, array and
// bitwise operators.
//
// Every operator takes a mapping of field paths to arguments and applies to
// the fields in declaration order. Path conflicts surface as
// *fieldpath.ConflictError.
package updateops

import (
	"errors"
	"fmt"

	"github.com/jacoelho/docq/internal/fieldpath"
	"github.com/jacoelho/docq/internal/spec"
	"github.com/jacoelho/docq/internal/update"
	"github.com/jacoelho/docq/internal/value"
)

var (
	// ErrInvalidOperand is returned when an operator receives an operand of
	// the wrong shape.
	ErrInvalidOperand = errors.New("invalid operand")
	// ErrTypeMismatch is returned when a document field cannot take an update.
	ErrTypeMismatch = errors.New("type mismatch")
)

func operandError(operator, expected string, got any) error {
	return fmt.Errorf("%w: %s: expected %s, got %s", ErrInvalidOperand, operator, expected, value.Kind(got))
}

func mismatch(operator string, path fieldpath.Path, current any) error {
	return fmt.Errorf("%w: %s: cannot apply to field '%s' of type %s", ErrTypeMismatch, operator, path, value.Kind(current))
}

// step updates one field.
type step func(doc map[string]any, path fieldpath.Path) error

// fieldBuilder validates one field argument and returns its step.
type fieldBuilder func(arg any) (step, error)

// perField builds an updater applying build's step to every field of
// operand, in declaration order.
func perField(operator string, build fieldBuilder) update.Builder {
	return func(operand any, _ update.Recompile, _ spec.Tree) (update.Updater, error) {
		fields, ok := spec.AsTree(operand)
		if !ok {
			return nil, operandError(operator, "object", operand)
		}

		paths := make([]fieldpath.Path, 0, len(fields))
		steps := make([]step, 0, len(fields))
		for _, field := range fields {
			if field.Key == "" {
				return nil, fmt.Errorf("%w: %s: empty field path", ErrInvalidOperand, operator)
			}
			s, err := build(field.Value)
			if err != nil {
				return nil, err
			}
			paths = append(paths, fieldpath.Parse(field.Key))
			steps = append(steps, s)
		}

		return func(doc map[string]any) (map[string]any, error) {
			for i, s := range steps {
				if err := s(doc, paths[i]); err != nil {
					return nil, err
				}
			}
			return doc, nil
		}, nil
	}
}
