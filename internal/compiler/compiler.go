// Package compiler turns a declarative specification tree into a composed
// function by dispatching each key to an operator builder.
//
// The same dispatch is shared by query filters, updates and JSON schemas;
// they differ only in the compiled function type, how per-key functions
// combine and what happens to keys that are not operators.
package compiler

import (
	"errors"
	"fmt"
	"maps"

	"github.com/jacoelho/docq/internal/spec"
)

// ErrUnknownOperator is returned when a key is neither a registered operator
// nor accepted by the fallback.
var ErrUnknownOperator = errors.New("unknown operator")

// ErrInvalidSpec is returned when a specification is not a mapping.
var ErrInvalidSpec = errors.New("invalid specification")

// Recompile compiles a nested specification fragment with the same compiler.
type Recompile[F any] func(fragment any) (F, error)

// Builder builds a compiled function for one operator. operand is the value
// under the operator key, recompile compiles nested fragments and context is
// the whole tree holding the operator, for sibling lookups such as
// $regex reading $options.
type Builder[F any] func(operand any, recompile Recompile[F], context spec.Tree) (F, error)

// Registry maps operator names to builders.
type Registry[F any] map[string]Builder[F]

// Merge shallow-merges modules into a new registry. Later modules override
// earlier ones on name collision.
func Merge[F any](modules ...Registry[F]) Registry[F] {
	out := make(Registry[F])
	for _, module := range modules {
		maps.Copy(out, module)
	}
	return out
}

// Fallback compiles a key that is not a registered operator.
type Fallback[F any] func(key string, value any, recompile Recompile[F]) (F, error)

// Compiler is a configured dispatch compiler.
type Compiler[F any] struct {
	// Registry holds the operator builders.
	Registry Registry[F]
	// Combine composes the per-key functions in declaration order.
	Combine func(parts []F) F
	// Fallback handles non-operator keys. Nil rejects them.
	Fallback Fallback[F]
	// Literal compiles a fragment that is not a mapping. Nil rejects it.
	Literal func(fragment any) (F, error)
}

// Compile compiles fragment. Registered operators take precedence over the
// fallback for every key.
func (c *Compiler[F]) Compile(fragment any) (F, error) {
	var zero F

	tree, ok := spec.AsTree(fragment)
	if !ok {
		if c.Literal != nil {
			return c.Literal(fragment)
		}
		return zero, fmt.Errorf("%w: expected mapping, got %T", ErrInvalidSpec, fragment)
	}

	parts := make([]F, 0, len(tree))
	for _, entry := range tree {
		part, err := c.compileKey(entry, tree)
		if err != nil {
			return zero, err
		}
		parts = append(parts, part)
	}

	return c.Combine(parts), nil
}

func (c *Compiler[F]) compileKey(entry spec.Entry, tree spec.Tree) (F, error) {
	if build, ok := c.Registry[entry.Key]; ok {
		return build(entry.Value, c.Compile, tree)
	}

	if c.Fallback == nil {
		var zero F
		return zero, fmt.Errorf("%w: %q", ErrUnknownOperator, entry.Key)
	}
	return c.Fallback(entry.Key, entry.Value, c.Compile)
}
