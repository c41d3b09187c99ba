// Package update compiles update specifications into document updaters.
//
// Every top-level key must be a registered operator. Operators run in the
// order they are declared, each mutating the document in place.
package update

import (
	"github.com/jacoelho/docq/internal/compiler"
)

// Updater applies an update to doc in place and returns it.
type Updater func(doc map[string]any) (map[string]any, error)

type (
	Builder   = compiler.Builder[Updater]
	Registry  = compiler.Registry[Updater]
	Recompile = compiler.Recompile[Updater]
)

// New returns an update compiler over registry. Unknown top-level keys fail
// with compiler.ErrUnknownOperator.
func New(registry Registry) *compiler.Compiler[Updater] {
	return &compiler.Compiler[Updater]{
		Registry: registry,
		Combine:  Sequence,
	}
}

// Compile compiles update against registry.
func Compile(registry Registry, update any) (Updater, error) {
	return New(registry).Compile(update)
}

// Sequence threads a document through steps in order, stopping at the first
// error.
func Sequence(steps []Updater) Updater {
	if len(steps) == 1 {
		return steps[0]
	}

	return func(doc map[string]any) (map[string]any, error) {
		var err error
		for _, step := range steps {
			doc, err = step(doc)
			if err != nil {
				return nil, err
			}
		}
		return doc, nil
	}
}
