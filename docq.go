// Package docq compiles MongoDB-style query, update and JSON Schema
// specifications into functions over in-memory documents.
//
// Specifications are mappings: map[string]any, bson.D, bson.M or a
// yaml.MapSlice. Ordered forms keep their declaration order, which matters
// for updates; plain maps are applied in sorted key order. Documents are
// map[string]any trees holding JSON values plus BSON values such as
// time.Time, primitive.ObjectID or primitive.Regex.
//
//	match, err := docq.CompileFilter(bson.D{{Key: "qty", Value: bson.D{{Key: "$gt", Value: 5}}}})
//	if err != nil {
//		return err
//	}
//	if match(doc) {
//		...
//	}
package docq

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/jacoelho/docq/internal/compiler"
	"github.com/jacoelho/docq/internal/fieldpath"
	"github.com/jacoelho/docq/internal/filter"
	"github.com/jacoelho/docq/internal/filterops"
	"github.com/jacoelho/docq/internal/schema"
	"github.com/jacoelho/docq/internal/spec"
	"github.com/jacoelho/docq/internal/update"
	"github.com/jacoelho/docq/internal/updateops"
)

type (
	// Evaluator is a compiled predicate. present is false when the value is
	// absent, which differs from a present null.
	Evaluator = filter.Evaluator
	// QueryBuilder builds the evaluator of one query operator.
	QueryBuilder = filter.Builder
	// QueryRegistry maps query operator names to builders.
	QueryRegistry = filter.Registry
	// QueryRecompile compiles a nested query fragment.
	QueryRecompile = filter.Recompile
	// UpdateBuilder builds the updater of one update operator.
	UpdateBuilder = update.Builder
	// UpdateRegistry maps update operator names to builders.
	UpdateRegistry = update.Registry
	// UpdateRecompile compiles a nested update fragment.
	UpdateRecompile = update.Recompile
	// Tree is an ordered specification mapping.
	Tree = spec.Tree
	// Entry is one key of a Tree.
	Entry = spec.Entry
)

// Each lifts a predicate over one value into an Evaluator. When a dotted
// path crosses an array of sub-documents it matches if any reached value
// does. Custom operators that test a single value should use it.
func Each(match Evaluator) Evaluator {
	return filter.Each(match)
}

// Filter reports whether a document matches.
type Filter func(doc any) bool

// Updater mutates doc in place and returns it.
type Updater func(doc map[string]any) (map[string]any, error)

// QueryOperators returns the built-in query operators.
func QueryOperators() QueryRegistry {
	return compiler.Merge(
		filterops.Comparison,
		filterops.Logical,
		filterops.Element,
		filterops.Evaluation,
		filterops.Array,
		filterops.Bitwise,
	)
}

// UpdateOperators returns the built-in update operators. $pull conditions
// are compiled with the query operators.
func UpdateOperators() UpdateRegistry {
	conditions := filter.New(QueryOperators())
	return compiler.Merge(
		updateops.Field,
		updateops.Array(conditions.Compile),
		updateops.Bitwise,
	)
}

// CompileFilter compiles a query. modules are merged over the built-in
// operators, later modules winning.
func CompileFilter(query any, modules ...QueryRegistry) (Filter, error) {
	registry := compiler.Merge(append([]QueryRegistry{QueryOperators()}, modules...)...)
	e, err := filter.Compile(registry, query)
	if err != nil {
		return nil, err
	}
	return e.Match, nil
}

// CompileUpdate compiles an update applied to existing documents;
// $setOnInsert does nothing.
func CompileUpdate(spec any, modules ...UpdateRegistry) (Updater, error) {
	registry := compiler.Merge(append([]UpdateRegistry{UpdateOperators()}, modules...)...)
	u, err := update.Compile(registry, spec)
	if err != nil {
		return nil, err
	}
	return Updater(u), nil
}

// CompileUpsert compiles an update applied to a document being inserted;
// $setOnInsert behaves like $set.
func CompileUpsert(spec any, modules ...UpdateRegistry) (Updater, error) {
	return CompileUpdate(spec, append([]UpdateRegistry{updateops.Insert}, modules...)...)
}

// CompileSchema compiles a JSON Schema with the bsonType extension.
func CompileSchema(s any) (Filter, error) {
	e, err := schema.Compile(s)
	if err != nil {
		return nil, err
	}
	return e.Match, nil
}

// CompileJSONSchema compiles a schema built with
// github.com/google/jsonschema-go.
func CompileJSONSchema(s *jsonschema.Schema) (Filter, error) {
	e, err := schema.FromJSONSchema(s)
	if err != nil {
		return nil, err
	}
	return e.Match, nil
}

// CompileSchemaFor compiles the schema jsonschema.For infers from T. Fields
// without omitempty are required.
func CompileSchemaFor[T any]() (Filter, error) {
	s, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, err
	}
	return CompileJSONSchema(s)
}

// Accessor reads, writes and deletes one dotted field path.
type Accessor struct {
	path fieldpath.Path
}

// Access parses a dotted path such as "a.b.0.c". All-digit segments index
// arrays.
func Access(path string) Accessor {
	return Accessor{path: fieldpath.Parse(path)}
}

// Get returns the value at the path and whether it exists.
func (a Accessor) Get(doc any) (any, bool) {
	return a.path.Get(doc)
}

// Set writes v, creating missing containers. Writing through an existing
// value of the wrong kind fails with a *fieldpath.ConflictError and leaves
// doc untouched.
func (a Accessor) Set(doc any, v any) (any, error) {
	return a.path.Set(doc, v)
}

// Delete removes the key from a mapping parent or nulls the slot of an array
// parent. A missing parent is a no-op.
func (a Accessor) Delete(doc any) {
	a.path.Unset(doc)
}
