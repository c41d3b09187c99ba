// Package schema compiles JSON Schema documents, with the MongoDB bsonType
// extension, into document predicates.
//
// Every present keyword contributes one evaluator and a schema matches when
// all of them do. Keywords that depend on siblings (maximum and
// exclusiveMaximum, items and additionalItems, additionalProperties and
// properties/required) read them from the schema they are declared in.
// Applying a structural keyword to a value of the wrong kind is a mismatch,
// not an error.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/jacoelho/docq/internal/compiler"
	"github.com/jacoelho/docq/internal/filter"
	"github.com/jacoelho/docq/internal/spec"
)

// ErrInvalidKeyword is returned for keyword values of the wrong shape.
var ErrInvalidKeyword = errors.New("invalid schema keyword")

func keywordError(keyword string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidKeyword, keyword, fmt.Sprintf(format, args...))
}

type (
	keyword   = compiler.Builder[filter.Evaluator]
	recompile = compiler.Recompile[filter.Evaluator]
)

// New returns a schema compiler.
func New() *compiler.Compiler[filter.Evaluator] {
	return &compiler.Compiler[filter.Evaluator]{
		Registry: keywords,
		Combine:  filter.And,
		Fallback: func(string, any, compiler.Recompile[filter.Evaluator]) (filter.Evaluator, error) {
			return filter.Always, nil
		},
		Literal: func(fragment any) (filter.Evaluator, error) {
			if b, ok := fragment.(bool); ok {
				if b {
					return filter.Always, nil
				}
				return filter.Never, nil
			}
			return nil, fmt.Errorf("%w: schema must be an object or boolean, got %T", ErrInvalidKeyword, fragment)
		},
	}
}

// Compile compiles a schema.
func Compile(schema any) (filter.Evaluator, error) {
	return New().Compile(schema)
}

// FromJSONSchema compiles a schema built with github.com/google/jsonschema-go.
func FromJSONSchema(s *jsonschema.Schema) (filter.Evaluator, error) {
	encoded, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}

	var decoded any
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return Compile(decoded)
}

var keywords = compiler.Registry[filter.Evaluator]{
	"type":                 typeKeyword,
	"bsonType":             bsonTypeKeyword,
	"enum":                 enumKeyword,
	"const":                constKeyword,
	"maximum":              maximumKeyword,
	"exclusiveMaximum":     exclusiveMaximumKeyword,
	"minimum":              minimumKeyword,
	"exclusiveMinimum":     exclusiveMinimumKeyword,
	"multipleOf":           multipleOfKeyword,
	"maxLength":            maxLengthKeyword,
	"minLength":            minLengthKeyword,
	"pattern":              patternKeyword,
	"items":                itemsKeyword,
	"additionalItems":      additionalItemsKeyword,
	"maxItems":             maxItemsKeyword,
	"minItems":             minItemsKeyword,
	"uniqueItems":          uniqueItemsKeyword,
	"maxProperties":        maxPropertiesKeyword,
	"minProperties":        minPropertiesKeyword,
	"required":             requiredKeyword,
	"properties":           propertiesKeyword,
	"patternProperties":    patternPropertiesKeyword,
	"additionalProperties": additionalPropertiesKeyword,
	"dependencies":         dependenciesKeyword,
	"allOf":                allOfKeyword,
	"anyOf":                anyOfKeyword,
	"oneOf":                oneOfKeyword,
	"not":                  notKeyword,
	"title":                annotationKeyword,
	"description":          annotationKeyword,
}

func annotationKeyword(any, recompile, spec.Tree) (filter.Evaluator, error) {
	return filter.Always, nil
}

// isSchema reports whether v can be compiled as a sub-schema.
func isSchema(v any) bool {
	if _, ok := v.(bool); ok {
		return true
	}
	_, ok := spec.AsTree(v)
	return ok
}
