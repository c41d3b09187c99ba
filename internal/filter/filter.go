// Package filter compiles query specifications into document predicates.
//
// Keys registered as operators are dispatched to their builders; any other
// key names a document field and its value is compiled against the value
// found at that field.
package filter

import (
	"fmt"

	"github.com/jacoelho/docq/internal/compiler"
	"github.com/jacoelho/docq/internal/fieldpath"
	"github.com/jacoelho/docq/internal/spec"
	"github.com/jacoelho/docq/internal/value"
	"go.mongodb.org/mongo-driver/bson"
)

// Evaluator reports whether a value matches. present is false when the value
// is absent from its parent, which is distinct from a present null.
type Evaluator func(v any, present bool) bool

type (
	Builder   = compiler.Builder[Evaluator]
	Registry  = compiler.Registry[Evaluator]
	Recompile = compiler.Recompile[Evaluator]
)

// New returns a filter compiler over registry.
func New(registry Registry) *compiler.Compiler[Evaluator] {
	return &compiler.Compiler[Evaluator]{
		Registry: registry,
		Combine:  And,
		Fallback: delegate,
		Literal: func(fragment any) (Evaluator, error) {
			return Equals(fragment), nil
		},
	}
}

// Compile compiles query against registry. A query must be a mapping; only
// nested field values may be literals.
func Compile(registry Registry, query any) (Evaluator, error) {
	if _, ok := spec.AsTree(query); !ok {
		return nil, fmt.Errorf("%w: query must be a mapping, got %T", compiler.ErrInvalidSpec, query)
	}
	return New(registry).Compile(query)
}

// Match applies e to a whole document.
func (e Evaluator) Match(doc any) bool {
	return e(doc, true)
}

// And matches when every part matches. No parts match everything.
func And(parts []Evaluator) Evaluator {
	switch len(parts) {
	case 0:
		return Always
	case 1:
		return parts[0]
	}

	return func(v any, present bool) bool {
		for _, part := range parts {
			if !part(v, present) {
				return false
			}
		}
		return true
	}
}

// Always matches everything.
func Always(any, bool) bool {
	return true
}

// Never matches nothing.
func Never(any, bool) bool {
	return false
}

// Not negates e.
func Not(e Evaluator) Evaluator {
	return func(v any, present bool) bool {
		return !e(v, present)
	}
}

// Equals matches a value equal to expected, an array holding such a value,
// or, when expected is a regular expression, a matching string. A null
// expectation also matches an absent value.
func Equals(expected any) Evaluator {
	if re, ok := value.AsRegex(expected); ok {
		return Each(func(v any, present bool) bool {
			if !present {
				return false
			}
			if s, ok := v.(string); ok {
				return re.MatchString(s)
			}
			if other, ok := value.AsRegex(v); ok {
				return other.String() == re.String()
			}
			return AnyElement(v, func(item any) bool {
				s, ok := item.(string)
				return ok && re.MatchString(s)
			})
		})
	}

	return Each(func(v any, present bool) bool {
		if !present {
			return expected == nil
		}
		if value.Equal(v, expected) {
			return true
		}
		return AnyElement(v, func(item any) bool {
			return value.Equal(item, expected)
		})
	})
}

// candidate is one value reached by a field path.
type candidate struct {
	value   any
	present bool
}

// candidates are the values a field path reaches through an array of
// sub-documents. Not and And receive them as a whole, so a negation denies
// the match of every candidate.
type candidates []candidate

// Each lifts a predicate over a single value into an Evaluator. Given the
// candidates of a path through an array it matches when any candidate does.
// Operators that test one value build their evaluators with Each.
func Each(match Evaluator) Evaluator {
	return func(v any, present bool) bool {
		set, ok := v.(candidates)
		if !ok {
			return match(v, present)
		}
		for _, c := range set {
			if match(c.value, c.present) {
				return true
			}
		}
		return false
	}
}

// AnyElement reports whether v is an array with an element satisfying match.
func AnyElement(v any, match func(any) bool) bool {
	list, ok := spec.AsList(v)
	if !ok {
		return false
	}
	for _, item := range list {
		if match(item) {
			return true
		}
	}
	return false
}

// Lookup returns the direct child key of a mapping value.
func Lookup(v any, key string) (any, bool) {
	switch current := v.(type) {
	case map[string]any:
		child, ok := current[key]
		return child, ok
	case bson.M:
		child, ok := current[key]
		return child, ok
	case bson.D:
		for _, element := range current {
			if element.Key == key {
				return element.Value, true
			}
		}
		return nil, false
	case spec.Tree:
		return current.Get(key)
	default:
		return nil, false
	}
}

func delegate(key string, fragment any, recompile Recompile) (Evaluator, error) {
	next, err := recompile(fragment)
	if err != nil {
		return nil, err
	}

	segments := fieldpath.Parse(key).Segments()
	for i := len(segments) - 1; i >= 0; i-- {
		next = descend(segments[i], next)
	}
	return next, nil
}

// descend moves one field down. A non-index key applied to an array reaches
// the key of every element, and next receives all of them as candidates.
func descend(segment fieldpath.Segment, next Evaluator) Evaluator {
	return func(v any, present bool) bool {
		var found candidates
		if set, ok := v.(candidates); ok {
			for _, c := range set {
				found = reach(found, segment, c.value, c.present)
			}
		} else {
			found = reach(found, segment, v, present)
		}

		if len(found) == 1 {
			return next(found[0].value, found[0].present)
		}
		return next(found, true)
	}
}

// reach appends the values segment selects from v, or one absent value when
// it selects nothing.
func reach(found candidates, segment fieldpath.Segment, v any, present bool) candidates {
	if !present {
		return append(found, candidate{})
	}
	if child, ok := Lookup(v, segment.Key); ok {
		return append(found, candidate{value: child, present: true})
	}

	list, ok := spec.AsList(v)
	if !ok {
		return append(found, candidate{})
	}
	if segment.Numeric {
		if segment.Index < len(list) {
			return append(found, candidate{value: list[segment.Index], present: true})
		}
		return append(found, candidate{})
	}
	if len(list) == 0 {
		return append(found, candidate{})
	}
	for _, item := range list {
		child, ok := Lookup(item, segment.Key)
		found = append(found, candidate{value: child, present: ok})
	}
	return found
}
