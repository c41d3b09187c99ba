// Package fieldpath resolves dotted field paths ("a.b.0.c") against documents
// built from map[string]any, bson.M and []any, with auto-vivifying writes.
package fieldpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// MaxPadding bounds how many elements one write may append to an array.
const MaxPadding = 1 << 16

// ErrPathConflict indicates a write through an existing value that is not a
// compatible container.
var ErrPathConflict = errors.New("path conflict")

// ErrIndexRange indicates a write to an index more than MaxPadding elements
// past the end of an array.
var ErrIndexRange = errors.New("array index out of range")

// Segment is one element of a field path. Segments made only of digits are
// numeric and index arrays; every segment can also key a mapping.
type Segment struct {
	Key     string
	Index   int
	Numeric bool
}

func (s Segment) String() string {
	if s.Numeric {
		return s.Key
	}
	return "'" + s.Key + "'"
}

// Path is a parsed field path.
type Path struct {
	raw      string
	segments []Segment
}

// ConflictError describes a failed write: Segment could not be created
// inside Element.
type ConflictError struct {
	Path    string
	Segment Segment
	Element any
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("Cannot create field %s in element %s", e.Segment, Render(e.Element))
}

func (e *ConflictError) Unwrap() error {
	return ErrPathConflict
}

// Parse splits path on '.'.
func Parse(path string) Path {
	parts := strings.Split(path, ".")
	segments := make([]Segment, 0, len(parts))
	for _, part := range parts {
		segments = append(segments, newSegment(part))
	}
	return Path{raw: path, segments: segments}
}

func newSegment(part string) Segment {
	if isDigits(part) {
		index, err := strconv.Atoi(part)
		if err == nil {
			return Segment{Key: part, Index: index, Numeric: true}
		}
	}
	return Segment{Key: part}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (p Path) String() string {
	return p.raw
}

// Segments returns the parsed segments.
func (p Path) Segments() []Segment {
	return p.segments
}

// Get walks the path. A missing level at any depth reports false.
func (p Path) Get(target any) (any, bool) {
	current := target
	for _, segment := range p.segments {
		next, ok := child(current, segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// Set writes value at the path, creating missing intermediate containers:
// an array when the following segment is numeric, a mapping otherwise.
// Existing values of the wrong kind are never replaced; the write fails with
// a *ConflictError and the document is left untouched. A root array is
// written in place and cannot grow.
func (p Path) Set(target any, value any) (any, error) {
	target = mapping(target)
	switch root := target.(type) {
	case map[string]any:
	case []any:
		if first := p.segments[0]; !first.Numeric || first.Index >= len(root) {
			return nil, p.conflict(0, target)
		}
	default:
		return nil, p.conflict(0, target)
	}

	if _, err := p.set(target, 0, value); err != nil {
		return nil, err
	}
	return value, nil
}

// Unset removes the path. A mapping parent loses the key, an array parent
// keeps its length and the slot becomes null. Missing parents are a no-op.
func (p Path) Unset(target any) {
	parent := target
	if len(p.segments) > 1 {
		var ok bool
		parent, ok = Path{segments: p.segments[:len(p.segments)-1]}.Get(target)
		if !ok {
			return
		}
	}

	last := p.segments[len(p.segments)-1]
	switch current := mapping(parent).(type) {
	case map[string]any:
		delete(current, last.Key)
	case []any:
		if last.Numeric && last.Index < len(current) {
			current[last.Index] = nil
		}
	}
}

func (p Path) set(node any, i int, value any) (any, error) {
	segment := p.segments[i]
	last := i == len(p.segments)-1

	switch current := mapping(node).(type) {
	case map[string]any:
		if last {
			current[segment.Key] = value
			return node, nil
		}

		next, ok := current[segment.Key]
		if !ok {
			next = newContainer(p.segments[i+1])
		} else if !accepts(next, p.segments[i+1]) {
			return nil, p.conflict(i+1, map[string]any{segment.Key: next})
		}

		updated, err := p.set(next, i+1, value)
		if err != nil {
			return nil, err
		}
		current[segment.Key] = updated
		return node, nil
	case []any:
		var next any
		exists := segment.Index < len(current)
		if exists {
			next = current[segment.Index]
		}
		if !last && exists && !accepts(next, p.segments[i+1]) {
			return nil, p.conflict(i+1, map[string]any{segment.Key: next})
		}

		if grow := segment.Index + 1 - len(current); grow > MaxPadding {
			return nil, fmt.Errorf("%w: cannot pad %q to index %s", ErrIndexRange, p.raw, segment)
		}
		for len(current) <= segment.Index {
			current = append(current, nil)
		}
		if last {
			current[segment.Index] = value
			return current, nil
		}
		if !exists {
			next = newContainer(p.segments[i+1])
		}

		updated, err := p.set(next, i+1, value)
		if err != nil {
			return nil, err
		}
		current[segment.Index] = updated
		return current, nil
	default:
		return nil, p.conflict(i, node)
	}
}

func (p Path) conflict(i int, element any) error {
	return &ConflictError{Path: p.raw, Segment: p.segments[i], Element: element}
}

func child(node any, segment Segment) (any, bool) {
	switch current := mapping(node).(type) {
	case map[string]any:
		value, ok := current[segment.Key]
		return value, ok
	case []any:
		if !segment.Numeric || segment.Index >= len(current) {
			return nil, false
		}
		return current[segment.Index], true
	default:
		return nil, false
	}
}

// accepts reports whether node can hold segment.
func accepts(node any, segment Segment) bool {
	switch mapping(node).(type) {
	case map[string]any:
		return true
	case []any:
		return segment.Numeric
	default:
		return false
	}
}

// mapping returns a bson.M as the map[string]any it shares storage with.
func mapping(node any) any {
	if m, ok := node.(bson.M); ok {
		return map[string]any(m)
	}
	return node
}

func newContainer(segment Segment) any {
	if segment.Numeric {
		return []any{}
	}
	return map[string]any{}
}
