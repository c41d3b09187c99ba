// Package spec holds the ordered, JSON-shaped specification tree shared by the
// filter, update and schema compilers.
package spec

import (
	"fmt"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
	"go.mongodb.org/mongo-driver/bson"
)

// Entry is one key/value pair of a specification tree.
type Entry struct {
	Key   string
	Value any
}

// Tree preserves declaration order of a specification mapping.
type Tree []Entry

// Get returns the last value for an exact key match.
func (t Tree) Get(key string) (any, bool) {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Key == key {
			return t[i].Value, true
		}
	}
	return nil, false
}

// Has reports whether key is declared.
func (t Tree) Has(key string) bool {
	_, ok := t.Get(key)
	return ok
}

// Keys returns the declared keys in order.
func (t Tree) Keys() []string {
	keys := make([]string, 0, len(t))
	for _, entry := range t {
		keys = append(keys, entry.Key)
	}
	return keys
}

// IsOperator reports whether key names an operator.
func IsOperator(key string) bool {
	return strings.HasPrefix(key, "$")
}

// HasOperators reports whether any key of the tree is an operator.
func (t Tree) HasOperators() bool {
	for _, entry := range t {
		if IsOperator(entry.Key) {
			return true
		}
	}
	return false
}

// AsTree converts the supported mapping representations into a Tree.
// Plain Go maps have no declaration order, their keys are sorted.
func AsTree(value any) (Tree, bool) {
	switch current := value.(type) {
	case Tree:
		return current, true
	case []Entry:
		return Tree(current), true
	case bson.D:
		out := make(Tree, 0, len(current))
		for _, element := range current {
			out = append(out, Entry{Key: element.Key, Value: element.Value})
		}
		return out, true
	case yaml.MapSlice:
		out := make(Tree, 0, len(current))
		for _, item := range current {
			out = append(out, Entry{Key: fmt.Sprint(item.Key), Value: item.Value})
		}
		return out, true
	case map[string]any:
		return fromMap(current), true
	case bson.M:
		return fromMap(current), true
	default:
		return nil, false
	}
}

// AsList converts the supported sequence representations into a slice.
func AsList(value any) ([]any, bool) {
	switch current := value.(type) {
	case []any:
		return current, true
	case bson.A:
		return []any(current), true
	case []string:
		out := make([]any, 0, len(current))
		for _, item := range current {
			out = append(out, item)
		}
		return out, true
	case []Tree:
		out := make([]any, 0, len(current))
		for _, item := range current {
			out = append(out, item)
		}
		return out, true
	case []map[string]any:
		out := make([]any, 0, len(current))
		for _, item := range current {
			out = append(out, item)
		}
		return out, true
	default:
		return nil, false
	}
}

func fromMap(m map[string]any) Tree {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	out := make(Tree, 0, len(keys))
	for _, key := range keys {
		out = append(out, Entry{Key: key, Value: m[key]})
	}
	return out
}
