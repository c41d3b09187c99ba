package value

import (
	"github.com/jacoelho/docq/internal/spec"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Normalize returns a deep copy of v with every mapping turned into a
// map[string]any, every sequence into a []any and BSON datetimes into
// time.Time. Scalars are returned as they are.
func Normalize(v any) any {
	if dt, ok := v.(primitive.DateTime); ok {
		return dt.Time().UTC()
	}

	if tree, ok := spec.AsTree(v); ok {
		out := make(map[string]any, len(tree))
		for _, entry := range tree {
			out[entry.Key] = Normalize(entry.Value)
		}
		return out
	}

	if list, ok := spec.AsList(v); ok {
		out := make([]any, len(list))
		for i, item := range list {
			out[i] = Normalize(item)
		}
		return out
	}

	return v
}
