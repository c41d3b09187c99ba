package value

import (
	"fmt"

	"github.com/jacoelho/docq/internal/spec"
)

// Kind names the JSON kind of v for error messages.
func Kind(v any) string {
	if v == nil {
		return "null"
	}
	if IsNumber(v) {
		return "number"
	}

	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	}

	if _, ok := spec.AsList(v); ok {
		return "array"
	}
	if _, ok := spec.AsTree(v); ok {
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
