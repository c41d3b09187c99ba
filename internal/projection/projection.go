// Package projection selects parts of output documents with JSONPath.
package projection

import (
	"errors"
	"fmt"

	"github.com/theory/jsonpath"
)

// ErrInvalidPath is returned for expressions that do not parse.
var ErrInvalidPath = errors.New("invalid JSONPath")

// Projection is a compiled selector.
type Projection struct {
	path *jsonpath.Path
}

// Compile parses a JSONPath expression such as "$.user.name" or
// "$.items[*].sku".
func Compile(expr string) (*Projection, error) {
	if expr == "" {
		return nil, fmt.Errorf("%w: expression is empty", ErrInvalidPath)
	}

	path, err := jsonpath.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPath, expr, err)
	}
	return &Projection{path: path}, nil
}

// Documents selects from doc and wraps every node that is not a mapping as
// {"value": node}, so each result can be written as a document.
func (p *Projection) Documents(doc map[string]any) []map[string]any {
	nodes := p.path.Select(doc)

	out := make([]map[string]any, 0, len(nodes))
	for _, node := range nodes {
		if m, ok := node.(map[string]any); ok {
			out = append(out, m)
			continue
		}
		out = append(out, map[string]any{"value": node})
	}
	return out
}
