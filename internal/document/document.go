// Package document reads and writes documents and specifications.
//
// JSON input is MongoDB extended JSON, so dates, object ids and other BSON
// values survive a round trip. YAML input uses the same value space with
// integers narrowed like extended JSON numbers. Specifications keep their
// key order; documents are normalized to map[string]any.
package document

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"go.mongodb.org/mongo-driver/bson"
)

var (
	// ErrDecode is returned for input that cannot be parsed.
	ErrDecode = errors.New("decode error")
	// ErrNotDocument is returned when a decoded value is not a mapping.
	ErrNotDocument = errors.New("not a document")
	// ErrUnknownFormat is returned for unsupported format names.
	ErrUnknownFormat = errors.New("unknown format")
)

// Format is an input encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "json", "extjson":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// FormatOf picks the format from a file extension, defaulting to JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// LoadSpec decodes a query, update or schema specification. Mappings keep
// their declaration order.
func LoadSpec(data []byte, format Format) (any, error) {
	switch format {
	case YAML:
		var out any
		if err := yaml.UnmarshalWithOptions(data, &out, yaml.UseOrderedMap()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return narrow(out), nil
	case JSON:
		var out bson.D
		if err := bson.UnmarshalExtJSON(data, false, &out); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// narrow gives YAML integers the types extended JSON would: int32 when the
// value fits, int64 otherwise.
func narrow(v any) any {
	switch current := v.(type) {
	case yaml.MapSlice:
		out := make(yaml.MapSlice, len(current))
		for i, item := range current {
			out[i] = yaml.MapItem{Key: item.Key, Value: narrow(item.Value)}
		}
		return out
	case []any:
		out := make([]any, len(current))
		for i, item := range current {
			out[i] = narrow(item)
		}
		return out
	case uint64:
		if current > math.MaxInt64 {
			return float64(current)
		}
		return narrow(int64(current))
	case int64:
		if current >= math.MinInt32 && current <= math.MaxInt32 {
			return int32(current)
		}
		return current
	default:
		return v
	}
}
