package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
	"github.com/jacoelho/docq/internal/value"
	"go.mongodb.org/mongo-driver/bson"
)

// Reader decodes a stream of documents. A top-level array contributes each
// of its elements.
type Reader struct {
	decode  func() (any, error)
	pending []any
	count   int
}

// NewReader reads extended JSON values or YAML documents from r.
func NewReader(r io.Reader, format Format) *Reader {
	if format == YAML {
		dec := yaml.NewDecoder(r, yaml.UseOrderedMap())
		return &Reader{decode: func() (any, error) {
			var v any
			if err := dec.Decode(&v); err != nil {
				return nil, err
			}
			return narrow(v), nil
		}}
	}

	dec := json.NewDecoder(r)
	return &Reader{decode: func() (any, error) {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		return decodeExtJSON(raw)
	}}
}

func decodeExtJSON(raw json.RawMessage) (any, error) {
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		out := make([]any, 0, len(items))
		for _, item := range items {
			decoded, err := decodeExtJSON(item)
			if err != nil {
				return nil, err
			}
			out = append(out, decoded)
		}
		return out, nil
	}

	var doc bson.D
	if err := bson.UnmarshalExtJSON(raw, false, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Next returns the next document, or io.EOF at the end of the stream.
func (r *Reader) Next() (map[string]any, error) {
	for len(r.pending) == 0 {
		v, err := r.decode()
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("%w: document %d: %v", ErrDecode, r.count+1, err)
		}
		if list, ok := v.([]any); ok {
			r.pending = list
			continue
		}
		if v == nil {
			continue
		}
		r.pending = []any{v}
	}

	v := r.pending[0]
	r.pending = r.pending[1:]
	r.count++

	doc, ok := value.Normalize(v).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: document %d is %s", ErrNotDocument, r.count, value.Kind(v))
	}
	return doc, nil
}

// ReadAll drains r.
func ReadAll(r *Reader) ([]map[string]any, error) {
	var out []map[string]any
	for {
		doc, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
}
