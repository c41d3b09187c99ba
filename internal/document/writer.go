package document

import (
	"fmt"
	"io"
	"regexp"
	"slices"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Encode renders a document as relaxed extended JSON with sorted keys.
func Encode(doc map[string]any) ([]byte, error) {
	out, err := bson.MarshalExtJSON(denormalize(doc), false, false)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return out, nil
}

// Writer writes one encoded document per line.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write encodes and writes doc.
func (w *Writer) Write(doc map[string]any) error {
	out, err := Encode(doc)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(append(out, '\n')); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// denormalize turns maps into key-sorted bson.D and Go regular expressions
// into BSON regexes.
func denormalize(v any) any {
	switch current := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(current))
		for key := range current {
			keys = append(keys, key)
		}
		slices.Sort(keys)

		out := make(bson.D, 0, len(keys))
		for _, key := range keys {
			out = append(out, bson.E{Key: key, Value: denormalize(current[key])})
		}
		return out
	case []any:
		out := make(bson.A, len(current))
		for i, item := range current {
			out[i] = denormalize(item)
		}
		return out
	case *regexp.Regexp:
		return primitive.Regex{Pattern: current.String()}
	default:
		return v
	}
}
