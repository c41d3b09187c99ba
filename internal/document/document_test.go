package document

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"
	"github.com/jacoelho/docq/internal/spec"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFormatOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want Format
	}{
		{path: "query.yaml", want: YAML},
		{path: "query.YML", want: YAML},
		{path: "query.json", want: JSON},
		{path: "-", want: JSON},
	}

	for _, tt := range tests {
		if got := FormatOf(tt.path); got != tt.want {
			t.Fatalf("FormatOf(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	if got, err := ParseFormat("YML"); err != nil || got != YAML {
		t.Fatalf("ParseFormat(YML) = %q, %v, want yaml", got, err)
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("ParseFormat(xml) error = %v, want ErrUnknownFormat", err)
	}
}

func TestLoadSpecKeepsOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		format Format
	}{
		{name: "json", input: `{"$set": {"z": 1}, "$inc": {"a": 2}}`, format: JSON},
		{name: "yaml", input: "$set:\n  z: 1\n$inc:\n  a: 2\n", format: YAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := LoadSpec([]byte(tt.input), tt.format)
			if err != nil {
				t.Fatalf("LoadSpec() error = %v", err)
			}
			tree, ok := spec.AsTree(got)
			if !ok {
				t.Fatalf("LoadSpec() = %T, want a mapping", got)
			}
			if diff := cmp.Diff([]string{"$set", "$inc"}, tree.Keys()); diff != "" {
				t.Fatalf("LoadSpec() keys mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadSpecNarrowsYAMLIntegers(t *testing.T) {
	t.Parallel()

	got, err := LoadSpec([]byte("small: 3\nnegative: -4\nbig: 5000000000\nratio: 0.5\n"), YAML)
	if err != nil {
		t.Fatalf("LoadSpec() error = %v", err)
	}

	want := yaml.MapSlice{
		{Key: "small", Value: int32(3)},
		{Key: "negative", Value: int32(-4)},
		{Key: "big", Value: int64(5000000000)},
		{Key: "ratio", Value: 0.5},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("LoadSpec() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSpecErrors(t *testing.T) {
	t.Parallel()

	if _, err := LoadSpec([]byte(`{"a":`), JSON); !errors.Is(err, ErrDecode) {
		t.Fatalf("LoadSpec() error = %v, want ErrDecode", err)
	}
	if _, err := LoadSpec([]byte(`{}`), Format("toml")); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("LoadSpec() error = %v, want ErrUnknownFormat", err)
	}
}

func TestReaderExtendedJSON(t *testing.T) {
	t.Parallel()

	input := `{"_id": {"$oid": "65a000000000000000000001"}, "at": {"$date": "2024-01-02T03:04:05Z"}, "n": 1}
[{"n": 2}, {"n": {"$numberLong": "3"}}]
`
	docs, err := ReadAll(NewReader(strings.NewReader(input), JSON))
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("ReadAll() returned %d documents, want 3", len(docs))
	}

	id, _ := primitive.ObjectIDFromHex("65a000000000000000000001")
	want := map[string]any{
		"_id": id,
		"at":  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		"n":   int32(1),
	}
	if diff := cmp.Diff(want, docs[0]); diff != "" {
		t.Fatalf("first document mismatch (-want +got):\n%s", diff)
	}
	if got := docs[2]["n"]; got != int64(3) {
		t.Fatalf("third document n = %#v, want int64(3)", got)
	}
}

func TestReaderYAMLStream(t *testing.T) {
	t.Parallel()

	input := "name: a\ntags: [x, y]\n---\nname: b\n"
	docs, err := ReadAll(NewReader(strings.NewReader(input), YAML))
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}

	want := []map[string]any{
		{"name": "a", "tags": []any{"x", "y"}},
		{"name": "b"},
	}
	if diff := cmp.Diff(want, docs); diff != "" {
		t.Fatalf("ReadAll() mismatch (-want +got):\n%s", diff)
	}
}

func TestReaderRejectsScalars(t *testing.T) {
	t.Parallel()

	r := NewReader(strings.NewReader("[1]"), JSON)
	if _, err := r.Next(); err == nil {
		t.Fatal("Next() error = nil, want error")
	}

	r = NewReader(strings.NewReader("- 1\n"), YAML)
	if _, err := r.Next(); !errors.Is(err, ErrNotDocument) {
		t.Fatalf("Next() error = %v, want ErrNotDocument", err)
	}

	r = NewReader(strings.NewReader(""), JSON)
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("Next() error = %v, want io.EOF", err)
	}
}

func TestWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewWriter(&buf)
	doc := map[string]any{
		"z":  int32(1),
		"a":  []any{"x", map[string]any{"k": true}},
		"at": time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if err := w.Write(doc); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	want := `{"a":["x",{"k":true}],"at":{"$date":"2024-01-02T03:04:05Z"},"z":1}` + "\n"
	if got := buf.String(); got != want {
		t.Fatalf("Write() = %q, want %q", got, want)
	}
}
