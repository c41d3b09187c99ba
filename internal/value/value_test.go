package value

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestToFloat64(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input any
		ok    bool
		want  float64
	}{
		{name: "int", input: int(10), ok: true, want: 10},
		{name: "float64", input: 12.5, ok: true, want: 12.5},
		{name: "json_number", input: json.Number("42"), ok: true, want: 42},
		{name: "decimal128", input: mustDecimal(t, "7"), ok: true, want: 7},
		{name: "non_numeric", input: "x", ok: false, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := ToFloat64(tt.input)
			if ok != tt.ok {
				t.Fatalf("ToFloat64(%v) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if got != tt.want {
				t.Fatalf("ToFloat64(%v) value = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestAdd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b any
		want any
	}{
		{name: "int_int", a: 1, b: 2, want: 3},
		{name: "int32_int32", a: int32(1), b: int32(2), want: int32(3)},
		{name: "mixed_integers", a: int32(1), b: int64(2), want: int64(3)},
		{name: "float", a: 1.5, b: 1, want: 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Add(tt.a, tt.b)
			if err != nil {
				t.Fatalf("Add() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("Add(%v, %v) = %v (%T), want %v (%T)", tt.a, tt.b, got, got, tt.want, tt.want)
			}
		})
	}

	if _, err := Add("x", 1); err == nil {
		t.Fatal("Add(string) expected error")
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	instant := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{name: "numbers_across_types", a: int32(2), b: 2.0, want: true},
		{name: "strings", a: "a", b: "a", want: true},
		{name: "null", a: nil, b: nil, want: true},
		{name: "null_vs_zero", a: nil, b: 0, want: false},
		{name: "dates", a: instant, b: primitive.NewDateTimeFromTime(instant), want: true},
		{name: "maps_ignore_order", a: map[string]any{"a": 1, "b": 2}, b: bson.D{{Key: "b", Value: 2}, {Key: "a", Value: 1}}, want: true},
		{name: "maps_differ", a: map[string]any{"a": 1}, b: map[string]any{"a": 2}, want: false},
		{name: "lists", a: []any{1, "x"}, b: bson.A{1.0, "x"}, want: true},
		{name: "list_order_matters", a: []any{1, 2}, b: []any{2, 1}, want: false},
		{name: "string_vs_number", a: "1", b: 1, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Fatalf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	t.Parallel()

	if got, ok := Compare(1, 2.5); !ok || got != -1 {
		t.Fatalf("Compare(1, 2.5) = (%d, %v), want (-1, true)", got, ok)
	}
	if got, ok := Compare("b", "a"); !ok || got != 1 {
		t.Fatalf("Compare(b, a) = (%d, %v), want (1, true)", got, ok)
	}
	if _, ok := Compare("1", 1); ok {
		t.Fatal("Compare(string, number) ok = true, want false")
	}
}

func TestOrder(t *testing.T) {
	t.Parallel()

	if Order(nil, 1) != -1 {
		t.Fatal("null must sort before numbers")
	}
	if Order(5, "a") != -1 {
		t.Fatal("numbers must sort before strings")
	}
	if Order([]any{1, 2}, []any{1, 3}) != -1 {
		t.Fatal("arrays must order element-wise")
	}
}

func TestCompileRegex(t *testing.T) {
	t.Parallel()

	re, err := CompileRegex("^a b # comment", "ix")
	if err != nil {
		t.Fatalf("CompileRegex() error = %v", err)
	}
	if !re.MatchString("ABc") {
		t.Fatalf("regex %q should match ABc", re)
	}
	if _, err := CompileRegex("a", "q"); err == nil {
		t.Fatal("CompileRegex() with invalid option expected error")
	}
}

func mustDecimal(t *testing.T, input string) primitive.Decimal128 {
	t.Helper()

	d, err := primitive.ParseDecimal128(input)
	if err != nil {
		t.Fatalf("ParseDecimal128(%q) error = %v", input, err)
	}
	return d
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	input := bson.D{
		{Key: "a", Value: bson.A{bson.M{"b": 1}, "x"}},
		{Key: "at", Value: primitive.NewDateTimeFromTime(at)},
	}

	got := Normalize(input)
	want := map[string]any{
		"a":  []any{map[string]any{"b": 1}, "x"},
		"at": at,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Normalize() mismatch (-want +got):\n%s", diff)
	}

	source := map[string]any{"list": []any{1}}
	copied := Normalize(source).(map[string]any)
	copied["list"].([]any)[0] = 2
	if source["list"].([]any)[0] != 1 {
		t.Fatal("Normalize() shared a container with its input")
	}
}

func TestKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input any
		want  string
	}{
		{input: nil, want: "null"},
		{input: int32(1), want: "number"},
		{input: "x", want: "string"},
		{input: true, want: "boolean"},
		{input: bson.A{}, want: "array"},
		{input: bson.D{}, want: "object"},
		{input: primitive.ObjectID{}, want: "primitive.ObjectID"},
	}

	for _, tt := range tests {
		if got := Kind(tt.input); got != tt.want {
			t.Fatalf("Kind(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
