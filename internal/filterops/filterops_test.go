package filterops

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jacoelho/docq/internal/compiler"
	"github.com/jacoelho/docq/internal/filter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var registry = compiler.Merge(Comparison, Logical, Element, Evaluation, Array, Bitwise)

type queryCase struct {
	name  string
	query any
	doc   map[string]any
	want  bool
}

func runQueries(t *testing.T, tests []queryCase) {
	t.Helper()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e, err := filter.Compile(registry, tt.query)
			if err != nil {
				t.Fatalf("Compile(%v) error = %v", tt.query, err)
			}
			if got := e.Match(tt.doc); got != tt.want {
				t.Fatalf("Match(%v) with %v = %v, want %v", tt.doc, tt.query, got, tt.want)
			}
		})
	}
}

func TestComparison(t *testing.T) {
	t.Parallel()

	runQueries(t, []queryCase{
		{name: "conjunctive_default", query: bson.D{{Key: "x", Value: bson.D{{Key: "$gt", Value: 1}}}, {Key: "y", Value: bson.D{{Key: "$lt", Value: 10}}}}, doc: map[string]any{"x": 2, "y": 5}, want: true},
		{name: "conjunctive_default_first_fails", query: map[string]any{"x": map[string]any{"$gt": 1}, "y": map[string]any{"$lt": 10}}, doc: map[string]any{"x": 0, "y": 5}, want: false},
		{name: "conjunctive_default_second_fails", query: map[string]any{"x": map[string]any{"$gt": 1}, "y": map[string]any{"$lt": 10}}, doc: map[string]any{"x": 2, "y": 20}, want: false},
		{name: "eq_numeric_coercion", query: map[string]any{"n": map[string]any{"$eq": 3}}, doc: map[string]any{"n": 3.0}, want: true},
		{name: "eq_array_element", query: map[string]any{"tags": map[string]any{"$eq": "go"}}, doc: map[string]any{"tags": []any{"rust", "go"}}, want: true},
		{name: "ne_missing", query: map[string]any{"a": map[string]any{"$ne": 1}}, doc: map[string]any{}, want: true},
		{name: "ne_null_missing", query: map[string]any{"a": map[string]any{"$ne": nil}}, doc: map[string]any{}, want: false},
		{name: "ne_array_element", query: map[string]any{"a": map[string]any{"$ne": 1}}, doc: map[string]any{"a": []any{1, 2}}, want: false},
		{name: "gt_any_element", query: map[string]any{"a": map[string]any{"$gt": 4}}, doc: map[string]any{"a": []any{1, 5}}, want: true},
		{name: "gt_cross_type", query: map[string]any{"a": map[string]any{"$gt": 4}}, doc: map[string]any{"a": "5"}, want: false},
		{name: "gt_missing", query: map[string]any{"a": map[string]any{"$gt": 4}}, doc: map[string]any{}, want: false},
		{name: "gte_null_missing", query: map[string]any{"a": map[string]any{"$gte": nil}}, doc: map[string]any{}, want: true},
		{name: "lte_string", query: map[string]any{"a": map[string]any{"$lte": "b"}}, doc: map[string]any{"a": "abc"}, want: true},
		{name: "lt_date", query: map[string]any{"at": map[string]any{"$lt": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}}, doc: map[string]any{"at": time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)}, want: true},
		{name: "in", query: map[string]any{"a": map[string]any{"$in": []any{1, "x"}}}, doc: map[string]any{"a": "x"}, want: true},
		{name: "in_regex", query: map[string]any{"a": map[string]any{"$in": []any{regexp.MustCompile("^ab")}}}, doc: map[string]any{"a": "abc"}, want: true},
		{name: "in_null_missing", query: map[string]any{"a": map[string]any{"$in": []any{nil}}}, doc: map[string]any{}, want: true},
		{name: "nin", query: map[string]any{"a": map[string]any{"$nin": []any{1, 2}}}, doc: map[string]any{"a": 3}, want: true},
		{name: "nin_missing", query: map[string]any{"a": map[string]any{"$nin": []any{1}}}, doc: map[string]any{}, want: true},
	})
}

func TestLogical(t *testing.T) {
	t.Parallel()

	runQueries(t, []queryCase{
		{name: "and", query: map[string]any{"$and": []any{map[string]any{"a": 1}, map[string]any{"b": 2}}}, doc: map[string]any{"a": 1, "b": 2}, want: true},
		{name: "or", query: map[string]any{"$or": []any{map[string]any{"a": 1}, map[string]any{"b": 2}}}, doc: map[string]any{"b": 2}, want: true},
		{name: "or_none", query: map[string]any{"$or": []any{map[string]any{"a": 1}, map[string]any{"b": 2}}}, doc: map[string]any{"b": 3}, want: false},
		{name: "nor", query: map[string]any{"$nor": []any{map[string]any{"a": 1}, map[string]any{"b": 2}}}, doc: map[string]any{"a": 2}, want: true},
		{name: "not_operator", query: map[string]any{"a": map[string]any{"$not": map[string]any{"$gt": 5}}}, doc: map[string]any{"a": 3}, want: true},
		{name: "not_missing", query: map[string]any{"a": map[string]any{"$not": map[string]any{"$gt": 5}}}, doc: map[string]any{}, want: true},
		{name: "not_regex", query: map[string]any{"a": map[string]any{"$not": primitive.Regex{Pattern: "^x"}}}, doc: map[string]any{"a": "xy"}, want: false},
	})
}

func TestElement(t *testing.T) {
	t.Parallel()

	runQueries(t, []queryCase{
		{name: "exists_null", query: map[string]any{"a": map[string]any{"$exists": true}}, doc: map[string]any{"a": nil}, want: true},
		{name: "exists_missing", query: map[string]any{"a": map[string]any{"$exists": true}}, doc: map[string]any{}, want: false},
		{name: "not_exists_numeric_flag", query: map[string]any{"a": map[string]any{"$exists": 0}}, doc: map[string]any{}, want: true},
		{name: "exists_nested", query: map[string]any{"a.b": map[string]any{"$exists": true}}, doc: map[string]any{"a": []any{map[string]any{"c": 1}, map[string]any{"b": 2}}}, want: true},
		{name: "type_alias", query: map[string]any{"a": map[string]any{"$type": "string"}}, doc: map[string]any{"a": "x"}, want: true},
		{name: "type_code", query: map[string]any{"a": map[string]any{"$type": 2}}, doc: map[string]any{"a": "x"}, want: true},
		{name: "type_number", query: map[string]any{"a": map[string]any{"$type": "number"}}, doc: map[string]any{"a": 1.5}, want: true},
		{name: "type_array", query: map[string]any{"a": map[string]any{"$type": "array"}}, doc: map[string]any{"a": []any{1}}, want: true},
		{name: "type_array_element", query: map[string]any{"a": map[string]any{"$type": []any{"bool", "null"}}}, doc: map[string]any{"a": []any{1, true}}, want: true},
		{name: "type_mismatch", query: map[string]any{"a": map[string]any{"$type": "date"}}, doc: map[string]any{"a": "2024"}, want: false},
	})
}

func TestEvaluation(t *testing.T) {
	t.Parallel()

	runQueries(t, []queryCase{
		{name: "regex_options_sibling", query: bson.D{{Key: "a", Value: bson.D{{Key: "$regex", Value: "^AB"}, {Key: "$options", Value: "i"}}}}, doc: map[string]any{"a": "abc"}, want: true},
		{name: "regex_case_sensitive", query: map[string]any{"a": map[string]any{"$regex": "^AB"}}, doc: map[string]any{"a": "abc"}, want: false},
		{name: "regex_array", query: map[string]any{"a": map[string]any{"$regex": "b$"}}, doc: map[string]any{"a": []any{"x", "ab"}}, want: true},
		{name: "regex_literal", query: map[string]any{"a": regexp.MustCompile("^a")}, doc: map[string]any{"a": "abc"}, want: true},
		{name: "mod", query: map[string]any{"n": map[string]any{"$mod": []any{4, 1}}}, doc: map[string]any{"n": 9}, want: true},
		{name: "mod_truncates", query: map[string]any{"n": map[string]any{"$mod": []any{4, 1}}}, doc: map[string]any{"n": 9.7}, want: true},
		{name: "mod_mismatch", query: map[string]any{"n": map[string]any{"$mod": []any{4, 1}}}, doc: map[string]any{"n": 8}, want: false},
		{name: "text", query: map[string]any{"$text": map[string]any{"$search": "cafe"}}, doc: map[string]any{"title": "Le Café"}, want: true},
		{name: "text_case_sensitive", query: map[string]any{"$text": map[string]any{"$search": "cafe", "$caseSensitive": true}}, doc: map[string]any{"title": "CAFE"}, want: false},
		{name: "json_schema", query: map[string]any{"$jsonSchema": map[string]any{"required": []any{"a"}}}, doc: map[string]any{"a": 1}, want: true},
		{name: "json_schema_rejects", query: map[string]any{"$jsonSchema": map[string]any{"required": []any{"a"}}}, doc: map[string]any{"b": 1}, want: false},
		{name: "comment", query: map[string]any{"$comment": "ignored", "a": 1}, doc: map[string]any{"a": 1}, want: true},
	})
}

func TestArray(t *testing.T) {
	t.Parallel()

	runQueries(t, []queryCase{
		{name: "all", query: map[string]any{"tags": map[string]any{"$all": []any{"a", "b"}}}, doc: map[string]any{"tags": []any{"b", "c", "a"}}, want: true},
		{name: "all_missing_one", query: map[string]any{"tags": map[string]any{"$all": []any{"a", "d"}}}, doc: map[string]any{"tags": []any{"a"}}, want: false},
		{name: "all_empty", query: map[string]any{"tags": map[string]any{"$all": []any{}}}, doc: map[string]any{"tags": []any{"a"}}, want: false},
		{name: "all_elem_match", query: map[string]any{"items": map[string]any{"$all": []any{map[string]any{"$elemMatch": map[string]any{"qty": map[string]any{"$gt": 5}}}}}}, doc: map[string]any{"items": []any{map[string]any{"qty": 6}}}, want: true},
		{name: "elem_match_same_element", query: map[string]any{"items": map[string]any{"$elemMatch": map[string]any{"qty": map[string]any{"$gt": 5}, "sku": "a"}}}, doc: map[string]any{"items": []any{map[string]any{"qty": 6, "sku": "b"}, map[string]any{"qty": 1, "sku": "a"}}}, want: false},
		{name: "elem_match_scalar", query: map[string]any{"scores": map[string]any{"$elemMatch": map[string]any{"$gte": 80, "$lt": 85}}}, doc: map[string]any{"scores": []any{70, 82}}, want: true},
		{name: "elem_match_not_array", query: map[string]any{"scores": map[string]any{"$elemMatch": map[string]any{"$gte": 80}}}, doc: map[string]any{"scores": 90}, want: false},
		{name: "size", query: map[string]any{"a": map[string]any{"$size": 2}}, doc: map[string]any{"a": []any{1, 2}}, want: true},
		{name: "size_mismatch", query: map[string]any{"a": map[string]any{"$size": 1}}, doc: map[string]any{"a": []any{1, 2}}, want: false},
	})
}

func TestBitwise(t *testing.T) {
	t.Parallel()

	runQueries(t, []queryCase{
		{name: "all_set_mask", query: map[string]any{"n": map[string]any{"$bitsAllSet": 0b0101}}, doc: map[string]any{"n": 0b1101}, want: true},
		{name: "all_set_positions", query: map[string]any{"n": map[string]any{"$bitsAllSet": []any{1, 5}}}, doc: map[string]any{"n": 0b100010}, want: true},
		{name: "any_set", query: map[string]any{"n": map[string]any{"$bitsAnySet": []any{0, 1}}}, doc: map[string]any{"n": 2}, want: true},
		{name: "all_clear", query: map[string]any{"n": map[string]any{"$bitsAllClear": 0b11}}, doc: map[string]any{"n": 4}, want: true},
		{name: "any_clear", query: map[string]any{"n": map[string]any{"$bitsAnyClear": 0b11}}, doc: map[string]any{"n": 3}, want: false},
		{name: "negative_sign_extends", query: map[string]any{"n": map[string]any{"$bitsAllSet": []any{70}}}, doc: map[string]any{"n": -1}, want: true},
		{name: "fraction", query: map[string]any{"n": map[string]any{"$bitsAnySet": 1}}, doc: map[string]any{"n": 1.5}, want: false},
		{name: "binary", query: map[string]any{"n": map[string]any{"$bitsAllSet": []any{9}}}, doc: map[string]any{"n": primitive.Binary{Data: []byte{0, 2}}}, want: true},
	})
}

func TestNegationThroughArrayPaths(t *testing.T) {
	t.Parallel()

	pair := map[string]any{"a": []any{map[string]any{"b": 1}, map[string]any{"b": 2}}}
	partial := map[string]any{"a": []any{map[string]any{"b": 1}, map[string]any{"c": 2}}}
	none := map[string]any{"a": []any{map[string]any{"c": 1}, map[string]any{"c": 2}}}

	runQueries(t, []queryCase{
		{name: "ne_any_element_equal", query: map[string]any{"a.b": map[string]any{"$ne": 1}}, doc: pair, want: false},
		{name: "ne_no_element_equal", query: map[string]any{"a.b": map[string]any{"$ne": 3}}, doc: pair, want: true},
		{name: "nin_any_element_listed", query: map[string]any{"a.b": map[string]any{"$nin": []any{1}}}, doc: pair, want: false},
		{name: "nin_no_element_listed", query: map[string]any{"a.b": map[string]any{"$nin": []any{5, 6}}}, doc: pair, want: true},
		{name: "not_any_element_matches", query: map[string]any{"a.b": map[string]any{"$not": map[string]any{"$gt": 1}}}, doc: pair, want: false},
		{name: "not_no_element_matches", query: map[string]any{"a.b": map[string]any{"$not": map[string]any{"$gt": 5}}}, doc: pair, want: true},
		{name: "not_regex_any_element", query: map[string]any{"a.b": map[string]any{"$not": regexp.MustCompile("^x")}}, doc: map[string]any{"a": []any{map[string]any{"b": "xy"}, map[string]any{"b": "z"}}}, want: false},
		{name: "nor_any_element_matches", query: map[string]any{"$nor": []any{map[string]any{"a.b": 1}}}, doc: pair, want: false},
		{name: "nor_no_element_matches", query: map[string]any{"$nor": []any{map[string]any{"a.b": 7}}}, doc: pair, want: true},
		{name: "exists_false_some_element_has_field", query: map[string]any{"a.b": map[string]any{"$exists": false}}, doc: partial, want: false},
		{name: "exists_false_no_element_has_field", query: map[string]any{"a.b": map[string]any{"$exists": false}}, doc: none, want: true},
		{name: "exists_true_some_element_has_field", query: map[string]any{"a.b": map[string]any{"$exists": true}}, doc: partial, want: true},
		{name: "range_split_across_elements", query: map[string]any{"a.b": map[string]any{"$gt": 1, "$lt": 2}}, doc: map[string]any{"a": []any{map[string]any{"b": 3}, map[string]any{"b": 0}}}, want: true},
	})
}

func TestInvalidOperands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query any
		msg   string
	}{
		{name: "in_not_array", query: map[string]any{"a": map[string]any{"$in": "x"}}, msg: "invalid operand: $in: expected array, got string"},
		{name: "or_empty", query: map[string]any{"$or": []any{}}},
		{name: "and_scalar_clause", query: map[string]any{"$and": []any{1}}},
		{name: "mod_zero", query: map[string]any{"a": map[string]any{"$mod": []any{0, 1}}}},
		{name: "size_negative", query: map[string]any{"a": map[string]any{"$size": -1}}},
		{name: "type_unknown", query: map[string]any{"a": map[string]any{"$type": "integer"}}},
		{name: "regex_bad_pattern", query: map[string]any{"a": map[string]any{"$regex": "("}}},
		{name: "options_without_regex", query: map[string]any{"a": map[string]any{"$options": "i"}}},
		{name: "text_without_search", query: map[string]any{"$text": map[string]any{}}},
		{name: "bits_negative_mask", query: map[string]any{"a": map[string]any{"$bitsAllSet": -1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := filter.Compile(registry, tt.query)
			if !errors.Is(err, ErrInvalidOperand) {
				t.Fatalf("Compile(%v) error = %v, want ErrInvalidOperand", tt.query, err)
			}
			if tt.msg != "" && err.Error() != tt.msg {
				t.Fatalf("Compile(%v) error = %q, want %q", tt.query, err.Error(), tt.msg)
			}
		})
	}
}
