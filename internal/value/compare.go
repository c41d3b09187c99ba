// Package value implements equality, ordering and arithmetic over document
// values with numeric coercion across Go and BSON number types.
package value

import (
	"bytes"
	"cmp"
	"reflect"
	"time"

	"github.com/jacoelho/docq/internal/bsontype"
	"github.com/jacoelho/docq/internal/spec"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Equal reports deep equality. Numbers compare by value regardless of Go
// type, dates compare by instant and mappings ignore key order.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return isNull(a) && isNull(b)
	}

	if x, ok := ToFloat64(a); ok {
		y, ok := ToFloat64(b)
		return ok && x == y
	}

	if x, ok := AsTime(a); ok {
		y, ok := AsTime(b)
		return ok && x.Equal(y)
	}

	if x, ok := AsRegex(a); ok {
		y, ok := AsRegex(b)
		return ok && x.String() == y.String()
	}

	if x, ok := spec.AsList(a); ok {
		y, ok := spec.AsList(b)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	}

	if x, ok := spec.AsTree(a); ok {
		y, ok := spec.AsTree(b)
		if !ok || len(x) != len(y) {
			return false
		}
		for _, entry := range x {
			other, ok := y.Get(entry.Key)
			if !ok || !Equal(entry.Value, other) {
				return false
			}
		}
		return true
	}

	if x, ok := a.([]byte); ok {
		y, ok := b.([]byte)
		return ok && bytes.Equal(x, y)
	}

	return reflect.DeepEqual(a, b)
}

// Contains reports whether list holds a value Equal to v.
func Contains(list []any, v any) bool {
	for _, item := range list {
		if Equal(item, v) {
			return true
		}
	}
	return false
}

// Compare orders two values of the same comparison class: numbers, strings,
// dates, booleans, object ids and timestamps. It reports false when the
// values are not comparable with each other.
func Compare(a, b any) (int, bool) {
	if x, ok := ToFloat64(a); ok {
		y, ok := ToFloat64(b)
		if !ok {
			return 0, false
		}
		return cmp.Compare(x, y), true
	}

	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return cmp.Compare(x, y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		return cmp.Compare(boolRank(x), boolRank(y)), true
	case primitive.ObjectID:
		y, ok := b.(primitive.ObjectID)
		if !ok {
			return 0, false
		}
		return bytes.Compare(x[:], y[:]), true
	case primitive.Timestamp:
		y, ok := b.(primitive.Timestamp)
		if !ok {
			return 0, false
		}
		if x.T != y.T {
			return cmp.Compare(x.T, y.T), true
		}
		return cmp.Compare(x.I, y.I), true
	}

	if x, ok := AsTime(a); ok {
		y, ok := AsTime(b)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	}

	return 0, false
}

// Order is a total order over all values following BSON sort order: values
// of different types order by type class, values of the same class by
// Compare.
func Order(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}

	if result, ok := Compare(a, b); ok {
		return result
	}

	if x, ok := spec.AsList(a); ok {
		y, _ := spec.AsList(b)
		for i := 0; i < len(x) && i < len(y); i++ {
			if result := Order(x[i], y[i]); result != 0 {
				return result
			}
		}
		return cmp.Compare(len(x), len(y))
	}

	if x, ok := spec.AsTree(a); ok {
		y, _ := spec.AsTree(b)
		for i := 0; i < len(x) && i < len(y); i++ {
			if result := cmp.Compare(x[i].Key, y[i].Key); result != 0 {
				return result
			}
			if result := Order(x[i].Value, y[i].Value); result != 0 {
				return result
			}
		}
		return cmp.Compare(len(x), len(y))
	}

	return 0
}

// AsTime returns the instant held by a date value.
func AsTime(value any) (time.Time, bool) {
	switch current := value.(type) {
	case time.Time:
		return current, true
	case primitive.DateTime:
		return current.Time(), true
	default:
		return time.Time{}, false
	}
}

func isNull(value any) bool {
	switch value.(type) {
	case nil, primitive.Null, primitive.Undefined:
		return true
	default:
		return false
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func rank(value any) int {
	switch bsontype.Of(value) {
	case bsontype.MinKey:
		return 1
	case bsontype.Null, bsontype.Undefined:
		return 2
	case bsontype.Double, bsontype.Int, bsontype.Long, bsontype.Decimal:
		return 3
	case bsontype.String, bsontype.Symbol:
		return 4
	case bsontype.Object:
		return 5
	case bsontype.Array:
		return 6
	case bsontype.BinData:
		return 7
	case bsontype.ObjectID:
		return 8
	case bsontype.Bool:
		return 9
	case bsontype.Date:
		return 10
	case bsontype.Timestamp:
		return 11
	case bsontype.Regex:
		return 12
	case bsontype.MaxKey:
		return 13
	default:
		return 14
	}
}
