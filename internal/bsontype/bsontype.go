// Package bsontype classifies document values into BSON type names.
package bsontype

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrUnknownType is returned for type names or codes outside the BSON table.
var ErrUnknownType = errors.New("unknown BSON type")

// Type is a BSON type alias as used by $type and bsonType.
type Type string

const (
	Double     Type = "double"
	String     Type = "string"
	Object     Type = "object"
	Array      Type = "array"
	BinData    Type = "binData"
	Undefined  Type = "undefined"
	ObjectID   Type = "objectId"
	Bool       Type = "bool"
	Date       Type = "date"
	Null       Type = "null"
	Regex      Type = "regex"
	JavaScript Type = "javascript"
	Symbol     Type = "symbol"
	Int        Type = "int"
	Timestamp  Type = "timestamp"
	Long       Type = "long"
	Decimal    Type = "decimal"
	MinKey     Type = "minKey"
	MaxKey     Type = "maxKey"

	// Number matches every numeric type.
	Number Type = "number"
)

var codes = map[int]Type{
	1:   Double,
	2:   String,
	3:   Object,
	4:   Array,
	5:   BinData,
	6:   Undefined,
	7:   ObjectID,
	8:   Bool,
	9:   Date,
	10:  Null,
	11:  Regex,
	13:  JavaScript,
	14:  Symbol,
	16:  Int,
	17:  Timestamp,
	18:  Long,
	19:  Decimal,
	-1:  MinKey,
	127: MaxKey,
}

var names = func() map[Type]struct{} {
	out := make(map[Type]struct{}, len(codes)+1)
	for _, name := range codes {
		out[name] = struct{}{}
	}
	out[Number] = struct{}{}
	return out
}()

// Parse resolves a type alias string or numeric type code.
func Parse(spec any) (Type, error) {
	switch current := spec.(type) {
	case string:
		if _, ok := names[Type(current)]; ok {
			return Type(current), nil
		}
		return "", fmt.Errorf("%w: %q", ErrUnknownType, current)
	case Type:
		return Parse(string(current))
	}

	code, ok := integerCode(spec)
	if !ok {
		return "", fmt.Errorf("%w: %v (%T)", ErrUnknownType, spec, spec)
	}
	name, ok := codes[code]
	if !ok {
		return "", fmt.Errorf("%w: code %d", ErrUnknownType, code)
	}
	return name, nil
}

// Of returns the primary BSON type of v.
func Of(v any) Type {
	switch current := v.(type) {
	case nil, primitive.Null:
		return Null
	case string:
		return String
	case bool:
		return Bool
	case float32, float64:
		return Double
	case int8, int16, int32, uint8, uint16:
		return Int
	case int:
		if current >= math.MinInt32 && current <= math.MaxInt32 {
			return Int
		}
		return Long
	case int64, uint, uint32, uint64:
		return Long
	case primitive.Decimal128:
		return Decimal
	case map[string]any, bson.M, bson.D:
		return Object
	case []any, bson.A:
		return Array
	case []byte, primitive.Binary:
		return BinData
	case primitive.ObjectID:
		return ObjectID
	case time.Time, primitive.DateTime:
		return Date
	case *regexp.Regexp, primitive.Regex:
		return Regex
	case primitive.JavaScript, primitive.CodeWithScope:
		return JavaScript
	case primitive.Symbol:
		return Symbol
	case primitive.Timestamp:
		return Timestamp
	case primitive.MinKey:
		return MinKey
	case primitive.MaxKey:
		return MaxKey
	case primitive.Undefined:
		return Undefined
	default:
		return Object
	}
}

// Is reports whether v belongs to the BSON type t. Integral doubles also
// match int or long depending on magnitude, since JSON input carries no
// integer width.
func Is(v any, t Type) bool {
	primary := Of(v)
	if primary == t {
		return true
	}

	switch t {
	case Number:
		return IsNumeric(v)
	case Int, Long:
		f, ok := v.(float64)
		if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
			return false
		}
		fits := f >= math.MinInt32 && f <= math.MaxInt32
		return fits == (t == Int)
	}

	return false
}

// IsNumeric reports whether v is any BSON numeric type.
func IsNumeric(v any) bool {
	switch Of(v) {
	case Double, Int, Long, Decimal:
		return true
	default:
		return false
	}
}

func integerCode(v any) (int, bool) {
	switch current := v.(type) {
	case int:
		return current, true
	case int32:
		return int(current), true
	case int64:
		return int(current), true
	case uint64:
		return int(current), true
	case float64:
		if current != math.Trunc(current) {
			return 0, false
		}
		return int(current), true
	default:
		return 0, false
	}
}
