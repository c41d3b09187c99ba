package value

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ToFloat64 converts supported numeric values to float64.
func ToFloat64(value any) (float64, bool) {
	switch current := value.(type) {
	case int:
		return float64(current), true
	case int8:
		return float64(current), true
	case int16:
		return float64(current), true
	case int32:
		return float64(current), true
	case int64:
		return float64(current), true
	case uint:
		return float64(current), true
	case uint8:
		return float64(current), true
	case uint16:
		return float64(current), true
	case uint32:
		return float64(current), true
	case uint64:
		return float64(current), true
	case float32:
		return float64(current), true
	case float64:
		return current, true
	case json.Number:
		parsed, err := current.Float64()
		if err != nil {
			return 0, false
		}
		return parsed, true
	case primitive.Decimal128:
		parsed, err := strconv.ParseFloat(current.String(), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// IsNumber reports whether value is numeric.
func IsNumber(value any) bool {
	_, ok := ToFloat64(value)
	return ok
}

// ToInt64 converts integer-typed values, and doubles without a fractional
// part, into int64.
func ToInt64(value any) (int64, bool) {
	switch current := value.(type) {
	case int:
		return int64(current), true
	case int8:
		return int64(current), true
	case int16:
		return int64(current), true
	case int32:
		return int64(current), true
	case int64:
		return current, true
	case uint:
		return int64(current), true
	case uint8:
		return int64(current), true
	case uint16:
		return int64(current), true
	case uint32:
		return int64(current), true
	case uint64:
		return int64(current), true
	}

	f, ok := ToFloat64(value)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

func isInteger(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}

// Add returns a+b. Operands of the same Go integer type keep that type,
// mixed integer types widen to int64 and anything else becomes float64.
func Add(a, b any) (any, error) {
	return arith(a, b, func(x, y int64) int64 { return x + y }, func(x, y float64) float64 { return x + y })
}

// Multiply returns a*b with the same typing rules as Add.
func Multiply(a, b any) (any, error) {
	return arith(a, b, func(x, y int64) int64 { return x * y }, func(x, y float64) float64 { return x * y })
}

func arith(a, b any, intOp func(int64, int64) int64, floatOp func(float64, float64) float64) (any, error) {
	if isInteger(a) && isInteger(b) {
		x, _ := ToInt64(a)
		y, _ := ToInt64(b)
		result := intOp(x, y)

		switch a.(type) {
		case int:
			if _, same := b.(int); same {
				return int(result), nil
			}
		case int32:
			if _, same := b.(int32); same && result >= math.MinInt32 && result <= math.MaxInt32 {
				return int32(result), nil
			}
		}
		return result, nil
	}

	x, ok := ToFloat64(a)
	if !ok {
		return nil, fmt.Errorf("value %T is not a number", a)
	}
	y, ok := ToFloat64(b)
	if !ok {
		return nil, fmt.Errorf("value %T is not a number", b)
	}
	return floatOp(x, y), nil
}
