package filterops

import (
	"math"

	"github.com/jacoelho/docq/internal/filter"
	"github.com/jacoelho/docq/internal/spec"
	"github.com/jacoelho/docq/internal/value"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Bitwise holds $bitsAllSet $bitsAnySet $bitsAllClear $bitsAnyClear.
var Bitwise = filter.Registry{
	"$bitsAllSet":   bits("$bitsAllSet", true, true),
	"$bitsAnySet":   bits("$bitsAnySet", false, true),
	"$bitsAllClear": bits("$bitsAllClear", true, false),
	"$bitsAnyClear": bits("$bitsAnyClear", false, false),
}

// bitReader reports whether the bit at a position is set.
type bitReader func(position int) bool

// readBits reads integral numbers as two's complement, with the sign
// extending past bit 63, and binary data as little-endian bytes.
func readBits(v any) (bitReader, bool) {
	if binary, ok := v.(primitive.Binary); ok {
		return bytesReader(binary.Data), true
	}

	f, ok := value.ToFloat64(v)
	if !ok || f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return nil, false
	}
	n, ok := value.ToInt64(v)
	if !ok {
		return nil, false
	}

	return func(position int) bool {
		if position >= 63 {
			return n < 0
		}
		return n>>position&1 == 1
	}, true
}

func bytesReader(data []byte) bitReader {
	return func(position int) bool {
		if position/8 >= len(data) {
			return false
		}
		return data[position/8]>>(position%8)&1 == 1
	}
}

// positions resolves a bitmask, a list of bit positions or binary data into
// the positions to test.
func positions(operator string, operand any) ([]int, error) {
	if list, ok := spec.AsList(operand); ok {
		out := make([]int, 0, len(list))
		for _, item := range list {
			f, ok := value.ToFloat64(item)
			if !ok || f < 0 || f != math.Trunc(f) {
				return nil, operandError(operator, "non-negative bit position", item)
			}
			out = append(out, int(f))
		}
		return out, nil
	}

	if binary, ok := operand.(primitive.Binary); ok {
		read := bytesReader(binary.Data)
		var out []int
		for position := 0; position < len(binary.Data)*8; position++ {
			if read(position) {
				out = append(out, position)
			}
		}
		return out, nil
	}

	f, ok := value.ToFloat64(operand)
	if !ok || f < 0 || f != math.Trunc(f) || f >= math.MaxInt64 {
		return nil, operandError(operator, "non-negative integer bitmask, positions or binary", operand)
	}
	mask, _ := value.ToInt64(operand)

	var out []int
	for position := 0; position < 63; position++ {
		if mask>>position&1 == 1 {
			out = append(out, position)
		}
	}
	return out, nil
}

// bits builds a bit test. every selects all-of over any-of and set selects
// set bits over clear bits.
func bits(operator string, every, set bool) filter.Builder {
	return func(operand any, _ filter.Recompile, _ spec.Tree) (filter.Evaluator, error) {
		wanted, err := positions(operator, operand)
		if err != nil {
			return nil, err
		}

		return filter.Each(func(v any, present bool) bool {
			if !present {
				return false
			}
			read, ok := readBits(v)
			if !ok {
				return false
			}
			if len(wanted) == 0 {
				return every
			}
			for _, position := range wanted {
				if (read(position) == set) != every {
					return !every
				}
			}
			return every
		}), nil
	}
}
