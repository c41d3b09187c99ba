package updateops

import (
	"math"

	"github.com/jacoelho/docq/internal/fieldpath"
	"github.com/jacoelho/docq/internal/spec"
	"github.com/jacoelho/docq/internal/update"
)

// Bitwise holds $bit.
var Bitwise = update.Registry{
	"$bit": perField("$bit", bit),
}

var bitOps = map[string]func(a, b int64) int64{
	"and": func(a, b int64) int64 { return a & b },
	"or":  func(a, b int64) int64 { return a | b },
	"xor": func(a, b int64) int64 { return a ^ b },
}

// integerValue reads the Go integer kinds a document can store. Doubles are
// rejected.
func integerValue(v any) (int64, bool) {
	switch current := v.(type) {
	case int:
		return int64(current), true
	case int32:
		return int64(current), true
	case int64:
		return current, true
	case uint32:
		return int64(current), true
	case uint64:
		if current > math.MaxInt64 {
			return 0, false
		}
		return int64(current), true
	default:
		return 0, false
	}
}

// bit applies and/or/xor in declaration order. The result keeps the field's
// integer type when both sides share it and is int64 otherwise.
func bit(arg any) (step, error) {
	ops, ok := spec.AsTree(arg)
	if !ok || len(ops) == 0 {
		return nil, operandError("$bit", "object of and, or, xor", arg)
	}

	type operation struct {
		apply   func(a, b int64) int64
		raw     any
		operand int64
	}
	operations := make([]operation, 0, len(ops))
	for _, op := range ops {
		apply, ok := bitOps[op.Key]
		if !ok {
			return nil, operandError("$bit", "and, or or xor", op.Key)
		}
		n, ok := integerValue(op.Value)
		if !ok {
			return nil, operandError("$bit "+op.Key, "integer", op.Value)
		}
		operations = append(operations, operation{apply: apply, raw: op.Value, operand: n})
	}

	return func(doc map[string]any, path fieldpath.Path) error {
		current, ok := path.Get(doc)
		if !ok {
			current = 0
		}
		n, ok := integerValue(current)
		if !ok {
			return mismatch("$bit", path, current)
		}

		result := current
		for _, op := range operations {
			n = op.apply(n, op.operand)
			result = sameKind(result, op.raw, n)
		}

		_, err := path.Set(doc, result)
		return err
	}, nil
}

func sameKind(current, operand any, n int64) any {
	switch current.(type) {
	case int:
		if _, ok := operand.(int); ok {
			return int(n)
		}
	case int32:
		if _, ok := operand.(int32); ok {
			return int32(n)
		}
	}
	return n
}
