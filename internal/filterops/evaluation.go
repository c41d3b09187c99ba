package filterops

import (
	"errors"
	"math"
	"regexp"

	"github.com/jacoelho/docq/internal/filter"
	"github.com/jacoelho/docq/internal/schema"
	"github.com/jacoelho/docq/internal/spec"
	"github.com/jacoelho/docq/internal/textsearch"
	"github.com/jacoelho/docq/internal/value"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Evaluation holds $regex $options $mod $text $jsonSchema $comment.
var Evaluation = filter.Registry{
	"$regex":      regex,
	"$options":    options,
	"$mod":        mod,
	"$text":       text,
	"$jsonSchema": jsonSchema,
	"$comment":    comment,
}

func toFloat(v any) (float64, bool) {
	return value.ToFloat64(v)
}

// regex compiles a pattern, combining its own flags with a sibling $options.
func regex(operand any, _ filter.Recompile, context spec.Tree) (filter.Evaluator, error) {
	flags := ""
	if raw, ok := context.Get("$options"); ok {
		s, ok := raw.(string)
		if !ok {
			return nil, operandError("$options", "string", raw)
		}
		flags = s
	}

	var (
		re  *regexp.Regexp
		err error
	)
	switch current := operand.(type) {
	case string:
		re, err = value.CompileRegex(current, flags)
	case primitive.Regex:
		re, err = value.CompileRegex(current.Pattern, current.Options+flags)
	case *regexp.Regexp:
		re = current
		if flags != "" {
			re, err = value.CompileRegex(current.String(), flags)
		}
	default:
		return nil, operandError("$regex", "string or regex", operand)
	}
	if err != nil {
		return nil, errors.Join(operandError("$regex", "valid pattern", operand), err)
	}

	return filter.Equals(re), nil
}

func options(operand any, _ filter.Recompile, context spec.Tree) (filter.Evaluator, error) {
	if !context.Has("$regex") {
		return nil, operandError("$options", "sibling $regex", nil)
	}
	return filter.Always, nil
}

func mod(operand any, _ filter.Recompile, _ spec.Tree) (filter.Evaluator, error) {
	args, ok := spec.AsList(operand)
	if !ok || len(args) != 2 {
		return nil, operandError("$mod", "array of [divisor, remainder]", operand)
	}

	divisor, ok := toFloat(args[0])
	if !ok {
		return nil, operandError("$mod", "numeric divisor", args[0])
	}
	remainder, ok := toFloat(args[1])
	if !ok {
		return nil, operandError("$mod", "numeric remainder", args[1])
	}
	d, r := int64(math.Trunc(divisor)), int64(math.Trunc(remainder))
	if d == 0 {
		return nil, operandError("$mod", "non-zero divisor", args[0])
	}

	check := func(v any) bool {
		f, ok := toFloat(v)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
		return int64(math.Trunc(f))%d == r
	}

	return filter.Each(func(v any, present bool) bool {
		if !present {
			return false
		}
		return check(v) || filter.AnyElement(v, check)
	}), nil
}

// text matches the whole document against a $search string. $language is
// accepted and ignored; folding is language independent.
func text(operand any, _ filter.Recompile, _ spec.Tree) (filter.Evaluator, error) {
	tree, ok := spec.AsTree(operand)
	if !ok {
		return nil, operandError("$text", "object", operand)
	}

	raw, ok := tree.Get("$search")
	search, isString := raw.(string)
	if !ok || !isString {
		return nil, operandError("$text", "string $search", raw)
	}

	var opts textsearch.Options
	for _, flag := range []struct {
		key    string
		target *bool
	}{
		{key: "$caseSensitive", target: &opts.CaseSensitive},
		{key: "$diacriticSensitive", target: &opts.DiacriticSensitive},
	} {
		raw, ok := tree.Get(flag.key)
		if !ok {
			continue
		}
		b, ok := raw.(bool)
		if !ok {
			return nil, operandError("$text "+flag.key, "boolean", raw)
		}
		*flag.target = b
	}

	query, err := textsearch.Parse(search, opts)
	if err != nil {
		return nil, errors.Join(operandError("$text", "search terms", raw), err)
	}

	return filter.Each(func(v any, present bool) bool {
		return present && query.Match(v)
	}), nil
}

func jsonSchema(operand any, _ filter.Recompile, _ spec.Tree) (filter.Evaluator, error) {
	if _, ok := spec.AsTree(operand); !ok {
		return nil, operandError("$jsonSchema", "object", operand)
	}
	compiled, err := schema.Compile(operand)
	if err != nil {
		return nil, err
	}
	return filter.Each(compiled), nil
}

func comment(any, filter.Recompile, spec.Tree) (filter.Evaluator, error) {
	return filter.Always, nil
}
