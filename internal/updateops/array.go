package updateops

import (
	"math"
	"slices"

	"github.com/jacoelho/docq/internal/fieldpath"
	"github.com/jacoelho/docq/internal/filter"
	"github.com/jacoelho/docq/internal/spec"
	"github.com/jacoelho/docq/internal/update"
	"github.com/jacoelho/docq/internal/value"
)

// Array returns the module holding $push $addToSet $pop $pull $pullAll.
// conditions compiles $pull conditions, usually with the query registry.
func Array(conditions filter.Recompile) update.Registry {
	return update.Registry{
		"$push":     perField("$push", push),
		"$addToSet": perField("$addToSet", addToSet),
		"$pop":      perField("$pop", pop),
		"$pull":     perField("$pull", pull(conditions)),
		"$pullAll":  perField("$pullAll", pullAll),
	}
}

// listAt returns the array at path. A missing field is an empty array.
func listAt(operator string, doc map[string]any, path fieldpath.Path) ([]any, bool, error) {
	current, ok := path.Get(doc)
	if !ok {
		return nil, false, nil
	}
	list, ok := spec.AsList(current)
	if !ok {
		return nil, true, mismatch(operator, path, current)
	}
	return list, true, nil
}

func integer(operator string, v any) (int, error) {
	f, ok := value.ToFloat64(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, operandError(operator, "integer", v)
	}
	return int(f), nil
}

// each reads the values of an {$each: [...]} argument, or the argument
// itself as the single value.
func each(operator string, arg any) ([]any, spec.Tree, error) {
	tree, ok := spec.AsTree(arg)
	if !ok || !tree.Has("$each") {
		return []any{arg}, nil, nil
	}

	raw, _ := tree.Get("$each")
	values, ok := spec.AsList(raw)
	if !ok {
		return nil, nil, operandError(operator+" $each", "array", raw)
	}
	return values, tree, nil
}

type pushModifiers struct {
	position *int
	slice    *int
	sort     func(a, b any) int
}

func parsePushModifiers(modifiers spec.Tree) (pushModifiers, error) {
	var out pushModifiers
	for _, modifier := range modifiers {
		switch modifier.Key {
		case "$each":
		case "$position":
			n, err := integer("$push $position", modifier.Value)
			if err != nil {
				return out, err
			}
			out.position = &n
		case "$slice":
			n, err := integer("$push $slice", modifier.Value)
			if err != nil {
				return out, err
			}
			out.slice = &n
		case "$sort":
			order, err := sortOrder(modifier.Value)
			if err != nil {
				return out, err
			}
			out.sort = order
		default:
			return out, operandError("$push", "modifier $each, $position, $slice or $sort", modifier.Key)
		}
	}
	return out, nil
}

func direction(v any) (int, bool) {
	n, ok := value.ToInt64(v)
	if !ok || (n != 1 && n != -1) {
		return 0, false
	}
	return int(n), true
}

// sortOrder reads a $sort of 1 or -1 over whole elements, or a mapping of
// field paths to directions over sub-document fields.
func sortOrder(order any) (func(a, b any) int, error) {
	if dir, ok := direction(order); ok {
		return func(a, b any) int {
			return dir * value.Order(a, b)
		}, nil
	}

	fields, ok := spec.AsTree(order)
	if !ok || len(fields) == 0 {
		return nil, operandError("$push $sort", "1, -1 or an object of field directions", order)
	}

	type key struct {
		path fieldpath.Path
		dir  int
	}
	keys := make([]key, 0, len(fields))
	for _, field := range fields {
		dir, ok := direction(field.Value)
		if !ok {
			return nil, operandError("$push $sort", "direction 1 or -1", field.Value)
		}
		keys = append(keys, key{path: fieldpath.Parse(field.Key), dir: dir})
	}

	return func(a, b any) int {
		for _, k := range keys {
			x, _ := k.path.Get(a)
			y, _ := k.path.Get(b)
			if result := value.Order(x, y); result != 0 {
				return k.dir * result
			}
		}
		return 0
	}, nil
}

func push(arg any) (step, error) {
	values, modifiers, err := each("$push", arg)
	if err != nil {
		return nil, err
	}
	mods, err := parsePushModifiers(modifiers)
	if err != nil {
		return nil, err
	}

	return func(doc map[string]any, path fieldpath.Path) error {
		list, _, err := listAt("$push", doc, path)
		if err != nil {
			return err
		}

		items := value.Normalize(values).([]any)
		at := len(list)
		if mods.position != nil {
			at = *mods.position
			if at < 0 {
				at = max(len(list)+at, 0)
			}
			at = min(at, len(list))
		}
		list = slices.Insert(slices.Clone(list), at, items...)

		if mods.sort != nil {
			slices.SortStableFunc(list, mods.sort)
		}
		if mods.slice != nil {
			list = sliceList(list, *mods.slice)
		}

		_, err = path.Set(doc, list)
		return err
	}, nil
}

// sliceList keeps the first n elements, or the last -n when n is negative.
func sliceList(list []any, n int) []any {
	if n >= 0 {
		return list[:min(n, len(list))]
	}
	return list[max(len(list)+n, 0):]
}

func addToSet(arg any) (step, error) {
	values, modifiers, err := each("$addToSet", arg)
	if err != nil {
		return nil, err
	}
	if len(modifiers) > 1 {
		return nil, operandError("$addToSet", "only the $each modifier", arg)
	}

	return func(doc map[string]any, path fieldpath.Path) error {
		list, _, err := listAt("$addToSet", doc, path)
		if err != nil {
			return err
		}

		out := slices.Clone(list)
		if out == nil {
			out = []any{}
		}
		for _, item := range value.Normalize(values).([]any) {
			if !value.Contains(out, item) {
				out = append(out, item)
			}
		}

		_, err = path.Set(doc, out)
		return err
	}, nil
}

func pop(arg any) (step, error) {
	end, ok := direction(arg)
	if !ok {
		return nil, operandError("$pop", "1 or -1", arg)
	}

	return func(doc map[string]any, path fieldpath.Path) error {
		list, found, err := listAt("$pop", doc, path)
		if err != nil || !found || len(list) == 0 {
			return err
		}

		if end > 0 {
			list = list[:len(list)-1]
		} else {
			list = list[1:]
		}
		_, err = path.Set(doc, slices.Clone(list))
		return err
	}, nil
}

func pull(conditions filter.Recompile) fieldBuilder {
	return func(arg any) (step, error) {
		condition, err := conditions(arg)
		if err != nil {
			return nil, err
		}
		return removeWhere("$pull", func(item any) bool {
			return condition(item, true)
		}), nil
	}
}

func pullAll(arg any) (step, error) {
	values, ok := spec.AsList(arg)
	if !ok {
		return nil, operandError("$pullAll", "array", arg)
	}

	return removeWhere("$pullAll", func(item any) bool {
		return slices.ContainsFunc(values, func(v any) bool {
			return value.Equal(item, v)
		})
	}), nil
}

func removeWhere(operator string, remove func(item any) bool) step {
	return func(doc map[string]any, path fieldpath.Path) error {
		list, found, err := listAt(operator, doc, path)
		if err != nil || !found {
			return err
		}

		kept := make([]any, 0, len(list))
		for _, item := range list {
			if !remove(item) {
				kept = append(kept, item)
			}
		}
		_, err = path.Set(doc, kept)
		return err
	}
}
