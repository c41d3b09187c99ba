package schema

import (
	"regexp"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/jacoelho/docq/internal/filter"
	"github.com/jacoelho/docq/internal/spec"
)

func objectOperand(keyword string, operand any) (spec.Tree, error) {
	tree, ok := spec.AsTree(operand)
	if !ok {
		return nil, keywordError(keyword, "expected object, got %T", operand)
	}
	return tree, nil
}

func stringList(keyword string, operand any) ([]string, error) {
	list, ok := spec.AsList(operand)
	if !ok {
		return nil, keywordError(keyword, "expected array of strings, got %T", operand)
	}

	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, keywordError(keyword, "expected string, got %T", item)
		}
		out = append(out, s)
	}
	return out, nil
}

func propertyCountKeyword(keyword string, operand any, accept func(count, limit int) bool) (filter.Evaluator, error) {
	limit, err := countOperand(keyword, operand)
	if err != nil {
		return nil, err
	}

	return func(v any, present bool) bool {
		tree, ok := spec.AsTree(v)
		return ok && accept(len(tree), limit)
	}, nil
}

func maxPropertiesKeyword(operand any, _ recompile, _ spec.Tree) (filter.Evaluator, error) {
	return propertyCountKeyword("maxProperties", operand, func(count, limit int) bool { return count <= limit })
}

func minPropertiesKeyword(operand any, _ recompile, _ spec.Tree) (filter.Evaluator, error) {
	return propertyCountKeyword("minProperties", operand, func(count, limit int) bool { return count >= limit })
}

func requiredKeyword(operand any, _ recompile, _ spec.Tree) (filter.Evaluator, error) {
	names, err := stringList("required", operand)
	if err != nil {
		return nil, err
	}

	return func(v any, present bool) bool {
		tree, ok := spec.AsTree(v)
		if !ok {
			return false
		}
		for _, name := range names {
			if !tree.Has(name) {
				return false
			}
		}
		return true
	}, nil
}

func propertiesKeyword(operand any, recompile recompile, _ spec.Tree) (filter.Evaluator, error) {
	properties, err := objectOperand("properties", operand)
	if err != nil {
		return nil, err
	}

	checks := make(map[string]filter.Evaluator, len(properties))
	for _, property := range properties {
		compiled, err := compileSchema("properties."+property.Key, property.Value, recompile)
		if err != nil {
			return nil, err
		}
		checks[property.Key] = compiled
	}

	return func(v any, present bool) bool {
		tree, ok := spec.AsTree(v)
		if !ok {
			return false
		}
		for _, entry := range tree {
			if check, ok := checks[entry.Key]; ok && !check(entry.Value, true) {
				return false
			}
		}
		return true
	}, nil
}

type patternSchema struct {
	re    *regexp.Regexp
	check filter.Evaluator
}

// patternPropertiesKeyword validates each key against the schema of every
// pattern it matches.
func patternPropertiesKeyword(operand any, recompile recompile, _ spec.Tree) (filter.Evaluator, error) {
	patterns, err := objectOperand("patternProperties", operand)
	if err != nil {
		return nil, err
	}

	compiled := make([]patternSchema, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := compilePattern("patternProperties", pattern.Key)
		if err != nil {
			return nil, err
		}
		check, err := compileSchema("patternProperties."+pattern.Key, pattern.Value, recompile)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, patternSchema{re: re, check: check})
	}

	return func(v any, present bool) bool {
		tree, ok := spec.AsTree(v)
		if !ok {
			return false
		}
		for _, entry := range tree {
			for _, pattern := range compiled {
				if pattern.re.MatchString(entry.Key) && !pattern.check(entry.Value, true) {
					return false
				}
			}
		}
		return true
	}, nil
}

// additionalPropertiesKeyword constrains keys outside the union of the
// sibling properties keys and required names.
func additionalPropertiesKeyword(operand any, recompile recompile, schema spec.Tree) (filter.Evaluator, error) {
	if allowed, ok := operand.(bool); ok && allowed {
		return filter.Always, nil
	}

	check, err := compileSchema("additionalProperties", operand, recompile)
	if err != nil {
		return nil, err
	}

	known := mapset.NewThreadUnsafeSet[string]()
	if properties, ok := schema.Get("properties"); ok {
		tree, err := objectOperand("properties", properties)
		if err != nil {
			return nil, err
		}
		known.Append(tree.Keys()...)
	}
	if required, ok := schema.Get("required"); ok {
		names, err := stringList("required", required)
		if err != nil {
			return nil, err
		}
		known.Append(names...)
	}

	return func(v any, present bool) bool {
		tree, ok := spec.AsTree(v)
		if !ok {
			return false
		}
		for _, entry := range tree {
			if known.Contains(entry.Key) {
				continue
			}
			if !check(entry.Value, true) {
				return false
			}
		}
		return true
	}, nil
}

// dependenciesKeyword requires, for each present key, either a list of other
// keys or a whole-document schema.
func dependenciesKeyword(operand any, recompile recompile, _ spec.Tree) (filter.Evaluator, error) {
	dependencies, err := objectOperand("dependencies", operand)
	if err != nil {
		return nil, err
	}

	checks := make(map[string]filter.Evaluator, len(dependencies))
	for _, dependency := range dependencies {
		if _, ok := spec.AsList(dependency.Value); ok {
			names, err := stringList("dependencies."+dependency.Key, dependency.Value)
			if err != nil {
				return nil, err
			}
			checks[dependency.Key] = func(v any, present bool) bool {
				tree, _ := spec.AsTree(v)
				for _, name := range names {
					if !tree.Has(name) {
						return false
					}
				}
				return true
			}
			continue
		}

		compiled, err := compileSchema("dependencies."+dependency.Key, dependency.Value, recompile)
		if err != nil {
			return nil, err
		}
		checks[dependency.Key] = compiled
	}

	return func(v any, present bool) bool {
		tree, ok := spec.AsTree(v)
		if !ok {
			return false
		}
		for key, check := range checks {
			if tree.Has(key) && !check(v, true) {
				return false
			}
		}
		return true
	}, nil
}
