package schema

import (
	"regexp"
	"unicode/utf8"

	"github.com/jacoelho/docq/internal/filter"
	"github.com/jacoelho/docq/internal/spec"
	"github.com/jacoelho/docq/internal/value"
)

func countOperand(keyword string, operand any) (int, error) {
	n, ok := value.ToInt64(operand)
	if !ok || n < 0 {
		return 0, keywordError(keyword, "expected non-negative integer, got %v", operand)
	}
	return int(n), nil
}

func lengthKeyword(keyword string, operand any, accept func(length, limit int) bool) (filter.Evaluator, error) {
	limit, err := countOperand(keyword, operand)
	if err != nil {
		return nil, err
	}

	return func(v any, present bool) bool {
		s, ok := v.(string)
		return ok && accept(utf8.RuneCountInString(s), limit)
	}, nil
}

func maxLengthKeyword(operand any, _ recompile, _ spec.Tree) (filter.Evaluator, error) {
	return lengthKeyword("maxLength", operand, func(length, limit int) bool { return length <= limit })
}

func minLengthKeyword(operand any, _ recompile, _ spec.Tree) (filter.Evaluator, error) {
	return lengthKeyword("minLength", operand, func(length, limit int) bool { return length >= limit })
}

func patternKeyword(operand any, _ recompile, _ spec.Tree) (filter.Evaluator, error) {
	re, err := compilePattern("pattern", operand)
	if err != nil {
		return nil, err
	}

	return func(v any, present bool) bool {
		s, ok := v.(string)
		return ok && re.MatchString(s)
	}, nil
}

func compilePattern(keyword string, operand any) (*regexp.Regexp, error) {
	if re, ok := value.AsRegex(operand); ok {
		return re, nil
	}

	pattern, ok := operand.(string)
	if !ok {
		return nil, keywordError(keyword, "expected string, got %T", operand)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, keywordError(keyword, "invalid pattern %q: %v", pattern, err)
	}
	return re, nil
}
