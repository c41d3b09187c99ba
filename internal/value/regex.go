package value

import (
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompileRegex builds a Go regular expression from a pattern and MongoDB
// style option letters (i, m, s, x).
func CompileRegex(pattern, options string) (*regexp.Regexp, error) {
	var flags strings.Builder
	for _, option := range options {
		switch option {
		case 'i', 'm', 's':
			if !strings.ContainsRune(flags.String(), option) {
				flags.WriteRune(option)
			}
		case 'x':
			pattern = stripExtended(pattern)
		default:
			return nil, fmt.Errorf("invalid regex option %q", option)
		}
	}

	if flags.Len() > 0 {
		pattern = "(?" + flags.String() + ")" + pattern
	}
	return regexp.Compile(pattern)
}

// AsRegex returns the regular expression held by value, if any.
func AsRegex(value any) (*regexp.Regexp, bool) {
	switch current := value.(type) {
	case *regexp.Regexp:
		return current, current != nil
	case primitive.Regex:
		re, err := CompileRegex(current.Pattern, current.Options)
		if err != nil {
			return nil, false
		}
		return re, true
	default:
		return nil, false
	}
}

// stripExtended drops unescaped whitespace and '#' comments.
func stripExtended(pattern string) string {
	var out strings.Builder
	escaped := false
	inClass := false
	inComment := false
	for _, r := range pattern {
		switch {
		case inComment:
			if r == '\n' {
				inComment = false
			}
			continue
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '[':
			inClass = true
		case r == ']':
			inClass = false
		case !inClass && r == '#':
			inComment = true
			continue
		case !inClass && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}
