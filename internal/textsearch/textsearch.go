// Package textsearch matches $text search strings against every string
// value of a document, with Unicode case and diacritic folding.
package textsearch

import (
	"errors"
	"strings"
	"unicode"

	"github.com/jacoelho/docq/internal/spec"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrEmptySearch is returned when a search string holds no positive term.
var ErrEmptySearch = errors.New("text search has no terms")

// Options controls folding.
type Options struct {
	CaseSensitive      bool
	DiacriticSensitive bool
}

// Query is a parsed search string: bare words match if any is present,
// quoted phrases must all be present and words prefixed with '-' exclude.
type Query struct {
	terms    []string
	phrases  []string
	excluded []string
	opts     Options
}

// Parse parses a $search string.
func Parse(search string, opts Options) (*Query, error) {
	q := &Query{opts: opts}

	rest := search
	for {
		start := strings.IndexByte(rest, '"')
		if start < 0 {
			break
		}
		end := strings.IndexByte(rest[start+1:], '"')
		if end < 0 {
			break
		}
		phrase := strings.TrimSpace(rest[start+1 : start+1+end])
		if phrase != "" {
			q.phrases = append(q.phrases, q.normalize(phrase))
		}
		rest = rest[:start] + " " + rest[start+end+2:]
	}

	for _, word := range strings.Fields(rest) {
		if negated, ok := strings.CutPrefix(word, "-"); ok {
			q.excluded = append(q.excluded, q.tokenize(negated)...)
			continue
		}
		q.terms = append(q.terms, q.tokenize(word)...)
	}

	if len(q.terms) == 0 && len(q.phrases) == 0 {
		return nil, ErrEmptySearch
	}
	return q, nil
}

// Match reports whether the strings of doc satisfy the query.
func (q *Query) Match(doc any) bool {
	var texts []string
	collect(doc, &texts)

	normalized := make([]string, 0, len(texts))
	tokens := make(map[string]struct{})
	for _, text := range texts {
		n := q.normalize(text)
		normalized = append(normalized, n)
		for _, token := range splitWords(n) {
			tokens[token] = struct{}{}
		}
	}

	for _, word := range q.excluded {
		if _, ok := tokens[word]; ok {
			return false
		}
	}

	if len(q.phrases) > 0 {
		for _, phrase := range q.phrases {
			if !containsAny(normalized, phrase) {
				return false
			}
		}
		return true
	}

	for _, word := range q.terms {
		if _, ok := tokens[word]; ok {
			return true
		}
	}
	return false
}

func (q *Query) normalize(s string) string {
	if !q.opts.DiacriticSensitive {
		stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
		if err == nil {
			s = stripped
		}
	}
	if !q.opts.CaseSensitive {
		s = cases.Fold().String(s)
	}
	return s
}

func (q *Query) tokenize(s string) []string {
	return splitWords(q.normalize(s))
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func containsAny(texts []string, phrase string) bool {
	for _, text := range texts {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

func collect(v any, out *[]string) {
	if s, ok := v.(string); ok {
		*out = append(*out, s)
		return
	}
	if list, ok := spec.AsList(v); ok {
		for _, item := range list {
			collect(item, out)
		}
		return
	}
	if tree, ok := spec.AsTree(v); ok {
		for _, entry := range tree {
			collect(entry.Value, out)
		}
	}
}
