// Package normalize turns raw text into the ordered token sequence the
// retrieval core consumes. It lower-cases input, splits on non-alphanumeric
// boundaries, removes stop-words, and applies a simple suffix-based stemmer.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalizer converts raw text into normalized tokens. Name identifies the
// normalizer (and its version) in cache fingerprints; two normalizers that
// can produce different tokens must report different names.
type Normalizer interface {
	Normalize(raw string) []string
	Name() string
}

// Func adapts a plain function into a Normalizer.
type Func struct {
	ID string
	Fn func(string) []string
}

func (f Func) Normalize(raw string) []string { return f.Fn(raw) }
func (f Func) Name() string                 { return f.ID }

// Whitespace lower-cases and splits on whitespace only. Tests and callers
// that hand over pre-normalized text use it.
var Whitespace Normalizer = Func{
	ID: "whitespace-v1",
	Fn: func(raw string) []string {
		return strings.Fields(strings.ToLower(raw))
	},
}

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {}, "we": {},
	"our": {}, "you": {}, "your": {}, "all": {}, "about": {},
}

// Simple is the default English normalizer.
type Simple struct{}

func (Simple) Name() string { return "simple-stem-v1" }

func (Simple) Normalize(raw string) []string {
	raw = strings.ToLower(raw)
	words := strings.FieldsFunc(raw, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(words)/2)
	for _, word := range words {
		if utf8.RuneCountInString(word) < 2 {
			continue
		}
		if _, isStop := stopWords[word]; isStop {
			continue
		}
		stemmed := stem(word)
		if stemmed == "" {
			continue
		}
		tokens = append(tokens, stemmed)
	}
	return tokens
}

// IsStopWord reports whether the lower-cased word is dropped by Simple.
func IsStopWord(word string) bool {
	_, ok := stopWords[strings.ToLower(word)]
	return ok
}

type suffixRule struct {
	suffix      string
	replacement string
	minLen      int
}

// Longer suffixes first; the first rule whose result is long enough wins.
var suffixRules = []suffixRule{
	{"ational", "ate", 2},
	{"tional", "tion", 2},
	{"encies", "ence", 2},
	{"ances", "ance", 2},
	{"ments", "ment", 2},
	{"izing", "ize", 2},
	{"ating", "ate", 2},
	{"iness", "y", 2},
	{"ously", "ous", 2},
	{"ively", "ive", 2},
	{"eness", "ene", 2},
	{"tion", "t", 3},
	{"sion", "s", 3},
	{"ying", "y", 2},
	{"ling", "l", 3},
	{"ies", "y", 2},
	{"ing", "", 3},
	{"ers", "er", 2},
	{"est", "", 3},
	{"ful", "", 3},
	{"ous", "", 3},
	{"ess", "", 3},
	{"ble", "", 3},
	{"ed", "", 3},
	{"er", "", 3},
	{"ly", "", 3},
	{"es", "", 3},
	{"ss", "ss", 2},
	{"s", "", 3},
}

func stem(word string) string {
	for _, rule := range suffixRules {
		if strings.HasSuffix(word, rule.suffix) {
			newWord := word[:len(word)-len(rule.suffix)] + rule.replacement
			if len(newWord) >= rule.minLen {
				return newWord
			}
		}
	}
	return word
}
