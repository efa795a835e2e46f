package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// stopWords are excluded from bio/pod token sets so that filler words never
// contribute to relevance.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "from": {}, "has": {}, "have": {},
	"i": {}, "in": {}, "is": {}, "it": {}, "its": {}, "my": {}, "of": {},
	"on": {}, "or": {}, "our": {}, "so": {}, "that": {}, "the": {},
	"their": {}, "this": {}, "to": {}, "was": {}, "we": {}, "were": {},
	"will": {}, "with": {}, "you": {}, "your": {},
}

var foldCaser = cases.Fold()

// fold lower-cases text for case-insensitive comparison, handling non-ASCII
// correctly.
func fold(s string) string {
	return foldCaser.String(s)
}

// tokenize normalizes free text into a set of lower-case tokens with
// punctuation stripped and stop words removed. Deterministic by
// construction: the same text always yields the same set.
func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})

	words := strings.FieldsFunc(fold(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	for _, word := range words {
		if _, stop := stopWords[word]; stop {
			continue
		}
		tokens[word] = struct{}{}
	}

	return tokens
}
