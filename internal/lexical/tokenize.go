package lexical

import (
	"strings"
	"unicode"
)

// stopwords merges a common-English list with query filler words that show
// up in natural-language questions ("find", "show", "which"). Words under
// three runes never reach this check; the length rule drops them first.
var stopwords = map[string]struct{}{
	"about": {}, "all": {}, "also": {}, "and": {}, "any": {}, "are": {},
	"but": {}, "can": {}, "could": {}, "does": {}, "find": {}, "for": {},
	"from": {}, "get": {}, "give": {}, "has": {}, "have": {}, "how": {},
	"into": {}, "its": {}, "like": {}, "list": {}, "need": {}, "not": {},
	"should": {}, "show": {}, "some": {}, "tell": {}, "that": {}, "the": {},
	"them": {}, "then": {}, "they": {}, "this": {}, "was": {}, "want": {},
	"were": {}, "what": {}, "when": {}, "where": {}, "which": {}, "will": {},
	"with": {}, "would": {}, "you": {}, "your": {},
}

// Tokenize lowercases text, splits on non-alphanumeric runes, and drops
// tokens shorter than minLen runes or on the stopword list. The same
// tokenizer runs over stored node text and over queries so terms line up.
func Tokenize(text string, minLen int) []string {
	lower := strings.ToLower(text)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < minLen {
			continue
		}
		if _, ok := stopwords[f]; ok {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// IsStopword reports whether a lowercased word is on the stopword list.
func IsStopword(word string) bool {
	_, ok := stopwords[word]
	return ok
}
