package keyword

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "had": {}, "her": {}, "was": {},
	"one": {}, "our": {}, "out": {}, "has": {}, "him": {}, "his": {},
	"how": {}, "its": {}, "may": {}, "she": {}, "use": {}, "that": {},
	"this": {}, "with": {}, "have": {}, "from": {}, "they": {}, "will": {},
	"been": {}, "were": {}, "what": {}, "when": {}, "your": {}, "said": {},
	"each": {}, "which": {}, "their": {}, "would": {}, "there": {},
	"about": {}, "could": {}, "other": {}, "after": {}, "should": {},
	"than": {}, "them": {}, "these": {}, "some": {}, "into": {}, "more": {},
	"very": {}, "also": {}, "does": {}, "such": {}, "only": {}, "over": {},
	"most": {}, "being": {}, "where": {}, "while": {}, "because": {},
}

// Tokenize lowercases, strips punctuation, drops stop words and short
// tokens, and stems what remains with the Snowball English stemmer.
// Index build and query must use the same pipeline or scores drift.
func Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		token := current.String()
		current.Reset()
		if len(token) <= 2 {
			return
		}
		if _, ok := stopWords[token]; ok {
			return
		}
		tokens = append(tokens, english.Stem(token, false))
	}

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return tokens
}
