package indexing

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mterris/gutensearch/internal/collections"
)

// stopwords is the fixed stopword list. It is never configurable:
// changing it would silently change what indexBook(id) is idempotent over.
var stopwords = collections.NewSet(
	"a", "an", "and", "are", "as", "at", "be", "but", "by", "for", "from",
	"has", "have", "he", "her", "hers", "him", "his", "i", "in", "is", "it",
	"its", "me", "my", "not", "of", "on", "or", "our", "she", "so", "that",
	"the", "their", "them", "they", "this", "to", "was", "we", "were",
	"with", "you", "your",
)

const minTermLength = 3

// TokenizeBody lowercases body, splits on runs of whitespace and
// punctuation, keeps letters-only substrings of at least minTermLength,
// drops stopwords, and collapses the result to a set.
func TokenizeBody(body string) collections.Set[string] {
	out := collections.Set[string]{}
	for _, word := range splitWords(body) {
		if utf8.RuneCountInString(word) < minTermLength || !isAllLetters(word) {
			continue
		}
		if stopwords.Contains(word) {
			continue
		}
		out.Add(word)
	}
	return out
}

func isAllLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// TokenizeQuery lowercases q and splits on whitespace runs; no stopword
// filtering or length floor applies to queries.
func TokenizeQuery(q string) []string {
	return strings.Fields(strings.ToLower(q))
}

// splitWords lowercases s and splits on runs of whitespace and punctuation.
// Digits and other symbols are left attached to
// adjacent letters within a substring; such substrings are filtered out
// downstream by isAllLetters rather than split further, so "abc123" is
// discarded entirely rather than contributing "abc".
func splitWords(s string) []string {
	s = strings.ToLower(s)
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			flush()
			continue
		}
		cur.WriteRune(r)
	}
	flush()
	return words
}
