package indexing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeBodyDropsStopwordsAndShortTerms(t *testing.T) {
	terms := TokenizeBody("The white rabbit hole, it is a go.")

	for _, want := range []string{"white", "rabbit", "hole"} {
		assert.True(t, terms.Contains(want), "expected terms to contain %q, got %v", want, terms)
	}
	for _, unwanted := range []string{"the", "it", "is", "a", "go"} {
		assert.False(t, terms.Contains(unwanted), "expected terms to exclude %q (stopword or too short), got %v", unwanted, terms)
	}
}

func TestTokenizeBodyDiscardsMixedAlnum(t *testing.T) {
	terms := TokenizeBody("chapter123 belongs nowhere")

	assert.False(t, terms.Contains("chapter123"), "mixed alnum substring should be discarded entirely, got %v", terms)
	assert.False(t, terms.Contains("chapter"), "mixed alnum substring should be discarded entirely, got %v", terms)
	assert.True(t, terms.Contains("belongs"), "expected surrounding words kept, got %v", terms)
	assert.True(t, terms.Contains("nowhere"), "expected surrounding words kept, got %v", terms)
}

func TestTokenizeBodyCollapsesDuplicates(t *testing.T) {
	terms := TokenizeBody("whale whale whale ahab")
	assert.Len(t, terms, 2)
}

func TestTokenizeBodyEmptyYieldsNoTerms(t *testing.T) {
	terms := TokenizeBody("the a an is")
	assert.Empty(t, terms)
}

func TestTokenizeQueryNoStopwordFiltering(t *testing.T) {
	q := TokenizeQuery("The Whale")
	assert.Equal(t, []string{"the", "whale"}, q)
}
