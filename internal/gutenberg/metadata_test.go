package gutenberg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMetadataHappyPath(t *testing.T) {
	header := "Title: Alice's Adventures in Wonderland\n" +
		"Author: Lewis Carroll\n" +
		"Language: English\n" +
		"Release Date: June 25, 2008 [EBook #11]\n"

	m := ExtractMetadata(11, header, "/datalake/bucket_0")

	assert.Equal(t, "Alice's Adventures in Wonderland", m.Title)
	assert.Equal(t, "Lewis Carroll", m.Author)
	assert.Equal(t, "english", m.Language)
	assert.True(t, m.HasYear)
	assert.Equal(t, 2008, m.Year)
	assert.Equal(t, "/datalake/bucket_0", m.Path)
}

func TestExtractMetadataDefaults(t *testing.T) {
	m := ExtractMetadata(42, "no recognizable fields here", "/x")

	assert.Equal(t, "Unknown Title (Book 42)", m.Title)
	assert.Equal(t, "Unknown Author", m.Author)
	assert.Equal(t, "en", m.Language)
	assert.False(t, m.HasYear, "HasYear should be false when Release Date is absent")
}

func TestExtractMetadataTruncatesLongFields(t *testing.T) {
	long := ""
	for i := 0; i < 400; i++ {
		long += "a"
	}
	header := "Title: " + long + "\n"

	m := ExtractMetadata(1, header, "/x")

	a := assert.New(t)
	a.Len(m.Title, 303) // 300 chars + "..."
	a.Equal("...", m.Title[300:])
}

func TestExtractMetadataCollapsesWhitespace(t *testing.T) {
	header := "Title:   Alice   in    Wonderland  \n"

	m := ExtractMetadata(1, header, "/x")

	assert.Equal(t, "Alice in Wonderland", m.Title)
}
