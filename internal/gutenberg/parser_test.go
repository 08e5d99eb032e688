package gutenberg

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mterris/gutensearch/internal/errs"
)

func TestParseHappyPath(t *testing.T) {
	raw := "Title: Alice\nAuthor: Carroll\nLanguage: English\nRelease Date: June 25, 2008\n\n" +
		"*** START OF\nwhite rabbit hole alice\n*** END OF"

	book, err := Parse(raw)
	require.NoError(t, err)

	assert.True(t, strings.Contains(book.Header, "Title: Alice"))
	assert.False(t, strings.Contains(book.Header, "START OF"))
	assert.Equal(t, "white rabbit hole alice", book.Body)
}

func TestParseMissingEndMarker(t *testing.T) {
	raw := "Title: X\n*** START OF\nbody text"

	_, err := Parse(raw)
	assert.True(t, errors.Is(err, errs.ErrBookFormat))
}

func TestParseMissingStartMarker(t *testing.T) {
	raw := "Title: X\nbody text\n*** END OF"

	_, err := Parse(raw)
	assert.True(t, errors.Is(err, errs.ErrBookFormat))
}

func TestParseEmptyBody(t *testing.T) {
	raw := "Title: X\n*** START OF\n   \n*** END OF"

	_, err := Parse(raw)
	assert.True(t, errors.Is(err, errs.ErrBookFormat))
}

func TestParseRoundTrip(t *testing.T) {
	header := "Title: Foo\nAuthor: Bar"
	body := "some body content here"
	raw := header + "\n*** START OF THIS PROJECT\n" + body + "\n*** END OF THIS PROJECT"

	book, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, header, book.Header)
	assert.Equal(t, body, book.Body)
}
