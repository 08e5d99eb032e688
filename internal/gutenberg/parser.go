package gutenberg

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mterris/gutensearch/internal/errs"
)

// startMarkerRE and endMarkerRE locate the Gutenberg header/body boundary
// markers. (?im) makes them case-insensitive and lets ^/$ match at line
// boundaries.
var (
	startMarkerRE = regexp.MustCompile(`(?im)^\*\*\*\s*START\s+OF.*$`)
	endMarkerRE   = regexp.MustCompile(`(?im)^\*\*\*\s*END\s+OF.*$`)
)

// Book is a validated header/body pair extracted from raw Gutenberg text.
type Book struct {
	Header string
	Body   string
}

// Parse validates raw and splits it into header/body. It returns
// errs.ErrBookFormat, never errs.ErrTransport, on any validation failure —
// format errors are a distinct channel from download errors.
func Parse(raw string) (Book, error) {
	startLoc := startMarkerRE.FindStringIndex(raw)
	if startLoc == nil {
		return Book{}, fmt.Errorf("no START marker found: %w", errs.ErrBookFormat)
	}

	rest := raw[startLoc[1]:]
	endLoc := endMarkerRE.FindStringIndex(rest)
	if endLoc == nil {
		return Book{}, fmt.Errorf("no END marker found after START: %w", errs.ErrBookFormat)
	}

	header := strings.TrimSpace(raw[:startLoc[0]])
	body := strings.TrimSpace(rest[:endLoc[0]])

	if header == "" {
		return Book{}, fmt.Errorf("empty header section: %w", errs.ErrBookFormat)
	}
	if body == "" {
		return Book{}, fmt.Errorf("empty body section: %w", errs.ErrBookFormat)
	}

	return Book{Header: header, Body: body}, nil
}
