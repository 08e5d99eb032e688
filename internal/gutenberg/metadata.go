package gutenberg

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const maxFieldLen = 300

var (
	titleRE    = regexp.MustCompile(`(?i)Title:\s*(.+)`)
	authorRE   = regexp.MustCompile(`(?i)Author:\s*(.+)`)
	languageRE = regexp.MustCompile(`(?i)Language:\s*(.+)`)
	releaseRE  = regexp.MustCompile(`(?i)Release Date:\s*.*?(\d{4})`)
	spaceRunRE = regexp.MustCompile(`\s+`)
)

// Metadata is the bibliographic record extracted from a book's header.
type Metadata struct {
	BookID   int64
	Title    string
	Author   string
	Language string
	Year     int  // zero when absent
	HasYear  bool
	Path     string
}

// ExtractMetadata derives bibliographic fields from header. path should be
// the absolute directory where the header/body pair is stored on this
// node.
func ExtractMetadata(bookID int64, header, path string) Metadata {
	m := Metadata{
		BookID:   bookID,
		Title:    firstMatchOrDefault(titleRE, header, fmt.Sprintf("Unknown Title (Book %d)", bookID)),
		Author:   firstMatchOrDefault(authorRE, header, "Unknown Author"),
		Language: strings.ToLower(firstMatchOrDefault(languageRE, header, "en")),
		Path:     path,
	}

	if groups := releaseRE.FindStringSubmatch(header); groups != nil {
		if year, err := strconv.Atoi(groups[1]); err == nil {
			m.Year = year
			m.HasYear = true
		}
	}

	return m
}

func firstMatchOrDefault(re *regexp.Regexp, header, def string) string {
	groups := re.FindStringSubmatch(header)
	if groups == nil {
		return def
	}
	return cleanField(groups[1])
}

// cleanField trims whitespace, collapses internal whitespace runs, and
// truncates to maxFieldLen characters with an ellipsis suffix.
func cleanField(s string) string {
	s = strings.TrimSpace(s)
	s = spaceRunRE.ReplaceAllString(s, " ")

	runes := []rune(s)
	if len(runes) > maxFieldLen {
		s = string(runes[:maxFieldLen]) + "..."
	}
	return s
}
