// Package loader extracts plain text from PDF documents and normalizes
// it into paragraph-separated prose suitable for chunking.
package loader

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/Maxwell0339/paper-cli/internal/errortypes"
)

const (
	// DefaultMaxChars caps the extracted text length per document.
	DefaultMaxChars = 120000
	// MinMaxChars is the smallest accepted cap.
	MinMaxChars = 2000
)

var (
	whitespaceRuns = regexp.MustCompile(`[\t\f\v]+`)
	singleNewline  = regexp.MustCompile(`([^\n])\n([^\n])`)
	newlineRuns    = regexp.MustCompile(`\n{3,}`)
	spaceRuns      = regexp.MustCompile(` {2,}`)
)

// PDFLoader reads PDF files from disk. The zero value is not usable;
// construct with NewPDFLoader.
type PDFLoader struct {
	maxChars int
}

// NewPDFLoader creates a loader that truncates extracted text at
// maxChars. Values below MinMaxChars are raised to the default.
func NewPDFLoader(maxChars int) *PDFLoader {
	if maxChars < MinMaxChars {
		maxChars = DefaultMaxChars
	}
	return &PDFLoader{maxChars: maxChars}
}

// LoadText extracts the text of the PDF at path. The boolean reports
// whether the text was truncated to fit the configured cap.
func (l *PDFLoader) LoadText(path string) (string, bool, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", false, errortypes.DocumentError(err, fmt.Sprintf("failed to open pdf: %s", path))
	}
	defer f.Close()

	var sb strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages that fail to decode rather than losing the
			// whole document.
			continue
		}
		if pageText == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(pageText)
	}

	cleaned := CleanText(sb.String())
	if cleaned == "" {
		return "", false, errortypes.DocumentError(nil, fmt.Sprintf("no extractable text in pdf: %s", path))
	}

	truncated := len(cleaned) > l.maxChars
	if truncated {
		cleaned = truncateToRuneBoundary(cleaned, l.maxChars)
	}
	return cleaned, truncated, nil
}

// truncateToRuneBoundary cuts s at the last rune boundary at or before
// max bytes, so a multi-byte character is never split.
func truncateToRuneBoundary(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// CleanText normalizes extracted text: line endings become \n, runs of
// tabs and form feeds become spaces, single line breaks inside a
// paragraph are joined, and blank-line runs collapse to one paragraph
// separator.
func CleanText(text string) string {
	t := strings.ReplaceAll(text, "\r\n", "\n")
	t = strings.ReplaceAll(t, "\r", "\n")
	t = whitespaceRuns.ReplaceAllString(t, " ")
	// Join intra-paragraph line breaks. Applied twice because the
	// replacement consumes the neighboring character, so alternating
	// single newlines need a second pass.
	t = singleNewline.ReplaceAllString(t, "$1 $2")
	t = singleNewline.ReplaceAllString(t, "$1 $2")
	t = newlineRuns.ReplaceAllString(t, "\n\n")
	t = spaceRuns.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}
