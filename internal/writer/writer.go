// Package writer renders summaries to Markdown files alongside an
// output directory.
package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Maxwell0339/paper-cli/internal/errortypes"
)

// WriteMarkdown writes content to <outputDir>/<stem>.md where stem is
// the document's file name without extension. The output directory is
// created if needed. Returns the path written.
func WriteMarkdown(docPath, content, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", errortypes.DocumentError(err, fmt.Sprintf("failed to create output dir: %s", outputDir))
	}

	base := filepath.Base(docPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	outPath := filepath.Join(outputDir, stem+".md")

	if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
		return "", errortypes.DocumentError(err, fmt.Sprintf("failed to write summary: %s", outPath))
	}
	return outPath, nil
}
