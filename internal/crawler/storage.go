package crawler

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Maxwell0339/paper-cli/internal/errortypes"
)

const maxFilenameLength = 180

var (
	invalidChars = regexp.MustCompile(`[\\/:*?"<>|]+`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// NormalizeTitleToFilename turns a paper title into a safe .pdf file
// name: forbidden characters become spaces, whitespace collapses, and
// overlong names are truncated.
func NormalizeTitleToFilename(title string) string {
	cleaned := invalidChars.ReplaceAllString(title, " ")
	cleaned = whitespace.ReplaceAllString(cleaned, " ")
	cleaned = strings.Trim(strings.TrimSpace(cleaned), ".")
	if cleaned == "" {
		cleaned = "untitled"
	}
	if len(cleaned) > maxFilenameLength {
		cleaned = strings.TrimRight(cleaned[:maxFilenameLength], " ")
	}
	return cleaned + ".pdf"
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ResolveOutputDir expands and creates the download directory.
func ResolveOutputDir(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errortypes.ValidationError(err, "invalid output dir")
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", errortypes.ValidationError(err, "failed to create output dir")
	}
	return abs, nil
}
