// Package scanner discovers PDF documents under an input directory.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Maxwell0339/paper-cli/internal/errortypes"
)

// FindPDFs returns the paths of all regular *.pdf files under folder,
// sorted lexically. When recursive is false only the top level is
// scanned.
func FindPDFs(folder string, recursive bool) ([]string, error) {
	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		return nil, errortypes.ValidationError(err, fmt.Sprintf("invalid folder: %s", folder))
	}

	var paths []string
	if recursive {
		err = filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isPDF(path) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, errortypes.ValidationError(err, fmt.Sprintf("error scanning folder: %s", folder))
		}
	} else {
		entries, err := os.ReadDir(folder)
		if err != nil {
			return nil, errortypes.ValidationError(err, fmt.Sprintf("error scanning folder: %s", folder))
		}
		for _, entry := range entries {
			if !entry.IsDir() && isPDF(entry.Name()) {
				paths = append(paths, filepath.Join(folder, entry.Name()))
			}
		}
	}

	sort.Strings(paths)
	return paths, nil
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
