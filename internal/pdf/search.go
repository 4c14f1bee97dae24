package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File kinds reported by ListFormFiles
const (
	FileKindForm     = "form"
	FileKindTemplate = "template"
	FileKindMapping  = "mapping"
	FileKindInfo     = "info"
)

// fileKind classifies a file name by the artifacts this server reads and writes
func fileKind(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return FileKindForm
	case strings.HasSuffix(lower, mappingSuffix):
		return FileKindMapping
	case strings.HasSuffix(lower, infoSuffix):
		return FileKindInfo
	case strings.HasSuffix(lower, ".csv"), strings.HasSuffix(lower, ".tsv"):
		return FileKindTemplate
	}
	return ""
}

// ListFormFiles walks directory for forms, templates and mappings, up to limit entries.
// Hidden directories are skipped.
func ListFormFiles(directory string, limit int) ([]FileInfo, error) {
	if directory == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}

	if _, err := os.Stat(directory); os.IsNotExist(err) {
		return nil, fmt.Errorf("directory does not exist: %s", directory)
	}

	absDirectory, err := filepath.Abs(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}

	var files []FileInfo

	err = filepath.WalkDir(absDirectory, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// keep walking past unreadable entries
			return nil
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != absDirectory {
				return filepath.SkipDir
			}
			return nil
		}

		if limit > 0 && len(files) >= limit {
			return filepath.SkipAll
		}

		kind := fileKind(d.Name())
		if kind == "" {
			return nil
		}

		info, err := d.Info()
		if err != nil || info.Size() == 0 {
			return nil
		}

		files = append(files, FileInfo{
			Path:         path,
			Name:         info.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
			Kind:         kind,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
