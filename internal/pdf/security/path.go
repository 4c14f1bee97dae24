// Package security confines file requests to the configured forms directory.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator keeps form, template and output paths inside one directory
type PathValidator struct {
	configuredDirectory string
}

// NewPathValidator creates a validator for dir. The directory need not exist
// yet; until it does, every path is accepted.
func NewPathValidator(dir string) (*PathValidator, error) {
	if dir == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}
	return &PathValidator{configuredDirectory: dir}, nil
}

// GetConfiguredDirectory returns the configured directory path
func (v *PathValidator) GetConfiguredDirectory() string {
	return v.configuredDirectory
}

// ValidatePath rejects paths that resolve outside the configured directory
func (v *PathValidator) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	ok, err := v.IsPathWithinDirectory(path)
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("path is outside configured directory: %s", path)
	}
	return nil
}

// IsPathWithinDirectory reports whether path, and the target of path when it
// is a symlink, lie inside the configured directory
func (v *PathValidator) IsPathWithinDirectory(path string) (bool, error) {
	if _, err := os.Stat(v.configuredDirectory); os.IsNotExist(err) {
		return true, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	absDir, err := filepath.Abs(v.configuredDirectory)
	if err != nil {
		return false, fmt.Errorf("failed to resolve configured directory: %w", err)
	}

	cleanPath := filepath.Clean(absPath)
	dirs := []string{filepath.Clean(absDir)}
	if real, err := filepath.EvalSymlinks(dirs[0]); err == nil && real != dirs[0] {
		dirs = append(dirs, real)
	}

	realPath := cleanPath
	if info, err := os.Lstat(cleanPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(cleanPath); err == nil {
			realPath = resolved
		}
	}

	return withinAny(cleanPath, dirs) && withinAny(realPath, dirs), nil
}

func withinAny(path string, dirs []string) bool {
	for _, dir := range dirs {
		if path == dir || strings.HasPrefix(path, strings.TrimSuffix(dir, string(filepath.Separator))+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// ValidateDirectory checks that dirPath is inside the configured directory
// and, when it exists, is a directory
func (v *PathValidator) ValidateDirectory(dirPath string) error {
	if err := v.ValidatePath(dirPath); err != nil {
		return err
	}

	info, err := os.Stat(dirPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", dirPath)
	}
	return nil
}

// Resolve strips NUL bytes, anchors relative paths at the configured directory
// and validates the result
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.configuredDirectory, path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if err := v.ValidatePath(absPath); err != nil {
		return "", err
	}
	return absPath, nil
}
