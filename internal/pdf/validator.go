package pdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// pdfMagic starts every PDF file; readers tolerate leading garbage within the first KB
var pdfMagic = []byte("%PDF-")

// tabularExtensions are accepted for filled-in templates
var tabularExtensions = map[string]bool{
	".csv": true,
	".txt": true,
	".tsv": true,
}

// Validator checks input files before they are read
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new validator with the specified size limit
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ReadPDF validates and reads a PDF form
func (v *Validator) ReadPDF(filePath string) ([]byte, error) {
	if err := v.checkFile(filePath, map[string]bool{".pdf": true}); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("cannot read file: %w", err)
	}

	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	if !bytes.Contains(head, pdfMagic) {
		return nil, fmt.Errorf("file is not a PDF: %s", filePath)
	}

	return data, nil
}

// ReadTabular validates and reads a filled-in template
func (v *Validator) ReadTabular(filePath string) ([]byte, error) {
	if err := v.checkFile(filePath, tabularExtensions); err != nil {
		return nil, err
	}
	return os.ReadFile(filePath)
}

// ReadMapping validates and reads a mapping file
func (v *Validator) ReadMapping(filePath string) ([]byte, error) {
	if err := v.checkFile(filePath, map[string]bool{".txt": true}); err != nil {
		return nil, err
	}
	return os.ReadFile(filePath)
}

// checkFile performs the stat-level checks shared by all inputs
func (v *Validator) checkFile(filePath string, extensions map[string]bool) error {
	if filePath == "" {
		return fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}

	return v.ValidateFileInfo(filePath, fileInfo, extensions)
}

// ValidateFileInfo performs basic validation on file info without reading the file
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo, extensions map[string]bool) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	if !extensions[ext] {
		return fmt.Errorf("unsupported file type %q: %s", ext, filePath)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}

	if fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	return nil
}
