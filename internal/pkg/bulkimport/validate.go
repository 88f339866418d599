package bulkimport

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
)

// MaxFileSize caps a single import file at 5 MB.
const MaxFileSize = 5 * 1024 * 1024

var (
	ErrEmptyFile    = errors.New("uploaded file is empty")
	ErrNotCSV       = errors.New("only CSV files are supported")
	ErrFileTooLarge = errors.New("file exceeds the maximum allowed size")
)

// ValidateCSVFile checks the filename extension and the first bytes against
// the expected text formats. Binary content with a .csv extension is rejected.
func ValidateCSVFile(filename string, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyFile
	}
	if len(data) > MaxFileSize {
		return ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".csv" && ext != ".txt" {
		return ErrNotCSV
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	detected := http.DetectContentType(head)

	// Block scriptable types regardless of extension.
	if strings.HasPrefix(detected, "text/html") || strings.HasPrefix(detected, "application/xhtml") {
		return ErrNotCSV
	}
	if strings.HasPrefix(detected, "text/plain") || strings.HasPrefix(detected, "text/csv") {
		return nil
	}
	// UTF-8 CSV with a BOM is detected as text/plain; anything else is binary.
	return ErrNotCSV
}
