package importer

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FileLimits are the ceilings enforced before any row is touched.
type FileLimits struct {
	MaxBytes int64
	MaxRows  int
}

// DefaultFileLimits returns the production ceilings.
func DefaultFileLimits() FileLimits {
	return FileLimits{
		MaxBytes: 5 * 1024 * 1024,
		MaxRows:  1000,
	}
}

var allowedExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
}

// CheckFile rejects a file by extension or size before parsing begins.
func CheckFile(filename string, size int64, limits FileLimits) *FileError {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return &FileError{
			Code:    FileCodeInvalidType,
			Message: fmt.Sprintf("unsupported file type %q, expected .csv or .xlsx", ext),
		}
	}
	if limits.MaxBytes > 0 && size > limits.MaxBytes {
		return &FileError{
			Code:    FileCodeTooLarge,
			Message: fmt.Sprintf("file is %d bytes, limit is %d", size, limits.MaxBytes),
		}
	}
	return nil
}

// formula-trigger characters that spreadsheet applications interpret as the
// start of an expression.
const formulaTriggers = "=+-@"

// SanitizeCell strips leading formula-trigger characters. A single strip is
// not enough: removing one trigger may expose another, so the strip repeats
// until the cell no longer starts with one. All other content is untouched,
// and the operation is idempotent.
func SanitizeCell(s string) string {
	for len(s) > 0 && strings.ContainsRune(formulaTriggers, rune(s[0])) {
		s = s[1:]
	}
	return s
}

// sanitizeRow applies SanitizeCell to every value, keeping the original.
func sanitizeRow(number int, original map[string]string) RawRow {
	values := make(map[string]string, len(original))
	for col, v := range original {
		values[col] = SanitizeCell(v)
	}
	return RawRow{Number: number, Values: values, Original: original}
}
