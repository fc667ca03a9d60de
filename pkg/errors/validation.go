package errors

import (
	"strings"
	"unicode"
)

// maxIDLength bounds identifiers read from board files and requests.
const maxIDLength = 256

// ValidateID checks that an identifier read from outside the engine is
// usable as a map key and in file or table names. Identifiers are otherwise
// opaque: no format is imposed beyond this.
//
// The rules:
//   - No empty ids
//   - No control characters or null bytes
//   - Maximum length of 256 bytes
func ValidateID(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "%s id cannot be empty", kind)
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "%s id too long (max %d characters)", kind, maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s id contains invalid control characters", kind)
		}
	}
	return nil
}

// ValidateColumnCount checks a requested column count.
func ValidateColumnCount(n int) error {
	if n < 1 {
		return New(ErrCodeInvalidInput, "column count must be at least 1, got %d", n)
	}
	if n > 12 {
		return New(ErrCodeInvalidInput, "column count must be at most 12, got %d", n)
	}
	return nil
}

// ValidateBoardPath checks a board file path given on the command line.
func ValidateBoardPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidInput, "board path cannot be empty")
	}
	if strings.ContainsRune(path, '\x00') {
		return New(ErrCodeInvalidInput, "board path contains invalid characters")
	}
	return nil
}
