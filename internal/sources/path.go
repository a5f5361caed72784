// Package sources opens MEDLINE inputs and outputs on disk, handling
// compressed files and format detection.
package sources

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Limits applied to user-supplied paths and decoded input.
const (
	// MaxInputSize is the largest decompressed input accepted (256 MB).
	MaxInputSize = 256 << 20
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// StdioPath names stdin for Open and stdout for Create.
const StdioPath = "-"

// Path validation errors.
var (
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrInputTooLarge    = errors.New("input exceeds maximum size")
)

// ValidatePath rejects empty or overlong paths and paths containing NUL or
// control characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}

	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}

	return nil
}
