package errors

import (
	"strings"
	"unicode"
)

// maxBlockIDLength bounds identifiers so a hostile graph document cannot
// blow up logs or cache keys.
const maxBlockIDLength = 256

// ValidateBlockID validates a block identifier from an external graph
// document. Block IDs come from whatever frontend produced the control-flow
// graph, so they are treated as untrusted input.
//
// The validation rules are intentionally conservative:
//   - No empty IDs
//   - No control characters or null bytes
//   - No path traversal sequences (.., leading /)
//   - Maximum length of 256 characters
func ValidateBlockID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidGraph, "block id cannot be empty")
	}

	if len(id) > maxBlockIDLength {
		return New(ErrCodeInvalidGraph, "block id too long (max %d characters)", maxBlockIDLength)
	}

	for _, r := range id {
		if r == 0 || unicode.IsControl(r) {
			return New(ErrCodeInvalidGraph, "block id contains control characters")
		}
	}

	if strings.Contains(id, "..") || strings.HasPrefix(id, "/") {
		return New(ErrCodeInvalidGraph, "block id contains path-like sequences: %s", id)
	}

	return nil
}

// ValidateOutputPath validates a user-supplied output path. It rejects
// obviously dangerous values; it does not try to sandbox the filesystem.
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "output path cannot be empty")
	}
	for _, r := range path {
		if r == 0 || (unicode.IsControl(r) && r != '\t') {
			return New(ErrCodeInvalidPath, "output path contains control characters")
		}
	}
	return nil
}
