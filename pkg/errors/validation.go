package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateAssetID validates an asset identifier from an asset-graph document.
// Asset IDs double as content keys, so they must not collide with the
// reserved keys used for synthetic nodes.
//
// The validation rules are intentionally conservative:
//   - No empty IDs
//   - No control characters
//   - Maximum length of 512 characters
//   - Not "root" and no "package:" or "StronglyConnectedComponent:" prefix
func ValidateAssetID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidGraph, "asset id cannot be empty")
	}

	if len(id) > 512 {
		return New(ErrCodeInvalidGraph, "asset id too long (max 512 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidGraph, "asset id contains invalid control characters")
		}
	}

	if id == "root" {
		return New(ErrCodeInvalidGraph, "asset id %q is reserved", id)
	}
	for _, prefix := range []string{"package:", "StronglyConnectedComponent:"} {
		if strings.HasPrefix(id, prefix) {
			return New(ErrCodeInvalidGraph, "asset id %q uses reserved prefix %q", id, prefix)
		}
	}

	return nil
}

// ValidatePath validates a file path for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a backend connection string for safety.
// It ensures the URL uses one of the allowed schemes.
func ValidateURL(rawURL string, schemes ...string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidConfig, "URL cannot be empty")
	}

	for _, s := range schemes {
		if strings.HasPrefix(rawURL, s+"://") {
			return nil
		}
	}
	return New(ErrCodeInvalidConfig, "URL must use one of the schemes %v", schemes)
}

// planIDRegex matches canonical UUID strings.
var planIDRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ValidatePlanID validates a stored plan identifier.
func ValidatePlanID(id string) error {
	if !planIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid plan id: %q", id)
	}
	return nil
}
