package validation

import (
	"fmt"
	"strings"
)

// MaxNameLength bounds workflow names.
const MaxNameLength = 128

// IsValidIdentifierChar checks if a character is valid for identifiers
// (alphanumeric, hyphen, or underscore).
func IsValidIdentifierChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '-' || ch == '_'
}

// ValidateName checks a workflow or credential name: non-empty, at most
// MaxNameLength bytes, identifier characters only.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("name exceeds %d characters", MaxNameLength)
	}
	for _, ch := range name {
		if !IsValidIdentifierChar(ch) {
			return fmt.Errorf("name %q contains invalid character %q", name, ch)
		}
	}
	return nil
}

// SanitizeFileName maps an arbitrary id (a node id, say) onto a string that
// passes ValidateName by replacing every other character with '_'.
func SanitizeFileName(id string) string {
	if id == "" {
		return "_"
	}
	var b strings.Builder
	for _, ch := range id {
		if IsValidIdentifierChar(ch) {
			b.WriteRune(ch)
		} else {
			b.WriteByte('_')
		}
	}
	out := b.String()
	if len(out) > MaxNameLength {
		out = out[:MaxNameLength]
	}
	return out
}
