package services

import (
	"fmt"
	"strings"
)

// ResolveName sanitizes a user-supplied filename and derives the storage key
// for it. Keys are namespaced per owner ("user_{id}/{name}") so no cross-user
// collision is possible without a global uniqueness check.
func ResolveName(ownerID uint, raw string) (clean string, storageKey string, err error) {
	clean = SanitizeFilename(raw)
	if clean == "" {
		return "", "", ErrInvalidName
	}
	return clean, StorageKey(ownerID, clean), nil
}

// StorageKey returns the object key for an already sanitized filename.
func StorageKey(ownerID uint, filename string) string {
	return fmt.Sprintf("user_%d/%s", ownerID, filename)
}

// SanitizeFilename reduces a raw filename to a safe object-key segment:
// path separators are stripped, anything outside [A-Za-z0-9._-] becomes an
// underscore, underscore runs collapse, and edge dots/underscores are
// trimmed. The result is a fixed point: SanitizeFilename(SanitizeFilename(x))
// == SanitizeFilename(x). An empty result means the name is unusable.
func SanitizeFilename(raw string) string {
	// Keep only the last path segment, whichever separator style was used.
	if i := strings.LastIndexAny(raw, `/\`); i >= 0 {
		raw = raw[i+1:]
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-':
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			// control characters are dropped outright
		default:
			b.WriteByte('_')
		}
	}

	s := b.String()
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.Trim(s, "._")
}
