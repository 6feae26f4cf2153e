package domain

import (
	"strings"
)

// NormalizeName prepares a user-supplied display name for storage:
//   - trims leading/trailing whitespace
//   - compresses internal whitespace runs into a single space
//
// Case is preserved; display names are not identifiers.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(name))
	prevSpace := false
	for _, r := range name {
		if r == ' ' || r == '\t' {
			if prevSpace {
				continue
			}
			prevSpace = true
			b.WriteRune(' ')
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
