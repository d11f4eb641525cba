// ABOUTME: ID prefix normalization shared by all store engines
// ABOUTME: Prefixes are lower-case hex digits and hyphens
package storage

import (
	"fmt"
	"strings"
)

// NormalizePrefix trims and lower-cases a user supplied id prefix and rejects
// anything that could never match a UUID.
func NormalizePrefix(prefix string) (string, error) {
	p := strings.ToLower(strings.TrimSpace(prefix))
	if p == "" {
		return "", ErrNotFound
	}
	for _, r := range p {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || r == '-' {
			continue
		}
		return "", fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
	}
	return p, nil
}
