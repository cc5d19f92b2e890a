package persistence

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	slugPattern    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	slugSeparators = regexp.MustCompile(`[\s_]+`)
	slugHyphens    = regexp.MustCompile(`-{2,}`)
)

// NormalizeSlug converts a display-ish name into the canonical URL-safe slug
// used as the tenant's public handle: lowercase, with whitespace and
// underscores collapsed to single hyphens. Input that still does not match the
// slug pattern after normalization (punctuation, non-ASCII, stray hyphens) is
// rejected rather than silently mangled, since the slug is a stable identifier.
func NormalizeSlug(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", errors.New("slug is required")
	}

	normalized := strings.ToLower(trimmed)
	normalized = slugSeparators.ReplaceAllString(normalized, "-")
	normalized = slugHyphens.ReplaceAllString(normalized, "-")
	if !slugPattern.MatchString(normalized) {
		return "", fmt.Errorf("invalid slug %q: must match ^[a-z0-9]+(?:-[a-z0-9]+)*$", input)
	}

	return normalized, nil
}
