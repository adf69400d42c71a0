// internal/tenant/slug.go
//
// Slug helpers.
//
// • NormalizeSlug(raw) ─ converts arbitrary text into a URL-safe slug
//   restricted to ASCII a-z, 0-9 and “-”.
// • ValidateSlug(slug) ─ checks the finished format: 2–50 chars of
//   lowercase letters, digits, and hyphens, no leading/trailing hyphen.
//
// Rules (NormalizeSlug)
// ---------------------
// 1. Lower-case everything.
// 2. Convert any run of non-[a-z0-9] characters to one “-”.  That strips
//    spaces, punctuation, emoji, and non-ASCII.
// 3. Collapse consecutive “-” to a single “-”.
// 4. Trim leading / trailing “-”.
// 5. Truncate to the 50-character ceiling.
//
// Slugs are immutable in practice: they appear in URLs, host names, and
// external links, so nothing in the service layer offers a rename.

package tenant

import (
	"regexp"
	"strings"
)

const (
	slugMinLen = 2
	slugMaxLen = 50
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*[a-z0-9]$`)

// NormalizeSlug converts raw text → lower-kebab ASCII.  The result may
// still fail ValidateSlug (e.g. when everything was stripped).
func NormalizeSlug(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	lastWasDash := false
	for _, r := range strings.ToLower(raw) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastWasDash = false
		default:
			if !lastWasDash {
				b.WriteRune('-')
				lastWasDash = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > slugMaxLen {
		slug = strings.TrimRight(slug[:slugMaxLen], "-")
	}
	return slug
}

// ValidateSlug reports whether slug satisfies the storage format:
// lowercase letters, digits, hyphen, 2–50 characters, hyphen never first
// or last.
func ValidateSlug(slug string) bool {
	if len(slug) < slugMinLen || len(slug) > slugMaxLen {
		return false
	}
	return slugPattern.MatchString(slug)
}
