package vintagepress

import (
	"fmt"
	"strings"
)

// slugMaxLength caps generated slugs so URLs stay manageable.
const slugMaxLength = 160

// Slugify converts a title to a URL-safe slug: lowercase, quotes stripped,
// runs of non [a-z0-9] collapsed to a single hyphen, no leading or trailing
// hyphen, at most slugMaxLength characters.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r == '\'' || r == '"':
			// Quotes vanish entirely instead of becoming hyphens, so
			// "don't" slugifies to "dont" rather than "don-t".
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if len(slug) > slugMaxLength {
		slug = strings.TrimRight(slug[:slugMaxLength], "-")
	}
	return slug
}

// GenerateUniqueSlug derives a slug from title that no other post uses.
// If the base slug is taken, it appends -2, -3, … until a free candidate is
// found. excludeID skips an existing post's own slug when editing. The slug
// column's UNIQUE index remains the backstop for concurrent creations with
// the same title; this only minimizes the collision window.
func (s *Store) GenerateUniqueSlug(title, excludeID string) (string, error) {
	base := Slugify(title)
	if base == "" {
		// Titles written entirely in Devanagari slugify to nothing; fall
		// back to a generic base instead of handing out "" and "-2".
		base = "post"
	}
	existing, err := s.SearchSlugs(base, excludeID)
	if err != nil {
		return "", err
	}
	taken := make(map[string]struct{}, len(existing))
	for _, slug := range existing {
		taken[slug] = struct{}{}
	}
	if _, ok := taken[base]; !ok {
		return base, nil
	}
	for counter := 2; ; counter++ {
		candidate := fmt.Sprintf("%s-%d", base, counter)
		if _, ok := taken[candidate]; !ok {
			return candidate, nil
		}
	}
}
