package category

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	multipleHyphens = regexp.MustCompile(`-+`)
)

// Slugify converts a label to a URL-safe slug.
// "Business/Finance" -> "business-finance".
// "Fantasy/Science Fiction" -> "fantasy-science-fiction".
func Slugify(s string) string {
	// Decompose accented characters, then drop what is left outside ASCII.
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = multipleHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Slug returns the slug of label's canonical spelling in the set, or of label
// itself when it is not a member.
func (s *Set) Slug(label string) string {
	if canonical := s.Canonical(label); canonical != "" {
		return Slugify(canonical)
	}
	return Slugify(label)
}

// BySlug returns the label whose slug matches slug.
func (s *Set) BySlug(slug string) (string, bool) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	for _, label := range s.labels {
		if Slugify(label) == slug {
			return label, true
		}
	}
	return "", false
}
