// Package category owns the label set and resolves the category a book is displayed
// and filtered under.
package category

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Unknown is the sentinel category meaning no usable classification is available.
const Unknown = "Unknown"

// DefaultLabels is the ordered label set the classifier's score vector is aligned to.
var DefaultLabels = []string{
	"Art",
	"Business/Finance",
	"Fantasy/Science Fiction",
	"History",
	"Mystery",
	"Romance",
	"Science",
	"Self-Help",
	"Thriller",
}

// Set is an immutable, ordered, closed set of category labels.
// Membership is case-insensitive; the configured casing is kept for display.
type Set struct {
	labels []string
	index  map[string]int
}

// NewSet builds a label set. Labels are trimmed; empty labels and labels that
// collide case-insensitively are rejected.
func NewSet(labels ...string) (*Set, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("label set must not be empty")
	}

	s := &Set{
		labels: make([]string, 0, len(labels)),
		index:  make(map[string]int, len(labels)),
	}
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			return nil, fmt.Errorf("label set contains an empty label")
		}
		key := fold(label)
		if _, dup := s.index[key]; dup {
			return nil, fmt.Errorf("duplicate label %q", label)
		}
		s.index[key] = len(s.labels)
		s.labels = append(s.labels, label)
	}
	return s, nil
}

// MustNewSet is like NewSet but panics on an invalid label list.
func MustNewSet(labels ...string) *Set {
	s, err := NewSet(labels...)
	if err != nil {
		panic(err)
	}
	return s
}

// Default returns the set built from DefaultLabels.
func Default() *Set {
	return MustNewSet(DefaultLabels...)
}

// Labels returns a copy of the ordered labels.
func (s *Set) Labels() []string {
	out := make([]string, len(s.labels))
	copy(out, s.labels)
	return out
}

// Len returns the number of labels.
func (s *Set) Len() int {
	return len(s.labels)
}

// Contains reports whether label is case-insensitively a member of the set.
func (s *Set) Contains(label string) bool {
	_, ok := s.Index(label)
	return ok
}

// Index returns the position of label in the ordered set.
func (s *Set) Index(label string) (int, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return 0, false
	}
	i, ok := s.index[fold(label)]
	return i, ok
}

// Canonical returns the configured spelling of label, or "" if it is not a member.
func (s *Set) Canonical(label string) string {
	i, ok := s.Index(label)
	if !ok {
		return ""
	}
	return s.labels[i]
}

// Equal reports whether two category names are the same category.
func Equal(a, b string) bool {
	return fold(strings.TrimSpace(a)) == fold(strings.TrimSpace(b))
}

// fold returns the Unicode case-folded form used for comparisons.
// A new Caser is made per call because Casers are not safe for concurrent use.
func fold(s string) string {
	return cases.Fold().String(s)
}
