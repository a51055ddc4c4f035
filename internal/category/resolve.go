package category

import "strings"

// Resolve returns the category a book is displayed and filtered under:
// the user's override when it names a label in the set (kept as stored),
// otherwise the predicted category, otherwise Unknown.
//
// It is total and has no side effects; every read, update, search and stats
// path goes through it so the rule lives in one place.
func (s *Set) Resolve(usr, ml string) string {
	label, _ := s.ResolveSource(usr, ml)
	return label
}

// Source reports where a resolved category came from.
type Source string

// Category sources.
const (
	SourceUser    Source = "user"
	SourceModel   Source = "model"
	SourceUnknown Source = "unknown"
)

// ResolveSource is Resolve plus the origin of the result.
func (s *Set) ResolveSource(usr, ml string) (string, Source) {
	if s.Contains(usr) {
		return usr, SourceUser
	}
	if strings.TrimSpace(ml) != "" {
		return ml, SourceModel
	}
	return Unknown, SourceUnknown
}
