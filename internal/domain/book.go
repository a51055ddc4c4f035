// Package domain contains the core business entities of the book catalogue.
package domain

import "strings"

// Book is a catalogued book.
//
// Title, Author, Description, MLCategory and MLScore are fixed at creation.
// UsrCategory is the only mutable field; an empty value means no override.
// The category a book is displayed under is derived on read and never stored.
type Book struct {
	Timestamps
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Description string    `json:"description"`
	MLCategory  string    `json:"mlCategory"`
	UsrCategory string    `json:"usrCategory,omitempty"`
	MLScore     []float64 `json:"mlScore"`
}

// HasOverride reports whether the user has set a category.
func (b *Book) HasOverride() bool {
	return strings.TrimSpace(b.UsrCategory) != ""
}

// Scores returns the score vector, never nil.
func (b *Book) Scores() []float64 {
	if b.MLScore == nil {
		return []float64{}
	}
	return b.MLScore
}
