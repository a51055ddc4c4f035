// Package search provides full-text search over the book catalogue using Bleve.
package search

import (
	"strings"

	"github.com/abctag/abc-server/internal/domain"
)

// BookDocument is the indexed form of a book.
type BookDocument struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description,omitempty"`
	MLCategory  string `json:"ml_category,omitempty"`
	UsrCategory string `json:"usr_category,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

// BookToDocument converts a domain book into its search document.
func BookToDocument(b *domain.Book) *BookDocument {
	return &BookDocument{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Description: b.Description,
		MLCategory:  strings.ToLower(strings.TrimSpace(b.MLCategory)),
		UsrCategory: strings.ToLower(strings.TrimSpace(b.UsrCategory)),
		CreatedAt:   b.CreatedAt.UnixMilli(),
	}
}

// ToMap returns the document keyed by mapped field name.
func (d *BookDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"title":      d.Title,
		"author":     d.Author,
		"created_at": float64(d.CreatedAt),
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.MLCategory != "" {
		m["ml_category"] = d.MLCategory
	}
	if d.UsrCategory != "" {
		m["usr_category"] = d.UsrCategory
	}
	return m
}
