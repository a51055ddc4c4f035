// Package store defines the persistence contract for book records.
package store

import (
	"context"

	"github.com/abctag/abc-server/internal/domain"
)

// BookField names a column that may be changed after creation.
type BookField string

// Updatable fields.
const (
	FieldUsrCategory BookField = "usrCategory"
)

// BookQuery filters book listings. Empty fields do not filter.
type BookQuery struct {
	// TitleLike and AuthorLike are case-insensitive substrings.
	TitleLike  string
	AuthorLike string
	// Category narrows to books whose user or predicted category equals it
	// case-insensitively, plus books with no predicted category. Callers resolve
	// the display category to make the final decision.
	Category string
}

// BookStore persists book records.
type BookStore interface {
	InsertBook(ctx context.Context, book *domain.Book) error
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	QueryBooks(ctx context.Context, q BookQuery) ([]*domain.Book, error)
	UpdateBookField(ctx context.Context, id string, field BookField, value string) error
	CountBooks(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

// SearchIndexer is the interface for updating the search index.
type SearchIndexer interface {
	IndexBook(ctx context.Context, book *domain.Book) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexBook does nothing.
func (NoopSearchIndexer) IndexBook(context.Context, *domain.Book) error { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer.
func NewNoopSearchIndexer() SearchIndexer { return NoopSearchIndexer{} }
