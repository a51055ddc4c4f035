// Package service implements the book catalogue's business operations.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/abctag/abc-server/internal/category"
	"github.com/abctag/abc-server/internal/classifier"
	"github.com/abctag/abc-server/internal/domain"
	domainerrors "github.com/abctag/abc-server/internal/errors"
	"github.com/abctag/abc-server/internal/id"
	"github.com/abctag/abc-server/internal/metrics"
	"github.com/abctag/abc-server/internal/store"
	"github.com/abctag/abc-server/internal/validation"
)

// Classifier predicts a category for a book. Implementations never fail; they
// return the Unknown prediction instead.
type Classifier interface {
	Classify(ctx context.Context, in classifier.Input) classifier.Prediction
}

// BookService orchestrates book operations.
type BookService struct {
	store      store.BookStore
	classifier Classifier
	labels     *category.Set
	validator  *validation.Validator
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(
	store store.BookStore,
	classifier Classifier,
	labels *category.Set,
	validator *validation.Validator,
	metrics *metrics.Metrics,
	logger *slog.Logger,
) *BookService {
	return &BookService{
		store:      store,
		classifier: classifier,
		labels:     labels,
		validator:  validator,
		metrics:    metrics,
		logger:     logger,
	}
}

// Labels returns the label set the service resolves against.
func (s *BookService) Labels() *category.Set {
	return s.labels
}

// CreateBookRequest holds the fields a book is created from.
type CreateBookRequest struct {
	Title       string `json:"title" validate:"notblank,max=500"`
	Author      string `json:"author" validate:"notblank,max=500"`
	Description string `json:"description" validate:"max=20000"`
	UsrCategory string `json:"usrCategory" validate:"max=100"`
}

func (r *CreateBookRequest) normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Author = strings.TrimSpace(r.Author)
	r.Description = strings.TrimSpace(r.Description)
	r.UsrCategory = strings.TrimSpace(r.UsrCategory)
}

// CreateBook validates req, classifies it and stores the new record.
//
// Classification runs synchronously but is detached from ctx cancellation, so a
// client that goes away does not abort the create; the classifier's attempt budget
// bounds the wait. A failed classification stores the book as Unknown with no scores.
func (s *BookService) CreateBook(ctx context.Context, req CreateBookRequest) (*BookView, error) {
	req.normalize()
	if err := s.validator.Validate(&req); err != nil {
		return nil, err
	}

	start := time.Now()
	prediction := s.classifier.Classify(context.WithoutCancel(ctx), classifier.Input{
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
	})

	bookID, err := id.Generate()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate book id")
	}

	book := &domain.Book{
		ID:          bookID,
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		MLCategory:  prediction.Label,
		UsrCategory: req.UsrCategory,
		MLScore:     prediction.Scores,
	}
	if strings.TrimSpace(book.MLCategory) == "" {
		book.MLCategory = category.Unknown
	}
	book.MLScore = book.Scores()
	book.InitTimestamps()

	// The request may have been cancelled while classifying; the insert still goes through.
	if err := s.store.InsertBook(context.WithoutCancel(ctx), book); err != nil {
		return nil, storeError(err, "create book", book.ID)
	}

	s.metrics.BookCreated()
	if book.HasOverride() {
		s.metrics.CategoryOverridden(s.labels.Contains(book.UsrCategory))
	}

	view := newBookView(s.labels, book)
	s.logger.Info("book created",
		"id", book.ID,
		"ml_category", book.MLCategory,
		"display_category", view.DisplayCategory,
		"elapsed", time.Since(start),
	)
	return view, nil
}

// GetBook retrieves a single book by ID.
func (s *BookService) GetBook(ctx context.Context, id string) (*BookView, error) {
	book, err := s.store.GetBook(ctx, id)
	if err != nil {
		return nil, storeError(err, "get book", id)
	}
	return newBookView(s.labels, book), nil
}

// BookFilter narrows ListBooks. Empty fields do not filter.
type BookFilter struct {
	Title    string
	Author   string
	Category string
}

// ListBooks returns the books matching filter in insertion order.
// Title and author match case-insensitive substrings. Category matches the
// resolved display category case-insensitively, whichever source it came from,
// and also accepts a label slug such as "business-finance".
func (s *BookService) ListBooks(ctx context.Context, filter BookFilter) ([]BookView, error) {
	q := store.BookQuery{
		TitleLike:  strings.TrimSpace(filter.Title),
		AuthorLike: strings.TrimSpace(filter.Author),
		Category:   s.categoryFilter(filter.Category),
	}

	books, err := s.store.QueryBooks(ctx, q)
	if err != nil {
		return nil, storeError(err, "list books", "")
	}

	if q.Category != "" {
		matched := books[:0]
		for _, b := range books {
			if category.Equal(s.labels.Resolve(b.UsrCategory, b.MLCategory), q.Category) {
				matched = append(matched, b)
			}
		}
		books = matched
	}

	return newBookViews(s.labels, books), nil
}

// categoryFilter maps a slug to its label. Anything else is used as given.
func (s *BookService) categoryFilter(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || s.labels.Contains(value) {
		return value
	}
	if label, ok := s.labels.BySlug(value); ok {
		return label
	}
	return value
}

// UpdateCategoryRequest holds a user category override.
type UpdateCategoryRequest struct {
	Category string `json:"category" validate:"notblank,max=100"`
}

// UpdateCategory sets the user's category for a book and returns the book with
// its display category recomputed. Any non-empty value is accepted; a value outside
// the label set is stored but does not affect the display category.
// Concurrent updates are last-write-wins.
func (s *BookService) UpdateCategory(ctx context.Context, id, value string) (*BookView, error) {
	req := UpdateCategoryRequest{Category: strings.TrimSpace(value)}
	if err := s.validator.Validate(&req); err != nil {
		return nil, err
	}

	if err := s.store.UpdateBookField(ctx, id, store.FieldUsrCategory, req.Category); err != nil {
		return nil, storeError(err, "update category", id)
	}

	book, err := s.store.GetBook(ctx, id)
	if err != nil {
		return nil, storeError(err, "get book", id)
	}

	valid := s.labels.Contains(req.Category)
	s.metrics.CategoryOverridden(valid)
	if !valid {
		s.logger.Warn("category override is not a known label, display falls back to predicted category",
			"id", id,
			"category", req.Category,
		)
	}

	view := newBookView(s.labels, book)
	s.logger.Info("book category updated",
		"id", id,
		"usr_category", req.Category,
		"display_category", view.DisplayCategory,
	)
	return view, nil
}
