package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/abctag/abc-server/internal/category"
	domainerrors "github.com/abctag/abc-server/internal/errors"
	"github.com/abctag/abc-server/internal/metrics"
	"github.com/abctag/abc-server/internal/search"
	"github.com/abctag/abc-server/internal/store"
)

// SearchIndex is the full-text index SearchService queries.
type SearchIndex interface {
	Search(ctx context.Context, params search.Params) (*search.Result, error)
}

// SearchService bridges the search index with the book store.
type SearchService struct {
	index   SearchIndex
	store   store.BookStore
	labels  *category.Set
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(index SearchIndex, store store.BookStore, labels *category.Set, metrics *metrics.Metrics, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:   index,
		store:   store,
		labels:  labels,
		metrics: metrics,
		logger:  logger,
	}
}

// MaxSearchLimit caps the number of results per query.
const MaxSearchLimit = 100

// SearchBooks runs a full-text query and returns matching books in relevance order.
// Hits whose book is no longer in the store are skipped.
func (s *SearchService) SearchBooks(ctx context.Context, query string, limit int) ([]BookView, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{"q": "is required"})
	}
	if limit <= 0 {
		limit = search.DefaultLimit
	}
	limit = min(limit, MaxSearchLimit)

	res, err := s.index.Search(ctx, search.Params{Query: query, Limit: limit})
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "search failed")
	}
	s.metrics.SearchServed()

	views := make([]BookView, 0, len(res.Hits))
	for _, hit := range res.Hits {
		book, err := s.store.GetBook(ctx, hit.ID)
		if domainerrors.Is(err, store.ErrNotFound) {
			s.logger.Warn("search hit has no stored book", "id", hit.ID)
			continue
		}
		if err != nil {
			return nil, storeError(err, "get book", hit.ID)
		}
		views = append(views, *newBookView(s.labels, book))
	}

	s.logger.Debug("search served", "query", query, "hits", len(views), "took_ms", res.TookMs)
	return views, nil
}
