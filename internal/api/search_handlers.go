package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/abctag/abc-server/internal/service"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        "/books/search",
		Summary:     "Search books",
		Description: "Full-text search over title, author and description, ranked by relevance",
		Tags:        []string{"Search"},
	}, s.handleSearchBooks)
}

// SearchBooksInput contains search query parameters.
type SearchBooksInput struct {
	Query string `query:"q" doc:"Search query"`
	Limit int    `query:"limit" minimum:"0" maximum:"100" doc:"Max results (default 20)"`
}

// SearchBooksOutput contains ranked books.
type SearchBooksOutput struct {
	Body []service.BookView
}

func (s *Server) handleSearchBooks(ctx context.Context, input *SearchBooksInput) (*SearchBooksOutput, error) {
	books, err := s.search.SearchBooks(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, err
	}
	return &SearchBooksOutput{Body: books}, nil
}
