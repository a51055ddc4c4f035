package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/abctag/abc-server/internal/lookup"
)

func (s *Server) registerLookupRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "lookupDescription",
		Method:      http.MethodGet,
		Path:        "/lookup/description",
		Summary:     "Look up a description",
		Description: "Finds a description for a title and author in Google Books, converted to Markdown",
		Tags:        []string{"Lookup"},
		Middlewares: huma.Middlewares{s.rateLimit(s.lookupLimiter)},
	}, s.handleLookupDescription)
}

// LookupDescriptionInput contains lookup query parameters.
type LookupDescriptionInput struct {
	Title  string `query:"title" doc:"Book title"`
	Author string `query:"author" doc:"Book author"`
}

// LookupDescriptionOutput wraps the lookup result.
type LookupDescriptionOutput struct {
	Body *lookup.Result
}

func (s *Server) handleLookupDescription(ctx context.Context, input *LookupDescriptionInput) (*LookupDescriptionOutput, error) {
	res, err := s.lookup.Describe(ctx, input.Title, input.Author)
	if err != nil {
		return nil, err
	}
	return &LookupDescriptionOutput{Body: res}, nil
}
