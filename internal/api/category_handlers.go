package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/abctag/abc-server/internal/service"
)

func (s *Server) registerCategoryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCategories",
		Method:      http.MethodGet,
		Path:        "/categories",
		Summary:     "List categories",
		Description: "Returns the category labels in order with the number of books displayed under each",
		Tags:        []string{"Categories"},
	}, s.handleListCategories)
}

// ListCategoriesOutput contains per-category counts.
type ListCategoriesOutput struct {
	Body []service.CategoryCount
}

func (s *Server) handleListCategories(ctx context.Context, _ *struct{}) (*ListCategoriesOutput, error) {
	counts, err := s.books.CategoryStats(ctx)
	if err != nil {
		return nil, err
	}
	return &ListCategoriesOutput{Body: counts}, nil
}
