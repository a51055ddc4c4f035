package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/abctag/abc-server/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/books",
		Summary:     "List books",
		Description: "Lists books in insertion order, optionally filtered by title, author or display category",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/books/{id}",
		Summary:     "Get book",
		Description: "Returns a single book with its display category",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBook",
		Method:        http.MethodPost,
		Path:          "/books",
		Summary:       "Create book",
		Description:   "Creates a book and classifies it. Classification failures store the book as Unknown.",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   huma.Middlewares{s.rateLimit(s.createLimiter)},
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBookCategory",
		Method:      http.MethodPatch,
		Path:        "/books/{id}/category",
		Summary:     "Set user category",
		Description: "Overrides the predicted category of a book",
		Tags:        []string{"Books"},
	}, s.handleUpdateCategory)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBookScores",
		Method:      http.MethodGet,
		Path:        "/books/{id}/scores",
		Summary:     "Get book scores",
		Description: "Returns the model score vector paired with the category labels",
		Tags:        []string{"Books"},
	}, s.handleGetBookScores)
}

// ListBooksInput contains parameters for listing books.
type ListBooksInput struct {
	Title    string `query:"title" doc:"Case-insensitive title substring"`
	Author   string `query:"author" doc:"Case-insensitive author substring"`
	Category string `query:"category" doc:"Display category or its slug, matched case-insensitively"`
}

// ListBooksOutput contains the matching books.
type ListBooksOutput struct {
	Body []service.BookView
}

// GetBookInput contains parameters for getting a book.
type GetBookInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// BookOutput wraps a single book.
type BookOutput struct {
	Body *service.BookView
}

// CreateBookRequest is the request body for creating a book.
type CreateBookRequest struct {
	_           struct{} `json:"-" additionalProperties:"true"`
	Title       string   `json:"title" maxLength:"500" doc:"Book title"`
	Author      string   `json:"author" maxLength:"500" doc:"Book author"`
	Description string   `json:"description,omitempty" maxLength:"20000" doc:"Description sent to the classifier"`
	UsrCategory *string  `json:"usrCategory,omitempty" maxLength:"100" doc:"Optional initial category override"`
}

// CreateBookInput wraps the create book request.
type CreateBookInput struct {
	Body CreateBookRequest
}

// UpdateCategoryRequest is the request body for overriding a category.
type UpdateCategoryRequest struct {
	Category string `json:"category" maxLength:"100" doc:"New user category"`
}

// UpdateCategoryInput wraps the update category request.
type UpdateCategoryInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body UpdateCategoryRequest
}

// GetBookScoresInput contains parameters for the score view.
type GetBookScoresInput struct {
	ID        string `path:"id" doc:"Book ID"`
	Transform string `query:"transform" doc:"Score transform: raw (default), clamp or log"`
}

// BookScoresOutput wraps the score view.
type BookScoresOutput struct {
	Body *service.BookScoresView
}

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*ListBooksOutput, error) {
	books, err := s.books.ListBooks(ctx, service.BookFilter{
		Title:    input.Title,
		Author:   input.Author,
		Category: input.Category,
	})
	if err != nil {
		return nil, err
	}
	return &ListBooksOutput{Body: books}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *GetBookInput) (*BookOutput, error) {
	book, err := s.books.GetBook(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*BookOutput, error) {
	req := service.CreateBookRequest{
		Title:       input.Body.Title,
		Author:      input.Body.Author,
		Description: input.Body.Description,
	}
	if input.Body.UsrCategory != nil {
		req.UsrCategory = *input.Body.UsrCategory
	}

	book, err := s.books.CreateBook(ctx, req)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleUpdateCategory(ctx context.Context, input *UpdateCategoryInput) (*BookOutput, error) {
	book, err := s.books.UpdateCategory(ctx, input.ID, input.Body.Category)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleGetBookScores(ctx context.Context, input *GetBookScoresInput) (*BookScoresOutput, error) {
	view, err := s.books.BookScores(ctx, input.ID, input.Transform)
	if err != nil {
		return nil, err
	}
	return &BookScoresOutput{Body: view}, nil
}
