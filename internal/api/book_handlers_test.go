package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abctag/abc-server/internal/service"
)

func TestCreateBook(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/books", map[string]any{
		"title":       "Art of War",
		"author":      "Sun Tzu",
		"description": "Ancient military treatise",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	raw := decode[map[string]any](t, resp)
	assert.Contains(t, raw, "usrCategory")
	assert.Nil(t, raw["usrCategory"])

	book := decode[service.BookView](t, resp)
	assert.Len(t, book.ID, 36)
	assert.Equal(t, "Art of War", book.Title)
	assert.Equal(t, "Art", book.MLCategory)
	assert.Equal(t, "Art", book.DisplayCategory)
	assert.Len(t, book.MLScore, 9)
}

func TestCreateBook_WithUsrCategory(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/books", map[string]any{
		"title":       "Art of War",
		"author":      "Sun Tzu",
		"description": "",
		"usrCategory": "History",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	book := decode[service.BookView](t, resp)
	require.NotNil(t, book.UsrCategory)
	assert.Equal(t, "History", *book.UsrCategory)
	assert.Equal(t, "History", book.DisplayCategory)
	assert.Equal(t, "user", book.CategorySource)
	assert.Equal(t, "Art", book.MLCategory)
}

func TestCreateBook_ClassifierDegraded(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/books", map[string]any{
		"title":       "Unheard Of",
		"author":      "Nobody",
		"description": "d",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	raw := decode[map[string]any](t, resp)
	assert.Equal(t, "Unknown", raw["mlCategory"])
	assert.Equal(t, []any{}, raw["mlScore"])
	assert.Equal(t, "Unknown", raw["displayCategory"])
}

func TestCreateBook_Validation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "missing title", body: map[string]any{"author": "A", "description": "D"}},
		{name: "missing author", body: map[string]any{"title": "T", "description": "D"}},
		{name: "empty title", body: map[string]any{"title": "", "author": "A"}},
		{name: "blank author", body: map[string]any{"title": "T", "author": "   "}},
		{name: "title too long", body: map[string]any{"title": strings.Repeat("x", 501), "author": "A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupTestServer(t)

			resp := ts.api.Post("/books", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

			apiErr := decode[APIError](t, resp)
			assert.Equal(t, "VALIDATION", apiErr.Code)
			assert.Equal(t, http.StatusBadRequest, apiErr.Status)
			assert.NotEmpty(t, apiErr.Details)

			count, err := ts.store.CountBooks(t.Context())
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestCreateBook_RateLimited(t *testing.T) {
	ts := setupTestServer(t, withRateLimit(1, 2))

	for range 2 {
		resp := ts.api.Post("/books", "X-Forwarded-For: 203.0.113.7", map[string]any{"title": "T", "author": "A"})
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	}

	resp := ts.api.Post("/books", "X-Forwarded-For: 203.0.113.7", map[string]any{"title": "T", "author": "A"})
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.NotEmpty(t, resp.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", decode[APIError](t, resp).Code)

	// Other clients have their own bucket.
	resp = ts.api.Post("/books", "X-Forwarded-For: 203.0.113.8", map[string]any{"title": "T", "author": "A"})
	assert.Equal(t, http.StatusCreated, resp.Code)

	// Reads are not throttled.
	resp = ts.api.Get("/books", "X-Forwarded-For: 203.0.113.7")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestGetBook(t *testing.T) {
	ts := setupTestServer(t)
	created := ts.createBook(t, "Business 101", "John Doe")

	resp := ts.api.Get("/books/" + created.ID)
	require.Equal(t, http.StatusOK, resp.Code)

	book := decode[service.BookView](t, resp)
	assert.Equal(t, created.ID, book.ID)
	assert.Equal(t, "Business/Finance", book.DisplayCategory)
}

func TestGetBook_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/books/00000000-0000-4000-8000-000000000000")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	apiErr := decode[APIError](t, resp)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
	assert.Contains(t, apiErr.Message, "not found")
}

func TestListBooks(t *testing.T) {
	ts := setupTestServer(t)
	art := ts.createBook(t, "Art of War", "Sun Tzu")
	biz := ts.createBook(t, "Business 101", "John Doe")
	fan := ts.createBook(t, "The Fantasy Tale", "Jane Smith")
	rom := ts.createBook(t, "Romantic Stories", "Author X")

	// The fantasy book is moved to Romance by its reader.
	resp := ts.api.Patch("/books/"+fan.ID+"/category", map[string]any{"category": "romance"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "all in insertion order", query: "", want: []string{art.ID, biz.ID, fan.ID, rom.ID}},
		{name: "title substring", query: "?title=war", want: []string{art.ID}},
		{name: "author substring", query: "?author=J", want: []string{biz.ID, fan.ID}},
		{name: "category from either source", query: "?category=Romance", want: []string{fan.ID, rom.ID}},
		{name: "category case-insensitive", query: "?category=BUSINESS/FINANCE", want: []string{biz.ID}},
		{name: "overridden category no longer matches", query: "?category=Fantasy/Science%20Fiction", want: []string{}},
		{name: "category by slug", query: "?category=business-finance", want: []string{biz.ID}},
		{name: "overridden category slug no longer matches", query: "?category=fantasy-science-fiction", want: []string{}},
		{name: "combined", query: "?category=romance&author=author", want: []string{rom.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get("/books" + tt.query)
			require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

			books := decode[[]service.BookView](t, resp)
			ids := make([]string, 0, len(books))
			for _, b := range books {
				ids = append(ids, b.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestListBooks_EmptyIsArray(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/books")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[]`, resp.Body.String())
}

func TestUpdateCategory(t *testing.T) {
	ts := setupTestServer(t)
	book := ts.createBook(t, "Art of War", "Sun Tzu")

	tests := []struct {
		name        string
		category    string
		wantUsr     string
		wantDisplay string
	}{
		{name: "label", category: "Thriller", wantUsr: "Thriller", wantDisplay: "Thriller"},
		{name: "label with other casing is kept as stored", category: "history", wantUsr: "history", wantDisplay: "history"},
		{name: "not a label falls back to prediction", category: "Poetry", wantUsr: "Poetry", wantDisplay: "Art"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Patch("/books/"+book.ID+"/category", map[string]any{"category": tt.category})
			require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

			updated := decode[service.BookView](t, resp)
			require.NotNil(t, updated.UsrCategory)
			assert.Equal(t, tt.wantUsr, *updated.UsrCategory)
			assert.Equal(t, tt.wantDisplay, updated.DisplayCategory)

			got := decode[service.BookView](t, ts.api.Get("/books/"+book.ID))
			assert.Equal(t, tt.wantDisplay, got.DisplayCategory)
		})
	}
}

func TestUpdateCategory_Errors(t *testing.T) {
	ts := setupTestServer(t)
	book := ts.createBook(t, "Art of War", "Sun Tzu")

	tests := []struct {
		name     string
		id       string
		body     any
		wantCode int
		wantErr  string
	}{
		{name: "missing category", id: book.ID, body: map[string]any{}, wantCode: http.StatusBadRequest, wantErr: "VALIDATION"},
		{name: "empty category", id: book.ID, body: map[string]any{"category": ""}, wantCode: http.StatusBadRequest, wantErr: "VALIDATION"},
		{name: "blank category", id: book.ID, body: map[string]any{"category": "  "}, wantCode: http.StatusBadRequest, wantErr: "VALIDATION"},
		{name: "unknown book", id: "missing-id", body: map[string]any{"category": "Art"}, wantCode: http.StatusNotFound, wantErr: "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Patch("/books/"+tt.id+"/category", tt.body)
			assert.Equal(t, tt.wantCode, resp.Code, resp.Body.String())
			assert.Equal(t, tt.wantErr, decode[APIError](t, resp).Code)
		})
	}

	got := decode[service.BookView](t, ts.api.Get("/books/"+book.ID))
	assert.Nil(t, got.UsrCategory)
}

func TestGetBookScores(t *testing.T) {
	ts := setupTestServer(t)
	book := ts.createBook(t, "Romantic Stories", "Author X")

	resp := ts.api.Get("/books/" + book.ID + "/scores?transform=clamp")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	view := decode[service.BookScoresView](t, resp)
	assert.Equal(t, book.ID, view.BookID)
	assert.True(t, view.Aligned)
	require.Len(t, view.Scores, 9)
	assert.Equal(t, "Romance", view.Scores[5].Label)
	assert.InDelta(t, 0.85, view.Scores[5].Score, 1e-9)
	assert.Zero(t, view.Scores[8].Score)

	resp = ts.api.Get("/books/" + book.ID + "/scores?transform=softmax")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Get("/books/missing/scores")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
