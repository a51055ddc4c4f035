package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abctag/abc-server/internal/lookup"
	"github.com/abctag/abc-server/internal/service"
)

func TestListCategories(t *testing.T) {
	ts := setupTestServer(t)
	ts.createBook(t, "Art of War", "Sun Tzu")
	ts.createBook(t, "Romantic Stories", "Author X")
	fan := ts.createBook(t, "The Fantasy Tale", "Jane Smith")
	ts.createBook(t, "Unheard Of", "Nobody")

	resp := ts.api.Patch("/books/"+fan.ID+"/category", map[string]any{"category": "Romance"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/categories")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	counts := decode[[]service.CategoryCount](t, resp)
	require.Len(t, counts, 10)

	byLabel := make(map[string]int)
	for _, c := range counts {
		byLabel[c.Label] = c.Count
	}
	assert.Equal(t, 1, byLabel["Art"])
	assert.Equal(t, 2, byLabel["Romance"])
	assert.Equal(t, 0, byLabel["Fantasy/Science Fiction"])
	assert.Equal(t, 1, byLabel["Unknown"])
	assert.Equal(t, "Unknown", counts[9].Label)
	assert.Equal(t, "business-finance", counts[1].Slug)
}

func TestSearchBooks(t *testing.T) {
	ts := setupTestServer(t)
	art := ts.createBook(t, "Art of War", "Sun Tzu")
	ts.createBook(t, "Business 101", "John Doe")
	fan := ts.createBook(t, "The Fantasy Tale", "Jane Smith")

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "title word", query: "?q=war", want: []string{art.ID}},
		{name: "author", query: "?q=smith", want: []string{fan.ID}},
		{name: "no match", query: "?q=zeppelin", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get("/books/search" + tt.query)
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

func TestSearchBooks_Validation(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/books/search")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Get("/books/search?q=war&limit=500")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSearchBooks_SeesCategoryUpdates(t *testing.T) {
	ts := setupTestServer(t)
	book := ts.createBook(t, "Art of War", "Sun Tzu")

	resp := ts.api.Patch("/books/"+book.ID+"/category", map[string]any{"category": "History"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/books/search?q=war")
	require.Equal(t, http.StatusOK, resp.Code)

	books := decode[[]service.BookView](t, resp)
	require.Len(t, books, 1)
	assert.Equal(t, "History", books[0].DisplayCategory)
}

func TestLookupDescription(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		query      string
		wantCode   int
		wantFound  bool
		wantErr    string
		wantSubstr string
	}{
		{
			name:       "found",
			status:     http.StatusOK,
			body:       `{"totalItems":1,"items":[{"volumeInfo":{"description":"<p>A <i>classic</i>.</p>"}}]}`,
			query:      "?title=Dune&author=Herbert",
			wantCode:   http.StatusOK,
			wantFound:  true,
			wantSubstr: "*classic*",
		},
		{
			name:     "not found",
			status:   http.StatusOK,
			body:     `{"totalItems":0}`,
			query:    "?title=Dune",
			wantCode: http.StatusOK,
		},
		{
			name:     "upstream failure",
			status:   http.StatusBadGateway,
			body:     `oops`,
			query:    "?title=Dune",
			wantCode: http.StatusServiceUnavailable,
			wantErr:  "UNAVAILABLE",
		},
		{
			name:     "upstream throttled",
			status:   http.StatusTooManyRequests,
			body:     `{}`,
			query:    "?title=Dune",
			wantCode: http.StatusTooManyRequests,
			wantErr:  "RATE_LIMITED",
		},
		{
			name:     "title required",
			status:   http.StatusOK,
			body:     `{}`,
			query:    "?author=Herbert",
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupTestServerWithLookup(t, withLookupHandler(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))

			resp := ts.api.Get("/lookup/description" + tt.query)
			require.Equal(t, tt.wantCode, resp.Code, resp.Body.String())

			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decode[APIError](t, resp).Code)
				return
			}
			res := decode[lookup.Result](t, resp)
			assert.Equal(t, tt.wantFound, res.Found)
			assert.Contains(t, res.Description, tt.wantSubstr)
		})
	}
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("database is locked") }

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)
	ts.createBook(t, "Art of War", "Sun Tzu")

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	health := decode[HealthResponse](t, resp)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Components["database"].Status)
	assert.Equal(t, "healthy", health.Components["classifier"].Status)
	assert.Equal(t, "1 documents", health.Components["search"].Message)
}

func TestHealthCheck_Degraded(t *testing.T) {
	ts := setupTestServer(t)
	ts.classifier.state = "open"

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	health := decode[HealthResponse](t, resp)
	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "circuit open", health.Components["classifier"].Message)
}

func TestHealthCheck_DatabaseDown(t *testing.T) {
	ts := setupTestServer(t, func(_ *Options, h *HealthSources) {
		h.Store = failingPinger{}
	})

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)

	health := decode[HealthResponse](t, resp)
	assert.Equal(t, "unhealthy", health.Status)
	assert.Equal(t, "unhealthy", health.Components["database"].Status)
}
