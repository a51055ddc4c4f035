package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abctag/abc-server/internal/category"
	"github.com/abctag/abc-server/internal/classifier"
	"github.com/abctag/abc-server/internal/logger"
	"github.com/abctag/abc-server/internal/metrics"
	"github.com/abctag/abc-server/internal/store/sqlite"
	"github.com/abctag/abc-server/internal/validation"
)

// fakeClassifier returns a fixed prediction per title, Unknown otherwise.
type fakeClassifier struct {
	mu          sync.Mutex
	predictions map[string]classifier.Prediction
	calls       []classifier.Input
	ctxErrs     []error
}

func (f *fakeClassifier) Classify(ctx context.Context, in classifier.Input) classifier.Prediction {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, in)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	if p, ok := f.predictions[in.Title]; ok {
		return p
	}
	return classifier.Degraded()
}

type testEnv struct {
	store      *sqlite.Store
	classifier *fakeClassifier
	metrics    *metrics.Metrics
	books      *BookService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "abc.db"), logger.Nop().Logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	fc := &fakeClassifier{predictions: map[string]classifier.Prediction{
		"Art of War":       {Label: "Art", Scores: []float64{0.8, 0.1, 0, 0, 0, 0, 0, 0, 0.1}},
		"Business 101":     {Label: "Business/Finance", Scores: []float64{0, 0.9, 0, 0, 0, 0, 0, 0, 0.1}},
		"The Fantasy Tale": {Label: "Fantasy/Science Fiction", Scores: []float64{0, 0, 0.7, 0, 0, 0.3, 0, 0, 0}},
		"Romantic Stories": {Label: "Romance", Scores: []float64{0, 0, 0.1, 0, 0, 0.85, 0, 0, 0.05}},
	}}
	m := metrics.New()

	return &testEnv{
		store:      st,
		classifier: fc,
		metrics:    m,
		books:      NewBookService(st, fc, category.Default(), validation.New(), m, logger.Nop().Logger),
	}
}

// create adds a book and fails the test on error.
func (e *testEnv) create(t *testing.T, title, author, usr string) *BookView {
	t.Helper()
	v, err := e.books.CreateBook(context.Background(), CreateBookRequest{
		Title:       title,
		Author:      author,
		Description: "About " + title,
		UsrCategory: usr,
	})
	require.NoError(t, err)
	return v
}
