package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveClassification(t *testing.T) {
	m := New()

	m.ObserveClassification(OutcomeSuccess, 2*time.Second, 3)
	m.ObserveClassification(OutcomeSuccess, time.Second, 1)
	m.ObserveClassification(OutcomeSkipped, 0, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Classifications.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Classifications.WithLabelValues(OutcomeSkipped)))

	var pb dto.Metric
	require.NoError(t, m.PollAttempts.Write(&pb))
	assert.Equal(t, uint64(2), pb.GetHistogram().GetSampleCount())
	assert.Equal(t, 4.0, pb.GetHistogram().GetSampleSum())
}

func TestCounters(t *testing.T) {
	m := New()

	m.BookCreated()
	m.BookCreated()
	m.CategoryOverridden(true)
	m.CategoryOverridden(false)
	m.CategoryOverridden(false)
	m.SetBreakerState(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BooksCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CategoryOverrides.WithLabelValues("true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CategoryOverrides.WithLabelValues("false")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BreakerState))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveClassification(OutcomeDegraded, time.Second, 1)
		m.SetBreakerState(1)
		m.BookCreated()
		m.CategoryOverridden(true)
		m.SearchServed()
		m.DescriptionLookedUp("found")
	})
	assert.Nil(t, m.Registry())
}

func TestHandler_ExposesRegistry(t *testing.T) {
	m := New()
	m.BookCreated()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "abc_books_created_total 1")
}
