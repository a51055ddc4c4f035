package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/abctag/abc-server/internal/errors"
	"github.com/abctag/abc-server/internal/logger"
	"github.com/abctag/abc-server/internal/lookup"
	"github.com/abctag/abc-server/internal/metrics"
)

type fakeLookup struct {
	result *lookup.Result
	err    error
}

func (f *fakeLookup) Description(context.Context, string, string) (*lookup.Result, error) {
	return f.result, f.err
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name       string
		fake       *fakeLookup
		wantFound  bool
		wantErr    error
		wantMetric string
	}{
		{
			name:       "found",
			fake:       &fakeLookup{result: &lookup.Result{Found: true, Description: "A desert planet.", Source: lookup.Source}},
			wantFound:  true,
			wantMetric: "found",
		},
		{
			name:       "not found",
			fake:       &fakeLookup{result: &lookup.Result{Source: lookup.Source}},
			wantMetric: "not_found",
		},
		{
			name:       "upstream down",
			fake:       &fakeLookup{err: fmt.Errorf("%w: status 500", lookup.ErrUpstream)},
			wantErr:    domainerrors.ErrUnavailable,
			wantMetric: "error",
		},
		{
			name:       "throttled",
			fake:       &fakeLookup{err: fmt.Errorf("%w: status 429", lookup.ErrRateLimited)},
			wantErr:    domainerrors.ErrRateLimited,
			wantMetric: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New()
			svc := NewLookupService(tt.fake, m, logger.Nop().Logger)

			res, err := svc.Describe(context.Background(), "Dune", "Frank Herbert")
			if tt.wantErr != nil {
				assert.True(t, domainerrors.Is(err, tt.wantErr))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantFound, res.Found)
			}
			assert.Equal(t, 1.0, testutil.ToFloat64(m.DescriptionLookups.WithLabelValues(tt.wantMetric)))
		})
	}
}

func TestDescribe_UpstreamCauseKept(t *testing.T) {
	cause := fmt.Errorf("%w: connection refused", lookup.ErrUpstream)
	svc := NewLookupService(&fakeLookup{err: cause}, nil, logger.Nop().Logger)

	_, err := svc.Describe(context.Background(), "Dune", "")
	assert.True(t, errors.Is(err, lookup.ErrUpstream))
}

func TestDescribe_RequiresTitle(t *testing.T) {
	svc := NewLookupService(&fakeLookup{}, nil, logger.Nop().Logger)

	_, err := svc.Describe(context.Background(), " ", "Frank Herbert")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}
