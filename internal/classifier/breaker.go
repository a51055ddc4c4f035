package classifier

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sony/gobreaker/v2"

	"github.com/abctag/abc-server/internal/metrics"
)

func newBreaker(cfg BreakerConfig, logger *slog.Logger, m *metrics.Metrics) *gobreaker.CircuitBreaker[Prediction] {
	if !cfg.Enabled {
		return nil
	}

	return gobreaker.NewCircuitBreaker[Prediction](gobreaker.Settings{
		Name:        "classifier",
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			m.SetBreakerState(int(to))
		},
		// A caller going away says nothing about the health of the service.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// rejected reports whether err came from an open or saturated circuit.
func rejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
