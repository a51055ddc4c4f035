package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Status int
	Body   HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := make(map[string]ComponentHealth)
	overall := statusHealthy

	merge := func(name string, h ComponentHealth) {
		components[name] = h
		switch {
		case h.Status == statusUnhealthy:
			overall = statusUnhealthy
		case h.Status == statusDegraded && overall == statusHealthy:
			overall = statusDegraded
		}
	}

	if s.health.Store != nil {
		merge("database", s.checkDatabase(ctx))
	}
	if s.health.Classifier != nil {
		merge("classifier", s.checkClassifier())
	}
	if s.health.Search != nil {
		merge("search", s.checkSearchIndex())
	}

	status := http.StatusOK
	if overall == statusUnhealthy {
		status = http.StatusServiceUnavailable
	}

	return &HealthOutput{
		Status: status,
		Body: HealthResponse{
			Status:     overall,
			Components: components,
		},
	}, nil
}

// checkDatabase pings the book store.
func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := s.health.Store.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		s.logger.Error("health check: database unreachable", "error", err)
		return ComponentHealth{
			Status:  statusUnhealthy,
			Latency: latency.String(),
			Message: "database unreachable",
		}
	}
	return ComponentHealth{Status: statusHealthy, Latency: latency.String()}
}

// checkClassifier reports the circuit state. Classification failures never fail
// requests, so an open or disabled classifier only degrades the service.
func (s *Server) checkClassifier() ComponentHealth {
	switch state := s.health.Classifier.State(); state {
	case "closed":
		return ComponentHealth{Status: statusHealthy}
	case "disabled":
		return ComponentHealth{Status: statusDegraded, Message: "classification disabled, new books are stored as Unknown"}
	default:
		return ComponentHealth{Status: statusDegraded, Message: "circuit " + state}
	}
}

// checkSearchIndex verifies the search index is readable.
func (s *Server) checkSearchIndex() ComponentHealth {
	start := time.Now()
	count, err := s.health.Search.DocumentCount()
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  statusDegraded,
			Latency: latency.String(),
			Message: "search index unreadable",
		}
	}
	return ComponentHealth{
		Status:  statusHealthy,
		Latency: latency.String(),
		Message: fmt.Sprintf("%d documents", count),
	}
}
