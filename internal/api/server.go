// Package api provides the HTTP API server and handlers for the ABC book catalogue.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/abctag/abc-server/internal/metrics"
	"github.com/abctag/abc-server/internal/ratelimit"
	"github.com/abctag/abc-server/internal/service"
)

// Services bundles the domain services exposed over HTTP.
// Search and Lookup are optional; their routes are not registered when nil.
type Services struct {
	Books  *service.BookService
	Search *service.SearchService
	Lookup *service.LookupService
}

// Pinger reports whether the book store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ClassifierState reports the classifier circuit state ("closed", "half-open", "open", "disabled").
type ClassifierState interface {
	State() string
}

// DocumentCounter reports the number of documents in the search index.
type DocumentCounter interface {
	DocumentCount() (uint64, error)
}

// HealthSources are the components probed by GET /health. Nil sources are skipped.
type HealthSources struct {
	Store      Pinger
	Classifier ClassifierState
	Search     DocumentCounter
}

// Options configures the HTTP surface.
type Options struct {
	Version     string
	CORSOrigins []string

	// Per-client-IP throttling for book creation and description lookup.
	// Zero CreatePerMinute disables throttling.
	CreatePerMinute int
	Burst           int

	Metrics *metrics.Metrics
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	books  *service.BookService
	search *service.SearchService
	lookup *service.LookupService
	health HealthSources

	metrics       *metrics.Metrics
	createLimiter *ratelimit.KeyedRateLimiter
	lookupLimiter *ratelimit.KeyedRateLimiter

	router *chi.Mux
	api    huma.API
	logger *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services Services, health HealthSources, opts Options, logger *slog.Logger) *Server {
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	s := &Server{
		books:   services.Books,
		search:  services.Search,
		lookup:  services.Lookup,
		health:  health,
		metrics: opts.Metrics,
		router:  chi.NewRouter(),
		logger:  logger,
	}

	if opts.CreatePerMinute > 0 {
		s.createLimiter = NewRateLimiter(opts.CreatePerMinute, time.Minute, opts.Burst)
		s.lookupLimiter = NewRateLimiter(opts.CreatePerMinute, time.Minute, opts.Burst)
	}

	s.setupMiddleware(opts.CORSOrigins)

	humaConfig := huma.DefaultConfig("ABC API", opts.Version)
	humaConfig.Info.Description = "Book catalogue with automatic genre classification"
	s.api = humachi.New(s.router, humaConfig)

	RegisterErrorHandler()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, used by tests and the OpenAPI dump.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	for _, l := range []*ratelimit.KeyedRateLimiter{s.createLimiter, s.lookupLimiter} {
		if l != nil {
			l.Stop()
		}
	}
}

func (s *Server) setupMiddleware(origins []string) {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", s.metrics.Handler())

	s.registerHealthRoutes()
	s.registerBookRoutes()
	s.registerCategoryRoutes()
	if s.search != nil {
		s.registerSearchRoutes()
	}
	if s.lookup != nil {
		s.registerLookupRoutes()
	}
}
