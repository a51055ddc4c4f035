package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/abctag/abc-server/internal/api"
	"github.com/abctag/abc-server/internal/classifier"
	"github.com/abctag/abc-server/internal/config"
	"github.com/abctag/abc-server/internal/logger"
	"github.com/abctag/abc-server/internal/metrics"
	"github.com/abctag/abc-server/internal/service"
)

// Version is reported in the OpenAPI document.
var Version = "dev"

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api     *api.Server
	timeout time.Duration
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	defer h.api.Close()

	timeout := h.timeout
	if timeout <= 0 {
		timeout = shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	client := do.MustInvoke[*classifier.Client](i)

	services := api.Services{
		Books:  do.MustInvoke[*service.BookService](i),
		Search: do.MustInvoke[*service.SearchService](i),
		Lookup: do.MustInvoke[*LookupServiceHandle](i).LookupService,
	}

	health := api.HealthSources{
		Store:      storeHandle.Store,
		Classifier: client,
		Search:     indexHandle.SearchIndex,
	}

	handler := api.NewServer(services, health, api.Options{
		Version:         Version,
		CORSOrigins:     cfg.Server.CORSOrigins,
		CreatePerMinute: cfg.RateLimit.CreatePerMinute,
		Burst:           cfg.RateLimit.Burst,
		Metrics:         m,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server error")
		}
	}()

	return &HTTPServerHandle{Server: srv, api: handler, timeout: cfg.Server.ShutdownTimeout}, nil
}
