package providers

import (
	"github.com/samber/do/v2"

	"github.com/abctag/abc-server/internal/cache"
	"github.com/abctag/abc-server/internal/category"
	"github.com/abctag/abc-server/internal/classifier"
	"github.com/abctag/abc-server/internal/config"
	"github.com/abctag/abc-server/internal/logger"
	"github.com/abctag/abc-server/internal/metrics"
)

// CacheHandle wraps the classification cache. Store is nil when caching is disabled.
type CacheHandle struct {
	*cache.Store
}

// Shutdown implements do.Shutdownable.
func (h *CacheHandle) Shutdown() error {
	if h.Store == nil {
		return nil
	}
	return h.Close()
}

// ProvideCache provides the badger-backed classification cache.
func ProvideCache(i do.Injector) (*CacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Cache.Enabled {
		log.Info("Classification cache disabled")
		return &CacheHandle{}, nil
	}

	store, err := cache.Open(cache.Options{
		Path:   cfg.Cache.Path,
		TTL:    cfg.Cache.TTL,
		Logger: log.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &CacheHandle{Store: store}, nil
}

// ProvideClassifier provides the genre classification client.
func ProvideClassifier(i do.Injector) (*classifier.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	labels := do.MustInvoke[*category.Set](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)

	opts := []classifier.Option{classifier.WithMetrics(m)}
	if cacheHandle.Store != nil {
		opts = append(opts, classifier.WithCache(cacheHandle.Store))
	}

	client := classifier.New(cfg.ClassifierConfig(), labels, log.Logger, opts...)

	if client.Enabled() {
		log.Info("Classifier configured",
			"url", cfg.Classifier.SubmitURL,
			"max_attempts", cfg.Classifier.MaxAttempts,
			"poll_delay", cfg.Classifier.PollDelay,
			"backoff", cfg.Classifier.Backoff,
		)
	} else {
		log.Warn("Classifier disabled, new books will be stored as Unknown")
	}

	return client, nil
}
