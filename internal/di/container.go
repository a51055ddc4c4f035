// Package di provides dependency injection configuration for the ABC server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/abctag/abc-server/internal/category"
	"github.com/abctag/abc-server/internal/classifier"
	"github.com/abctag/abc-server/internal/config"
	"github.com/abctag/abc-server/internal/di/providers"
	"github.com/abctag/abc-server/internal/logger"
	"github.com/abctag/abc-server/internal/metrics"
	"github.com/abctag/abc-server/internal/service"
	"github.com/abctag/abc-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideMetrics)
	do.Provide(injector, providers.ProvideLabelSet)
	do.Provide(injector, providers.ProvideValidator)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideCache)

	// Classification
	do.Provide(injector, providers.ProvideClassifier)

	// Business services
	do.Provide(injector, providers.ProvideBookService)
	do.Provide(injector, providers.ProvideSearchService)
	do.Provide(injector, providers.ProvideLookupService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the HTTP server.
// This triggers lazy initialization of every provider.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*metrics.Metrics](injector)
	if _, err := do.Invoke[*category.Set](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*validation.Validator](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.CacheHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*classifier.Client](injector)

	_ = do.MustInvoke[*service.BookService](injector)
	_ = do.MustInvoke[*service.SearchService](injector)
	_ = do.MustInvoke[*providers.LookupServiceHandle](injector)

	// Bring the index in line with the store before serving
	providers.ReindexSearchIfNeeded(injector)

	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
