package providers

import (
	"github.com/samber/do/v2"

	"github.com/abctag/abc-server/internal/category"
	"github.com/abctag/abc-server/internal/classifier"
	"github.com/abctag/abc-server/internal/config"
	"github.com/abctag/abc-server/internal/logger"
	"github.com/abctag/abc-server/internal/lookup"
	"github.com/abctag/abc-server/internal/metrics"
	"github.com/abctag/abc-server/internal/service"
	"github.com/abctag/abc-server/internal/validation"
)

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideBookService provides the book service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	client := do.MustInvoke[*classifier.Client](i)
	labels := do.MustInvoke[*category.Set](i)
	validator := do.MustInvoke[*validation.Validator](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBookService(storeHandle.Store, client, labels, validator, m, log.Logger), nil
}

// LookupServiceHandle holds the description lookup service. Service is nil when lookup is disabled.
type LookupServiceHandle struct {
	*service.LookupService
}

// ProvideLookupService provides the description lookup service.
func ProvideLookupService(i do.Injector) (*LookupServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	if !cfg.Lookup.Enabled {
		log.Info("Description lookup disabled")
		return &LookupServiceHandle{}, nil
	}

	client := lookup.NewClient(lookup.Config{
		BaseURL:           cfg.Lookup.BaseURL,
		APIKey:            cfg.Lookup.APIKey,
		RequestsPerSecond: cfg.Lookup.RequestsPerSecond,
	}, log.Logger)

	return &LookupServiceHandle{LookupService: service.NewLookupService(client, m, log.Logger)}, nil
}
