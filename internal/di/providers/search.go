package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/abctag/abc-server/internal/category"
	"github.com/abctag/abc-server/internal/config"
	"github.com/abctag/abc-server/internal/logger"
	"github.com/abctag/abc-server/internal/metrics"
	"github.com/abctag/abc-server/internal/search"
	"github.com/abctag/abc-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index and wires it to the store
// so creates and category updates are indexed as they are written.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	index, err := search.NewSearchIndex(search.Options{
		DataPath: cfg.Search.Path,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	storeHandle.SetSearchIndexer(index)

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "path", cfg.Search.Path, "documents", docCount)

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// ProvideSearchService provides the search service.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	labels := do.MustInvoke[*category.Set](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSearchService(indexHandle.SearchIndex, storeHandle.Store, labels, m, log.Logger), nil
}

// ReindexSearchIfNeeded rebuilds the index when its document count differs
// from the number of stored books. It runs before the HTTP server starts;
// failures are logged and do not stop startup.
func ReindexSearchIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	rebuilt, err := indexHandle.Reindex(context.Background(), storeHandle.Store, false)
	if err != nil {
		log.WithError(err).Error("Search reindex failed")
		return
	}
	if rebuilt {
		count, _ := indexHandle.DocumentCount()
		log.Info("Search reindex completed", "documents", count)
	}
}
