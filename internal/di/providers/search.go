package providers

import (
	"github.com/samber/do/v2"

	"github.com/shelfmark/shelfmark-server/internal/logger"
	"github.com/shelfmark/shelfmark-server/internal/search"
)

// SearchCatalogHandle wraps the search catalog with shutdown capability.
type SearchCatalogHandle struct {
	*search.Catalog
}

// Shutdown implements do.Shutdownable.
func (h *SearchCatalogHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchCatalog provides the per-user Bleve search catalog.
// Indexes are built lazily on first search, so nothing is opened here.
func ProvideSearchCatalog(i do.Injector) (*SearchCatalogHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	catalog := search.NewCatalog(log.Logger)

	return &SearchCatalogHandle{Catalog: catalog}, nil
}
