package providers

import (
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/shelfmark/shelfmark-server/internal/backup"
	"github.com/shelfmark/shelfmark-server/internal/config"
	"github.com/shelfmark/shelfmark-server/internal/logger"
	"github.com/shelfmark/shelfmark-server/internal/media/images"
	"github.com/shelfmark/shelfmark-server/internal/service"
)

// ProvideInvalidator provides the fan-out cache invalidator. Mutations drop
// the query cache and the search index for the affected user together.
func ProvideInvalidator(i do.Injector) (service.CacheInvalidator, error) {
	cacheHandle := do.MustInvoke[*CacheHandle](i)
	catalogHandle := do.MustInvoke[*SearchCatalogHandle](i)

	return service.CombineInvalidators(cacheHandle.Store, catalogHandle.Catalog), nil
}

// ProvideCounterSync provides the denormalized counter maintainer.
func ProvideCounterSync(i do.Injector) (*service.CounterSync, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCounterSync(storeHandle.Store, log.Logger), nil
}

// ProvideGenreService provides the genre service.
func ProvideGenreService(i do.Injector) (*service.GenreService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	invalidator := do.MustInvoke[service.CacheInvalidator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewGenreService(storeHandle.Store, invalidator, log.Logger), nil
}

// ProvideSeriesService provides the series service.
func ProvideSeriesService(i do.Injector) (*service.SeriesService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	invalidator := do.MustInvoke[service.CacheInvalidator](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSeriesService(storeHandle.Store, invalidator, sseHandle.Manager, log.Logger), nil
}

// ProvideBookService provides the book service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	counters := do.MustInvoke[*service.CounterSync](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)
	invalidator := do.MustInvoke[service.CacheInvalidator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBookService(
		storeHandle.Store,
		counters,
		cacheHandle.Store,
		invalidator,
		cfg.Cache.SnapshotPath,
		log.Logger,
	), nil
}

// ProvideBinService provides the soft-delete bin service.
func ProvideBinService(i do.Injector) (*service.BinService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	counters := do.MustInvoke[*service.CounterSync](i)
	seriesService := do.MustInvoke[*service.SeriesService](i)
	imageStorage := do.MustInvoke[*images.Storage](i)
	invalidator := do.MustInvoke[service.CacheInvalidator](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBinService(
		storeHandle.Store,
		counters,
		seriesService,
		imageStorage,
		invalidator,
		sseHandle.Manager,
		log.Logger,
		cfg.Bin.RetentionDays,
	), nil
}

// ProvideBackupService provides the catalogue archive exporter/importer.
func ProvideBackupService(i do.Injector) (*backup.Service, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	backupDir := filepath.Join(cfg.Store.DataPath, "backups")
	return backup.NewService(storeHandle.Store, backupDir, log.Logger), nil
}

// ProvideWishlistService provides the wishlist service.
func ProvideWishlistService(i do.Injector) (*service.WishlistService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	bookService := do.MustInvoke[*service.BookService](i)
	invalidator := do.MustInvoke[service.CacheInvalidator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewWishlistService(storeHandle.Store, bookService, invalidator, log.Logger), nil
}

// ProvideSearchService provides the full-text search service.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	bookService := do.MustInvoke[*service.BookService](i)
	catalogHandle := do.MustInvoke[*SearchCatalogHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSearchService(bookService, catalogHandle.Catalog, log.Logger), nil
}
