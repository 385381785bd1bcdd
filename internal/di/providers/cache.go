package providers

import (
	"github.com/samber/do/v2"

	"github.com/shelfmark/shelfmark-server/internal/cache"
	"github.com/shelfmark/shelfmark-server/internal/config"
	"github.com/shelfmark/shelfmark-server/internal/logger"
)

// CacheHandle wraps the query cache with shutdown capability.
type CacheHandle struct {
	*cache.Store
}

// Shutdown implements do.Shutdownable.
func (h *CacheHandle) Shutdown() error {
	h.Dispose()
	return nil
}

// ProvideCache provides the listing query cache.
func ProvideCache(i do.Injector) (*CacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	c, err := cache.New(cache.Config{
		DefaultTTL: cfg.Cache.DefaultTTL,
		BookTTL:    cfg.Cache.BookTTL,
	}, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Query cache initialized",
		"default_ttl", cfg.Cache.DefaultTTL,
		"book_ttl", cfg.Cache.BookTTL,
	)

	return &CacheHandle{Store: c}, nil
}
