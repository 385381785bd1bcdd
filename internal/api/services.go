package api

import (
	"github.com/shelfmark/shelfmark-server/internal/backup"
	"github.com/shelfmark/shelfmark-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Book     *service.BookService
	Bin      *service.BinService
	Genre    *service.GenreService
	Series   *service.SeriesService
	Wishlist *service.WishlistService
	Search   *service.SearchService
	Counter  *service.CounterSync
	Backup   *backup.Service
}
