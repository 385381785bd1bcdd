// Package main provides a tool to seed the database with sample catalogue data.
//
// It creates genres, series, books, and wishlist entries for a user through
// the regular services, so denormalized counts and normalized names come out
// the same way the API would produce them.
//
// Usage:
//
//	DB_PATH=~/Shelfmark/data/db go run ./cmd/seed --user user-demo
//	DB_PATH=~/Shelfmark/data/db go run ./cmd/seed --user user-demo --with-binned
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/shelfmark/shelfmark-server/internal/cache"
	"github.com/shelfmark/shelfmark-server/internal/service"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

var (
	userID     = flag.String("user", "user-demo", "User ID to seed the catalogue under")
	withBinned = flag.Bool("with-binned", false, "Also soft-delete one book into the bin")
)

type seedBook struct {
	title    string
	authors  []string
	isbn     string
	genres   []string
	series   string
	position int
	rating   int
}

var genreSeeds = []service.CreateGenreRequest{
	{Name: "Science Fiction", Color: "#4f83cc"},
	{Name: "Fantasy", Color: "#7bae7f"},
	{Name: "Non-Fiction", Color: "#c98a4b"},
}

var seriesSeeds = []service.CreateSeriesRequest{
	{Name: "The Expanse", TotalBooks: intPtr(9)},
	{Name: "Earthsea"},
}

var bookSeeds = []seedBook{
	{title: "Leviathan Wakes", authors: []string{"James S. A. Corey"}, isbn: "9780316129084", genres: []string{"Science Fiction"}, series: "The Expanse", position: 1, rating: 5},
	{title: "Caliban's War", authors: []string{"James S. A. Corey"}, isbn: "9780316129060", genres: []string{"Science Fiction"}, series: "The Expanse", position: 2, rating: 4},
	{title: "A Wizard of Earthsea", authors: []string{"Ursula K. Le Guin"}, isbn: "9780547773742", genres: []string{"Fantasy"}, series: "Earthsea", position: 1, rating: 5},
	{title: "The Dispossessed", authors: []string{"Ursula K. Le Guin"}, isbn: "9780061054884", genres: []string{"Science Fiction"}},
	{title: "A Short History of Nearly Everything", authors: []string{"Bill Bryson"}, isbn: "9780767908184", genres: []string{"Non-Fiction"}},
}

var wishlistSeeds = []service.AddWishlistItemRequest{
	{Title: "Blindsight", Authors: []string{"Peter Watts"}, ISBN: "9780765319647"},
	{Title: "The Tombs of Atuan", Authors: []string{"Ursula K. Le Guin"}},
}

type nopImages struct{}

func (nopImages) DeleteAll([]string) error { return nil }

func main() {
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/Shelfmark/data/db")
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	logger := slog.New(slog.DiscardHandler)
	st, err := store.New(dbPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	c, err := cache.New(cache.Config{}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create cache: %v\n", err)
		os.Exit(1)
	}
	defer c.Dispose()

	ctx := context.Background()

	counters := service.NewCounterSync(st, logger)
	invalidator := service.NewNoopInvalidator()
	emitter := service.NewNoopEmitter()

	genreSvc := service.NewGenreService(st, invalidator, logger)
	seriesSvc := service.NewSeriesService(st, invalidator, emitter, logger)
	bookSvc := service.NewBookService(st, counters, c, invalidator, "", logger)
	binSvc := service.NewBinService(st, counters, seriesSvc, nopImages{}, invalidator, emitter, logger, 0)
	wishlistSvc := service.NewWishlistService(st, bookSvc, invalidator, logger)

	genreIDs := make(map[string]string)
	for _, req := range genreSeeds {
		g, err := genreSvc.CreateGenre(ctx, *userID, req)
		if err != nil {
			fmt.Printf("  skip genre %q: %v\n", req.Name, err)
			continue
		}
		genreIDs[req.Name] = g.ID
		fmt.Printf("  genre %q (%s)\n", g.Name, g.ID)
	}

	seriesIDs := make(map[string]string)
	for _, req := range seriesSeeds {
		sr, err := seriesSvc.CreateSeries(ctx, *userID, req)
		if err != nil {
			fmt.Printf("  skip series %q: %v\n", req.Name, err)
			continue
		}
		seriesIDs[req.Name] = sr.ID
		fmt.Printf("  series %q (%s)\n", sr.Name, sr.ID)
	}

	var lastBookID string
	for _, b := range bookSeeds {
		req := service.CreateBookRequest{
			Title:   b.title,
			Authors: b.authors,
			ISBN:    b.isbn,
			Rating:  b.rating,
		}
		for _, name := range b.genres {
			if id, ok := genreIDs[name]; ok {
				req.Genres = append(req.Genres, id)
			}
		}
		if id, ok := seriesIDs[b.series]; ok {
			req.SeriesID = id
			pos := b.position
			req.SeriesPosition = &pos
		}

		book, err := bookSvc.CreateBook(ctx, *userID, req)
		if err != nil {
			fmt.Printf("  skip book %q: %v\n", b.title, err)
			continue
		}
		lastBookID = book.ID
		fmt.Printf("  book %q (%s)\n", book.Title, book.ID)
	}

	for _, req := range wishlistSeeds {
		item, err := wishlistSvc.AddWishlistItem(ctx, *userID, req)
		if err != nil {
			fmt.Printf("  skip wishlist %q: %v\n", req.Title, err)
			continue
		}
		fmt.Printf("  wishlist %q (%s)\n", item.Title, item.ID)
	}

	if *withBinned && lastBookID != "" {
		if _, err := binSvc.SoftDelete(ctx, *userID, lastBookID); err != nil {
			fmt.Printf("  skip binning %s: %v\n", lastBookID, err)
		} else {
			fmt.Printf("  binned %s\n", lastBookID)
		}
	}

	fmt.Printf("Seeded catalogue for %s\n", *userID)
}

func intPtr(v int) *int { return &v }
