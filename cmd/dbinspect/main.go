// Package main provides a read-only inspector for the catalogue database.
//
// It prints per-user document counts for every collection, flags counter
// drift between books and their genre/series documents, and lists the bin.
//
// Usage:
//
//	DB_PATH=~/Shelfmark/data/db go run ./cmd/dbinspect
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/shelfmark/shelfmark-server/internal/store"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/Shelfmark/data/db")
	}

	st, err := store.New(dbPath, slog.New(slog.DiscardHandler))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer st.Close()

	ctx := context.Background()

	userIDs, err := st.UserIDs(ctx)
	if err != nil {
		log.Fatalf("Failed to list users: %v", err)
	}

	fmt.Println("=== Database Inspection ===")
	fmt.Printf("Path:  %s\n", dbPath)
	fmt.Printf("Users: %d\n", len(userIDs))

	for _, userID := range userIDs {
		fmt.Printf("\n--- %s ---\n", userID)
		inspectUser(ctx, st, userID)
	}
}

func inspectUser(ctx context.Context, st *store.Store, userID string) {
	books, err := st.Books(userID).GetAll(ctx)
	if err != nil {
		fmt.Printf("  books: error: %v\n", err)
		return
	}
	genres, err := st.Genres(userID).GetAll(ctx)
	if err != nil {
		fmt.Printf("  genres: error: %v\n", err)
		return
	}
	series, err := st.Series(userID).GetAll(ctx)
	if err != nil {
		fmt.Printf("  series: error: %v\n", err)
		return
	}
	wishlist, err := st.Wishlist(userID).GetAll(ctx)
	if err != nil {
		fmt.Printf("  wishlist: error: %v\n", err)
		return
	}

	// Recompute counts from active books so stored counter drift shows up.
	genreCounts := make(map[string]int)
	seriesCounts := make(map[string]int)
	active, binned := 0, 0
	for _, b := range books {
		if b.IsDeleted() {
			binned++
			continue
		}
		active++
		for _, g := range b.Genres {
			genreCounts[g]++
		}
		if b.SeriesID != "" {
			seriesCounts[b.SeriesID]++
		}
	}

	fmt.Printf("  books:    %d active, %d binned\n", active, binned)
	fmt.Printf("  genres:   %d\n", len(genres))
	fmt.Printf("  series:   %d\n", len(series))
	fmt.Printf("  wishlist: %d\n", len(wishlist))

	drift := 0
	for _, g := range genres {
		if g.BookCount != genreCounts[g.ID] {
			fmt.Printf("  DRIFT genre %q: stored %d, actual %d\n", g.Name, g.BookCount, genreCounts[g.ID])
			drift++
		}
	}
	for _, sr := range series {
		if sr.BookCount != seriesCounts[sr.ID] {
			fmt.Printf("  DRIFT series %q: stored %d, actual %d\n", sr.Name, sr.BookCount, seriesCounts[sr.ID])
			drift++
		}
	}
	if drift == 0 {
		fmt.Println("  counters: in step")
	}

	for _, b := range books {
		if b.IsDeleted() {
			fmt.Printf("  bin: %q deleted at %s\n", b.Title, b.DeletedAt.Format("2006-01-02 15:04"))
		}
	}
}
