package service_test

import (
	"context"
	"testing"

	"github.com/shelfmark/shelfmark-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterSync_UpdateCounts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	fiction := e.createGenre(t, "Fiction")
	history := e.createGenre(t, "History")

	err := e.counters.UpdateCounts(ctx, testUser, store.CounterGenres,
		[]string{fiction.ID, history.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, e.genreCount(t, fiction.ID))
	assert.Equal(t, 1, e.genreCount(t, history.ID))

	// An ID in both lists nets out to no change.
	err = e.counters.UpdateCounts(ctx, testUser, store.CounterGenres,
		[]string{fiction.ID}, []string{fiction.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, e.genreCount(t, fiction.ID))

	err = e.counters.UpdateCounts(ctx, testUser, store.CounterGenres,
		nil, []string{history.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, e.genreCount(t, history.ID))
}

func TestCounterSync_UpdateCounts_ClampsAtZero(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	g := e.createGenre(t, "Fiction")

	err := e.counters.UpdateCounts(ctx, testUser, store.CounterGenres, nil, []string{g.ID, g.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, e.genreCount(t, g.ID))
}

func TestCounterSync_UpdateCounts_NoOpOnEmpty(t *testing.T) {
	e := newEnv(t)

	err := e.counters.UpdateCounts(context.Background(), testUser, store.CounterGenres, nil, nil)
	require.NoError(t, err)
}

func TestCounterSync_Reconcile_RepairsDrift(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	fiction := e.createGenre(t, "Fiction")
	sr := e.createSeries(t, "The Expanse")

	e.createBook(t, "Leviathan Wakes", []string{fiction.ID}, sr.ID)
	e.createBook(t, "Caliban's War", []string{fiction.ID}, sr.ID)

	// Force drift on both kinds.
	err := e.store.SetBookCounts(ctx, testUser, store.CounterGenres, map[string]int{fiction.ID: 9})
	require.NoError(t, err)
	err = e.store.SetBookCounts(ctx, testUser, store.CounterSeries, map[string]int{sr.ID: 0})
	require.NoError(t, err)

	result, err := e.counters.Reconcile(ctx, testUser, store.CounterGenres)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 2, result.TotalBooksScanned)
	assert.Equal(t, 2, e.genreCount(t, fiction.ID))

	result, err = e.counters.Reconcile(ctx, testUser, store.CounterSeries)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 2, e.seriesCount(t, sr.ID))
}

func TestCounterSync_Reconcile_Idempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	fiction := e.createGenre(t, "Fiction")
	e.createBook(t, "Dune", []string{fiction.ID}, "")

	first, err := e.counters.Reconcile(ctx, testUser, store.CounterGenres)
	require.NoError(t, err)

	second, err := e.counters.Reconcile(ctx, testUser, store.CounterGenres)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Updated, "second sweep should find nothing to fix")
	assert.Equal(t, first.TotalBooksScanned, second.TotalBooksScanned)
}

func TestCounterSync_Reconcile_IgnoresBinnedBooks(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	fiction := e.createGenre(t, "Fiction")
	b := e.createBook(t, "Dune", []string{fiction.ID}, "")
	assert.Equal(t, 1, e.genreCount(t, fiction.ID))

	_, err := e.bin.SoftDelete(ctx, testUser, b.ID)
	require.NoError(t, err)

	result, err := e.counters.Reconcile(ctx, testUser, store.CounterGenres)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Updated, "soft delete already decremented")
	assert.Equal(t, 0, e.genreCount(t, fiction.ID))
}
