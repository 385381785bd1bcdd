package service

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/errors"
	"github.com/shelfmark/shelfmark-server/internal/id"
	"github.com/shelfmark/shelfmark-server/internal/sse"
	"github.com/shelfmark/shelfmark-server/internal/store"
	"github.com/shelfmark/shelfmark-server/internal/validation"
)

// SeriesService orchestrates series CRUD, duplicate detection, and merge.
// It also implements SeriesLookup for the bin manager.
type SeriesService struct {
	store     *store.Store
	cache     CacheInvalidator
	events    EventEmitter
	logger    *slog.Logger
	validator *validation.Validator
}

// NewSeriesService creates a series service.
func NewSeriesService(st *store.Store, cache CacheInvalidator, events EventEmitter, logger *slog.Logger) *SeriesService {
	return &SeriesService{
		store:     st,
		cache:     cache,
		events:    events,
		logger:    logger,
		validator: validation.New(),
	}
}

// ListSeries returns all active series.
func (s *SeriesService) ListSeries(ctx context.Context, userID string) ([]*domain.Series, error) {
	return s.store.Series(userID).GetActive(ctx)
}

// GetSeries returns a series document, binned or active.
func (s *SeriesService) GetSeries(ctx context.Context, userID, seriesID string) (*domain.Series, error) {
	sr, err := s.store.Series(userID).GetByID(ctx, seriesID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.NotFoundf("series %s not found", seriesID)
		}
		return nil, err
	}
	return sr, nil
}

// CreateSeriesRequest contains fields for creating a series.
type CreateSeriesRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
	TotalBooks  *int   `json:"total_books" validate:"omitempty,gte=0"`
}

// CreateSeries creates a new series. A name that normalizes to an existing
// active series is rejected before any write.
func (s *SeriesService) CreateSeries(ctx context.Context, userID string, req CreateSeriesRequest) (*domain.Series, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	normalized := domain.NormalizeName(req.Name)
	if err := s.checkNameAvailable(ctx, userID, normalized, ""); err != nil {
		return nil, err
	}

	seriesID, err := id.Generate("series")
	if err != nil {
		return nil, err
	}

	sr := &domain.Series{
		Record:         domain.Record{ID: seriesID},
		Name:           strings.TrimSpace(req.Name),
		NormalizedName: normalized,
		Description:    req.Description,
		TotalBooks:     req.TotalBooks,
	}

	if err := s.store.Series(userID).Create(ctx, seriesID, sr); err != nil {
		return nil, err
	}

	s.cache.InvalidateUser(userID)
	s.logger.Info("series created", "user_id", userID, "series_id", seriesID, "name", sr.Name)
	return sr, nil
}

// UpdateSeriesRequest contains fields for updating a series.
type UpdateSeriesRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	TotalBooks  *int    `json:"total_books" validate:"omitempty,gte=0"`
}

// UpdateSeries updates a series. Renames re-run the duplicate-name check.
func (s *SeriesService) UpdateSeries(ctx context.Context, userID, seriesID string, req UpdateSeriesRequest) (*domain.Series, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	sr, err := s.GetSeries(ctx, userID, seriesID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		normalized := domain.NormalizeName(*req.Name)
		if normalized != sr.NormalizedName {
			if err := s.checkNameAvailable(ctx, userID, normalized, seriesID); err != nil {
				return nil, err
			}
		}
		sr.Name = strings.TrimSpace(*req.Name)
		sr.NormalizedName = normalized
	}
	if req.Description != nil {
		sr.Description = *req.Description
	}
	if req.TotalBooks != nil {
		sr.TotalBooks = req.TotalBooks
	}

	if err := s.store.Series(userID).Update(ctx, seriesID, sr); err != nil {
		return nil, err
	}

	s.cache.InvalidateUser(userID)
	return sr, nil
}

// checkNameAvailable rejects names that normalize onto another active series.
func (s *SeriesService) checkNameAvailable(ctx context.Context, userID, normalized, excludeID string) error {
	existing, err := s.store.GetSeriesByNormalizedName(ctx, userID, normalized)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID == excludeID {
		return nil
	}
	return errors.Conflictf("a series named %q already exists", existing.Name)
}

// DeleteSeries removes a series document. Books keep their seriesId; the
// dangling reference is tolerated and surfaces as a restore warning or a
// reconcile correction.
func (s *SeriesService) DeleteSeries(ctx context.Context, userID, seriesID string) error {
	if _, err := s.GetSeries(ctx, userID, seriesID); err != nil {
		return err
	}
	if err := s.store.Series(userID).Delete(ctx, seriesID); err != nil {
		return err
	}

	s.cache.InvalidateUser(userID)
	s.logger.Info("series deleted", "user_id", userID, "series_id", seriesID)
	return nil
}

// SoftDeleteSeries moves a series into the bin.
func (s *SeriesService) SoftDeleteSeries(ctx context.Context, userID, seriesID string) error {
	sr, err := s.GetSeries(ctx, userID, seriesID)
	if err != nil {
		return err
	}
	if sr.IsDeleted() {
		return nil
	}

	sr.MarkDeleted()
	if err := s.store.Series(userID).Update(ctx, seriesID, sr); err != nil {
		return err
	}

	s.cache.InvalidateUser(userID)
	return nil
}

// RestoreSeries takes a series back out of the bin.
func (s *SeriesService) RestoreSeries(ctx context.Context, userID, seriesID string) error {
	sr, err := s.GetSeries(ctx, userID, seriesID)
	if err != nil {
		return err
	}
	if !sr.IsDeleted() {
		return nil
	}

	sr.ClearDeleted()
	if err := s.store.Series(userID).Update(ctx, seriesID, sr); err != nil {
		return err
	}

	s.cache.InvalidateUser(userID)
	return nil
}

// AddExpectedBookRequest contains fields for adding an expected book.
type AddExpectedBookRequest struct {
	Title    string `json:"title" validate:"required,min=1,max=500"`
	ISBN     string `json:"isbn" validate:"max=20"`
	Position *int   `json:"position" validate:"omitempty,gte=0"`
	Source   string `json:"source" validate:"omitempty,oneof=api manual"`
}

// AddExpectedBook appends a placeholder for a not-yet-owned book. Entries
// that duplicate an existing placeholder by ISBN or title are rejected.
func (s *SeriesService) AddExpectedBook(ctx context.Context, userID, seriesID string, req AddExpectedBookRequest) (*domain.Series, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	sr, err := s.GetSeries(ctx, userID, seriesID)
	if err != nil {
		return nil, err
	}

	entry := domain.ExpectedBook{
		Title:    strings.TrimSpace(req.Title),
		ISBN:     req.ISBN,
		Position: req.Position,
		Source:   req.Source,
	}
	if entry.Source == "" {
		entry.Source = domain.ExpectedSourceManual
	}

	for _, existing := range sr.ExpectedBooks {
		if expectedBooksMatch(existing, entry) {
			return nil, errors.Conflictf("expected book %q is already listed", entry.Title)
		}
	}

	sr.ExpectedBooks = append(sr.ExpectedBooks, entry)
	if err := s.store.Series(userID).Update(ctx, seriesID, sr); err != nil {
		return nil, err
	}

	s.cache.InvalidateUser(userID)
	return sr, nil
}

// RemoveExpectedBook deletes a placeholder by title (case-insensitive).
func (s *SeriesService) RemoveExpectedBook(ctx context.Context, userID, seriesID, title string) (*domain.Series, error) {
	sr, err := s.GetSeries(ctx, userID, seriesID)
	if err != nil {
		return nil, err
	}

	normalized := domain.NormalizeName(title)
	kept := sr.ExpectedBooks[:0]
	for _, eb := range sr.ExpectedBooks {
		if domain.NormalizeName(eb.Title) != normalized {
			kept = append(kept, eb)
		}
	}
	if len(kept) == len(sr.ExpectedBooks) {
		return nil, errors.NotFoundf("no expected book titled %q", title)
	}
	sr.ExpectedBooks = kept

	if err := s.store.Series(userID).Update(ctx, seriesID, sr); err != nil {
		return nil, err
	}

	s.cache.InvalidateUser(userID)
	return sr, nil
}

// suffixVocabulary matches a trailing series-type word on a normalized name.
var suffixVocabulary = regexp.MustCompile(` (series|saga|trilogy|cycle|chronicles)$`)

// stripSeriesSuffix removes one trailing vocabulary word. Very short
// stripped forms are rejected so names like "The Cycle" do not collapse.
func stripSeriesSuffix(normalized string) (string, bool) {
	stripped := suffixVocabulary.ReplaceAllString(normalized, "")
	if stripped == normalized || len(stripped) <= 3 {
		return normalized, false
	}
	return stripped, true
}

// namesLookAlike reports whether two normalized series names likely refer
// to the same series: exact match, containment, or equality after suffix
// stripping.
func namesLookAlike(a, b string) bool {
	if a == b {
		return true
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	sa, okA := stripSeriesSuffix(a)
	sb, okB := stripSeriesSuffix(b)
	if okA || okB {
		return sa == sb
	}
	return false
}

// FindPotentialDuplicates groups active series whose names look alike.
// Each series appears in at most one group; groups always have two or more
// members.
func (s *SeriesService) FindPotentialDuplicates(ctx context.Context, userID string) ([][]*domain.Series, error) {
	all, err := s.ListSeries(ctx, userID)
	if err != nil {
		return nil, err
	}

	var groups [][]*domain.Series
	processed := make(map[string]bool, len(all))

	for i, candidate := range all {
		if processed[candidate.ID] {
			continue
		}
		group := []*domain.Series{candidate}
		for _, other := range all[i+1:] {
			if processed[other.ID] {
				continue
			}
			if namesLookAlike(candidate.NormalizedName, other.NormalizedName) {
				group = append(group, other)
				processed[other.ID] = true
			}
		}
		if len(group) > 1 {
			processed[candidate.ID] = true
			groups = append(groups, group)
		}
	}

	return groups, nil
}

// MergeResult reports what a series merge moved.
type MergeResult struct {
	BooksUpdated        int `json:"books_updated"`
	ExpectedBooksMerged int `json:"expected_books_merged"`
}

// MergeSeries folds the source series into the target: books are
// reassigned in one batch, expected-book lists are unioned (deduplicated by
// ISBN, then case-insensitive title), counters and the target length are
// recomputed, and the source document is deleted.
//
// The batch itself is atomic, but the steps after it are not transactional
// with it; a failure partway leaves state that only the reconcile sweep
// repairs.
func (s *SeriesService) MergeSeries(ctx context.Context, userID, sourceID, targetID string) (*MergeResult, error) {
	if sourceID == targetID {
		return nil, errors.Validation("cannot merge a series into itself")
	}

	source, err := s.GetSeries(ctx, userID, sourceID)
	if err != nil {
		return nil, err
	}
	target, err := s.GetSeries(ctx, userID, targetID)
	if err != nil {
		return nil, err
	}

	booksUpdated, activeMoved, err := s.store.ReassignSeriesBooks(ctx, userID, sourceID, targetID)
	if err != nil {
		return nil, err
	}

	merged := mergeExpectedBooks(target.ExpectedBooks, source.ExpectedBooks)

	// Binned books move with the series but stay out of the count; their
	// restore path increments the target's counter when they come back.
	newCount := target.BookCount + activeMoved
	target.BookCount = newCount
	target.ExpectedBooks = merged
	target.TotalBooks = mergedTotalBooks(target.TotalBooks, source.TotalBooks, newCount+len(merged))

	if err := s.store.Series(userID).Update(ctx, targetID, target); err != nil {
		return nil, err
	}
	if err := s.store.Series(userID).Delete(ctx, sourceID); err != nil {
		return nil, err
	}

	s.cache.InvalidateUser(userID)
	s.events.EmitToUser(userID, sse.NewSeriesMergedEvent(sourceID, targetID, booksUpdated))

	s.logger.Info("series merged",
		"user_id", userID,
		"source_id", sourceID,
		"target_id", targetID,
		"books_updated", booksUpdated,
		"expected_books", len(merged))

	return &MergeResult{
		BooksUpdated:        booksUpdated,
		ExpectedBooksMerged: len(merged),
	}, nil
}

// expectedBooksMatch reports whether two placeholders refer to the same
// book: matching non-empty ISBNs, or matching titles ignoring case.
func expectedBooksMatch(a, b domain.ExpectedBook) bool {
	if a.ISBN != "" && b.ISBN != "" {
		return a.ISBN == b.ISBN
	}
	return domain.NormalizeName(a.Title) == domain.NormalizeName(b.Title)
}

// mergeExpectedBooks unions two placeholder lists, keeping the target's
// entry when both sides list the same book.
func mergeExpectedBooks(target, source []domain.ExpectedBook) []domain.ExpectedBook {
	merged := make([]domain.ExpectedBook, len(target))
	copy(merged, target)

	for _, candidate := range source {
		duplicate := false
		for _, existing := range merged {
			if expectedBooksMatch(existing, candidate) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			merged = append(merged, candidate)
		}
	}
	return merged
}

// mergedTotalBooks picks the largest known target length.
func mergedTotalBooks(target, source *int, computed int) *int {
	result := computed
	if target != nil && *target > result {
		result = *target
	}
	if source != nil && *source > result {
		result = *source
	}
	return &result
}
