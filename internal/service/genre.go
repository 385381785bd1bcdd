package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/errors"
	"github.com/shelfmark/shelfmark-server/internal/id"
	"github.com/shelfmark/shelfmark-server/internal/store"
	"github.com/shelfmark/shelfmark-server/internal/validation"
)

// GenreService manages genre CRUD. Book counts on genres are owned by
// CounterSync; this service never touches them directly.
type GenreService struct {
	store     *store.Store
	cache     CacheInvalidator
	logger    *slog.Logger
	validator *validation.Validator
}

// NewGenreService creates a genre service.
func NewGenreService(st *store.Store, cache CacheInvalidator, logger *slog.Logger) *GenreService {
	return &GenreService{
		store:     st,
		cache:     cache,
		logger:    logger,
		validator: validation.New(),
	}
}

// ListGenres returns all active genres ordered by name.
func (s *GenreService) ListGenres(ctx context.Context, userID string) ([]*domain.Genre, error) {
	genres, err := s.store.Genres(userID).GetWithOptions(ctx, store.QueryOptions{OrderBy: "name"})
	if err != nil {
		return nil, err
	}
	active := genres[:0]
	for _, g := range genres {
		if !g.IsDeleted() {
			active = append(active, g)
		}
	}
	return active, nil
}

// GetGenre returns a genre by ID.
func (s *GenreService) GetGenre(ctx context.Context, userID, genreID string) (*domain.Genre, error) {
	g, err := s.store.Genres(userID).GetByID(ctx, genreID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.NotFoundf("genre %s not found", genreID)
		}
		return nil, err
	}
	return g, nil
}

// CreateGenreRequest contains fields for creating a genre.
type CreateGenreRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=1000"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
}

// CreateGenre creates a new genre. A name that normalizes to an existing
// genre is rejected before any write.
func (s *GenreService) CreateGenre(ctx context.Context, userID string, req CreateGenreRequest) (*domain.Genre, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	normalized := domain.NormalizeName(req.Name)
	if err := s.checkNameAvailable(ctx, userID, normalized, ""); err != nil {
		return nil, err
	}

	genreID, err := id.Generate("genre")
	if err != nil {
		return nil, err
	}

	g := &domain.Genre{
		Record:         domain.Record{ID: genreID},
		Name:           strings.TrimSpace(req.Name),
		NormalizedName: normalized,
		Description:    req.Description,
		Color:          req.Color,
	}

	if err := s.store.Genres(userID).Create(ctx, genreID, g); err != nil {
		return nil, err
	}

	s.cache.InvalidateUser(userID)
	s.logger.Info("genre created", "user_id", userID, "genre_id", genreID, "name", g.Name)
	return g, nil
}

// UpdateGenreRequest contains fields for updating a genre.
type UpdateGenreRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Color       *string `json:"color" validate:"omitempty,hexcolor"`
}

// UpdateGenre updates a genre. Renames re-run the duplicate-name check.
func (s *GenreService) UpdateGenre(ctx context.Context, userID, genreID string, req UpdateGenreRequest) (*domain.Genre, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	g, err := s.GetGenre(ctx, userID, genreID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		normalized := domain.NormalizeName(*req.Name)
		if normalized != g.NormalizedName {
			if err := s.checkNameAvailable(ctx, userID, normalized, genreID); err != nil {
				return nil, err
			}
		}
		g.Name = strings.TrimSpace(*req.Name)
		g.NormalizedName = normalized
	}
	if req.Description != nil {
		g.Description = *req.Description
	}
	if req.Color != nil {
		g.Color = *req.Color
	}

	if err := s.store.Genres(userID).Update(ctx, genreID, g); err != nil {
		return nil, err
	}

	s.cache.InvalidateUser(userID)
	return g, nil
}

// checkNameAvailable rejects names that normalize onto another genre.
func (s *GenreService) checkNameAvailable(ctx context.Context, userID, normalized, excludeID string) error {
	existing, err := s.store.GetGenreByNormalizedName(ctx, userID, normalized)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID == excludeID {
		return nil
	}
	return errors.Conflictf("a genre named %q already exists", existing.Name)
}

// DeleteGenre removes a genre document. Books keep the genre ID in their
// Genres set; the dangling reference is tolerated and dropped with a warning
// the next time such a book is restored from the bin.
func (s *GenreService) DeleteGenre(ctx context.Context, userID, genreID string) error {
	if _, err := s.GetGenre(ctx, userID, genreID); err != nil {
		return err
	}
	if err := s.store.Genres(userID).Delete(ctx, genreID); err != nil {
		return err
	}

	s.cache.InvalidateUser(userID)
	s.logger.Info("genre deleted", "user_id", userID, "genre_id", genreID)
	return nil
}
