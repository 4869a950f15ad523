package service

import (
	"context"

	"github.com/kasuganosora/filmorate/model"
	"github.com/kasuganosora/filmorate/storage"
)

// ReferenceService reads the rating and genre tables.
type ReferenceService struct {
	store storage.ReferenceStore
}

func NewReferenceService(store storage.ReferenceStore) *ReferenceService {
	return &ReferenceService{store: store}
}

func (s *ReferenceService) Genres(ctx context.Context) ([]model.Genre, error) {
	return s.store.ListGenres(ctx)
}

func (s *ReferenceService) Genre(ctx context.Context, id int64) (*model.Genre, error) {
	return s.store.GetGenre(ctx, id)
}

func (s *ReferenceService) MpaList(ctx context.Context) ([]model.Mpa, error) {
	return s.store.ListMpa(ctx)
}

func (s *ReferenceService) Mpa(ctx context.Context, id int64) (*model.Mpa, error) {
	return s.store.GetMpa(ctx, id)
}
