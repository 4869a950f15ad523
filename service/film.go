package service

import (
	"context"
	"time"

	"github.com/kasuganosora/filmorate/aggregate"
	"github.com/kasuganosora/filmorate/apperr"
	"github.com/kasuganosora/filmorate/model"
	"github.com/kasuganosora/filmorate/storage"
	"github.com/kasuganosora/filmorate/validation"
	"go.uber.org/zap"
)

// FilmService exposes film, like and popularity operations.
type FilmService struct {
	base
	store  storage.Store
	engine *aggregate.Engine
}

// NewFilmService creates a FilmService. validator and auditor may be nil.
func NewFilmService(store storage.Store, engine *aggregate.Engine, v *validation.Validator, a Auditor, opts Options, logger *zap.Logger) *FilmService {
	return &FilmService{base: newBase(v, a, opts, logger), store: store, engine: engine}
}

// PopularDefault is the count used when a caller does not supply one.
func (s *FilmService) PopularDefault() int { return s.opts.PopularDefaultCount }

// checkReferences verifies the rating and every genre exist.
func checkReferences(ctx context.Context, st storage.Store, f *model.Film) error {
	if _, err := st.GetMpa(ctx, f.Mpa.ID); err != nil {
		return err
	}
	for _, g := range f.Genres {
		if _, err := st.GetGenre(ctx, g.ID); err != nil {
			return err
		}
	}
	return nil
}

// checkFilmKey rejects a film whose name, release date and duration match
// another film. self is excluded so an update may keep its own key.
func (s *FilmService) checkFilmKey(ctx context.Context, st storage.Store, op string, f *model.Film) error {
	if !s.opts.RejectDuplicates {
		return nil
	}
	found, err := st.FindFilms(ctx, f.Name, f.ReleaseDate, f.Duration)
	if err != nil {
		return err
	}
	for _, other := range found {
		if other.ID != f.ID {
			return apperr.Conflict(op, "film %q (%s, %d min) already exists as %d",
				f.Name, f.ReleaseDate, f.Duration, other.ID)
		}
	}
	return nil
}

func (s *FilmService) write(ctx context.Context, op string, f *model.Film, create bool) (*model.Film, error) {
	if err := s.validator.Film(op, f); err != nil {
		return nil, err
	}
	f.MpaID = f.Mpa.ID
	err := s.store.Tx(ctx, func(tx storage.Store) error {
		if !create {
			if _, err := tx.GetFilm(ctx, f.ID); err != nil {
				return err
			}
		}
		if err := checkReferences(ctx, tx, f); err != nil {
			return err
		}
		if err := s.checkFilmKey(ctx, tx, op, f); err != nil {
			return err
		}
		if create {
			if err := tx.CreateFilm(ctx, f); err != nil {
				return err
			}
		} else if err := tx.UpdateFilm(ctx, f); err != nil {
			return err
		}
		return tx.ReplaceGenres(ctx, f.ID, f.GenreIDs())
	})
	if err != nil {
		return nil, err
	}
	out, err := s.store.GetFilm(ctx, f.ID)
	if err != nil {
		return nil, err
	}
	if err := s.engine.AssembleFilm(ctx, out); err != nil {
		return nil, err
	}
	s.engine.Changed(ctx, aggregate.Change{Action: op, FilmID: out.ID})
	return out, nil
}

// Create validates and stores a new film. Client-sent likes are ignored.
func (s *FilmService) Create(ctx context.Context, f *model.Film) (*model.Film, error) {
	start := time.Now()
	if f != nil {
		f.ID = 0
	}
	out, err := s.write(ctx, "createFilm", f, true)
	s.record(ctx, start, "createFilm", idOfFilm(out), 0, 0, f, err)
	return out, err
}

// Update replaces every mutable field of an existing film, including its
// genre set.
func (s *FilmService) Update(ctx context.Context, f *model.Film) (*model.Film, error) {
	start := time.Now()
	out, err := s.write(ctx, "updateFilm", f, false)
	s.record(ctx, start, "updateFilm", idOfFilm(f), 0, 0, f, err)
	return out, err
}

func idOfFilm(f *model.Film) int64 {
	if f == nil {
		return 0
	}
	return f.ID
}

// Get returns the assembled film.
func (s *FilmService) Get(ctx context.Context, id int64) (*model.Film, error) {
	f, err := s.store.GetFilm(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.AssembleFilm(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// List returns every film, assembled, ordered by id.
func (s *FilmService) List(ctx context.Context) ([]model.Film, error) {
	films, err := s.store.ListFilms(ctx)
	if err != nil {
		return nil, err
	}
	if films == nil {
		films = []model.Film{}
	}
	if err := s.engine.AssembleFilms(ctx, films); err != nil {
		return nil, err
	}
	return films, nil
}

func (s *FilmService) checkFilmAndUser(ctx context.Context, filmID, userID int64) error {
	if _, err := s.store.GetFilm(ctx, filmID); err != nil {
		return err
	}
	_, err := s.store.GetUser(ctx, userID)
	return err
}

// AddLike records that userID likes filmID.
func (s *FilmService) AddLike(ctx context.Context, filmID, userID int64) error {
	start := time.Now()
	err := s.checkFilmAndUser(ctx, filmID, userID)
	if err == nil {
		err = s.store.AddLike(ctx, filmID, userID)
	}
	if err == nil {
		s.engine.Changed(ctx, aggregate.Change{Action: "addLike", FilmID: filmID, UserID: userID})
	}
	s.record(ctx, start, "addLike", filmID, userID, 0, nil, err)
	return err
}

// RemoveLike withdraws a like. Removing an absent like succeeds.
func (s *FilmService) RemoveLike(ctx context.Context, filmID, userID int64) error {
	start := time.Now()
	err := s.checkFilmAndUser(ctx, filmID, userID)
	if err == nil {
		err = s.store.RemoveLike(ctx, filmID, userID)
	}
	if err == nil {
		s.engine.Changed(ctx, aggregate.Change{Action: "removeLike", FilmID: filmID, UserID: userID})
	}
	s.record(ctx, start, "removeLike", filmID, userID, 0, nil, err)
	return err
}

// Popular returns at most count films, most liked first.
func (s *FilmService) Popular(ctx context.Context, count int) ([]model.Film, error) {
	return s.engine.PopularFilms(ctx, count)
}
