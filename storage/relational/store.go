// Package relational is the SQL storage backend built on gorm. It runs on any
// dialect the db package opens (sqlite, mysql, postgres).
package relational

import (
	"context"
	"errors"

	"github.com/kasuganosora/filmorate/apperr"
	"github.com/kasuganosora/filmorate/model"
	"github.com/kasuganosora/filmorate/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store implements storage.Store over a *gorm.DB.
type Store struct {
	db *gorm.DB
}

var _ storage.Store = (*Store)(nil)

// New wraps a migrated database.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Tx runs fn inside a database transaction. Unique keys on the relation
// tables turn racing inserts into ErrConflict.
func (s *Store) Tx(ctx context.Context, fn func(tx storage.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// LockUsers selects the rows FOR UPDATE in id order so two transactions over
// the same pair cannot deadlock. SQLite ignores the locking clause; its single
// writer connection already serialises transactions.
func (s *Store) LockUsers(ctx context.Context, ids ...int64) error {
	uniq := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		uniq[id] = struct{}{}
	}
	var found []int64
	err := s.db.WithContext(ctx).Model(&model.User{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Pluck("id", &found).Error
	if err != nil {
		return err
	}
	for _, id := range found {
		delete(uniq, id)
	}
	for _, id := range ids {
		if _, missing := uniq[id]; missing {
			return apperr.NotFound("LockUsers", "user %d not found", id)
		}
	}
	return nil
}

func notFound(err error, op, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(op, format, args...)
	}
	return err
}

// ---- Films ----

func (s *Store) CreateFilm(ctx context.Context, f *model.Film) error {
	row := f.Scalar()
	row.ID = 0
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	f.ID = row.ID
	return nil
}

func (s *Store) UpdateFilm(ctx context.Context, f *model.Film) error {
	res := s.db.WithContext(ctx).Model(&model.Film{}).Where("id = ?", f.ID).Updates(map[string]any{
		"name":         f.Name,
		"description":  f.Description,
		"release_date": f.ReleaseDate,
		"duration":     f.Duration,
		"mpa_id":       f.MpaID,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// MySQL reports zero affected rows for no-op updates; confirm existence.
		if _, err := s.GetFilm(ctx, f.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) GetFilm(ctx context.Context, id int64) (*model.Film, error) {
	var f model.Film
	if err := s.db.WithContext(ctx).First(&f, id).Error; err != nil {
		return nil, notFound(err, "GetFilm", "film %d not found", id)
	}
	return &f, nil
}

func (s *Store) ListFilms(ctx context.Context) ([]model.Film, error) {
	var films []model.Film
	if err := s.db.WithContext(ctx).Order("id").Find(&films).Error; err != nil {
		return nil, err
	}
	return films, nil
}

func (s *Store) FindFilms(ctx context.Context, name string, release model.Date, duration int) ([]model.Film, error) {
	var films []model.Film
	err := s.db.WithContext(ctx).
		Where("name = ? AND release_date = ? AND duration = ?", name, release, duration).
		Order("id").
		Find(&films).Error
	return films, err
}

// ---- Users ----

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	u.ID = 0
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *Store) UpdateUser(ctx context.Context, u *model.User) error {
	res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", u.ID).Updates(map[string]any{
		"email":    u.Email,
		"login":    u.Login,
		"name":     u.Name,
		"birthday": u.Birthday,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetUser(ctx, u.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err, "GetUser", "user %d not found", id)
	}
	return &u, nil
}

func (s *Store) GetUsers(ctx context.Context, ids []int64) ([]model.User, error) {
	users := []model.User{}
	if len(ids) == 0 {
		return users, nil
	}
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&users).Error
	return users, err
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) FindUsers(ctx context.Context, email, login string) ([]model.User, error) {
	var users []model.User
	err := s.db.WithContext(ctx).
		Where("email = ? OR login = ?", email, login).
		Order("id").
		Find(&users).Error
	return users, err
}

// ---- Reference data ----

func (s *Store) ListMpa(ctx context.Context) ([]model.Mpa, error) {
	var out []model.Mpa
	err := s.db.WithContext(ctx).Order("id").Find(&out).Error
	return out, err
}

func (s *Store) GetMpa(ctx context.Context, id int64) (*model.Mpa, error) {
	var m model.Mpa
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, notFound(err, "GetMpa", "mpa %d not found", id)
	}
	return &m, nil
}

func (s *Store) ListGenres(ctx context.Context) ([]model.Genre, error) {
	var out []model.Genre
	err := s.db.WithContext(ctx).Order("id").Find(&out).Error
	return out, err
}

func (s *Store) GetGenre(ctx context.Context, id int64) (*model.Genre, error) {
	var g model.Genre
	if err := s.db.WithContext(ctx).First(&g, id).Error; err != nil {
		return nil, notFound(err, "GetGenre", "genre %d not found", id)
	}
	return &g, nil
}
