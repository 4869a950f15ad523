// Package memory is the in-process storage backend. All state lives behind a
// single RWMutex; identifiers come from counters guarded by the same lock.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kasuganosora/filmorate/apperr"
	"github.com/kasuganosora/filmorate/model"
	"github.com/kasuganosora/filmorate/storage"
)

type idSet map[int64]struct{}

type state struct {
	mu sync.RWMutex

	nextFilmID int64
	nextUserID int64

	films  map[int64]model.Film
	users  map[int64]model.User
	mpa    map[int64]model.Mpa
	genres map[int64]model.Genre

	likes      map[int64]idSet          // film → users
	filmGenres map[int64]idSet          // film → genres
	friends    map[int64]map[int64]bool // user → friend → confirmed
}

// Store implements storage.Store in memory.
type Store struct {
	st *state
	// inTx is set on the view handed to Tx callbacks, which already hold the
	// write lock.
	inTx bool
}

var _ storage.Store = (*Store)(nil)

// New returns an empty store seeded with the default ratings and genres.
func New() *Store {
	st := &state{
		films:      make(map[int64]model.Film),
		users:      make(map[int64]model.User),
		mpa:        make(map[int64]model.Mpa),
		genres:     make(map[int64]model.Genre),
		likes:      make(map[int64]idSet),
		filmGenres: make(map[int64]idSet),
		friends:    make(map[int64]map[int64]bool),
	}
	for _, m := range model.DefaultMpa {
		st.mpa[m.ID] = m
	}
	for _, g := range model.DefaultGenres {
		st.genres[g.ID] = g
	}
	return &Store{st: st}
}

func (s *Store) rlock() func() {
	if s.inTx {
		return func() {}
	}
	s.st.mu.RLock()
	return s.st.mu.RUnlock
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.st.mu.Lock()
	return s.st.mu.Unlock
}

// Tx runs fn under the write lock. If fn fails, every change it made is
// rolled back from a snapshot taken on entry.
func (s *Store) Tx(ctx context.Context, fn func(tx storage.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	snap := s.st.snapshot()
	if err := fn(&Store{st: s.st, inTx: true}); err != nil {
		s.st.restore(snap)
		return err
	}
	return nil
}

// LockUsers only checks existence: Tx already holds the store-wide write lock.
func (s *Store) LockUsers(_ context.Context, ids ...int64) error {
	defer s.rlock()()
	for _, id := range ids {
		if _, ok := s.st.users[id]; !ok {
			return apperr.NotFound("LockUsers", "user %d not found", id)
		}
	}
	return nil
}

// snapshot deep-copies the mutable parts of the state. Caller holds mu.
func (st *state) snapshot() *state {
	cp := &state{
		nextFilmID: st.nextFilmID,
		nextUserID: st.nextUserID,
		films:      make(map[int64]model.Film, len(st.films)),
		users:      make(map[int64]model.User, len(st.users)),
		likes:      copySets(st.likes),
		filmGenres: copySets(st.filmGenres),
		friends:    make(map[int64]map[int64]bool, len(st.friends)),
	}
	for k, v := range st.films {
		cp.films[k] = v
	}
	for k, v := range st.users {
		cp.users[k] = v
	}
	for k, edges := range st.friends {
		m := make(map[int64]bool, len(edges))
		for f, c := range edges {
			m[f] = c
		}
		cp.friends[k] = m
	}
	return cp
}

func (st *state) restore(snap *state) {
	st.nextFilmID = snap.nextFilmID
	st.nextUserID = snap.nextUserID
	st.films = snap.films
	st.users = snap.users
	st.likes = snap.likes
	st.filmGenres = snap.filmGenres
	st.friends = snap.friends
}

func copySets(src map[int64]idSet) map[int64]idSet {
	dst := make(map[int64]idSet, len(src))
	for k, set := range src {
		c := make(idSet, len(set))
		for id := range set {
			c[id] = struct{}{}
		}
		dst[k] = c
	}
	return dst
}

func sortedIDs(set idSet) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ---- Films ----

func (s *Store) CreateFilm(_ context.Context, f *model.Film) error {
	defer s.lock()()
	s.st.nextFilmID++
	f.ID = s.st.nextFilmID
	s.st.films[f.ID] = f.Scalar()
	return nil
}

func (s *Store) UpdateFilm(_ context.Context, f *model.Film) error {
	defer s.lock()()
	old, ok := s.st.films[f.ID]
	if !ok {
		return apperr.NotFound("UpdateFilm", "film %d not found", f.ID)
	}
	row := f.Scalar()
	row.CreatedAt = old.CreatedAt
	s.st.films[f.ID] = row
	return nil
}

func (s *Store) GetFilm(_ context.Context, id int64) (*model.Film, error) {
	defer s.rlock()()
	f, ok := s.st.films[id]
	if !ok {
		return nil, apperr.NotFound("GetFilm", "film %d not found", id)
	}
	return &f, nil
}

func (s *Store) ListFilms(_ context.Context) ([]model.Film, error) {
	defer s.rlock()()
	films := make([]model.Film, 0, len(s.st.films))
	for _, f := range s.st.films {
		films = append(films, f)
	}
	sort.Slice(films, func(i, j int) bool { return films[i].ID < films[j].ID })
	return films, nil
}

func (s *Store) FindFilms(ctx context.Context, name string, release model.Date, duration int) ([]model.Film, error) {
	all, err := s.ListFilms(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Film
	for _, f := range all {
		if f.Name == name && f.Duration == duration && f.ReleaseDate.Equal(release.Time) {
			out = append(out, f)
		}
	}
	return out, nil
}

// ---- Users ----

func (s *Store) CreateUser(_ context.Context, u *model.User) error {
	defer s.lock()()
	s.st.nextUserID++
	u.ID = s.st.nextUserID
	s.st.users[u.ID] = *u
	return nil
}

func (s *Store) UpdateUser(_ context.Context, u *model.User) error {
	defer s.lock()()
	old, ok := s.st.users[u.ID]
	if !ok {
		return apperr.NotFound("UpdateUser", "user %d not found", u.ID)
	}
	row := *u
	row.CreatedAt = old.CreatedAt
	s.st.users[u.ID] = row
	return nil
}

func (s *Store) GetUser(_ context.Context, id int64) (*model.User, error) {
	defer s.rlock()()
	u, ok := s.st.users[id]
	if !ok {
		return nil, apperr.NotFound("GetUser", "user %d not found", id)
	}
	return &u, nil
}

func (s *Store) GetUsers(_ context.Context, ids []int64) ([]model.User, error) {
	defer s.rlock()()
	seen := make(idSet, len(ids))
	for _, id := range ids {
		if _, ok := s.st.users[id]; ok {
			seen[id] = struct{}{}
		}
	}
	users := make([]model.User, 0, len(seen))
	for _, id := range sortedIDs(seen) {
		users = append(users, s.st.users[id])
	}
	return users, nil
}

func (s *Store) ListUsers(_ context.Context) ([]model.User, error) {
	defer s.rlock()()
	users := make([]model.User, 0, len(s.st.users))
	for _, u := range s.st.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *Store) FindUsers(ctx context.Context, email, login string) ([]model.User, error) {
	all, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.User
	for _, u := range all {
		if u.Email == email || u.Login == login {
			out = append(out, u)
		}
	}
	return out, nil
}

// ---- Reference data ----

func (s *Store) ListMpa(_ context.Context) ([]model.Mpa, error) {
	defer s.rlock()()
	out := make([]model.Mpa, 0, len(s.st.mpa))
	for _, m := range s.st.mpa {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetMpa(_ context.Context, id int64) (*model.Mpa, error) {
	defer s.rlock()()
	m, ok := s.st.mpa[id]
	if !ok {
		return nil, apperr.NotFound("GetMpa", "mpa %d not found", id)
	}
	return &m, nil
}

func (s *Store) ListGenres(_ context.Context) ([]model.Genre, error) {
	defer s.rlock()()
	out := make([]model.Genre, 0, len(s.st.genres))
	for _, g := range s.st.genres {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetGenre(_ context.Context, id int64) (*model.Genre, error) {
	defer s.rlock()()
	g, ok := s.st.genres[id]
	if !ok {
		return nil, apperr.NotFound("GetGenre", "genre %d not found", id)
	}
	return &g, nil
}
