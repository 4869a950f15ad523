// Package storagetest holds the behavioural suite every storage.Store backend
// must pass. Backends call Run from their own tests.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kasuganosora/filmorate/apperr"
	"github.com/kasuganosora/filmorate/model"
	"github.com/kasuganosora/filmorate/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, seeded store.
type Factory func(t *testing.T) storage.Store

// Run executes the whole suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Store)
	}{
		{"FilmCreateGetUpdate", testFilmCreateGetUpdate},
		{"FilmUpdateMissing", testFilmUpdateMissing},
		{"FindFilms", testFindFilms},
		{"UserCreateGetUpdate", testUserCreateGetUpdate},
		{"GetUsersSkipsUnknown", testGetUsersSkipsUnknown},
		{"FindUsers", testFindUsers},
		{"ReferenceData", testReferenceData},
		{"Likes", testLikes},
		{"LikeRoundTrip", testLikeRoundTrip},
		{"ConcurrentDuplicateLike", testConcurrentDuplicateLike},
		{"FriendEdges", testFriendEdges},
		{"FriendEdgeSelf", testFriendEdgeSelf},
		{"Genres", testGenres},
		{"TxCommit", testTxCommit},
		{"TxRollback", testTxRollback},
		{"LockUsers", testLockUsers},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newStore(t))
		})
	}
}

func newFilm(name string) *model.Film {
	return &model.Film{
		Name:        name,
		Description: name + " description",
		ReleaseDate: model.NewDate(1994, time.September, 14),
		Duration:    110,
		MpaID:       1,
	}
}

func newUser(login string) *model.User {
	return &model.User{
		Email:    login + "@example.com",
		Login:    login,
		Name:     login,
		Birthday: model.NewDate(1990, time.January, 2),
	}
}

func mustFilm(t *testing.T, s storage.Store, name string) int64 {
	t.Helper()
	f := newFilm(name)
	require.NoError(t, s.CreateFilm(context.Background(), f))
	return f.ID
}

func mustUser(t *testing.T, s storage.Store, login string) int64 {
	t.Helper()
	u := newUser(login)
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u.ID
}

func testFilmCreateGetUpdate(t *testing.T, s storage.Store) {
	ctx := context.Background()

	a := newFilm("Leon")
	a.Mpa = &model.Mpa{ID: 1}
	a.Likes = []int64{42}
	require.NoError(t, s.CreateFilm(ctx, a))
	b := newFilm("Heat")
	require.NoError(t, s.CreateFilm(ctx, b))
	assert.Greater(t, a.ID, int64(0))
	assert.Greater(t, b.ID, a.ID)

	got, err := s.GetFilm(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Leon", got.Name)
	assert.Equal(t, "1994-09-14", got.ReleaseDate.String())
	assert.Equal(t, int64(1), got.MpaID)
	assert.Nil(t, got.Mpa)
	assert.Empty(t, got.Likes)

	a.Name = "Leon: The Professional"
	a.Duration = 133
	a.MpaID = 4
	a.ReleaseDate = model.NewDate(1994, time.November, 18)
	require.NoError(t, s.UpdateFilm(ctx, a))

	got, err = s.GetFilm(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Leon: The Professional", got.Name)
	assert.Equal(t, 133, got.Duration)
	assert.Equal(t, int64(4), got.MpaID)
	assert.Equal(t, "1994-11-18", got.ReleaseDate.String())

	all, err := s.ListFilms(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, a.ID, all[0].ID)
	assert.Equal(t, b.ID, all[1].ID)

	_, err = s.GetFilm(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func testFilmUpdateMissing(t *testing.T, s storage.Store) {
	f := newFilm("Ghost")
	f.ID = 77
	err := s.UpdateFilm(context.Background(), f)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	all, err := s.ListFilms(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testFindFilms(t *testing.T, s storage.Store) {
	ctx := context.Background()
	id := mustFilm(t, s, "Leon")
	mustFilm(t, s, "Heat")

	found, err := s.FindFilms(ctx, "Leon", model.NewDate(1994, time.September, 14), 110)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, id, found[0].ID)

	found, err = s.FindFilms(ctx, "Leon", model.NewDate(1994, time.September, 15), 110)
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = s.FindFilms(ctx, "Leon", model.NewDate(1994, time.September, 14), 111)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func testUserCreateGetUpdate(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := newUser("neo")
	require.NoError(t, s.CreateUser(ctx, u))
	assert.Greater(t, u.ID, int64(0))

	u.Name = "Thomas Anderson"
	u.Email = "anderson@example.com"
	require.NoError(t, s.UpdateUser(ctx, u))

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Thomas Anderson", got.Name)
	assert.Equal(t, "anderson@example.com", got.Email)
	assert.Equal(t, "1990-01-02", got.Birthday.String())

	missing := newUser("ghost")
	missing.ID = 404
	assert.ErrorIs(t, s.UpdateUser(ctx, missing), apperr.ErrNotFound)
	_, err = s.GetUser(ctx, 404)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	all, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testGetUsersSkipsUnknown(t *testing.T, s storage.Store) {
	ctx := context.Background()
	a := mustUser(t, s, "a")
	b := mustUser(t, s, "b")

	users, err := s.GetUsers(ctx, []int64{b, 999, a, b})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, a, users[0].ID)
	assert.Equal(t, b, users[1].ID)

	users, err = s.GetUsers(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func testFindUsers(t *testing.T, s storage.Store) {
	ctx := context.Background()
	a := mustUser(t, s, "trinity")
	b := mustUser(t, s, "morpheus")

	found, err := s.FindUsers(ctx, "trinity@example.com", "nobody")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, a, found[0].ID)

	found, err = s.FindUsers(ctx, "trinity@example.com", "morpheus")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, b, found[1].ID)

	found, err = s.FindUsers(ctx, "x@example.com", "x")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func testReferenceData(t *testing.T, s storage.Store) {
	ctx := context.Background()

	mpa, err := s.ListMpa(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultMpa, mpa)

	m, err := s.GetMpa(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "PG-13", m.Name)
	_, err = s.GetMpa(ctx, 42)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	genres, err := s.ListGenres(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultGenres, genres)

	g, err := s.GetGenre(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Drama", g.Name)
	_, err = s.GetGenre(ctx, 42)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func testLikes(t *testing.T, s storage.Store) {
	ctx := context.Background()
	f1 := mustFilm(t, s, "one")
	f2 := mustFilm(t, s, "two")
	u1 := mustUser(t, s, "u1")
	u2 := mustUser(t, s, "u2")

	require.NoError(t, s.AddLike(ctx, f1, u2))
	require.NoError(t, s.AddLike(ctx, f1, u1))
	require.NoError(t, s.AddLike(ctx, f2, u1))

	err := s.AddLike(ctx, f1, u1)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	likes, err := s.LikesOf(ctx, f1)
	require.NoError(t, err)
	assert.Equal(t, []int64{u1, u2}, likes)

	counts, err := s.LikeCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{f1: 2, f2: 1}, counts)

	// Removing an absent like is not an error.
	require.NoError(t, s.RemoveLike(ctx, f2, u2))
	require.NoError(t, s.RemoveLike(ctx, f2, u1))
	counts, err = s.LikeCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{f1: 2}, counts)

	likes, err = s.LikesOf(ctx, f2)
	require.NoError(t, err)
	assert.Empty(t, likes)
}

func testLikeRoundTrip(t *testing.T, s storage.Store) {
	ctx := context.Background()
	f := mustFilm(t, s, "film")
	u1 := mustUser(t, s, "u1")
	u2 := mustUser(t, s, "u2")
	require.NoError(t, s.AddLike(ctx, f, u1))

	before, err := s.LikesOf(ctx, f)
	require.NoError(t, err)

	require.NoError(t, s.AddLike(ctx, f, u2))
	require.NoError(t, s.RemoveLike(ctx, f, u2))

	after, err := s.LikesOf(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func testConcurrentDuplicateLike(t *testing.T, s storage.Store) {
	ctx := context.Background()
	f := mustFilm(t, s, "film")
	u := mustUser(t, s, "u")

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.AddLike(ctx, f, u)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrConflict)
	}
	assert.Equal(t, 1, ok)

	likes, err := s.LikesOf(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, []int64{u}, likes)
}

func testFriendEdges(t *testing.T, s storage.Store) {
	ctx := context.Background()
	a := mustUser(t, s, "a")
	b := mustUser(t, s, "b")
	c := mustUser(t, s, "c")

	require.NoError(t, s.AddFriendEdge(ctx, a, c))
	require.NoError(t, s.AddFriendEdge(ctx, a, b))
	assert.ErrorIs(t, s.AddFriendEdge(ctx, a, b), apperr.ErrConflict)

	edge, err := s.FriendEdge(ctx, a, b)
	require.NoError(t, err)
	assert.False(t, edge.Confirmed)
	_, err = s.FriendEdge(ctx, b, a)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, s.SetEdgeStatus(ctx, a, b, true))
	edge, err = s.FriendEdge(ctx, a, b)
	require.NoError(t, err)
	assert.True(t, edge.Confirmed)
	assert.ErrorIs(t, s.SetEdgeStatus(ctx, b, a, true), apperr.ErrNotFound)

	// Listing ignores status.
	friends, err := s.FriendsOf(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []int64{b, c}, friends)
	friends, err = s.FriendsOf(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, friends)

	require.NoError(t, s.RemoveFriendEdge(ctx, a, b))
	assert.ErrorIs(t, s.RemoveFriendEdge(ctx, a, b), apperr.ErrNotFound)
	friends, err = s.FriendsOf(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []int64{c}, friends)
}

func testFriendEdgeSelf(t *testing.T, s storage.Store) {
	ctx := context.Background()
	a := mustUser(t, s, "a")
	assert.ErrorIs(t, s.AddFriendEdge(ctx, a, a), apperr.ErrValidation)
	friends, err := s.FriendsOf(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, friends)
}

func testGenres(t *testing.T, s storage.Store) {
	ctx := context.Background()
	f := mustFilm(t, s, "film")
	other := mustFilm(t, s, "other")

	require.NoError(t, s.ReplaceGenres(ctx, f, []int64{4, 1, 4, 2}))
	require.NoError(t, s.ReplaceGenres(ctx, other, []int64{6}))

	genres, err := s.GenresOf(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, []model.Genre{
		{ID: 1, Name: "Comedy"},
		{ID: 2, Name: "Drama"},
		{ID: 4, Name: "Thriller"},
	}, genres)

	// Full replacement, not a merge.
	require.NoError(t, s.ReplaceGenres(ctx, f, []int64{5}))
	genres, err = s.GenresOf(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, []model.Genre{{ID: 5, Name: "Documentary"}}, genres)

	require.NoError(t, s.ReplaceGenres(ctx, f, nil))
	genres, err = s.GenresOf(ctx, f)
	require.NoError(t, err)
	assert.Empty(t, genres)

	genres, err = s.GenresOf(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, []model.Genre{{ID: 6, Name: "Action"}}, genres)
}

func testTxCommit(t *testing.T, s storage.Store) {
	ctx := context.Background()
	a := mustUser(t, s, "a")
	b := mustUser(t, s, "b")
	require.NoError(t, s.AddFriendEdge(ctx, b, a))

	err := s.Tx(ctx, func(tx storage.Store) error {
		if err := tx.AddFriendEdge(ctx, a, b); err != nil {
			return err
		}
		if err := tx.SetEdgeStatus(ctx, a, b, true); err != nil {
			return err
		}
		return tx.SetEdgeStatus(ctx, b, a, true)
	})
	require.NoError(t, err)

	ab, err := s.FriendEdge(ctx, a, b)
	require.NoError(t, err)
	ba, err := s.FriendEdge(ctx, b, a)
	require.NoError(t, err)
	assert.True(t, ab.Confirmed)
	assert.True(t, ba.Confirmed)
}

func testTxRollback(t *testing.T, s storage.Store) {
	ctx := context.Background()
	a := mustUser(t, s, "a")
	b := mustUser(t, s, "b")
	boom := errors.New("boom")

	err := s.Tx(ctx, func(tx storage.Store) error {
		if err := tx.AddFriendEdge(ctx, a, b); err != nil {
			return err
		}
		f := newFilm("rolled back")
		if err := tx.CreateFilm(ctx, f); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.FriendEdge(ctx, a, b)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	films, err := s.ListFilms(ctx)
	require.NoError(t, err)
	assert.Empty(t, films)
}

func testLockUsers(t *testing.T, s storage.Store) {
	ctx := context.Background()
	a := mustUser(t, s, "a")
	b := mustUser(t, s, "b")

	err := s.Tx(ctx, func(tx storage.Store) error {
		return tx.LockUsers(ctx, b, a, b)
	})
	require.NoError(t, err)

	err = s.Tx(ctx, func(tx storage.Store) error {
		return tx.LockUsers(ctx, a, 999)
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
