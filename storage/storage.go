// Package storage declares the persistence contracts shared by the in-memory
// and relational backends. Both report missing rows as apperr.ErrNotFound and
// duplicate relation rows as apperr.ErrConflict.
package storage

import (
	"context"

	"github.com/kasuganosora/filmorate/model"
)

// FilmStore persists the scalar columns of films.
type FilmStore interface {
	// CreateFilm assigns f.ID from a monotonic sequence and stores f.
	CreateFilm(ctx context.Context, f *model.Film) error
	// UpdateFilm replaces every mutable column of the film with f.ID.
	UpdateFilm(ctx context.Context, f *model.Film) error
	GetFilm(ctx context.Context, id int64) (*model.Film, error)
	// ListFilms returns all films ordered by id.
	ListFilms(ctx context.Context) ([]model.Film, error)
	// FindFilms returns films sharing the natural key, ordered by id.
	FindFilms(ctx context.Context, name string, release model.Date, duration int) ([]model.Film, error)
}

// UserStore persists users.
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	UpdateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id int64) (*model.User, error)
	// GetUsers returns the users with the given ids ordered by id; unknown ids
	// are skipped.
	GetUsers(ctx context.Context, ids []int64) ([]model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	// FindUsers returns users whose email or login matches, ordered by id.
	FindUsers(ctx context.Context, email, login string) ([]model.User, error)
}

// ReferenceStore exposes the read-only rating and genre tables.
type ReferenceStore interface {
	ListMpa(ctx context.Context) ([]model.Mpa, error)
	GetMpa(ctx context.Context, id int64) (*model.Mpa, error)
	ListGenres(ctx context.Context) ([]model.Genre, error)
	GetGenre(ctx context.Context, id int64) (*model.Genre, error)
}

// EntityStore is the union of the entity tables.
type EntityStore interface {
	FilmStore
	UserStore
	ReferenceStore
}

// RelationStore persists the many-to-many associations.
type RelationStore interface {
	// AddLike fails with ErrConflict when the pair already exists.
	AddLike(ctx context.Context, filmID, userID int64) error
	// RemoveLike is a no-op when the pair is absent.
	RemoveLike(ctx context.Context, filmID, userID int64) error
	// LikesOf returns the ids of users who liked the film, ascending.
	LikesOf(ctx context.Context, filmID int64) ([]int64, error)
	// LikeCounts returns like totals per film; films without likes are absent.
	LikeCounts(ctx context.Context) (map[int64]int, error)

	// AddFriendEdge inserts the pending edge requester→target. It fails with
	// ErrValidation for a self edge and ErrConflict when the edge exists.
	AddFriendEdge(ctx context.Context, requester, target int64) error
	// SetEdgeStatus sets Confirmed on an existing edge.
	SetEdgeStatus(ctx context.Context, requester, target int64, confirmed bool) error
	// RemoveFriendEdge deletes exactly the directed edge; ErrNotFound if absent.
	RemoveFriendEdge(ctx context.Context, requester, target int64) error
	// FriendEdge returns the directed edge or ErrNotFound.
	FriendEdge(ctx context.Context, requester, target int64) (*model.Friendship, error)
	// FriendsOf returns the targets of userID's outgoing edges regardless of
	// status, ascending.
	FriendsOf(ctx context.Context, userID int64) ([]int64, error)

	// GenresOf returns the film's genres deduplicated and ordered by id.
	GenresOf(ctx context.Context, filmID int64) ([]model.Genre, error)
	// ReplaceGenres deletes every genre row of the film, then inserts the
	// deduplicated genreIDs.
	ReplaceGenres(ctx context.Context, filmID int64, genreIDs []int64) error
}

// Store is a complete backend.
type Store interface {
	EntityStore
	RelationStore

	// Tx runs fn against a transactional view of the store. An error returned
	// by fn aborts the transaction and discards every write made through tx.
	Tx(ctx context.Context, fn func(tx Store) error) error

	// LockUsers takes exclusive locks on the given user rows until the
	// enclosing Tx ends, so read-then-write sequences over a user pair are not
	// interleaved with another transaction on the same pair. Missing users
	// fail with ErrNotFound.
	LockUsers(ctx context.Context, ids ...int64) error
}
