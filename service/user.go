package service

import (
	"context"
	"errors"
	"time"

	"github.com/kasuganosora/filmorate/aggregate"
	"github.com/kasuganosora/filmorate/apperr"
	"github.com/kasuganosora/filmorate/model"
	"github.com/kasuganosora/filmorate/storage"
	"github.com/kasuganosora/filmorate/validation"
	"go.uber.org/zap"
)

// UserService exposes user and friendship operations.
type UserService struct {
	base
	store  storage.Store
	engine *aggregate.Engine
}

// NewUserService creates a UserService. validator and auditor may be nil.
func NewUserService(store storage.Store, engine *aggregate.Engine, v *validation.Validator, a Auditor, opts Options, logger *zap.Logger) *UserService {
	return &UserService{base: newBase(v, a, opts, logger), store: store, engine: engine}
}

// checkUserKey rejects a user whose email or login belongs to someone else.
func (s *UserService) checkUserKey(ctx context.Context, st storage.Store, op string, u *model.User) error {
	if !s.opts.RejectDuplicates {
		return nil
	}
	found, err := st.FindUsers(ctx, u.Email, u.Login)
	if err != nil {
		return err
	}
	for _, other := range found {
		if other.ID == u.ID {
			continue
		}
		if other.Email == u.Email {
			return apperr.Conflict(op, "email %q is already registered", u.Email)
		}
		return apperr.Conflict(op, "login %q is already taken", u.Login)
	}
	return nil
}

// Create validates and stores a new user. A blank name becomes the login.
func (s *UserService) Create(ctx context.Context, u *model.User) (*model.User, error) {
	start := time.Now()
	err := s.validator.User("createUser", u)
	if err == nil {
		u.ID = 0
		err = s.store.Tx(ctx, func(tx storage.Store) error {
			if err := s.checkUserKey(ctx, tx, "createUser", u); err != nil {
				return err
			}
			return tx.CreateUser(ctx, u)
		})
	}
	var out *model.User
	if err == nil {
		out, err = s.store.GetUser(ctx, u.ID)
	}
	s.record(ctx, start, "createUser", 0, idOfUser(out), 0, nil, err)
	return out, err
}

// Update replaces every mutable field of an existing user.
func (s *UserService) Update(ctx context.Context, u *model.User) (*model.User, error) {
	start := time.Now()
	err := s.validator.User("updateUser", u)
	if err == nil {
		err = s.store.Tx(ctx, func(tx storage.Store) error {
			if _, err := tx.GetUser(ctx, u.ID); err != nil {
				return err
			}
			if err := s.checkUserKey(ctx, tx, "updateUser", u); err != nil {
				return err
			}
			return tx.UpdateUser(ctx, u)
		})
	}
	var out *model.User
	if err == nil {
		out, err = s.store.GetUser(ctx, u.ID)
	}
	s.record(ctx, start, "updateUser", 0, idOfUser(u), 0, nil, err)
	return out, err
}

func idOfUser(u *model.User) int64 {
	if u == nil {
		return 0
	}
	return u.ID
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	return s.store.GetUser(ctx, id)
}

// List returns every user ordered by id.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// AddFriend records that userID requests friendship with friendID. When
// friendID already requested userID, both edges become confirmed.
func (s *UserService) AddFriend(ctx context.Context, userID, friendID int64) error {
	start := time.Now()
	err := s.addFriend(ctx, userID, friendID)
	s.record(ctx, start, "addFriend", 0, userID, friendID, nil, err)
	return err
}

func (s *UserService) addFriend(ctx context.Context, a, b int64) error {
	if a == b {
		return apperr.Validation("addFriend", "user %d cannot befriend themselves", a)
	}
	return s.store.Tx(ctx, func(tx storage.Store) error {
		if err := tx.LockUsers(ctx, a, b); err != nil {
			return err
		}
		if _, err := tx.FriendEdge(ctx, a, b); err == nil {
			return apperr.Conflict("addFriend", "user %d already requested user %d", a, b)
		} else if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		_, err := tx.FriendEdge(ctx, b, a)
		reverse := err == nil
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		if err := tx.AddFriendEdge(ctx, a, b); err != nil {
			return err
		}
		if !reverse {
			return nil
		}
		if err := tx.SetEdgeStatus(ctx, a, b, true); err != nil {
			return err
		}
		return tx.SetEdgeStatus(ctx, b, a, true)
	})
}

// DeleteFriend removes userID's edge to friendID. A confirmed reverse edge
// falls back to pending.
func (s *UserService) DeleteFriend(ctx context.Context, userID, friendID int64) error {
	start := time.Now()
	err := s.store.Tx(ctx, func(tx storage.Store) error {
		if err := tx.LockUsers(ctx, userID, friendID); err != nil {
			return err
		}
		if err := tx.RemoveFriendEdge(ctx, userID, friendID); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return apperr.NotFound("deleteFriend", "user %d is not a friend of user %d", friendID, userID)
			}
			return err
		}
		reverse, err := tx.FriendEdge(ctx, friendID, userID)
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if reverse.Confirmed {
			return tx.SetEdgeStatus(ctx, friendID, userID, false)
		}
		return nil
	})
	s.record(ctx, start, "deleteFriend", 0, userID, friendID, nil, err)
	return err
}

// Friends lists the users userID has requested or confirmed, ordered by id.
func (s *UserService) Friends(ctx context.Context, userID int64) ([]model.User, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.engine.Friends(ctx, userID)
}

// CommonFriends lists users in both friend lists, ordered by id.
func (s *UserService) CommonFriends(ctx context.Context, userID, otherID int64) ([]model.User, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetUser(ctx, otherID); err != nil {
		return nil, err
	}
	return s.engine.CommonFriends(ctx, userID, otherID)
}
