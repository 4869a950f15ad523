// Package aggregate computes derived catalogue views: the popular films
// ranking, common friends, and the assembled Film view carrying its rating,
// genres and likes.
package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kasuganosora/filmorate/apperr"
	"github.com/kasuganosora/filmorate/cache"
	"github.com/kasuganosora/filmorate/model"
	"github.com/kasuganosora/filmorate/storage"
	"go.uber.org/zap"
)

const (
	// InvalidateChannel carries "the ranking changed" notices between instances.
	InvalidateChannel = "films:invalidate"

	popularKeyPrefix = "films:popular:"
	popularIndexKey  = "films:popular:keys"
	refreshLeaseKey  = "films:popular:lease"
	refreshLeaseTTL  = 10 * time.Second
)

func popularKey(limit int) string {
	return popularKeyPrefix + strconv.Itoa(limit)
}

// Engine reads through a storage.Store. The cache and pub/sub are optional;
// without a cache every ranking is computed from the store.
type Engine struct {
	store  storage.Store
	cache  cache.Cache
	pubsub cache.PubSub
	ttl    time.Duration
	logger *zap.Logger

	// gen counts invalidations. A ranking computed under an older
	// generation is never cached.
	gen atomic.Uint64

	mu     sync.Mutex
	cancel func()
	done   chan struct{}
}

// New creates an Engine. ttl bounds how long a cached ranking may be served.
func New(store storage.Store, c cache.Cache, ps cache.PubSub, ttl time.Duration, logger *zap.Logger) *Engine {
	return &Engine{store: store, cache: c, pubsub: ps, ttl: ttl, logger: logger}
}

// ---- Film assembly ----

// AssembleFilm fills the rating, genres, likes and rate of f from the
// relation tables.
func (e *Engine) AssembleFilm(ctx context.Context, f *model.Film) error {
	mpa, err := e.store.GetMpa(ctx, f.MpaID)
	if err != nil {
		return err
	}
	genres, err := e.store.GenresOf(ctx, f.ID)
	if err != nil {
		return err
	}
	likes, err := e.store.LikesOf(ctx, f.ID)
	if err != nil {
		return err
	}
	f.Mpa = mpa
	f.Genres = genres
	f.Likes = likes
	f.Rate = len(likes)
	return nil
}

// AssembleFilms assembles every film in place.
func (e *Engine) AssembleFilms(ctx context.Context, films []model.Film) error {
	for i := range films {
		if err := e.AssembleFilm(ctx, &films[i]); err != nil {
			return err
		}
	}
	return nil
}

// GenresOf lists a film's genres ordered by id.
func (e *Engine) GenresOf(ctx context.Context, filmID int64) ([]model.Genre, error) {
	return e.store.GenresOf(ctx, filmID)
}

// ---- Popular films ----

// Rank orders every film by like count descending, then id ascending, and
// returns at most limit ids. Films without likes are included last.
func (e *Engine) Rank(ctx context.Context, limit int) ([]int64, error) {
	if limit <= 0 {
		return nil, apperr.Validation("popularFilms", "count must be positive, got %d", limit)
	}
	films, err := e.store.ListFilms(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := e.store.LikeCounts(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(films))
	for i, f := range films {
		ids[i] = f.ID
	}
	sort.SliceStable(ids, func(i, j int) bool {
		ci, cj := counts[ids[i]], counts[ids[j]]
		if ci != cj {
			return ci > cj
		}
		return ids[i] < ids[j]
	})
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// PopularIDs is Rank behind the cache. A cache failure falls back to the store.
func (e *Engine) PopularIDs(ctx context.Context, limit int) ([]int64, error) {
	if limit <= 0 {
		return nil, apperr.Validation("popularFilms", "count must be positive, got %d", limit)
	}
	if e.cache != nil {
		raw, err := e.cache.Get(ctx, popularKey(limit))
		if err == nil {
			var ids []int64
			if jerr := json.Unmarshal([]byte(raw), &ids); jerr == nil {
				return ids, nil
			}
			e.logger.Warn("discarding corrupt popular snapshot", zap.Int("limit", limit))
		} else if !cache.IsMiss(err) {
			e.logger.Warn("popular cache read failed", zap.Error(err))
		}
	}

	gen := e.gen.Load()
	ids, err := e.Rank(ctx, limit)
	if err != nil {
		return nil, err
	}
	e.remember(ctx, gen, limit, ids)
	return ids, nil
}

// remember caches ids unless an invalidation happened since gen was read.
// The generation is checked again after the write: Invalidate bumps it
// before deleting, so a snapshot written concurrently is either deleted by
// Invalidate or by the second check here.
func (e *Engine) remember(ctx context.Context, gen uint64, limit int, ids []int64) {
	if e.cache == nil || e.gen.Load() != gen {
		return
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return
	}
	key := popularKey(limit)
	if err := e.cache.Set(ctx, key, string(b), e.ttl); err != nil {
		e.logger.Warn("popular cache write failed", zap.Error(err))
		return
	}
	if err := e.cache.SAdd(ctx, popularIndexKey, key); err != nil {
		e.logger.Warn("popular cache index write failed", zap.String("key", key), zap.Error(err))
		e.forget(ctx, key)
		return
	}
	if e.gen.Load() != gen {
		e.forget(ctx, key)
	}
}

func (e *Engine) forget(ctx context.Context, key string) {
	if err := e.cache.Del(ctx, key); err != nil {
		e.logger.Warn("popular cache delete failed", zap.String("key", key), zap.Error(err))
	}
}

// PopularFilms returns at most limit assembled films, most liked first.
func (e *Engine) PopularFilms(ctx context.Context, limit int) ([]model.Film, error) {
	ids, err := e.PopularIDs(ctx, limit)
	if err != nil {
		return nil, err
	}
	films := make([]model.Film, 0, len(ids))
	for _, id := range ids {
		f, err := e.store.GetFilm(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := e.AssembleFilm(ctx, f); err != nil {
			return nil, err
		}
		films = append(films, *f)
	}
	return films, nil
}

// Refresh recomputes the ranking for limit and stores it. When another
// instance holds the refresh lease it returns false without work.
func (e *Engine) Refresh(ctx context.Context, limit int) (bool, error) {
	if e.cache != nil {
		ok, err := e.cache.SetNX(ctx, refreshLeaseKey, strconv.Itoa(limit), refreshLeaseTTL)
		if err != nil {
			return false, fmt.Errorf("acquire refresh lease: %w", err)
		}
		if !ok {
			return false, nil
		}
		defer func() {
			if err := e.cache.Del(ctx, refreshLeaseKey); err != nil {
				e.logger.Warn("release refresh lease failed", zap.Error(err))
			}
		}()
	}
	gen := e.gen.Load()
	ids, err := e.Rank(ctx, limit)
	if err != nil {
		return false, err
	}
	e.remember(ctx, gen, limit, ids)
	return true, nil
}

// Invalidate drops every cached ranking held in this instance's cache.
func (e *Engine) Invalidate(ctx context.Context) error {
	e.gen.Add(1)
	if e.cache == nil {
		return nil
	}
	keys, err := e.cache.SMembers(ctx, popularIndexKey)
	if err != nil {
		return err
	}
	return e.cache.Del(ctx, append(keys, popularIndexKey)...)
}

// Change is the notice published on InvalidateChannel.
type Change struct {
	Action string `json:"action"`
	FilmID int64  `json:"filmId"`
	UserID int64  `json:"userId,omitempty"`
}

// Changed is called after any write that may reorder the ranking. It drops
// the local snapshots and tells other instances to do the same.
func (e *Engine) Changed(ctx context.Context, ch Change) {
	if err := e.Invalidate(ctx); err != nil {
		e.logger.Warn("popular cache invalidate failed", zap.Error(err))
	}
	if e.pubsub == nil {
		return
	}
	payload, err := json.Marshal(ch)
	if err != nil {
		e.logger.Warn("encode change failed", zap.Error(err))
		return
	}
	if err := e.pubsub.Publish(ctx, InvalidateChannel, string(payload)); err != nil {
		e.logger.Warn("publish invalidate failed", zap.Error(err))
	}
}

// Start subscribes to invalidation notices until Stop is called.
func (e *Engine) Start(ctx context.Context) error {
	if e.pubsub == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		return nil
	}
	ch, cancel, err := e.pubsub.Subscribe(ctx, InvalidateChannel)
	if err != nil {
		return err
	}
	e.cancel = cancel
	e.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		for msg := range ch {
			e.logger.Debug("popular cache invalidated", zap.String("change", msg.Payload))
			if err := e.Invalidate(context.Background()); err != nil {
				e.logger.Warn("popular cache invalidate failed", zap.Error(err))
			}
		}
	}(e.done)
	return nil
}

// Stop ends the subscription started by Start and waits for the listener.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// ---- Friends ----

// Friends resolves the users userID has friend edges to, ordered by id.
func (e *Engine) Friends(ctx context.Context, userID int64) ([]model.User, error) {
	ids, err := e.store.FriendsOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	return e.store.GetUsers(ctx, ids)
}

// CommonFriends returns the users present in both friend lists, ordered by id.
func (e *Engine) CommonFriends(ctx context.Context, a, b int64) ([]model.User, error) {
	left, err := e.store.FriendsOf(ctx, a)
	if err != nil {
		return nil, err
	}
	right, err := e.store.FriendsOf(ctx, b)
	if err != nil {
		return nil, err
	}
	return e.store.GetUsers(ctx, intersect(left, right))
}

// intersect merges two ascending id lists.
func intersect(a, b []int64) []int64 {
	out := []int64{}
	for i, j := 0, 0; i < len(a) && j < len(b); {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}
