package memory

import (
	"context"
	"sort"

	"github.com/kasuganosora/filmorate/apperr"
	"github.com/kasuganosora/filmorate/model"
)

// ---- Likes ----

func (s *Store) AddLike(_ context.Context, filmID, userID int64) error {
	defer s.lock()()
	set, ok := s.st.likes[filmID]
	if !ok {
		set = make(idSet)
		s.st.likes[filmID] = set
	}
	if _, dup := set[userID]; dup {
		return apperr.Conflict("AddLike", "user %d already liked film %d", userID, filmID)
	}
	set[userID] = struct{}{}
	return nil
}

func (s *Store) RemoveLike(_ context.Context, filmID, userID int64) error {
	defer s.lock()()
	if set, ok := s.st.likes[filmID]; ok {
		delete(set, userID)
		if len(set) == 0 {
			delete(s.st.likes, filmID)
		}
	}
	return nil
}

func (s *Store) LikesOf(_ context.Context, filmID int64) ([]int64, error) {
	defer s.rlock()()
	return sortedIDs(s.st.likes[filmID]), nil
}

func (s *Store) LikeCounts(_ context.Context) (map[int64]int, error) {
	defer s.rlock()()
	counts := make(map[int64]int, len(s.st.likes))
	for filmID, set := range s.st.likes {
		if len(set) > 0 {
			counts[filmID] = len(set)
		}
	}
	return counts, nil
}

// ---- Friendship edges ----

func (s *Store) AddFriendEdge(_ context.Context, requester, target int64) error {
	if requester == target {
		return apperr.Validation("AddFriendEdge", "user %d cannot befriend themselves", requester)
	}
	defer s.lock()()
	edges, ok := s.st.friends[requester]
	if !ok {
		edges = make(map[int64]bool)
		s.st.friends[requester] = edges
	}
	if _, dup := edges[target]; dup {
		return apperr.Conflict("AddFriendEdge", "user %d already requested user %d", requester, target)
	}
	edges[target] = false
	return nil
}

func (s *Store) SetEdgeStatus(_ context.Context, requester, target int64, confirmed bool) error {
	defer s.lock()()
	edges := s.st.friends[requester]
	if _, ok := edges[target]; !ok {
		return apperr.NotFound("SetEdgeStatus", "no friend edge %d→%d", requester, target)
	}
	edges[target] = confirmed
	return nil
}

func (s *Store) RemoveFriendEdge(_ context.Context, requester, target int64) error {
	defer s.lock()()
	edges := s.st.friends[requester]
	if _, ok := edges[target]; !ok {
		return apperr.NotFound("RemoveFriendEdge", "no friend edge %d→%d", requester, target)
	}
	delete(edges, target)
	if len(edges) == 0 {
		delete(s.st.friends, requester)
	}
	return nil
}

func (s *Store) FriendEdge(_ context.Context, requester, target int64) (*model.Friendship, error) {
	defer s.rlock()()
	confirmed, ok := s.st.friends[requester][target]
	if !ok {
		return nil, apperr.NotFound("FriendEdge", "no friend edge %d→%d", requester, target)
	}
	return &model.Friendship{UserID: requester, FriendID: target, Confirmed: confirmed}, nil
}

func (s *Store) FriendsOf(_ context.Context, userID int64) ([]int64, error) {
	defer s.rlock()()
	edges := s.st.friends[userID]
	ids := make([]int64, 0, len(edges))
	for id := range edges {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ---- Film genres ----

func (s *Store) GenresOf(_ context.Context, filmID int64) ([]model.Genre, error) {
	defer s.rlock()()
	ids := sortedIDs(s.st.filmGenres[filmID])
	genres := make([]model.Genre, 0, len(ids))
	for _, id := range ids {
		if g, ok := s.st.genres[id]; ok {
			genres = append(genres, g)
		}
	}
	return genres, nil
}

func (s *Store) ReplaceGenres(_ context.Context, filmID int64, genreIDs []int64) error {
	defer s.lock()()
	delete(s.st.filmGenres, filmID)
	if len(genreIDs) == 0 {
		return nil
	}
	set := make(idSet, len(genreIDs))
	for _, id := range genreIDs {
		set[id] = struct{}{}
	}
	s.st.filmGenres[filmID] = set
	return nil
}
