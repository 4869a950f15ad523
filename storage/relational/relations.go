package relational

import (
	"context"
	"errors"
	"fmt"

	"github.com/kasuganosora/filmorate/apperr"
	"github.com/kasuganosora/filmorate/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func duplicate(err error, op, format string, args ...any) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &apperr.Error{Op: op, Kind: apperr.ErrConflict, Msg: fmt.Sprintf(format, args...), Err: err}
	}
	return err
}

// ---- Likes ----

func (s *Store) AddLike(ctx context.Context, filmID, userID int64) error {
	db := s.db.WithContext(ctx)
	var n int64
	if err := db.Model(&model.Like{}).Where("film_id = ? AND user_id = ?", filmID, userID).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflict("AddLike", "user %d already liked film %d", userID, filmID)
	}
	err := db.Create(&model.Like{FilmID: filmID, UserID: userID}).Error
	return duplicate(err, "AddLike", "user %d already liked film %d", userID, filmID)
}

func (s *Store) RemoveLike(ctx context.Context, filmID, userID int64) error {
	return s.db.WithContext(ctx).
		Where("film_id = ? AND user_id = ?", filmID, userID).
		Delete(&model.Like{}).Error
}

func (s *Store) LikesOf(ctx context.Context, filmID int64) ([]int64, error) {
	ids := []int64{}
	err := s.db.WithContext(ctx).Model(&model.Like{}).
		Where("film_id = ?", filmID).
		Order("user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (s *Store) LikeCounts(ctx context.Context) (map[int64]int, error) {
	var rows []struct {
		FilmID int64
		Total  int
	}
	err := s.db.WithContext(ctx).Model(&model.Like{}).
		Select("film_id, COUNT(user_id) AS total").
		Group("film_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[int64]int, len(rows))
	for _, r := range rows {
		counts[r.FilmID] = r.Total
	}
	return counts, nil
}

// ---- Friendship edges ----

func (s *Store) AddFriendEdge(ctx context.Context, requester, target int64) error {
	if requester == target {
		return apperr.Validation("AddFriendEdge", "user %d cannot befriend themselves", requester)
	}
	if _, err := s.FriendEdge(ctx, requester, target); err == nil {
		return apperr.Conflict("AddFriendEdge", "user %d already requested user %d", requester, target)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	err := s.db.WithContext(ctx).Create(&model.Friendship{UserID: requester, FriendID: target}).Error
	return duplicate(err, "AddFriendEdge", "user %d already requested user %d", requester, target)
}

func (s *Store) SetEdgeStatus(ctx context.Context, requester, target int64, confirmed bool) error {
	res := s.db.WithContext(ctx).Model(&model.Friendship{}).
		Where("user_id = ? AND friend_id = ?", requester, target).
		Update("confirmed", confirmed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.FriendEdge(ctx, requester, target); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) RemoveFriendEdge(ctx context.Context, requester, target int64) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND friend_id = ?", requester, target).
		Delete(&model.Friendship{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("RemoveFriendEdge", "no friend edge %d→%d", requester, target)
	}
	return nil
}

func (s *Store) FriendEdge(ctx context.Context, requester, target int64) (*model.Friendship, error) {
	var f model.Friendship
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND friend_id = ?", requester, target).
		First(&f).Error
	if err != nil {
		return nil, notFound(err, "FriendEdge", "no friend edge %d→%d", requester, target)
	}
	return &f, nil
}

func (s *Store) FriendsOf(ctx context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	err := s.db.WithContext(ctx).Model(&model.Friendship{}).
		Where("user_id = ?", userID).
		Order("friend_id").
		Pluck("friend_id", &ids).Error
	return ids, err
}

// ---- Film genres ----

func (s *Store) GenresOf(ctx context.Context, filmID int64) ([]model.Genre, error) {
	genres := []model.Genre{}
	err := s.db.WithContext(ctx).
		Table("film_genres AS fg").
		Select("DISTINCT g.id, g.name").
		Joins("JOIN genres AS g ON g.id = fg.genre_id").
		Where("fg.film_id = ?", filmID).
		Order("g.id").
		Scan(&genres).Error
	return genres, err
}

func (s *Store) ReplaceGenres(ctx context.Context, filmID int64, genreIDs []int64) error {
	db := s.db.WithContext(ctx)
	if err := db.Where("film_id = ?", filmID).Delete(&model.FilmGenre{}).Error; err != nil {
		return err
	}
	rows := make([]model.FilmGenre, 0, len(genreIDs))
	seen := make(map[int64]bool, len(genreIDs))
	for _, id := range genreIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, model.FilmGenre{FilmID: filmID, GenreID: id})
	}
	if len(rows) == 0 {
		return nil
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}
