package model

import "time"

// Like records that a user liked a film.
type Like struct {
	FilmID    int64     `gorm:"primaryKey;autoIncrement:false" json:"film_id"`
	UserID    int64     `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// FilmGenre attaches a genre to a film.
type FilmGenre struct {
	FilmID  int64 `gorm:"primaryKey;autoIncrement:false"`
	GenreID int64 `gorm:"primaryKey;autoIncrement:false"`
}

// Friendship is a directed friend edge from UserID to FriendID.
// Confirmed is set on both edges once the request is reciprocated.
type Friendship struct {
	UserID    int64     `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	FriendID  int64     `gorm:"primaryKey;autoIncrement:false;index" json:"friend_id"`
	Confirmed bool      `gorm:"not null;default:false" json:"confirmed"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
