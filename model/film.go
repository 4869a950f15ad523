package model

import "time"

// FirstFilmRelease is the earliest accepted release date.
var FirstFilmRelease = NewDate(1895, time.December, 28)

// Film is a catalogued film. Mpa, Genres, Likes and Rate are assembled from
// the relation tables on read and are never persisted on the films row.
type Film struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:255;not null;index:idx_film_natural" json:"name" validate:"notblank"`
	Description string    `gorm:"size:800" json:"description" validate:"max=200"`
	ReleaseDate Date      `gorm:"type:date;not null;index:idx_film_natural" json:"releaseDate" validate:"releasedate"`
	Duration    int       `gorm:"not null" json:"duration" validate:"gt=0"`
	MpaID       int64     `gorm:"not null;index" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"-"`

	Mpa    *Mpa    `gorm:"-" json:"mpa" validate:"required"`
	Genres []Genre `gorm:"-" json:"genres"`
	Likes  []int64 `gorm:"-" json:"likes"`
	Rate   int     `gorm:"-" json:"rate"`
}

// GenreIDs returns the requested genre ids in request order.
func (f *Film) GenreIDs() []int64 {
	ids := make([]int64, 0, len(f.Genres))
	for _, g := range f.Genres {
		ids = append(ids, g.ID)
	}
	return ids
}

// Scalar returns a copy holding only the persisted columns.
func (f *Film) Scalar() Film {
	return Film{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		ReleaseDate: f.ReleaseDate,
		Duration:    f.Duration,
		MpaID:       f.MpaID,
		CreatedAt:   f.CreatedAt,
	}
}
