package model

// Mpa is a content rating classification. Reference data.
type Mpa struct {
	ID   int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name string `gorm:"size:16;not null" json:"name"`
}

func (Mpa) TableName() string { return "mpa" }

// Genre is a film genre tag. Reference data.
type Genre struct {
	ID   int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name string `gorm:"size:64;not null" json:"name"`
}

// DefaultMpa is the rating table seeded into every store.
var DefaultMpa = []Mpa{
	{ID: 1, Name: "G"},
	{ID: 2, Name: "PG"},
	{ID: 3, Name: "PG-13"},
	{ID: 4, Name: "R"},
	{ID: 5, Name: "NC-17"},
}

// DefaultGenres is the genre table seeded into every store.
var DefaultGenres = []Genre{
	{ID: 1, Name: "Comedy"},
	{ID: 2, Name: "Drama"},
	{ID: 3, Name: "Cartoon"},
	{ID: 4, Name: "Thriller"},
	{ID: 5, Name: "Documentary"},
	{ID: 6, Name: "Action"},
}
