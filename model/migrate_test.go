package model_test

import (
	"testing"
	"time"

	"github.com/kasuganosora/filmorate/model"
	"github.com/kasuganosora/filmorate/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoMigrate_SeedsReferenceData(t *testing.T) {
	db := testutil.SetupTestDB(t)

	var mpa []model.Mpa
	require.NoError(t, db.Order("id").Find(&mpa).Error)
	assert.Equal(t, model.DefaultMpa, mpa)

	var genres []model.Genre
	require.NoError(t, db.Order("id").Find(&genres).Error)
	assert.Equal(t, model.DefaultGenres, genres)

	// Seeding twice leaves the tables unchanged.
	require.NoError(t, model.Seed(db))
	var count int64
	db.Model(&model.Genre{}).Count(&count)
	assert.Equal(t, int64(len(model.DefaultGenres)), count)
}

func TestAutoMigrate_InsertAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)

	film := &model.Film{
		Name:        "Leon",
		Description: "A professional assassin",
		ReleaseDate: model.NewDate(1994, time.September, 14),
		Duration:    110,
		MpaID:       4,
	}
	require.NoError(t, db.Create(film).Error)
	assert.Greater(t, film.ID, int64(0))

	var found model.Film
	require.NoError(t, db.First(&found, film.ID).Error)
	assert.Equal(t, "Leon", found.Name)
	assert.Equal(t, "1994-09-14", found.ReleaseDate.String())

	user := &model.User{Email: "mathilda@example.com", Login: "mathilda", Birthday: model.NewDate(1982, time.June, 9)}
	require.NoError(t, db.Create(user).Error)

	require.NoError(t, db.Create(&model.Like{FilmID: film.ID, UserID: user.ID}).Error)
	require.NoError(t, db.Create(&model.FilmGenre{FilmID: film.ID, GenreID: 4}).Error)
	require.NoError(t, db.Create(&model.Friendship{UserID: user.ID, FriendID: 99}).Error)
	require.NoError(t, db.Create(&model.AuditLog{TraceID: "trace-001", Action: "film.create"}).Error)
}
