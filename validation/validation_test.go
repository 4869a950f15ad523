package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/kasuganosora/filmorate/apperr"
	"github.com/kasuganosora/filmorate/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)

func newValidator() *Validator {
	return NewWithClock(func() time.Time { return fixedNow })
}

func validFilm() *model.Film {
	return &model.Film{
		Name:        "Leon",
		Description: "A hitman takes in a girl.",
		ReleaseDate: model.NewDate(1994, time.September, 14),
		Duration:    110,
		Mpa:         &model.Mpa{ID: 1},
	}
}

func validUser() *model.User {
	return &model.User{
		Email:    "mathilda@example.com",
		Login:    "mathilda",
		Birthday: model.NewDate(1982, time.June, 1),
	}
}

func TestFilm_Valid(t *testing.T) {
	require.NoError(t, newValidator().Film("createFilm", validFilm()))
}

func TestFilm_Rules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *model.Film)
		field  string
	}{
		{"blank name", func(f *model.Film) { f.Name = "   " }, "name"},
		{"long description", func(f *model.Film) { f.Description = strings.Repeat("x", 201) }, "description"},
		{"release before cinema", func(f *model.Film) { f.ReleaseDate = model.NewDate(1895, time.December, 27) }, "releaseDate"},
		{"missing release", func(f *model.Film) { f.ReleaseDate = model.Date{} }, "releaseDate"},
		{"negative duration", func(f *model.Film) { f.Duration = -5 }, "duration"},
		{"zero duration", func(f *model.Film) { f.Duration = 0 }, "duration"},
		{"missing mpa", func(f *model.Film) { f.Mpa = nil }, "mpa"},
		{"zero mpa id", func(f *model.Film) { f.Mpa = &model.Mpa{} }, "mpa"},
	}
	v := newValidator()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := validFilm()
			tc.mutate(f)
			err := v.Film("createFilm", f)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrValidation)
			assert.Contains(t, apperr.Message(err), tc.field)
		})
	}
}

func TestFilm_Boundaries(t *testing.T) {
	v := newValidator()

	f := validFilm()
	f.ReleaseDate = model.FirstFilmRelease
	f.Description = strings.Repeat("é", 200)
	assert.NoError(t, v.Film("createFilm", f))

	assert.ErrorIs(t, v.Film("createFilm", nil), apperr.ErrValidation)
}

func TestUser_Valid(t *testing.T) {
	u := validUser()
	require.NoError(t, newValidator().User("createUser", u))
	assert.Equal(t, "mathilda", u.Name)
}

func TestUser_KeepsName(t *testing.T) {
	u := validUser()
	u.Name = "Mathilda Lando"
	require.NoError(t, newValidator().User("updateUser", u))
	assert.Equal(t, "Mathilda Lando", u.Name)
}

func TestUser_BlankNameDefaultsToLogin(t *testing.T) {
	u := validUser()
	u.Name = "  "
	require.NoError(t, newValidator().User("createUser", u))
	assert.Equal(t, "mathilda", u.Name)
}

func TestUser_Rules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(u *model.User)
		field  string
	}{
		{"blank email", func(u *model.User) { u.Email = "" }, "email"},
		{"email without at", func(u *model.User) { u.Email = "mathilda.example.com" }, "email"},
		{"blank login", func(u *model.User) { u.Login = " " }, "login"},
		{"login with space", func(u *model.User) { u.Login = "mat hilda" }, "login"},
		{"login with tab", func(u *model.User) { u.Login = "mat\thilda" }, "login"},
		{"future birthday", func(u *model.User) { u.Birthday = model.NewDate(2026, time.March, 11) }, "birthday"},
		{"missing birthday", func(u *model.User) { u.Birthday = model.Date{} }, "birthday"},
	}
	v := newValidator()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u := validUser()
			tc.mutate(u)
			err := v.User("createUser", u)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrValidation)
			assert.Contains(t, apperr.Message(err), tc.field)
		})
	}
}

func TestUser_BirthdayToday(t *testing.T) {
	u := validUser()
	u.Birthday = model.DateOf(fixedNow)
	assert.NoError(t, newValidator().User("createUser", u))
}
