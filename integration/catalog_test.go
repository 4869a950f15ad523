package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nisi() Film {
	return Film{
		Name:        "nisi eiusmod",
		Description: "adipisicing",
		ReleaseDate: "1967-03-25",
		Duration:    100,
		Mpa:         Ref{ID: 1},
	}
}

func TestCatalog_FilmLifecycle(t *testing.T) {
	for _, mode := range Modes {
		t.Run(mode, func(t *testing.T) {
			ts := NewTestServer(t, mode)

			f := ts.CreateFilm(t, nisi())
			assert.Equal(t, int64(1), f.ID)
			assert.Equal(t, "G", f.Mpa.Name)
			assert.Empty(t, f.Genres)

			upd := f
			upd.Name = "Film Updated"
			upd.ReleaseDate = "1989-04-17"
			upd.Description = "New film update decription"
			upd.Duration = 190
			upd.Mpa = Ref{ID: 2}
			upd.Genres = []Ref{{ID: 2}, {ID: 1}, {ID: 2}}
			resp := ts.Put(t, "/films", upd)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			var got Film
			ReadJSON(t, resp, &got)
			assert.Equal(t, "PG", got.Mpa.Name)
			assert.Equal(t, []Ref{{ID: 1, Name: "Comedy"}, {ID: 2, Name: "Drama"}}, got.Genres)

			ReadJSON(t, ts.Get(t, fmt.Sprintf("/films/%d", f.ID)), &got)
			assert.Equal(t, "Film Updated", got.Name)
			assert.Equal(t, 190, got.Duration)

			upd.ID = 9999
			Expect(t, ts.Put(t, "/films", upd), http.StatusNotFound)
			Expect(t, ts.Get(t, "/films/9999"), http.StatusNotFound)

			var all []Film
			ReadJSON(t, ts.Get(t, "/films"), &all)
			assert.Len(t, all, 1)
		})
	}
}

func TestCatalog_FilmValidation(t *testing.T) {
	for _, mode := range Modes {
		t.Run(mode, func(t *testing.T) {
			ts := NewTestServer(t, mode)

			bad := nisi()
			bad.Name = ""
			Expect(t, ts.PostJSON(t, "/films", bad), http.StatusBadRequest)

			bad = nisi()
			bad.ReleaseDate = "1890-03-25"
			Expect(t, ts.PostJSON(t, "/films", bad), http.StatusBadRequest)

			bad = nisi()
			bad.Duration = -200
			Expect(t, ts.PostJSON(t, "/films", bad), http.StatusBadRequest)

			bad = nisi()
			bad.Mpa = Ref{ID: 6}
			Expect(t, ts.PostJSON(t, "/films", bad), http.StatusNotFound)

			var all []Film
			ReadJSON(t, ts.Get(t, "/films"), &all)
			assert.Empty(t, all)
		})
	}
}

func TestCatalog_PopularFollowsLikes(t *testing.T) {
	for _, mode := range Modes {
		t.Run(mode, func(t *testing.T) {
			ts := NewTestServer(t, mode)

			var films []Film
			for i := 0; i < 3; i++ {
				f := nisi()
				f.Name = fmt.Sprintf("film %d", i)
				films = append(films, ts.CreateFilm(t, f))
			}
			var users []User
			for i := 0; i < 3; i++ {
				users = append(users, ts.CreateUser(t, User{
					Email: fmt.Sprintf("u%d@mail.ru", i), Login: fmt.Sprintf("u%d", i), Birthday: "1980-01-01",
				}))
			}

			popular := func(query string) []int64 {
				var out []Film
				ReadJSON(t, ts.Get(t, "/films/popular"+query), &out)
				ids := make([]int64, len(out))
				for i, f := range out {
					ids[i] = f.ID
				}
				return ids
			}
			assert.Equal(t, []int64{films[0].ID, films[1].ID, films[2].ID}, popular(""))

			like := func(f Film, u User) string { return fmt.Sprintf("/films/%d/like/%d", f.ID, u.ID) }
			Expect(t, ts.Put(t, like(films[2], users[0]), nil), http.StatusOK)
			Expect(t, ts.Put(t, like(films[2], users[1]), nil), http.StatusOK)
			Expect(t, ts.Put(t, like(films[1], users[2]), nil), http.StatusOK)
			Expect(t, ts.Put(t, like(films[1], users[2]), nil), http.StatusConflict)

			assert.Equal(t, []int64{films[2].ID, films[1].ID, films[0].ID}, popular(""))
			assert.Equal(t, []int64{films[2].ID}, popular("?count=1"))

			Expect(t, ts.Delete(t, like(films[2], users[0])), http.StatusOK)
			Expect(t, ts.Delete(t, like(films[2], users[1])), http.StatusOK)
			assert.Equal(t, []int64{films[1].ID, films[0].ID, films[2].ID}, popular(""))

			Expect(t, ts.Get(t, "/films/popular?count=0"), http.StatusBadRequest)
		})
	}
}

func TestCatalog_ReferenceData(t *testing.T) {
	for _, mode := range Modes {
		t.Run(mode, func(t *testing.T) {
			ts := NewTestServer(t, mode)

			var genres []Ref
			ReadJSON(t, ts.Get(t, "/genres"), &genres)
			require.Len(t, genres, 6)
			assert.Equal(t, Ref{ID: 6, Name: "Action"}, genres[5])

			var mpa []Ref
			ReadJSON(t, ts.Get(t, "/mpa"), &mpa)
			require.Len(t, mpa, 5)
			assert.Equal(t, Ref{ID: 3, Name: "PG-13"}, mpa[2])

			Expect(t, ts.Get(t, "/genres/-1"), http.StatusNotFound)
			Expect(t, ts.Get(t, "/mpa/9"), http.StatusNotFound)
		})
	}
}
