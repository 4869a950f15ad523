package rest

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilms_CreateAssemblesAggregate(t *testing.T) {
	s := newTestServer(t)
	f := s.createFilm(t, "Leon")

	assert.Equal(t, int64(1), f.ID)
	assert.Equal(t, "1994-09-14", f.ReleaseDate)
	assert.Equal(t, int64(4), f.Mpa.ID)
	assert.Equal(t, "R", f.Mpa.Name)
	require.Len(t, f.Genres, 2)
	assert.Equal(t, int64(2), f.Genres[0].ID)
	assert.Equal(t, int64(4), f.Genres[1].ID)
	assert.Empty(t, f.Likes)
	assert.Equal(t, 0, f.Rate)
}

func TestFilms_CreateValidation(t *testing.T) {
	s := newTestServer(t)
	cases := map[string]func(b map[string]any){
		"blank name":       func(b map[string]any) { b["name"] = "  " },
		"long description": func(b map[string]any) { b["description"] = strings.Repeat("x", 201) },
		"early release":    func(b map[string]any) { b["releaseDate"] = "1895-12-27" },
		"zero duration":    func(b map[string]any) { b["duration"] = 0 },
		"missing mpa":      func(b map[string]any) { delete(b, "mpa") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			body := filmBody("Leon")
			mutate(body)
			w := doJSON(s.router, http.MethodPost, "/films", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.NotEmpty(t, errorOf(t, w))
		})
	}
}

func TestFilms_MalformedBody(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(s.router, http.MethodPost, "/films", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(s.router, http.MethodPost, "/films", `{"name":"x","releaseDate":"14.09.1994"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFilms_UnknownReferences(t *testing.T) {
	s := newTestServer(t)
	body := filmBody("Leon")
	body["mpa"] = map[string]any{"id": 99}
	w := doJSON(s.router, http.MethodPost, "/films", body)
	assert.Equal(t, http.StatusNotFound, w.Code)

	body = filmBody("Leon")
	body["genres"] = []map[string]any{{"id": 42}}
	w = doJSON(s.router, http.MethodPost, "/films", body)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFilms_DuplicateIsConflict(t *testing.T) {
	s := newTestServer(t)
	s.createFilm(t, "Leon")
	w := doJSON(s.router, http.MethodPost, "/films", filmBody("Leon"))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestFilms_UpdateAndGet(t *testing.T) {
	s := newTestServer(t)
	f := s.createFilm(t, "Leon")

	body := filmBody("Leon: The Professional")
	body["id"] = f.ID
	body["genres"] = []map[string]any{}
	w := doJSON(s.router, http.MethodPut, "/films", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[filmJSON](t, w)
	assert.Equal(t, "Leon: The Professional", updated.Name)
	assert.Empty(t, updated.Genres)

	w = doJSON(s.router, http.MethodGet, fmt.Sprintf("/films/%d", f.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Leon: The Professional", decode[filmJSON](t, w).Name)
}

func TestFilms_UpdateMissing(t *testing.T) {
	s := newTestServer(t)
	body := filmBody("Ghost")
	body["id"] = 77
	w := doJSON(s.router, http.MethodPut, "/films", body)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFilms_GetErrors(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, doJSON(s.router, http.MethodGet, "/films/9", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(s.router, http.MethodGet, "/films/abc", nil).Code)
}

func TestFilms_List(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(s.router, http.MethodGet, "/films", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	s.createFilm(t, "A")
	s.createFilm(t, "B")
	films := decode[[]filmJSON](t, doJSON(s.router, http.MethodGet, "/films", nil))
	require.Len(t, films, 2)
	assert.Equal(t, "A", films[0].Name)
	assert.Equal(t, "B", films[1].Name)
}

func TestFilms_Likes(t *testing.T) {
	s := newTestServer(t)
	f := s.createFilm(t, "Leon")
	u := s.createUser(t, "mathilda")
	path := fmt.Sprintf("/films/%d/like/%d", f.ID, u.ID)

	assert.Equal(t, http.StatusOK, doJSON(s.router, http.MethodPut, path, nil).Code)
	assert.Equal(t, http.StatusConflict, doJSON(s.router, http.MethodPut, path, nil).Code)

	got := decode[filmJSON](t, doJSON(s.router, http.MethodGet, fmt.Sprintf("/films/%d", f.ID), nil))
	assert.Equal(t, []int64{u.ID}, got.Likes)
	assert.Equal(t, 1, got.Rate)

	assert.Equal(t, http.StatusOK, doJSON(s.router, http.MethodDelete, path, nil).Code)
	got = decode[filmJSON](t, doJSON(s.router, http.MethodGet, fmt.Sprintf("/films/%d", f.ID), nil))
	assert.Empty(t, got.Likes)

	assert.Equal(t, http.StatusNotFound, doJSON(s.router, http.MethodPut, fmt.Sprintf("/films/%d/like/99", f.ID), nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(s.router, http.MethodPut, fmt.Sprintf("/films/99/like/%d", u.ID), nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(s.router, http.MethodPut, "/films/1/like/x", nil).Code)
}

func TestFilms_Popular(t *testing.T) {
	s := newTestServer(t)
	a := s.createFilm(t, "A")
	b := s.createFilm(t, "B")
	c := s.createFilm(t, "C")
	u1 := s.createUser(t, "one")
	u2 := s.createUser(t, "two")

	like := func(film, user int64) {
		w := doJSON(s.router, http.MethodPut, fmt.Sprintf("/films/%d/like/%d", film, user), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	like(b.ID, u1.ID)
	like(b.ID, u2.ID)
	like(c.ID, u1.ID)

	films := decode[[]filmJSON](t, doJSON(s.router, http.MethodGet, "/films/popular", nil))
	require.Len(t, films, 3)
	assert.Equal(t, []int64{b.ID, c.ID, a.ID}, []int64{films[0].ID, films[1].ID, films[2].ID})

	films = decode[[]filmJSON](t, doJSON(s.router, http.MethodGet, "/films/popular?count=1", nil))
	require.Len(t, films, 1)
	assert.Equal(t, b.ID, films[0].ID)
	assert.Equal(t, 2, films[0].Rate)
}

func TestFilms_PopularBadCount(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, doJSON(s.router, http.MethodGet, "/films/popular?count=0", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(s.router, http.MethodGet, "/films/popular?count=-3", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(s.router, http.MethodGet, "/films/popular?count=ten", nil).Code)
}
