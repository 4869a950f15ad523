package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/filmorate/aggregate"
	"github.com/kasuganosora/filmorate/scheduler"
	"github.com/kasuganosora/filmorate/service"
	"github.com/kasuganosora/filmorate/storage/memory"
	"github.com/kasuganosora/filmorate/testutil"
	"github.com/kasuganosora/filmorate/validation"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testAdminKey = "test-admin-key"

type testServer struct {
	router *gin.Engine
	engine *aggregate.Engine
	sched  *scheduler.Scheduler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.New()
	c, ps := testutil.SetupTestCache(t)
	logger := testutil.Logger()
	engine := aggregate.New(store, c, ps, time.Minute, logger)
	v := validation.New()
	opts := service.DefaultOptions()

	sched := scheduler.New(logger)
	t.Cleanup(sched.Stop)

	r := gin.New()
	NewFilmHandler(service.NewFilmService(store, engine, v, nil, opts, logger), logger).Register(r)
	NewUserHandler(service.NewUserService(store, engine, v, nil, opts, logger), logger).Register(r)
	NewReferenceHandler(service.NewReferenceService(store), logger).Register(r)
	NewAdminHandler(engine, sched, opts.PopularDefaultCount, logger).Register(r, AdminAuth(testAdminKey))
	return &testServer{router: r, engine: engine, sched: sched}
}

func doJSON(r http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, w)["error"]
}

func filmBody(name string) map[string]any {
	return map[string]any{
		"name":        name,
		"description": "a film",
		"releaseDate": "1994-09-14",
		"duration":    110,
		"mpa":         map[string]any{"id": 4},
		"genres":      []map[string]any{{"id": 4}, {"id": 2}},
	}
}

func userBody(login string) map[string]any {
	return map[string]any{
		"email":    login + "@example.com",
		"login":    login,
		"name":     "",
		"birthday": "1990-05-20",
	}
}

type filmJSON struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"releaseDate"`
	Duration    int    `json:"duration"`
	Mpa         struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"mpa"`
	Genres []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
	Likes []int64 `json:"likes"`
	Rate  int     `json:"rate"`
}

type userJSON struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Login    string `json:"login"`
	Name     string `json:"name"`
	Birthday string `json:"birthday"`
}

func (s *testServer) createFilm(t *testing.T, name string) filmJSON {
	t.Helper()
	w := doJSON(s.router, http.MethodPost, "/films", filmBody(name))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[filmJSON](t, w)
}

func (s *testServer) createUser(t *testing.T, login string) userJSON {
	t.Helper()
	w := doJSON(s.router, http.MethodPost, "/users", userBody(login))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[userJSON](t, w)
}
