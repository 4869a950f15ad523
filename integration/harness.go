// Package integration drives the whole HTTP stack over a real listener.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/filmorate/aggregate"
	apirest "github.com/kasuganosora/filmorate/api/rest"
	"github.com/kasuganosora/filmorate/api/sse"
	"github.com/kasuganosora/filmorate/audit"
	"github.com/kasuganosora/filmorate/cache"
	mw "github.com/kasuganosora/filmorate/middleware"
	"github.com/kasuganosora/filmorate/scheduler"
	"github.com/kasuganosora/filmorate/service"
	"github.com/kasuganosora/filmorate/storage"
	"github.com/kasuganosora/filmorate/storage/memory"
	"github.com/kasuganosora/filmorate/storage/relational"
	"github.com/kasuganosora/filmorate/testutil"
	"github.com/kasuganosora/filmorate/validation"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// AdminKey is the X-Admin-Key accepted by every TestServer.
const AdminKey = "integration-admin-key"

// Modes lists the storage modes every end-to-end test runs against.
var Modes = []string{"memory", "sqlite"}

// TestServer wraps a real HTTP server with the catalogue wired together.
type TestServer struct {
	DB     *gorm.DB // nil in memory mode
	Store  storage.Store
	Cache  cache.Cache
	PubSub cache.PubSub
	Engine *aggregate.Engine
	Audit  *audit.Service
	Sched  *scheduler.Scheduler
	Server *httptest.Server
	URL    string // http://127.0.0.1:<port>
}

// NewTestServer creates a fully wired server for integration testing.
// It mirrors the dependency wiring in main.go.
func NewTestServer(t *testing.T, mode string) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// ---- Infrastructure ----
	var db *gorm.DB
	var store storage.Store
	switch mode {
	case "memory":
		store = memory.New()
	case "sqlite":
		db = testutil.SetupTestDB(t)
		store = relational.New(db)
	default:
		t.Fatalf("unknown mode %q", mode)
	}
	c, pubsub := testutil.SetupTestCache(t)
	logger := zap.NewNop()
	ctx, cancel := context.WithCancel(context.Background())

	// ---- Services ----
	auditSvc := audit.New(db, logger)
	engine := aggregate.New(store, c, pubsub, time.Minute, logger)
	require.NoError(t, engine.Start(ctx))
	opts := service.DefaultOptions()
	v := validation.New()
	filmSvc := service.NewFilmService(store, engine, v, auditSvc, opts, logger)
	userSvc := service.NewUserService(store, engine, v, auditSvc, opts, logger)

	sched := scheduler.New(logger)

	// ---- Gin HTTP Server ----
	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(ctx, rate.Limit(1000), 2000))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST routes (mirrors main.go) ----
	apirest.NewFilmHandler(filmSvc, logger).Register(r)
	apirest.NewUserHandler(userSvc, logger).Register(r)
	apirest.NewReferenceHandler(service.NewReferenceService(store), logger).Register(r)
	apirest.NewAdminHandler(engine, sched, opts.PopularDefaultCount, logger).Register(r,
		mw.IPWhitelist([]string{"127.0.0.1", "::1"}, logger),
		apirest.AdminAuth(AdminKey),
	)

	sseH := sse.NewHandler(pubsub, logger)
	r.GET("/events", sseH.ServeSSE)

	server := httptest.NewServer(r)
	ts := &TestServer{
		DB:     db,
		Store:  store,
		Cache:  c,
		PubSub: pubsub,
		Engine: engine,
		Audit:  auditSvc,
		Sched:  sched,
		Server: server,
		URL:    server.URL,
	}
	t.Cleanup(func() {
		sseH.Close()
		server.Close()
		sched.Stop()
		engine.Stop()
		auditSvc.Stop(context.Background())
		cancel()
	})
	return ts
}

// --- HTTP helpers ---

// Do sends a request with an optional JSON body and header pairs.
func (ts *TestServer) Do(t *testing.T, method, path string, body any, headers ...string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// PostJSON sends a POST request with a JSON body.
func (ts *TestServer) PostJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	return ts.Do(t, http.MethodPost, path, body)
}

// Put sends a PUT request with an optional JSON body.
func (ts *TestServer) Put(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	return ts.Do(t, http.MethodPut, path, body)
}

// Get sends a GET request.
func (ts *TestServer) Get(t *testing.T, path string) *http.Response {
	t.Helper()
	return ts.Do(t, http.MethodGet, path, nil)
}

// Delete sends a DELETE request.
func (ts *TestServer) Delete(t *testing.T, path string) *http.Response {
	t.Helper()
	return ts.Do(t, http.MethodDelete, path, nil)
}

// Expect drains resp and fails unless it carries the given status.
func Expect(t *testing.T, resp *http.Response, status int) {
	t.Helper()
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	require.Equal(t, status, resp.StatusCode, "body: %s", string(data))
}

// ReadJSON reads and decodes a JSON response body into the given target.
func ReadJSON(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target), "body: %s", string(data))
}

// --- Catalogue helpers ---

// Film is the client view of a film.
type Film struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ReleaseDate string  `json:"releaseDate"`
	Duration    int     `json:"duration"`
	Mpa         Ref     `json:"mpa"`
	Genres      []Ref   `json:"genres"`
	Likes       []int64 `json:"likes"`
	Rate        int     `json:"rate"`
}

// Ref is a genre or rating reference.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

// User is the client view of a user.
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Login    string `json:"login"`
	Name     string `json:"name"`
	Birthday string `json:"birthday"`
}

// CreateFilm posts f and returns the stored film.
func (ts *TestServer) CreateFilm(t *testing.T, f Film) Film {
	t.Helper()
	resp := ts.PostJSON(t, "/films", f)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out Film
	ReadJSON(t, resp, &out)
	return out
}

// CreateUser posts u and returns the stored user.
func (ts *TestServer) CreateUser(t *testing.T, u User) User {
	t.Helper()
	resp := ts.PostJSON(t, "/users", u)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out User
	ReadJSON(t, resp, &out)
	return out
}
