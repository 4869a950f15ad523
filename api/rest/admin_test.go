package rest

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminGet(s *testServer, path string) int {
	return doJSON(s.router, http.MethodGet, path, nil, "X-Admin-Key", testAdminKey).Code
}

func TestAdminAuth_RejectsMissingKey(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(s.router, http.MethodGet, "/admin/scheduler", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(s.router, http.MethodGet, "/admin/scheduler", nil, "X-Admin-Key", "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminAuth_EmptyKeyDisables(t *testing.T) {
	s := newTestServer(t)
	g := s.router.Group("/locked", AdminAuth(""))
	g.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := doJSON(s.router, http.MethodGet, "/locked/ping", nil, "X-Admin-Key", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAdmin_RefreshPopular(t *testing.T) {
	s := newTestServer(t)
	f := s.createFilm(t, "Leon")

	w := doJSON(s.router, http.MethodPost, "/admin/popular/refresh?count=5", nil, "X-Admin-Key", testAdminKey)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	assert.Equal(t, true, body["refreshed"])
	assert.Equal(t, float64(5), body["count"])

	ids, err := s.engine.PopularIDs(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{f.ID}, ids)
}

func TestAdmin_RefreshPopularBadCount(t *testing.T) {
	s := newTestServer(t)
	for _, q := range []string{"0", "abc"} {
		w := doJSON(s.router, http.MethodPost, "/admin/popular/refresh?count="+q, nil, "X-Admin-Key", testAdminKey)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestAdmin_SchedulerStatus(t *testing.T) {
	s := newTestServer(t)
	s.sched.AddTicker("popular-warmup", time.Hour, func(ctx context.Context) error { return nil })

	w := doJSON(s.router, http.MethodGet, "/admin/scheduler", nil, "X-Admin-Key", testAdminKey)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string][]map[string]any](t, w)
	require.Len(t, body["tasks"], 1)
	assert.Equal(t, "popular-warmup", body["tasks"][0]["name"])
	assert.Equal(t, http.StatusOK, adminGet(s, "/admin/scheduler"))
}
