package integration

import (
	"bufio"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/kasuganosora/filmorate/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOps_HealthAndTraceID(t *testing.T) {
	ts := NewTestServer(t, "memory")

	resp := ts.Get(t, "/health")
	var body map[string]string
	ReadJSON(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))

	resp = ts.Do(t, http.MethodGet, "/health", nil, "X-Trace-ID", "trace-abc")
	Expect(t, resp, http.StatusOK)
	assert.Equal(t, "trace-abc", resp.Header.Get("X-Trace-ID"))
}

func TestOps_AdminRefreshAndScheduler(t *testing.T) {
	ts := NewTestServer(t, "memory")
	ts.CreateFilm(t, nisi())

	Expect(t, ts.Do(t, http.MethodPost, "/admin/popular/refresh", nil), http.StatusUnauthorized)

	resp := ts.Do(t, http.MethodPost, "/admin/popular/refresh?count=3", nil, "X-Admin-Key", AdminKey)
	var out map[string]any
	ReadJSON(t, resp, &out)
	assert.Equal(t, true, out["refreshed"])

	ts.Sched.AddTicker("popular_warmup", time.Hour, func(ctx context.Context) error {
		_, err := ts.Engine.Refresh(ctx, 10)
		return err
	})
	var status struct {
		Tasks []struct {
			Name string `json:"name"`
		} `json:"tasks"`
	}
	ReadJSON(t, ts.Do(t, http.MethodGet, "/admin/scheduler", nil, "X-Admin-Key", AdminKey), &status)
	require.Len(t, status.Tasks, 1)
	assert.Equal(t, "popular_warmup", status.Tasks[0].Name)
}

func TestOps_AuditTrailStored(t *testing.T) {
	ts := NewTestServer(t, "sqlite")
	f := ts.CreateFilm(t, nisi())
	Expect(t, ts.PostJSON(t, "/films", nisi()), http.StatusConflict)

	ts.Audit.Stop(context.Background())

	var rows []model.AuditLog
	require.NoError(t, ts.DB.Order("id").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, "createFilm", rows[0].Action)
	require.NotNil(t, rows[0].FilmID)
	assert.Equal(t, f.ID, *rows[0].FilmID)
	assert.Empty(t, rows[0].Error)
	assert.NotEmpty(t, rows[0].TraceID)
	assert.NotEmpty(t, rows[1].Error)
}

func TestOps_EventStream(t *testing.T) {
	ts := NewTestServer(t, "memory")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	next := func() string {
		for sc.Scan() {
			if line := sc.Text(); strings.HasPrefix(line, "data: ") {
				return strings.TrimPrefix(line, "data: ")
			}
		}
		t.Fatal("event stream closed")
		return ""
	}
	assert.Equal(t, "{}", next())

	ts.CreateFilm(t, nisi())
	assert.JSONEq(t, `{"action":"createFilm","filmId":1}`, next())
}
