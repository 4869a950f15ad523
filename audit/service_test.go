package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kasuganosora/filmorate/model"
	"github.com/kasuganosora/filmorate/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func nop() *zap.Logger { return zap.NewNop() }

func id(v int64) *int64 { return &v }

func TestNew_StartsWorker(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())
	require.NotNil(t, svc)
	svc.Stop(context.Background())
}

func TestLog_EnqueuedAndFlushed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())

	svc.Log(Entry{
		TraceID:  "trace-123",
		Action:   "addLike",
		FilmID:   id(7),
		UserID:   id(3),
		Payload:  map[string]int64{"film_id": 7, "user_id": 3},
		Duration: 42 * time.Millisecond,
	})

	// Stop flushes remaining entries
	svc.Stop(context.Background())

	var logs []model.AuditLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "trace-123", logs[0].TraceID)
	assert.Equal(t, "addLike", logs[0].Action)
	require.NotNil(t, logs[0].FilmID)
	assert.Equal(t, int64(7), *logs[0].FilmID)
	assert.Nil(t, logs[0].TargetID)
	assert.JSONEq(t, `{"film_id":7,"user_id":3}`, string(logs[0].Payload))
	assert.Equal(t, 42, logs[0].DurationMs)
	assert.Empty(t, logs[0].Error)
}

func TestLog_RecordsError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())

	svc.Log(Entry{Action: "addFriend", UserID: id(1), TargetID: id(1), Err: errors.New("self friend")})
	svc.Stop(context.Background())

	var log model.AuditLog
	require.NoError(t, db.First(&log).Error)
	assert.Equal(t, "self friend", log.Error)
}

func TestLog_MultipleLogs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())

	for i := 0; i < 150; i++ {
		svc.Log(Entry{Action: "createUser", UserID: id(int64(i + 1))})
	}
	svc.Stop(context.Background())

	var count int64
	require.NoError(t, db.Model(&model.AuditLog{}).Count(&count).Error)
	assert.Equal(t, int64(150), count)
}

func TestLog_WithoutDatabaseWritesLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc := New(nil, zap.New(core))

	svc.Log(Entry{Action: "createFilm", FilmID: id(9)})
	svc.Stop(context.Background())

	entries := logs.FilterMessage("audit").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "createFilm", entries[0].ContextMap()["action"])
	assert.Equal(t, int64(9), entries[0].ContextMap()["film_id"])
}

func TestStop_Idempotent(t *testing.T) {
	svc := New(nil, nop())
	svc.Stop(context.Background())
	assert.NotPanics(t, func() { svc.Stop(context.Background()) })
}
