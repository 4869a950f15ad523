// Package audit records mutating catalogue operations asynchronously in
// batches. With a database the batch goes to the audit_logs table; without
// one it is written to the logger.
package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/kasuganosora/filmorate/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	batchSize     = 100
	flushInterval = 2 * time.Second
)

// Entry holds one audit event to be logged.
type Entry struct {
	TraceID  string
	Action   string
	FilmID   *int64
	UserID   *int64
	TargetID *int64
	Payload  any
	Err      error
	Duration time.Duration
}

// Service logs audit entries asynchronously in batches.
type Service struct {
	db       *gorm.DB
	ch       chan *model.AuditLog
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	logger   *zap.Logger
}

// New creates a new audit Service and starts its background worker.
// db may be nil, in which case batches are logged instead of stored.
func New(db *gorm.DB, logger *zap.Logger) *Service {
	svc := &Service{
		db:     db,
		ch:     make(chan *model.AuditLog, 1024),
		stopCh: make(chan struct{}),
		logger: logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// Log enqueues an audit entry. It never blocks; a full queue drops the entry.
func (svc *Service) Log(entry Entry) {
	record := &model.AuditLog{
		TraceID:    entry.TraceID,
		Action:     entry.Action,
		FilmID:     entry.FilmID,
		UserID:     entry.UserID,
		TargetID:   entry.TargetID,
		DurationMs: int(entry.Duration.Milliseconds()),
	}
	if entry.Payload != nil {
		if b, err := json.Marshal(entry.Payload); err == nil {
			record.Payload = datatypes.JSON(b)
		}
	}
	if entry.Err != nil {
		record.Error = entry.Err.Error()
	}
	select {
	case svc.ch <- record:
	default:
		svc.logger.Warn("audit channel full, dropping entry",
			zap.String("action", entry.Action))
	}
}

// Stop flushes remaining entries and shuts down the worker.
// It blocks until the worker goroutine has finished or ctx is done.
func (svc *Service) Stop(ctx context.Context) {
	svc.stopOnce.Do(func() { close(svc.stopCh) })
	done := make(chan struct{})
	go func() {
		svc.wg.Wait()
		close(done)
	}()
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-done:
	case <-ctx.Done():
		svc.logger.Warn("audit stop timed out before flush completed")
	}
}

func (svc *Service) write(batch []*model.AuditLog) {
	if svc.db == nil {
		for _, r := range batch {
			svc.logger.Info("audit",
				zap.String("action", r.Action),
				zap.String("trace_id", r.TraceID),
				zap.Int64p("film_id", r.FilmID),
				zap.Int64p("user_id", r.UserID),
				zap.Int64p("target_id", r.TargetID),
				zap.String("error", r.Error),
				zap.Int("duration_ms", r.DurationMs),
			)
		}
		return
	}
	if err := svc.db.Create(&batch).Error; err != nil {
		svc.logger.Error("audit batch write failed", zap.Error(err), zap.Int("size", len(batch)))
	}
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]*model.AuditLog, 0, batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		svc.write(batch)
		batch = make([]*model.AuditLog, 0, batchSize)
	}

	for {
		select {
		case entry := <-svc.ch:
			batch = append(batch, entry)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			// Drain remaining entries.
			for {
				select {
				case entry := <-svc.ch:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}
