// Package service is the public operation surface of the catalogue. It
// validates input, enforces reference integrity and the natural-key policy,
// runs the friendship state machine inside store transactions, and keeps the
// popular-films cache and audit trail informed of every mutation.
package service

import (
	"context"
	"time"

	"github.com/kasuganosora/filmorate/apperr"
	"github.com/kasuganosora/filmorate/audit"
	"github.com/kasuganosora/filmorate/validation"
	"go.uber.org/zap"
)

// Auditor receives one entry per mutating call. *audit.Service implements it.
type Auditor interface {
	Log(entry audit.Entry)
}

// Options are the catalogue policies read from configuration.
type Options struct {
	// RejectDuplicates enables natural-key duplicate detection.
	RejectDuplicates bool
	// PopularDefaultCount is used when a popular query omits the count.
	PopularDefaultCount int
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{RejectDuplicates: true, PopularDefaultCount: 10}
}

type nopAuditor struct{}

func (nopAuditor) Log(audit.Entry) {}

type base struct {
	validator *validation.Validator
	auditor   Auditor
	opts      Options
	logger    *zap.Logger
}

func newBase(v *validation.Validator, a Auditor, opts Options, logger *zap.Logger) base {
	if v == nil {
		v = validation.New()
	}
	if a == nil {
		a = nopAuditor{}
	}
	if opts.PopularDefaultCount <= 0 {
		opts.PopularDefaultCount = DefaultOptions().PopularDefaultCount
	}
	return base{validator: v, auditor: a, opts: opts, logger: logger}
}

func ptr(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

// record sends an audit entry and logs the outcome. Rejections caused by
// caller input log at Debug; infrastructure failures at Error.
func (b *base) record(ctx context.Context, start time.Time, action string, filmID, userID, targetID int64, payload any, err error) {
	b.auditor.Log(audit.Entry{
		TraceID:  audit.TraceID(ctx),
		Action:   action,
		FilmID:   ptr(filmID),
		UserID:   ptr(userID),
		TargetID: ptr(targetID),
		Payload:  payload,
		Err:      err,
		Duration: time.Since(start),
	})
	fields := []zap.Field{zap.String("action", action)}
	if filmID != 0 {
		fields = append(fields, zap.Int64("film_id", filmID))
	}
	if userID != 0 {
		fields = append(fields, zap.Int64("user_id", userID))
	}
	if targetID != 0 {
		fields = append(fields, zap.Int64("target_id", targetID))
	}
	switch {
	case err == nil:
		b.logger.Info("catalogue mutation", fields...)
	case apperr.IsDomain(err):
		b.logger.Debug("catalogue mutation rejected", append(fields, zap.Error(err))...)
	default:
		b.logger.Error("catalogue mutation failed", append(fields, zap.Error(err))...)
	}
}
