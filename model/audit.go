package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records one mutating catalogue operation.
type AuditLog struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TraceID    string         `gorm:"index:idx_audit_trace;size:36" json:"trace_id"`
	Action     string         `gorm:"size:64;not null" json:"action"`
	FilmID     *int64         `gorm:"index:idx_audit_film" json:"film_id"`
	UserID     *int64         `gorm:"index:idx_audit_user" json:"user_id"`
	TargetID   *int64         `json:"target_id"`
	Payload    datatypes.JSON `json:"payload"`
	Error      string         `gorm:"type:text" json:"error"`
	DurationMs int            `json:"duration_ms"`
	CreatedAt  time.Time      `gorm:"index:idx_audit_created;autoCreateTime:milli" json:"created_at"`
}
