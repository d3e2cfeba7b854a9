package entity

import (
	"time"

	"github.com/google/uuid"
)

// Audit event types for the generation job trail.
const (
	AuditEventDuplicateCallback = "duplicate_callback"
	AuditEventEarlyCallback     = "early_callback"
	AuditEventSweepTimeout      = "sweep_timeout"
)

// JobAuditEvent is an append-only record of noteworthy job events that do
// not mutate the job row itself, such as callbacks accepted as no-ops.
type JobAuditEvent struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	JobID     uuid.UUID `json:"job_id" gorm:"type:uuid;not null;index"`
	Event     string    `json:"event" gorm:"not null"`
	Detail    string    `json:"detail" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

func (JobAuditEvent) TableName() string {
	return "job_audit_events"
}
