package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Job kinds. Resume and cover-letter jobs are structurally identical and
// share one table; Kind is the discriminator.
const (
	JobKindResume      = "resume"
	JobKindCoverLetter = "cover_letter"
)

// Job statuses. Transitions are monotonic along
// PENDING -> PROCESSING -> {COMPLETED, FAILED}; COMPLETED and FAILED are
// terminal. A retried generation is a new row, never a mutated terminal one.
const (
	JobStatusPending    = "PENDING"
	JobStatusProcessing = "PROCESSING"
	JobStatusCompleted  = "COMPLETED"
	JobStatusFailed     = "FAILED"
)

type GenerationJob struct {
	ID               uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Kind             string         `json:"kind" binding:"required,oneof=resume cover_letter" gorm:"not null;index"`
	OwnerID          uuid.UUID      `json:"owner_id" gorm:"type:uuid;not null;index"`
	SourcePath       string         `json:"source_path" gorm:"not null"`
	TargetURL        string         `json:"target_url" gorm:"not null"`
	ResultPath       *string        `json:"result_path,omitempty"`
	Status           string         `json:"status" gorm:"not null;index"`
	CallbackAttempts int            `json:"callback_attempts" gorm:"not null;default:0"`
	LastAttemptAt    *time.Time     `json:"last_attempt_at,omitempty"`
	LastError        datatypes.JSON `json:"last_error,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (GenerationJob) TableName() string {
	return "generation_jobs"
}

// IsTerminal reports whether no further status transitions are permitted.
func (j *GenerationJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
