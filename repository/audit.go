package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tnqbao/gau-docgen-orchestrator/entity"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Record(ctx context.Context, jobID uuid.UUID, event, detail string) error {
	return r.db.WithContext(ctx).Create(&entity.JobAuditEvent{
		ID:     uuid.New(),
		JobID:  jobID,
		Event:  event,
		Detail: detail,
	}).Error
}

func (r *AuditRepository) FindByJobID(ctx context.Context, jobID uuid.UUID) ([]entity.JobAuditEvent, error) {
	var events []entity.JobAuditEvent
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
