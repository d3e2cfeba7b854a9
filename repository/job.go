package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tnqbao/gau-docgen-orchestrator/entity"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.GenerationJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.GenerationJob, error) {
	var job entity.GenerationJob
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entity.ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (r *JobRepository) FindByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*entity.GenerationJob, error) {
	var job entity.GenerationJob
	err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entity.ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (r *JobRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.GenerationJob, error) {
	var jobs []entity.GenerationJob
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// TransitionStatus applies a guarded status transition: the update only
// lands when the row still holds fromStatus, which serializes concurrent
// writers (late duplicate callbacks, the timeout sweep) on the row itself.
// Returns false when the guard did not match.
func (r *JobRepository) TransitionStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus string, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = toStatus
	updates["callback_attempts"] = gorm.Expr("callback_attempts + 1")
	updates["last_attempt_at"] = time.Now()

	result := r.db.WithContext(ctx).
		Model(&entity.GenerationJob{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// IncrementCallbackAttempts bumps the attempt counter without touching any
// other field. Used when a callback for a terminal job is accepted as a
// no-op.
func (r *JobRepository) IncrementCallbackAttempts(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&entity.GenerationJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"callback_attempts": gorm.Expr("callback_attempts + 1"),
			"last_attempt_at":   time.Now(),
		}).Error
}

// FindStaleProcessing returns jobs stuck in PROCESSING whose last attempt
// is older than the cutoff. Candidates for the timeout sweep.
func (r *JobRepository) FindStaleProcessing(ctx context.Context, cutoff time.Time) ([]entity.GenerationJob, error) {
	var jobs []entity.GenerationJob
	err := r.db.WithContext(ctx).
		Where("status = ? AND last_attempt_at IS NOT NULL AND last_attempt_at < ?", entity.JobStatusProcessing, cutoff).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *JobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.GenerationJob{}, "id = ?", id).Error
}
