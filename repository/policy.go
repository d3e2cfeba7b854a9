package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tnqbao/gau-docgen-orchestrator/entity"
)

// PolicyRepository looks up persisted capability grants. Privileged users
// are rows here, not lists baked into the binary.
type PolicyRepository struct {
	db *gorm.DB
}

func NewPolicyRepository(db *gorm.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

func (r *PolicyRepository) HasCapability(ctx context.Context, ownerID uuid.UUID, capability string) (bool, error) {
	var policy entity.AccessPolicy
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND capability = ?", ownerID, capability).
		First(&policy).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *PolicyRepository) Grant(ctx context.Context, ownerID uuid.UUID, capability string) error {
	return r.db.WithContext(ctx).Create(&entity.AccessPolicy{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Capability: capability,
	}).Error
}

func (r *PolicyRepository) Revoke(ctx context.Context, ownerID uuid.UUID, capability string) error {
	return r.db.WithContext(ctx).
		Delete(&entity.AccessPolicy{}, "owner_id = ? AND capability = ?", ownerID, capability).Error
}
