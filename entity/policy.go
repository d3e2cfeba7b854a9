package entity

import (
	"time"

	"github.com/google/uuid"
)

// Capabilities granted through the policy table. Privileged access is a
// persisted row per user, never a list compiled into the binary.
const (
	CapabilityCoverLetterBeta = "cover_letter_beta"
	CapabilityAdmin           = "admin"
)

type AccessPolicy struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	OwnerID    uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;index:idx_policy_owner_capability,unique"`
	Capability string    `json:"capability" gorm:"not null;index:idx_policy_owner_capability,unique"`
	CreatedAt  time.Time `json:"created_at"`
}

func (AccessPolicy) TableName() string {
	return "access_policies"
}
