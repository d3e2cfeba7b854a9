package dto

import "github.com/google/uuid"

type CreateJobRequestDTO struct {
	Kind      string `form:"kind" binding:"required,oneof=resume cover_letter"`
	TargetURL string `form:"target_url" binding:"required"`
}

type GenerationCallbackDTO struct {
	JobID      uuid.UUID `json:"job_id" binding:"required"`
	Success    bool      `json:"success"`
	ResultPath string    `json:"result_path"`
	Message    string    `json:"message"`
}

type GrantCapabilityRequestDTO struct {
	OwnerID    uuid.UUID `json:"owner_id" binding:"required"`
	Capability string    `json:"capability" binding:"required"`
}
