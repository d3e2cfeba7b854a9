package repository

import (
	"github.com/tnqbao/gau-docgen-orchestrator/infra"
)

type Repository struct {
	JobRepo    *JobRepository
	AuditRepo  *AuditRepository
	PolicyRepo *PolicyRepository
}

var repositoryInstance *Repository

func InitRepository(infra *infra.Infra) *Repository {
	if repositoryInstance != nil {
		return repositoryInstance
	}

	db := infra.Postgres.DB

	repositoryInstance = &Repository{
		JobRepo:    NewJobRepository(db),
		AuditRepo:  NewAuditRepository(db),
		PolicyRepo: NewPolicyRepository(db),
	}

	return repositoryInstance
}
