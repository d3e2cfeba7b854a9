package controller

import (
	"github.com/tnqbao/gau-docgen-orchestrator/config"
	"github.com/tnqbao/gau-docgen-orchestrator/infra"
	"github.com/tnqbao/gau-docgen-orchestrator/locator"
	"github.com/tnqbao/gau-docgen-orchestrator/notify"
	"github.com/tnqbao/gau-docgen-orchestrator/repository"
	"github.com/tnqbao/gau-docgen-orchestrator/service"
	"github.com/tnqbao/gau-docgen-orchestrator/transfer"
)

type Controller struct {
	Config     *config.Config
	Infra      *infra.Infra
	Repository *repository.Repository
	Service    *service.JobService
	Propagator *notify.Propagator
}

func NewController(config *config.Config, infraClient *infra.Infra, repo *repository.Repository) *Controller {
	if repo == nil {
		panic("Failed to initialize Repository")
	}

	engine := transfer.NewEngine(infraClient.Minio, locator.NewLocator(infraClient.Minio))
	publisher := notify.NewPublisher(infraClient.Redis.Client)
	propagator := notify.NewPropagator(
		notify.NewRedisEventSource(infraClient.Redis.Client),
		infraClient.Logger,
		0,
	)

	svc := service.NewJobService(
		config.EnvConfig,
		repo,
		infraClient.GenerationWorker,
		infraClient.Produce.JobService,
		publisher,
		infraClient.Minio,
		engine,
		infraClient.Logger,
	)

	return &Controller{
		Config:     config,
		Infra:      infraClient,
		Repository: repo,
		Service:    svc,
		Propagator: propagator,
	}
}
