package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tnqbao/gau-docgen-orchestrator/config"
	"github.com/tnqbao/gau-docgen-orchestrator/consumer/worker"
	infraPkg "github.com/tnqbao/gau-docgen-orchestrator/infra"
	"github.com/tnqbao/gau-docgen-orchestrator/locator"
	"github.com/tnqbao/gau-docgen-orchestrator/notify"
	"github.com/tnqbao/gau-docgen-orchestrator/repository"
	"github.com/tnqbao/gau-docgen-orchestrator/service"
	"github.com/tnqbao/gau-docgen-orchestrator/transfer"
)

func main() {
	err := godotenv.Load("../staging.env")
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := config.NewConfig()
	infra := infraPkg.InitInfra(cfg)
	repo := repository.InitRepository(infra)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine := transfer.NewEngine(infra.Minio, locator.NewLocator(infra.Minio))
	publisher := notify.NewPublisher(infra.Redis.Client)
	svc := service.NewJobService(
		cfg.EnvConfig,
		repo,
		infra.GenerationWorker,
		infra.Produce.JobService,
		publisher,
		infra.Minio,
		engine,
		infra.Logger,
	)

	submitConsumer := worker.NewSubmitConsumer(infra.RabbitMQ.Channel, infra, svc)
	if err := submitConsumer.Start(ctx); err != nil {
		infra.Logger.ErrorWithContextf(ctx, err, "Failed to start Submit consumer: %v", err)
		log.Fatalf("Failed to start Submit consumer: %v", err)
	}

	sweepWorker := worker.NewSweepWorker(infra, svc, cfg.EnvConfig.Docgen.SweepInterval)
	if err := sweepWorker.Start(ctx); err != nil {
		infra.Logger.ErrorWithContextf(ctx, err, "Failed to start Sweep worker: %v", err)
		log.Fatalf("Failed to start Sweep worker: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down consumers...")
	cancel()
}
