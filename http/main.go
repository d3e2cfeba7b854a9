package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tnqbao/gau-docgen-orchestrator/config"
	"github.com/tnqbao/gau-docgen-orchestrator/http/controller"
	routes "github.com/tnqbao/gau-docgen-orchestrator/http/route"
	infraPkg "github.com/tnqbao/gau-docgen-orchestrator/infra"
	"github.com/tnqbao/gau-docgen-orchestrator/repository"
)

func main() {
	err := godotenv.Load("staging.env")
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := config.NewConfig()
	infra := infraPkg.InitInfra(cfg)
	repo := repository.InitRepository(infra)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := infra.Minio.EnsureBucket(ctx, cfg.EnvConfig.Docgen.Bucket); err != nil {
		log.Fatalf("Failed to ensure bucket %s: %v", cfg.EnvConfig.Docgen.Bucket, err)
	}

	ctrl := controller.NewController(cfg, infra, repo)
	router := routes.SetupRouter(ctrl)

	server := &http.Server{
		Addr:    ":8080",
		Handler: router,
	}

	go func() {
		log.Println("HTTP Server started on :8080")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
}
