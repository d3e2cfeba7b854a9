package worker

import (
	"context"
	"time"

	"github.com/tnqbao/gau-docgen-orchestrator/infra"
	"github.com/tnqbao/gau-docgen-orchestrator/service"
)

// SweepWorker periodically fails PROCESSING jobs whose worker never called
// back. Without it an abandoned job would sit PROCESSING forever.
type SweepWorker struct {
	infra    *infra.Infra
	service  *service.JobService
	interval time.Duration
}

func NewSweepWorker(infra *infra.Infra, svc *service.JobService, interval time.Duration) *SweepWorker {
	return &SweepWorker{
		infra:    infra,
		service:  svc,
		interval: interval,
	}
}

func (w *SweepWorker) Start(ctx context.Context) error {
	w.infra.Logger.InfoWithContextf(ctx, "[Sweep Worker] Started with interval %s", w.interval)

	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				w.infra.Logger.InfoWithContextf(ctx, "[Sweep Worker] Shutting down...")
				return
			case <-ticker.C:
				swept, err := w.service.SweepStale(ctx)
				if err != nil {
					w.infra.Logger.ErrorWithContextf(ctx, err, "[Sweep Worker] Sweep failed")
					continue
				}
				if swept > 0 {
					w.infra.Logger.InfoWithContextf(ctx, "[Sweep Worker] Failed %d stale jobs", swept)
				}
			}
		}
	}()

	return nil
}
