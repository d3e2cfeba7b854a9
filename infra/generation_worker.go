package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tnqbao/gau-docgen-orchestrator/config"
	"github.com/tnqbao/gau-docgen-orchestrator/entity"
)

// SubmitGenerationRequest is the payload posted to the external generation
// worker. The worker reports the outcome later via the callback URL.
type SubmitGenerationRequest struct {
	JobID             uuid.UUID `json:"job_id"`
	OwnerID           uuid.UUID `json:"owner_id"`
	Kind              string    `json:"kind"`
	SourceArtifactURL string    `json:"source_artifact_url"`
	TargetURL         string    `json:"target_url"`
	CallbackURL       string    `json:"callback_url"`
}

type GenerationWorkerClient struct {
	WorkerURL   string
	CallbackURL string
	PrivateKey  string

	httpClient *http.Client
}

func InitGenerationWorkerClient(cfg *config.EnvConfig) *GenerationWorkerClient {
	url := cfg.GenerationWorker.URL
	if url == "" {
		panic("Generation worker URL is not configured")
	}

	if cfg.PrivateKey == "" {
		panic("Private key is not configured")
	}

	return &GenerationWorkerClient{
		WorkerURL:   url,
		CallbackURL: cfg.GenerationWorker.CallbackURL,
		PrivateKey:  cfg.PrivateKey,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// SubmitGeneration posts one generation request. A non-2xx response is
// returned as *entity.WorkerError with the response body attached so the
// caller can persist it as the job's last_error.
func (s *GenerationWorkerClient) SubmitGeneration(ctx context.Context, request SubmitGenerationRequest) error {
	url := fmt.Sprintf("%s/api/v1/generate", s.WorkerURL)

	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Private-Key", s.PrivateKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &entity.WorkerError{
			StatusCode: resp.StatusCode,
			Body:       string(raw),
		}
	}

	return nil
}
