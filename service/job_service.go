package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/tnqbao/gau-docgen-orchestrator/config"
	"github.com/tnqbao/gau-docgen-orchestrator/entity"
	"github.com/tnqbao/gau-docgen-orchestrator/infra"
	"github.com/tnqbao/gau-docgen-orchestrator/notify"
	"github.com/tnqbao/gau-docgen-orchestrator/repository"
	"github.com/tnqbao/gau-docgen-orchestrator/transfer"
	"github.com/tnqbao/gau-docgen-orchestrator/utils"
)

// WorkerClient submits generation requests to the external worker.
type WorkerClient interface {
	SubmitGeneration(ctx context.Context, request infra.SubmitGenerationRequest) error
}

// Dispatcher hands a freshly created job to the submit queue.
type Dispatcher interface {
	PublishSubmitJob(ctx context.Context, jobID uuid.UUID) error
}

// ChangePublisher fans job-row changes out to subscribed owners.
type ChangePublisher interface {
	PublishChange(ctx context.Context, event notify.ChangeEvent) error
}

// BlobRemover deletes stored artifacts when a job is removed.
type BlobRemover interface {
	RemovePaths(ctx context.Context, bucket string, paths []string) error
}

// JobService owns the job lifecycle: creation, submission, the callback
// state machine, the timeout sweep, and result delivery. Every status
// transition goes through the repository's guarded update so concurrent
// writers serialize on the row.
type JobService struct {
	cfg      *config.EnvConfig
	jobs     *repository.JobRepository
	audit    *repository.AuditRepository
	policies *repository.PolicyRepository
	worker   WorkerClient
	queue    Dispatcher
	changes  ChangePublisher
	blobs    BlobRemover
	engine   *transfer.Engine
	logger   *infra.LoggerClient
}

func NewJobService(
	cfg *config.EnvConfig,
	repo *repository.Repository,
	worker WorkerClient,
	queue Dispatcher,
	changes ChangePublisher,
	blobs BlobRemover,
	engine *transfer.Engine,
	logger *infra.LoggerClient,
) *JobService {
	return &JobService{
		cfg:      cfg,
		jobs:     repo.JobRepo,
		audit:    repo.AuditRepo,
		policies: repo.PolicyRepo,
		worker:   worker,
		queue:    queue,
		changes:  changes,
		blobs:    blobs,
		engine:   engine,
		logger:   logger,
	}
}

// CreateJobInput carries everything needed to open a new generation job.
type CreateJobInput struct {
	Kind      string
	OwnerID   uuid.UUID
	FileName  string
	TargetURL string
	Data      []byte
}

// CreateJob validates the request, checks the owner's policy for gated
// kinds, uploads the source artifact, inserts the job as PENDING and hands
// it to the submit queue. The insert change event fires before the queue
// publish so subscribers see the row as soon as it exists.
func (s *JobService) CreateJob(ctx context.Context, in CreateJobInput) (*entity.GenerationJob, error) {
	if in.Kind != entity.JobKindResume && in.Kind != entity.JobKindCoverLetter {
		return nil, &entity.ValidationError{Field: "kind", Reason: "must be resume or cover_letter"}
	}
	if strings.TrimSpace(in.FileName) == "" {
		return nil, &entity.ValidationError{Field: "file_name", Reason: "must not be empty"}
	}
	contentType := utils.ContentTypeForExtension(in.FileName)
	if contentType == "" {
		return nil, &entity.ValidationError{Field: "file_name", Reason: "unsupported document extension"}
	}
	if err := validateTargetURL(in.TargetURL); err != nil {
		return nil, err
	}
	if len(in.Data) == 0 {
		return nil, &entity.ValidationError{Field: "file", Reason: "must not be empty"}
	}
	if int64(len(in.Data)) > s.cfg.Docgen.MaxUploadBytes {
		return nil, &entity.ValidationError{Field: "file", Reason: fmt.Sprintf("exceeds %d bytes", s.cfg.Docgen.MaxUploadBytes)}
	}

	if in.Kind == entity.JobKindCoverLetter {
		if err := s.requireCapability(ctx, in.OwnerID, entity.CapabilityCoverLetterBeta); err != nil {
			return nil, err
		}
	}

	jobID := uuid.New()
	sourcePath := fmt.Sprintf("%s/%s/%s", in.OwnerID, jobID, utils.NormalizeArtifactPath(in.FileName))

	err := s.engine.Upload(ctx, s.cfg.Docgen.Bucket, sourcePath, in.Data, transfer.Options{
		MaxAttempts: s.cfg.Docgen.TransferAttempts,
		BaseDelay:   s.cfg.Docgen.TransferBaseDelay,
	})
	if err != nil {
		return nil, err
	}

	job := &entity.GenerationJob{
		ID:         jobID,
		Kind:       in.Kind,
		OwnerID:    in.OwnerID,
		SourcePath: sourcePath,
		TargetURL:  in.TargetURL,
		Status:     entity.JobStatusPending,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	s.publishChange(ctx, job, notify.ChangeInsert)

	if err := s.queue.PublishSubmitJob(ctx, job.ID); err != nil {
		// The row exists but nothing will pick it up, so fail it now
		// rather than leave it PENDING forever.
		s.failJob(ctx, job, entity.JobStatusPending, err)
		return nil, fmt.Errorf("failed to dispatch job: %w", err)
	}

	return job, nil
}

// Submit performs the external worker hand-off for one queued job. Safe
// under redelivery: any status other than PENDING means a previous
// delivery already ran and the message is dropped.
func (s *JobService) Submit(ctx context.Context, jobID uuid.UUID) error {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status != entity.JobStatusPending {
		s.logger.InfoWithContextf(ctx, "[JobService] Job %s already %s, skipping submit", job.ID, job.Status)
		return nil
	}

	request := infra.SubmitGenerationRequest{
		JobID:             job.ID,
		OwnerID:           job.OwnerID,
		Kind:              job.Kind,
		SourceArtifactURL: job.SourcePath,
		TargetURL:         job.TargetURL,
		CallbackURL:       s.cfg.GenerationWorker.CallbackURL,
	}

	if err := s.worker.SubmitGeneration(ctx, request); err != nil {
		s.logger.ErrorWithContextf(ctx, err, "[JobService] Worker rejected job %s", job.ID)
		s.failJob(ctx, job, entity.JobStatusPending, err)
		return err
	}

	ok, err := s.jobs.TransitionStatus(ctx, job.ID, entity.JobStatusPending, entity.JobStatusProcessing, nil)
	if err != nil {
		return err
	}
	if ok {
		job.Status = entity.JobStatusProcessing
		s.publishChange(ctx, job, notify.ChangeUpdate)
	}
	return nil
}

// CallbackInput is the worker's completion report for one job.
type CallbackInput struct {
	JobID      uuid.UUID
	Success    bool
	ResultPath string
	Message    string
}

// HandleCallback drives the terminal transition of the state machine.
// Exactly one callback wins; every later one for the same job bumps the
// attempt counter, leaves an audit row and changes nothing else, so
// subscribers never see a second terminal event. A callback that beats the
// submission hand-off is rejected with ErrCallbackBeforeSubmission and the
// worker retries it.
func (s *JobService) HandleCallback(ctx context.Context, in CallbackInput) error {
	job, err := s.jobs.FindByID(ctx, in.JobID)
	if err != nil {
		return err
	}

	switch {
	case job.IsTerminal():
		return s.recordDuplicateCallback(ctx, job, in)
	case job.Status == entity.JobStatusPending:
		if err := s.audit.Record(ctx, job.ID, entity.AuditEventEarlyCallback, in.Message); err != nil {
			s.logger.WarningWithContextf(ctx, "[JobService] Failed to record early callback for %s: %v", job.ID, err)
		}
		return entity.ErrCallbackBeforeSubmission
	}

	toStatus := entity.JobStatusFailed
	updates := map[string]interface{}{}
	if in.Success {
		if strings.TrimSpace(in.ResultPath) == "" {
			return &entity.ValidationError{Field: "result_path", Reason: "required on success"}
		}
		toStatus = entity.JobStatusCompleted
		updates["result_path"] = in.ResultPath
	} else {
		updates["last_error"] = encodeLastError(errors.New(in.Message))
	}

	ok, err := s.jobs.TransitionStatus(ctx, job.ID, entity.JobStatusProcessing, toStatus, updates)
	if err != nil {
		return err
	}
	if !ok {
		// Lost the race on the row. Reload to see who won.
		current, err := s.jobs.FindByID(ctx, in.JobID)
		if err != nil {
			return err
		}
		if current.IsTerminal() {
			return s.recordDuplicateCallback(ctx, current, in)
		}
		return entity.ErrCallbackBeforeSubmission
	}

	job.Status = toStatus
	s.publishChange(ctx, job, notify.ChangeUpdate)
	return nil
}

// SweepStale fails every PROCESSING job whose last activity predates the
// staleness window. The guarded transition makes the sweep safe against a
// callback landing mid-sweep. Returns the number of jobs failed.
func (s *JobService) SweepStale(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.cfg.Docgen.StalenessWindow)
	stale, err := s.jobs.FindStaleProcessing(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	swept := 0
	for i := range stale {
		job := &stale[i]
		staleErr := &entity.StaleJobError{Window: s.cfg.Docgen.StalenessWindow.String()}

		ok, err := s.jobs.TransitionStatus(ctx, job.ID, entity.JobStatusProcessing, entity.JobStatusFailed, map[string]interface{}{
			"last_error": encodeLastError(staleErr),
		})
		if err != nil {
			return swept, err
		}
		if !ok {
			continue
		}

		swept++
		if err := s.audit.Record(ctx, job.ID, entity.AuditEventSweepTimeout, staleErr.Error()); err != nil {
			s.logger.WarningWithContextf(ctx, "[JobService] Failed to record sweep audit for %s: %v", job.ID, err)
		}
		job.Status = entity.JobStatusFailed
		s.publishChange(ctx, job, notify.ChangeUpdate)
	}

	return swept, nil
}

// GetJob returns one job scoped to its owner.
func (s *JobService) GetJob(ctx context.Context, ownerID, jobID uuid.UUID) (*entity.GenerationJob, error) {
	return s.jobs.FindByIDAndOwner(ctx, jobID, ownerID)
}

// ListJobs returns the owner's jobs, newest first.
func (s *JobService) ListJobs(ctx context.Context, ownerID uuid.UUID) ([]entity.GenerationJob, error) {
	return s.jobs.FindByOwner(ctx, ownerID)
}

// DownloadResult streams the completed job's artifact into dst through the
// retrying transfer engine. opts.OnProgress and opts.OnError pass through
// untouched.
func (s *JobService) DownloadResult(ctx context.Context, job *entity.GenerationJob, dst io.Writer, opts transfer.Options) error {
	if job.Status != entity.JobStatusCompleted {
		return entity.ErrResultNotReady
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = s.cfg.Docgen.TransferAttempts
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = s.cfg.Docgen.TransferBaseDelay
	}
	return s.engine.Download(ctx, s.cfg.Docgen.Bucket, job, dst, opts)
}

// DeleteJob removes the job row and its stored artifacts. Blob removal is
// best effort: a missing object is not a reason to keep the row.
func (s *JobService) DeleteJob(ctx context.Context, ownerID, jobID uuid.UUID) error {
	job, err := s.jobs.FindByIDAndOwner(ctx, jobID, ownerID)
	if err != nil {
		return err
	}

	paths := []string{job.SourcePath}
	if job.ResultPath != nil && *job.ResultPath != "" {
		paths = append(paths, *job.ResultPath)
	}
	if err := s.blobs.RemovePaths(ctx, s.cfg.Docgen.Bucket, paths); err != nil {
		s.logger.WarningWithContextf(ctx, "[JobService] Failed to remove artifacts for %s: %v", job.ID, err)
	}

	if err := s.jobs.Delete(ctx, job.ID); err != nil {
		return err
	}

	s.publishChange(ctx, job, notify.ChangeDelete)
	return nil
}

// AuditTrail returns the job's audit rows, owner scoped.
func (s *JobService) AuditTrail(ctx context.Context, ownerID, jobID uuid.UUID) ([]entity.JobAuditEvent, error) {
	if _, err := s.jobs.FindByIDAndOwner(ctx, jobID, ownerID); err != nil {
		return nil, err
	}
	return s.audit.FindByJobID(ctx, jobID)
}

func (s *JobService) requireCapability(ctx context.Context, ownerID uuid.UUID, capability string) error {
	for _, name := range []string{capability, entity.CapabilityAdmin} {
		ok, err := s.policies.HasCapability(ctx, ownerID, name)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return entity.ErrCapabilityRequired
}

func (s *JobService) recordDuplicateCallback(ctx context.Context, job *entity.GenerationJob, in CallbackInput) error {
	if err := s.jobs.IncrementCallbackAttempts(ctx, job.ID); err != nil {
		return err
	}
	detail := fmt.Sprintf("job already %s, success=%t", job.Status, in.Success)
	if err := s.audit.Record(ctx, job.ID, entity.AuditEventDuplicateCallback, detail); err != nil {
		s.logger.WarningWithContextf(ctx, "[JobService] Failed to record duplicate callback for %s: %v", job.ID, err)
	}
	return nil
}

func (s *JobService) failJob(ctx context.Context, job *entity.GenerationJob, fromStatus string, cause error) {
	ok, err := s.jobs.TransitionStatus(ctx, job.ID, fromStatus, entity.JobStatusFailed, map[string]interface{}{
		"last_error": encodeLastError(cause),
	})
	if err != nil {
		s.logger.ErrorWithContextf(ctx, err, "[JobService] Failed to mark job %s failed", job.ID)
		return
	}
	if ok {
		job.Status = entity.JobStatusFailed
		s.publishChange(ctx, job, notify.ChangeUpdate)
	}
}

func (s *JobService) publishChange(ctx context.Context, job *entity.GenerationJob, change string) {
	event := notify.ChangeEvent{
		JobID:   job.ID,
		OwnerID: job.OwnerID,
		Change:  change,
		Status:  job.Status,
	}
	if err := s.changes.PublishChange(ctx, event); err != nil {
		s.logger.WarningWithContextf(ctx, "[JobService] Failed to publish %s event for %s: %v", change, job.ID, err)
	}
}

func encodeLastError(cause error) datatypes.JSON {
	payload := map[string]interface{}{
		"message": cause.Error(),
	}
	var workerErr *entity.WorkerError
	if errors.As(cause, &workerErr) {
		payload["status_code"] = workerErr.StatusCode
	}
	var staleErr *entity.StaleJobError
	if errors.As(cause, &staleErr) {
		payload["timeout_window"] = staleErr.Window
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = []byte(`{"message":"unknown error"}`)
	}
	return datatypes.JSON(raw)
}

func validateTargetURL(raw string) error {
	parsed, err := url.ParseRequestURI(raw)
	if err != nil {
		return &entity.ValidationError{Field: "target_url", Reason: "must be a valid URL"}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &entity.ValidationError{Field: "target_url", Reason: "must use http or https"}
	}
	if parsed.Host == "" {
		return &entity.ValidationError{Field: "target_url", Reason: "must include a host"}
	}
	return nil
}
