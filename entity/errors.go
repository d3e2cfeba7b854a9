package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned when a job row does not exist or is not
	// visible to the caller.
	ErrJobNotFound = errors.New("generation job not found")

	// ErrArtifactNotFound is returned when the locator exhausted every
	// candidate path without a verified hit.
	ErrArtifactNotFound = errors.New("artifact not found in blob store")

	// ErrCallbackBeforeSubmission is returned for a callback that arrives
	// before the job reached PROCESSING; the worker is expected to retry.
	ErrCallbackBeforeSubmission = errors.New("callback received before submission completed")

	// ErrCapabilityRequired is returned when the owner's policy rows do not
	// grant the capability a job kind requires.
	ErrCapabilityRequired = errors.New("owner lacks required capability")

	// ErrResultNotReady is returned for a download request against a job
	// that has not reached COMPLETED.
	ErrResultNotReady = errors.New("job result not ready")
)

// ValidationError signals bad caller input. Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransferError wraps the last underlying cause after the transfer retry
// budget is exhausted.
type TransferError struct {
	Attempts int
	Cause    error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer failed after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *TransferError) Unwrap() error {
	return e.Cause
}

// WorkerError captures a rejection or failure reported by the generation
// worker. It is always persisted on the job as last_error before being
// surfaced.
type WorkerError struct {
	StatusCode int
	Body       string
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("generation worker returned %d: %s", e.StatusCode, e.Body)
}

// StaleJobError is the synthetic failure recorded by the timeout sweep for
// jobs stuck in PROCESSING past the staleness window.
type StaleJobError struct {
	Window string
}

func (e *StaleJobError) Error() string {
	return fmt.Sprintf("worker timeout: no callback within %s", e.Window)
}
