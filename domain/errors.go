package domain

import "fmt"

// ValidationError marks bad or missing input, including the pre-flight
// duration overflow. Surfaced before any paid vendor call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ConflictError is returned when a run is requested for a scene that already
// has an in-flight generation attempt.
type ConflictError struct {
	SceneID string
	Status  SceneStatus
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("scene %s is already generating (status %s)", e.SceneID, e.Status)
}

// ProviderError carries a vendor's non-2xx status or malformed response
// verbatim so it can be persisted as the scene's failure reason.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// TimeoutError means the polling budget ran out without the vendor reaching
// a terminal state. The task id is included for manual recovery.
type TimeoutError struct {
	Provider string
	TaskID   string
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s task %s did not finish after %d polls", e.Provider, e.TaskID, e.Attempts)
}

// RecoveryExhaustedError marks the lip-sync anomaly where the vendor reported
// completion without an output URL and the raw-status probe also failed to
// recover one.
type RecoveryExhaustedError struct {
	JobID string
}

func (e *RecoveryExhaustedError) Error() string {
	return fmt.Sprintf("lip-sync job %s reported completed but no output url could be recovered", e.JobID)
}
