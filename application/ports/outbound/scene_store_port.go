package outbound

import (
	"context"

	"github.com/devenspear/devatar/domain"
)

// Attribute names accepted by SceneStorePort.Update. Updates are partial:
// one call carries every field a pipeline step produced so the write is
// atomic.
const (
	SceneFieldStatus            = "status"
	SceneFieldAudioURL          = "audio_url"
	SceneFieldAudioDurationSecs = "audio_duration_secs"
	SceneFieldAudioModel        = "audio_model"
	SceneFieldImageURL          = "image_url"
	SceneFieldImagePrompt       = "image_prompt"
	SceneFieldImageModel        = "image_model"
	SceneFieldRawVideoURL       = "raw_video_url"
	SceneFieldVideoPrompt       = "video_prompt"
	SceneFieldVideoModel        = "video_model"
	SceneFieldVideoTaskID       = "video_task_id"
	SceneFieldLipsyncVideoURL   = "lipsync_video_url"
	SceneFieldLipsyncModel      = "lipsync_model"
	SceneFieldLipsyncJobID      = "lipsync_job_id"
	SceneFieldFinalVideoURL     = "final_video_url"
	SceneFieldFailureReason     = "failure_reason"
	SceneFieldRetryCount        = "retry_count"
	SceneFieldLastAttemptAt     = "last_attempt_at"
)

type SceneStorePort interface {
	// GetByID resolves the scene together with its project and optional
	// headshot asset. Returns domain.NotFoundError when the scene is absent.
	GetByID(ctx context.Context, id string) (*domain.SceneWithRefs, error)

	// BeginRun performs the guard check and the first status write as one
	// conditional update: status must currently allow a new run, and is moved
	// to GENERATING_AUDIO with output and failure fields cleared. Returns
	// domain.ConflictError when the condition fails, closing the race between
	// two triggers firing at once.
	BeginRun(ctx context.Context, id string) error

	// Update applies a partial, whole-scene update in a single write.
	Update(ctx context.Context, id string, fields map[string]interface{}) (*domain.Scene, error)
}
