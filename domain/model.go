package domain

import (
	"fmt"
	"time"
)

type SceneStatus string

const (
	SceneStatusDraft           SceneStatus = "DRAFT"
	SceneStatusGeneratingAudio SceneStatus = "GENERATING_AUDIO"
	SceneStatusGeneratingImage SceneStatus = "GENERATING_IMAGE"
	SceneStatusGeneratingVideo SceneStatus = "GENERATING_VIDEO"
	SceneStatusApplyingLipsync SceneStatus = "APPLYING_LIPSYNC"
	SceneStatusCompleted       SceneStatus = "COMPLETED"
	SceneStatusFailed          SceneStatus = "FAILED"
)

// CanStartRun reports whether a new generation run may begin from this
// status. COMPLETED is restartable: re-running a finished scene is treated
// as a fresh run.
func (s SceneStatus) CanStartRun() bool {
	switch s {
	case SceneStatusDraft, SceneStatusFailed, SceneStatusCompleted:
		return true
	default:
		return false
	}
}

func (s SceneStatus) Terminal() bool {
	return s == SceneStatusCompleted || s == SceneStatusFailed
}

// ImageModelUploaded tags an image output that came from a pre-supplied
// headshot instead of a generation vendor.
const ImageModelUploaded = "uploaded"

type Scene struct {
	ID        string
	ProjectID string
	Name      string
	Ordinal   int
	Status    SceneStatus

	Dialogue           string
	Environment        string
	Wardrobe           string
	Movement           string
	CameraStyle        string
	Mood               string
	Lighting           string
	TargetDurationSecs int
	VoiceID            string
	HeadshotAssetID    string

	AudioURL          string
	AudioDurationSecs float64
	AudioModel        string
	ImageURL          string
	ImagePrompt       string
	ImageModel        string
	RawVideoURL       string
	VideoPrompt       string
	VideoModel        string
	VideoTaskID       string
	LipsyncVideoURL   string
	LipsyncModel      string
	LipsyncJobID      string
	FinalVideoURL     string

	FailureReason string
	RetryCount    int
	LastAttemptAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Project struct {
	ID             string
	Name           string
	DefaultVoiceID string
	AspectRatio    string
}

type AssetKind string

const (
	AssetKindHeadshot AssetKind = "headshot"
	AssetKindImage    AssetKind = "image"
)

type Asset struct {
	ID   string
	Kind AssetKind
	URL  string
}

// SceneWithRefs is a scene joined with the records the orchestrator resolves
// once per run: the owning project and the optional scene-level headshot.
type SceneWithRefs struct {
	Scene
	Project  Project
	Headshot *Asset
}

type PipelineStep string

const (
	StepValidation         PipelineStep = "VALIDATION"
	StepAudioGeneration    PipelineStep = "AUDIO_GENERATION"
	StepImageGeneration    PipelineStep = "IMAGE_GENERATION"
	StepVideoGeneration    PipelineStep = "VIDEO_GENERATION"
	StepLipsyncApplication PipelineStep = "LIPSYNC_APPLICATION"
	StepVideoAssembly      PipelineStep = "VIDEO_ASSEMBLY"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// GenerationLog is one append-only diagnostic record emitted during a run.
// The orchestrator never mutates or deletes these.
type GenerationLog struct {
	ID         string
	SceneID    string
	ProjectID  string
	Step       PipelineStep
	Level      LogLevel
	Message    string
	Provider   string
	DurationMs int64
	Payload    map[string]interface{}
	CreatedAt  time.Time
}

const (
	ProgressStarted   = "started"
	ProgressCompleted = "completed"
	ProgressFailed    = "failed"
)

// ProgressEvent is one step-by-step update streamed by the trigger surface.
type ProgressEvent struct {
	SceneID string       `json:"scene_id"`
	Step    PipelineStep `json:"step"`
	Status  string       `json:"status"`
	Message string       `json:"message,omitempty"`
	URL     string       `json:"url,omitempty"`
}

// SceneBlobKey builds the blob-store key for a step output. Keys are
// timestamp-suffixed so uploads never overwrite each other.
func SceneBlobKey(projectID, sceneID, stepName, ext string, at time.Time) string {
	return fmt.Sprintf("projects/%s/scenes/%s/%s-%d.%s", projectID, sceneID, stepName, at.UnixMilli(), ext)
}
