package outbound

import "context"

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

type SubmitVideoRequest struct {
	ImageURL     string
	Prompt       string
	DurationSecs int
	AspectRatio  string
	Mode         string
}

type VideoPollResult struct {
	Status   TaskStatus
	VideoURL string
	Progress int
	Error    string
}

type VideoGeneratorPort interface {
	Submit(ctx context.Context, req SubmitVideoRequest) (string, error)
	Poll(ctx context.Context, taskID string) (*VideoPollResult, error)
	Model() string
}
