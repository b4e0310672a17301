package outbound

import "context"

type GenerateImageRequest struct {
	Prompt string
	Width  int
	Height int
}

type GeneratedImage struct {
	Image []byte
	Model string
}

type ImagePollResult struct {
	Status   TaskStatus
	ImageURL string
	Error    string
}

// ImageGeneratorPort is the synchronous vendor shape.
type ImageGeneratorPort interface {
	Generate(ctx context.Context, req GenerateImageRequest) (*GeneratedImage, error)
}

// AsyncImageGeneratorPort is the submit/poll vendor shape. Adapters for
// async vendors implement this in addition to ImageGeneratorPort; the
// orchestrator detects it with a type assertion.
type AsyncImageGeneratorPort interface {
	Submit(ctx context.Context, req GenerateImageRequest) (string, error)
	Poll(ctx context.Context, taskID string) (*ImagePollResult, error)
	Model() string
}
