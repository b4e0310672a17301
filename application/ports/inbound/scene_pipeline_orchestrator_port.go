package inbound

import (
	"context"

	"github.com/devenspear/devatar/domain"
)

type ScenePipelineOrchestratorPort interface {
	// Run executes the full generation pipeline for one scene and blocks
	// until the scene reaches a terminal state. The returned error is one of
	// the domain error types; the scene's persisted status and failure
	// reason are always written before Run returns.
	Run(ctx context.Context, sceneID string) (*domain.Scene, error)

	// RunStream executes Run on the worker pool and streams step-by-step
	// progress events until terminal. Both channels are closed when the run
	// finishes.
	RunStream(ctx context.Context, sceneID string) (<-chan domain.ProgressEvent, <-chan error)
}
