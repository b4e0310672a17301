package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/devenspear/devatar/application/ports/inbound"
	"github.com/devenspear/devatar/application/ports/outbound"
	"github.com/devenspear/devatar/config"
	"github.com/devenspear/devatar/domain"
	"github.com/hibiken/asynq"
)

type SceneTaskWorker struct {
	server       *asynq.Server
	orchestrator inbound.ScenePipelineOrchestratorPort
	logger       outbound.LoggerPort
}

func NewSceneTaskWorker(
	redisConfig *config.RedisConfig,
	concurrency int,
	orchestrator inbound.ScenePipelineOrchestratorPort,
	logger outbound.LoggerPort,
) *SceneTaskWorker {
	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     redisConfig.Addr,
			Password: redisConfig.Password,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	return &SceneTaskWorker{
		server:       server,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// Start runs the consumer loop on its own goroutine.
func (w *SceneTaskWorker) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeGenerateScene, w.handleGenerateScene)
	return w.server.Start(mux)
}

func (w *SceneTaskWorker) Shutdown() {
	w.server.Shutdown()
}

func (w *SceneTaskWorker) handleGenerateScene(ctx context.Context, t *asynq.Task) error {
	var payload GenerateScenePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	scene, err := w.orchestrator.Run(ctx, payload.SceneID)
	if err != nil {
		w.logger.ErrorWithFields(err, "scene generation task failed", map[string]interface{}{
			"scene_id": payload.SceneID,
		})

		// Business failures are terminal: the run already persisted FAILED
		// (or refused to start), so re-running from the queue would only
		// burn vendor credits.
		var validationErr *domain.ValidationError
		var notFoundErr *domain.NotFoundError
		var conflictErr *domain.ConflictError
		if errors.As(err, &validationErr) || errors.As(err, &notFoundErr) || errors.As(err, &conflictErr) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	w.logger.InfoWithFields("scene generation task completed", map[string]interface{}{
		"scene_id": payload.SceneID,
		"status":   string(scene.Status),
	})
	return nil
}
