package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/devenspear/devatar/application/ports/outbound"
	"github.com/devenspear/devatar/config"
	"github.com/hibiken/asynq"
)

const TypeGenerateScene = "scene:generate"

// GenerateScenePayload identifies the scene to run; everything else is read
// back from the store when the task executes.
type GenerateScenePayload struct {
	SceneID string `json:"scene_id"`
}

type SceneTaskClient interface {
	EnqueueGenerate(ctx context.Context, sceneID string) (string, error)
	Close() error
}

type sceneTaskClient struct {
	client *asynq.Client
	logger outbound.LoggerPort
}

func NewSceneTaskClient(redisConfig *config.RedisConfig, logger outbound.LoggerPort) SceneTaskClient {
	return &sceneTaskClient{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     redisConfig.Addr,
			Password: redisConfig.Password,
		}),
		logger: logger,
	}
}

// EnqueueGenerate schedules a durable pipeline run. Retries are disabled at
// the queue level: the run itself persists FAILED and restarts are an
// explicit operator action, so a queue-level retry would race the CAS guard.
func (c *sceneTaskClient) EnqueueGenerate(ctx context.Context, sceneID string) (string, error) {
	payload, err := json.Marshal(GenerateScenePayload{SceneID: sceneID})
	if err != nil {
		return "", err
	}

	task := asynq.NewTask(TypeGenerateScene, payload,
		asynq.MaxRetry(0),
		asynq.Timeout(45*time.Minute),
		asynq.Retention(24*time.Hour),
	)

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", err
	}

	c.logger.DebugWithFields("enqueued scene generation task", map[string]interface{}{
		"scene_id": sceneID,
		"task_id":  info.ID,
		"queue":    info.Queue,
	})
	return info.ID, nil
}

func (c *sceneTaskClient) Close() error {
	return c.client.Close()
}
