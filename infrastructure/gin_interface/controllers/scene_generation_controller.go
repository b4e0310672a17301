package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/devenspear/devatar/application/ports/inbound"
	"github.com/devenspear/devatar/application/ports/outbound"
	"github.com/devenspear/devatar/domain"
	"github.com/devenspear/devatar/infrastructure/gin_interface/dto"
	"github.com/devenspear/devatar/infrastructure/queue"
	"github.com/gin-gonic/gin"
)

type SceneGenerationController interface {
	GenerateScene(c *gin.Context)
	GenerateSceneAsync(c *gin.Context)
	StreamSceneGeneration(c *gin.Context)
	RegisterRoutes(g *gin.Engine, streamMiddleware gin.HandlerFunc)
}

type sceneGenerationController struct {
	logger       outbound.LoggerPort
	orchestrator inbound.ScenePipelineOrchestratorPort
	taskClient   queue.SceneTaskClient
}

func NewSceneGenerationController(
	logger outbound.LoggerPort,
	orchestrator inbound.ScenePipelineOrchestratorPort,
	taskClient queue.SceneTaskClient,
) SceneGenerationController {
	return &sceneGenerationController{
		logger:       logger,
		orchestrator: orchestrator,
		taskClient:   taskClient,
	}
}

// sseKeepaliveInterval paces comment lines on the stream endpoint; step
// transitions can be minutes apart while a vendor renders, and comment lines
// are invisible to EventSource clients.
const sseKeepaliveInterval = 15 * time.Second

// GenerateScene runs the pipeline synchronously and blocks until the scene
// reaches a terminal state. Long-running; the async variant is preferred for
// anything user-facing. The run is detached from the request context: a
// client disconnect must not abort a half-finished run or persist FAILED for
// a scene the vendors would have completed.
func (s *sceneGenerationController) GenerateScene(c *gin.Context) {
	sceneID := c.Param("id")

	scene, err := s.orchestrator.Run(context.WithoutCancel(c.Request.Context()), sceneID)
	if err != nil {
		c.JSON(statusCodeFor(err), dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.SceneResponseFrom(scene))
}

func (s *sceneGenerationController) GenerateSceneAsync(c *gin.Context) {
	sceneID := c.Param("id")

	taskID, err := s.taskClient.EnqueueGenerate(c.Request.Context(), sceneID)
	if err != nil {
		s.logger.ErrorWithFields(err, "failed to enqueue scene generation", map[string]interface{}{
			"scene_id": sceneID,
		})
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, dto.EnqueueResponse{
		SceneID: sceneID,
		TaskID:  taskID,
		Queue:   "default",
	})
}

// StreamSceneGeneration runs the pipeline and streams progress as SSE events
// until the run reaches a terminal state or the client disconnects. The run
// itself is detached from the request context: disconnecting only stops the
// event writes, never the run. This loop is the sole writer on c.Writer, so
// keepalive comments are interleaved here rather than from a second goroutine.
func (s *sceneGenerationController) StreamSceneGeneration(c *gin.Context) {
	sceneID := c.Param("id")
	clientGone := c.Request.Context().Done()

	events, errs := s.orchestrator.RunStream(context.WithoutCancel(c.Request.Context()), sceneID)

	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				events = nil
				if errs == nil {
					return
				}
				continue
			}
			s.writeEvent(c, "progress", event)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				if events == nil {
					return
				}
				continue
			}
			if err != nil {
				s.writeEvent(c, "error", dto.ErrorResponse{Error: err.Error()})
			}
		case <-keepalive.C:
			if _, err := c.Writer.WriteString(": keepalive\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		case <-clientGone:
			return
		}
	}
}

func (s *sceneGenerationController) writeEvent(c *gin.Context, eventName string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error(err, "failed to marshal SSE event")
		return
	}
	if _, err := c.Writer.WriteString("event: " + eventName + "\ndata: " + string(data) + "\n\n"); err != nil {
		return
	}
	c.Writer.Flush()
}

func (s *sceneGenerationController) RegisterRoutes(g *gin.Engine, streamMiddleware gin.HandlerFunc) {
	g.POST("/scenes/:id/generate", s.GenerateScene)
	g.POST("/scenes/:id/generate/async", s.GenerateSceneAsync)
	g.GET("/scenes/:id/generate/stream", streamMiddleware, s.StreamSceneGeneration)
	g.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func statusCodeFor(err error) int {
	var notFoundErr *domain.NotFoundError
	var conflictErr *domain.ConflictError
	var validationErr *domain.ValidationError
	var providerErr *domain.ProviderError
	var timeoutErr *domain.TimeoutError
	var recoveryErr *domain.RecoveryExhaustedError

	switch {
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &conflictErr):
		return http.StatusConflict
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &providerErr):
		return http.StatusBadGateway
	case errors.As(err, &timeoutErr), errors.As(err, &recoveryErr):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
