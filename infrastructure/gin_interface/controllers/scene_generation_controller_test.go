package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/devenspear/devatar/domain"
	"github.com/devenspear/devatar/infrastructure/gin_interface/dto"
	"github.com/devenspear/devatar/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string)                                           {}
func (nopLogger) InfoWithFields(string, map[string]interface{})         {}
func (nopLogger) Error(error, string)                                   {}
func (nopLogger) ErrorWithFields(error, string, map[string]interface{}) {}
func (nopLogger) Debug(string)                                          {}
func (nopLogger) DebugWithFields(string, map[string]interface{})        {}
func (nopLogger) Warn(string)                                           {}
func (nopLogger) WarnWithFields(string, map[string]interface{})         {}

type fakeOrchestrator struct {
	scene  *domain.Scene
	err    error
	events []domain.ProgressEvent
	runCtx context.Context
}

func (f *fakeOrchestrator) Run(ctx context.Context, _ string) (*domain.Scene, error) {
	f.runCtx = ctx
	return f.scene, f.err
}

func (f *fakeOrchestrator) RunStream(ctx context.Context, _ string) (<-chan domain.ProgressEvent, <-chan error) {
	f.runCtx = ctx
	events := make(chan domain.ProgressEvent, len(f.events)+1)
	errs := make(chan error, 1)
	for _, ev := range f.events {
		events <- ev
	}
	if f.err != nil {
		errs <- f.err
	}
	close(events)
	close(errs)
	return events, errs
}

type fakeTaskClient struct {
	taskID string
	err    error
}

func (f *fakeTaskClient) EnqueueGenerate(_ context.Context, _ string) (string, error) {
	return f.taskID, f.err
}

func (f *fakeTaskClient) Close() error { return nil }

func newTestRouter(orch *fakeOrchestrator, tasks *fakeTaskClient) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	controller := NewSceneGenerationController(nopLogger{}, orch, tasks)
	controller.RegisterRoutes(router, func(c *gin.Context) { c.Next() })
	return router
}

func TestGenerateScene_Success(t *testing.T) {
	orch := &fakeOrchestrator{scene: &domain.Scene{
		ID:            "scene-1",
		ProjectID:     "project-1",
		Status:        domain.SceneStatusCompleted,
		FinalVideoURL: "https://blobs.test/final.mp4",
	}}
	router := newTestRouter(orch, &fakeTaskClient{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/scenes/scene-1/generate", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var res dto.SceneResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "scene-1", res.ID)
	assert.Equal(t, string(domain.SceneStatusCompleted), res.Status)
	assert.Equal(t, "https://blobs.test/final.mp4", res.FinalVideoURL)
}

func TestGenerateScene_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: &domain.NotFoundError{Entity: "scene", ID: "x"}, want: http.StatusNotFound},
		{name: "conflict", err: &domain.ConflictError{SceneID: "x", Status: domain.SceneStatusGeneratingAudio}, want: http.StatusConflict},
		{name: "validation", err: &domain.ValidationError{Reason: "too long"}, want: http.StatusUnprocessableEntity},
		{name: "provider", err: &domain.ProviderError{Provider: "kling-v1-6", Message: "oom"}, want: http.StatusBadGateway},
		{name: "timeout", err: &domain.TimeoutError{Provider: "video generation", TaskID: "t1", Attempts: 40}, want: http.StatusGatewayTimeout},
		{name: "recovery exhausted", err: &domain.RecoveryExhaustedError{JobID: "j1"}, want: http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeOrchestrator{err: tt.err}, &fakeTaskClient{})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/scenes/scene-1/generate", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			var res dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
			assert.Equal(t, tt.err.Error(), res.Error)
		})
	}
}

// A dropped client connection must not cancel the run it triggered: the
// pipeline keeps going and persists its real outcome.
func TestGenerateScene_RunOutlivesClientDisconnect(t *testing.T) {
	orch := &fakeOrchestrator{scene: &domain.Scene{ID: "scene-1", Status: domain.SceneStatusCompleted}}
	router := newTestRouter(orch, &fakeTaskClient{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/scenes/scene-1/generate", nil).WithContext(ctx)
	router.ServeHTTP(w, req)

	require.NotNil(t, orch.runCtx)
	assert.NoError(t, orch.runCtx.Err())
}

func TestStreamSceneGeneration_RunOutlivesClientDisconnect(t *testing.T) {
	orch := &fakeOrchestrator{events: []domain.ProgressEvent{
		{SceneID: "scene-1", Step: domain.StepAudioGeneration, Status: domain.ProgressStarted},
	}}
	router := newTestRouter(orch, &fakeTaskClient{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/scenes/scene-1/generate/stream", nil).WithContext(ctx)
	router.ServeHTTP(w, req)

	require.NotNil(t, orch.runCtx)
	assert.NoError(t, orch.runCtx.Err())
}

func TestGenerateSceneAsync(t *testing.T) {
	router := newTestRouter(&fakeOrchestrator{}, &fakeTaskClient{taskID: "asynq-123"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/scenes/scene-1/generate/async", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	var res dto.EnqueueResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "scene-1", res.SceneID)
	assert.Equal(t, "asynq-123", res.TaskID)
}

func TestStreamSceneGeneration(t *testing.T) {
	orch := &fakeOrchestrator{events: []domain.ProgressEvent{
		{SceneID: "scene-1", Step: domain.StepAudioGeneration, Status: domain.ProgressStarted},
		{SceneID: "scene-1", Step: domain.StepAudioGeneration, Status: domain.ProgressCompleted, URL: "https://blobs.test/a.mp3"},
	}}
	router := newTestRouter(orch, &fakeTaskClient{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/scenes/scene-1/generate/stream", nil)
	router.ServeHTTP(w, req)

	body := w.Body.String()
	assert.Contains(t, body, "event: progress")
	assert.Contains(t, body, `"step":"AUDIO_GENERATION"`)
	assert.Contains(t, body, `"status":"completed"`)
}

func TestStreamSceneGeneration_ErrorEvent(t *testing.T) {
	orch := &fakeOrchestrator{err: &domain.ValidationError{Reason: "dialogue too long"}}
	router := newTestRouter(orch, &fakeTaskClient{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/scenes/scene-1/generate/stream", nil)
	router.ServeHTTP(w, req)

	body := w.Body.String()
	assert.Contains(t, body, "event: error")
	assert.Contains(t, body, "dialogue too long")
}

func TestStreamSceneGeneration_SetsEventStreamHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	controller := NewSceneGenerationController(nopLogger{}, &fakeOrchestrator{}, &fakeTaskClient{})
	controller.RegisterRoutes(router, middleware.SSEMiddleware())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/scenes/scene-1/generate/stream", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
}

func TestHealthRoute(t *testing.T) {
	router := newTestRouter(&fakeOrchestrator{}, &fakeTaskClient{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
