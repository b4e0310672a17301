package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/devenspear/devatar/application/ports/outbound"
	"github.com/devenspear/devatar/config"
	"github.com/devenspear/devatar/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVideoGenerator(apiURL string) outbound.VideoGeneratorPort {
	logger := testLogger{}
	fetcher := NewContentFetcher(logger)
	return NewVideoGenerator(fetcher, &config.VideoGenConfig{
		ApiUrl: apiURL,
		ApiKey: "test-key",
		Model:  "kling-v1-6",
		Mode:   "std",
	}, logger)
}

func TestVideoGenerator_Submit(t *testing.T) {
	var captured VideoSubmitRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/videos/image2video", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"code":0,"data":{"task_id":"task-7"}}`))
	}))
	defer server.Close()

	taskID, err := newVideoGenerator(server.URL).Submit(context.Background(), outbound.SubmitVideoRequest{
		ImageURL:     "https://x/image.png",
		Prompt:       "the subject speaks naturally to camera",
		DurationSecs: 8,
		AspectRatio:  "9:16",
		Mode:         "std",
	})
	require.NoError(t, err)
	assert.Equal(t, "task-7", taskID)

	assert.Equal(t, "kling-v1-6", captured.Model)
	assert.Equal(t, "https://x/image.png", captured.ImageURL)
	assert.Equal(t, 8, captured.Duration)
	assert.Equal(t, "9:16", captured.AspectRatio)
}

func TestVideoGenerator_SubmitMissingTaskID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"code":1,"message":"invalid image"}`))
	}))
	defer server.Close()

	_, err := newVideoGenerator(server.URL).Submit(context.Background(), outbound.SubmitVideoRequest{})
	var perr *domain.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Message, "invalid image")
}

func TestVideoGenerator_Poll(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus outbound.TaskStatus
		wantURL    string
	}{
		{
			name:       "submitted maps to pending",
			body:       `{"data":{"task_id":"t1","task_status":"submitted"}}`,
			wantStatus: outbound.TaskStatusPending,
		},
		{
			name:       "processing with progress",
			body:       `{"data":{"task_id":"t1","task_status":"processing","progress":60}}`,
			wantStatus: outbound.TaskStatusProcessing,
		},
		{
			name:       "succeed with video",
			body:       `{"data":{"task_id":"t1","task_status":"succeed","task_result":{"videos":[{"url":"https://x/raw.mp4"}]}}}`,
			wantStatus: outbound.TaskStatusCompleted,
			wantURL:    "https://x/raw.mp4",
		},
		{
			name:       "failed with message",
			body:       `{"data":{"task_id":"t1","task_status":"failed","task_status_msg":"oom"}}`,
			wantStatus: outbound.TaskStatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/videos/image2video/t1", r.URL.Path)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			res, err := newVideoGenerator(server.URL).Poll(context.Background(), "t1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.wantURL, res.VideoURL)
		})
	}
}

func TestVideoGenerator_PollMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer server.Close()

	_, err := newVideoGenerator(server.URL).Poll(context.Background(), "t1")
	var perr *domain.ProviderError
	require.ErrorAs(t, err, &perr)
}
