package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/devenspear/devatar/application/ports/outbound"
	"github.com/devenspear/devatar/config"
	"github.com/devenspear/devatar/domain"
)

type VideoSubmitRequest struct {
	Model       string `json:"model_name"`
	ImageURL    string `json:"image_url"`
	Prompt      string `json:"prompt"`
	Duration    int    `json:"duration"`
	AspectRatio string `json:"aspect_ratio"`
	Mode        string `json:"mode"`
}

type videoSubmitResponse struct {
	Data struct {
		TaskID string `json:"task_id"`
	} `json:"data"`
	Message string `json:"message"`
}

type videoPollResponse struct {
	Data struct {
		TaskID        string `json:"task_id"`
		TaskStatus    string `json:"task_status"`
		TaskStatusMsg string `json:"task_status_msg"`
		Progress      int    `json:"progress"`
		TaskResult    struct {
			Videos []struct {
				URL string `json:"url"`
			} `json:"videos"`
		} `json:"task_result"`
	} `json:"data"`
}

type videoGenerator struct {
	ContentFetcher
	logger         outbound.LoggerPort
	videoGenConfig *config.VideoGenConfig
}

// NewVideoGenerator builds the image-to-video submit/poll client. The
// vendor fetches the source image by URL, so callers pass a signed read URL.
func NewVideoGenerator(contentFetcher ContentFetcher, videoGenConfig *config.VideoGenConfig, logger outbound.LoggerPort) outbound.VideoGeneratorPort {
	return &videoGenerator{
		ContentFetcher: contentFetcher,
		logger:         logger,
		videoGenConfig: videoGenConfig,
	}
}

func (v *videoGenerator) Submit(ctx context.Context, submitReq outbound.SubmitVideoRequest) (string, error) {
	reqBody := VideoSubmitRequest{
		Model:       v.videoGenConfig.Model,
		ImageURL:    submitReq.ImageURL,
		Prompt:      submitReq.Prompt,
		Duration:    submitReq.DurationSecs,
		AspectRatio: submitReq.AspectRatio,
		Mode:        submitReq.Mode,
	}
	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.videoGenConfig.ApiUrl+"/v1/videos/image2video", bytes.NewBuffer(jsonPayload))
	if err != nil {
		return "", err
	}
	req.Header.Add("Authorization", "Bearer "+v.videoGenConfig.ApiKey)
	req.Header.Add("Content-Type", "application/json")

	rawRes, _, err := v.FetchContent(req)
	if err != nil {
		return "", err
	}

	var res videoSubmitResponse
	if err := json.Unmarshal(rawRes, &res); err != nil {
		return "", &domain.ProviderError{Provider: v.videoGenConfig.Model, Message: fmt.Sprintf("malformed submit response: %v", err)}
	}
	if res.Data.TaskID == "" {
		return "", &domain.ProviderError{Provider: v.videoGenConfig.Model, Message: "submit response missing task_id: " + res.Message}
	}

	return res.Data.TaskID, nil
}

func (v *videoGenerator) Poll(ctx context.Context, taskID string) (*outbound.VideoPollResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.videoGenConfig.ApiUrl+"/v1/videos/image2video/"+taskID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Authorization", "Bearer "+v.videoGenConfig.ApiKey)

	rawRes, _, err := v.FetchContent(req)
	if err != nil {
		return nil, err
	}

	var res videoPollResponse
	if err := json.Unmarshal(rawRes, &res); err != nil {
		return nil, &domain.ProviderError{Provider: v.videoGenConfig.Model, Message: fmt.Sprintf("malformed poll response: %v", err)}
	}

	result := &outbound.VideoPollResult{
		Status:   mapVideoTaskStatus(res.Data.TaskStatus),
		Progress: res.Data.Progress,
		Error:    res.Data.TaskStatusMsg,
	}
	if len(res.Data.TaskResult.Videos) > 0 {
		result.VideoURL = res.Data.TaskResult.Videos[0].URL
	}
	return result, nil
}

func (v *videoGenerator) Model() string {
	return v.videoGenConfig.Model
}

func mapVideoTaskStatus(vendorStatus string) outbound.TaskStatus {
	switch vendorStatus {
	case "submitted", "queued", "pending":
		return outbound.TaskStatusPending
	case "processing", "running":
		return outbound.TaskStatusProcessing
	case "succeed", "succeeded", "completed":
		return outbound.TaskStatusCompleted
	case "failed", "error":
		return outbound.TaskStatusFailed
	default:
		return outbound.TaskStatusProcessing
	}
}
