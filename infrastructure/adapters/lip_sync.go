package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/devenspear/devatar/application/ports/outbound"
	"github.com/devenspear/devatar/config"
	"github.com/devenspear/devatar/domain"
)

type lipSyncInput struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type lipSyncSubmitRequest struct {
	Model string         `json:"model"`
	Input []lipSyncInput `json:"input"`
}

type lipSyncSubmitResponse struct {
	ID string `json:"id"`
}

type lipSyncPollResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	OutputURL string `json:"outputUrl"`
	Error     string `json:"error"`
}

type lipSyncClient struct {
	ContentFetcher
	logger        outbound.LoggerPort
	lipSyncConfig *config.LipSyncConfig
}

func NewLipSyncClient(contentFetcher ContentFetcher, lipSyncConfig *config.LipSyncConfig, logger outbound.LoggerPort) outbound.LipSyncPort {
	return &lipSyncClient{
		ContentFetcher: contentFetcher,
		logger:         logger,
		lipSyncConfig:  lipSyncConfig,
	}
}

func (l *lipSyncClient) Submit(ctx context.Context, videoURL, audioURL string) (string, error) {
	reqBody := lipSyncSubmitRequest{
		Model: l.lipSyncConfig.Model,
		Input: []lipSyncInput{
			{Type: "video", URL: videoURL},
			{Type: "audio", URL: audioURL},
		},
	}
	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.lipSyncConfig.ApiUrl+"/v2/generate", bytes.NewBuffer(jsonPayload))
	if err != nil {
		return "", err
	}
	req.Header.Add("x-api-key", l.lipSyncConfig.ApiKey)
	req.Header.Add("Content-Type", "application/json")

	rawRes, _, err := l.FetchContent(req)
	if err != nil {
		return "", err
	}

	var res lipSyncSubmitResponse
	if err := json.Unmarshal(rawRes, &res); err != nil {
		return "", &domain.ProviderError{Provider: l.lipSyncConfig.Model, Message: fmt.Sprintf("malformed submit response: %v", err)}
	}
	if res.ID == "" {
		return "", &domain.ProviderError{Provider: l.lipSyncConfig.Model, Message: "submit response missing job id"}
	}

	return res.ID, nil
}

func (l *lipSyncClient) Poll(ctx context.Context, jobID string) (*outbound.LipSyncPollResult, error) {
	rawRes, err := l.RawStatus(ctx, jobID)
	if err != nil {
		return nil, err
	}

	var res lipSyncPollResponse
	if err := json.Unmarshal(rawRes, &res); err != nil {
		return nil, &domain.ProviderError{Provider: l.lipSyncConfig.Model, Message: fmt.Sprintf("malformed poll response: %v", err)}
	}

	return &outbound.LipSyncPollResult{
		Status:   mapLipSyncStatus(res.Status),
		VideoURL: res.OutputURL,
		Error:    res.Error,
	}, nil
}

// RawStatus returns the provider's status document unparsed so the recovery
// probe can scan it for output-URL field variants the typed poll misses.
func (l *lipSyncClient) RawStatus(ctx context.Context, jobID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.lipSyncConfig.ApiUrl+"/v2/generate/"+jobID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("x-api-key", l.lipSyncConfig.ApiKey)

	rawRes, _, err := l.FetchContent(req)
	if err != nil {
		return nil, err
	}
	return rawRes, nil
}

func (l *lipSyncClient) Model() string {
	return l.lipSyncConfig.Model
}

func mapLipSyncStatus(vendorStatus string) outbound.TaskStatus {
	switch strings.ToLower(vendorStatus) {
	case "pending", "queued":
		return outbound.TaskStatusPending
	case "processing", "running":
		return outbound.TaskStatusProcessing
	case "completed", "succeeded", "success":
		return outbound.TaskStatusCompleted
	case "failed", "error", "rejected", "canceled":
		return outbound.TaskStatusFailed
	default:
		return outbound.TaskStatusProcessing
	}
}
