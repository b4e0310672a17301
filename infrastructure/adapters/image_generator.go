package adapters

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/devenspear/devatar/application/ports/outbound"
	"github.com/devenspear/devatar/config"
	"github.com/devenspear/devatar/domain"
)

type ImageApiRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	Size           string `json:"size"`
	Number         int    `json:"n"`
	ResponseFormat string `json:"response_format"`
}

type ImageApiResponse struct {
	Data []struct {
		B64Json string `json:"b64_json"`
	} `json:"data"`
}

type imageGenerator struct {
	ContentFetcher
	logger         outbound.LoggerPort
	imageGenConfig *config.ImageGenConfig
}

// NewImageGenerator builds the synchronous (DALL-E shaped) image vendor
// adapter. Async submit/poll vendors implement
// outbound.AsyncImageGeneratorPort instead; the orchestrator handles both.
func NewImageGenerator(contentFetcher ContentFetcher, imageGenConfig *config.ImageGenConfig, logger outbound.LoggerPort) outbound.ImageGeneratorPort {
	return &imageGenerator{
		ContentFetcher: contentFetcher,
		logger:         logger,
		imageGenConfig: imageGenConfig,
	}
}

func (i *imageGenerator) Generate(ctx context.Context, genReq outbound.GenerateImageRequest) (*outbound.GeneratedImage, error) {
	req, err := i.getRequest(ctx, genReq.Prompt)
	if err != nil {
		i.logger.Error(err, "failed to construct the image generation request")
		return nil, err
	}

	rawRes, _, err := i.FetchContent(req)
	if err != nil {
		return nil, err
	}

	var apiRes ImageApiResponse
	if err := json.Unmarshal(rawRes, &apiRes); err != nil {
		return nil, &domain.ProviderError{Provider: i.imageGenConfig.Model, Message: fmt.Sprintf("malformed image response: %v", err)}
	}
	if len(apiRes.Data) == 0 {
		return nil, &domain.ProviderError{Provider: i.imageGenConfig.Model, Message: "image response contained no data"}
	}

	decoded, err := base64.StdEncoding.DecodeString(apiRes.Data[0].B64Json)
	if err != nil {
		return nil, &domain.ProviderError{Provider: i.imageGenConfig.Model, Message: fmt.Sprintf("failed to decode image payload: %v", err)}
	}

	return &outbound.GeneratedImage{
		Image: decoded,
		Model: i.imageGenConfig.Model,
	}, nil
}

func (i *imageGenerator) getRequest(ctx context.Context, prompt string) (*http.Request, error) {
	reqBody := ImageApiRequest{
		Model:          i.imageGenConfig.Model,
		Prompt:         prompt,
		Size:           i.imageGenConfig.Size,
		Number:         1,
		ResponseFormat: "b64_json",
	}

	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.imageGenConfig.ApiUrl, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, err
	}

	req.Header.Add("Authorization", "Bearer "+i.imageGenConfig.ApiKey)
	req.Header.Add("Content-Type", "application/json")

	return req, nil
}
