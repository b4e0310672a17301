package config

import (
	"fmt"
	"os"
)

type ImageGenConfig struct {
	ApiUrl string
	ApiKey string
	Model  string
	Size   string
}

func GetImageGenConfig() (*ImageGenConfig, error) {
	apiUrl := os.Getenv("IMAGE_GEN_API_URL")
	if apiUrl == "" {
		return nil, fmt.Errorf("IMAGE_GEN_API_URL must be set")
	}
	apiKey := os.Getenv("IMAGE_GEN_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("IMAGE_GEN_API_KEY must be set")
	}
	model := os.Getenv("IMAGE_GEN_MODEL")
	if model == "" {
		model = "dall-e-3"
	}
	size := os.Getenv("IMAGE_GEN_SIZE")
	if size == "" {
		size = "1024x1024"
	}

	return &ImageGenConfig{
		ApiUrl: apiUrl,
		ApiKey: apiKey,
		Model:  model,
		Size:   size,
	}, nil
}
