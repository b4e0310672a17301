package config

import (
	"fmt"
	"os"
)

type VideoGenConfig struct {
	ApiUrl string
	ApiKey string
	Model  string
	Mode   string
}

func GetVideoGenConfig() (*VideoGenConfig, error) {
	apiUrl := os.Getenv("VIDEO_GEN_API_URL")
	if apiUrl == "" {
		return nil, fmt.Errorf("VIDEO_GEN_API_URL must be set")
	}
	apiKey := os.Getenv("VIDEO_GEN_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("VIDEO_GEN_API_KEY must be set")
	}
	model := os.Getenv("VIDEO_GEN_MODEL")
	if model == "" {
		model = "kling-v1-6"
	}
	mode := os.Getenv("VIDEO_GEN_MODE")
	if mode == "" {
		mode = "std"
	}

	return &VideoGenConfig{
		ApiUrl: apiUrl,
		ApiKey: apiKey,
		Model:  model,
		Mode:   mode,
	}, nil
}
