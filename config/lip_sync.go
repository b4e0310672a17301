package config

import (
	"fmt"
	"os"
)

type LipSyncConfig struct {
	ApiUrl   string
	ApiKey   string
	Model    string
	PlanTier string
}

func GetLipSyncConfig() (*LipSyncConfig, error) {
	apiUrl := os.Getenv("LIPSYNC_API_URL")
	if apiUrl == "" {
		return nil, fmt.Errorf("LIPSYNC_API_URL must be set")
	}
	apiKey := os.Getenv("LIPSYNC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("LIPSYNC_API_KEY must be set")
	}
	model := os.Getenv("LIPSYNC_MODEL")
	if model == "" {
		model = "lipsync-2"
	}
	planTier := os.Getenv("LIPSYNC_PLAN_TIER")
	if planTier == "" {
		planTier = "creator"
	}

	return &LipSyncConfig{
		ApiUrl:   apiUrl,
		ApiKey:   apiKey,
		Model:    model,
		PlanTier: planTier,
	}, nil
}
