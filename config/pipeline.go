package config

import (
	"os"
	"time"
)

// PipelineEnvConfig carries the orchestrator tunables that are operator
// overridable. Everything has a default; nothing here is required.
type PipelineEnvConfig struct {
	DefaultVoiceID            string
	DefaultHeadshotSettingKey string
	AspectRatio               string
	VideoPollIntervalSecs     int
	VideoPollMaxAttempts      int
	LipsyncEarlyIntervalSecs  int
	LipsyncEarlyAttempts      int
	LipsyncPollIntervalSecs   int
	LipsyncPollMaxAttempts    int
	SignedURLTTL              time.Duration
	WorkerConcurrency         int
}

func GetPipelineConfig() (*PipelineEnvConfig, error) {
	videoInterval, err := intEnv("VIDEO_POLL_INTERVAL_SECS", 25)
	if err != nil {
		return nil, err
	}
	videoAttempts, err := intEnv("VIDEO_POLL_MAX_ATTEMPTS", 40)
	if err != nil {
		return nil, err
	}
	lipsyncEarlyInterval, err := intEnv("LIPSYNC_EARLY_INTERVAL_SECS", 10)
	if err != nil {
		return nil, err
	}
	lipsyncEarlyAttempts, err := intEnv("LIPSYNC_EARLY_ATTEMPTS", 12)
	if err != nil {
		return nil, err
	}
	lipsyncInterval, err := intEnv("LIPSYNC_POLL_INTERVAL_SECS", 15)
	if err != nil {
		return nil, err
	}
	lipsyncAttempts, err := intEnv("LIPSYNC_POLL_MAX_ATTEMPTS", 60)
	if err != nil {
		return nil, err
	}
	signedURLMinutes, err := intEnv("SIGNED_URL_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	concurrency, err := intEnv("WORKER_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}

	headshotKey := os.Getenv("DEFAULT_HEADSHOT_SETTING_KEY")
	if headshotKey == "" {
		headshotKey = "default_headshot_asset_id"
	}
	aspectRatio := os.Getenv("DEFAULT_ASPECT_RATIO")
	if aspectRatio == "" {
		aspectRatio = "9:16"
	}

	return &PipelineEnvConfig{
		DefaultVoiceID:            os.Getenv("DEFAULT_VOICE_ID"),
		DefaultHeadshotSettingKey: headshotKey,
		AspectRatio:               aspectRatio,
		VideoPollIntervalSecs:     videoInterval,
		VideoPollMaxAttempts:      videoAttempts,
		LipsyncEarlyIntervalSecs:  lipsyncEarlyInterval,
		LipsyncEarlyAttempts:      lipsyncEarlyAttempts,
		LipsyncPollIntervalSecs:   lipsyncInterval,
		LipsyncPollMaxAttempts:    lipsyncAttempts,
		SignedURLTTL:              time.Duration(signedURLMinutes) * time.Minute,
		WorkerConcurrency:         concurrency,
	}, nil
}
