package dto

import "github.com/devenspear/devatar/domain"

type SceneResponse struct {
	ID                string  `json:"id"`
	ProjectID         string  `json:"project_id"`
	Status            string  `json:"status"`
	AudioURL          string  `json:"audio_url,omitempty"`
	AudioDurationSecs float64 `json:"audio_duration_secs,omitempty"`
	ImageURL          string  `json:"image_url,omitempty"`
	RawVideoURL       string  `json:"raw_video_url,omitempty"`
	LipsyncVideoURL   string  `json:"lipsync_video_url,omitempty"`
	FinalVideoURL     string  `json:"final_video_url,omitempty"`
	FailureReason     string  `json:"failure_reason,omitempty"`
	RetryCount        int     `json:"retry_count,omitempty"`
}

func SceneResponseFrom(scene *domain.Scene) SceneResponse {
	return SceneResponse{
		ID:                scene.ID,
		ProjectID:         scene.ProjectID,
		Status:            string(scene.Status),
		AudioURL:          scene.AudioURL,
		AudioDurationSecs: scene.AudioDurationSecs,
		ImageURL:          scene.ImageURL,
		RawVideoURL:       scene.RawVideoURL,
		LipsyncVideoURL:   scene.LipsyncVideoURL,
		FinalVideoURL:     scene.FinalVideoURL,
		FailureReason:     scene.FailureReason,
		RetryCount:        scene.RetryCount,
	}
}

type EnqueueResponse struct {
	SceneID string `json:"scene_id"`
	TaskID  string `json:"task_id"`
	Queue   string `json:"queue"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
