package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/devenspear/devatar/application/ports/outbound"
	"github.com/devenspear/devatar/config"
)

type ElevenLabsRequest struct {
	Text          string        `json:"text"`
	ModelId       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type elevenLabsSpeech struct {
	ContentFetcher
	logger           outbound.LoggerPort
	elevenLabsConfig *config.ElevenLabsConfig
}

func NewElevenLabsSpeech(contentFetcher ContentFetcher, elevenLabsConfig *config.ElevenLabsConfig, logger outbound.LoggerPort) outbound.SpeechPort {
	return &elevenLabsSpeech{
		ContentFetcher:   contentFetcher,
		logger:           logger,
		elevenLabsConfig: elevenLabsConfig,
	}
}

func (a *elevenLabsSpeech) Synthesize(ctx context.Context, synthReq outbound.SynthesizeSpeechRequest) (*outbound.SynthesizedSpeech, error) {
	req, err := a.getRequest(ctx, synthReq)
	if err != nil {
		a.logger.Error(err, "failed to construct the speech synthesis request")
		return nil, err
	}

	audio, contentType, err := a.FetchContent(req)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = "audio/mpeg"
	}

	return &outbound.SynthesizedSpeech{
		Audio:          audio,
		ContentType:    contentType,
		CharacterCount: len(synthReq.Text),
		Model:          a.elevenLabsConfig.ModelId,
	}, nil
}

func (a *elevenLabsSpeech) getRequest(ctx context.Context, synthReq outbound.SynthesizeSpeechRequest) (*http.Request, error) {
	reqBody := ElevenLabsRequest{
		Text:    synthReq.Text,
		ModelId: a.elevenLabsConfig.ModelId,
		VoiceSettings: VoiceSettings{
			Stability:       synthReq.Settings.Stability,
			SimilarityBoost: synthReq.Settings.SimilarityBoost,
			Style:           synthReq.Settings.Style,
			UseSpeakerBoost: synthReq.Settings.UseSpeakerBoost,
		},
	}

	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.elevenLabsConfig.ApiUrl+"/"+synthReq.VoiceID, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, err
	}

	req.Header.Add("Accept", "audio/mpeg")
	req.Header.Add("xi-api-key", a.elevenLabsConfig.ApiKey)
	req.Header.Add("Content-Type", "application/json")

	return req, nil
}
