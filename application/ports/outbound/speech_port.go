package outbound

import "context"

type VoiceSettings struct {
	Stability       float64
	SimilarityBoost float64
	Style           float64
	UseSpeakerBoost bool
}

type SynthesizeSpeechRequest struct {
	Text     string
	VoiceID  string
	Settings VoiceSettings
}

type SynthesizedSpeech struct {
	Audio          []byte
	ContentType    string
	CharacterCount int
	Model          string
}

// SpeechPort is a synchronous request/response vendor: no task id, no poll.
type SpeechPort interface {
	Synthesize(ctx context.Context, req SynthesizeSpeechRequest) (*SynthesizedSpeech, error)
}
