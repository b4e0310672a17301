package outbound

import "context"

type LipSyncPollResult struct {
	Status   TaskStatus
	VideoURL string
	Error    string
}

type LipSyncPort interface {
	Submit(ctx context.Context, videoURL, audioURL string) (string, error)
	Poll(ctx context.Context, jobID string) (*LipSyncPollResult, error)
	// RawStatus fetches the provider's raw status document, unparsed. Used by
	// the recovery probe when a poll reports completed without an output URL.
	RawStatus(ctx context.Context, jobID string) ([]byte, error)
	Model() string
}
