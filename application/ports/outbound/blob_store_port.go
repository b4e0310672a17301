package outbound

import (
	"context"
	"time"
)

// BlobStorePort is append-only by convention: keys are timestamp-suffixed
// and never overwritten.
type BlobStorePort interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// SignedReadURL returns a time-limited read URL so external vendors that
	// fetch by URL can access a private blob.
	SignedReadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
