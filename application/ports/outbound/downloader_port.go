package outbound

import "context"

// DownloaderPort fetches vendor output bytes by URL so they can be re-hosted
// in the blob store.
type DownloaderPort interface {
	Download(ctx context.Context, url string) ([]byte, string, error)
}
