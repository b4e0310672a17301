package adapters

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/devenspear/devatar/application/ports/outbound"
	"github.com/devenspear/devatar/domain"
)

// ContentFetcher is the shared HTTP helper behind every vendor adapter. It
// turns non-2xx responses into domain.ProviderError so the orchestrator can
// persist vendor failures verbatim.
type ContentFetcher interface {
	FetchContent(req *http.Request) ([]byte, string, error)
	outbound.DownloaderPort
}

type contentFetcher struct {
	client *http.Client
	logger outbound.LoggerPort
}

func NewContentFetcher(logger outbound.LoggerPort) ContentFetcher {
	return &contentFetcher{
		client: &http.Client{Timeout: 2 * time.Minute},
		logger: logger,
	}
}

func (c *contentFetcher) FetchContent(req *http.Request) ([]byte, string, error) {
	res, err := c.client.Do(req)
	if err != nil {
		c.logger.ErrorWithFields(err, "HTTP request failed", map[string]interface{}{
			"method": req.Method,
			"URL":    req.URL.String(),
		})
		return nil, "", &domain.ProviderError{Provider: req.URL.Host, Message: err.Error()}
	}
	defer func() {
		if closeErr := res.Body.Close(); closeErr != nil {
			c.logger.Error(closeErr, "failed to close response body")
		}
	}()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		c.logger.ErrorWithFields(err, "failed to read response body", map[string]interface{}{
			"method": req.Method,
			"URL":    req.URL.String(),
		})
		return nil, "", &domain.ProviderError{Provider: req.URL.Host, Message: err.Error()}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		c.logger.ErrorWithFields(nil, "HTTP request returned non-2xx status code", map[string]interface{}{
			"method": req.Method,
			"URL":    req.URL.String(),
			"status": res.StatusCode,
			"body":   string(payload),
		})
		return nil, "", &domain.ProviderError{
			Provider:   req.URL.Host,
			StatusCode: res.StatusCode,
			Message:    string(payload),
		}
	}

	return payload, res.Header.Get("Content-Type"), nil
}

// Download fetches vendor output bytes by URL so they can be re-hosted in
// the blob store.
func (c *contentFetcher) Download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	return c.FetchContent(req)
}
