package adapters

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lirigzong/Ai-Video-Create/application/ports/outbound"
	"github.com/lirigzong/Ai-Video-Create/domain"
)

const (
	fetchMaxAttempts    = 3
	fetchInitialBackoff = 2 * time.Second
	fetchClientTimeout  = 120 * time.Second
)

// HTTPStatusError is a non-retryable provider response. Callers map it to
// their own taxonomy (the image adapter turns a 400 into ContentRejected).
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP request returned status %d: %s", e.StatusCode, e.Body)
}

type ContentFetcher interface {
	FetchContent(req *http.Request) ([]byte, error)
}

type contentFetcher struct {
	logger outbound.LoggerPort
	client *http.Client
}

func NewContentFetcher(logger outbound.LoggerPort) ContentFetcher {
	return &contentFetcher{
		logger: logger,
		client: &http.Client{Timeout: fetchClientTimeout},
	}
}

// FetchContent performs the request with bounded exponential backoff on
// network errors, 429s and 5xx responses. Exhausted retries surface as
// ProviderUnavailable; other non-2xx statuses are returned as-is for the
// caller to classify.
func (c *contentFetcher) FetchContent(req *http.Request) ([]byte, error) {
	var lastErr error
	backoff := fetchInitialBackoff

	for attempt := 1; attempt <= fetchMaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(backoff):
			}
			backoff *= 2

			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				req.Body = body
			}
		}

		payload, retryable, err := c.fetchOnce(req)
		if err == nil {
			return payload, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
		c.logger.ErrorWithFields(err, "provider request failed, retrying", map[string]interface{}{
			"method":  req.Method,
			"url":     req.URL.String(),
			"attempt": attempt,
		})
	}

	return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, lastErr)
}

func (c *contentFetcher) fetchOnce(req *http.Request) (payload []byte, retryable bool, err error) {
	res, err := c.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer func() {
		if closeErr := res.Body.Close(); closeErr != nil {
			c.logger.Error(closeErr, "failed to close response body")
		}
	}()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, true, err
	}

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		return body, false, nil
	case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500:
		return nil, true, &HTTPStatusError{StatusCode: res.StatusCode, Body: truncateBody(body)}
	default:
		return nil, false, &HTTPStatusError{StatusCode: res.StatusCode, Body: truncateBody(body)}
	}
}

func truncateBody(body []byte) string {
	const limit = 512
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
