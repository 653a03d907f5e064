package cardclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 10 * time.Second

// Fetcher retrieves the raw member record from the registry API.
type Fetcher interface {
	FetchMember(ctx context.Context, id string) ([]byte, error)
}

// StatusError reports a non-2xx answer from the registry API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("registry responded %d", e.StatusCode)
	}
	return fmt.Sprintf("registry responded %d: %s", e.StatusCode, e.Body)
}

// HTTPClient fetches members over HTTP. It never retries; offline recovery
// is the loader's job.
type HTTPClient struct {
	http *resty.Client
}

// NewHTTPClient builds a client for the registry at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("registry base url is required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	return &HTTPClient{http: client}, nil
}

// FetchMember performs GET /api/members/{id} and returns the body on 2xx.
func (c *HTTPClient) FetchMember(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Get("/api/members/{id}")
	if err != nil {
		return nil, fmt.Errorf("fetch member: %w", err)
	}
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return nil, &StatusError{StatusCode: resp.StatusCode(), Body: strings.TrimSpace(resp.String())}
	}
	return resp.Body(), nil
}
