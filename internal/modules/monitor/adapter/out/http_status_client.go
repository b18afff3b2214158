package out

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"camwatch/internal/modules/monitor/domain"
	apperrors "camwatch/internal/platform/errors"
	"camwatch/internal/platform/id"
)

const (
	DefaultStatusPath = "/status/{jobId}"
	DefaultTimeout    = 10 * time.Second
	DefaultRateLimit  = 5

	maxStatusBody = 4 << 20
)

// HTTPStatusClient fetches job snapshots from the appliance. It performs no
// retries; the monitor's next cycle is the retry.
type HTTPStatusClient struct {
	baseURL    string
	statusPath string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
	ids        id.Generator
}

type StatusClientOption func(*HTTPStatusClient)

func WithStatusPath(path string) StatusClientOption {
	return func(c *HTTPStatusClient) {
		if path != "" {
			c.statusPath = path
		}
	}
}

func WithHTTPClient(httpClient *http.Client) StatusClientOption {
	return func(c *HTTPStatusClient) {
		c.httpClient = httpClient
	}
}

func WithLogger(logger arbor.ILogger) StatusClientOption {
	return func(c *HTTPStatusClient) {
		c.logger = logger
	}
}

// WithRequestIDs sets the generator for X-Request-Id headers.
func WithRequestIDs(ids id.Generator) StatusClientOption {
	return func(c *HTTPStatusClient) {
		if ids != nil {
			c.ids = ids
		}
	}
}

// WithRateLimit caps outbound requests per second. Zero disables limiting.
func WithRateLimit(requestsPerSecond int) StatusClientOption {
	return func(c *HTTPStatusClient) {
		if requestsPerSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

func NewHTTPStatusClient(baseURL string, opts ...StatusClientOption) *HTTPStatusClient {
	c := &HTTPStatusClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		statusPath: DefaultStatusPath,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		ids:        id.UUID{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPStatusClient) FetchStatus(ctx context.Context, jobID string) (domain.RawStatus, error) {
	if strings.TrimSpace(jobID) == "" {
		return domain.RawStatus{}, fmt.Errorf("job id is required: %w", apperrors.ErrInvalidInput)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return domain.RawStatus{}, domain.NewTransient(jobID, 0, fmt.Errorf("rate limit wait: %w", err))
		}
	}

	path := strings.ReplaceAll(c.statusPath, "{jobId}", url.PathEscape(jobID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return domain.RawStatus{}, domain.NewTransient(jobID, 0, fmt.Errorf("create request: %w", err))
	}
	requestID := c.ids.New()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	if c.logger != nil {
		c.logger.Trace().Str("url", c.baseURL+path).Str("request_id", requestID).Msg("Status request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.RawStatus{}, domain.NewTransient(jobID, 0, fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStatusBody))
	if err != nil {
		return domain.RawStatus{}, domain.NewTransient(jobID, resp.StatusCode, fmt.Errorf("read body: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.RawStatus{}, domain.NewNotFound(jobID)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return domain.RawStatus{}, domain.NewTransient(jobID, resp.StatusCode, errors.New(snippet(body)))
	}

	raw, err := decodeStatus(body)
	if err != nil {
		return domain.RawStatus{}, domain.NewMalformed(jobID, err)
	}
	return raw, nil
}

func decodeStatus(body []byte) (domain.RawStatus, error) {
	var raw domain.RawStatus
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.RawStatus{}, fmt.Errorf("decode status: %w", err)
	}
	if err := raw.Validate(); err != nil {
		return domain.RawStatus{}, err
	}
	return raw, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	if s == "" {
		return "empty response"
	}
	return s
}
