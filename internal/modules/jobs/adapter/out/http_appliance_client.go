package out

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"camwatch/internal/modules/jobs/domain"
	apperrors "camwatch/internal/platform/errors"
	"camwatch/internal/platform/id"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5

	maxResponseBody = 1 << 20
)

// HTTPApplianceClient drives the appliance's download, backup and cancel
// endpoints.
type HTTPApplianceClient struct {
	baseURL    string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
	ids        id.Generator
}

type ClientOption func(*HTTPApplianceClient)

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *HTTPApplianceClient) {
		c.httpClient = httpClient
	}
}

func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *HTTPApplianceClient) {
		c.logger = logger
	}
}

// WithRequestIDs sets the generator for X-Request-Id headers.
func WithRequestIDs(ids id.Generator) ClientOption {
	return func(c *HTTPApplianceClient) {
		if ids != nil {
			c.ids = ids
		}
	}
}

// WithRateLimit caps outbound requests per second. Zero disables limiting.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *HTTPApplianceClient) {
		if requestsPerSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

func NewHTTPApplianceClient(baseURL string, opts ...ClientOption) *HTTPApplianceClient {
	c := &HTTPApplianceClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		ids:        id.UUID{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPApplianceClient) StartDownload(ctx context.Context, recording domain.Recording) (domain.StartResult, error) {
	var result domain.StartResult
	err := c.do(ctx, http.MethodPost, "/api/recordings/download/start", recording, &result)
	return result, err
}

func (c *HTTPApplianceClient) StartBatchDownload(ctx context.Context, recordings []domain.Recording) (domain.StartResult, error) {
	var result domain.StartResult
	err := c.do(ctx, http.MethodPost, "/api/recordings/download/start/batch", recordings, &result)
	return result, err
}

func (c *HTTPApplianceClient) StartDirectDownload(ctx context.Context, search domain.SearchRequest) (domain.StartResult, error) {
	var result domain.StartResult
	err := c.do(ctx, http.MethodPost, "/api/recordings/download/start-direct", search, &result)
	return result, err
}

func (c *HTTPApplianceClient) ExecuteBackup(ctx context.Context, configID string) (domain.StartResult, error) {
	var result domain.StartResult
	err := c.do(ctx, http.MethodPost, "/api/backups/execute/"+url.PathEscape(configID), nil, &result)
	return result, err
}

func (c *HTTPApplianceClient) CancelBatch(ctx context.Context, batchID string) (string, error) {
	var resp struct {
		BatchID string `json:"batchId"`
		Message string `json:"message"`
	}
	path := "/api/recordings/download/batch/" + url.PathEscape(batchID) + "/cancel"
	if err := c.do(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *HTTPApplianceClient) do(ctx context.Context, method, path string, payload any, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := c.ids.New()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.logger != nil {
		c.logger.Debug().Str("method", method).Str("url", c.baseURL+path).Str("request_id", requestID).Msg("Appliance request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %v: %w", method, path, err, apperrors.ErrUnavailable)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("read body: %v: %w", err, apperrors.ErrUnavailable)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", errorMessage(raw), apperrors.ErrJobNotFound)
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%s: %w", errorMessage(raw), apperrors.ErrInvalidInput)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("status %d: %s: %w", resp.StatusCode, errorMessage(raw), apperrors.ErrUnavailable)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %v: %w", err, apperrors.ErrUnavailable)
	}
	return nil
}

// errorMessage pulls the appliance's error text out of a failure body.
func errorMessage(raw []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200]
	}
	if s == "" {
		return "empty response"
	}
	return s
}
