// Package provider implements the humanization providers the workflow can submit jobs to:
// a generic HTTP job API and a Gemini-backed adapter.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/01moynul/humanize-golang/internal/humanize"
)

// HTTPConfig configures the HTTP job API client.
type HTTPConfig struct {
	BaseURL string
	APIKey  string
	UserID  string
	Model   string
	RPS     float64 // outbound pacing, 0 disables
	Timeout time.Duration
}

// Client talks to the provider's /submit and /document endpoints.
type Client struct {
	cfg     HTTPConfig
	hc      *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient builds a Client. A nil logger discards logs.
func NewClient(cfg HTTPConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{
		cfg:    cfg,
		hc:     &http.Client{Timeout: cfg.Timeout},
		logger: logger.Named("provider"),
	}
	if cfg.RPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), 1)
	}
	return c
}

type submitRequest struct {
	Content     string `json:"content"`
	Readability string `json:"readability"`
	Purpose     string `json:"purpose"`
	Strength    string `json:"strength"`
	Model       string `json:"model"`
}

type submitResponse struct {
	ID      string `json:"id"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

type documentRequest struct {
	ID string `json:"id"`
}

type documentResponse struct {
	Output *string `json:"output"`
}

// Submit sends text once. There is no retry here; callers decide what a failure means.
func (c *Client) Submit(ctx context.Context, text string, opts humanize.Options) (humanize.JobHandle, error) {
	body := submitRequest{
		Content:     text,
		Readability: opts.Readability,
		Purpose:     opts.Purpose,
		Strength:    opts.Strength,
		Model:       c.cfg.Model,
	}

	status, raw, err := c.post(ctx, "/submit", body)
	if err != nil {
		return humanize.JobHandle{}, err
	}

	var resp submitResponse
	decodeErr := json.Unmarshal(raw, &resp)

	if status == http.StatusPaymentRequired || isQuotaError(resp.Error) {
		return humanize.JobHandle{}, fmt.Errorf("%w: provider: %s", humanize.ErrInsufficientCredits, describe(resp, raw))
	}
	if status < 200 || status > 299 {
		return humanize.JobHandle{}, fmt.Errorf("%w: submit returned %d: %s", humanize.ErrTransport, status, describe(resp, raw))
	}
	if decodeErr != nil {
		return humanize.JobHandle{}, fmt.Errorf("%w: malformed submit response: %v", humanize.ErrTransport, decodeErr)
	}
	if resp.Error != "" {
		return humanize.JobHandle{}, fmt.Errorf("%w: provider error: %s", humanize.ErrTransport, describe(resp, raw))
	}
	if resp.ID == "" {
		return humanize.JobHandle{}, fmt.Errorf("%w: submit response has no job id", humanize.ErrTransport)
	}

	c.logger.Debug("submitted", zap.String("job", resp.ID), zap.Int("chars", len(text)))
	return humanize.JobHandle{ID: resp.ID}, nil
}

// Document queries a job once. An absent output is reported as "".
func (c *Client) Document(ctx context.Context, h humanize.JobHandle) (string, error) {
	status, raw, err := c.post(ctx, "/document", documentRequest{ID: h.ID})
	if err != nil {
		return "", err
	}
	if status < 200 || status > 299 {
		return "", fmt.Errorf("%w: document returned %d: %s", humanize.ErrTransport, status, snippet(raw))
	}
	var resp documentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("%w: malformed document response: %v", humanize.ErrTransport, err)
	}
	if resp.Output == nil {
		return "", nil
	}
	return *resp.Output, nil
}

func (c *Client) post(ctx context.Context, path string, body any) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, fmt.Errorf("%w: %v", humanize.ErrTransport, err)
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: encode %s: %v", humanize.ErrTransport, path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: build %s: %v", humanize.ErrTransport, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", c.cfg.APIKey)
	if c.cfg.UserID != "" {
		req.Header.Set("user-id", c.cfg.UserID)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s: %v", humanize.ErrTransport, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: read %s: %v", humanize.ErrTransport, path, err)
	}
	return resp.StatusCode, raw, nil
}

func isQuotaError(code string) bool {
	return strings.Contains(strings.ToLower(code), "insufficient")
}

func describe(resp submitResponse, raw []byte) string {
	switch {
	case resp.Error != "" && resp.Message != "":
		return resp.Error + ": " + resp.Message
	case resp.Error != "":
		return resp.Error
	case resp.Message != "":
		return resp.Message
	default:
		return snippet(raw)
	}
}

func snippet(raw []byte) string {
	const n = 200
	s := strings.TrimSpace(string(raw))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

// compile-time check
var _ humanize.Provider = (*Client)(nil)
