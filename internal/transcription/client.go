package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Config for the AssemblyAI-style transcription client.
type Config struct {
	BaseURL string // default https://api.assemblyai.com
	APIKey  string
	Timeout time.Duration
}

// Client implements Service over the vendor's HTTP API.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.assemblyai.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Request submits a media URL for transcription and returns the job id.
func (c *Client) Request(ctx context.Context, mediaURL string) (string, error) {
	body, err := json.Marshal(map[string]string{"audio_url": mediaURL})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v2/transcript"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("authorization", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	raw, status, err := c.do(req)
	if err != nil {
		return "", err
	}

	var out struct {
		ID    string `json:"id"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode transcription response: %w", err)
	}
	if status < 200 || status >= 300 {
		msg := out.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", status)
		}
		return "", fmt.Errorf("transcription request failed: %s", msg)
	}
	if out.ID == "" {
		return "", fmt.Errorf("transcription response missing job id")
	}

	c.logger.Info("transcription.request.ok", "job_id", out.ID, "media_url", mediaURL)
	return out.ID, nil
}

// Poll reads the current status of a transcript job.
func (c *Client) Poll(ctx context.Context, jobID string) (Result, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v2/transcript/" + jobID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("authorization", c.cfg.APIKey)

	raw, status, err := c.do(req)
	if err != nil {
		return Result{}, err
	}
	if status < 200 || status >= 300 {
		return Result{}, fmt.Errorf("transcript status %d for job %s", status, jobID)
	}

	var out struct {
		Status string `json:"status"`
		Text   string `json:"text"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return Result{}, fmt.Errorf("decode transcript status: %w", err)
	}

	return Result{
		Status: Status(out.Status),
		Text:   strings.TrimSpace(out.Text),
		Error:  out.Error,
	}, nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("transcription http error: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("transcription response body close error", "error", err)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read transcription response: %w", err)
	}
	return raw, resp.StatusCode, nil
}
