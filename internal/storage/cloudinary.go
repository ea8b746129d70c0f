package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Config for the Cloudinary-style unsigned upload client.
type Config struct {
	BaseURL      string // default https://api.cloudinary.com/v1_1
	CloudName    string
	UploadPreset string
	Timeout      time.Duration
}

// Client uploads blobs through an unsigned upload preset and fetches them
// back by their secure URL.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.cloudinary.com/v1_1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
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

// Upload posts one blob as multipart form data and returns the durable URL.
func (c *Client) Upload(ctx context.Context, data []byte, filename string, kind Kind) (string, error) {
	start := time.Now()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := w.WriteField("upload_preset", c.cfg.UploadPreset); err != nil {
		return "", fmt.Errorf("write upload_preset: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s/upload",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.CloudName, kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage http error: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("storage response body close error", "error", err)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read storage response: %w", err)
	}

	var out struct {
		SecureURL string `json:"secure_url"`
		Error     *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode storage response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || out.Error != nil {
		msg := resp.Status
		if out.Error != nil {
			msg = out.Error.Message
		}
		c.logger.Error("storage.upload.failed", "kind", kind, "status", resp.StatusCode, "error", msg)
		return "", fmt.Errorf("storage upload failed: %s", msg)
	}

	c.logger.Info("storage.upload.ok",
		"kind", kind,
		"bytes", len(data),
		"url", out.SecureURL,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out.SecureURL, nil
}

// Fetch retrieves the blob behind a durable URL.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage http error: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("storage response body close error", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("storage fetch status %d for %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}
