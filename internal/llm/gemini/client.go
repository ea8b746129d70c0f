package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hireloop/interviewd/internal/llm"
)

// part is one element of a generateContent request payload.
type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

// GenerateQuestions implements llm.QuestionGenerator. The model is asked for a
// JSON object matching a schema with exactly req.Count question strings; the
// payload is validated locally before being accepted.
func (c *Client) GenerateQuestions(ctx context.Context, req llm.QuestionRequest) ([]string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.questions.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"job_title", req.JobTitle,
		"count", req.Count,
		"resume_bytes", len(req.ResumeImage),
		"resume_mime", req.ResumeMimeType,
	)

	schema := llm.BuildQuestionsJSONSchema(req.Count)
	prompt := llm.BuildQuestionPrompt(req) + "\n\nJSON Schema:\n" + mustJSON(schema)

	parts := []part{
		{Text: prompt},
		{InlineData: &inlineData{
			MimeType: req.ResumeMimeType,
			Data:     base64.StdEncoding.EncodeToString(req.ResumeImage),
		}},
	}

	text, err := c.generateContent(ctx, parts, true)
	if err != nil {
		c.logger.Error("llm.questions.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	raw := []byte(stripCodeFences(text))
	if err := llm.ValidateJSONAgainstSchema(schema, raw); err != nil {
		c.logger.Error("llm.questions.schema_validation_failed",
			"req_id", rid, "error", err, "content", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var out struct {
		Questions []string `json:"questions"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal questions: %w", err)
	}
	for i, q := range out.Questions {
		out.Questions[i] = strings.TrimSpace(q)
	}

	c.logger.Info("llm.questions.ok",
		"req_id", rid,
		"questions", len(out.Questions),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out.Questions, nil
}

// GenerateFeedback implements llm.FeedbackGenerator. The response is free-form
// markdown; score extraction happens downstream.
func (c *Client) GenerateFeedback(ctx context.Context, req llm.FeedbackRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.feedback.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"job_title", req.JobTitle,
		"questions", len(req.Questions),
		"transcripts", len(req.Transcripts),
	)

	parts := []part{
		{Text: llm.BuildFeedbackPrompt(req)},
		{InlineData: &inlineData{
			MimeType: req.ResumeMimeType,
			Data:     base64.StdEncoding.EncodeToString(req.ResumeImage),
		}},
	}

	text, err := c.generateContent(ctx, parts, false)
	if err != nil {
		c.logger.Error("llm.feedback.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	c.logger.Info("llm.feedback.ok",
		"req_id", rid,
		"feedback_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

// generateContent posts one generateContent request and joins the text parts
// of the first candidate.
func (c *Client) generateContent(ctx context.Context, parts []part, jsonResponse bool) (string, error) {
	body := map[string]any{
		"contents": []map[string]any{
			{"parts": parts},
		},
	}
	if jsonResponse {
		body["generationConfig"] = map[string]any{
			"responseMimeType": "application/json",
		}
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model)
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		return "", err
	}

	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in gemini response")
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("empty text in gemini response")
	}
	return text, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini http error: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("gemini response body close error", "error", err)
		}
	}()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read gemini response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gemini status %d: %s", resp.StatusCode, buf.String())
	}
	return buf.Bytes(), nil
}

// stripCodeFences removes a surrounding markdown code fence if the model
// wrapped its JSON in one despite the response mime type.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
