package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hireloop/interviewd/internal/llm"
)

func geminiReply(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	})
	return string(b)
}

func questionReq(count int) llm.QuestionRequest {
	return llm.QuestionRequest{
		JobTitle:       "Backend Engineer",
		JobDescription: "Build and operate Go services.",
		Experience:     "2 years",
		ResumeImage:    []byte("png-bytes"),
		ResumeMimeType: "image/png",
		Count:          count,
	}
}

func TestGenerateQuestions(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, geminiReply(`{"questions":["Walk me through a Go service you designed end to end.","How do you manage goroutine lifecycles in long-running workers?"]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, Model: "gemini-2.5-flash"}, nil)
	questions, err := c.GenerateQuestions(context.Background(), questionReq(2))
	require.NoError(t, err)
	require.Len(t, questions, 2)
	require.Equal(t, "Walk me through a Go service you designed end to end.", questions[0])

	require.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", gotPath)
	require.Equal(t, "test-key", gotKey)
	gen, ok := gotBody["generationConfig"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "application/json", gen["responseMimeType"])
}

func TestGenerateQuestionsStripsCodeFences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fenced := "```json\n{\"questions\":[\"Walk me through a Go service you designed end to end.\",\"How do you manage goroutine lifecycles in long-running workers?\"]}\n```"
		fmt.Fprint(w, geminiReply(fenced))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	questions, err := c.GenerateQuestions(context.Background(), questionReq(2))
	require.NoError(t, err)
	require.Len(t, questions, 2)
}

func TestGenerateQuestionsRejectsWrongCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, geminiReply(`{"questions":["Walk me through a Go service you designed end to end."]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	_, err := c.GenerateQuestions(context.Background(), questionReq(2))
	require.ErrorContains(t, err, "schema validation failed")
}

func TestGenerateQuestionsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	_, err := c.GenerateQuestions(context.Background(), questionReq(2))
	require.ErrorContains(t, err, "429")
}

func TestGenerateFeedback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, geminiReply("## Evaluation\n\nResume Score: 80\nQ&A Score: 70\nOverall Score: 74"))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	feedback, err := c.GenerateFeedback(context.Background(), llm.FeedbackRequest{
		JobTitle:       "Backend Engineer",
		ResumeImage:    []byte("png"),
		ResumeMimeType: "image/png",
		Questions:      []string{"Tell me about yourself."},
		Transcripts:    []string{"I build Go services."},
	})
	require.NoError(t, err)
	require.Contains(t, feedback, "Overall Score: 74")
}

func TestGenerateFeedbackNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	_, err := c.GenerateFeedback(context.Background(), llm.FeedbackRequest{})
	require.ErrorContains(t, err, "no candidates")
}

func TestStripCodeFences(t *testing.T) {
	require.Equal(t, `{"a":1}`, stripCodeFences("```json\n{\"a\":1}\n```"))
	require.Equal(t, `{"a":1}`, stripCodeFences("```\n{\"a\":1}\n```"))
	require.Equal(t, `{"a":1}`, stripCodeFences(`{"a":1}`))
}
