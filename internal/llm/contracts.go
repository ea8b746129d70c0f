package llm

import "context"

// QuestionRequest carries everything the generator needs to tailor questions.
type QuestionRequest struct {
	JobTitle       string
	JobDescription string
	Experience     string // candidate's stated experience, e.g. "2 years"
	ResumeImage    []byte // rasterized resume
	ResumeMimeType string
	Count          int // exactly this many questions are required
}

// FeedbackRequest carries the finished interview for evaluation. Questions and
// Transcripts are index-aligned; a missing transcript slot is an empty string.
type FeedbackRequest struct {
	JobTitle       string
	JobDescription string
	Experience     string
	ResumeImage    []byte
	ResumeMimeType string
	Questions      []string
	Transcripts    []string
}

// QuestionGenerator produces exactly Count interview questions.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, req QuestionRequest) ([]string, error)
}

// FeedbackGenerator returns one unstructured evaluation document containing
// the three labeled "<n>/100" score lines parsed by ParseScores.
type FeedbackGenerator interface {
	GenerateFeedback(ctx context.Context, req FeedbackRequest) (string, error)
}
