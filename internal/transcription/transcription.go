// Package transcription wraps the asynchronous transcription collaborator: a
// request converts a clip URL into a job id, and a bounded poller resolves
// that job to text or a degradation placeholder.
package transcription

import "context"

// Status of an asynchronous transcript job.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Result is one poll observation.
type Result struct {
	Status Status
	Text   string // only meaningful when Status == StatusCompleted
	Error  string // only meaningful when Status == StatusError
}

// Placeholder transcript texts. A missing transcript degrades the final
// evaluation instead of blocking the submission, so every poll outcome maps
// to some text.
const (
	NoSpeechText = "(No speech detected)" // job completed with empty text
	ErrorText    = "Error"                // job reported a terminal error
	EmptyText    = ""                     // no job id, cancelled, or budget exhausted
)

// Requester starts one transcript job for an uploaded media URL.
type Requester interface {
	Request(ctx context.Context, mediaURL string) (string, error)
}

// StatusPoller reads the current state of a transcript job.
type StatusPoller interface {
	Poll(ctx context.Context, jobID string) (Result, error)
}

// Service combines job creation and status reads.
type Service interface {
	Requester
	StatusPoller
}
