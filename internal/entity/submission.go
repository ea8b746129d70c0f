package entity

import (
	"time"

	"github.com/google/uuid"
)

// Job is the posting a candidate interviews for.
type Job struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Candidate identifies who is being interviewed.
type Candidate struct {
	UID        string `json:"uid"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Experience string `json:"experience"` // e.g. "2 years"
}

// Submission is the immutable interview record persisted once finalization
// succeeds. The per-question data is flattened into parallel sequences at
// this boundary only; all sequences share the question count as their length.
type Submission struct {
	ID              uuid.UUID `json:"id"`
	JobID           string    `json:"job_id"`
	JobTitle        string    `json:"job_title"`
	JobDescription  string    `json:"job_description"`
	CandidateUID    string    `json:"candidate_uid"`
	CandidateName   string    `json:"candidate_name"`
	CandidateEmail  string    `json:"candidate_email"`
	ResumeURL       string    `json:"resume_url"`
	ResumeMimeType  string    `json:"resume_mime_type"`
	Questions       []string  `json:"questions"`
	Answers         []*string `json:"answers"`
	VideoURLs       []*string `json:"video_urls"`
	TranscriptIDs   []*string `json:"transcript_ids"`
	TranscriptTexts []string  `json:"transcript_texts"`
	Feedback        string    `json:"feedback"`
	Score           string    `json:"score"`        // "74/100" or "N/A"
	ResumeScore     string    `json:"resume_score"` // "80/100" or "N/A"
	QnaScore        string    `json:"qna_score"`    // "70/100" or "N/A"
	Status          string    `json:"status"`
	TabSwitchCount  int       `json:"tab_switch_count"`
	SubmittedAt     time.Time `json:"submitted_at"`
}
