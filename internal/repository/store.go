package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/hireloop/interviewd/internal/entity"
)

// JobStore reads and seeds job postings.
type JobStore interface {
	GetJob(ctx context.Context, id string) (*entity.Job, error)
	UpsertJob(ctx context.Context, job *entity.Job) error
}

// SubmissionStore persists finalized interview records. Submissions are
// immutable: there is no update path.
type SubmissionStore interface {
	// CreateSubmission persists one record and returns its id; the
	// submission timestamp is assigned server-side.
	CreateSubmission(ctx context.Context, sub *entity.Submission) (uuid.UUID, error)
	// SubmissionExists reports whether the candidate already completed an
	// interview for this job.
	SubmissionExists(ctx context.Context, candidateUID, jobID string) (bool, error)
	// ListSubmissionsByJob returns all records for a job, newest first.
	ListSubmissionsByJob(ctx context.Context, jobID string) ([]*entity.Submission, error)
}

// Store is the full persistence surface.
type Store interface {
	JobStore
	SubmissionStore
	Ping(ctx context.Context) error
	Close()
}
