package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hireloop/interviewd/internal/common"
	"github.com/hireloop/interviewd/internal/entity"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS job (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS interview_submission (
	id               TEXT PRIMARY KEY,
	job_id           TEXT NOT NULL,
	job_title        TEXT NOT NULL,
	job_description  TEXT NOT NULL,
	candidate_uid    TEXT NOT NULL,
	candidate_name   TEXT NOT NULL,
	candidate_email  TEXT NOT NULL,
	resume_url       TEXT NOT NULL,
	resume_mime_type TEXT NOT NULL,
	questions        TEXT NOT NULL,
	answers          TEXT NOT NULL,
	video_urls       TEXT NOT NULL,
	transcript_ids   TEXT NOT NULL,
	transcript_texts TEXT NOT NULL,
	feedback         TEXT NOT NULL,
	score            TEXT NOT NULL,
	resume_score     TEXT NOT NULL,
	qna_score        TEXT NOT NULL,
	status           TEXT NOT NULL,
	tab_switch_count INTEGER NOT NULL,
	submitted_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_submission_candidate_job
	ON interview_submission (candidate_uid, job_id);
`

// SQLiteStore implements Store over an embedded database, for local sessions
// and development. Sequences are stored as JSON text.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (and if needed initializes) a sqlite-backed store.
func OpenSQLite(dsn string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// In-memory databases vanish per connection; a single connection keeps
	// one coherent database either way.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema: %w", err)
	}
	logger.Info("sqlite store ready", "dsn", dsn)
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() {
	if err := s.db.Close(); err != nil {
		s.logger.Warn("sqlite close failed", "error", err)
	}
}

func (s *SQLiteStore) GetJob(ctx context.Context, id string) (*entity.Job, error) {
	var job entity.Job
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description FROM job WHERE id = ?`, id,
	).Scan(&job.ID, &job.Title, &job.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("JOB_NOT_FOUND", fmt.Sprintf("job %s", id), common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *SQLiteStore) UpsertJob(ctx context.Context, job *entity.Job) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO job (id, title, description) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET title = excluded.title, description = excluded.description`,
		job.ID, job.Title, job.Description)
	return err
}

func (s *SQLiteStore) SubmissionExists(ctx context.Context, candidateUID, jobID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM interview_submission WHERE candidate_uid = ? AND job_id = ?`,
		candidateUID, jobID,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) CreateSubmission(ctx context.Context, sub *entity.Submission) (uuid.UUID, error) {
	id := sub.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	submittedAt := time.Now().UTC()

	questions, answers, videoURLs, transcriptIDs, transcriptTexts, err := marshalSequences(sub)
	if err != nil {
		return uuid.Nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO interview_submission (
			id, job_id, job_title, job_description,
			candidate_uid, candidate_name, candidate_email,
			resume_url, resume_mime_type,
			questions, answers, video_urls, transcript_ids, transcript_texts,
			feedback, score, resume_score, qna_score,
			status, tab_switch_count, submitted_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		id.String(), sub.JobID, sub.JobTitle, sub.JobDescription,
		sub.CandidateUID, sub.CandidateName, sub.CandidateEmail,
		sub.ResumeURL, sub.ResumeMimeType,
		string(questions), string(answers), string(videoURLs), string(transcriptIDs), string(transcriptTexts),
		sub.Feedback, sub.Score, sub.ResumeScore, sub.QnaScore,
		sub.Status, sub.TabSwitchCount, submittedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		s.logger.Error("create submission failed", "job_id", sub.JobID, "candidate_uid", sub.CandidateUID, "error", err)
		return uuid.Nil, err
	}

	sub.ID = id
	sub.SubmittedAt = submittedAt
	s.logger.Info("submission persisted", "submission_id", id, "job_id", sub.JobID, "candidate_uid", sub.CandidateUID)
	return id, nil
}

func (s *SQLiteStore) ListSubmissionsByJob(ctx context.Context, jobID string) ([]*entity.Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, job_title, job_description,
			candidate_uid, candidate_name, candidate_email,
			resume_url, resume_mime_type,
			questions, answers, video_urls, transcript_ids, transcript_texts,
			feedback, score, resume_score, qna_score,
			status, tab_switch_count, submitted_at
		 FROM interview_submission WHERE job_id = ? ORDER BY submitted_at DESC`,
		jobID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.Submission
	for rows.Next() {
		var sub entity.Submission
		var id, submittedAt string
		var questions, answers, videoURLs, transcriptIDs, transcriptTexts string
		if err := rows.Scan(
			&id, &sub.JobID, &sub.JobTitle, &sub.JobDescription,
			&sub.CandidateUID, &sub.CandidateName, &sub.CandidateEmail,
			&sub.ResumeURL, &sub.ResumeMimeType,
			&questions, &answers, &videoURLs, &transcriptIDs, &transcriptTexts,
			&sub.Feedback, &sub.Score, &sub.ResumeScore, &sub.QnaScore,
			&sub.Status, &sub.TabSwitchCount, &submittedAt,
		); err != nil {
			return nil, err
		}
		if sub.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse submission id %q: %w", id, err)
		}
		if sub.SubmittedAt, err = time.Parse(time.RFC3339Nano, submittedAt); err != nil {
			return nil, fmt.Errorf("parse submitted_at %q: %w", submittedAt, err)
		}
		if err := unmarshalSequences(&sub,
			[]byte(questions), []byte(answers), []byte(videoURLs), []byte(transcriptIDs), []byte(transcriptTexts),
		); err != nil {
			return nil, err
		}
		out = append(out, &sub)
	}
	return out, rows.Err()
}
