package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hireloop/interviewd/internal/common"
	"github.com/hireloop/interviewd/internal/entity"
)

// PostgresStore implements Store over a pgx pool. Per-question sequences are
// stored as jsonb columns; the submitted_at timestamp is assigned by the
// database.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresStore(pool *pgxpool.Pool, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{pool: pool, logger: logger}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) GetJob(ctx context.Context, id string) (*entity.Job, error) {
	var job entity.Job
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, description FROM job WHERE id = $1`, id,
	).Scan(&job.ID, &job.Title, &job.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NewAppError("JOB_NOT_FOUND", fmt.Sprintf("job %s", id), common.ErrNotFound)
	}
	if err != nil {
		s.logger.Error("get job failed", "job_id", id, "error", err)
		return nil, err
	}
	return &job, nil
}

func (s *PostgresStore) UpsertJob(ctx context.Context, job *entity.Job) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO job (id, title, description) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, description = EXCLUDED.description`,
		job.ID, job.Title, job.Description)
	if err != nil {
		s.logger.Error("upsert job failed", "job_id", job.ID, "error", err)
	}
	return err
}

func (s *PostgresStore) SubmissionExists(ctx context.Context, candidateUID, jobID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM interview_submission WHERE candidate_uid = $1 AND job_id = $2)`,
		candidateUID, jobID,
	).Scan(&exists)
	if err != nil {
		s.logger.Error("submission exists check failed", "candidate_uid", candidateUID, "job_id", jobID, "error", err)
		return false, err
	}
	return exists, nil
}

func (s *PostgresStore) CreateSubmission(ctx context.Context, sub *entity.Submission) (uuid.UUID, error) {
	id := sub.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	questions, answers, videoURLs, transcriptIDs, transcriptTexts, err := marshalSequences(sub)
	if err != nil {
		return uuid.Nil, err
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO interview_submission (
			id, job_id, job_title, job_description,
			candidate_uid, candidate_name, candidate_email,
			resume_url, resume_mime_type,
			questions, answers, video_urls, transcript_ids, transcript_texts,
			feedback, score, resume_score, qna_score,
			status, tab_switch_count, submitted_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20, now())
		RETURNING submitted_at`,
		id, sub.JobID, sub.JobTitle, sub.JobDescription,
		sub.CandidateUID, sub.CandidateName, sub.CandidateEmail,
		sub.ResumeURL, sub.ResumeMimeType,
		questions, answers, videoURLs, transcriptIDs, transcriptTexts,
		sub.Feedback, sub.Score, sub.ResumeScore, sub.QnaScore,
		sub.Status, sub.TabSwitchCount,
	).Scan(&sub.SubmittedAt)
	if err != nil {
		s.logger.Error("create submission failed", "job_id", sub.JobID, "candidate_uid", sub.CandidateUID, "error", err)
		return uuid.Nil, err
	}

	sub.ID = id
	s.logger.Info("submission persisted", "submission_id", id, "job_id", sub.JobID, "candidate_uid", sub.CandidateUID)
	return id, nil
}

func (s *PostgresStore) ListSubmissionsByJob(ctx context.Context, jobID string) ([]*entity.Submission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, job_id, job_title, job_description,
			candidate_uid, candidate_name, candidate_email,
			resume_url, resume_mime_type,
			questions, answers, video_urls, transcript_ids, transcript_texts,
			feedback, score, resume_score, qna_score,
			status, tab_switch_count, submitted_at
		 FROM interview_submission WHERE job_id = $1 ORDER BY submitted_at DESC`,
		jobID)
	if err != nil {
		s.logger.Error("list submissions failed", "job_id", jobID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Submission
	for rows.Next() {
		var sub entity.Submission
		var questions, answers, videoURLs, transcriptIDs, transcriptTexts []byte
		if err := rows.Scan(
			&sub.ID, &sub.JobID, &sub.JobTitle, &sub.JobDescription,
			&sub.CandidateUID, &sub.CandidateName, &sub.CandidateEmail,
			&sub.ResumeURL, &sub.ResumeMimeType,
			&questions, &answers, &videoURLs, &transcriptIDs, &transcriptTexts,
			&sub.Feedback, &sub.Score, &sub.ResumeScore, &sub.QnaScore,
			&sub.Status, &sub.TabSwitchCount, &sub.SubmittedAt,
		); err != nil {
			return nil, err
		}
		if err := unmarshalSequences(&sub, questions, answers, videoURLs, transcriptIDs, transcriptTexts); err != nil {
			return nil, err
		}
		out = append(out, &sub)
	}
	return out, rows.Err()
}

func marshalSequences(sub *entity.Submission) (questions, answers, videoURLs, transcriptIDs, transcriptTexts []byte, err error) {
	if questions, err = json.Marshal(sub.Questions); err != nil {
		return
	}
	if answers, err = json.Marshal(sub.Answers); err != nil {
		return
	}
	if videoURLs, err = json.Marshal(sub.VideoURLs); err != nil {
		return
	}
	if transcriptIDs, err = json.Marshal(sub.TranscriptIDs); err != nil {
		return
	}
	transcriptTexts, err = json.Marshal(sub.TranscriptTexts)
	return
}

func unmarshalSequences(sub *entity.Submission, questions, answers, videoURLs, transcriptIDs, transcriptTexts []byte) error {
	if err := json.Unmarshal(questions, &sub.Questions); err != nil {
		return err
	}
	if err := json.Unmarshal(answers, &sub.Answers); err != nil {
		return err
	}
	if err := json.Unmarshal(videoURLs, &sub.VideoURLs); err != nil {
		return err
	}
	if err := json.Unmarshal(transcriptIDs, &sub.TranscriptIDs); err != nil {
		return err
	}
	return json.Unmarshal(transcriptTexts, &sub.TranscriptTexts)
}
