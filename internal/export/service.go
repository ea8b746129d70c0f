// Package export produces reviewer-facing XLSX reports of interview
// submissions.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hireloop/interviewd/internal/entity"
	"github.com/hireloop/interviewd/internal/repository"
)

// Service is a tiny façade over the submission store that produces XLSX bytes
// for recruiter exports.
type Service struct {
	submissions repository.SubmissionStore
	logger      *slog.Logger
}

func NewService(submissions repository.SubmissionStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{submissions: submissions, logger: logger}
}

// ExportSubmissionsXLSX returns an XLSX workbook (as bytes) listing every
// submission for the given job, newest first.
func (s *Service) ExportSubmissionsXLSX(ctx context.Context, jobID string) ([]byte, error) {
	start := time.Now()

	subs, err := s.submissions.ListSubmissionsByJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Submissions"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Submitted At",
		"Candidate",
		"Email",
		"Overall Score",
		"Resume Score",
		"Q&A Score",
		"Status",
		"Tab Switches",
		"Answered",
		"Transcribed",
		"Feedback",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, sub := range subs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, sub.SubmittedAt.UTC().Format("2006-01-02 15:04"))
		write(2, sub.CandidateName)
		write(3, sub.CandidateEmail)
		write(4, sub.Score)
		write(5, sub.ResumeScore)
		write(6, sub.QnaScore)
		write(7, sub.Status)
		write(8, sub.TabSwitchCount)
		write(9, fmt.Sprintf("%d/%d", answeredCount(sub), len(sub.Questions)))
		write(10, fmt.Sprintf("%d/%d", transcribedCount(sub), len(sub.Questions)))
		write(11, truncate(sub.Feedback, 500))

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 18) // timestamp
	_ = f.SetColWidth(sheet, "B", "B", 24) // candidate
	_ = f.SetColWidth(sheet, "C", "C", 30) // email
	_ = f.SetColWidth(sheet, "D", "F", 13) // scores
	_ = f.SetColWidth(sheet, "G", "G", 12) // status
	_ = f.SetColWidth(sheet, "K", "K", 80) // feedback

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"job_id", jobID,
		"rows", len(subs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func answeredCount(sub *entity.Submission) int {
	n := 0
	for _, a := range sub.Answers {
		if a != nil {
			n++
		}
	}
	return n
}

func transcribedCount(sub *entity.Submission) int {
	n := 0
	for _, t := range sub.TranscriptTexts {
		if strings.TrimSpace(t) != "" {
			n++
		}
	}
	return n
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
