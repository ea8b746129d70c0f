package interview

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hireloop/interviewd/constants"
	"github.com/hireloop/interviewd/internal/entity"
	"github.com/hireloop/interviewd/internal/llm"
	"github.com/hireloop/interviewd/internal/transcription"
)

// Finalize turns the finished session into a persisted submission: resolve
// every transcript job, fetch the resume image back, generate the evaluation,
// parse its scores, and write the record. Transcript resolution degrades to
// placeholders; resume fetch, evaluation and persistence are terminal
// failures, after which the wizard stays in the finalizing step so the call
// can be retried.
func (w *Wizard) Finalize(ctx context.Context) (uuid.UUID, error) {
	w.mu.RLock()
	step := w.step
	sess := w.session.clone()
	w.mu.RUnlock()
	if step != StepFinalizing || sess == nil {
		return uuid.Nil, invalidTransition(step, StepDone)
	}

	w.observer.StatusMessage("Processing your responses...")
	texts := w.resolveTranscripts(ctx, sess)
	w.mu.Lock()
	for i := range texts {
		t := texts[i]
		w.session.Answers[i].TranscriptText = &t
	}
	w.mu.Unlock()

	img, err := w.collab.Storage.Fetch(ctx, sess.ResumeURL)
	if err != nil {
		return uuid.Nil, w.failFinalize("fetching resume image", err)
	}

	w.observer.StatusMessage("Analyzing your performance...")
	feedback, err := w.collab.Feedback.GenerateFeedback(ctx, llm.FeedbackRequest{
		JobTitle:       sess.JobTitle,
		JobDescription: sess.JobDescription,
		Experience:     w.candidate.Experience,
		ResumeImage:    img,
		ResumeMimeType: sess.ResumeMimeType,
		Questions:      sess.Questions,
		Transcripts:    texts,
	})
	if err != nil {
		return uuid.Nil, w.failFinalize("generating evaluation", err)
	}
	scores := llm.ParseScores(feedback)

	sub := w.buildSubmission(sess, texts, feedback, scores)
	id, err := w.collab.Submissions.CreateSubmission(ctx, sub)
	if err != nil {
		return uuid.Nil, w.failFinalize("persisting submission", err)
	}

	w.mu.Lock()
	w.submissionID = id
	w.mu.Unlock()
	if err := w.transition(StepDone); err != nil {
		return uuid.Nil, err
	}
	w.logger.Info("session.finalized", "submission_id", id,
		"score", scores.Overall, "tab_switches", sub.TabSwitchCount)
	return id, nil
}

// resolveTranscripts polls every requested transcript job concurrently. Slots
// without a job id resolve to the empty placeholder immediately; the poller
// itself never fails, it degrades.
func (w *Wizard) resolveTranscripts(ctx context.Context, sess *Session) []string {
	texts := make([]string, len(sess.Answers))
	g, ctx := errgroup.WithContext(ctx)
	for i := range sess.Answers {
		jobID := sess.Answers[i].TranscriptJobID
		if jobID == nil {
			texts[i] = transcription.EmptyText
			continue
		}
		i, id := i, *jobID
		g.Go(func() error {
			texts[i] = w.collab.Poller.Await(ctx, id)
			return nil
		})
	}
	_ = g.Wait()
	return texts
}

// buildSubmission flattens the session into the persistence record's parallel
// sequences. Every sequence has the question count as its length.
func (w *Wizard) buildSubmission(sess *Session, texts []string, feedback string, scores llm.Scores) *entity.Submission {
	n := len(sess.Questions)
	answers := make([]*string, n)
	videoURLs := make([]*string, n)
	transcriptIDs := make([]*string, n)
	for i, a := range sess.Answers {
		if a.Status != "" {
			s := string(a.Status)
			answers[i] = &s
		}
		videoURLs[i] = cloneStr(a.ClipURL)
		transcriptIDs[i] = cloneStr(a.TranscriptJobID)
	}

	return &entity.Submission{
		JobID:           sess.JobID,
		JobTitle:        sess.JobTitle,
		JobDescription:  sess.JobDescription,
		CandidateUID:    w.candidate.UID,
		CandidateName:   w.candidate.FullName,
		CandidateEmail:  w.candidate.Email,
		ResumeURL:       sess.ResumeURL,
		ResumeMimeType:  sess.ResumeMimeType,
		Questions:       sess.Questions,
		Answers:         answers,
		VideoURLs:       videoURLs,
		TranscriptIDs:   transcriptIDs,
		TranscriptTexts: texts,
		Feedback:        feedback,
		Score:           scores.Overall,
		ResumeScore:     scores.Resume,
		QnaScore:        scores.QnA,
		Status:          string(constants.ReviewStatusPending),
		TabSwitchCount:  w.monitor.Violations(),
	}
}

func (w *Wizard) failFinalize(stage string, cause error) error {
	w.logger.Error("session.finalize_failed", "stage", stage, "job_id", w.jobID, "error", cause)
	return fmt.Errorf("%s: %w", stage, cause)
}
