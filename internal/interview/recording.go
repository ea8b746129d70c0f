package interview

import (
	"context"
	"fmt"
	"time"

	"github.com/hireloop/interviewd/constants"
	"github.com/hireloop/interviewd/internal/storage"
)

// runQuestion drives one question through the recording pipeline: narration
// and countdown, bounded recording, stop, then the upload and transcription
// kickoff. Upload and transcription failures degrade the slot instead of
// failing the session; only context cancellation and capture errors abort.
// It reports whether this was the final question.
func (w *Wizard) runQuestion(ctx context.Context, idx int) (bool, error) {
	w.mu.Lock()
	question := w.session.Questions[idx]
	// Fresh stop latch per question: a stale stop request from the previous
	// question must not cut this one short.
	stop := make(chan struct{}, 1)
	w.stop = stop
	w.mu.Unlock()

	w.setPhase(idx, PhaseCountdown)
	w.observer.QuestionStarted(idx, question)
	w.collab.Narrator.Cancel()
	w.collab.Narrator.Speak(question)

	ticker := time.NewTicker(w.timing.Tick)
	defer ticker.Stop()

	remaining := int(w.timing.CountdownLead / w.timing.Tick)
	w.observer.CountdownTick(idx, remaining)
	for remaining > 0 {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
			remaining--
			w.observer.CountdownTick(idx, remaining)
		}
	}

	w.collab.Narrator.Cancel()
	if err := w.recorder.Start(ctx); err != nil {
		return false, fmt.Errorf("starting recording for question %d: %w", idx+1, err)
	}
	w.setPhase(idx, PhaseRecording)

	remaining = int(w.timing.AnswerBudget / w.timing.Tick)
	w.observer.RecordingTick(idx, remaining)
	stopped := false
	for !stopped && remaining > 0 {
		select {
		case <-ctx.Done():
			// Best effort teardown of the in-flight capture.
			_, _ = w.recorder.Stop(context.WithoutCancel(ctx))
			return false, ctx.Err()
		case <-stop:
			stopped = true
		case <-ticker.C:
			remaining--
			w.observer.RecordingTick(idx, remaining)
		}
	}

	// Explicit stop and an exhausted budget land on the same path.
	w.setPhase(idx, PhaseStopping)
	clip, stopErr := w.recorder.Stop(ctx)

	var clipURL, transcriptJobID *string
	if stopErr != nil {
		w.logger.Warn("answer.capture_failed", "question", idx+1, "error", stopErr)
	} else {
		w.setPhase(idx, PhaseUploading)
		url, err := w.collab.Storage.Upload(ctx, clip.Data, fmt.Sprintf("answer-%d.webm", idx+1), storage.KindVideo)
		if err != nil {
			w.logger.Warn("answer.upload_failed", "question", idx+1, "error", err)
		} else {
			clipURL = &url
			w.setPhase(idx, PhaseTranscribing)
			jobID, err := w.collab.Transcripts.Request(ctx, url)
			if err != nil {
				w.logger.Warn("answer.transcription_request_failed", "question", idx+1, "error", err)
			} else {
				transcriptJobID = &jobID
			}
		}
	}

	w.mu.Lock()
	slot := &w.session.Answers[idx]
	slot.Status = constants.AnswerStatusAnswered
	slot.ClipURL = clipURL
	slot.TranscriptJobID = transcriptJobID
	last := idx >= len(w.session.Questions)-1
	if !last {
		w.session.Cursor = idx + 1
	}
	w.phase = PhaseDone
	w.stop = nil
	w.mu.Unlock()

	w.observer.PhaseChanged(idx, PhaseDone)
	w.observer.AnswerCompleted(idx)
	w.logger.Info("answer.completed", "question", idx+1,
		"has_clip", clipURL != nil, "has_transcript_job", transcriptJobID != nil)
	return last, nil
}

func (w *Wizard) setPhase(idx int, phase Phase) {
	w.mu.Lock()
	w.phase = phase
	w.mu.Unlock()
	w.observer.PhaseChanged(idx, phase)
}
