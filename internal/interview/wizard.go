package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hireloop/interviewd/internal/entity"
	"github.com/hireloop/interviewd/internal/llm"
	"github.com/hireloop/interviewd/internal/media"
	"github.com/hireloop/interviewd/internal/proctor"
	"github.com/hireloop/interviewd/internal/raster"
	"github.com/hireloop/interviewd/internal/repository"
	"github.com/hireloop/interviewd/internal/speech"
	"github.com/hireloop/interviewd/internal/storage"
	"github.com/hireloop/interviewd/internal/transcription"
)

var (
	// ErrAlreadySubmitted aborts the session before it starts: one
	// submission per candidate per job.
	ErrAlreadySubmitted = errors.New("interview already submitted for this job")
	// ErrJobNotFound aborts the session when the posting does not exist.
	ErrJobNotFound = errors.New("job not found")
)

// Timing groups the session's clock parameters. Zero values take the
// production defaults; tests shrink them to milliseconds.
type Timing struct {
	CountdownLead time.Duration // pre-recording countdown
	AnswerBudget  time.Duration // max recording length per question
	Tick          time.Duration // observer tick cadence
}

func (t Timing) withDefaults() Timing {
	if t.CountdownLead <= 0 {
		t.CountdownLead = 5 * time.Second
	}
	if t.AnswerBudget <= 0 {
		t.AnswerBudget = 2 * time.Minute
	}
	if t.Tick <= 0 {
		t.Tick = time.Second
	}
	return t
}

// Collaborators are the external services the wizard orchestrates. Questions,
// Feedback, Storage, Transcripts, Poller, Jobs, Submissions and Device are
// required; Narrator and Rasterizer have noop/identity fallbacks.
type Collaborators struct {
	Questions   llm.QuestionGenerator
	Feedback    llm.FeedbackGenerator
	Storage     storage.Store
	Transcripts transcription.Requester
	Poller      *transcription.Poller
	Jobs        repository.JobStore
	Submissions repository.SubmissionStore
	Device      media.Device
	Narrator    speech.Narrator
	Rasterizer  raster.Rasterizer
}

// Wizard drives one candidate's interview for one job from eligibility check
// through persisted submission. It is single-session: create a new Wizard per
// attempt. Methods are safe for concurrent use; the interview loop itself runs
// on the goroutine that calls Run.
type Wizard struct {
	logger        *slog.Logger
	collab        Collaborators
	timing        Timing
	questionCount int
	observer      Observer
	visibility    proctor.Source
	candidate     entity.Candidate
	jobID         string

	monitor *proctor.Monitor

	mu           sync.RWMutex
	step         Step
	phase        Phase
	job          *entity.Job
	session      *Session
	recorder     media.Recorder
	stop         chan struct{}
	lastErr      string // recoverable setup failure, shown to the candidate
	submissionID uuid.UUID
}

// Option customizes a Wizard.
type Option func(*Wizard)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Wizard) { w.logger = logger }
}

func WithObserver(o Observer) Option {
	return func(w *Wizard) { w.observer = o }
}

func WithTiming(t Timing) Option {
	return func(w *Wizard) { w.timing = t }
}

// WithVisibilitySource wires the proctoring signal. Without it the tab switch
// count stays zero.
func WithVisibilitySource(src proctor.Source) Option {
	return func(w *Wizard) { w.visibility = src }
}

func WithQuestionCount(n int) Option {
	return func(w *Wizard) {
		if n > 0 {
			w.questionCount = n
		}
	}
}

// NewWizard builds a session wizard for one candidate and job.
func NewWizard(candidate entity.Candidate, jobID string, collab Collaborators, opts ...Option) *Wizard {
	w := &Wizard{
		logger:        slog.Default(),
		collab:        collab,
		questionCount: 5,
		observer:      NoopObserver{},
		candidate:     candidate,
		jobID:         jobID,
		monitor:       proctor.NewMonitor(),
		step:          StepCheckingPriorSubmission,
		phase:         PhaseIdle,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.timing = w.timing.withDefaults()
	if w.collab.Narrator == nil {
		w.collab.Narrator = speech.Noop{}
	}
	return w
}

// Step returns the wizard's current state.
func (w *Wizard) Step() Step {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.step
}

// Phase returns the recording sub-state of the active question.
func (w *Wizard) Phase() Phase {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.phase
}

// Job returns the posting loaded during Start, or nil before it.
func (w *Wizard) Job() *entity.Job {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.job == nil {
		return nil
	}
	j := *w.job
	return &j
}

// Session returns a snapshot of the interview state, or nil before questions
// were generated.
func (w *Wizard) Session() *Session {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.session.clone()
}

// Violations returns the tab switches counted so far.
func (w *Wizard) Violations() int {
	return w.monitor.Violations()
}

// LastError returns the most recent recoverable failure message, cleared on
// the next successful setup attempt.
func (w *Wizard) LastError() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastErr
}

// SubmissionID returns the persisted record id once finalization succeeded.
func (w *Wizard) SubmissionID() uuid.UUID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.submissionID
}

// transition moves the wizard to the next step after validating the edge.
func (w *Wizard) transition(to Step) error {
	w.mu.Lock()
	from := w.step
	if !isValidTransition(from, to) {
		w.mu.Unlock()
		return invalidTransition(from, to)
	}
	w.step = to
	w.mu.Unlock()

	w.logger.Info("session.step", "from", from, "to", to, "job_id", w.jobID, "candidate_uid", w.candidate.UID)
	w.observer.StepChanged(from, to)
	return nil
}

// Start runs the eligibility check: the job must exist and the candidate must
// not have a prior submission for it. On success the wizard shows the
// instructions step; both failure modes abort the session for good.
func (w *Wizard) Start(ctx context.Context) error {
	if got := w.Step(); got != StepCheckingPriorSubmission {
		return invalidTransition(got, StepShowingInstructions)
	}

	exists, err := w.collab.Submissions.SubmissionExists(ctx, w.candidate.UID, w.jobID)
	if err != nil {
		return fmt.Errorf("checking prior submission: %w", err)
	}
	if exists {
		w.logger.Warn("session.blocked", "reason", "already_submitted", "job_id", w.jobID, "candidate_uid", w.candidate.UID)
		return ErrAlreadySubmitted
	}

	job, err := w.collab.Jobs.GetJob(ctx, w.jobID)
	if err != nil {
		w.logger.Warn("session.blocked", "reason", "job_lookup", "job_id", w.jobID, "error", err)
		return fmt.Errorf("%w: %s", ErrJobNotFound, w.jobID)
	}

	w.mu.Lock()
	w.job = job
	w.mu.Unlock()
	return w.transition(StepShowingInstructions)
}

// Proceed acknowledges the instructions and moves to resume upload.
func (w *Wizard) Proceed() error {
	return w.transition(StepAwaitingResumeUpload)
}

// ResumeFile is the uploaded resume document.
type ResumeFile struct {
	Name     string
	MimeType string
	Data     []byte
}

// SubmitResume runs the whole setup pipeline atomically: rasterize the
// document, upload the image, generate the question set. Any failure returns
// the wizard to the upload step with no partial session state; the candidate
// retries with the same or another file.
func (w *Wizard) SubmitResume(ctx context.Context, file ResumeFile) error {
	if err := w.transition(StepGeneratingQuestions); err != nil {
		return err
	}

	img, mime, err := w.prepareResumeImage(ctx, file)
	if err != nil {
		return w.failSetup("resume processing failed", err)
	}

	w.observer.StatusMessage("Analyzing resume...")
	url, err := w.collab.Storage.Upload(ctx, img, imageName(file.Name), storage.KindImage)
	if err != nil {
		return w.failSetup("resume upload failed", err)
	}

	w.observer.StatusMessage("Generating tailored questions...")
	job := w.Job()
	questions, err := w.collab.Questions.GenerateQuestions(ctx, llm.QuestionRequest{
		JobTitle:       job.Title,
		JobDescription: job.Description,
		Experience:     w.candidate.Experience,
		ResumeImage:    img,
		ResumeMimeType: mime,
		Count:          w.questionCount,
	})
	if err != nil {
		return w.failSetup("question generation failed", err)
	}
	if len(questions) != w.questionCount {
		return w.failSetup("question generation failed",
			fmt.Errorf("got %d questions, want %d", len(questions), w.questionCount))
	}

	w.mu.Lock()
	w.session = newSession(w.job, url, mime, questions)
	w.lastErr = ""
	w.mu.Unlock()

	w.logger.Info("session.ready", "job_id", w.jobID, "questions", len(questions), "resume_url", url)
	return w.transition(StepRunningInterview)
}

func (w *Wizard) prepareResumeImage(ctx context.Context, file ResumeFile) ([]byte, string, error) {
	if raster.IsImageMime(file.MimeType) {
		return file.Data, file.MimeType, nil
	}
	if w.collab.Rasterizer == nil {
		return nil, "", fmt.Errorf("unsupported resume format: %s", file.MimeType)
	}
	w.observer.StatusMessage("Converting document to image...")
	img, err := w.collab.Rasterizer.RasterizeFirstPage(ctx, file.Data, file.MimeType)
	if err != nil {
		return nil, "", err
	}
	return img, "image/png", nil
}

// failSetup records a recoverable setup failure and returns the wizard to the
// resume upload step. The returned error carries the cause for the caller.
func (w *Wizard) failSetup(msg string, cause error) error {
	w.logger.Warn("session.setup_failed", "job_id", w.jobID, "reason", msg, "error", cause)
	w.mu.Lock()
	w.lastErr = msg
	w.session = nil
	w.mu.Unlock()
	if err := w.transition(StepAwaitingResumeUpload); err != nil {
		return err
	}
	return fmt.Errorf("%s: %w", msg, cause)
}

// Run executes the interview loop: acquire the capture device, start
// proctoring, record every question in order, then move to finalization.
// It returns early only on context cancellation or a capture failure; in both
// cases the wizard stays in the running step.
func (w *Wizard) Run(ctx context.Context) error {
	w.mu.RLock()
	step, sess := w.step, w.session
	w.mu.RUnlock()
	if step != StepRunningInterview || sess == nil {
		return invalidTransition(step, StepFinalizing)
	}

	recorder, err := w.collab.Device.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring capture device: %w", err)
	}
	defer w.collab.Device.Release()

	w.mu.Lock()
	w.recorder = recorder
	w.mu.Unlock()

	if w.visibility != nil {
		w.monitor.Start(w.visibility)
		defer w.monitor.Stop()
	}
	defer w.collab.Narrator.Cancel()

	for {
		w.mu.RLock()
		idx := w.session.Cursor
		w.mu.RUnlock()

		last, err := w.runQuestion(ctx, idx)
		if err != nil {
			return err
		}
		if last {
			break
		}
	}

	return w.transition(StepFinalizing)
}

// StopAnswer requests an early stop of the in-flight recording. It reports
// whether the request was accepted; outside the recording phase it is a no-op,
// and repeated requests collapse into one.
func (w *Wizard) StopAnswer() bool {
	w.mu.RLock()
	phase, ch := w.phase, w.stop
	w.mu.RUnlock()
	if phase != PhaseRecording || ch == nil {
		return false
	}
	select {
	case ch <- struct{}{}:
	default:
	}
	return true
}

func imageName(original string) string {
	if original == "" {
		return "resume.png"
	}
	return original
}
