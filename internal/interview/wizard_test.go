package interview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/interviewd/internal/entity"
	"github.com/hireloop/interviewd/internal/llm"
	"github.com/hireloop/interviewd/internal/media"
	"github.com/hireloop/interviewd/internal/proctor"
	"github.com/hireloop/interviewd/internal/storage"
	"github.com/hireloop/interviewd/internal/transcription"
)

const testFeedback = "## Evaluation\n\nResume Score: 80\nQ&A Score: 70\nOverall Score: 74"

type fakeLLM struct {
	mu           sync.Mutex
	questions    []string
	questionsErr error
	feedback     string
	feedbackErr  error
	feedbackReq  llm.FeedbackRequest
}

func (f *fakeLLM) GenerateQuestions(_ context.Context, req llm.QuestionRequest) ([]string, error) {
	if f.questionsErr != nil {
		return nil, f.questionsErr
	}
	if f.questions != nil {
		return f.questions, nil
	}
	out := make([]string, req.Count)
	for i := range out {
		out[i] = fmt.Sprintf("Question %d about %s?", i+1, req.JobTitle)
	}
	return out, nil
}

func (f *fakeLLM) GenerateFeedback(_ context.Context, req llm.FeedbackRequest) (string, error) {
	f.mu.Lock()
	f.feedbackReq = req
	f.mu.Unlock()
	if f.feedbackErr != nil {
		return "", f.feedbackErr
	}
	if f.feedback != "" {
		return f.feedback, nil
	}
	return testFeedback, nil
}

type fakeStorage struct {
	mu      sync.Mutex
	uploads int
	kinds   []storage.Kind
	failAt  map[int]error // keyed by upload call number, 1-based
	blobs   map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{failAt: map[int]error{}, blobs: map[string][]byte{}}
}

func (f *fakeStorage) Upload(_ context.Context, data []byte, _ string, kind storage.Kind) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	f.kinds = append(f.kinds, kind)
	if err := f.failAt[f.uploads]; err != nil {
		return "", err
	}
	url := fmt.Sprintf("https://cdn.test/%s/%d", kind, f.uploads)
	f.blobs[url] = data
	return url, nil
}

func (f *fakeStorage) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.blobs[url]
	if !ok {
		return nil, fmt.Errorf("no blob at %s", url)
	}
	return data, nil
}

type fakeTranscripts struct {
	mu       sync.Mutex
	requests int
	failAt   map[int]error // keyed by request call number, 1-based
}

func (f *fakeTranscripts) Request(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	if err := f.failAt[f.requests]; err != nil {
		return "", err
	}
	return fmt.Sprintf("t-%d", f.requests), nil
}

func (f *fakeTranscripts) Poll(_ context.Context, jobID string) (transcription.Result, error) {
	return transcription.Result{Status: transcription.StatusCompleted, Text: "transcript for " + jobID}, nil
}

type fakeStore struct {
	mu      sync.Mutex
	jobs    map[string]*entity.Job
	exists  bool
	created []*entity.Submission
}

func newFakeStore() *fakeStore {
	return &fakeStore{jobs: map[string]*entity.Job{
		"job-1": {ID: "job-1", Title: "Backend Engineer", Description: "Build and operate Go services."},
	}}
}

func (f *fakeStore) GetJob(_ context.Context, id string) (*entity.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, errors.New("job not found")
	}
	return job, nil
}

func (f *fakeStore) UpsertJob(_ context.Context, job *entity.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeStore) CreateSubmission(_ context.Context, sub *entity.Submission) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub.ID = uuid.New()
	sub.SubmittedAt = time.Now()
	f.created = append(f.created, sub)
	return sub.ID, nil
}

func (f *fakeStore) SubmissionExists(_ context.Context, _, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exists, nil
}

func (f *fakeStore) ListSubmissionsByJob(_ context.Context, _ string) ([]*entity.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created, nil
}

type fakeDevice struct {
	mu       sync.Mutex
	acquired int
	released int
}

func (d *fakeDevice) Acquire(_ context.Context) (media.Recorder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.acquired++
	return &fakeRecorder{}, nil
}

func (d *fakeDevice) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.released++
}

type fakeRecorder struct {
	mu        sync.Mutex
	recording bool
	starts    int
}

func (r *fakeRecorder) Start(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return errors.New("recorder already started")
	}
	r.recording = true
	r.starts++
	return nil
}

func (r *fakeRecorder) Stop(_ context.Context) (media.Clip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return media.Clip{}, errors.New("recorder not started")
	}
	r.recording = false
	return media.Clip{Data: []byte(fmt.Sprintf("clip-%d", r.starts)), MimeType: "video/webm"}, nil
}

// recordingObserver stops every answer as soon as recording starts, so loop
// tests finish in milliseconds. It also keeps an ordered event log.
type recordingObserver struct {
	NoopObserver
	wizard *Wizard

	mu        sync.Mutex
	autoStop  bool
	events    []string
	onStarted func(index int)
}

func (o *recordingObserver) StepChanged(from, to Step) {
	o.log(fmt.Sprintf("step:%s->%s", from, to))
}

func (o *recordingObserver) QuestionStarted(index int, _ string) {
	o.log(fmt.Sprintf("question:%d", index))
	if o.onStarted != nil {
		o.onStarted(index)
	}
}

func (o *recordingObserver) PhaseChanged(index int, phase Phase) {
	o.log(fmt.Sprintf("phase:%d:%s", index, phase))
	if o.autoStop && phase == PhaseRecording {
		o.wizard.StopAnswer()
	}
}

func (o *recordingObserver) AnswerCompleted(index int) {
	o.log(fmt.Sprintf("answered:%d", index))
}

func (o *recordingObserver) log(ev string) {
	o.mu.Lock()
	o.events = append(o.events, ev)
	o.mu.Unlock()
}

func (o *recordingObserver) eventList() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.events...)
}

type fixture struct {
	wizard      *Wizard
	llm         *fakeLLM
	storage     *fakeStorage
	transcripts *fakeTranscripts
	store       *fakeStore
	device      *fakeDevice
	observer    *recordingObserver
	visibility  *proctor.FuncSource
}

func testTiming() Timing {
	return Timing{
		CountdownLead: 2 * time.Millisecond,
		AnswerBudget:  250 * time.Millisecond,
		Tick:          time.Millisecond,
	}
}

func newFixture(t *testing.T, questionCount int) *fixture {
	t.Helper()
	f := &fixture{
		llm:         &fakeLLM{},
		storage:     newFakeStorage(),
		transcripts: &fakeTranscripts{failAt: map[int]error{}},
		store:       newFakeStore(),
		device:      &fakeDevice{},
		observer:    &recordingObserver{autoStop: true},
		visibility:  proctor.NewFuncSource(),
	}

	candidate := entity.Candidate{
		UID:        "cand-1",
		FullName:   "Dana Whitfield",
		Email:      "dana@example.com",
		Experience: "2 years",
	}
	f.wizard = NewWizard(candidate, "job-1", Collaborators{
		Questions:   f.llm,
		Feedback:    f.llm,
		Storage:     f.storage,
		Transcripts: f.transcripts,
		Poller:      transcription.NewPoller(f.transcripts, time.Millisecond, 10, nil),
		Jobs:        f.store,
		Submissions: f.store,
		Device:      f.device,
	},
		WithObserver(f.observer),
		WithQuestionCount(questionCount),
		WithTiming(testTiming()),
		WithVisibilitySource(f.visibility),
	)
	f.observer.wizard = f.wizard
	return f
}

func (f *fixture) setup(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.wizard.Start(ctx))
	require.NoError(t, f.wizard.Proceed())
	require.NoError(t, f.wizard.SubmitResume(ctx, ResumeFile{
		Name:     "resume.png",
		MimeType: "image/png",
		Data:     []byte("resume-image"),
	}))
}

func TestFullSession(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	f.setup(t)

	require.Equal(t, StepRunningInterview, f.wizard.Step())
	require.NoError(t, f.wizard.Run(ctx))
	require.Equal(t, StepFinalizing, f.wizard.Step())

	id, err := f.wizard.Finalize(ctx)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)
	require.Equal(t, StepDone, f.wizard.Step())
	require.Equal(t, id, f.wizard.SubmissionID())

	require.Len(t, f.store.created, 1)
	sub := f.store.created[0]

	// identity and job context
	require.Equal(t, "job-1", sub.JobID)
	require.Equal(t, "Backend Engineer", sub.JobTitle)
	require.Equal(t, "cand-1", sub.CandidateUID)
	require.Equal(t, "Dana Whitfield", sub.CandidateName)

	// all parallel sequences share the question count
	require.Len(t, sub.Questions, 3)
	require.Len(t, sub.Answers, 3)
	require.Len(t, sub.VideoURLs, 3)
	require.Len(t, sub.TranscriptIDs, 3)
	require.Len(t, sub.TranscriptTexts, 3)
	for i := 0; i < 3; i++ {
		require.NotNil(t, sub.Answers[i])
		require.Equal(t, "Answered", *sub.Answers[i])
		require.NotNil(t, sub.VideoURLs[i])
		require.NotNil(t, sub.TranscriptIDs[i])
		require.Equal(t, "transcript for "+*sub.TranscriptIDs[i], sub.TranscriptTexts[i])
	}

	// evaluation
	require.Equal(t, testFeedback, sub.Feedback)
	require.Equal(t, "74/100", sub.Score)
	require.Equal(t, "80/100", sub.ResumeScore)
	require.Equal(t, "70/100", sub.QnaScore)
	require.Equal(t, "Pending", sub.Status)
	require.Zero(t, sub.TabSwitchCount)

	// one image upload plus one video per question
	require.Equal(t, 4, f.storage.uploads)
	require.Equal(t, storage.KindImage, f.storage.kinds[0])
	for _, k := range f.storage.kinds[1:] {
		require.Equal(t, storage.KindVideo, k)
	}

	// device held once for the whole loop
	require.Equal(t, 1, f.device.acquired)
	require.Equal(t, 1, f.device.released)
}

func TestFeedbackRequestCarriesSessionData(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	f.setup(t)
	require.NoError(t, f.wizard.Run(ctx))
	_, err := f.wizard.Finalize(ctx)
	require.NoError(t, err)

	req := f.llm.feedbackReq
	require.Equal(t, "Backend Engineer", req.JobTitle)
	require.Equal(t, "2 years", req.Experience)
	require.Equal(t, []byte("resume-image"), req.ResumeImage, "resume fetched back for evaluation")
	require.Len(t, req.Questions, 2)
	require.Len(t, req.Transcripts, 2)
}

func TestQuestionsRunInOrder(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	f.setup(t)
	require.NoError(t, f.wizard.Run(ctx))

	var questions, answered []string
	for _, ev := range f.observer.eventList() {
		switch ev {
		case "question:0", "question:1", "question:2":
			questions = append(questions, ev)
		case "answered:0", "answered:1", "answered:2":
			answered = append(answered, ev)
		}
	}
	require.Equal(t, []string{"question:0", "question:1", "question:2"}, questions)
	require.Equal(t, []string{"answered:0", "answered:1", "answered:2"}, answered)
}

func TestAlreadySubmittedBlocksSession(t *testing.T) {
	f := newFixture(t, 3)
	f.store.exists = true

	err := f.wizard.Start(context.Background())
	require.ErrorIs(t, err, ErrAlreadySubmitted)
	require.Equal(t, StepCheckingPriorSubmission, f.wizard.Step())
}

func TestUnknownJobBlocksSession(t *testing.T) {
	f := newFixture(t, 3)
	delete(f.store.jobs, "job-1")

	err := f.wizard.Start(context.Background())
	require.ErrorIs(t, err, ErrJobNotFound)
	require.Equal(t, StepCheckingPriorSubmission, f.wizard.Step())
}

func TestGenerationFailureReturnsToUpload(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	require.NoError(t, f.wizard.Start(ctx))
	require.NoError(t, f.wizard.Proceed())

	f.llm.questionsErr = errors.New("model overloaded")
	err := f.wizard.SubmitResume(ctx, ResumeFile{Name: "resume.png", MimeType: "image/png", Data: []byte("img")})
	require.ErrorContains(t, err, "question generation failed")
	require.Equal(t, StepAwaitingResumeUpload, f.wizard.Step())
	require.Nil(t, f.wizard.Session(), "no partial session state after a failed attempt")
	require.NotEmpty(t, f.wizard.LastError())

	// retry with the same file succeeds and clears the error
	f.llm.questionsErr = nil
	require.NoError(t, f.wizard.SubmitResume(ctx, ResumeFile{Name: "resume.png", MimeType: "image/png", Data: []byte("img")}))
	require.Equal(t, StepRunningInterview, f.wizard.Step())
	require.Empty(t, f.wizard.LastError())
}

func TestWrongQuestionCountReturnsToUpload(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	require.NoError(t, f.wizard.Start(ctx))
	require.NoError(t, f.wizard.Proceed())

	f.llm.questions = []string{"Only one question about Go services?"}
	err := f.wizard.SubmitResume(ctx, ResumeFile{Name: "resume.png", MimeType: "image/png", Data: []byte("img")})
	require.ErrorContains(t, err, "got 1 questions, want 3")
	require.Equal(t, StepAwaitingResumeUpload, f.wizard.Step())
}

func TestUploadFailureDegradesSlot(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	f.setup(t)

	// upload 1 is the resume image; uploads 2..4 are the answer clips
	f.storage.failAt[3] = errors.New("network down")
	require.NoError(t, f.wizard.Run(ctx))
	_, err := f.wizard.Finalize(ctx)
	require.NoError(t, err)

	sub := f.store.created[0]
	require.NotNil(t, sub.VideoURLs[0])
	require.Nil(t, sub.VideoURLs[1], "failed upload leaves the slot empty")
	require.NotNil(t, sub.VideoURLs[2])
	require.Nil(t, sub.TranscriptIDs[1], "no transcript job without a clip URL")
	require.Equal(t, transcription.EmptyText, sub.TranscriptTexts[1])
	require.NotNil(t, sub.Answers[1], "the slot still counts as answered")
}

func TestTranscriptionRequestFailureDegradesSlot(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	f.setup(t)

	f.transcripts.failAt[3] = errors.New("vendor 500")
	require.NoError(t, f.wizard.Run(ctx))
	_, err := f.wizard.Finalize(ctx)
	require.NoError(t, err)

	sub := f.store.created[0]
	require.NotNil(t, sub.VideoURLs[2], "clip upload succeeded")
	require.Nil(t, sub.TranscriptIDs[2])
	require.Equal(t, transcription.EmptyText, sub.TranscriptTexts[2])
	require.NotEqual(t, transcription.EmptyText, sub.TranscriptTexts[0])
	require.NotEqual(t, transcription.EmptyText, sub.TranscriptTexts[1])
}

func TestTabSwitchesCountedDuringLoopOnly(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	// before the loop: not monitored
	f.visibility.Emit(true)

	f.setup(t)
	f.observer.onStarted = func(index int) {
		if index == 0 {
			f.visibility.Emit(true)
			f.visibility.Emit(false)
			f.visibility.Emit(true)
		}
	}
	require.NoError(t, f.wizard.Run(ctx))

	// after the loop: not monitored
	f.visibility.Emit(true)

	_, err := f.wizard.Finalize(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, f.store.created[0].TabSwitchCount)
	require.Equal(t, 2, f.wizard.Violations())
}

func TestAnswerBudgetExhaustion(t *testing.T) {
	f := newFixture(t, 1)
	f.observer.autoStop = false // let the budget run out
	ctx := context.Background()
	f.setup(t)

	start := time.Now()
	require.NoError(t, f.wizard.Run(ctx))
	require.GreaterOrEqual(t, time.Since(start), testTiming().AnswerBudget)

	_, err := f.wizard.Finalize(ctx)
	require.NoError(t, err)
	require.NotNil(t, f.store.created[0].Answers[0], "budget exhaustion still completes the answer")
}

func TestStopAnswerOutsideRecordingIsNoop(t *testing.T) {
	f := newFixture(t, 1)
	require.False(t, f.wizard.StopAnswer(), "no session yet")

	f.setup(t)
	require.False(t, f.wizard.StopAnswer(), "not recording yet")
}

func TestFinalizeFailureKeepsStep(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	f.setup(t)
	require.NoError(t, f.wizard.Run(ctx))

	f.llm.feedbackErr = errors.New("model overloaded")
	_, err := f.wizard.Finalize(ctx)
	require.ErrorContains(t, err, "generating evaluation")
	require.Equal(t, StepFinalizing, f.wizard.Step(), "terminal failure leaves the wizard retryable")
	require.Empty(t, f.store.created, "nothing persisted on failure")

	// retry succeeds
	f.llm.feedbackErr = nil
	_, err = f.wizard.Finalize(ctx)
	require.NoError(t, err)
	require.Equal(t, StepDone, f.wizard.Step())
}

func TestOutOfOrderCallsRejected(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	require.Error(t, f.wizard.Proceed(), "cannot skip the eligibility check")
	require.Error(t, f.wizard.Run(ctx), "cannot run before setup")
	_, err := f.wizard.Finalize(ctx)
	require.Error(t, err, "cannot finalize before the loop")

	err = f.wizard.SubmitResume(ctx, ResumeFile{MimeType: "image/png", Data: []byte("img")})
	require.Error(t, err, "cannot upload before instructions")
	require.Equal(t, StepCheckingPriorSubmission, f.wizard.Step())
}

func TestRunCancellation(t *testing.T) {
	f := newFixture(t, 3)
	f.observer.autoStop = false
	ctx, cancel := context.WithCancel(context.Background())
	f.setup(t)

	f.observer.onStarted = func(index int) {
		if index == 1 {
			cancel()
		}
	}
	err := f.wizard.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, StepRunningInterview, f.wizard.Step())
	require.Equal(t, 1, f.device.released, "device released on abort")
}

func TestSessionSnapshotIsACopy(t *testing.T) {
	f := newFixture(t, 2)
	f.setup(t)

	snap := f.wizard.Session()
	snap.Questions[0] = "mutated"
	snap.Cursor = 99

	fresh := f.wizard.Session()
	require.NotEqual(t, "mutated", fresh.Questions[0])
	require.Zero(t, fresh.Cursor)
}
