package interview

// Phase is the recording sub-state of the active question. It only exists
// while the wizard is running the interview loop.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseCountdown    Phase = "countdown"
	PhaseRecording    Phase = "recording"
	PhaseStopping     Phase = "stopping"
	PhaseUploading    Phase = "uploading"
	PhaseTranscribing Phase = "transcribing"
	PhaseDone         Phase = "done"
)

// Observer receives session progress callbacks. Callbacks fire synchronously
// on the session goroutine and must return quickly; they may call StopAnswer.
type Observer interface {
	StepChanged(from, to Step)
	StatusMessage(msg string)
	QuestionStarted(index int, question string)
	PhaseChanged(index int, phase Phase)
	CountdownTick(index, remaining int)
	RecordingTick(index, remaining int)
	AnswerCompleted(index int)
}

// NoopObserver is the default when no observer is wired.
type NoopObserver struct{}

func (NoopObserver) StepChanged(Step, Step)      {}
func (NoopObserver) StatusMessage(string)        {}
func (NoopObserver) QuestionStarted(int, string) {}
func (NoopObserver) PhaseChanged(int, Phase)     {}
func (NoopObserver) CountdownTick(int, int)      {}
func (NoopObserver) RecordingTick(int, int)      {}
func (NoopObserver) AnswerCompleted(int)         {}
