// Package interview coordinates the mock-interview session: the wizard state
// machine, the per-question recording sub-machine, and the finalization
// pipeline that turns a finished session into a persisted submission.
package interview

import "fmt"

// Step identifies the wizard's single active state.
type Step string

const (
	StepCheckingPriorSubmission Step = "checking-prior-submission"
	StepShowingInstructions     Step = "showing-instructions"
	StepAwaitingResumeUpload    Step = "awaiting-resume-upload"
	StepGeneratingQuestions     Step = "generating-questions"
	StepRunningInterview        Step = "running-interview"
	StepFinalizing              Step = "finalizing"
	StepDone                    Step = "done"
)

// isValidTransition enforces the allowed wizard edges. The flow is
// one-directional, except that a failed setup attempt returns from question
// generation to the resume upload step.
func isValidTransition(from, to Step) bool {
	switch from {
	case StepCheckingPriorSubmission:
		return to == StepShowingInstructions
	case StepShowingInstructions:
		return to == StepAwaitingResumeUpload
	case StepAwaitingResumeUpload:
		return to == StepGeneratingQuestions
	case StepGeneratingQuestions:
		return to == StepRunningInterview || to == StepAwaitingResumeUpload
	case StepRunningInterview:
		return to == StepFinalizing
	case StepFinalizing:
		return to == StepDone
	default:
		return false
	}
}

func invalidTransition(from, to Step) error {
	return fmt.Errorf("invalid transition: %s -> %s", from, to)
}
