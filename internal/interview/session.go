package interview

import (
	"github.com/hireloop/interviewd/constants"
	"github.com/hireloop/interviewd/internal/entity"
)

// Answer is the per-question record. Slots fill independently as the
// recording pipeline progresses; a nil field means that stage failed or has
// not happened yet. TranscriptText is only ever set during finalization, and
// only after ClipURL and TranscriptJobID were set.
type Answer struct {
	Status          constants.AnswerStatus
	ClipURL         *string
	TranscriptJobID *string
	TranscriptText  *string
}

// Session is the interview state created when question generation succeeds.
// It is append-only: slots fill, sequences never shrink, and the cursor only
// moves forward.
type Session struct {
	JobID          string
	JobTitle       string
	JobDescription string
	ResumeURL      string
	ResumeMimeType string
	Questions      []string
	Answers        []Answer
	Cursor         int
}

func newSession(job *entity.Job, resumeURL, resumeMime string, questions []string) *Session {
	return &Session{
		JobID:          job.ID,
		JobTitle:       job.Title,
		JobDescription: job.Description,
		ResumeURL:      resumeURL,
		ResumeMimeType: resumeMime,
		Questions:      questions,
		Answers:        make([]Answer, len(questions)),
		Cursor:         0,
	}
}

// clone returns a deep copy safe to hand outside the wizard's lock.
func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Questions = append([]string(nil), s.Questions...)
	out.Answers = make([]Answer, len(s.Answers))
	for i, a := range s.Answers {
		out.Answers[i] = Answer{Status: a.Status}
		out.Answers[i].ClipURL = cloneStr(a.ClipURL)
		out.Answers[i].TranscriptJobID = cloneStr(a.TranscriptJobID)
		out.Answers[i].TranscriptText = cloneStr(a.TranscriptText)
	}
	return &out
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
