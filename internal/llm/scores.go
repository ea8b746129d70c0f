package llm

import "regexp"

// ScoreUnavailable is the sentinel stored when a labeled score line cannot be
// located in the feedback document. Parsing free-form model output is
// best-effort and must never fail the finalization pipeline.
const ScoreUnavailable = "N/A"

var (
	resumeScoreRe  = regexp.MustCompile(`(?i)Resume Score:\s*(\d{1,3})`)
	qnaScoreRe     = regexp.MustCompile(`(?i)Q&A Score:\s*(\d{1,3})`)
	overallScoreRe = regexp.MustCompile(`(?i)Overall Score:\s*(\d{1,3})`)
)

// Scores holds the three evaluation scores in their persisted "<n>/100" form.
type Scores struct {
	Resume  string
	QnA     string
	Overall string
}

// ParseScores extracts the labeled score lines from a feedback document.
// A label that is missing or malformed yields ScoreUnavailable for that slot.
func ParseScores(feedback string) Scores {
	return Scores{
		Resume:  parseScore(resumeScoreRe, feedback),
		QnA:     parseScore(qnaScoreRe, feedback),
		Overall: parseScore(overallScoreRe, feedback),
	}
}

func parseScore(re *regexp.Regexp, feedback string) string {
	m := re.FindStringSubmatch(feedback)
	if m == nil {
		return ScoreUnavailable
	}
	return m[1] + "/100"
}
