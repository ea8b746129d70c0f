package llm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseScores(t *testing.T) {
	feedback := `## Evaluation

The candidate showed solid fundamentals.

Resume Score: 80
Q&A Score: 70
Overall Score: 74

Keep practicing system design questions.`

	got := ParseScores(feedback)
	require.Equal(t, "80/100", got.Resume)
	require.Equal(t, "70/100", got.QnA)
	require.Equal(t, "74/100", got.Overall)
}

func TestParseScoresCaseInsensitive(t *testing.T) {
	got := ParseScores("resume score: 55\nq&a score: 60\noverall score: 58")
	require.Equal(t, "55/100", got.Resume)
	require.Equal(t, "60/100", got.QnA)
	require.Equal(t, "58/100", got.Overall)
}

func TestParseScoresMissingLabels(t *testing.T) {
	got := ParseScores("Great interview, no numbers here.")
	require.Equal(t, ScoreUnavailable, got.Resume)
	require.Equal(t, ScoreUnavailable, got.QnA)
	require.Equal(t, ScoreUnavailable, got.Overall)
}

func TestParseScoresPartial(t *testing.T) {
	got := ParseScores("Overall Score: 90")
	require.Equal(t, ScoreUnavailable, got.Resume)
	require.Equal(t, ScoreUnavailable, got.QnA)
	require.Equal(t, "90/100", got.Overall)
}

func TestParseScoresTakesFirstMatch(t *testing.T) {
	got := ParseScores("Overall Score: 42\n...\nOverall Score: 99")
	require.Equal(t, "42/100", got.Overall)
}
