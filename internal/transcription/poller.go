package transcription

import (
	"context"
	"log/slog"
	"time"
)

// Poller resolves a transcript job to text within a fixed attempt budget.
// Exhausting the budget is a silent degradation (EmptyText), never a failure:
// a slow transcript must not block the whole submission.
type Poller struct {
	poller   StatusPoller
	interval time.Duration
	attempts int
	logger   *slog.Logger
}

func NewPoller(poller StatusPoller, interval time.Duration, attempts int, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if attempts <= 0 {
		attempts = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		poller:   poller,
		interval: interval,
		attempts: attempts,
		logger:   logger,
	}
}

// Await polls jobID once per interval until a terminal outcome or the attempt
// budget runs out. It always returns usable transcript text:
//   - completed with text  -> the text
//   - completed, empty     -> NoSpeechText
//   - error (any attempt)  -> ErrorText, immediately
//   - budget exhausted     -> EmptyText
//   - context cancelled    -> EmptyText
func (p *Poller) Await(ctx context.Context, jobID string) string {
	for attempt := 1; attempt <= p.attempts; attempt++ {
		select {
		case <-ctx.Done():
			p.logger.Warn("transcript poll cancelled", "job_id", jobID, "attempt", attempt)
			return EmptyText
		case <-time.After(p.interval):
		}

		res, err := p.poller.Poll(ctx, jobID)
		if err != nil {
			p.logger.Warn("transcript poll failed", "job_id", jobID, "attempt", attempt, "error", err)
			return ErrorText
		}

		switch res.Status {
		case StatusCompleted:
			if res.Text == "" {
				return NoSpeechText
			}
			return res.Text
		case StatusError:
			p.logger.Warn("transcript job errored", "job_id", jobID, "attempt", attempt, "error", res.Error)
			return ErrorText
		default:
			// queued or processing: consume one attempt and keep waiting
		}
	}

	p.logger.Warn("transcript poll budget exhausted", "job_id", jobID, "attempts", p.attempts)
	return EmptyText
}
