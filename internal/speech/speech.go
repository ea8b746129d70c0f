// Package speech narrates question text. Narration is fire-and-forget: the
// session never waits on it, and every exit path cancels whatever is playing.
package speech

import (
	"log/slog"
	"os/exec"
	"sync"
)

// Narrator speaks text aloud. Speak returns immediately; Cancel stops any
// in-flight narration and is safe to call at any time.
type Narrator interface {
	Speak(text string)
	Cancel()
}

// Noop preserves session flow when no narrator is wired.
type Noop struct{}

func (Noop) Speak(string) {}
func (Noop) Cancel()      {}

// CommandNarrator shells out to a text-to-speech binary (espeak, say, ...).
type CommandNarrator struct {
	binary string
	logger *slog.Logger

	mu      sync.Mutex
	current *exec.Cmd
}

func NewCommandNarrator(binary string, logger *slog.Logger) *CommandNarrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandNarrator{binary: binary, logger: logger}
}

func (n *CommandNarrator) Speak(text string) {
	n.Cancel()

	cmd := exec.Command(n.binary, text)
	if err := cmd.Start(); err != nil {
		n.logger.Warn("narration start failed", "binary", n.binary, "error", err)
		return
	}

	n.mu.Lock()
	n.current = cmd
	n.mu.Unlock()

	go func() {
		// Reap the process; narration outcome is never consumed.
		_ = cmd.Wait()
		n.mu.Lock()
		if n.current == cmd {
			n.current = nil
		}
		n.mu.Unlock()
	}()
}

func (n *CommandNarrator) Cancel() {
	n.mu.Lock()
	cmd := n.current
	n.current = nil
	n.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}
