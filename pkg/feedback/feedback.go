// Package feedback voices short confirmations to the learner.
//
// Spoken feedback is best-effort: the trainer never fails because a
// synthesizer is missing, it just goes quiet. The exec-backed speaker invokes
// an external command (espeak-ng by default) once per phrase; machines
// without one get the disabled speaker behavior automatically.
package feedback

import (
	"context"
	"log/slog"
	"os/exec"
	"sync"
)

// Speaker voices short phrases to the learner.
type Speaker interface {
	// Speak voices the phrase, blocking until playback finishes or ctx is
	// cancelled. Implementations are best-effort; callers may log but should
	// not abort on errors.
	Speak(ctx context.Context, phrase string) error

	// Close releases the speaker.
	Close() error
}

// Null is a Speaker that discards every phrase.
type Null struct{}

// Speak implements [Speaker] by doing nothing.
func (Null) Speak(context.Context, string) error { return nil }

// Close implements [Speaker].
func (Null) Close() error { return nil }

var _ Speaker = Null{}

// DefaultCommand is the synthesizer invoked when none is configured.
const DefaultCommand = "espeak-ng"

// DefaultArgs are the arguments preceding the phrase for the default
// synthesizer: English voice at a learner-friendly speaking rate.
var DefaultArgs = []string{"-v", "en", "-s", "150"}

// Compile-time assertion that Exec satisfies Speaker.
var _ Speaker = (*Exec)(nil)

// Exec speaks by running an external synthesizer command per phrase, with the
// phrase appended as the final argument. Phrases are serialized so
// confirmations never talk over each other.
type Exec struct {
	mu        sync.Mutex
	command   string
	args      []string
	available bool
	logger    *slog.Logger
}

// NewExec returns a speaker invoking the given command. When the command is
// not on PATH the speaker comes up disabled: Speak turns into a no-op and a
// single warning is logged here.
func NewExec(command string, args ...string) *Exec {
	e := &Exec{
		command: command,
		args:    args,
		logger:  slog.With("component", "feedback"),
	}
	if _, err := exec.LookPath(command); err != nil {
		e.logger.Warn("speech synthesizer not found, spoken feedback disabled", "command", command)
		return e
	}
	e.available = true
	return e
}

// NewDefault returns an Exec speaker for [DefaultCommand].
func NewDefault() *Exec {
	return NewExec(DefaultCommand, DefaultArgs...)
}

// Available reports whether the synthesizer command was found at
// construction.
func (e *Exec) Available() bool { return e.available }

// Speak runs the synthesizer with the phrase as last argument. On a disabled
// speaker it returns nil immediately.
func (e *Exec) Speak(ctx context.Context, phrase string) error {
	if !e.available || phrase == "" {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	args := make([]string, 0, len(e.args)+1)
	args = append(args, e.args...)
	args = append(args, phrase)
	if err := exec.CommandContext(ctx, e.command, args...).Run(); err != nil {
		e.logger.Debug("synthesizer invocation failed", "command", e.command, "error", err)
		return err
	}
	return nil
}

// Close implements [Speaker].
func (e *Exec) Close() error { return nil }
