// Package app wires all hexavox subsystems into a running trainer.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run executes the practice loop alongside the status server,
// and Shutdown tears everything down in order.
//
// For testing, inject doubles via functional options (WithDisplay,
// WithSpeaker, etc.). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/hexavox/internal/config"
	"github.com/MrWong99/hexavox/internal/health"
	"github.com/MrWong99/hexavox/internal/listener"
	"github.com/MrWong99/hexavox/internal/observe"
	"github.com/MrWong99/hexavox/internal/progress"
	"github.com/MrWong99/hexavox/internal/web"
	"github.com/MrWong99/hexavox/pkg/audio"
	"github.com/MrWong99/hexavox/pkg/braille"
	"github.com/MrWong99/hexavox/pkg/display"
	"github.com/MrWong99/hexavox/pkg/feedback"
	"github.com/MrWong99/hexavox/pkg/intent"
	"github.com/MrWong99/hexavox/pkg/provider/stt"
)

// Spoken prompts. The retry prompt covers both timeouts and speech that did
// not resolve; the invalid prompt covers letters outside the braille table.
const (
	phraseRetry   = "I didn't understand, please try again"
	phraseInvalid = "Please say a letter from A to Z"
	phraseGoodbye = "Goodbye!"
)

// unknownHold is how long misheard text stays on viewers before the reset
// clears it.
const unknownHold = time.Second

// errSessionEnded marks the learner ending the session by voice. It travels
// through the errgroup so the status server winds down with the loop, and
// Run translates it back to a clean nil.
var errSessionEnded = errors.New("practice session ended")

// Providers holds the hardware-facing pieces main.go builds from the config
// registry: the capture backend and exactly one recognition engine. Nil
// slots are allowed here; the listener rejects impossible combinations.
type Providers struct {
	// Source is the microphone backend.
	Source audio.Source

	// Streaming is the incremental recognizer, set when the configured
	// engine streams (vosk).
	Streaming stt.StreamingRecognizer

	// Buffered is the whole-utterance recognizer, set for batch engines
	// (whisper).
	Buffered stt.UtteranceRecognizer
}

// App owns all subsystem lifetimes and orchestrates the practice loop.
type App struct {
	cfg       *config.Config
	providers *Providers

	// Subsystems — initialised in New, torn down in Shutdown.
	session *listener.Session
	history *progress.Store
	display display.Display
	hub     *web.Hub
	server  *web.Server
	metrics *observe.Metrics

	logLevel *slog.LevelVar

	// Hot-reloadable state, guarded by mu.
	mu      sync.Mutex
	speaker feedback.Speaker
	hold    time.Duration

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithDisplay injects a display instead of creating the simulation device.
func WithDisplay(d display.Display) Option {
	return func(a *App) { a.display = d }
}

// WithSpeaker injects a speaker instead of building one from config.
func WithSpeaker(s feedback.Speaker) Option {
	return func(a *App) { a.speaker = s }
}

// WithHistory injects a practice history store instead of opening the
// configured database.
func WithHistory(s *progress.Store) Option {
	return func(a *App) { a.history = s }
}

// WithMetrics injects a metrics bundle instead of the process default.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithLogLevel hands the app the log handler's level var so config reloads
// can retune verbosity at runtime.
func WithLogLevel(lv *slog.LevelVar) Option {
	return func(a *App) { a.logLevel = lv }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via the config registry). Use Option
// functions to inject test doubles for any subsystem.
//
// New performs all initialisation synchronously, including device
// negotiation: a missing capture device or an unreachable history database
// fails here, not mid-practice.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil {
		providers = &Providers{}
	}
	a := &App{
		cfg:       cfg,
		providers: providers,
		hold:      cfg.Display.Hold(),
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// ── 1. Practice history ──────────────────────────────────────────────
	if err := a.initHistory(ctx); err != nil {
		return nil, fmt.Errorf("app: init history: %w", err)
	}

	// ── 2. Feedback speaker ──────────────────────────────────────────────
	a.initSpeaker()

	// ── 3. Display ───────────────────────────────────────────────────────
	a.initDisplay()

	// ── 4. Listening session ─────────────────────────────────────────────
	if err := a.initListener(); err != nil {
		return nil, fmt.Errorf("app: init listener: %w", err)
	}

	// ── 5. Status server ─────────────────────────────────────────────────
	a.initWeb()

	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

// initHistory opens the configured practice store unless one was injected.
func (a *App) initHistory(ctx context.Context) error {
	if a.history == nil {
		store, err := progress.Open(ctx, a.cfg.Progress.Path)
		if err != nil {
			return err
		}
		a.history = store
	}
	a.closers = append(a.closers, a.history.Close)
	return nil
}

// initSpeaker builds the spoken-feedback channel from config unless one was
// injected. The speaker can be swapped by a config reload, so the closer
// resolves the current one at shutdown.
func (a *App) initSpeaker() {
	if a.speaker == nil {
		a.speaker = speakerFromConfig(a.cfg.Feedback)
	}
	a.closers = append(a.closers, func() error { return a.currentSpeaker().Close() })
}

// initDisplay falls back to the simulation device printing to stdout, which
// doubles as the console braille grid output.
func (a *App) initDisplay() {
	if a.display == nil {
		a.display = display.NewSimulation(os.Stdout)
	}
	a.closers = append(a.closers, a.display.Close)
}

// initListener assembles the capture-and-resolve pipeline and negotiates the
// device up front so structural capture problems abort startup.
func (a *App) initListener() error {
	sess, err := listener.New(listener.Config{
		Source:               a.providers.Source,
		Streaming:            a.providers.Streaming,
		Buffered:             a.providers.Buffered,
		Engine:               string(a.cfg.Recognizer.Engine),
		DeviceIndex:          a.cfg.Audio.DeviceIndex,
		SampleRate:           a.cfg.Audio.SampleRate,
		AutoDetectSampleRate: a.cfg.Audio.AutoDetectSampleRate,
		FrameSize:            a.cfg.Audio.FrameSize,
		Tuning:               tuningFromConfig(a.cfg.Endpoint),
		ConfidenceThreshold:  a.cfg.Recognizer.ConfidenceThreshold,
		Metrics:              a.metrics,
		ArchiveDir:           a.cfg.Archive.Dir,
	})
	if err != nil {
		return err
	}
	if _, _, err := sess.Negotiate(); err != nil {
		return err
	}
	a.session = sess
	return nil
}

// initWeb creates the broadcast hub and, when a listen address is set, the
// HTTP server around it. With no address the hub still exists and broadcasts
// are cheap no-ops.
func (a *App) initWeb() {
	a.hub = web.NewHub(a.metrics)
	a.closers = append(a.closers, func() error {
		a.hub.Close()
		return nil
	})

	if a.cfg.Server.ListenAddr == "" {
		slog.Info("status server disabled; no listen address configured")
		return
	}
	a.server = web.NewServer(a.cfg.Server.ListenAddr, a.hub, a.metrics, a.readinessChecks()...)
}

// readinessChecks lists the dependencies /readyz verifies.
func (a *App) readinessChecks() []health.Checker {
	checks := []health.Checker{
		{
			Name: "capture",
			Check: func(context.Context) error {
				_, err := a.session.Devices()
				return err
			},
		},
	}
	if a.history.Enabled() {
		checks = append(checks, health.Checker{Name: "history", Check: a.history.Ping})
	}
	return checks
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run starts the practice loop and the status server and blocks until the
// learner exits by voice or ctx is cancelled. A voice exit returns nil;
// cancellation returns the context error.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if a.server != nil {
		g.Go(func() error { return a.server.Run(ctx) })
	}
	g.Go(func() error { return a.practice(ctx) })

	slog.Info("trainer running",
		"engine", a.cfg.Recognizer.Engine,
		"listen_addr", a.cfg.Server.ListenAddr,
	)

	err := g.Wait()
	if errors.Is(err, errSessionEnded) {
		return nil
	}
	return err
}

// practice runs rounds until the learner says an exit phrase. Timeouts and
// unresolved speech prompt the learner and loop again; only structural
// capture failures propagate.
func (a *App) practice(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		res, err := a.session.Listen(ctx, 0)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("app: listen: %w", err)
		}
		if res.TimedOut {
			a.record(ctx, progress.Attempt{Outcome: progress.OutcomeTimeout})
			a.hub.Broadcast(web.Status(web.StatusListening))
			a.speak(ctx, phraseRetry)
			continue
		}

		a.hub.Broadcast(web.Recognition(res.Heard))

		switch res.Intent.Kind {
		case intent.KindLetter:
			a.presentLetter(ctx, res)
		case intent.KindExit:
			a.record(ctx, attemptFromResult(progress.OutcomeExit, res))
			a.hub.Broadcast(web.Reset())
			a.speak(ctx, phraseGoodbye)
			slog.Info("practice ended by voice")
			return errSessionEnded
		default:
			a.handleUnknown(ctx, res)
		}
	}
}

// presentLetter pushes a resolved letter to every output surface, holds it,
// then clears for the next round.
func (a *App) presentLetter(ctx context.Context, res listener.Result) {
	pattern, ok := braille.ForLetter(res.Intent.Letter)
	if !ok {
		// The resolver only produces a..z, so a miss here is a table bug,
		// not learner error.
		slog.Error("no braille pattern for resolved letter", "letter", string(res.Intent.Letter))
		a.speak(ctx, phraseInvalid)
		return
	}

	a.hub.Broadcast(web.Letter(res.Intent.Letter, pattern))
	if err := a.display.SetPattern(pattern); err != nil {
		slog.Warn("setting display pattern failed", "err", err)
	}
	a.record(ctx, attemptFromResult(progress.OutcomeLetter, res))

	a.speak(ctx, fmt.Sprintf("Letter %c", unicode.ToUpper(res.Intent.Letter)))

	a.waitFor(ctx, a.currentHold())

	if err := a.display.Reset(); err != nil {
		slog.Warn("resetting display failed", "err", err)
	}
	a.hub.Broadcast(web.Reset())
}

// handleUnknown logs a nearest-phrase diagnostic, prompts the learner, and
// briefly leaves the misheard text on viewers before clearing it. The
// suggestion stays diagnostic: practising a guessed letter would be worse
// than asking again.
func (a *App) handleUnknown(ctx context.Context, res listener.Result) {
	if sug, ok := intent.Suggest(res.Heard); ok {
		slog.Info("unresolved speech", "heard", res.Heard, "closest", sug.Phrase, "score", sug.Score)
	} else {
		slog.Info("unresolved speech", "heard", res.Heard)
	}
	a.record(ctx, attemptFromResult(progress.OutcomeUnknown, res))
	a.speak(ctx, phraseRetry)
	a.waitFor(ctx, unknownHold)
	a.hub.Broadcast(web.Reset())
}

// record persists one practice round, best effort.
func (a *App) record(ctx context.Context, att progress.Attempt) {
	if err := a.history.Record(ctx, att); err != nil {
		slog.Warn("recording practice round failed", "err", err)
	}
}

// speak voices a phrase, best effort. Feedback never aborts a round.
func (a *App) speak(ctx context.Context, phrase string) {
	if err := a.currentSpeaker().Speak(ctx, phrase); err != nil && ctx.Err() == nil {
		slog.Debug("spoken feedback failed", "phrase", phrase, "err", err)
	}
}

// waitFor blocks for d or until ctx is cancelled, whichever comes first.
func (a *App) waitFor(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// ─── Hot reload ──────────────────────────────────────────────────────────────

// ApplyConfig applies the safely hot-reloadable differences between old and
// new. It is wired as the config watcher callback; engine and device changes
// still need a restart.
func (a *App) ApplyConfig(old, new *config.Config) {
	d := config.Diff(old, new)
	if !d.Any() {
		return
	}

	if d.LogLevelChanged && a.logLevel != nil {
		a.logLevel.Set(d.NewLogLevel.Level())
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.EndpointChanged {
		a.session.SetTuning(tuningFromConfig(d.NewEndpoint))
		slog.Info("endpoint tuning updated",
			"silence_threshold", d.NewEndpoint.SilenceEnergyThreshold,
			"trailing_silence", d.NewEndpoint.TrailingSilence(),
			"min_speech", d.NewEndpoint.MinSpeech(),
			"max_recording", d.NewEndpoint.MaxRecording(),
		)
	}
	if d.ThresholdChanged {
		a.session.SetConfidenceThreshold(d.NewThreshold)
		slog.Info("confidence threshold updated", "threshold", d.NewThreshold)
	}
	if d.DisplayHoldChanged {
		a.setHold(d.NewDisplayHold.Hold())
		slog.Info("display hold updated", "hold", d.NewDisplayHold.Hold())
	}
	if d.FeedbackChanged {
		a.setSpeaker(speakerFromConfig(d.NewFeedback))
		slog.Info("feedback speaker rebuilt",
			"enabled", d.NewFeedback.Enabled,
			"command", d.NewFeedback.Command,
		)
	}
}

func (a *App) currentSpeaker() feedback.Speaker {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.speaker
}

// setSpeaker swaps in a new speaker and closes the old one. A phrase being
// voiced right now finishes on the old speaker.
func (a *App) setSpeaker(s feedback.Speaker) {
	a.mu.Lock()
	old := a.speaker
	a.speaker = s
	a.mu.Unlock()
	if old != nil {
		if err := old.Close(); err != nil {
			slog.Warn("closing replaced speaker failed", "err", err)
		}
	}
}

func (a *App) currentHold() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hold
}

func (a *App) setHold(d time.Duration) {
	a.mu.Lock()
	a.hold = d
	a.mu.Unlock()
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems in order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// tuningFromConfig converts endpoint config to listener tuning.
func tuningFromConfig(ec config.EndpointConfig) listener.Tuning {
	return listener.Tuning{
		SilenceThreshold: ec.SilenceEnergyThreshold,
		TrailingSilence:  ec.TrailingSilence(),
		MinSpeech:        ec.MinSpeech(),
		MaxRecording:     ec.MaxRecording(),
	}
}

// speakerFromConfig builds the configured speaker; disabled feedback yields
// the silent one.
func speakerFromConfig(fc config.FeedbackConfig) feedback.Speaker {
	if !fc.Enabled {
		return feedback.Null{}
	}
	if fc.Command == "" {
		return feedback.NewDefault()
	}
	return feedback.NewExec(fc.Command, fc.Args...)
}

// attemptFromResult carries a listen result into the history schema.
func attemptFromResult(outcome progress.Outcome, res listener.Result) progress.Attempt {
	att := progress.Attempt{
		Outcome:       outcome,
		Heard:         res.Heard,
		Confidence:    res.Confidence,
		HasConfidence: res.HasConfidence,
	}
	if outcome == progress.OutcomeLetter {
		att.Letter = string(res.Intent.Letter)
	}
	return att
}
