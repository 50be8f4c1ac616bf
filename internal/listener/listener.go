// Package listener runs the capture-and-resolve pipeline: microphone frames
// flow through energy analysis and utterance endpointing into a speech
// engine, and accepted transcripts come back out as resolved intents.
//
// A [Session] owns one logical pipeline. Listen is synchronous and blocking;
// callers that want to keep a UI responsive run it on a dedicated goroutine
// and consume the returned [Result]. Within a session, frames are processed
// strictly in arrival order and the endpoint detector is never shared, so a
// Session must not be listened on concurrently.
package listener

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/MrWong99/hexavox/internal/observe"
	"github.com/MrWong99/hexavox/pkg/audio"
	"github.com/MrWong99/hexavox/pkg/intent"
	"github.com/MrWong99/hexavox/pkg/provider/stt"
)

// DefaultDevice selects the backend's default input device in [Config].
const DefaultDevice = -1

// Tuning holds the endpoint detector knobs that may be re-tuned while the
// trainer is running. Values are applied on the next Listen call.
type Tuning struct {
	// SilenceThreshold is the RMS energy separating speech from silence.
	SilenceThreshold float64

	// TrailingSilence ends an utterance after this much continuous quiet.
	TrailingSilence time.Duration

	// MinSpeech discards shorter utterances as noise.
	MinSpeech time.Duration

	// MaxRecording force-ends an utterance regardless of silence.
	MaxRecording time.Duration
}

// Config assembles a [Session]. Exactly one of Streaming or Buffered must be
// set; the other recognition mode stays nil.
type Config struct {
	// Source provides devices and capture streams.
	Source audio.Source

	// Streaming is the incremental engine (grammar-constrained). The session
	// feeds it utterance frames as they arrive and flushes it at the
	// endpoint.
	Streaming stt.StreamingRecognizer

	// Buffered is the whole-utterance engine. The session hands it the
	// complete endpointed utterance in one call.
	Buffered stt.UtteranceRecognizer

	// Engine names the recognizer for logs and metrics.
	Engine string

	// DeviceIndex selects the capture device; DefaultDevice uses the
	// backend default.
	DeviceIndex int

	// SampleRate fixes the capture rate in Hz. Zero negotiates one.
	SampleRate int

	// AutoDetectSampleRate verifies the rate by probing the device instead
	// of trusting SampleRate or the device default.
	AutoDetectSampleRate bool

	// FrameSize is the per-frame sample count delivered by capture reads.
	FrameSize int

	// Tuning is the initial endpoint detector tuning.
	Tuning Tuning

	// ConfidenceThreshold is the minimum mean word confidence; zero selects
	// the built-in default.
	ConfidenceThreshold float64

	// Vocabulary is the phrase list handed to streaming sessions. Nil uses
	// the trainer grammar (intent.GrammarPhrases).
	Vocabulary []string

	// Metrics receives pipeline instrumentation. Nil uses the package
	// default instruments.
	Metrics *observe.Metrics

	// ArchiveDir, when non-empty, receives every emitted utterance as a WAV
	// file for offline inspection.
	ArchiveDir string
}

// Result is the outcome of one listen attempt. Exactly one of the following
// holds: TimedOut is set, or Intent carries the resolution (possibly
// Unknown) of an accepted transcript.
type Result struct {
	// Intent is the resolved command. Meaningless when TimedOut is set.
	Intent intent.Intent

	// Heard is the transcript text the intent was resolved from.
	Heard string

	// Confidence is the transcript's mean word confidence; valid only when
	// HasConfidence is set. Engines without word output leave it unset.
	Confidence    float64
	HasConfidence bool

	// SpokenFor is the spoken length of the accepted utterance.
	SpokenFor time.Duration

	// TimedOut reports that the attempt deadline passed without an accepted
	// utterance. Distinct from a resolved Unknown.
	TimedOut bool
}

// Session is the capture-and-resolve pipeline for one microphone. Listen
// must not be called concurrently; the tuning setters are safe from any
// goroutine and take effect on the next attempt.
type Session struct {
	source     audio.Source
	streaming  stt.StreamingRecognizer
	buffered   stt.UtteranceRecognizer
	engine     string
	vocabulary []string

	deviceIndex int
	fixedRate   int
	autoDetect  bool
	frameSize   int

	metrics    *observe.Metrics
	archiveDir string
	logger     *slog.Logger

	mu     sync.Mutex
	tuning Tuning
	gate   stt.Gate

	negotiated     bool
	device         audio.Device
	negotiatedRate int
}

// New creates a Session from cfg. It fails when no capture source is set or
// when the recognizer slots are not filled with exactly one engine.
func New(cfg Config) (*Session, error) {
	if cfg.Source == nil {
		return nil, errors.New("listener: capture source is required")
	}
	if (cfg.Streaming == nil) == (cfg.Buffered == nil) {
		return nil, errors.New("listener: exactly one of Streaming or Buffered must be set")
	}
	if cfg.FrameSize <= 0 {
		return nil, fmt.Errorf("listener: frame size must be positive, got %d", cfg.FrameSize)
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	vocab := cfg.Vocabulary
	if vocab == nil && cfg.Streaming != nil {
		vocab = intent.GrammarPhrases()
	}
	if cfg.ArchiveDir != "" {
		if err := os.MkdirAll(cfg.ArchiveDir, 0o755); err != nil {
			return nil, fmt.Errorf("listener: create archive dir: %w", err)
		}
	}

	return &Session{
		source:      cfg.Source,
		streaming:   cfg.Streaming,
		buffered:    cfg.Buffered,
		engine:      cfg.Engine,
		vocabulary:  vocab,
		deviceIndex: cfg.DeviceIndex,
		fixedRate:   cfg.SampleRate,
		autoDetect:  cfg.AutoDetectSampleRate,
		frameSize:   cfg.FrameSize,
		metrics:     metrics,
		archiveDir:  cfg.ArchiveDir,
		logger:      slog.With(slog.String("component", "listener")),
		tuning:      cfg.Tuning,
		gate:        stt.NewGate(cfg.ConfidenceThreshold),
	}, nil
}

// Devices lists the input-capable capture devices.
func (s *Session) Devices() ([]audio.Device, error) {
	return s.source.Devices()
}

// SetTuning replaces the endpoint detector tuning. The next Listen call uses
// the new values; an attempt already in flight keeps the old ones.
func (s *Session) SetTuning(t Tuning) {
	s.mu.Lock()
	s.tuning = t
	s.mu.Unlock()
}

// SetConfidenceThreshold replaces the gate threshold for subsequent
// transcripts. Zero restores the built-in default.
func (s *Session) SetConfidenceThreshold(threshold float64) {
	s.mu.Lock()
	s.gate = stt.NewGate(threshold)
	s.mu.Unlock()
}

// currentTuning returns a snapshot of the tunables for one attempt.
func (s *Session) currentTuning() (Tuning, stt.Gate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tuning, s.gate
}

// Negotiate picks the capture device and a working sample rate. The first
// call probes the hardware; the outcome is cached for the session's
// lifetime, so later calls (and every Listen) reuse it.
//
// Device selection fails when the configured index does not exist or, with
// the default requested, no input device is present — both are structural
// startup failures. Rate resolution never fails: it degrades through the
// canonical candidates down to 16 kHz.
func (s *Session) Negotiate() (audio.Device, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.negotiated {
		return s.device, s.negotiatedRate, nil
	}

	dev, err := s.pickDevice()
	if err != nil {
		return audio.Device{}, 0, err
	}

	rate := s.fixedRate
	switch {
	case s.autoDetect:
		rate = s.source.ResolveSampleRate(s.deviceIndex)
	case rate <= 0:
		// Auto-detection is off and no rate is pinned: trust the device's
		// reported default without probing it.
		rate = dev.DefaultSampleRate
		if rate <= 0 {
			rate = 16000
		}
	}

	s.device = dev
	s.negotiatedRate = rate
	s.negotiated = true
	s.logger.Info("negotiated capture parameters",
		slog.String("device", dev.Name),
		slog.Int("device_index", dev.Index),
		slog.Int("sample_rate", rate),
		slog.Bool("probed", s.autoDetect))
	return dev, rate, nil
}

// pickDevice resolves the configured device index to a device snapshot.
func (s *Session) pickDevice() (audio.Device, error) {
	if s.deviceIndex < 0 {
		dev, ok := s.source.DefaultDevice()
		if !ok {
			return audio.Device{}, fmt.Errorf("%w: no default input device", audio.ErrDeviceUnavailable)
		}
		return dev, nil
	}

	devices, err := s.source.Devices()
	if err != nil {
		return audio.Device{}, err
	}
	for _, dev := range devices {
		if dev.Index == s.deviceIndex {
			return dev, nil
		}
	}
	return audio.Device{}, fmt.Errorf("%w: no input device at index %d", audio.ErrDeviceUnavailable, s.deviceIndex)
}
