// Package config provides the configuration schema, loader, and recognizer
// registry for the hexavox trainer.
package config

import (
	"log/slog"
	"time"
)

// LogLevel controls log verbosity for the hexavox process.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level converts l to its slog equivalent. Unrecognised values map to info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Engine selects a speech recognition backend.
type Engine string

const (
	// EngineVosk streams capture frames into a grammar-constrained
	// recognizer and reads word-level confidences from its results.
	EngineVosk Engine = "vosk"

	// EngineWhisper transcribes each finished utterance in one shot.
	// It reports no word confidences, so the confidence gate passes
	// everything it returns.
	EngineWhisper Engine = "whisper"
)

// IsValid reports whether e is a recognised engine.
func (e Engine) IsValid() bool {
	return e == EngineVosk || e == EngineWhisper
}

// Streaming reports whether the engine consumes audio incrementally while
// the speaker is still talking. Non-streaming engines transcribe the whole
// utterance after the endpoint detector emits it.
func (e Engine) Streaming() bool {
	return e == EngineVosk
}

// Config is the root configuration structure for hexavox.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Audio      AudioConfig      `yaml:"audio"`
	Endpoint   EndpointConfig   `yaml:"endpoint"`
	Recognizer RecognizerConfig `yaml:"recognizer"`
	Display    DisplayConfig    `yaml:"display"`
	Feedback   FeedbackConfig   `yaml:"feedback"`
	Progress   ProgressConfig   `yaml:"progress"`
	Archive    ArchiveConfig    `yaml:"archive"`
}

// ServerConfig holds network and logging settings for the status server.
type ServerConfig struct {
	// ListenAddr is the TCP address the web status server listens on
	// (e.g., ":8090"). Empty disables the server.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// AudioConfig holds microphone capture settings.
type AudioConfig struct {
	// DeviceIndex selects the capture device. -1 uses the system default
	// input device.
	DeviceIndex int `yaml:"device_index"`

	// SampleRate requests a capture rate in Hz. 0 lets negotiation pick
	// one from the device default.
	SampleRate int `yaml:"sample_rate"`

	// AutoDetectSampleRate probes the device for a rate that actually
	// opens instead of trusting SampleRate. Negotiation never fails; it
	// walks 16000, 22050, 44100 and 48000 Hz before settling on 16000.
	AutoDetectSampleRate bool `yaml:"auto_detect_sample_rate"`

	// FrameSize is the number of samples delivered per capture frame.
	FrameSize int `yaml:"frame_size"`
}

// EndpointConfig tunes the utterance boundary detector.
type EndpointConfig struct {
	// SilenceEnergyThreshold is the RMS level separating speech from
	// silence. Raise it in noisy rooms; the -level-meter flag helps pick
	// a value.
	SilenceEnergyThreshold float64 `yaml:"silence_energy_threshold"`

	// TrailingSilenceMS is how long the speaker must stay quiet, in
	// milliseconds, before the utterance is considered finished.
	TrailingSilenceMS int `yaml:"trailing_silence_ms"`

	// MinSpeechMS discards utterances shorter than this, in milliseconds.
	// Filters coughs, taps and chair squeaks.
	MinSpeechMS int `yaml:"min_speech_ms"`

	// MaxRecordingMS force-ends an utterance after this many milliseconds
	// regardless of silence.
	MaxRecordingMS int `yaml:"max_recording_ms"`
}

// TrailingSilence returns the trailing silence window as a duration.
func (e EndpointConfig) TrailingSilence() time.Duration {
	return time.Duration(e.TrailingSilenceMS) * time.Millisecond
}

// MinSpeech returns the minimum utterance length as a duration.
func (e EndpointConfig) MinSpeech() time.Duration {
	return time.Duration(e.MinSpeechMS) * time.Millisecond
}

// MaxRecording returns the utterance length cap as a duration.
func (e EndpointConfig) MaxRecording() time.Duration {
	return time.Duration(e.MaxRecordingMS) * time.Millisecond
}

// RecognizerConfig selects the speech engine chain and tunes acceptance.
type RecognizerConfig struct {
	// Engine selects the recognizer implementation registered in the
	// [Registry].
	Engine Engine `yaml:"engine"`

	// ModelPath is the filesystem path to the engine's acoustic model:
	// a directory for vosk, a ggml file for whisper.
	ModelPath string `yaml:"model_path"`

	// Language is a hint for engines that take one (whisper). Vosk models
	// are single-language and ignore it.
	Language string `yaml:"language"`

	// ConfidenceThreshold is the minimum mean word confidence an
	// utterance needs to be accepted. Transcripts without word
	// confidences always pass. 0 selects the built-in default of 0.5.
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`

	// Fallbacks lists engines tried in order when the primary engine
	// fails to start or keeps erroring. Chained engines must share the
	// primary's recognition mode; the pipeline cannot switch between
	// streaming and whole-utterance recognition mid-run.
	Fallbacks []RecognizerEntry `yaml:"fallbacks"`

	// Options holds engine-specific values not covered by the standard
	// fields above.
	Options map[string]any `yaml:"options"`
}

// Primary returns the primary engine settings in the same shape as the
// fallback entries, so a failover chain can be built uniformly.
func (r RecognizerConfig) Primary() RecognizerEntry {
	return RecognizerEntry{
		Engine:    r.Engine,
		ModelPath: r.ModelPath,
		Language:  r.Language,
		Options:   r.Options,
	}
}

// RecognizerEntry configures a single speech engine instance. The Engine
// field selects the factory registered in the [Registry].
type RecognizerEntry struct {
	Engine    Engine         `yaml:"engine"`
	ModelPath string         `yaml:"model_path"`
	Language  string         `yaml:"language"`
	Options   map[string]any `yaml:"options"`
}

// DisplayConfig tunes the Braille display behaviour.
type DisplayConfig struct {
	// HoldMS is how long a resolved letter stays raised, in milliseconds,
	// before the cell resets for the next round.
	HoldMS int `yaml:"hold_ms"`
}

// Hold returns the letter hold time as a duration.
func (d DisplayConfig) Hold() time.Duration {
	return time.Duration(d.HoldMS) * time.Millisecond
}

// FeedbackConfig configures spoken confirmations.
type FeedbackConfig struct {
	// Enabled toggles spoken feedback. When the configured command is not
	// installed, feedback degrades to silence rather than failing.
	Enabled bool `yaml:"enabled"`

	// Command is the external synthesizer executable (e.g., "espeak-ng").
	Command string `yaml:"command"`

	// Args are passed to Command before the phrase to speak.
	Args []string `yaml:"args"`
}

// ProgressConfig configures the practice history store.
type ProgressConfig struct {
	// Path is the SQLite database file recording practice attempts.
	// Empty disables history.
	Path string `yaml:"path"`
}

// ArchiveConfig configures the utterance WAV archive.
type ArchiveConfig struct {
	// Dir is the directory captured utterances are written to as WAV
	// files for offline debugging. Empty disables archiving.
	Dir string `yaml:"dir"`
}

// Default returns the built-in configuration. [Load] starts from these
// values, so a config file only needs the fields it changes.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":8090",
			LogLevel:   LogInfo,
		},
		Audio: AudioConfig{
			DeviceIndex:          -1,
			SampleRate:           0,
			AutoDetectSampleRate: true,
			FrameSize:            512,
		},
		Endpoint: EndpointConfig{
			SilenceEnergyThreshold: 500,
			TrailingSilenceMS:      1000,
			MinSpeechMS:            300,
			MaxRecordingMS:         10000,
		},
		Recognizer: RecognizerConfig{
			Engine:              EngineVosk,
			ModelPath:           "models/vosk-model-small-en-us-0.15",
			Language:            "en",
			ConfidenceThreshold: 0.5,
		},
		Display: DisplayConfig{
			HoldMS: 3000,
		},
		Feedback: FeedbackConfig{
			Enabled: true,
			Command: "espeak-ng",
			Args:    []string{"-v", "en", "-s", "150"},
		},
		Progress: ProgressConfig{
			Path: "data/hexavox.db",
		},
	}
}
