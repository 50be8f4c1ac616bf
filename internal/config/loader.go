package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// canonicalRates are the sample rates negotiation tries, in order.
var canonicalRates = []int{16000, 22050, 44100, 48000}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. Values start from [Default], so the file only needs the fields
// it changes. An empty path skips the file and returns the defaults with
// environment overrides applied.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		applyEnvOverrides(cfg)
		if err := Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of [Default], applies
// HEXAVOX_* environment overrides, and validates the result. Useful in
// tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyEnvOverrides(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Audio
	if cfg.Audio.DeviceIndex < -1 {
		errs = append(errs, fmt.Errorf("audio.device_index %d is invalid; use -1 for the default device", cfg.Audio.DeviceIndex))
	}
	if cfg.Audio.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d is invalid; use 0 to negotiate a rate", cfg.Audio.SampleRate))
	}
	if cfg.Audio.FrameSize <= 0 {
		errs = append(errs, fmt.Errorf("audio.frame_size must be positive, got %d", cfg.Audio.FrameSize))
	}
	if cfg.Audio.SampleRate > 0 && !isCanonicalRate(cfg.Audio.SampleRate) {
		slog.Warn("unusual sample rate requested; negotiation will verify the device accepts it",
			"sample_rate", cfg.Audio.SampleRate,
			"canonical", canonicalRates,
		)
	}
	if !cfg.Audio.AutoDetectSampleRate && cfg.Audio.SampleRate == 0 {
		slog.Warn("auto_detect_sample_rate is off and no fixed rate is set; capture will assume the device default")
	}

	// Endpoint detector
	if cfg.Endpoint.SilenceEnergyThreshold < 0 {
		errs = append(errs, fmt.Errorf("endpoint.silence_energy_threshold must not be negative, got %.1f", cfg.Endpoint.SilenceEnergyThreshold))
	}
	if cfg.Endpoint.TrailingSilenceMS <= 0 {
		errs = append(errs, fmt.Errorf("endpoint.trailing_silence_ms must be positive, got %d", cfg.Endpoint.TrailingSilenceMS))
	}
	if cfg.Endpoint.MinSpeechMS < 0 {
		errs = append(errs, fmt.Errorf("endpoint.min_speech_ms must not be negative, got %d", cfg.Endpoint.MinSpeechMS))
	}
	if cfg.Endpoint.MaxRecordingMS <= 0 {
		errs = append(errs, fmt.Errorf("endpoint.max_recording_ms must be positive, got %d", cfg.Endpoint.MaxRecordingMS))
	} else if cfg.Endpoint.MaxRecordingMS <= cfg.Endpoint.MinSpeechMS {
		errs = append(errs, fmt.Errorf("endpoint.max_recording_ms (%d) must exceed endpoint.min_speech_ms (%d)", cfg.Endpoint.MaxRecordingMS, cfg.Endpoint.MinSpeechMS))
	}

	// Recognizer chain
	if !cfg.Recognizer.Engine.IsValid() {
		errs = append(errs, fmt.Errorf("recognizer.engine %q is invalid; valid values: vosk, whisper", cfg.Recognizer.Engine))
	}
	if cfg.Recognizer.ModelPath == "" {
		errs = append(errs, fmt.Errorf("recognizer.model_path is required"))
	}
	if cfg.Recognizer.ConfidenceThreshold < 0 || cfg.Recognizer.ConfidenceThreshold > 1 {
		errs = append(errs, fmt.Errorf("recognizer.confidence_threshold %.2f is out of range [0, 1]", cfg.Recognizer.ConfidenceThreshold))
	}
	for i, fb := range cfg.Recognizer.Fallbacks {
		prefix := fmt.Sprintf("recognizer.fallbacks[%d]", i)
		if !fb.Engine.IsValid() {
			errs = append(errs, fmt.Errorf("%s.engine %q is invalid; valid values: vosk, whisper", prefix, fb.Engine))
			continue
		}
		if cfg.Recognizer.Engine.IsValid() && fb.Engine.Streaming() != cfg.Recognizer.Engine.Streaming() {
			errs = append(errs, fmt.Errorf("%s.engine %q cannot back %q: chained engines must share a recognition mode", prefix, fb.Engine, cfg.Recognizer.Engine))
		}
		if fb.ModelPath == "" {
			errs = append(errs, fmt.Errorf("%s.model_path is required", prefix))
		}
		if fb.Engine == cfg.Recognizer.Engine && fb.ModelPath == cfg.Recognizer.ModelPath {
			slog.Warn("fallback repeats the primary engine and model; it will fail the same way",
				"engine", fb.Engine,
				"model_path", fb.ModelPath,
			)
		}
	}

	// Display
	if cfg.Display.HoldMS < 0 {
		errs = append(errs, fmt.Errorf("display.hold_ms must not be negative, got %d", cfg.Display.HoldMS))
	}

	// Feedback
	if cfg.Feedback.Enabled && cfg.Feedback.Command == "" {
		errs = append(errs, fmt.Errorf("feedback.command is required when feedback is enabled"))
	}

	if cfg.Progress.Path == "" {
		slog.Warn("progress.path is empty; practice history will not be recorded")
	}

	return errors.Join(errs...)
}

// isCanonicalRate reports whether rate is one of the rates negotiation
// probes on its own.
func isCanonicalRate(rate int) bool {
	for _, r := range canonicalRates {
		if r == rate {
			return true
		}
	}
	return false
}

// applyEnvOverrides layers HEXAVOX_* environment variables over cfg.
// Unset or malformed variables leave the underlying value untouched.
func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Server.ListenAddr, "HEXAVOX_LISTEN_ADDR")
	if v, ok := lookupEnv("HEXAVOX_LOG_LEVEL"); ok {
		cfg.Server.LogLevel = LogLevel(v)
	}
	overrideInt(&cfg.Audio.DeviceIndex, "HEXAVOX_AUDIO_DEVICE_INDEX")
	overrideInt(&cfg.Audio.SampleRate, "HEXAVOX_AUDIO_SAMPLE_RATE")
	overrideBool(&cfg.Audio.AutoDetectSampleRate, "HEXAVOX_AUDIO_AUTO_DETECT_SAMPLE_RATE")
	overrideInt(&cfg.Audio.FrameSize, "HEXAVOX_AUDIO_FRAME_SIZE")
	overrideFloat(&cfg.Endpoint.SilenceEnergyThreshold, "HEXAVOX_ENDPOINT_SILENCE_ENERGY_THRESHOLD")
	overrideInt(&cfg.Endpoint.TrailingSilenceMS, "HEXAVOX_ENDPOINT_TRAILING_SILENCE_MS")
	overrideInt(&cfg.Endpoint.MinSpeechMS, "HEXAVOX_ENDPOINT_MIN_SPEECH_MS")
	overrideInt(&cfg.Endpoint.MaxRecordingMS, "HEXAVOX_ENDPOINT_MAX_RECORDING_MS")
	if v, ok := lookupEnv("HEXAVOX_RECOGNIZER_ENGINE"); ok {
		cfg.Recognizer.Engine = Engine(v)
	}
	overrideString(&cfg.Recognizer.ModelPath, "HEXAVOX_RECOGNIZER_MODEL_PATH")
	overrideString(&cfg.Recognizer.Language, "HEXAVOX_RECOGNIZER_LANGUAGE")
	overrideFloat(&cfg.Recognizer.ConfidenceThreshold, "HEXAVOX_RECOGNIZER_CONFIDENCE_THRESHOLD")
	overrideInt(&cfg.Display.HoldMS, "HEXAVOX_DISPLAY_HOLD_MS")
	overrideBool(&cfg.Feedback.Enabled, "HEXAVOX_FEEDBACK_ENABLED")
	overrideString(&cfg.Feedback.Command, "HEXAVOX_FEEDBACK_COMMAND")
	overrideString(&cfg.Progress.Path, "HEXAVOX_PROGRESS_PATH")
	overrideString(&cfg.Archive.Dir, "HEXAVOX_ARCHIVE_DIR")
}

// lookupEnv returns the trimmed value of envKey and whether it is set to
// something non-blank.
func lookupEnv(envKey string) (string, bool) {
	v, ok := os.LookupEnv(envKey)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func overrideString(target *string, envKey string) {
	if v, ok := lookupEnv(envKey); ok {
		*target = v
	}
}

func overrideInt(target *int, envKey string) {
	if v, ok := lookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(v); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if v, ok := lookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if v, ok := lookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			*target = parsed
		}
	}
}
