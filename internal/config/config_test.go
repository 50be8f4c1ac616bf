package config_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/hexavox/internal/config"
	"github.com/MrWong99/hexavox/pkg/provider/stt"
	sttmock "github.com/MrWong99/hexavox/pkg/provider/stt/mock"
)

// ── helpers ──────────────────────────────────────────────────────────────────

const sampleYAML = `
server:
  listen_addr: ":9001"
  log_level: debug

audio:
  device_index: 2
  auto_detect_sample_rate: true
  frame_size: 1024

endpoint:
  silence_energy_threshold: 650
  trailing_silence_ms: 800
  min_speech_ms: 250
  max_recording_ms: 8000

recognizer:
  engine: vosk
  model_path: models/vosk-model-small-en-us-0.15
  confidence_threshold: 0.6
  fallbacks:
    - engine: vosk
      model_path: models/vosk-model-en-us-0.22

display:
  hold_ms: 2500

feedback:
  enabled: true
  command: espeak-ng
  args: ["-v", "en", "-s", "150"]

progress:
  path: data/test.db

archive:
  dir: captures
`

// ── YAML loading ──────────────────────────────────────────────────────────────

func TestLoadFromReader_Valid(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.ListenAddr != ":9001" {
		t.Errorf("server.listen_addr: got %q, want %q", cfg.Server.ListenAddr, ":9001")
	}
	if cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("server.log_level: got %q, want %q", cfg.Server.LogLevel, config.LogDebug)
	}
	if cfg.Audio.DeviceIndex != 2 {
		t.Errorf("audio.device_index: got %d, want 2", cfg.Audio.DeviceIndex)
	}
	if cfg.Endpoint.SilenceEnergyThreshold != 650 {
		t.Errorf("endpoint.silence_energy_threshold: got %.1f, want 650", cfg.Endpoint.SilenceEnergyThreshold)
	}
	if got := cfg.Endpoint.TrailingSilence(); got != 800*time.Millisecond {
		t.Errorf("endpoint trailing silence: got %v, want 800ms", got)
	}
	if cfg.Recognizer.Engine != config.EngineVosk {
		t.Errorf("recognizer.engine: got %q, want %q", cfg.Recognizer.Engine, config.EngineVosk)
	}
	if cfg.Recognizer.ConfidenceThreshold != 0.6 {
		t.Errorf("recognizer.confidence_threshold: got %.2f, want 0.6", cfg.Recognizer.ConfidenceThreshold)
	}
	if len(cfg.Recognizer.Fallbacks) != 1 {
		t.Fatalf("recognizer.fallbacks: got %d, want 1", len(cfg.Recognizer.Fallbacks))
	}
	if cfg.Recognizer.Fallbacks[0].ModelPath != "models/vosk-model-en-us-0.22" {
		t.Errorf("fallback model_path: got %q", cfg.Recognizer.Fallbacks[0].ModelPath)
	}
	if got := cfg.Display.Hold(); got != 2500*time.Millisecond {
		t.Errorf("display hold: got %v, want 2.5s", got)
	}
	if cfg.Archive.Dir != "captures" {
		t.Errorf("archive.dir: got %q, want %q", cfg.Archive.Dir, "captures")
	}
}

func TestLoadFromReader_EmptyKeepsDefaults(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("unexpected error for empty config: %v", err)
	}
	def := config.Default()
	if cfg.Endpoint.SilenceEnergyThreshold != def.Endpoint.SilenceEnergyThreshold {
		t.Errorf("silence threshold: got %.1f, want default %.1f",
			cfg.Endpoint.SilenceEnergyThreshold, def.Endpoint.SilenceEnergyThreshold)
	}
	if cfg.Audio.DeviceIndex != -1 {
		t.Errorf("device_index: got %d, want -1", cfg.Audio.DeviceIndex)
	}
}

func TestLoadFromReader_SparseFileOverlaysDefaults(t *testing.T) {
	yaml := `
endpoint:
  silence_energy_threshold: 900
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Endpoint.SilenceEnergyThreshold != 900 {
		t.Errorf("silence threshold: got %.1f, want 900", cfg.Endpoint.SilenceEnergyThreshold)
	}
	// Untouched siblings keep their defaults.
	if cfg.Endpoint.MaxRecordingMS != 10000 {
		t.Errorf("max_recording_ms: got %d, want default 10000", cfg.Endpoint.MaxRecordingMS)
	}
	if cfg.Recognizer.Engine != config.EngineVosk {
		t.Errorf("engine: got %q, want default vosk", cfg.Recognizer.Engine)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	yaml := `
endpoint:
  silence_treshold: 900
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for misspelled field, got nil")
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := config.Validate(config.Default()); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestDefault_SpecValues(t *testing.T) {
	cfg := config.Default()
	if cfg.Endpoint.SilenceEnergyThreshold != 500 {
		t.Errorf("silence threshold default: got %.1f, want 500", cfg.Endpoint.SilenceEnergyThreshold)
	}
	if got := cfg.Endpoint.TrailingSilence(); got != time.Second {
		t.Errorf("trailing silence default: got %v, want 1s", got)
	}
	if got := cfg.Endpoint.MinSpeech(); got != 300*time.Millisecond {
		t.Errorf("min speech default: got %v, want 300ms", got)
	}
	if got := cfg.Endpoint.MaxRecording(); got != 10*time.Second {
		t.Errorf("max recording default: got %v, want 10s", got)
	}
	if cfg.Recognizer.ConfidenceThreshold != 0.5 {
		t.Errorf("confidence threshold default: got %.2f, want 0.5", cfg.Recognizer.ConfidenceThreshold)
	}
	if !cfg.Audio.AutoDetectSampleRate {
		t.Error("auto_detect_sample_rate should default to true")
	}
}

// ── Validation ────────────────────────────────────────────────────────────────

func TestValidate_InvalidLogLevel(t *testing.T) {
	yaml := `
server:
  log_level: verbose
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid log_level, got nil")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
}

func TestValidate_InvalidEngine(t *testing.T) {
	yaml := `
recognizer:
  engine: dragon
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid engine, got nil")
	}
	if !strings.Contains(err.Error(), "engine") {
		t.Errorf("error should mention engine, got: %v", err)
	}
}

func TestValidate_MissingModelPath(t *testing.T) {
	yaml := `
recognizer:
  model_path: ""
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for empty model_path, got nil")
	}
	if !strings.Contains(err.Error(), "model_path") {
		t.Errorf("error should mention model_path, got: %v", err)
	}
}

func TestValidate_ThresholdOutOfRange(t *testing.T) {
	yaml := `
recognizer:
  confidence_threshold: 1.5
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for out-of-range confidence_threshold, got nil")
	}
}

func TestValidate_RecordingCapBelowMinSpeech(t *testing.T) {
	yaml := `
endpoint:
  max_recording_ms: 200
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error when max_recording_ms <= min_speech_ms, got nil")
	}
	if !strings.Contains(err.Error(), "max_recording_ms") {
		t.Errorf("error should mention max_recording_ms, got: %v", err)
	}
}

func TestValidate_ZeroFrameSize(t *testing.T) {
	yaml := `
audio:
  frame_size: 0
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for zero frame_size, got nil")
	}
}

func TestValidate_MixedModeFallback(t *testing.T) {
	yaml := `
recognizer:
  engine: vosk
  model_path: models/vosk-model-small-en-us-0.15
  fallbacks:
    - engine: whisper
      model_path: models/ggml-base.en.bin
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for mixed-mode fallback chain, got nil")
	}
	if !strings.Contains(err.Error(), "recognition mode") {
		t.Errorf("error should mention the recognition mode, got: %v", err)
	}
}

func TestValidate_FeedbackCommandRequired(t *testing.T) {
	yaml := `
feedback:
  enabled: true
  command: ""
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for enabled feedback without command, got nil")
	}
}

// ── Engine helpers ────────────────────────────────────────────────────────────

func TestEngineStreaming(t *testing.T) {
	if !config.EngineVosk.Streaming() {
		t.Error("vosk should be a streaming engine")
	}
	if config.EngineWhisper.Streaming() {
		t.Error("whisper should not be a streaming engine")
	}
}

func TestRecognizerPrimaryEntry(t *testing.T) {
	rc := config.RecognizerConfig{
		Engine:    config.EngineWhisper,
		ModelPath: "models/ggml-base.en.bin",
		Language:  "en",
	}
	entry := rc.Primary()
	if entry.Engine != config.EngineWhisper {
		t.Errorf("entry engine: got %q, want whisper", entry.Engine)
	}
	if entry.ModelPath != rc.ModelPath {
		t.Errorf("entry model_path: got %q, want %q", entry.ModelPath, rc.ModelPath)
	}
	if entry.Language != "en" {
		t.Errorf("entry language: got %q, want en", entry.Language)
	}
}

// ── Registry ─────────────────────────────────────────────────────────────────

func TestRegistry_UnknownStreaming(t *testing.T) {
	reg := config.NewRegistry()
	_, err := reg.CreateStreaming(config.RecognizerEntry{Engine: "nonexistent"})
	if err == nil {
		t.Fatal("expected error for unknown streaming engine")
	}
	if !errors.Is(err, config.ErrEngineNotRegistered) {
		t.Errorf("expected ErrEngineNotRegistered, got: %v", err)
	}
}

func TestRegistry_UnknownUtterance(t *testing.T) {
	reg := config.NewRegistry()
	_, err := reg.CreateUtterance(config.RecognizerEntry{Engine: "nonexistent"})
	if !errors.Is(err, config.ErrEngineNotRegistered) {
		t.Errorf("expected ErrEngineNotRegistered, got: %v", err)
	}
}

func TestRegistry_RegisteredStreaming(t *testing.T) {
	reg := config.NewRegistry()
	want := &sttmock.Streaming{}
	var gotEntry config.RecognizerEntry
	reg.RegisterStreaming(config.EngineVosk, func(e config.RecognizerEntry) (stt.StreamingRecognizer, error) {
		gotEntry = e
		return want, nil
	})

	got, err := reg.CreateStreaming(config.RecognizerEntry{
		Engine:    config.EngineVosk,
		ModelPath: "models/vosk-model-small-en-us-0.15",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != stt.StreamingRecognizer(want) {
		t.Error("returned recognizer is not the expected instance")
	}
	if gotEntry.ModelPath != "models/vosk-model-small-en-us-0.15" {
		t.Errorf("factory entry model_path: got %q", gotEntry.ModelPath)
	}
}

func TestRegistry_RegisteredUtterance(t *testing.T) {
	reg := config.NewRegistry()
	want := &sttmock.Utterance{}
	reg.RegisterUtterance(config.EngineWhisper, func(e config.RecognizerEntry) (stt.UtteranceRecognizer, error) {
		return want, nil
	})

	got, err := reg.CreateUtterance(config.RecognizerEntry{Engine: config.EngineWhisper})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != stt.UtteranceRecognizer(want) {
		t.Error("returned recognizer is not the expected instance")
	}
}

func TestRegistry_FactoryError(t *testing.T) {
	reg := config.NewRegistry()
	wantErr := errors.New("factory boom")
	reg.RegisterStreaming("broken", func(e config.RecognizerEntry) (stt.StreamingRecognizer, error) {
		return nil, wantErr
	})
	_, err := reg.CreateStreaming(config.RecognizerEntry{Engine: "broken"})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected factory error %v, got %v", wantErr, err)
	}
}
