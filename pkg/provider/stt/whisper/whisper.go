// Package whisper provides a whisper.cpp-backed batch recognizer.
//
// whisper.cpp is a general-purpose transcription engine: no grammar
// constraints, no per-word confidences, but robust open-vocabulary output.
// It cannot stream, so it implements the utterance contract and transcribes
// one endpointed utterance per call. Inference expects 16 kHz mono float32
// samples; utterances arriving at other rates are resampled first.
//
// The whisper.cpp static library (libwhisper.a) and headers (whisper.h) must
// be available at link time via LIBRARY_PATH and C_INCLUDE_PATH environment
// variables.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/MrWong99/hexavox/pkg/audio"
	"github.com/MrWong99/hexavox/pkg/provider/stt"
)

// inferenceRate is the sample rate whisper.cpp models are trained on.
const inferenceRate = 16000

const defaultLanguage = "en"

// Compile-time assertion that Recognizer satisfies stt.UtteranceRecognizer.
var _ stt.UtteranceRecognizer = (*Recognizer)(nil)

// Option is a functional option for configuring a Recognizer.
type Option func(*Recognizer)

// WithLanguage sets the BCP-47 language code for transcription (e.g. "en",
// "de", "fr"). Defaults to "en".
func WithLanguage(lang string) Option {
	return func(r *Recognizer) { r.language = lang }
}

// Recognizer implements stt.UtteranceRecognizer using the whisper.cpp CGO
// bindings. The model is loaded once at startup and shared across calls; each
// call creates its own inference context, so concurrent Recognize calls are
// safe.
type Recognizer struct {
	model    whisperlib.Model
	language string
}

// New creates a Recognizer that loads the whisper.cpp model from the given
// GGML file path. The caller must call Close when the recognizer is no longer
// needed.
//
// Returns an error wrapping [stt.ErrModelNotFound] when the file does not
// exist and [stt.ErrEngineUnavailable] when the engine rejects it.
func New(modelPath string, opts ...Option) (*Recognizer, error) {
	if modelPath == "" {
		return nil, fmt.Errorf("whisper: model path must not be empty: %w", stt.ErrModelNotFound)
	}
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("whisper: model file %q: %w: %w", modelPath, stt.ErrModelNotFound, err)
	}

	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w: %w", modelPath, stt.ErrEngineUnavailable, err)
	}

	r := &Recognizer{model: model, language: defaultLanguage}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Close releases the whisper model. Must be called when the recognizer is no
// longer needed.
func (r *Recognizer) Close() error {
	if r.model != nil {
		err := r.model.Close()
		r.model = nil
		return err
	}
	return nil
}

// Recognize transcribes one complete utterance and returns the concatenated
// segment text. The transcript never carries word confidences; downstream
// confidence gating accepts it unconditionally.
func (r *Recognizer) Recognize(ctx context.Context, samples []int16, sampleRate int) (stt.Transcript, error) {
	if err := ctx.Err(); err != nil {
		return stt.Transcript{}, err
	}
	if r.model == nil {
		return stt.Transcript{}, fmt.Errorf("whisper: recognizer is closed: %w", stt.ErrEngineUnavailable)
	}

	if sampleRate <= 0 {
		sampleRate = inferenceRate
	}
	if sampleRate != inferenceRate {
		samples = audio.Resample(samples, sampleRate, inferenceRate)
	}
	f32 := audio.SamplesToFloat32(samples)

	// Each context is NOT thread-safe, but the model can be shared across
	// goroutines, so a fresh context per call keeps Recognize reentrant.
	wctx, err := r.model.NewContext()
	if err != nil {
		return stt.Transcript{}, fmt.Errorf("whisper: create context: %w", err)
	}
	if err := wctx.SetLanguage(r.language); err != nil {
		slog.Warn("whisper set language failed, engine default applies", "language", r.language, "error", err)
	}

	if err := wctx.Process(f32, nil, nil, nil); err != nil {
		return stt.Transcript{}, fmt.Errorf("whisper: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stt.Transcript{}, fmt.Errorf("whisper: read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}

	return stt.Transcript{Text: strings.Join(parts, " "), IsFinal: true}, nil
}
