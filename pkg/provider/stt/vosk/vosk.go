// Package vosk provides a Vosk-backed streaming recognizer.
//
// Vosk (Kaldi) is an offline engine that accepts PCM audio incrementally and
// supports grammar-constrained decoding: when a session is started with a
// vocabulary, the engine only ever produces phrases from that list plus the
// out-of-vocabulary marker "[unk]". Combined with per-word confidences this
// is what makes single-letter recognition workable on small models.
//
// The libvosk shared library must be available at link time; the CGO bindings
// load it via the standard library search path.
package vosk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	vosklib "github.com/alphacep/vosk-api/go"

	"github.com/MrWong99/hexavox/pkg/provider/stt"
)

// defaultSampleRate is assumed when StreamConfig carries no rate. Most Vosk
// models are trained on 16 kHz audio but the engine resamples internally, so
// any honest rate works.
const defaultSampleRate = 16000

// Compile-time assertion that Provider satisfies stt.StreamingRecognizer.
var _ stt.StreamingRecognizer = (*Provider)(nil)

// quietOnce lowers the Kaldi log level exactly once per process. Kaldi logs
// its full model configuration to stderr on every recognizer construction
// otherwise.
var quietOnce sync.Once

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithVocabulary sets the default phrase list for sessions whose StreamConfig
// carries no Vocabulary of its own. An empty list leaves the engine
// unconstrained.
func WithVocabulary(phrases []string) Option {
	return func(p *Provider) { p.vocabulary = phrases }
}

// Provider implements stt.StreamingRecognizer backed by a local Vosk model.
// The model is loaded once and shared across all sessions; each session owns
// its own recognizer instance.
type Provider struct {
	model      *vosklib.VoskModel
	vocabulary []string
}

// New creates a Provider that loads the Vosk model from the given directory.
// The model directory is the unpacked form distributed by alphacephei.com
// (containing am/, graph/, conf/ and friends). The caller must call Close
// when the provider is no longer needed.
//
// Returns an error wrapping [stt.ErrModelNotFound] when the directory does
// not exist and [stt.ErrEngineUnavailable] when the engine rejects it.
func New(modelPath string, opts ...Option) (*Provider, error) {
	if modelPath == "" {
		return nil, fmt.Errorf("vosk: model path must not be empty: %w", stt.ErrModelNotFound)
	}
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("vosk: model directory %q: %w: %w", modelPath, stt.ErrModelNotFound, err)
	}

	quietOnce.Do(func() { vosklib.SetLogLevel(-1) })

	model, err := vosklib.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("vosk: load model %q: %w: %w", modelPath, stt.ErrEngineUnavailable, err)
	}

	p := &Provider{model: model}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Close releases the shared model. Sessions still open keep their recognizer
// until their own Close, but no new sessions may be started afterwards.
func (p *Provider) Close() error {
	if p.model != nil {
		p.model.Free()
		p.model = nil
	}
	return nil
}

// StartStream opens a new recognition session. When a vocabulary is present
// (from cfg or the provider default) the session decodes against that grammar
// only; per-word confidences are always enabled.
func (p *Provider) StartStream(ctx context.Context, cfg stt.StreamConfig) (stt.StreamHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("vosk: context already cancelled: %w", err)
	}
	if p.model == nil {
		return nil, fmt.Errorf("vosk: provider is closed: %w", stt.ErrEngineUnavailable)
	}

	rate := cfg.SampleRate
	if rate <= 0 {
		rate = defaultSampleRate
	}
	vocab := cfg.Vocabulary
	if len(vocab) == 0 {
		vocab = p.vocabulary
	}

	var (
		rec *vosklib.VoskRecognizer
		err error
	)
	if len(vocab) > 0 {
		grammar, merr := json.Marshal(vocab)
		if merr != nil {
			return nil, fmt.Errorf("vosk: encode grammar: %w", merr)
		}
		rec, err = vosklib.NewRecognizerGrm(p.model, float64(rate), string(grammar))
	} else {
		rec, err = vosklib.NewRecognizer(p.model, float64(rate))
	}
	if err != nil {
		return nil, fmt.Errorf("vosk: create recognizer: %w: %w", stt.ErrEngineUnavailable, err)
	}
	rec.SetWords(1)
	rec.SetPartialWords(1)

	s := &session{
		rec:      rec,
		audioCh:  make(chan []byte, 256),
		partials: make(chan stt.Transcript, 64),
		finals:   make(chan stt.Transcript, 64),
		done:     make(chan struct{}),
	}
	s.wg.Add(1)
	go s.loop(ctx)
	return s, nil
}

// ---- session ----------------------------------------------------------------

// session is a live Vosk recognition session. It implements stt.StreamHandle.
// The recognizer is not thread-safe, so all engine calls are confined to the
// loop goroutine.
type session struct {
	rec *vosklib.VoskRecognizer

	audioCh  chan []byte
	partials chan stt.Transcript
	finals   chan stt.Transcript

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// SendAudio queues a chunk of raw 16-bit little-endian signed PCM audio for
// decoding.
func (s *session) SendAudio(chunk []byte) error {
	select {
	case <-s.done:
		return errors.New("vosk: session is closed")
	default:
	}
	select {
	case s.audioCh <- chunk:
		return nil
	case <-s.done:
		return errors.New("vosk: session is closed")
	}
}

// Partials returns a read-only channel that emits interim Transcript values.
func (s *session) Partials() <-chan stt.Transcript { return s.partials }

// Finals returns a read-only channel that emits authoritative Transcript values.
func (s *session) Finals() <-chan stt.Transcript { return s.finals }

// Close flushes any queued audio into a last final transcript, closes the
// Partials and Finals channels, and frees the recognizer.
func (s *session) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
	return nil
}

// loop is the single goroutine that owns the recognizer. It decodes queued
// audio, publishing a partial whenever the interim text changes and a final
// whenever the engine commits one.
func (s *session) loop(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.partials)
	defer close(s.finals)
	defer s.rec.Free()

	var lastPartial string

	flush := func() {
		t, err := parseResult(s.rec.FinalResult())
		if err != nil {
			slog.Error("vosk final result parse failed", "error", err)
			return
		}
		if t.Text == "" {
			return
		}
		push(s.finals, t)
	}

	// Consume queued chunks before flushing so the final sees the utterance
	// tail that arrived just before Close.
	drain := func() {
		for {
			select {
			case chunk := <-s.audioCh:
				s.rec.AcceptWaveform(chunk)
			default:
				return
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			drain()
			flush()
			return

		case <-s.done:
			drain()
			flush()
			return

		case chunk := <-s.audioCh:
			if s.rec.AcceptWaveform(chunk) != 0 {
				t, err := parseResult(s.rec.Result())
				if err != nil {
					slog.Error("vosk result parse failed", "error", err)
					continue
				}
				lastPartial = ""
				if t.Text != "" {
					push(s.finals, t)
				}
				continue
			}
			text, err := parsePartial(s.rec.PartialResult())
			if err != nil {
				slog.Error("vosk partial parse failed", "error", err)
				continue
			}
			if text != "" && text != lastPartial {
				lastPartial = text
				push(s.partials, stt.Transcript{Text: text})
			}
		}
	}
}

// push delivers t without blocking; a full channel drops the value. Finals
// are buffered generously, so drops only happen when nobody is consuming.
func push(ch chan stt.Transcript, t stt.Transcript) {
	select {
	case ch <- t:
	default:
	}
}

// Compile-time assertion that session satisfies stt.StreamHandle.
var _ stt.StreamHandle = (*session)(nil)
