package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/MrWong99/hexavox/pkg/audio"
	"github.com/MrWong99/hexavox/pkg/audio/endpoint"
	"github.com/MrWong99/hexavox/pkg/intent"
	"github.com/MrWong99/hexavox/pkg/provider/stt"
)

// Listen runs one attempt: it captures frames until an utterance is accepted,
// the timeout passes, or ctx is cancelled. A timeout of zero or less falls
// back to the recording cap so an attempt can never run unbounded.
//
// Noise is absorbed, not surfaced: sub-minimum utterances, gate-rejected
// transcripts and transient engine failures all keep the attempt listening.
// Only structural failures (device refused to open, frame reads breaking)
// return an error. Cancellation of ctx returns its cause.
func (s *Session) Listen(ctx context.Context, timeout time.Duration) (Result, error) {
	_, rate, err := s.Negotiate()
	if err != nil {
		return Result{}, err
	}

	tuning, gate := s.currentTuning()
	if timeout <= 0 {
		timeout = tuning.MaxRecording
	}

	stream, err := s.source.Open(s.deviceIndex, rate, s.frameSize)
	if err != nil {
		return Result{}, fmt.Errorf("listener: open capture stream: %w", err)
	}
	defer stream.Close()

	det := endpoint.New(endpoint.Config{
		SampleRate:       rate,
		FrameSize:        s.frameSize,
		SilenceThreshold: tuning.SilenceThreshold,
		TrailingSilence:  tuning.TrailingSilence,
		MinSpeech:        tuning.MinSpeech,
		MaxRecording:     tuning.MaxRecording,
	})

	attempt, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if s.streaming != nil {
		return s.listenStreaming(ctx, attempt, stream, det, rate, gate)
	}
	return s.listenBuffered(ctx, attempt, stream, det, rate, gate)
}

// attemptEnded translates an expired attempt context into the caller-facing
// outcome: the parent's cancellation wins over the attempt timeout.
func (s *Session) attemptEnded(parent, attempt context.Context) (Result, error) {
	if err := parent.Err(); err != nil {
		return Result{}, err
	}
	s.metrics.RecordTimeout(parent)
	s.logger.Debug("listen attempt timed out")
	return Result{TimedOut: true}, nil
}

// listenStreaming drives a streaming engine: an engine session is opened
// lazily when the detector leaves idle, receives exactly the frames the
// detector buffers, and is flushed for its final transcript at the emission
// boundary. Pre-speech silence never reaches the engine.
func (s *Session) listenStreaming(parent, attempt context.Context, stream audio.Stream, det *endpoint.Detector, rate int, gate stt.Gate) (Result, error) {
	var run *streamRun
	defer func() {
		if run != nil {
			run.abandon()
		}
	}()

	for {
		select {
		case <-attempt.Done():
			return s.attemptEnded(parent, attempt)
		default:
		}

		frame, err := stream.Read()
		if err != nil {
			return Result{}, fmt.Errorf("listener: read frame: %w", err)
		}
		energy := audio.Energy(frame.Samples)

		before := det.State()
		utt, emitted := det.Feed(frame, energy)
		buffered := emitted || before != endpoint.StateIdle || det.State() != endpoint.StateIdle

		if buffered {
			if run == nil {
				run, err = s.startRun(attempt, rate)
				if err != nil {
					s.metrics.RecordEngineError(attempt, s.engine)
					s.logger.Error("starting engine session failed", slog.String("engine", s.engine), slog.Any("error", err))
					det.Reset()
					continue
				}
			}
			run.send(audio.SamplesToPCM(frame.Samples))
		}

		if !emitted {
			if run != nil && before != endpoint.StateIdle && det.State() == endpoint.StateIdle {
				// The detector dropped a sub-minimum utterance; drop the
				// engine session that was transcribing it too.
				run.abandon()
				run = nil
			}
			continue
		}

		s.metrics.RecordUtterance(attempt, utt.Duration)
		s.archive(utt)

		transcript, ok := run.finish()
		took := run.elapsed()
		run = nil
		if !ok || transcript.Text == "" {
			s.logger.Debug("utterance produced no transcript", slog.Duration("spoken", utt.Duration))
			continue
		}
		s.metrics.RecordRecognition(attempt, s.engine, took)

		if res, done := s.resolve(attempt, transcript, utt.Duration, gate); done {
			return res, nil
		}
	}
}

// listenBuffered drives a whole-utterance engine: the detector assembles the
// complete utterance first and the engine transcribes it in one blocking call.
func (s *Session) listenBuffered(parent, attempt context.Context, stream audio.Stream, det *endpoint.Detector, rate int, gate stt.Gate) (Result, error) {
	for {
		select {
		case <-attempt.Done():
			return s.attemptEnded(parent, attempt)
		default:
		}

		frame, err := stream.Read()
		if err != nil {
			return Result{}, fmt.Errorf("listener: read frame: %w", err)
		}

		utt, emitted := det.Feed(frame, audio.Energy(frame.Samples))
		if !emitted {
			continue
		}

		s.metrics.RecordUtterance(attempt, utt.Duration)
		s.archive(utt)

		start := time.Now()
		transcript, err := s.buffered.Recognize(attempt, utt.Samples, utt.SampleRate)
		if err != nil {
			if attempt.Err() != nil {
				return s.attemptEnded(parent, attempt)
			}
			s.metrics.RecordEngineError(attempt, s.engine)
			s.logger.Warn("recognition failed", slog.String("engine", s.engine), slog.Any("error", err))
			continue
		}
		if transcript.Text == "" {
			s.logger.Debug("utterance produced no transcript", slog.Duration("spoken", utt.Duration))
			continue
		}
		s.metrics.RecordRecognition(attempt, s.engine, time.Since(start))

		if res, done := s.resolve(attempt, transcript, utt.Duration, gate); done {
			return res, nil
		}
	}
}

// resolve gates the transcript and maps it to an intent. Rejected transcripts
// keep the attempt listening (done=false); accepted ones end it, including
// accepted transcripts that resolve to Unknown — the caller decides how to
// prompt the learner about those.
func (s *Session) resolve(ctx context.Context, t stt.Transcript, spoken time.Duration, gate stt.Gate) (Result, bool) {
	mean, hasWords := t.MeanConfidence()
	if !gate.Accept(t) {
		s.metrics.RecordRejection(ctx)
		s.logger.Debug("transcript rejected by confidence gate",
			slog.String("text", t.Text),
			slog.Float64("confidence", mean),
			slog.Float64("threshold", gate.Threshold))
		return Result{}, false
	}

	iv := intent.Resolve(t.Text)
	s.metrics.RecordIntent(ctx, iv.Kind.String())
	s.logger.Info("heard",
		slog.String("text", t.Text),
		slog.String("intent", iv.String()),
		slog.Duration("spoken", spoken))

	return Result{
		Intent:        iv,
		Heard:         t.Text,
		Confidence:    mean,
		HasConfidence: hasWords,
		SpokenFor:     spoken,
	}, true
}

// archive writes the utterance to the archive directory, best effort.
func (s *Session) archive(utt endpoint.Utterance) {
	if s.archiveDir == "" {
		return
	}
	name := fmt.Sprintf("utterance-%s.wav", time.Now().UTC().Format("20060102T150405.000"))
	path := filepath.Join(s.archiveDir, name)
	if err := audio.SaveWAV(path, utt.Samples, utt.SampleRate); err != nil {
		s.logger.Warn("archiving utterance failed", slog.String("path", path), slog.Any("error", err))
	}
}

// streamRun wraps one open engine session during an utterance. It drains
// partials in the background (for debug visibility and so the engine never
// blocks on a full channel) and collects the finals that arrive before or at
// the flush.
type streamRun struct {
	handle  stt.StreamHandle
	started time.Time
	logger  *slog.Logger
	finals  chan stt.Transcript
	done    chan struct{}
}

// startRun opens an engine session for the utterance now in progress.
func (s *Session) startRun(ctx context.Context, rate int) (*streamRun, error) {
	handle, err := s.streaming.StartStream(ctx, stt.StreamConfig{
		SampleRate: rate,
		Channels:   1,
		Vocabulary: s.vocabulary,
	})
	if err != nil {
		return nil, err
	}

	run := &streamRun{
		handle:  handle,
		started: time.Now(),
		logger:  s.logger,
		finals:  make(chan stt.Transcript, 8),
		done:    make(chan struct{}),
	}
	go run.collect()
	return run, nil
}

// collect consumes both transcript channels until the session closes them.
// Finals are retained (bounded, newest dropped on overflow — in practice a
// single-letter utterance yields one or two); partials are logged and
// discarded.
func (r *streamRun) collect() {
	defer close(r.done)
	partials, finals := r.handle.Partials(), r.handle.Finals()
	for partials != nil || finals != nil {
		select {
		case t, ok := <-partials:
			if !ok {
				partials = nil
				continue
			}
			if t.Text != "" {
				r.logger.Debug("partial transcript", slog.String("text", t.Text))
			}
		case t, ok := <-finals:
			if !ok {
				finals = nil
				continue
			}
			select {
			case r.finals <- t:
			default:
			}
		}
	}
}

// send forwards PCM to the engine. Send errors are logged, not fatal: the
// flush at the endpoint decides whether anything usable came out.
func (r *streamRun) send(pcm []byte) {
	if err := r.handle.SendAudio(pcm); err != nil {
		r.logger.Warn("sending audio to engine failed", slog.Any("error", err))
	}
}

// elapsed is the time since the engine session was opened; with an engine
// that transcribes in lockstep with capture this approximates recognition
// latency well enough for the histogram.
func (r *streamRun) elapsed() time.Duration {
	return time.Since(r.started)
}

// finish flushes the session and returns the last non-empty final transcript.
// Engines commit finals on their own schedule, so the authoritative result
// may have arrived mid-utterance or only on the flush; last one wins.
func (r *streamRun) finish() (stt.Transcript, bool) {
	if err := r.handle.Close(); err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Warn("closing engine session failed", slog.Any("error", err))
	}
	<-r.done
	close(r.finals)

	var last stt.Transcript
	var ok bool
	for t := range r.finals {
		if t.Text != "" {
			last, ok = t, true
		}
	}
	return last, ok
}

// abandon closes the session and discards whatever it produced.
func (r *streamRun) abandon() {
	_ = r.handle.Close()
	<-r.done
}
