// Package mock provides test doubles for the stt package interfaces.
//
// Use Streaming to verify that the caller starts sessions with the expected
// StreamConfig, Session to feed controlled Transcript values and inspect
// which audio chunks were delivered, and Utterance to script the results of
// a batch engine.
//
// Example:
//
//	sess := mock.NewSession()
//	sess.FinalsCh <- stt.Transcript{Text: "bee", IsFinal: true}
//	rec := &mock.Streaming{Session: sess}
//	handle, _ := rec.StartStream(ctx, cfg)
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/hexavox/pkg/provider/stt"
)

// ─── Streaming ────────────────────────────────────────────────────────────────

// StartStreamCall records a single invocation of Streaming.StartStream.
type StartStreamCall struct {
	// Ctx is the context passed to StartStream.
	Ctx context.Context
	// Cfg is the StreamConfig passed to StartStream.
	Cfg stt.StreamConfig
}

// Streaming is a mock implementation of [stt.StreamingRecognizer].
type Streaming struct {
	mu sync.Mutex

	// Session is the StreamHandle returned by StartStream. If nil, StartStream
	// returns a new default Session with buffered channels.
	Session stt.StreamHandle

	// StartStreamErr, if non-nil, is returned as the error from StartStream.
	StartStreamErr error

	// StartStreamCalls records every call to StartStream.
	StartStreamCalls []StartStreamCall
}

// StartStream records the call and returns Session, StartStreamErr.
func (p *Streaming) StartStream(ctx context.Context, cfg stt.StreamConfig) (stt.StreamHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.StartStreamCalls = append(p.StartStreamCalls, StartStreamCall{Ctx: ctx, Cfg: cfg})
	if p.StartStreamErr != nil {
		return nil, p.StartStreamErr
	}
	if p.Session != nil {
		return p.Session, nil
	}
	return NewSession(), nil
}

// Ensure Streaming implements stt.StreamingRecognizer at compile time.
var _ stt.StreamingRecognizer = (*Streaming)(nil)

// ─── Session ──────────────────────────────────────────────────────────────────

// SendAudioCall records a single invocation of Session.SendAudio.
type SendAudioCall struct {
	// Chunk is a copy of the audio bytes that were passed to SendAudio.
	Chunk []byte
}

// Session is a mock implementation of [stt.StreamHandle].
// Pre-populate the buffered PartialsCh and FinalsCh with the Transcript values
// the consumer should receive; Close closes both channels, matching the
// contract that consumers may drain Finals until closed after calling Close.
type Session struct {
	mu sync.Mutex

	// PartialsCh is the channel returned by Partials().
	PartialsCh chan stt.Transcript

	// FinalsCh is the channel returned by Finals().
	FinalsCh chan stt.Transcript

	// SendAudioErr, if non-nil, is returned by every SendAudio call.
	SendAudioErr error

	// CloseErr, if non-nil, is returned by the first Close call.
	CloseErr error

	// SendAudioCalls records every call to SendAudio in order.
	SendAudioCalls []SendAudioCall

	// CloseCallCount is the number of times Close was called.
	CloseCallCount int

	closeOnce sync.Once
}

// NewSession returns a Session with buffered Partials and Finals channels
// ready to be pre-populated.
func NewSession() *Session {
	return &Session{
		PartialsCh: make(chan stt.Transcript, 16),
		FinalsCh:   make(chan stt.Transcript, 16),
	}
}

// SendAudio records the call and returns SendAudioErr.
func (s *Session) SendAudio(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(chunk))
	copy(cp, chunk)
	s.SendAudioCalls = append(s.SendAudioCalls, SendAudioCall{Chunk: cp})
	return s.SendAudioErr
}

// Partials returns PartialsCh.
func (s *Session) Partials() <-chan stt.Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.PartialsCh
}

// Finals returns FinalsCh.
func (s *Session) Finals() <-chan stt.Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.FinalsCh
}

// SendAudioCallCount returns the number of SendAudio calls. Thread-safe.
func (s *Session) SendAudioCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.SendAudioCalls)
}

// Close records the call, closes the Partials and Finals channels exactly
// once, and returns CloseErr.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCallCount++
	s.closeOnce.Do(func() {
		if s.PartialsCh != nil {
			close(s.PartialsCh)
		}
		if s.FinalsCh != nil {
			close(s.FinalsCh)
		}
	})
	return s.CloseErr
}

// Ensure Session implements stt.StreamHandle at compile time.
var _ stt.StreamHandle = (*Session)(nil)

// ─── Utterance ────────────────────────────────────────────────────────────────

// RecognizeCall records the arguments of a single Utterance.Recognize
// invocation.
type RecognizeCall struct {
	// SampleCount is the length of the samples slice passed to Recognize.
	SampleCount int
	// SampleRate is the sampleRate argument passed to Recognize.
	SampleRate int
}

// Utterance is a mock implementation of [stt.UtteranceRecognizer]. It serves
// the scripted Results in order; once exhausted, Recognize returns a zero
// Transcript.
type Utterance struct {
	mu sync.Mutex

	// Results is the script served by Recognize, in order.
	Results []stt.Transcript

	// Err, if non-nil, is returned by every Recognize call.
	Err error

	// RecognizeCalls records every call to Recognize.
	RecognizeCalls []RecognizeCall

	next int
}

// Recognize records the call and returns the next scripted result.
func (u *Utterance) Recognize(_ context.Context, samples []int16, sampleRate int) (stt.Transcript, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.RecognizeCalls = append(u.RecognizeCalls, RecognizeCall{
		SampleCount: len(samples),
		SampleRate:  sampleRate,
	})
	if u.Err != nil {
		return stt.Transcript{}, u.Err
	}
	if u.next >= len(u.Results) {
		return stt.Transcript{}, nil
	}
	r := u.Results[u.next]
	u.next++
	return r, nil
}

// Ensure Utterance implements stt.UtteranceRecognizer at compile time.
var _ stt.UtteranceRecognizer = (*Utterance)(nil)
