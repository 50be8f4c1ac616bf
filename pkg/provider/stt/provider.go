// Package stt defines the recognizer contracts for speech-to-text engines.
//
// Two shapes of engine exist and the application picks one at configuration
// time. A [StreamingRecognizer] (e.g. Vosk) accepts PCM audio incrementally
// and emits transcripts while audio is still arriving; it can constrain its
// search space to a fixed vocabulary, which is what makes single-letter
// recognition reliable. An [UtteranceRecognizer] (e.g. whisper.cpp) is a
// batch engine: it transcribes one complete utterance at a time and cannot
// produce partials, but needs no vocabulary preparation.
//
// Implementations must be safe for concurrent use. Audio input and transcript
// output channels are goroutine-safe by construction.
package stt

import "context"

// StreamConfig describes the audio format and recognition hints for a new
// streaming session. All fields must be compatible with what the underlying
// engine supports; see each engine's documentation for valid ranges.
type StreamConfig struct {
	// SampleRate is the audio sample rate in Hz of the PCM data that will be
	// delivered via SendAudio. Common values: 16000, 44100, 48000.
	SampleRate int

	// Channels is the number of audio channels. 1 = mono (required by most
	// engines). Zero means mono.
	Channels int

	// Vocabulary restricts or biases the engine toward this phrase list when
	// the engine supports it. Engines without vocabulary support ignore it.
	// Include an out-of-vocabulary marker (such as "[unk]") if the engine
	// should be allowed to report unrecognized speech instead of forcing the
	// nearest in-vocabulary phrase.
	Vocabulary []string
}

// StreamHandle represents an open streaming recognition session. It is an
// interface so that test code can provide mock implementations without
// requiring a loaded model.
//
// Callers must call Close when the session is no longer needed. Failing to do
// so may leak goroutines and native resources inside the engine. All methods
// must be safe for concurrent use.
type StreamHandle interface {
	// SendAudio delivers a chunk of raw 16-bit little-endian signed PCM audio
	// to the engine. The chunk must match the SampleRate and Channels agreed
	// in StreamConfig. Calling SendAudio after Close returns an error.
	SendAudio(chunk []byte) error

	// Partials returns a read-only channel that emits low-latency interim
	// Transcript values as the engine makes preliminary guesses. These are
	// suitable for driving UI indicators but carry no word confidences.
	// The channel is closed when the session ends.
	Partials() <-chan Transcript

	// Finals returns a read-only channel that emits authoritative Transcript
	// values once the engine has committed to a result. These are the values
	// that should be resolved into intents.
	// The channel is closed when the session ends.
	Finals() <-chan Transcript

	// Close flushes any pending audio into a last final transcript,
	// terminates the session, and releases all associated resources. After
	// Close returns, the Partials and Finals channels are closed. Calling
	// Close more than once is safe and returns nil.
	Close() error
}

// StreamingRecognizer is the abstraction over engines that transcribe audio
// incrementally.
//
// Implementations must be safe for concurrent use; multiple sessions may be
// open simultaneously.
type StreamingRecognizer interface {
	// StartStream opens a new streaming session with the given audio format
	// and recognition configuration. The returned StreamHandle is ready to
	// accept audio immediately.
	//
	// Returns an error if the engine cannot establish the session (e.g. the
	// model failed to produce a recognizer or ctx is already cancelled). The
	// caller owns the StreamHandle and must call Close when done.
	StartStream(ctx context.Context, cfg StreamConfig) (StreamHandle, error)
}

// UtteranceRecognizer is the abstraction over batch engines that transcribe
// one complete utterance per call.
type UtteranceRecognizer interface {
	// Recognize transcribes a complete spoken utterance. samples is 16-bit
	// signed mono PCM at the given sample rate; implementations resample
	// internally if the engine requires a fixed rate. Blocks until inference
	// finishes or ctx is cancelled.
	Recognize(ctx context.Context, samples []int16, sampleRate int) (Transcript, error)
}
