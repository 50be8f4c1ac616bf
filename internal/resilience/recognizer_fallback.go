package resilience

import (
	"context"

	"github.com/MrWong99/hexavox/pkg/provider/stt"
)

// StreamingFallback implements [stt.StreamingRecognizer] with automatic
// failover across multiple streaming engines (e.g. a large Vosk model falling
// back to the small one). Each engine has its own circuit breaker.
type StreamingFallback struct {
	group *FallbackGroup[stt.StreamingRecognizer]
}

// Compile-time interface assertion.
var _ stt.StreamingRecognizer = (*StreamingFallback)(nil)

// NewStreamingFallback creates a [StreamingFallback] with primary as the
// preferred engine.
func NewStreamingFallback(primary stt.StreamingRecognizer, primaryName string, cfg FallbackConfig) *StreamingFallback {
	return &StreamingFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional streaming engine as a fallback.
func (f *StreamingFallback) AddFallback(name string, rec stt.StreamingRecognizer) {
	f.group.AddFallback(name, rec)
}

// StartStream opens a session against the first healthy engine. Failover
// happens at session start: once a handle is returned, the session sticks to
// its engine.
func (f *StreamingFallback) StartStream(ctx context.Context, cfg stt.StreamConfig) (stt.StreamHandle, error) {
	return ExecuteWithResult(f.group, func(r stt.StreamingRecognizer) (stt.StreamHandle, error) {
		return r.StartStream(ctx, cfg)
	})
}

// UtteranceFallback implements [stt.UtteranceRecognizer] with automatic
// failover across multiple batch engines. Failover happens per utterance, so
// a single failed inference costs one retry on the next engine rather than a
// lost utterance.
type UtteranceFallback struct {
	group *FallbackGroup[stt.UtteranceRecognizer]
}

// Compile-time interface assertion.
var _ stt.UtteranceRecognizer = (*UtteranceFallback)(nil)

// NewUtteranceFallback creates an [UtteranceFallback] with primary as the
// preferred engine.
func NewUtteranceFallback(primary stt.UtteranceRecognizer, primaryName string, cfg FallbackConfig) *UtteranceFallback {
	return &UtteranceFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional batch engine as a fallback.
func (f *UtteranceFallback) AddFallback(name string, rec stt.UtteranceRecognizer) {
	f.group.AddFallback(name, rec)
}

// Recognize transcribes the utterance with the first healthy engine.
func (f *UtteranceFallback) Recognize(ctx context.Context, samples []int16, sampleRate int) (stt.Transcript, error) {
	return ExecuteWithResult(f.group, func(r stt.UtteranceRecognizer) (stt.Transcript, error) {
		return r.Recognize(ctx, samples, sampleRate)
	})
}
