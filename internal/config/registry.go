package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/MrWong99/hexavox/pkg/provider/stt"
)

// ErrEngineNotRegistered is returned by Create* methods when no factory has
// been registered under the requested engine name.
var ErrEngineNotRegistered = errors.New("config: engine not registered")

// Registry maps engine names to their constructor functions for both
// recognizer contracts. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	streaming map[Engine]func(RecognizerEntry) (stt.StreamingRecognizer, error)
	utterance map[Engine]func(RecognizerEntry) (stt.UtteranceRecognizer, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		streaming: make(map[Engine]func(RecognizerEntry) (stt.StreamingRecognizer, error)),
		utterance: make(map[Engine]func(RecognizerEntry) (stt.UtteranceRecognizer, error)),
	}
}

// RegisterStreaming registers a streaming recognizer factory under engine.
// Subsequent calls with the same engine overwrite the previous registration.
func (r *Registry) RegisterStreaming(engine Engine, factory func(RecognizerEntry) (stt.StreamingRecognizer, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streaming[engine] = factory
}

// RegisterUtterance registers a whole-utterance recognizer factory under engine.
func (r *Registry) RegisterUtterance(engine Engine, factory func(RecognizerEntry) (stt.UtteranceRecognizer, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.utterance[engine] = factory
}

// CreateStreaming instantiates a streaming recognizer using the factory
// registered under entry.Engine. Returns [ErrEngineNotRegistered] if no
// factory has been registered for that engine.
func (r *Registry) CreateStreaming(entry RecognizerEntry) (stt.StreamingRecognizer, error) {
	r.mu.RLock()
	factory, ok := r.streaming[entry.Engine]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: streaming/%q", ErrEngineNotRegistered, entry.Engine)
	}
	return factory(entry)
}

// CreateUtterance instantiates a whole-utterance recognizer using the
// factory registered under entry.Engine.
func (r *Registry) CreateUtterance(entry RecognizerEntry) (stt.UtteranceRecognizer, error) {
	r.mu.RLock()
	factory, ok := r.utterance[entry.Engine]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: utterance/%q", ErrEngineNotRegistered, entry.Engine)
	}
	return factory(entry)
}
