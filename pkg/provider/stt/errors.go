package stt

import "errors"

// ErrModelNotFound indicates that the configured model path does not exist or
// is not readable. Startup treats this as fatal: there is no point entering
// the listening loop without a model.
var ErrModelNotFound = errors.New("speech model not found")

// ErrEngineUnavailable indicates that the engine itself failed to initialize,
// e.g. the native library rejected the model or ran out of memory. Fatal at
// startup for the same reason as [ErrModelNotFound].
var ErrEngineUnavailable = errors.New("speech engine unavailable")
