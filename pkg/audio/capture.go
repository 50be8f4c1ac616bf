package audio

import "errors"

// Sentinel errors shared by all capture backends.
var (
	// ErrEnumeration indicates the audio backend could not be queried for its
	// device list. Fatal at startup.
	ErrEnumeration = errors.New("audio: device enumeration failed")

	// ErrDeviceUnavailable indicates the chosen device refused to open. The
	// caller may fall back to sample-rate/device negotiation.
	ErrDeviceUnavailable = errors.New("audio: device unavailable")
)

// Source provides access to input devices and capture streams. The portaudio
// subpackage implements it against real hardware; the mock subpackage scripts
// it for tests.
type Source interface {
	// Devices lists input-capable devices in backend order. Devices without
	// input channels are filtered out. Wraps ErrEnumeration on backend failure.
	Devices() ([]Device, error)

	// DefaultDevice returns the backend's default input device, or ok=false
	// when none exists. Absence of a default is not an error.
	DefaultDevice() (Device, bool)

	// ResolveSampleRate returns a sample rate verified to open on the given
	// device (negative index means "the default device"). It degrades through
	// a canonical candidate list and never fails.
	ResolveSampleRate(deviceIndex int) int

	// Open starts a capture stream on the device at the given rate and frame
	// size. Wraps ErrDeviceUnavailable when the device cannot be opened.
	Open(deviceIndex, sampleRate, frameSize int) (Stream, error)
}

// Stream is an open capture stream delivering fixed-size frames. Read blocks
// until the next frame is available; the wait is bounded by one frame's
// duration. Close releases the device and must be called on every exit path.
type Stream interface {
	Read() (Frame, error)
	Close() error
}
