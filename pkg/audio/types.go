// Package audio defines the audio types and capture contracts shared across
// the Hexavox pipeline: input devices, int16 sample frames, the Source/Stream
// capture abstraction, safe signal-level math, and PCM conversions.
//
// Backends live in subpackages (portaudio for real hardware, mock for tests)
// and are selected by the application at startup.
package audio

import "time"

// Device is an immutable snapshot of an audio input device, created once per
// enumeration query. Index is the backend's device ordinal and is only valid
// against the enumeration that produced it.
type Device struct {
	Index             int
	Name              string
	DefaultSampleRate int
	InputChannels     int
	IsDefault         bool
}

// Frame is one fixed-size chunk of mono int16 samples read from a capture
// stream. The capture loop owns the sample slice until the frame is handed to
// the analyzer; it is not reused afterwards.
type Frame struct {
	Samples    []int16
	SampleRate int
}

// Duration returns the play time of the frame. Zero when the sample rate is
// unknown or the frame is empty.
func (f Frame) Duration() time.Duration {
	if f.SampleRate <= 0 || len(f.Samples) == 0 {
		return 0
	}
	return time.Duration(len(f.Samples)) * time.Second / time.Duration(f.SampleRate)
}
