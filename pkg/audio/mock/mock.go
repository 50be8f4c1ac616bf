// Package mock provides in-memory mock implementations of the [audio.Source]
// and [audio.Stream] interfaces for use in unit tests.
//
// All mocks are safe for concurrent use. They record every method call so that
// tests can assert on call counts and arguments, and they expose exported fields
// that the test can set to control return values.
//
// Typical usage:
//
//	stream := &mock.Stream{
//	    Frames: []audio.Frame{{Samples: speech, SampleRate: 16000}},
//	}
//	source := &mock.Source{
//	    DevicesResult: []audio.Device{{Index: 0, Name: "USB Mic", InputChannels: 1}},
//	    OpenResult:    stream,
//	}
//	got, err := source.Open(-1, 16000, 1600)
package mock

import (
	"io"
	"sync"
	"time"

	"github.com/MrWong99/hexavox/pkg/audio"
)

// ─── Stream ───────────────────────────────────────────────────────────────────

// Stream is a mock implementation of [audio.Stream]. It serves the scripted
// Frames in order; once they are exhausted Read returns ExhaustedError, or
// [io.EOF] if that is nil. With Loop set, Read cycles through Frames forever.
type Stream struct {
	mu sync.Mutex

	// Frames is the script served by Read, in order.
	Frames []audio.Frame

	// Loop makes Read cycle through Frames indefinitely instead of draining them.
	Loop bool

	// ReadDelay, when non-zero, is slept on every Read call to imitate the
	// pacing of a real capture device. Useful in timeout tests so a looping
	// stream does not spin hot.
	ReadDelay time.Duration

	// ReadError, when non-nil, is returned by every Read call before any
	// frame is served.
	ReadError error

	// ExhaustedError is returned by Read once Frames are drained (and Loop is
	// false). Defaults to [io.EOF] if left nil.
	ExhaustedError error

	// CloseError is returned by Close.
	CloseError error

	// CallCountRead records how many times Read was called.
	CallCountRead int

	// CallCountClose records how many times Close was called.
	CallCountClose int

	next int
}

var _ audio.Stream = (*Stream)(nil)

// Read implements [audio.Stream]. It returns the next scripted frame.
func (s *Stream) Read() (audio.Frame, error) {
	s.mu.Lock()
	s.CallCountRead++
	delay := s.ReadDelay
	if s.ReadError != nil {
		err := s.ReadError
		s.mu.Unlock()
		return audio.Frame{}, err
	}
	if len(s.Frames) == 0 || (!s.Loop && s.next >= len(s.Frames)) {
		err := s.ExhaustedError
		s.mu.Unlock()
		if err == nil {
			err = io.EOF
		}
		return audio.Frame{}, err
	}
	f := s.Frames[s.next%len(s.Frames)]
	s.next++
	s.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	return f, nil
}

// Close implements [audio.Stream]. Returns CloseError.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CallCountClose++
	return s.CloseError
}

// Rewind resets the frame cursor so the script plays from the start again.
func (s *Stream) Rewind() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = 0
}

// ─── Source ───────────────────────────────────────────────────────────────────

// OpenCall records the arguments of a single [Source.Open] invocation.
type OpenCall struct {
	// DeviceIndex is the deviceIndex argument passed to Open.
	DeviceIndex int
	// SampleRate is the sampleRate argument passed to Open.
	SampleRate int
	// FrameSize is the frameSize argument passed to Open.
	FrameSize int
}

// Source is a mock implementation of [audio.Source].
// Set the exported Result fields before use; inspect the Call* fields after.
type Source struct {
	mu sync.Mutex

	// DevicesResult is returned by Devices.
	DevicesResult []audio.Device

	// DevicesError is the error returned by Devices.
	DevicesError error

	// DefaultDeviceResult is returned by DefaultDevice.
	DefaultDeviceResult audio.Device

	// DefaultDeviceOK is the second return value of DefaultDevice.
	DefaultDeviceOK bool

	// ResolveSampleRateResult is returned by ResolveSampleRate.
	// Defaults to 16000 if left zero.
	ResolveSampleRateResult int

	// OpenResult is the [audio.Stream] returned by Open.
	OpenResult audio.Stream

	// OpenError is the error returned by Open.
	OpenError error

	// CallCountDevices records how many times Devices was called.
	CallCountDevices int

	// CallCountDefaultDevice records how many times DefaultDevice was called.
	CallCountDefaultDevice int

	// ResolveCalls records the device index of every ResolveSampleRate invocation.
	ResolveCalls []int

	// OpenCalls records all Open invocations.
	OpenCalls []OpenCall
}

var _ audio.Source = (*Source)(nil)

// Devices implements [audio.Source]. Returns DevicesResult / DevicesError.
func (s *Source) Devices() ([]audio.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CallCountDevices++
	return s.DevicesResult, s.DevicesError
}

// DefaultDevice implements [audio.Source]. Returns DefaultDeviceResult / DefaultDeviceOK.
func (s *Source) DefaultDevice() (audio.Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CallCountDefaultDevice++
	return s.DefaultDeviceResult, s.DefaultDeviceOK
}

// ResolveSampleRate implements [audio.Source]. Records the call and returns
// ResolveSampleRateResult, defaulting to 16000.
func (s *Source) ResolveSampleRate(deviceIndex int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ResolveCalls = append(s.ResolveCalls, deviceIndex)
	if s.ResolveSampleRateResult == 0 {
		return 16000
	}
	return s.ResolveSampleRateResult
}

// Open implements [audio.Source]. Records the call arguments and returns
// OpenResult / OpenError.
func (s *Source) Open(deviceIndex, sampleRate, frameSize int) (audio.Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.OpenCalls = append(s.OpenCalls, OpenCall{
		DeviceIndex: deviceIndex,
		SampleRate:  sampleRate,
		FrameSize:   frameSize,
	})
	return s.OpenResult, s.OpenError
}
