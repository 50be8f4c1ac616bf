package portaudio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/MrWong99/hexavox/pkg/audio"
)

// Open starts a capture stream on the device at the given rate and frame
// size. A negative deviceIndex opens the default input device. The returned
// stream owns the device until Close.
func (b *Backend) Open(deviceIndex, sampleRate, frameSize int) (audio.Stream, error) {
	buf := make([]int16, frameSize)

	var (
		s   *portaudio.Stream
		err error
	)
	if deviceIndex < 0 {
		s, err = portaudio.OpenDefaultStream(1, 0, float64(sampleRate), frameSize, buf)
	} else {
		var dev *portaudio.DeviceInfo
		dev, err = b.deviceAt(deviceIndex)
		if err != nil {
			return nil, err
		}
		params := portaudio.StreamParameters{
			Input: portaudio.StreamDeviceParameters{
				Device:   dev,
				Channels: 1,
				Latency:  dev.DefaultHighInputLatency,
			},
			SampleRate:      float64(sampleRate),
			FramesPerBuffer: frameSize,
		}
		s, err = portaudio.OpenStream(params, buf)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open at %d Hz: %v", audio.ErrDeviceUnavailable, sampleRate, err)
	}

	if err := s.Start(); err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: start at %d Hz: %v", audio.ErrDeviceUnavailable, sampleRate, err)
	}

	b.logger.Debug("capture stream opened",
		slog.Int("device_index", deviceIndex),
		slog.Int("rate", sampleRate),
		slog.Int("frame_size", frameSize))

	return &stream{
		s:      s,
		buf:    buf,
		rate:   sampleRate,
		logger: b.logger,
	}, nil
}

// stream wraps a running PortAudio input stream. Read blocks until PortAudio
// fills the registered buffer, bounded by one frame's duration.
type stream struct {
	s      *portaudio.Stream
	buf    []int16
	rate   int
	logger *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

var _ audio.Stream = (*stream)(nil)

func (s *stream) Read() (audio.Frame, error) {
	if err := s.s.Read(); err != nil {
		// Overflow means the hardware produced faster than we consumed for a
		// moment; the buffer still holds a full frame, so keep going.
		if errors.Is(err, portaudio.InputOverflowed) {
			s.logger.Debug("input overflow, continuing")
		} else {
			return audio.Frame{}, fmt.Errorf("portaudio: read: %w", err)
		}
	}

	samples := make([]int16, len(s.buf))
	copy(samples, s.buf)
	return audio.Frame{Samples: samples, SampleRate: s.rate}, nil
}

// Close stops and releases the stream. Safe to call more than once.
func (s *stream) Close() error {
	s.closeOnce.Do(func() {
		if err := s.s.Stop(); err != nil {
			s.closeErr = fmt.Errorf("portaudio: stop: %w", err)
		}
		if err := s.s.Close(); err != nil && s.closeErr == nil {
			s.closeErr = fmt.Errorf("portaudio: close: %w", err)
		}
	})
	return s.closeErr
}
