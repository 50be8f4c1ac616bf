package portaudio

import (
	"log/slog"

	"github.com/gordonklaus/portaudio"
)

// candidateRates are probed in preference order when a device's reported
// default rate does not open. 16 kHz leads because every recognizer model in
// use accepts it natively.
var candidateRates = []int{16000, 22050, 44100, 48000}

// fallbackRate is returned when no probe succeeds. Negotiation degrades, it
// never fails.
const fallbackRate = 16000

// probeFrames is the buffer length used for probe streams.
const probeFrames = 1024

// probeFunc verifies that an input stream opens on dev at the given rate.
type probeFunc func(dev *portaudio.DeviceInfo, sampleRate int) error

// ResolveSampleRate finds a sample rate that is verified to open on the given
// device (negative index means the default input device). It tries the
// device's reported default rate first, then walks the canonical candidates,
// and finally falls back to 16 kHz. It never returns an error.
func (b *Backend) ResolveSampleRate(deviceIndex int) int {
	dev, err := b.deviceAt(deviceIndex)
	if err != nil {
		b.logger.Warn("sample rate negotiation without device, using fallback",
			slog.Int("device_index", deviceIndex),
			slog.Int("rate", fallbackRate),
			slog.Any("err", err))
		return fallbackRate
	}
	rate := negotiate(dev, b.probe)
	b.logger.Debug("sample rate negotiated",
		slog.String("device", dev.Name),
		slog.Int("rate", rate))
	return rate
}

// negotiate runs the probe cascade for dev. Split from ResolveSampleRate so
// the cascade is testable with a scripted probe.
func negotiate(dev *portaudio.DeviceInfo, probe probeFunc) int {
	if def := int(dev.DefaultSampleRate); def > 0 {
		if err := probe(dev, def); err == nil {
			return def
		}
	}

	for _, rate := range candidateRates {
		if err := probe(dev, rate); err == nil {
			return rate
		}
	}
	return fallbackRate
}

// openCloseProbe opens an input stream on dev at the given rate and closes it
// immediately. The transient stream is released before returning.
func openCloseProbe(dev *portaudio.DeviceInfo, sampleRate int) error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: 1,
			Latency:  dev.DefaultHighInputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: probeFrames,
	}

	buf := make([]int16, probeFrames)
	s, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return err
	}
	return s.Close()
}
