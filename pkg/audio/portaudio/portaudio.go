// Package portaudio implements the audio.Source capture contract on top of
// the PortAudio C library. It owns the library lifecycle: New initializes
// PortAudio, Close terminates it. One Backend per process is expected.
package portaudio

import (
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"

	"github.com/MrWong99/hexavox/pkg/audio"
)

// Backend enumerates input devices, negotiates sample rates, and opens
// capture streams. Implements audio.Source.
type Backend struct {
	logger *slog.Logger

	// probe opens and immediately closes an input stream to verify a rate.
	// Swappable for tests.
	probe probeFunc
}

var _ audio.Source = (*Backend)(nil)

// New initializes the PortAudio library and returns a Backend. The caller
// must Close it to release the library.
func New() (*Backend, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: initialize: %w", err)
	}
	return &Backend{
		logger: slog.With(slog.String("component", "portaudio")),
		probe:  openCloseProbe,
	}, nil
}

// Close terminates the PortAudio library.
func (b *Backend) Close() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("portaudio: terminate: %w", err)
	}
	return nil
}

// Devices lists input-capable devices. Device indexes refer to positions in
// the backend's full device list, so they stay valid for Open and
// ResolveSampleRate calls against this Backend.
func (b *Backend) Devices() ([]audio.Device, error) {
	all, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", audio.ErrEnumeration, err)
	}

	def, _ := portaudio.DefaultInputDevice()

	var devices []audio.Device
	for i, info := range all {
		if info.MaxInputChannels <= 0 {
			continue
		}
		devices = append(devices, audio.Device{
			Index:             i,
			Name:              info.Name,
			DefaultSampleRate: int(info.DefaultSampleRate),
			InputChannels:     info.MaxInputChannels,
			IsDefault:         def != nil && info == def,
		})
	}
	return devices, nil
}

// DefaultDevice returns the system default input device. A system without a
// default input reports ok=false, not an error.
func (b *Backend) DefaultDevice() (audio.Device, bool) {
	def, err := portaudio.DefaultInputDevice()
	if err != nil || def == nil {
		return audio.Device{}, false
	}

	dev := audio.Device{
		Index:             -1,
		Name:              def.Name,
		DefaultSampleRate: int(def.DefaultSampleRate),
		InputChannels:     def.MaxInputChannels,
		IsDefault:         true,
	}
	if all, err := portaudio.Devices(); err == nil {
		for i, info := range all {
			if info == def {
				dev.Index = i
				break
			}
		}
	}
	return dev, true
}

// deviceAt resolves an index to the backend's DeviceInfo. A negative index
// means the default input device.
func (b *Backend) deviceAt(index int) (*portaudio.DeviceInfo, error) {
	if index < 0 {
		def, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("%w: no default input device: %v", audio.ErrDeviceUnavailable, err)
		}
		return def, nil
	}

	all, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", audio.ErrEnumeration, err)
	}
	if index >= len(all) {
		return nil, fmt.Errorf("%w: device index %d out of range", audio.ErrDeviceUnavailable, index)
	}
	return all[index], nil
}
