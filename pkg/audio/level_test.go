package audio_test

import (
	"math"
	"strings"
	"testing"

	"github.com/MrWong99/hexavox/pkg/audio"
)

func TestEnergyEmpty(t *testing.T) {
	if got := audio.Energy(nil); got != 0.0 {
		t.Errorf("Energy(nil): got %v, want 0", got)
	}
	if got := audio.Energy([]int16{}); got != 0.0 {
		t.Errorf("Energy(empty): got %v, want 0", got)
	}
}

func TestEnergySilence(t *testing.T) {
	if got := audio.Energy(make([]int16, 1024)); got != 0.0 {
		t.Errorf("Energy(zeros): got %v, want 0", got)
	}
}

func TestEnergyConstantAmplitude(t *testing.T) {
	samples := make([]int16, 512)
	for i := range samples {
		samples[i] = 1000
	}
	got := audio.Energy(samples)
	if math.Abs(got-1000) > 1e-9 {
		t.Errorf("Energy(constant 1000): got %v, want 1000", got)
	}
}

func TestEnergyAlternatingSign(t *testing.T) {
	// RMS is sign-independent: +/-500 squares to the same value.
	samples := make([]int16, 256)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 500
		} else {
			samples[i] = -500
		}
	}
	got := audio.Energy(samples)
	if math.Abs(got-500) > 1e-9 {
		t.Errorf("Energy(alternating 500): got %v, want 500", got)
	}
}

func TestEnergyMinInt16NoOverflow(t *testing.T) {
	// -32768 squared overflows int16 and int32 paths; the float upcast must
	// happen before squaring so the result stays finite.
	samples := make([]int16, 2048)
	for i := range samples {
		samples[i] = math.MinInt16
	}
	got := audio.Energy(samples)
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("Energy(min int16): got non-finite %v", got)
	}
	if got < 0 {
		t.Fatalf("Energy(min int16): got negative %v", got)
	}
	if math.Abs(got-32768) > 1e-6 {
		t.Errorf("Energy(min int16): got %v, want 32768", got)
	}
}

func TestEnergySingleSample(t *testing.T) {
	got := audio.Energy([]int16{-300})
	if math.Abs(got-300) > 1e-9 {
		t.Errorf("Energy([-300]): got %v, want 300", got)
	}
}

func TestEnergyPCMMatchesEnergy(t *testing.T) {
	samples := []int16{120, -340, 5600, -7800, 32767, -32768}
	pcm := audio.SamplesToPCM(samples)
	a := audio.Energy(samples)
	b := audio.EnergyPCM(pcm)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("EnergyPCM disagrees with Energy: %v vs %v", b, a)
	}
}

func TestEnergyPCMMalformed(t *testing.T) {
	if got := audio.EnergyPCM(nil); got != 0.0 {
		t.Errorf("EnergyPCM(nil): got %v, want 0", got)
	}
	if got := audio.EnergyPCM([]byte{0x7f}); got != 0.0 {
		t.Errorf("EnergyPCM(single byte): got %v, want 0", got)
	}
}

func TestFrameDuration(t *testing.T) {
	f := audio.Frame{Samples: make([]int16, 16000), SampleRate: 16000}
	if got := f.Duration().Seconds(); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("Duration: got %vs, want 1s", got)
	}
	empty := audio.Frame{SampleRate: 16000}
	if empty.Duration() != 0 {
		t.Errorf("empty frame duration: got %v, want 0", empty.Duration())
	}
	unknown := audio.Frame{Samples: make([]int16, 100)}
	if unknown.Duration() != 0 {
		t.Errorf("unknown-rate frame duration: got %v, want 0", unknown.Duration())
	}
}

func TestMeterRender(t *testing.T) {
	m := audio.Meter{Threshold: 500, Width: 20}

	quiet := m.Render(0)
	if len(quiet) == 0 {
		t.Fatal("empty render")
	}
	loud := m.Render(4000)
	if quiet == loud {
		t.Error("quiet and loud readings render identically")
	}
	if !strings.Contains(loud, "SPEECH") {
		t.Errorf("loud render %q missing SPEECH label", loud)
	}
	if !strings.Contains(quiet, "quiet") {
		t.Errorf("quiet render %q missing quiet label", quiet)
	}
}
