package audio

import "math"

// Energy computes the root-mean-square level of a frame of int16 samples.
//
// Samples are upcast to float64 before squaring: squaring the minimum int16
// value (-32768) overflows narrow integer arithmetic, so the upcast must
// happen first. An empty frame yields 0.0, and any non-finite or negative
// intermediate collapses to 0.0 rather than propagating.
//
// Pure function, safe to call from any goroutine.
func Energy(samples []int16) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}

	mean := sum / float64(len(samples))
	if math.IsNaN(mean) || math.IsInf(mean, 0) || mean < 0 {
		return 0.0
	}

	rms := math.Sqrt(mean)
	if math.IsNaN(rms) || math.IsInf(rms, 0) || rms < 0 {
		return 0.0
	}
	return rms
}

// EnergyPCM computes the same RMS level over raw little-endian int16 PCM
// bytes. A trailing odd byte is ignored; empty or malformed input yields 0.0.
func EnergyPCM(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0.0
	}

	var sum float64
	for i := 0; i+1 < len(pcm); i += 2 {
		s := int16(pcm[i]) | int16(pcm[i+1])<<8
		v := float64(s)
		sum += v * v
	}

	mean := sum / float64(n)
	if math.IsNaN(mean) || math.IsInf(mean, 0) || mean < 0 {
		return 0.0
	}

	rms := math.Sqrt(mean)
	if math.IsNaN(rms) || math.IsInf(rms, 0) || rms < 0 {
		return 0.0
	}
	return rms
}
