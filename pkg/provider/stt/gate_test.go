package stt_test

import (
	"math"
	"testing"

	"github.com/MrWong99/hexavox/pkg/provider/stt"
)

func transcript(confs ...float64) stt.Transcript {
	t := stt.Transcript{Text: "x", IsFinal: true}
	for _, c := range confs {
		t.Words = append(t.Words, stt.WordDetail{Word: "x", Confidence: c})
	}
	return t
}

func TestMeanConfidence(t *testing.T) {
	tests := []struct {
		name  string
		tr    stt.Transcript
		want  float64
		valid bool
	}{
		{name: "no words", tr: transcript(), want: 0, valid: false},
		{name: "single word", tr: transcript(0.8), want: 0.8, valid: true},
		{name: "averages", tr: transcript(1.0, 0.5, 0.0), want: 0.5, valid: true},
		{name: "all perfect", tr: transcript(1.0, 1.0), want: 1.0, valid: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.tr.MeanConfidence()
			if ok != tc.valid {
				t.Fatalf("MeanConfidence() ok = %v, want %v", ok, tc.valid)
			}
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("MeanConfidence() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGateAccept(t *testing.T) {
	gate := stt.NewGate(0.50)

	tests := []struct {
		name string
		tr   stt.Transcript
		want bool
	}{
		{name: "no word data accepted unconditionally", tr: transcript(), want: true},
		{name: "high confidence accepted", tr: transcript(0.9, 0.95), want: true},
		{name: "exactly at threshold accepted", tr: transcript(0.5), want: true},
		{name: "mean at threshold accepted", tr: transcript(0.2, 0.8), want: true},
		{name: "low confidence rejected", tr: transcript(0.3, 0.4), want: false},
		{name: "one bad word drags mean below", tr: transcript(0.9, 0.05), want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := gate.Accept(tc.tr); got != tc.want {
				t.Errorf("Accept(%v) = %v, want %v", tc.tr.Words, got, tc.want)
			}
		})
	}
}

func TestNewGateDefaultsThreshold(t *testing.T) {
	gate := stt.NewGate(0)
	if gate.Threshold != stt.DefaultConfidenceThreshold {
		t.Fatalf("NewGate(0).Threshold = %v, want %v", gate.Threshold, stt.DefaultConfidenceThreshold)
	}
	if gate = stt.NewGate(-1); gate.Threshold != stt.DefaultConfidenceThreshold {
		t.Fatalf("NewGate(-1).Threshold = %v, want %v", gate.Threshold, stt.DefaultConfidenceThreshold)
	}
	if gate = stt.NewGate(0.75); gate.Threshold != 0.75 {
		t.Fatalf("NewGate(0.75).Threshold = %v, want 0.75", gate.Threshold)
	}
}
