package stt

import "time"

// Transcript represents a recognition result from a speech-to-text engine.
// Both partial (interim) and final transcripts use this type.
type Transcript struct {
	// Text is the transcribed speech content.
	Text string

	// IsFinal indicates whether this is a final (authoritative) or partial
	// (interim) transcript.
	IsFinal bool

	// Words contains per-word detail when the engine reports it. May be nil
	// for engines without word-level output (e.g. whisper.cpp); confidence
	// gating then accepts the transcript unconditionally.
	Words []WordDetail
}

// WordDetail holds per-word metadata from engines that support it.
type WordDetail struct {
	Word       string
	Start      time.Duration
	End        time.Duration
	Confidence float64
}

// MeanConfidence returns the arithmetic mean of the per-word confidences.
// The second return value is false when the transcript carries no word data,
// in which case the mean is meaningless.
func (t Transcript) MeanConfidence() (float64, bool) {
	if len(t.Words) == 0 {
		return 0, false
	}
	var sum float64
	for _, w := range t.Words {
		sum += w.Confidence
	}
	return sum / float64(len(t.Words)), true
}
