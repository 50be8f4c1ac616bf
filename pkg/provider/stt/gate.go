package stt

// DefaultConfidenceThreshold is the minimum mean word confidence a transcript
// needs to pass [Gate.Accept] unless configured otherwise.
const DefaultConfidenceThreshold = 0.50

// Gate filters out transcripts the engine itself was unsure about, so that a
// half-heard mumble does not turn into a wrong letter. It is a pure decision
// function; callers decide what to do (or log) about rejected transcripts.
type Gate struct {
	// Threshold is the minimum acceptable mean word confidence.
	Threshold float64
}

// NewGate returns a Gate with the given threshold. A zero or negative
// threshold falls back to [DefaultConfidenceThreshold].
func NewGate(threshold float64) Gate {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	return Gate{Threshold: threshold}
}

// Accept reports whether the transcript's mean word confidence reaches the
// threshold. Transcripts without word data are accepted unconditionally:
// engines that report no confidences (whisper.cpp) would otherwise never pass.
func (g Gate) Accept(t Transcript) bool {
	mean, ok := t.MeanConfidence()
	if !ok {
		return true
	}
	return mean >= g.Threshold
}
