// Package endpoint implements energy-based utterance endpointing: deciding
// where speech starts and stops inside a continuous frame stream.
//
// The Detector is a deterministic per-stream state machine. It consumes one
// (frame, energy) pair at a time and emits a bounded utterance once enough
// trailing silence follows speech, or once the recording cap is hit. It holds
// no shared state; feed it from a single goroutine, strictly in arrival order.
package endpoint

import (
	"time"

	"github.com/MrWong99/hexavox/pkg/audio"
)

// State identifies the detector's position in the endpointing cycle.
type State int

const (
	// StateIdle means no speech has been observed; silent frames are discarded.
	StateIdle State = iota
	// StateInSpeech means an utterance is being buffered.
	StateInSpeech
	// StateTrailingSilence means speech paused; silence is counted toward the
	// end-of-utterance decision while frames keep buffering.
	StateTrailingSilence
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInSpeech:
		return "in_speech"
	case StateTrailingSilence:
		return "trailing_silence"
	default:
		return "unknown"
	}
}

// Utterance is a bounded span of captured speech, handed to a recognizer once
// emitted. The sample slice is owned by the receiver; the detector does not
// touch it again.
type Utterance struct {
	Samples    []int16
	SampleRate int
	Duration   time.Duration
}

// Config parameterizes a Detector. Durations are converted to frame counts
// using SampleRate and FrameSize at construction time.
type Config struct {
	// SampleRate of the incoming frames in Hz.
	SampleRate int

	// FrameSize is the fixed per-frame sample count.
	FrameSize int

	// SilenceThreshold is the RMS energy at or below which a frame counts as
	// silence.
	SilenceThreshold float64

	// TrailingSilence is how much continuous silence ends an utterance.
	TrailingSilence time.Duration

	// MinSpeech is the minimum utterance length; shorter emissions are
	// discarded as noise.
	MinSpeech time.Duration

	// MaxRecording caps the buffered utterance; reaching it forces emission
	// from any state.
	MaxRecording time.Duration
}

// Stats counts detector outcomes since the last Reset. Useful for metrics.
type Stats struct {
	Emitted        int
	DiscardedShort int
	ForcedMax      int
}

// Detector is the endpointing state machine. Zero value is not usable; create
// with New.
type Detector struct {
	cfg            Config
	trailingFrames int

	state      State
	buf        []int16
	silenceRun int
	stats      Stats
}

// New creates a Detector for streams of FrameSize samples at SampleRate.
// The trailing-silence duration is rounded up to whole frames so that a
// configured duration is never undercut.
func New(cfg Config) *Detector {
	frameDur := time.Duration(cfg.FrameSize) * time.Second / time.Duration(cfg.SampleRate)
	trailing := 1
	if frameDur > 0 {
		trailing = int((cfg.TrailingSilence + frameDur - 1) / frameDur)
		if trailing < 1 {
			trailing = 1
		}
	}
	return &Detector{
		cfg:            cfg,
		trailingFrames: trailing,
		state:          StateIdle,
	}
}

// State reports the current machine state.
func (d *Detector) State() State { return d.state }

// Stats reports outcome counts since the last Reset.
func (d *Detector) Stats() Stats { return d.stats }

// Reset discards any buffered audio and re-arms the machine, clearing stats.
func (d *Detector) Reset() {
	d.state = StateIdle
	d.buf = nil
	d.silenceRun = 0
	d.stats = Stats{}
}

// Feed advances the machine by one frame with its precomputed energy. When an
// utterance boundary is found, it returns the buffered utterance and true; in
// all other cases (including emissions discarded for being shorter than
// MinSpeech) it returns false.
func (d *Detector) Feed(frame audio.Frame, energy float64) (Utterance, bool) {
	speech := energy > d.cfg.SilenceThreshold

	switch d.state {
	case StateIdle:
		if !speech {
			// Pre-speech silence is not part of the utterance.
			return Utterance{}, false
		}
		d.state = StateInSpeech
		d.silenceRun = 0
		d.buffer(frame)

	case StateInSpeech:
		d.buffer(frame)
		if !speech {
			d.state = StateTrailingSilence
			d.silenceRun = 1
		} else {
			d.silenceRun = 0
		}

	case StateTrailingSilence:
		d.buffer(frame)
		if speech {
			d.state = StateInSpeech
			d.silenceRun = 0
		} else {
			d.silenceRun++
			if d.silenceRun >= d.trailingFrames {
				return d.emit(false)
			}
		}
	}

	if d.cfg.MaxRecording > 0 && len(d.buf) > 0 && d.bufferedDuration() >= d.cfg.MaxRecording {
		return d.emit(true)
	}
	return Utterance{}, false
}

// buffer appends the frame's samples to the utterance under construction.
func (d *Detector) buffer(frame audio.Frame) {
	d.buf = append(d.buf, frame.Samples...)
}

// bufferedDuration is the play time of the buffered samples.
func (d *Detector) bufferedDuration() time.Duration {
	if d.cfg.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(d.buf)) * time.Second / time.Duration(d.cfg.SampleRate)
}

// emit finalizes the buffered utterance and returns to idle. Utterances
// shorter than MinSpeech are dropped: likely a door slam, not speech.
func (d *Detector) emit(forced bool) (Utterance, bool) {
	dur := d.bufferedDuration()
	samples := d.buf

	d.state = StateIdle
	d.buf = nil
	d.silenceRun = 0

	if forced {
		d.stats.ForcedMax++
	}
	if dur < d.cfg.MinSpeech {
		d.stats.DiscardedShort++
		return Utterance{}, false
	}

	d.stats.Emitted++
	return Utterance{
		Samples:    samples,
		SampleRate: d.cfg.SampleRate,
		Duration:   dur,
	}, true
}
