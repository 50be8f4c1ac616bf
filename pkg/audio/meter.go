package audio

import (
	"fmt"
	"strings"
)

// meterCeiling is the energy treated as a full bar. Speech on a consumer
// microphone rarely exceeds this RMS level.
const meterCeiling = 8000.0

// Meter renders RMS energy readings as a fixed-width console bar. Used by the
// level-meter diagnostic mode to help pick a silence threshold.
type Meter struct {
	// Threshold is marked on the bar; readings above it are labelled SPEECH.
	Threshold float64

	// Width is the bar width in characters. Zero means 40.
	Width int
}

// Render returns a single-line bar for the given energy reading, e.g.
//
//	[######|------------------]  1523.4 SPEECH
func (m Meter) Render(energy float64) string {
	width := m.Width
	if width <= 0 {
		width = 40
	}

	fill := int(energy / meterCeiling * float64(width))
	if fill > width {
		fill = width
	}
	if fill < 0 {
		fill = 0
	}

	mark := int(m.Threshold / meterCeiling * float64(width))
	if mark >= width {
		mark = width - 1
	}

	var b strings.Builder
	b.WriteByte('[')
	for i := range width {
		switch {
		case i == mark && m.Threshold > 0:
			b.WriteByte('|')
		case i < fill:
			b.WriteByte('#')
		default:
			b.WriteByte('-')
		}
	}
	b.WriteByte(']')

	label := "quiet"
	if m.Threshold > 0 && energy > m.Threshold {
		label = "SPEECH"
	}
	return fmt.Sprintf("%s %8.1f %s", b.String(), energy, label)
}
