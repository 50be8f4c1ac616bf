package web

import "github.com/MrWong99/hexavox/pkg/braille"

// Message type tags understood by the viewer.
const (
	TypeRecognition = "recognition"
	TypeLetter      = "letter"
	TypeStatus      = "status"
	TypeReset       = "reset"
)

// StatusListening is the status value shown while the trainer waits for
// speech.
const StatusListening = "LISTENING"

// Message is one status-feed event as it appears on the wire. Only the
// fields relevant to the Type are set; the rest are omitted from the JSON.
type Message struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Letter  string `json:"letter,omitempty"`
	Pattern []int  `json:"pattern,omitempty"`
	Value   string `json:"value,omitempty"`
}

// Recognition reports raw heard speech to the viewer.
func Recognition(phrase string) Message {
	return Message{Type: TypeRecognition, Text: "Heard: " + phrase}
}

// Letter reports a resolved letter together with its dot pattern.
func Letter(letter rune, pattern braille.Pattern) Message {
	bits := pattern.Bits()
	return Message{Type: TypeLetter, Letter: string(letter), Pattern: bits[:]}
}

// Status reports a trainer state change, e.g. [StatusListening].
func Status(value string) Message {
	return Message{Type: TypeStatus, Value: value}
}

// Reset tells the viewer to clear the cell and heard text.
func Reset() Message {
	return Message{Type: TypeReset}
}
