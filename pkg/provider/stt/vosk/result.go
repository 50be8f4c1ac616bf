package vosk

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/MrWong99/hexavox/pkg/provider/stt"
)

// resultPayload mirrors the JSON emitted by Result and FinalResult. The
// "result" array is only present when word output is enabled and the engine
// actually decoded something.
type resultPayload struct {
	Text   string        `json:"text"`
	Result []wordPayload `json:"result"`
}

type wordPayload struct {
	Word  string  `json:"word"`
	Conf  float64 `json:"conf"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// partialPayload mirrors the JSON emitted by PartialResult.
type partialPayload struct {
	Partial string `json:"partial"`
}

// parseResult decodes a final result JSON document into a Transcript.
func parseResult(data string) (stt.Transcript, error) {
	var p resultPayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return stt.Transcript{}, fmt.Errorf("decode result %q: %w", data, err)
	}
	t := stt.Transcript{Text: p.Text, IsFinal: true}
	for _, w := range p.Result {
		t.Words = append(t.Words, stt.WordDetail{
			Word:       w.Word,
			Start:      secondsToDuration(w.Start),
			End:        secondsToDuration(w.End),
			Confidence: w.Conf,
		})
	}
	return t, nil
}

// parsePartial decodes a partial result JSON document into its interim text.
func parsePartial(data string) (string, error) {
	var p partialPayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return "", fmt.Errorf("decode partial %q: %w", data, err)
	}
	return p.Partial, nil
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
