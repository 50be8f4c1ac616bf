package intent

import "strings"

// UnknownMarker is the token a grammar-constrained engine emits for speech
// outside its vocabulary. Resolve strips it before lookup; the grammar
// builder appends it so the engine is never forced to pick a wrong letter.
const UnknownMarker = "[unk]"

// letterPrefix lets learners disambiguate short letters by saying
// "letter b" instead of a bare "b".
const letterPrefix = "letter "

// Resolve maps a raw transcript to an [Intent]. Matching is exact after
// normalization (lowercase, trimmed, unknown markers removed): a transcript
// that is not a known phrase resolves to [Unknown] rather than the nearest
// guess. See [Suggest] for the diagnostic nearest-phrase lookup.
func Resolve(text string) Intent {
	text = normalize(text)
	if text == "" {
		return Unknown
	}

	if rest, ok := strings.CutPrefix(text, letterPrefix); ok {
		if letter, ok := aliasIndex[strings.TrimSpace(rest)]; ok {
			return Letter(letter)
		}
		// Fall through: "letter zebra" is still checked as a whole phrase.
	}

	if letter, ok := aliasIndex[text]; ok {
		return Letter(letter)
	}
	if _, ok := exitIndex[text]; ok {
		return Exit
	}
	return Unknown
}

// normalize lowercases, removes unknown markers and trims surrounding
// whitespace. It deliberately does not collapse inner whitespace beyond what
// marker removal leaves behind: multi-word phrases ("double u") must match
// the table exactly.
func normalize(text string) string {
	text = strings.ToLower(text)
	text = strings.ReplaceAll(text, UnknownMarker, "")
	return strings.TrimSpace(text)
}
