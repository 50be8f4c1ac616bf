package intent

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	// phoneticThreshold is the minimum Jaro-Winkler score required for a
	// phonetically-overlapping phrase to be suggested.
	phoneticThreshold = 0.70

	// fuzzyThreshold is the minimum Jaro-Winkler score required when no
	// phrase overlaps phonetically and the fallback is pure string
	// similarity.
	fuzzyThreshold = 0.85
)

// Suggestion is a diagnostic nearest-phrase result.
type Suggestion struct {
	// Phrase is the in-vocabulary phrase that sounded closest.
	Phrase string

	// Intent is what Phrase resolves to.
	Intent Intent

	// Score is the Jaro-Winkler similarity in [0, 1].
	Score float64
}

// suggestVocabulary lists the candidate phrases in deterministic order so
// score ties always pick the same suggestion.
var suggestVocabulary = buildSuggestVocabulary()

func buildSuggestVocabulary() []string {
	v := make([]string, 0, len(aliasIndex)+len(exitPhrases))
	for letter := 'a'; letter <= 'z'; letter++ {
		v = append(v, letterPhrases[letter]...)
	}
	return append(v, exitPhrases...)
}

// Suggest finds the vocabulary phrase most phonetically similar to text.
//
// It is strictly diagnostic — a "did you mean bee?" hint for logs and spoken
// feedback after [Resolve] returned [Unknown]. Suggestions never feed back
// into resolution; mishearing "free" as "tree" and silently practicing the
// wrong letter would be worse than asking the learner to repeat.
//
// The algorithm proceeds in two stages, ranking by Jaro-Winkler similarity:
// phrases sharing a Double Metaphone code with the input are preferred and
// accepted above a lenient threshold; when nothing overlaps phonetically, a
// pure string-similarity pass applies a stricter one.
func Suggest(text string) (Suggestion, bool) {
	text = normalize(text)
	if rest, ok := strings.CutPrefix(text, letterPrefix); ok {
		text = strings.TrimSpace(rest)
	}
	if text == "" {
		return Suggestion{}, false
	}

	inputTokens := strings.Fields(text)
	inputCodes := codesForTokens(inputTokens)

	var (
		best         Suggestion
		bestPhonetic bool
	)
	for _, phrase := range suggestVocabulary {
		phraseTokens := strings.Fields(phrase)
		overlap := codesOverlap(inputCodes, codesForTokens(phraseTokens))
		score := bestSimilarity(inputTokens, phraseTokens, text, phrase)

		if overlap {
			if score >= phoneticThreshold && (!bestPhonetic || score > best.Score) {
				best = Suggestion{Phrase: phrase, Intent: Resolve(phrase), Score: score}
				bestPhonetic = true
			}
		} else if !bestPhonetic && score >= fuzzyThreshold && score > best.Score {
			best = Suggestion{Phrase: phrase, Intent: Resolve(phrase), Score: score}
		}
	}

	if best.Phrase == "" {
		return Suggestion{}, false
	}
	return best, true
}

// codesForTokens returns the union of all Double Metaphone codes for the
// given tokens. Empty codes (produced when a token is too short or contains
// no consonants) are excluded.
func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

// codesOverlap returns true if the two code sets share at least one code.
func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// bestSimilarity computes the highest Jaro-Winkler similarity between the
// input and a candidate phrase: full strings, space-stripped strings (so
// "doubleyou" still finds "double you"), and the best pairwise token score.
func bestSimilarity(inputTokens, phraseTokens []string, inputFull, phraseFull string) float64 {
	score := matchr.JaroWinkler(inputFull, phraseFull, false)

	if len(inputTokens) > 1 || len(phraseTokens) > 1 {
		concat1 := strings.Join(inputTokens, "")
		concat2 := strings.Join(phraseTokens, "")
		if s := matchr.JaroWinkler(concat1, concat2, false); s > score {
			score = s
		}
	}

	for _, it := range inputTokens {
		for _, pt := range phraseTokens {
			if s := matchr.JaroWinkler(it, pt, false); s > score {
				score = s
			}
		}
	}

	return score
}
