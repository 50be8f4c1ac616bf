package intent

// Vocabulary returns every phrase [Resolve] accepts, in deterministic order:
// for each letter a..z each alias followed by its "letter "-prefixed variant,
// then the exit phrases. This is the phrase list handed to engines that
// support vocabulary biasing.
func Vocabulary() []string {
	phrases := make([]string, 0, 2*len(aliasIndex)+len(exitPhrases))
	for letter := 'a'; letter <= 'z'; letter++ {
		for _, phrase := range letterPhrases[letter] {
			phrases = append(phrases, phrase, letterPrefix+phrase)
		}
	}
	phrases = append(phrases, exitPhrases...)
	return phrases
}

// GrammarPhrases returns [Vocabulary] plus the out-of-vocabulary marker.
// Grammar-constrained engines decode against exactly this list; the marker
// lets them report "none of the above" instead of forcing the nearest phrase.
func GrammarPhrases() []string {
	return append(Vocabulary(), UnknownMarker)
}
