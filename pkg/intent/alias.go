package intent

// letterPhrases maps each letter to every spoken form that should resolve to
// it. The first entry is always the letter itself; the rest are common
// misrecognitions observed with small acoustic models ("b" heard as "bee",
// "me" or "we"). Keys across letters must stay unique — resolution is a flat
// reverse lookup.
var letterPhrases = map[rune][]string{
	'a': {"a", "ay", "hey", "hay", "eh", "day"},
	'b': {"b", "bee", "be", "me", "we"},
	'c': {"c", "cee", "see", "sea", "she"},
	'd': {"d", "dee", "the", "they", "there"},
	'e': {"e", "ee", "he"},
	'f': {"f", "ef", "if", "off", "half"},
	'g': {"g", "gee", "jee"},
	'h': {"h", "aitch", "age", "eight"},
	'i': {"i", "eye", "hi", "high"},
	'j': {"j", "jay"},
	'k': {"k", "kay", "okay", "gay"},
	'l': {"l", "el", "hell", "all", "ill"},
	'm': {"m", "em", "am", "um", "them"},
	'n': {"n", "en", "an", "in", "and", "end"},
	'o': {"o", "oh", "zero", "owe"},
	'p': {"p", "pee", "pe"},
	'q': {"q", "cue", "queue"},
	'r': {"r", "are", "or", "our", "hour"},
	's': {"s", "ess", "yes", "is", "as"},
	't': {"t", "tee", "tea", "to", "two", "tree"},
	'u': {"u", "you", "hue", "who"},
	'v': {"v", "vee"},
	'w': {"w", "double u", "double you"},
	'x': {"x", "ex", "axe", "acts"},
	'y': {"y", "why", "while", "wa"},
	'z': {"z", "zee", "zed", "ze"},
}

// exitPhrases are the spoken commands that end a practice session.
var exitPhrases = []string{"exit", "quit", "stop"}

// aliasIndex is the flat reverse lookup phrase -> letter.
var aliasIndex = buildAliasIndex()

// exitIndex is the exit-phrase set.
var exitIndex = buildExitIndex()

func buildAliasIndex() map[string]rune {
	idx := make(map[string]rune, 26*5)
	for letter := 'a'; letter <= 'z'; letter++ {
		for _, phrase := range letterPhrases[letter] {
			idx[phrase] = letter
		}
	}
	return idx
}

func buildExitIndex() map[string]struct{} {
	idx := make(map[string]struct{}, len(exitPhrases))
	for _, phrase := range exitPhrases {
		idx[phrase] = struct{}{}
	}
	return idx
}
