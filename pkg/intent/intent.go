// Package intent turns recognized speech into trainer commands.
//
// The vocabulary is deliberately tiny: the 26 letters of the alphabet plus a
// handful of session commands. Because cheap microphones and small acoustic
// models routinely mishear single letters ("b" arrives as "bee", "me" or
// "we"), every letter carries a table of plausible misrecognitions, and
// resolution is an exact lookup against that table. Anything outside the
// table resolves to [KindUnknown] — guessing is worse than asking the learner
// to repeat.
//
// The same table drives the recognition engine's grammar (see
// [GrammarPhrases]) so a grammar-constrained engine can only ever produce
// resolvable phrases or the out-of-vocabulary marker.
package intent

import "fmt"

// Kind discriminates the variants of an [Intent].
type Kind int

const (
	// KindUnknown marks speech that did not resolve to any command. The
	// session treats it as "please repeat", never as an error.
	KindUnknown Kind = iota

	// KindLetter is a resolved letter a..z; the Letter field carries it.
	KindLetter

	// KindExit ends the practice session.
	KindExit
)

// String returns the kind name for logs.
func (k Kind) String() string {
	switch k {
	case KindLetter:
		return "letter"
	case KindExit:
		return "exit"
	default:
		return "unknown"
	}
}

// Intent is a resolved trainer command. The zero value is the Unknown intent.
type Intent struct {
	// Kind discriminates the variant.
	Kind Kind

	// Letter is the resolved letter ('a'..'z'), set only when Kind is
	// KindLetter.
	Letter rune
}

// Letter returns the intent for a single resolved letter.
func Letter(r rune) Intent {
	return Intent{Kind: KindLetter, Letter: r}
}

// Exit is the session-ending intent.
var Exit = Intent{Kind: KindExit}

// Unknown is the "could not resolve" intent.
var Unknown = Intent{Kind: KindUnknown}

// String returns a compact form for logs: "letter(b)", "exit" or "unknown".
func (i Intent) String() string {
	if i.Kind == KindLetter {
		return fmt.Sprintf("letter(%c)", i.Letter)
	}
	return i.Kind.String()
}
