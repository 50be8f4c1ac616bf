package intent_test

import (
	"testing"

	"github.com/MrWong99/hexavox/pkg/intent"
)

func TestSuggestNearMiss(t *testing.T) {
	s, ok := intent.Suggest("bea")
	if !ok {
		t.Fatal("Suggest(\"bea\") ok = false, want a suggestion")
	}
	if want := intent.Letter('b'); s.Intent != want {
		t.Errorf("Suggest(\"bea\").Intent = %v (phrase %q), want %v", s.Intent, s.Phrase, want)
	}
	if s.Score <= 0 || s.Score > 1 {
		t.Errorf("Suggest(\"bea\").Score = %v, want in (0, 1]", s.Score)
	}
}

func TestSuggestExactPhraseIsItself(t *testing.T) {
	s, ok := intent.Suggest("zed")
	if !ok {
		t.Fatal("Suggest(\"zed\") ok = false, want a suggestion")
	}
	if s.Phrase != "zed" {
		t.Errorf("Suggest(\"zed\").Phrase = %q, want %q", s.Phrase, "zed")
	}
	if want := intent.Letter('z'); s.Intent != want {
		t.Errorf("Suggest(\"zed\").Intent = %v, want %v", s.Intent, want)
	}
}

func TestSuggestExitCommand(t *testing.T) {
	s, ok := intent.Suggest("quid")
	if !ok {
		t.Fatal("Suggest(\"quid\") ok = false, want a suggestion")
	}
	if s.Intent != intent.Exit {
		t.Errorf("Suggest(\"quid\").Intent = %v (phrase %q), want exit", s.Intent, s.Phrase)
	}
}

func TestSuggestStripsLetterPrefix(t *testing.T) {
	s, ok := intent.Suggest("letter bea")
	if !ok {
		t.Fatal("Suggest(\"letter bea\") ok = false, want a suggestion")
	}
	if want := intent.Letter('b'); s.Intent != want {
		t.Errorf("Suggest(\"letter bea\").Intent = %v (phrase %q), want %v", s.Intent, s.Phrase, want)
	}
}

func TestSuggestNothingPlausible(t *testing.T) {
	for _, text := range []string{"", "   ", "[unk]", "encyclopedia britannica"} {
		if s, ok := intent.Suggest(text); ok {
			t.Errorf("Suggest(%q) = %v (phrase %q), want no suggestion", text, s.Intent, s.Phrase)
		}
	}
}
