package vosk_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/MrWong99/hexavox/pkg/provider/stt"
	"github.com/MrWong99/hexavox/pkg/provider/stt/vosk"
)

func TestNewEmptyPath(t *testing.T) {
	_, err := vosk.New("")
	if err == nil {
		t.Fatal("New(\"\") error = nil, want error")
	}
	if !errors.Is(err, stt.ErrModelNotFound) {
		t.Errorf("New(\"\") error = %v, want wrapping stt.ErrModelNotFound", err)
	}
}

func TestNewMissingModelDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vosk-model-small-en-us-0.15")
	_, err := vosk.New(path)
	if err == nil {
		t.Fatal("New() error = nil for missing model directory, want error")
	}
	if !errors.Is(err, stt.ErrModelNotFound) {
		t.Errorf("New() error = %v, want wrapping stt.ErrModelNotFound", err)
	}
}
