package config_test

import (
	"testing"

	"github.com/MrWong99/hexavox/internal/config"
)

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	d := config.Diff(cfg, cfg)
	if d.Any() {
		t.Errorf("expected empty diff for identical configs, got %+v", d)
	}
}

func TestDiff_LogLevelChanged(t *testing.T) {
	t.Parallel()
	old := config.Default()
	new := config.Default()
	new.Server.LogLevel = config.LogDebug

	d := config.Diff(old, new)
	if !d.LogLevelChanged {
		t.Error("expected LogLevelChanged=true")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("expected NewLogLevel=debug, got %q", d.NewLogLevel)
	}
	if d.EndpointChanged || d.ThresholdChanged {
		t.Error("unrelated sections should not be flagged")
	}
}

func TestDiff_EndpointChanged(t *testing.T) {
	t.Parallel()
	old := config.Default()
	new := config.Default()
	new.Endpoint.SilenceEnergyThreshold = 800

	d := config.Diff(old, new)
	if !d.EndpointChanged {
		t.Error("expected EndpointChanged=true")
	}
	if d.NewEndpoint.SilenceEnergyThreshold != 800 {
		t.Errorf("expected new threshold 800, got %.1f", d.NewEndpoint.SilenceEnergyThreshold)
	}
}

func TestDiff_ConfidenceThresholdChanged(t *testing.T) {
	t.Parallel()
	old := config.Default()
	new := config.Default()
	new.Recognizer.ConfidenceThreshold = 0.7

	d := config.Diff(old, new)
	if !d.ThresholdChanged {
		t.Error("expected ThresholdChanged=true")
	}
	if d.NewThreshold != 0.7 {
		t.Errorf("expected NewThreshold=0.7, got %.2f", d.NewThreshold)
	}
}

func TestDiff_ModelChangeIsNotTracked(t *testing.T) {
	t.Parallel()
	// Swapping models needs an engine restart, so the hot-reload diff
	// deliberately ignores it.
	old := config.Default()
	new := config.Default()
	new.Recognizer.ModelPath = "models/other"

	d := config.Diff(old, new)
	if d.Any() {
		t.Errorf("model path change should not appear in the diff, got %+v", d)
	}
}

func TestDiff_DisplayHoldChanged(t *testing.T) {
	t.Parallel()
	old := config.Default()
	new := config.Default()
	new.Display.HoldMS = 1500

	d := config.Diff(old, new)
	if !d.DisplayHoldChanged {
		t.Error("expected DisplayHoldChanged=true")
	}
	if d.NewDisplayHold.HoldMS != 1500 {
		t.Errorf("expected new hold 1500ms, got %d", d.NewDisplayHold.HoldMS)
	}
}

func TestDiff_FeedbackChanged(t *testing.T) {
	t.Parallel()
	old := config.Default()
	new := config.Default()
	new.Feedback.Args = []string{"-v", "en", "-s", "120"}

	d := config.Diff(old, new)
	if !d.FeedbackChanged {
		t.Error("expected FeedbackChanged=true for changed args")
	}

	toggled := config.Default()
	toggled.Feedback.Enabled = false
	d = config.Diff(old, toggled)
	if !d.FeedbackChanged {
		t.Error("expected FeedbackChanged=true for toggled enabled")
	}
}

func TestDiff_MultipleChanges(t *testing.T) {
	t.Parallel()
	old := config.Default()
	new := config.Default()
	new.Server.LogLevel = config.LogWarn
	new.Endpoint.TrailingSilenceMS = 1200
	new.Recognizer.ConfidenceThreshold = 0.4

	d := config.Diff(old, new)
	if !d.LogLevelChanged || !d.EndpointChanged || !d.ThresholdChanged {
		t.Errorf("expected all three sections flagged, got %+v", d)
	}
	if !d.Any() {
		t.Error("Any() should report true")
	}
}
