package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; engine and
// device changes need a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// EndpointChanged covers all detector tuning knobs, so thresholds can
	// be adjusted while someone is practising.
	EndpointChanged bool
	NewEndpoint     EndpointConfig

	ThresholdChanged bool
	NewThreshold     float64

	DisplayHoldChanged bool
	NewDisplayHold     DisplayConfig

	FeedbackChanged bool
	NewFeedback     FeedbackConfig
}

// Any reports whether the diff carries at least one change.
func (d ConfigDiff) Any() bool {
	return d.LogLevelChanged || d.EndpointChanged || d.ThresholdChanged ||
		d.DisplayHoldChanged || d.FeedbackChanged
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Endpoint != new.Endpoint {
		d.EndpointChanged = true
		d.NewEndpoint = new.Endpoint
	}

	if old.Recognizer.ConfidenceThreshold != new.Recognizer.ConfidenceThreshold {
		d.ThresholdChanged = true
		d.NewThreshold = new.Recognizer.ConfidenceThreshold
	}

	if old.Display != new.Display {
		d.DisplayHoldChanged = true
		d.NewDisplayHold = new.Display
	}

	if feedbackChanged(old.Feedback, new.Feedback) {
		d.FeedbackChanged = true
		d.NewFeedback = new.Feedback
	}

	return d
}

// feedbackChanged compares feedback configs field by field; the Args slice
// keeps FeedbackConfig from being comparable with ==.
func feedbackChanged(old, new FeedbackConfig) bool {
	if old.Enabled != new.Enabled || old.Command != new.Command {
		return true
	}
	if len(old.Args) != len(new.Args) {
		return true
	}
	for i := range old.Args {
		if old.Args[i] != new.Args[i] {
			return true
		}
	}
	return false
}
