// Command hexavox is the voice-driven Braille letter trainer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/MrWong99/hexavox/internal/app"
	"github.com/MrWong99/hexavox/internal/config"
	"github.com/MrWong99/hexavox/internal/listener"
	"github.com/MrWong99/hexavox/internal/observe"
	"github.com/MrWong99/hexavox/internal/resilience"
	"github.com/MrWong99/hexavox/pkg/audio"
	"github.com/MrWong99/hexavox/pkg/audio/portaudio"
	"github.com/MrWong99/hexavox/pkg/intent"
	"github.com/MrWong99/hexavox/pkg/provider/stt"
	"github.com/MrWong99/hexavox/pkg/provider/stt/vosk"
	"github.com/MrWong99/hexavox/pkg/provider/stt/whisper"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	listDevices := flag.Bool("list-devices", false, "list capture devices and exit")
	testMic := flag.Bool("test-mic", false, "run live recognition for 15 seconds and exit")
	levelMeter := flag.Bool("level-meter", false, "print a live RMS meter to help pick the silence threshold")
	simulate := flag.Bool("simulate", false, "accepted for compatibility; the console display is always simulated")
	verbose := flag.Bool("verbose", false, "force debug logging regardless of the configured level")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "hexavox: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "hexavox: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	// The level lives in a LevelVar so config reloads can retune it at runtime.
	level := new(slog.LevelVar)
	level.Set(cfg.Server.LogLevel.Level())
	if *verbose {
		level.Set(slog.LevelDebug)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	slog.Info("hexavox starting",
		"config", *configPath,
		"engine", cfg.Recognizer.Engine,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Telemetry ─────────────────────────────────────────────────────────────
	// Must run before the first metrics instrument is created, or everything
	// records into the no-op global provider.
	otelShutdown, err := observe.InitProvider(context.Background(), observe.ProviderConfig{
		ServiceName: "hexavox",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(flushCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Capture backend ───────────────────────────────────────────────────────
	backend, err := portaudio.New()
	if err != nil {
		slog.Error("failed to initialise audio capture", "err", err)
		return 1
	}
	defer func() {
		if err := backend.Close(); err != nil {
			slog.Warn("audio backend close error", "err", err)
		}
	}()

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Diagnostic modes ──────────────────────────────────────────────────────
	switch {
	case *listDevices:
		return runListDevices(backend)
	case *levelMeter:
		return runLevelMeter(ctx, cfg, backend)
	}

	if *simulate {
		slog.Info("simulation flag is redundant; the console display is always simulated")
	}

	// ── Engine registry ───────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinEngines(reg)

	// ── Recognizer chain ──────────────────────────────────────────────────────
	providers, closeEngines, err := buildProviders(cfg, reg, backend)
	if err != nil {
		slog.Error("failed to build recognizer chain", "err", err)
		return 1
	}
	defer closeEngines()

	if *testMic {
		return runMicTest(ctx, cfg, providers)
	}

	// ── Startup summary ───────────────────────────────────────────────────────
	printStartupSummary(cfg)

	application, err := app.New(ctx, cfg, providers, app.WithLogLevel(level))
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	// ── Config hot reload ─────────────────────────────────────────────────────
	if *configPath != "" {
		watcher, err := config.NewWatcher(*configPath, application.ApplyConfig)
		if err != nil {
			slog.Warn("config hot reload disabled", "err", err)
		} else {
			defer watcher.Stop()
		}
	}

	slog.Info("trainer ready — say a letter, or press Ctrl+C to stop")

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("stopping…")

	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Engine wiring ─────────────────────────────────────────────────────────────

// registerBuiltinEngines wires the engine factories that ship with hexavox
// into reg. Vosk decodes against the trainer grammar; whisper is
// open-vocabulary and takes only a language hint.
func registerBuiltinEngines(reg *config.Registry) {
	reg.RegisterStreaming(config.EngineVosk, func(entry config.RecognizerEntry) (stt.StreamingRecognizer, error) {
		return vosk.New(entry.ModelPath, vosk.WithVocabulary(intent.GrammarPhrases()))
	})

	reg.RegisterUtterance(config.EngineWhisper, func(entry config.RecognizerEntry) (stt.UtteranceRecognizer, error) {
		var opts []whisper.Option
		if entry.Language != "" {
			opts = append(opts, whisper.WithLanguage(entry.Language))
		}
		return whisper.New(entry.ModelPath, opts...)
	})

	slog.Debug("registered engine", "engine", config.EngineVosk, "mode", "streaming")
	slog.Debug("registered engine", "engine", config.EngineWhisper, "mode", "utterance")
}

// buildProviders instantiates the configured engine chain using the registry
// and returns it in an [app.Providers] struct, plus a function that closes
// every created engine. Fallback entries share the primary's recognition mode
// (validated at load), so the whole chain lands in one provider slot.
func buildProviders(cfg *config.Config, reg *config.Registry, source audio.Source) (*app.Providers, func(), error) {
	ps := &app.Providers{Source: source}

	var closers []func() error
	track := func(engine any) {
		if c, ok := engine.(io.Closer); ok {
			closers = append(closers, c.Close)
		}
	}
	closeEngines := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				slog.Warn("engine close error", "err", err)
			}
		}
	}

	primary := cfg.Recognizer.Primary()
	if cfg.Recognizer.Engine.Streaming() {
		rec, err := reg.CreateStreaming(primary)
		if err != nil {
			closeEngines()
			return nil, nil, fmt.Errorf("create %s recognizer: %w", primary.Engine, err)
		}
		track(rec)

		if len(cfg.Recognizer.Fallbacks) == 0 {
			ps.Streaming = rec
		} else {
			chain := resilience.NewStreamingFallback(rec, string(primary.Engine), resilience.FallbackConfig{})
			for _, entry := range cfg.Recognizer.Fallbacks {
				fb, err := reg.CreateStreaming(entry)
				if err != nil {
					closeEngines()
					return nil, nil, fmt.Errorf("create fallback %s recognizer: %w", entry.Engine, err)
				}
				track(fb)
				chain.AddFallback(string(entry.Engine), fb)
			}
			ps.Streaming = chain
		}
	} else {
		rec, err := reg.CreateUtterance(primary)
		if err != nil {
			closeEngines()
			return nil, nil, fmt.Errorf("create %s recognizer: %w", primary.Engine, err)
		}
		track(rec)

		if len(cfg.Recognizer.Fallbacks) == 0 {
			ps.Buffered = rec
		} else {
			chain := resilience.NewUtteranceFallback(rec, string(primary.Engine), resilience.FallbackConfig{})
			for _, entry := range cfg.Recognizer.Fallbacks {
				fb, err := reg.CreateUtterance(entry)
				if err != nil {
					closeEngines()
					return nil, nil, fmt.Errorf("create fallback %s recognizer: %w", entry.Engine, err)
				}
				track(fb)
				chain.AddFallback(string(entry.Engine), fb)
			}
			ps.Buffered = chain
		}
	}

	slog.Info("recognizer ready",
		"engine", primary.Engine,
		"model", cfg.Recognizer.ModelPath,
		"fallbacks", len(cfg.Recognizer.Fallbacks),
	)
	return ps, closeEngines, nil
}

// ── Diagnostic modes ──────────────────────────────────────────────────────────

// runListDevices prints the input-capable capture devices and exits.
func runListDevices(backend *portaudio.Backend) int {
	devices, err := backend.Devices()
	if err != nil {
		slog.Error("listing capture devices failed", "err", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Println("no input-capable devices found")
		return 0
	}

	fmt.Println("  index  name                              rate     channels")
	for _, dev := range devices {
		marker := " "
		if dev.IsDefault {
			marker = "*"
		}
		fmt.Printf("%s %4d   %-32s  %6d   %d\n", marker, dev.Index, dev.Name, dev.DefaultSampleRate, dev.InputChannels)
	}
	fmt.Println("* system default — select another with audio.device_index")
	return 0
}

// runLevelMeter streams RMS readings as a console bar until interrupted, so a
// learner can calibrate endpoint.silence_energy_threshold for their room.
func runLevelMeter(ctx context.Context, cfg *config.Config, backend *portaudio.Backend) int {
	rate := cfg.Audio.SampleRate
	if cfg.Audio.AutoDetectSampleRate || rate <= 0 {
		rate = backend.ResolveSampleRate(cfg.Audio.DeviceIndex)
	}

	stream, err := backend.Open(cfg.Audio.DeviceIndex, rate, cfg.Audio.FrameSize)
	if err != nil {
		slog.Error("opening capture stream failed", "err", err)
		return 1
	}
	defer stream.Close()

	meter := audio.Meter{Threshold: cfg.Endpoint.SilenceEnergyThreshold}
	fmt.Printf("sampling at %d Hz — speak normally; | marks the silence threshold (Ctrl+C to stop)\n", rate)

	for ctx.Err() == nil {
		frame, err := stream.Read()
		if err != nil {
			fmt.Println()
			slog.Error("capture read failed", "err", err)
			return 1
		}
		fmt.Printf("\r%s", meter.Render(audio.Energy(frame.Samples)))
	}
	fmt.Println()
	return 0
}

// runMicTest runs live recognition for a short window so a learner can verify
// the whole pipeline before practising.
func runMicTest(ctx context.Context, cfg *config.Config, providers *app.Providers) int {
	sess, err := listener.New(listener.Config{
		Source:               providers.Source,
		Streaming:            providers.Streaming,
		Buffered:             providers.Buffered,
		Engine:               string(cfg.Recognizer.Engine),
		DeviceIndex:          cfg.Audio.DeviceIndex,
		SampleRate:           cfg.Audio.SampleRate,
		AutoDetectSampleRate: cfg.Audio.AutoDetectSampleRate,
		FrameSize:            cfg.Audio.FrameSize,
		Tuning: listener.Tuning{
			SilenceThreshold: cfg.Endpoint.SilenceEnergyThreshold,
			TrailingSilence:  cfg.Endpoint.TrailingSilence(),
			MinSpeech:        cfg.Endpoint.MinSpeech(),
			MaxRecording:     cfg.Endpoint.MaxRecording(),
		},
		ConfidenceThreshold: cfg.Recognizer.ConfidenceThreshold,
	})
	if err != nil {
		slog.Error("building test pipeline failed", "err", err)
		return 1
	}
	dev, rate, err := sess.Negotiate()
	if err != nil {
		slog.Error("negotiating capture device failed", "err", err)
		return 1
	}

	const window = 15 * time.Second
	fmt.Printf("listening on %q at %d Hz for %s — say letters (Ctrl+C to stop early)\n", dev.Name, rate, window)

	testCtx, cancel := context.WithTimeout(ctx, window)
	defer cancel()
	for {
		res, err := sess.Listen(testCtx, 0)
		if err != nil {
			if testCtx.Err() != nil {
				fmt.Println("mic test finished")
				return 0
			}
			slog.Error("listen failed", "err", err)
			return 1
		}
		switch {
		case res.TimedOut:
			fmt.Println("…nothing heard, still listening")
		case res.HasConfidence:
			fmt.Printf("heard %q → %s (confidence %.2f)\n", res.Heard, res.Intent, res.Confidence)
		default:
			fmt.Printf("heard %q → %s\n", res.Heard, res.Intent)
		}
	}
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║         Hexavox — startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printRow("Engine", engineSummary(cfg.Recognizer))
	printRow("Model", filepath.Base(cfg.Recognizer.ModelPath))
	printRow("Device", deviceSummary(cfg.Audio.DeviceIndex))
	printRow("Sample rate", rateSummary(cfg.Audio))
	printRow("Confidence", fmt.Sprintf("%.2f", cfg.Recognizer.ConfidenceThreshold))
	printRow("Feedback", orDisabled(feedbackSummary(cfg.Feedback)))
	printRow("History", orDisabled(cfg.Progress.Path))
	printRow("Status feed", orDisabled(cfg.Server.ListenAddr))
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printRow(label, value string) {
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", label, value)
}

func engineSummary(r config.RecognizerConfig) string {
	if len(r.Fallbacks) == 0 {
		return string(r.Engine)
	}
	return fmt.Sprintf("%s +%d fallback", r.Engine, len(r.Fallbacks))
}

func deviceSummary(index int) string {
	if index < 0 {
		return "system default"
	}
	return fmt.Sprintf("index %d", index)
}

func rateSummary(a config.AudioConfig) string {
	switch {
	case a.AutoDetectSampleRate:
		return "auto-detect"
	case a.SampleRate > 0:
		return fmt.Sprintf("%d Hz", a.SampleRate)
	default:
		return "device default"
	}
}

func feedbackSummary(f config.FeedbackConfig) string {
	if !f.Enabled {
		return ""
	}
	return f.Command
}

func orDisabled(value string) string {
	if value == "" {
		return "(disabled)"
	}
	return value
}
