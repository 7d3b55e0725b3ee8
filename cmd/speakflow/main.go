// Command speakflow is the voice-to-text hotkey daemon: press the hotkey to
// record, press it again to transcribe and paste into the focused window.
// A tray icon shows whether it is idle, recording or processing.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	cli "github.com/spf13/pflag"

	"github.com/fedoraxfce/deskbin/internal/audio"
	"github.com/fedoraxfce/deskbin/internal/config"
	"github.com/fedoraxfce/deskbin/internal/flow"
	"github.com/fedoraxfce/deskbin/internal/hotkey"
	"github.com/fedoraxfce/deskbin/internal/inject"
	"github.com/fedoraxfce/deskbin/internal/logging"
	"github.com/fedoraxfce/deskbin/internal/models"
	"github.com/fedoraxfce/deskbin/internal/transcribe"
	"github.com/fedoraxfce/deskbin/internal/tray"
)

const appName = "SpeakFlow"

func main() {
	configPath := cli.StringP("config", "c", "", "path to config file (default: ~/.config/speakflow/config.yaml)")
	writeConfig := cli.Bool("write-config", false, "write a default config file and exit")
	downloadModel := cli.String("download-model", "", "download a whisper model (tiny, base, small, medium, large, turbo) and exit")
	logLevel := cli.StringP("log-level", "l", "", "log level: debug, info, warn, error (overrides config)")
	noTray := cli.Bool("no-tray", false, "run without the system tray icon")
	cli.Parse()

	logging.Setup(cmp.Or(*logLevel, "info"))

	if *writeConfig {
		path, err := config.WriteDefault()
		if err != nil {
			fatal("Failed to write config", err)
		}
		if path == "" {
			fmt.Printf("Config already exists: %s\n", config.DefaultConfigPath())
		} else {
			fmt.Printf("Wrote %s\n", path)
		}
		return
	}
	if *downloadModel != "" {
		path, err := models.New().Download(context.Background(), *downloadModel, config.DefaultModelsDir())
		if err != nil {
			fatal("Model download failed", err)
		}
		fmt.Printf("Model ready: %s\n", path)
		return
	}

	if err := config.LoadEnv(""); err != nil {
		slog.Warn("Could not load env file", "error", err)
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal("Config", err)
	}
	cfg.ApplyEnv()
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fatal("Config validation", err)
	}
	logging.Setup(cfg.LogLevel)

	lock, err := acquireLock()
	if err != nil {
		fatal("Single instance check", err)
	}

	keys, err := hotkey.ParseCombo(cfg.Hotkey.Combo)
	if err != nil {
		fatal("Hotkey", err)
	}

	printBanner(cfg)

	slog.Info("Loading transcriber", "backend", cfg.Transcribe.Backend)
	modelStart := time.Now()
	transcriber, err := transcribe.New(&cfg.Transcribe)
	if err != nil {
		if cfg.Transcribe.Backend == "whisper" {
			slog.Error("Check the model file, or run: speakflow --download-model "+cfg.Transcribe.Model,
				"path", cfg.Transcribe.ModelPath)
		}
		fatal("Failed to load transcriber", err)
	}
	slog.Info("Transcriber ready", "elapsed", time.Since(modelStart).Round(time.Millisecond))

	recorder, err := audio.NewRecorder(cfg.Audio.SampleRate, cfg.Audio.Channels)
	if err != nil {
		transcriber.Close()
		fatal("Failed to initialize audio recorder", err)
	}
	slog.Info("Audio recorder ready")

	injector := inject.NewInjector(inject.Options{
		Method:           cfg.Inject.Method,
		TypingFallback:   cfg.Inject.TypingFallback,
		RestoreClipboard: cfg.Inject.RestoreClipboard,
	})
	slog.Info("Text injector ready", "method", cfg.Inject.Method)

	var (
		t          *tray.Tray
		indicators flow.Indicators
		quitOnce   sync.Once
		quit       = make(chan struct{})
	)
	stop := func() { quitOnce.Do(func() { close(quit) }) }
	if !*noTray {
		t = tray.New(appName, stop)
		indicators = append(indicators, t)
	}
	if cfg.Notify {
		indicators = append(indicators, tray.NewNotifier(appName))
	}

	f := flow.New(flow.Options{
		Recorder:    recorder,
		Transcriber: transcriber,
		Injector:    injector,
		Indicator:   indicators,
		SampleRate:  int(cfg.Audio.SampleRate),
		MinDuration: cfg.Audio.MinDuration,
	})

	listener := hotkey.NewListener(keys, cfg.Hotkey.Mode)
	go listener.Start()
	go dispatch(listener.Events(), f, cfg.Hotkey.Mode)
	slog.Info("Hotkey listener ready", "combo", strings.Join(keys, "+"), "mode", cfg.Hotkey.Mode)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			slog.Info("Received signal, shutting down", "signal", sig)
		case <-quit:
		}
		stop()
		if t != nil {
			t.Stop()
		}
	}()

	slog.Info("Ready! Press " + strings.Join(keys, "+") + " to dictate. Ctrl+C to quit.")
	if t != nil {
		t.Run()
	}
	<-quit

	f.Shutdown()
	f.Wait()
	listener.Stop()
	recorder.Close()
	transcriber.Close()
	lock.Unlock()
	slog.Info("Goodbye!")
	// Exit directly to avoid gohook's C cleanup crash.
	os.Exit(0)
}

// dispatch maps hotkey events onto the latch.
func dispatch(events <-chan hotkey.Event, f *flow.Flow, mode string) {
	for ev := range events {
		slog.Debug("Hotkey event", "type", ev.Type)
		if mode == hotkey.ModeHold {
			if ev.Type == hotkey.EventStart {
				f.Begin()
			} else {
				f.Finish()
			}
			continue
		}
		if err := f.Toggle(); err != nil && !errors.Is(err, flow.ErrBusy) {
			slog.Error("Hotkey action failed", "error", err)
		}
	}
	slog.Info("Hotkey listener stopped")
}

// acquireLock takes ~/.cache/speakflow/speakflow.lock or fails when another
// instance holds it.
func acquireLock() (*flock.Flock, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "speakflow", "speakflow.lock")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s is already running (lock %s)", appName, path)
	}
	return lock, nil
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cfg, used, err := config.LoadDefault()
	if err != nil {
		return nil, err
	}
	if used == "" {
		slog.Info("No config file found, using defaults", "hint", "speakflow --write-config")
	} else {
		slog.Info("Loaded config", "path", used)
	}
	return cfg, nil
}

func printBanner(cfg *config.Config) {
	fmt.Println("╔══════════════════════════════════════╗")
	fmt.Println("║              SpeakFlow               ║")
	fmt.Println("╚══════════════════════════════════════╝")
	fmt.Printf("  Backend:  %s\n", cfg.Transcribe.Backend)
	if cfg.Transcribe.Backend == "openai" {
		fmt.Printf("  Model:    %s\n", cfg.Transcribe.OpenAIModel)
	} else {
		fmt.Printf("  Model:    %s\n", cfg.Transcribe.ModelPath)
	}
	fmt.Printf("  Language: %s\n", cfg.Transcribe.Language)
	fmt.Printf("  Hotkey:   %s (%s)\n", cfg.Hotkey.Combo, cfg.Hotkey.Mode)
	fmt.Printf("  Inject:   %s\n", cfg.Inject.Method)
	fmt.Printf("  Audio:    %d Hz, %d ch\n", cfg.Audio.SampleRate, cfg.Audio.Channels)
	fmt.Println()
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
