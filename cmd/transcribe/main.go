// Command transcribe turns the media files in the current folder into
// Markdown notes with the openai-whisper CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	cli "github.com/spf13/pflag"

	"github.com/fedoraxfce/deskbin/internal/batch"
	"github.com/fedoraxfce/deskbin/internal/config"
	"github.com/fedoraxfce/deskbin/internal/ffmpeg"
	"github.com/fedoraxfce/deskbin/internal/logging"
	"github.com/fedoraxfce/deskbin/internal/media"
	"github.com/fedoraxfce/deskbin/internal/transcribe"
)

func main() {
	model := cli.StringP("model", "m", batch.DefaultModel, "whisper model")
	lang := cli.StringP("language", "l", batch.DefaultLanguage, "initial language code")
	logLevel := cli.String("log-level", "warn", "log level: debug, info, warn, error")
	cli.Parse()

	logging.Setup(*logLevel)
	tools, err := config.LoadTools()
	if err != nil {
		slog.Warn("Config not fully loaded", "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	whisper := transcribe.NewCLI(tools.WhisperPath(), nil)
	if err := whisper.Available(ctx); err != nil {
		fmt.Println("Error: whisper is not installed or not in PATH")
		fmt.Println("Install it: pip install openai-whisper")
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("Cannot read the current directory", "error", err)
		os.Exit(1)
	}
	outDir, fromEnv := batch.OutputDir(cwd)
	if !fromEnv {
		fmt.Println(batch.Tip)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		slog.Error("Cannot create output directory", "path", outDir, "error", err)
		os.Exit(1)
	}

	files, err := media.Find(cwd, media.Transcribable, filepath.Base(outDir))
	if err != nil {
		slog.Error("Cannot list media files", "error", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Println("No media files found in the current directory")
		return
	}

	t := batch.New(whisper, ffmpeg.NewProbe(tools.FFprobePath(), nil), outDir, os.Stdout)
	t.Model = *model

	chosen, language := t.Select(ctx, os.Stdin, files, *lang)
	if ctx.Err() != nil {
		os.Exit(130)
	}
	if len(chosen) == 0 {
		return
	}
	selected := make([]string, len(chosen))
	for i, n := range chosen {
		selected[i] = files[n]
	}

	stats := t.Run(ctx, selected, language)
	if ctx.Err() != nil {
		fmt.Println("\nInterrupted.")
		os.Exit(130)
	}
	if batch.Failed(stats) > 0 {
		os.Exit(1)
	}
}
