// Command mic records one utterance, transcribes it with whisper.cpp and
// pastes the text back into the window that was focused at launch.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	cli "github.com/spf13/pflag"

	"github.com/fedoraxfce/deskbin/internal/audio"
	"github.com/fedoraxfce/deskbin/internal/clipboard"
	"github.com/fedoraxfce/deskbin/internal/config"
	"github.com/fedoraxfce/deskbin/internal/inject"
	"github.com/fedoraxfce/deskbin/internal/logging"
	"github.com/fedoraxfce/deskbin/internal/transcribe"
)

var errNoSpeech = errors.New("no speech detected")

func main() {
	duration := cli.IntP("duration", "d", 0, "record for N seconds instead of waiting for Enter")
	model := cli.StringP("model", "m", "base", "whisper model: "+strings.Join(config.ModelNames, ", "))
	lang := cli.StringP("language", "l", "auto", "language code or auto")
	noPaste := cli.Bool("no-paste", false, "only copy the text to the clipboard")
	logLevel := cli.String("log-level", "warn", "log level: debug, info, warn, error")
	cli.Parse()

	logging.Setup(*logLevel)
	if err := config.LoadEnv(""); err != nil {
		slog.Warn("Could not load env file", "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *duration, *model, *lang, !*noPaste); err != nil {
		if ctx.Err() != nil {
			fmt.Println("\nCancelled.")
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, seconds int, model, lang string, paste bool) error {
	win := inject.NewWindow()
	windowID, err := win.Active(ctx)
	if err != nil {
		slog.Warn("Could not read the active window", "error", err)
	} else {
		fmt.Printf("Active window saved: %s\n", windowID)
	}

	rec, err := audio.NewRecorder(transcribe.SampleRate, 1)
	if err != nil {
		return err
	}
	defer rec.Close()

	if err := rec.Start(); err != nil {
		return err
	}
	if seconds > 0 {
		fmt.Printf("Recording for %d seconds...\n", seconds)
	} else {
		fmt.Println("Recording... Press Enter to stop.")
	}
	if err := waitStop(ctx, seconds); err != nil {
		rec.Stop()
		return err
	}
	samples := rec.Stop()
	fmt.Println("Recording stopped.")
	if len(samples) == 0 {
		return audio.ErrNoAudio
	}

	wavPath := filepath.Join(os.TempDir(), "mic-"+uuid.NewString()+".wav")
	if err := audio.WriteWAV(wavPath, samples, transcribe.SampleRate, 1); err != nil {
		return err
	}
	defer os.Remove(wavPath)

	fmt.Printf("Transcribing with Whisper (%s model)...\n", model)
	text, err := transcribeFile(ctx, wavPath, model, lang)
	if err != nil {
		return err
	}
	if text == "" {
		return errNoSpeech
	}
	fmt.Printf("Transcribed: %s\n", text)

	if err := clipboard.Copy(text); err != nil {
		slog.Warn("Clipboard copy failed", "error", err)
	}
	if !paste {
		fmt.Println("Text copied to clipboard.")
		return nil
	}
	win.Focus(ctx, windowID)
	if err := inject.NewInjector(inject.Options{Method: "xdotool"}).Inject(text); err != nil {
		slog.Warn("Paste failed, text is on the clipboard", "error", err)
		fmt.Println("Text copied to clipboard.")
		return nil
	}
	fmt.Println("Text pasted.")
	return nil
}

// waitStop returns after Enter, or after seconds when positive.
func waitStop(ctx context.Context, seconds int) error {
	if seconds > 0 {
		select {
		case <-time.After(time.Duration(seconds) * time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	enter := make(chan struct{})
	go func() {
		bufio.NewReader(os.Stdin).ReadString('\n')
		close(enter)
	}()
	select {
	case <-enter:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func transcribeFile(ctx context.Context, path, model, lang string) (string, error) {
	samples, rate, err := audio.ReadWAV(path)
	if err != nil {
		return "", err
	}
	if rate != transcribe.SampleRate {
		return "", fmt.Errorf("unexpected sample rate %d", rate)
	}
	w, err := transcribe.LoadNamed(ctx, model, lang)
	if err != nil {
		return "", err
	}
	defer w.Close()
	text, err := w.Process(ctx, samples)
	return strings.TrimSpace(text), err
}
