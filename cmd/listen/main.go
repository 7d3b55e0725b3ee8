// Command listen transcribes the microphone continuously, printing one line
// per utterance until interrupted.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	cli "github.com/spf13/pflag"

	"github.com/fedoraxfce/deskbin/internal/audio"
	"github.com/fedoraxfce/deskbin/internal/config"
	"github.com/fedoraxfce/deskbin/internal/logging"
	"github.com/fedoraxfce/deskbin/internal/transcribe"
)

func main() {
	model := cli.StringP("model", "m", "base", "whisper model: "+strings.Join(config.ModelNames, ", "))
	lang := cli.StringP("language", "l", "auto", "language code or auto")
	threshold := cli.Float64("threshold", audio.DefaultThreshold, "RMS level that counts as speech")
	silence := cli.Duration("silence", audio.DefaultSilence, "pause that ends an utterance")
	logLevel := cli.String("log-level", "info", "log level: debug, info, warn, error")
	cli.Parse()

	logging.Setup(*logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	w, err := transcribe.LoadNamed(ctx, *model, *lang)
	if err != nil {
		slog.Error("Failed to load model", "error", err)
		os.Exit(1)
	}
	defer w.Close()

	rec, err := audio.NewRecorder(transcribe.SampleRate, 1)
	if err != nil {
		slog.Error("Failed to initialize audio recorder", "error", err)
		os.Exit(1)
	}
	defer rec.Close()

	seg := audio.NewSegmenter(transcribe.SampleRate)
	seg.Threshold = *threshold
	seg.Silence = *silence

	if err := rec.Start(); err != nil {
		slog.Error("Could not start recording", "error", err)
		os.Exit(1)
	}
	slog.Info("Listening. Ctrl+C to stop.", "model", *model, "language", *lang)

	utterances := make(chan []float32, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range utterances {
			emit(w, u)
		}
	}()

	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			samples, err := rec.Drain()
			if err != nil {
				slog.Error("Capture stopped", "error", err)
				cancel()
				continue
			}
			for _, u := range seg.Feed(samples) {
				utterances <- u
			}
		case <-ctx.Done():
			if samples, err := rec.Drain(); err == nil {
				for _, u := range seg.Feed(samples) {
					utterances <- u
				}
			}
			rec.Stop()
			if u := seg.Flush(); len(u) > 0 {
				utterances <- u
			}
			close(utterances)
			<-done
			return
		}
	}
}

// emit transcribes one utterance and prints it. A cancelled main context
// must not drop the final utterance, so it runs on its own.
func emit(w transcribe.Transcriber, samples []float32) {
	if audio.Duration(samples, transcribe.SampleRate) < 0.3 {
		return
	}
	text, err := w.Process(context.Background(), samples)
	if err != nil {
		slog.Error("Transcription failed", "error", err)
		return
	}
	if text = strings.TrimSpace(text); text != "" {
		fmt.Println(text)
	}
}
