// Command micnote is a small dictation terminal: Enter starts recording,
// Enter again stops, and the transcript is appended to an Obsidian inbox
// note. Launched without a terminal it reopens itself in xfce4-terminal.
package main

import (
	"bufio"
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	cli "github.com/spf13/pflag"

	"github.com/fedoraxfce/deskbin/internal/audio"
	"github.com/fedoraxfce/deskbin/internal/config"
	"github.com/fedoraxfce/deskbin/internal/execx"
	"github.com/fedoraxfce/deskbin/internal/logging"
	"github.com/fedoraxfce/deskbin/internal/transcribe"
)

const defaultInbox = "~/Documents/PersonalSync/notes/tt/inbox.md"

func main() {
	inbox := cli.String("inbox", "", "note to append to (default $OBSIDIAN_INBOX or "+defaultInbox+")")
	model := cli.StringP("model", "m", "turbo", "whisper model: "+strings.Join(config.ModelNames, ", "))
	lang := cli.StringP("language", "l", "ru", "language code or auto")
	logLevel := cli.String("log-level", "warn", "log level: debug, info, warn, error")
	cli.Parse()

	logging.Setup(*logLevel)
	if err := config.LoadEnv(""); err != nil {
		slog.Warn("Could not load env file", "error", err)
	}

	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		if err := relaunch(); err != nil {
			slog.Error("Could not open a terminal", "error", err)
			os.Exit(1)
		}
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nBye!")
		os.Exit(0)
	}()

	path := inboxPath(*inbox)
	fmt.Printf("Loading %s model...\n", *model)
	w, err := transcribe.LoadNamed(context.Background(), *model, *lang)
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

	loop(bufio.NewReader(os.Stdin), rec, w, path)
	fmt.Println("\nBye!")
}

// relaunch reopens this binary inside a small xfce4-terminal window.
func relaunch() error {
	self, err := os.Executable()
	if err != nil {
		return err
	}
	args := append([]string{
		"--geometry=60x8", "--hide-menubar", "--hide-toolbar", "--hide-scrollbar",
		"--title=Voice to Obsidian", "-x", self,
	}, os.Args[1:]...)
	_, err = (&execx.Exec{}).Run(context.Background(), "xfce4-terminal", args...)
	return err
}

// inboxPath resolves the target note: flag, then $OBSIDIAN_INBOX, then the
// default location.
func inboxPath(flag string) string {
	return execx.ExpandHome(cmp.Or(flag, os.Getenv(config.EnvObsidianInbox), defaultInbox))
}

func loop(in *bufio.Reader, rec *audio.Recorder, w transcribe.Transcriber, path string) {
	for {
		fmt.Println("\nReady! Press Enter to start recording.")
		if _, err := in.ReadString('\n'); err != nil {
			return
		}
		if err := rec.Start(); err != nil {
			slog.Error("Could not start recording", "error", err)
			continue
		}
		fmt.Print("Recording (press Enter to stop)")
		stopDots := dots()
		_, readErr := in.ReadString('\n')
		stopDots()
		samples := rec.Stop()
		fmt.Println()
		if readErr != nil {
			return
		}
		if len(samples) == 0 {
			fmt.Println("No audio captured.")
			continue
		}

		start := time.Now()
		text, err := w.Process(context.Background(), samples)
		fmt.Printf("Transcribing (%.1fs)\n", time.Since(start).Seconds())
		if err != nil {
			slog.Error("Transcription failed", "error", err)
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			fmt.Println("No speech detected.")
			continue
		}
		fmt.Printf("\n%s\n\n", text)
		if err := appendNote(path, text); err != nil {
			slog.Error("Could not write inbox", "path", path, "error", err)
			continue
		}
		fmt.Printf("✓ Appended to %s\n", path)
	}
}

// dots prints a dot every half second until the returned func is called.
func dots() (stop func()) {
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		tick := time.NewTicker(500 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-tick.C:
				fmt.Print(".")
			case <-done:
				return
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}

// appendNote adds a blank line and text to the note, creating it if needed.
func appendNote(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString("\n\n" + text); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
