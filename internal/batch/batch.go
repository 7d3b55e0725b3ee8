// Package batch transcribes media files with the whisper CLI into
// Markdown notes carrying a statistics header.
package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/fedoraxfce/deskbin/internal/config"
	"github.com/fedoraxfce/deskbin/internal/execx"
	"github.com/fedoraxfce/deskbin/internal/media"
	"github.com/fedoraxfce/deskbin/internal/progress"
)

// Defaults for a run.
const (
	DefaultModel    = "turbo"
	DefaultLanguage = "en"
)

// Whisper transcribes one file into outDir.
type Whisper interface {
	File(ctx context.Context, src, outDir, model, lang string) (text, txtPath string, err error)
}

// Prober reports media duration in seconds.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, bool)
}

// Stats describes one transcribed file.
type Stats struct {
	File         string
	Output       string
	SizeMB       float64
	MediaSeconds float64
	Elapsed      time.Duration
	Chars        int
	Words        int
	Lines        int
	OK           bool
}

// Transcriber runs whisper over a selection of files.
type Transcriber struct {
	Whisper Whisper
	Probe   Prober
	Model   string
	OutDir  string
	Out     io.Writer

	now func() time.Time
}

// New returns a Transcriber with the default model.
func New(w Whisper, probe Prober, outDir string, out io.Writer) *Transcriber {
	if out == nil {
		out = io.Discard
	}
	return &Transcriber{Whisper: w, Probe: probe, Model: DefaultModel, OutDir: outDir, Out: out, now: time.Now}
}

var numbers = message.NewPrinter(language.English)

func (t *Transcriber) printf(format string, args ...any) {
	fmt.Fprintf(t.Out, format, args...)
}

// OutputDir returns $OBSIDIAN_PATH (expanded) or root/out. fromEnv tells
// the caller whether to print the configuration tip.
func OutputDir(root string) (dir string, fromEnv bool) {
	if p := os.Getenv(config.EnvObsidianPath); p != "" {
		if abs, err := filepath.Abs(execx.ExpandHome(p)); err == nil {
			return abs, true
		}
		return execx.ExpandHome(p), true
	}
	return filepath.Join(root, "out"), false
}

// Tip explains how to point the output at an Obsidian vault.
const Tip = `Tip: You can configure a custom output directory
   Set OBSIDIAN_PATH in ~/.env or your shell profile:

   export OBSIDIAN_PATH="$HOME/Documents/Obsidian/Transcripts"
`

// Transcribed reports whether <stem>.md already exists in outDir.
func Transcribed(src, outDir string) bool {
	_, err := os.Stat(filepath.Join(outDir, media.Stem(src)+".md"))
	return err == nil
}

// Header is the statistics block written above the transcript.
func Header(s Stats, model, lang string) string {
	var b strings.Builder
	b.WriteString(" Transcription Statistics\n")
	fmt.Fprintf(&b, "* File: %s\n", s.File)
	fmt.Fprintf(&b, "* Size: %.2f MB\n", s.SizeMB)
	if s.MediaSeconds > 0 {
		fmt.Fprintf(&b, "* Media duration: %s\n", progress.HumanTime(s.MediaSeconds))
	}
	fmt.Fprintf(&b, "* Processing time: %s\n", progress.HumanTime(s.Elapsed.Seconds()))
	b.WriteString(numbers.Sprintf("* Output: %d characters, %d words, %d lines\n", s.Chars, s.Words, s.Lines))
	fmt.Fprintf(&b, "* Model: %s\n", model)
	fmt.Fprintf(&b, "* Language: %s\n\n\n", lang)
	return b.String()
}

// File transcribes src into a unique <stem>[-N].md in OutDir.
func (t *Transcriber) File(ctx context.Context, src, lang string) Stats {
	s := Stats{File: filepath.Base(src), SizeMB: media.SizeMB(src)}
	s.MediaSeconds, _ = t.Probe.Duration(ctx, src)

	t.printf("\nTranscribing: %s\n", s.File)
	t.printf("    Size: %.2f MB\n", s.SizeMB)
	if s.MediaSeconds > 0 {
		t.printf("    Duration: %s\n", progress.HumanTime(s.MediaSeconds))
	}

	stem := media.Stem(src)
	s.Output = media.UniquePath(t.OutDir, stem, ".md")
	if filepath.Base(s.Output) != stem+".md" {
		t.printf("    Output will be: %s\n", filepath.Base(s.Output))
	}

	start := t.now()
	text, txtPath, err := t.Whisper.File(ctx, src, t.OutDir, t.Model, lang)
	s.Elapsed = t.now().Sub(start)
	if err != nil {
		t.printf("    Error: %v\n", err)
		return s
	}

	s.Chars = len([]rune(text))
	s.Words = len(strings.Fields(text))
	if text != "" {
		s.Lines = len(strings.Split(text, "\n"))
	}
	t.printf("    Processing time: %s\n", progress.HumanTime(s.Elapsed.Seconds()))

	if err := os.WriteFile(s.Output, []byte(Header(s, t.Model, lang)+text+"\n"), 0o644); err != nil {
		t.printf("    Error: write %s: %v\n", filepath.Base(s.Output), err)
		return s
	}
	if txtPath != s.Output {
		os.Remove(txtPath)
	}
	s.OK = true

	t.printf("    Done: %s\n", filepath.Base(s.Output))
	t.printf("%s", numbers.Sprintf("    Stats: %d chars, %d words, %d lines\n", s.Chars, s.Words, s.Lines))
	return s
}

// Run transcribes files in order and prints the final report.
func (t *Transcriber) Run(ctx context.Context, files []string, lang string) []Stats {
	t.printf("\nStarting transcription\n")
	t.printf("Model: %s\nLanguage: %s\nOutput: %s\nFiles to process: %d\n", t.Model, lang, t.OutDir, len(files))

	start := t.now()
	var all []Stats
	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		all = append(all, t.File(ctx, f, lang))
	}
	t.Report(all, t.now().Sub(start))
	return all
}

// Failed counts the unsuccessful entries.
func Failed(stats []Stats) int {
	n := 0
	for _, s := range stats {
		if !s.OK {
			n++
		}
	}
	return n
}

var (
	heavy = strings.Repeat("=", 60)
	light = strings.Repeat("-", 60)
)

// Report prints per-file details, totals and the average speed.
func (t *Transcriber) Report(stats []Stats, total time.Duration) {
	failed := Failed(stats)
	ok := len(stats) - failed

	t.printf("\n%s\nTRANSCRIPTION REPORT\n%s\n", heavy, heavy)
	t.printf("Total time: %s\n", progress.HumanTime(total.Seconds()))
	t.printf("Successful: %d\n", ok)
	if failed > 0 {
		t.printf("Failed: %d\n", failed)
	}
	t.printf("Output directory: %s\n", t.OutDir)

	if len(stats) > 0 {
		t.printf("\n%s\nDETAILED STATISTICS\n%s\n", light, light)
	}
	var sum Stats
	for _, s := range stats {
		if !s.OK {
			continue
		}
		t.printf("\n%s\n", s.File)
		t.printf("   Size: %.2f MB\n", s.SizeMB)
		if s.MediaSeconds > 0 {
			t.printf("   Media duration: %s\n", progress.HumanTime(s.MediaSeconds))
		}
		t.printf("   Processing time: %s\n", progress.HumanTime(s.Elapsed.Seconds()))
		t.printf("%s", numbers.Sprintf("   Output: %d chars, %d words, %d lines\n", s.Chars, s.Words, s.Lines))

		sum.SizeMB += s.SizeMB
		sum.MediaSeconds += s.MediaSeconds
		sum.Elapsed += s.Elapsed
		sum.Chars += s.Chars
		sum.Words += s.Words
		sum.Lines += s.Lines
	}

	if ok > 0 {
		t.printf("\n%s\nTOTALS\n%s\n", light, light)
		t.printf("Total input size: %.2f MB\n", sum.SizeMB)
		if sum.MediaSeconds > 0 {
			t.printf("Total media duration: %s\n", progress.HumanTime(sum.MediaSeconds))
		}
		t.printf("Total processing time: %s\n", progress.HumanTime(sum.Elapsed.Seconds()))
		t.printf("%s", numbers.Sprintf("Total output: %d characters\n              %d words\n              %d lines\n",
			sum.Chars, sum.Words, sum.Lines))
		if mins := sum.Elapsed.Minutes(); mins > 0 {
			t.printf("\nAverage speed: %.2f MB/min\n", sum.SizeMB/mins)
		}
	}
	t.printf("%s\n", heavy)
}
