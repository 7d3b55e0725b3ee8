// Package ffmpeg builds the encoding presets used across the media tools and
// runs them through an execx.Runner.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fedoraxfce/deskbin/internal/execx"
)

// ErrNotFound is returned when the ffmpeg or ffprobe binary cannot run.
var ErrNotFound = errors.New("ffmpeg not found")

// Encoder runs ffmpeg jobs.
type Encoder struct {
	Bin    string
	Runner execx.Runner

	// ProgressInterval throttles RunWithProgress callbacks. Zero means 100ms.
	ProgressInterval time.Duration
}

// New returns an Encoder for bin. A nil runner uses execx.Exec.
func New(bin string, r execx.Runner) *Encoder {
	if bin == "" {
		bin = "ffmpeg"
	}
	if r == nil {
		r = &execx.Exec{}
	}
	return &Encoder{Bin: bin, Runner: r}
}

// Available runs `ffmpeg -version`.
func (e *Encoder) Available(ctx context.Context) error {
	return available(ctx, e.Runner, e.Bin)
}

func available(ctx context.Context, r execx.Runner, bin string) error {
	if _, err := r.Run(ctx, bin, "-version"); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotFound, bin, err)
	}
	return nil
}

// Run executes the job and checks that its output exists and is non-empty.
func (e *Encoder) Run(ctx context.Context, job Job) error {
	_, err := e.Runner.Run(ctx, e.Bin, job.Args...)
	return e.check(job, err)
}

// RunWithProgress executes the job with `-progress pipe:1` and reports
// progress snapshots to fn, at most once per ProgressInterval plus the
// final one.
func (e *Encoder) RunWithProgress(ctx context.Context, job Job, fn func(Progress)) error {
	args := withProgressPipe(job.Args)

	interval := e.ProgressInterval
	if interval == 0 {
		interval = 100 * time.Millisecond
	}

	var (
		p    ProgressParser
		last time.Time
	)
	onLine := func(line string) {
		snap, ok := p.Feed(line)
		if !ok || fn == nil {
			return
		}
		now := time.Now()
		if snap.Done || now.Sub(last) >= interval {
			fn(snap)
			last = now
		}
	}

	_, err := e.Runner.Stream(ctx, onLine, e.Bin, args...)
	return e.check(job, err)
}

func (e *Encoder) check(job Job, err error) error {
	if err != nil {
		var exitErr *execx.ExitError
		if errors.As(err, &exitErr) {
			msg := strings.TrimSpace(exitErr.Stderr)
			if msg == "" {
				msg = fmt.Sprintf("exit code %d", exitErr.Code)
			}
			return fmt.Errorf("ffmpeg failed (%s): %s", job.Label, msg)
		}
		return fmt.Errorf("ffmpeg failed (%s): %w", job.Label, err)
	}
	if job.Output != "" && !nonEmpty(job.Output) {
		return fmt.Errorf("ffmpeg (%s): output missing or empty: %s", job.Label, job.Output)
	}
	return nil
}

// withProgressPipe inserts `-progress pipe:1 -nostats` before the output
// argument unless the job already asks for progress.
func withProgressPipe(args []string) []string {
	for _, a := range args {
		if a == "-progress" {
			return args
		}
	}
	if len(args) == 0 {
		return []string{"-progress", "pipe:1", "-nostats"}
	}
	out := make([]string, 0, len(args)+3)
	out = append(out, args[:len(args)-1]...)
	out = append(out, "-progress", "pipe:1", "-nostats", args[len(args)-1])
	return out
}

func nonEmpty(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// Probe reads media metadata with ffprobe.
type Probe struct {
	Bin    string
	Runner execx.Runner
}

// NewProbe returns a Probe for bin. A nil runner uses execx.Exec.
func NewProbe(bin string, r execx.Runner) *Probe {
	if bin == "" {
		bin = "ffprobe"
	}
	if r == nil {
		r = &execx.Exec{}
	}
	return &Probe{Bin: bin, Runner: r}
}

// Available runs `ffprobe -version`.
func (p *Probe) Available(ctx context.Context) error {
	return available(ctx, p.Runner, p.Bin)
}

// Duration returns the container duration in seconds. ok is false when
// ffprobe fails or reports nothing usable.
func (p *Probe) Duration(ctx context.Context, path string) (float64, bool) {
	res, err := p.Runner.Run(ctx, p.Bin, "-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1", path)
	if err != nil {
		return 0, false
	}
	sec, err := strconv.ParseFloat(strings.TrimSpace(res.Stdout), 64)
	if err != nil || sec <= 0 {
		return 0, false
	}
	return sec, true
}
