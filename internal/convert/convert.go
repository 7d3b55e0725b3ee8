// Package convert runs the ffmpeg preset workflows behind mediaconv: the
// interactive mode menu and the one-shot subcommands.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fedoraxfce/deskbin/internal/ffmpeg"
	"github.com/fedoraxfce/deskbin/internal/media"
)

// Mode is a menu conversion mode.
type Mode int

const (
	Merge Mode = iota
	Telegram
	AudioOnly
	Slides
	SlidesHalf
)

// Modes lists the menu entries in display order.
var Modes = []Mode{Merge, Telegram, AudioOnly, Slides, SlidesHalf}

var modeInfo = map[Mode]struct{ label, dir string }{
	Merge:      {"Merge all files into one", "merge_files"},
	Telegram:   {"Telegram (video: 15fps x2 + audio 64kb)", "telegram"},
	AudioOnly:  {"Only audio 64Kb", "audio_only"},
	Slides:     {"Only video slides (1fps)", "video_slides_1fps"},
	SlidesHalf: {"Only video slides (1fps, x2)", "video_slides_1fps_half"},
}

func (m Mode) String() string { return modeInfo[m].label }

// Dir is the output directory name for the mode.
func (m Mode) Dir() string { return modeInfo[m].dir }

// Summary counts per-file outcomes of a batch.
type Summary struct {
	Done, Skipped, Failed int
}

// Err returns an error when any file failed.
func (s Summary) Err() error {
	if s.Failed == 0 {
		return nil
	}
	return fmt.Errorf("convert: %d file(s) failed", s.Failed)
}

func (s *Summary) add(o Summary) {
	s.Done += o.Done
	s.Skipped += o.Skipped
	s.Failed += o.Failed
}

// Converter runs presets and prints status lines to Out.
type Converter struct {
	Enc *ffmpeg.Encoder
	Out io.Writer
}

// New returns a Converter. A nil out discards status lines.
func New(enc *ffmpeg.Encoder, out io.Writer) *Converter {
	if out == nil {
		out = io.Discard
	}
	return &Converter{Enc: enc, Out: out}
}

func (c *Converter) printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

// Select returns the files a menu run works on: the single named file in
// root, or every media file in root when name is empty.
func Select(root, name string) ([]string, error) {
	if name == "" {
		files, err := media.Find(root, media.Media, "")
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, errors.New("no media files found in the current folder")
		}
		return files, nil
	}

	path := filepath.Join(root, filepath.Base(name))
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("file '%s' not found in current directory", name)
	}
	if !media.Media.Has(path) {
		return nil, fmt.Errorf("'%s' is not a supported media file", name)
	}
	return []string{path}, nil
}

// Run converts files with mode into root/<mode dir>.
func (c *Converter) Run(ctx context.Context, mode Mode, root string, files []string) (Summary, error) {
	outdir := filepath.Join(root, mode.Dir())
	if err := os.MkdirAll(outdir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("convert: create %s: %w", outdir, err)
	}
	slog.Debug("Converting", "mode", mode.Dir(), "files", len(files), "outdir", outdir)

	if mode == Merge {
		return c.merge(ctx, files, outdir), nil
	}

	var sum Summary
	for _, src := range files {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.add(c.one(ctx, mode, src, outdir))
	}
	return sum, nil
}

func (c *Converter) one(ctx context.Context, mode Mode, src, outdir string) Summary {
	name := filepath.Base(src)
	video, audio := media.Outputs(src, outdir)
	isVideo := media.Video.Has(src)

	var jobs []ffmpeg.Job
	switch mode {
	case Telegram:
		if media.NonEmpty(audio) && (!isVideo || media.NonEmpty(video)) {
			c.printf("[SKIP] %s: already converted\n", name)
			return Summary{Skipped: 1}
		}
		if isVideo && !media.NonEmpty(video) {
			jobs = append(jobs, ffmpeg.Telegram(src, video))
		}
		// Audio is redone whenever the source is not fully converted.
		jobs = append(jobs, ffmpeg.AudioCompact(src, audio))
	case AudioOnly:
		if media.NonEmpty(audio) {
			c.printf("[SKIP] %s: audio exists\n", name)
			return Summary{Skipped: 1}
		}
		jobs = append(jobs, ffmpeg.AudioCompact(src, audio))
	case Slides, SlidesHalf:
		if !isVideo {
			c.printf("[SKIP] %s: not a video\n", name)
			return Summary{Skipped: 1}
		}
		if media.NonEmpty(video) {
			c.printf("[SKIP] %s: slides exist\n", name)
			return Summary{Skipped: 1}
		}
		jobs = append(jobs, ffmpeg.Slides(src, video, mode == SlidesHalf))
	}

	c.printf("Processing: %s\n", name)
	for _, job := range jobs {
		if err := c.Enc.Run(ctx, job); err != nil {
			c.printf("[FAIL] %s: %v\n", name, err)
			return Summary{Failed: 1}
		}
		c.printf("  [OK] %s -> %s\n", job.Label, filepath.Base(job.Output))
	}
	return Summary{Done: 1}
}

// merge concatenates the videos and the audio files separately.
func (c *Converter) merge(ctx context.Context, files []string, outdir string) Summary {
	var videos, audios []string
	for _, f := range files {
		switch {
		case media.Video.Has(f):
			videos = append(videos, f)
		case media.Audio.Has(f):
			audios = append(audios, f)
		}
	}

	var sum Summary
	groups := []struct {
		kind  string
		files []string
		dst   string
	}{
		{"video", videos, filepath.Join(outdir, "merged-video.mp4")},
		{"audio", audios, filepath.Join(outdir, "merged-audio.m4a")},
	}
	for _, g := range groups {
		if len(g.files) < 2 {
			if len(g.files) == 1 {
				c.printf("Only 1 %s file found - nothing to merge\n", g.kind)
			}
			continue
		}
		c.printf("Merging %d %s files -> %s\n", len(g.files), g.kind, filepath.Base(g.dst))
		if err := c.concat(ctx, g.files, outdir, g.dst); err != nil {
			c.printf("[FAIL] merge %s: %v\n", g.kind, err)
			sum.Failed++
			continue
		}
		c.printf("  [OK] %s\n", filepath.Base(g.dst))
		sum.Done++
	}
	return sum
}

func (c *Converter) concat(ctx context.Context, files []string, outdir, dst string) error {
	list := filepath.Join(outdir, "concat_list.txt")
	abs := make([]string, len(files))
	for i, f := range files {
		a, err := filepath.Abs(f)
		if err != nil {
			a = f
		}
		abs[i] = a
	}
	if err := ffmpeg.WriteConcatList(abs, list); err != nil {
		return err
	}
	defer os.Remove(list)
	return c.Enc.Run(ctx, ffmpeg.Merge(list, dst))
}
