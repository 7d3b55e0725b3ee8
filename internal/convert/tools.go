package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fedoraxfce/deskbin/internal/execx"
	"github.com/fedoraxfce/deskbin/internal/ffmpeg"
	"github.com/fedoraxfce/deskbin/internal/media"
	"github.com/fedoraxfce/deskbin/internal/progress"
)

// WebinarDir is where Webinar writes its outputs.
const WebinarDir = "webinar"

// TGParams describes the tg preset in the header.
const TGParams = "libx264 main, CRF 23, preset slow, 20 fps, AAC 64k mono, yuv420p, +faststart"

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// each runs build for every existing file and counts outcomes.
func (c *Converter) each(ctx context.Context, files []string, verb string, build func(src string) ffmpeg.Job) Summary {
	var sum Summary
	for _, src := range files {
		if ctx.Err() != nil {
			break
		}
		if !isFile(src) {
			c.printf("[FAIL] Not a file: %s\n", src)
			sum.Failed++
			continue
		}
		job := build(src)
		c.printf("%s: %s -> %s\n", verb, filepath.Base(src), filepath.Base(job.Output))
		if err := c.Enc.Run(ctx, job); err != nil {
			c.printf("[FAIL] %s: %v\n", filepath.Base(src), err)
			sum.Failed++
			continue
		}
		c.printf("[OK] Done: %s\n", job.Output)
		sum.Done++
	}
	return sum
}

// MP3 writes <stem>-result.mp3 next to every file.
func (c *Converter) MP3(ctx context.Context, files []string) Summary {
	return c.each(ctx, files, "Extracting MP3", func(src string) ffmpeg.Job {
		return ffmpeg.MP3(src, media.Suffixed(src, "-result.mp3"))
	})
}

// Small writes a compact 25 fps <stem>-result-small.mp4 next to every file.
func (c *Converter) Small(ctx context.Context, files []string) Summary {
	return c.each(ctx, files, "Compressing", func(src string) ffmpeg.Job {
		return ffmpeg.Mobile(src, media.Suffixed(src, "-result-small.mp4"), 25)
	})
}

// Cover renders o.Audio over an image or a black frame. An empty
// o.Output defaults to <audio stem>.mp4 next to the audio.
func (c *Converter) Cover(ctx context.Context, o ffmpeg.CoverOptions) (string, error) {
	if !isFile(o.Audio) {
		return "", fmt.Errorf("audio file not found: %s", o.Audio)
	}
	if o.Image != "" && !isFile(o.Image) {
		return "", fmt.Errorf("image file not found: %s", o.Image)
	}
	if o.Output == "" {
		o.Output = media.Suffixed(o.Audio, ".mp4")
	}
	job := ffmpeg.Cover(o)
	c.printf("Running: %s\n", execx.Quote(c.Enc.Bin, job.Args...))
	if err := c.Enc.Run(ctx, job); err != nil {
		return "", err
	}
	c.printf("Done! Output: %s\n", o.Output)
	return o.Output, nil
}

// Webinar converts every media file in root into root/webinar, skipping
// sources whose outputs already exist.
func (c *Converter) Webinar(ctx context.Context, root string) (Summary, error) {
	files, err := media.Find(root, media.Media, WebinarDir)
	if err != nil {
		return Summary{}, err
	}
	if len(files) == 0 {
		return Summary{}, errors.New("no media files found in the current folder")
	}
	outdir := filepath.Join(root, WebinarDir)
	if err := os.MkdirAll(outdir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("convert: create %s: %w", outdir, err)
	}

	var sum Summary
	for _, src := range files {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		video, audio := media.Outputs(src, outdir)
		var jobs []ffmpeg.Job
		if media.Video.Has(src) && !media.NonEmpty(video) {
			jobs = append(jobs, ffmpeg.Webinar(src, video))
		}
		if !media.NonEmpty(audio) {
			jobs = append(jobs, ffmpeg.AudioCompact(src, audio))
		}
		if len(jobs) == 0 {
			c.printf("Skipping (already done): %s\n", filepath.Base(src))
			sum.Skipped++
			continue
		}

		c.printf("\nSource: %s\n", filepath.Base(src))
		failed := false
		for _, job := range jobs {
			c.printf("  %s -> %s\n", job.Label, filepath.Base(job.Output))
			if err := c.Enc.Run(ctx, job); err != nil {
				c.printf("[FAIL] %s: %v\n", filepath.Base(src), err)
				failed = true
				break
			}
		}
		if failed {
			sum.Failed++
			continue
		}
		sum.Done++
	}
	c.printf("\nFinished. Check the '%s' folder.\n", WebinarDir)
	return sum, nil
}

// TG encodes each file to <stem>_tg.mp4 at 20 fps with a live progress
// bar. Missing files are reported and skipped.
func (c *Converter) TG(ctx context.Context, probe *ffmpeg.Probe, files []string) Summary {
	var sum Summary
	for _, src := range files {
		if ctx.Err() != nil {
			break
		}
		if !isFile(src) {
			c.printf("File not found: %s\n", src)
			sum.Skipped++
			continue
		}
		dst := media.Suffixed(src, "_tg.mp4")

		total, _ := probe.Duration(ctx, src)
		c.printf("\nFile: %s\n", filepath.Base(src))
		if total > 0 {
			c.printf("Duration: %s\n", progress.HumanTime(total))
		}
		c.printf("Params: %s\n", TGParams)
		c.printf("Output: %s\n\n", filepath.Base(dst))

		bar := progress.NewBar(">>", total)
		bar.W = c.Out
		var last ffmpeg.Progress
		err := c.Enc.RunWithProgress(ctx, ffmpeg.Mobile(src, dst, 20), func(p ffmpeg.Progress) {
			last = p
			bar.Update(p)
		})
		bar.Finish("OK", last)
		if err != nil {
			c.printf("Encoding %s failed: %v\n", filepath.Base(src), err)
			sum.Failed++
			continue
		}
		c.printf("Done: %s -> %s\n\n", filepath.Base(src), filepath.Base(dst))
		sum.Done++
	}
	return sum
}
