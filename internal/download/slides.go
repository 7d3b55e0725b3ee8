package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fedoraxfce/deskbin/internal/execx"
	"github.com/fedoraxfce/deskbin/internal/ffmpeg"
	"github.com/fedoraxfce/deskbin/internal/media"
	"github.com/fedoraxfce/deskbin/internal/ytdlp"
)

// Slides layout under the base directory.
const (
	SlidesList       = "files.txt"
	SlidesDownloaded = "01_downloaded"
	SlidesOutput     = "02_slides"
)

// DefaultSlidesBase is ~/video.
func DefaultSlidesBase() string {
	return execx.ExpandHome("~/video")
}

// Slides downloads base/files.txt into base/01_downloaded and re-encodes
// every item for Telegram into base/02_slides. Numbering is shared across
// both directories; links that are neither YouTube nor HLS are skipped
// without taking a number.
func (p *Pipeline) Slides(ctx context.Context, base string) (Summary, error) {
	list := filepath.Join(base, SlidesList)
	downloaded := filepath.Join(base, SlidesDownloaded)
	output := filepath.Join(base, SlidesOutput)
	for _, d := range []string{downloaded, output} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return Summary{}, fmt.Errorf("download: create %s: %w", d, err)
		}
	}
	if _, err := os.Stat(list); os.IsNotExist(err) {
		if err := os.WriteFile(list, nil, 0o644); err != nil {
			return Summary{}, fmt.Errorf("download: create %s: %w", list, err)
		}
	}
	p.printf("Working directories:\n - Downloaded: %s\n - Re-encoded: %s\n - Links: %s\n\n", downloaded, output, list)

	urls, err := ytdlp.ReadLinks(list, false)
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	counter := 1
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		p.printf("Processing: %s\n", u)

		var (
			name, src string
			err       error
		)
		switch {
		case ytdlp.IsYouTube(u):
			name, src, err = p.slidesYouTube(ctx, u, downloaded, counter)
		case ytdlp.IsHLS(u):
			name = hlsName(u)
			src, err = p.fetch(ctx, u, downloaded, fmt.Sprintf("%03d_%s", counter, name))
		default:
			p.printf("Unknown URL format: %s\n", u)
			sum.Skipped++
			continue
		}
		if err != nil {
			p.printf("Error processing %s: %v\n", u, err)
			sum.Failed++
			continue
		}

		dst := filepath.Join(output, fmt.Sprintf("%03d_%s.mp4", counter, name))
		p.printf("Re-encoding: %s\n", filepath.Base(dst))
		if err := p.Enc.Run(ctx, ffmpeg.TelegramSlides(src, dst)); err != nil {
			p.printf("Error processing %s: %v\n", u, err)
			sum.Failed++
			continue
		}
		p.printf("Done: %s\n\n", dst)
		sum.OK++
		counter++
	}
	p.printf("All done! Videos are in: %s\n", output)
	return sum, nil
}

// hlsName is the playlist file stem without query.
func hlsName(u string) string {
	u, _, _ = strings.Cut(u, "?")
	return ytdlp.SafeFilename(media.Stem(u))
}

func (p *Pipeline) slidesYouTube(ctx context.Context, u, dir string, n int) (name, file string, err error) {
	id, _, err := p.YT.IDAndTitle(ctx, u)
	if err != nil {
		return "", "", err
	}
	id = ytdlp.SafeFilename(id)
	stem := fmt.Sprintf("%03d_%s", n, id)
	opts := ytdlp.DownloadOptions{
		Format:         "bv*+ba/b",
		NoPlaylist:     true,
		FFmpegLocation: p.ffmpegLocation(),
	}
	if err := p.YT.Download(ctx, u, filepath.Join(dir, stem+".%(ext)s"), opts); err != nil {
		return "", "", err
	}
	file, err = ytdlp.Downloaded(dir, stem)
	return id, file, err
}
