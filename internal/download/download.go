// Package download implements the fetch pipelines: link lists are pulled
// with yt-dlp or ffmpeg and optionally re-encoded afterwards.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fedoraxfce/deskbin/internal/ffmpeg"
	"github.com/fedoraxfce/deskbin/internal/media"
	"github.com/fedoraxfce/deskbin/internal/ytdlp"
)

// YouTubeSort is the yt-dlp format sort used for YouTube links.
const YouTubeSort = "res:1080,fps"

// Summary counts per-link outcomes.
type Summary struct {
	OK, Failed, Skipped int
}

// Err returns an error when anything failed.
func (s Summary) Err() error {
	if s.Failed == 0 {
		return nil
	}
	return fmt.Errorf("download: %d item(s) failed", s.Failed)
}

// Pipeline holds the tools shared by all fetch modes.
type Pipeline struct {
	YT  *ytdlp.Client
	Enc *ffmpeg.Encoder
	Out io.Writer
}

// New returns a Pipeline. A nil out discards status lines.
func New(yt *ytdlp.Client, enc *ffmpeg.Encoder, out io.Writer) *Pipeline {
	if out == nil {
		out = io.Discard
	}
	return &Pipeline{YT: yt, Enc: enc, Out: out}
}

func (p *Pipeline) printf(format string, args ...any) {
	fmt.Fprintf(p.Out, format, args...)
}

// ffmpegLocation is the directory passed to yt-dlp when ffmpeg is not
// taken from PATH.
func (p *Pipeline) ffmpegLocation() string {
	if filepath.IsAbs(p.Enc.Bin) {
		return filepath.Dir(p.Enc.Bin)
	}
	return ""
}

// CheckDeps verifies yt-dlp and ffmpeg and prints the yt-dlp version and
// update status.
func (p *Pipeline) CheckDeps(ctx context.Context) error {
	version, err := p.YT.Version(ctx)
	if err != nil {
		p.printf("ERROR: %s not found in PATH\nInstall: pip install yt-dlp\n", p.YT.Bin)
		return err
	}
	p.printf("  yt-dlp version: %s\n", version)
	switch p.YT.CheckUpdate(ctx) {
	case ytdlp.UpToDate:
		p.printf("  [OK] yt-dlp is up to date\n")
	case ytdlp.UpdateAvailable:
		p.printf("  [WARNING] yt-dlp update available! Run: sudo dnf upgrade --refresh yt-dlp\n")
	default:
		p.printf("  [INFO] Could not verify update status\n")
	}

	if err := p.Enc.Available(ctx); err != nil {
		p.printf("ERROR: ffmpeg not found (%s)\n", p.Enc.Bin)
		return err
	}
	return nil
}

// fetch downloads u into dir as stem.<ext> and returns the file written.
// HLS playlists are remuxed by ffmpeg into a .ts file.
func (p *Pipeline) fetch(ctx context.Context, u, dir, stem string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("download: create %s: %w", dir, err)
	}
	if ytdlp.IsHLS(u) {
		out := filepath.Join(dir, stem+".ts")
		if err := p.Enc.Run(ctx, ffmpeg.HLSCopy(u, out)); err != nil {
			return "", err
		}
		return out, nil
	}

	opts := ytdlp.DownloadOptions{FFmpegLocation: p.ffmpegLocation()}
	if ytdlp.IsYouTube(u) {
		opts.Sort = YouTubeSort
	}
	if err := p.YT.Download(ctx, u, filepath.Join(dir, stem+".%(ext)s"), opts); err != nil {
		return "", err
	}
	return ytdlp.Downloaded(dir, stem)
}

// Batch downloads every *.txt link list in root into a directory named
// after the list, as NNN_<name>.mp4. Existing files count as done.
func (p *Pipeline) Batch(ctx context.Context, root string) (Summary, error) {
	lists, err := filepath.Glob(filepath.Join(root, "*.txt"))
	if err != nil {
		return Summary{}, fmt.Errorf("download: list txt files: %w", err)
	}
	if len(lists) == 0 {
		p.printf("\nNo .txt files found in current directory\n")
		return Summary{}, nil
	}
	p.printf("\nFound %d .txt file(s):\n", len(lists))
	for _, l := range lists {
		p.printf("  - %s\n", filepath.Base(l))
	}

	var total Summary
	for _, list := range lists {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		sum := p.batchList(ctx, root, list)
		total.OK += sum.OK
		total.Failed += sum.Failed
	}

	p.printf("\n%s\nFinal Summary\n%s\n", rule, rule)
	p.printf("Total files processed: %d\n", len(lists))
	p.printf("Total successful downloads: %d\n", total.OK)
	p.printf("Total failed downloads: %d\n%s\n", total.Failed, rule)
	return total, nil
}

var rule = strings.Repeat("=", 60)

func (p *Pipeline) batchList(ctx context.Context, root, list string) Summary {
	name := filepath.Base(list)
	p.printf("\n%s\nProcessing: %s\n%s\n", rule, name, rule)

	urls, err := ytdlp.ReadLinks(list, true)
	if err != nil {
		p.printf("WARNING: Failed to read %s: %v\n", name, err)
		return Summary{}
	}
	if len(urls) == 0 {
		p.printf("No URLs found in %s, skipping...\n", name)
		return Summary{}
	}
	p.printf("Found %d URL(s)\n", len(urls))

	outdir := filepath.Join(root, media.Stem(list))
	if err := os.MkdirAll(outdir, 0o755); err != nil {
		p.printf("ERROR: %v\n", err)
		return Summary{Failed: len(urls)}
	}
	p.printf("Output directory: %s/\n", filepath.Base(outdir))

	var sum Summary
	opts := ytdlp.DownloadOptions{FFmpegLocation: p.ffmpegLocation()}
	for i, u := range urls {
		if ctx.Err() != nil {
			break
		}
		file := p.YT.NameFromURL(ctx, u, i+1)
		out := filepath.Join(outdir, file)
		if _, err := os.Stat(out); err == nil {
			p.printf("\n[%d/%d] Skipping (already exists): %s\n", i+1, len(urls), file)
			sum.OK++
			continue
		}

		p.printf("\n[%d/%d]\n> Downloading: %s\n  Output: %s\n", i+1, len(urls), u, file)
		if err := p.YT.Download(ctx, u, out, opts); err != nil {
			p.printf("  [ERROR] Download failed: %v\n", err)
			sum.Failed++
			continue
		}
		if !media.NonEmpty(out) {
			p.printf("  [ERROR] Output file missing or empty\n")
			sum.Failed++
			continue
		}
		p.printf("  [OK] Downloaded successfully\n")
		sum.OK++
	}
	p.printf("\n%s - Downloaded: %d, Failed: %d\n", name, sum.OK, sum.Failed)
	return sum
}

// ErrNoLinks is returned when a link list has no usable lines.
var ErrNoLinks = errors.New("no links in list")

// pull downloads every link of list into srcDir as NN_<stem>.*.
func (p *Pipeline) pull(ctx context.Context, list, srcDir string) error {
	urls, err := ytdlp.ReadLinks(list, false)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return ErrNoLinks
	}

	p.printf("Downloading...\n")
	for i, u := range urls {
		if err := ctx.Err(); err != nil {
			return err
		}
		stem := fmt.Sprintf("%02d_%s", i+1, p.YT.StemFromURL(ctx, u))
		p.printf("  [%02d] %s  ->  %s/%s.*\n", i+1, u, filepath.Base(srcDir), stem)
		if _, err := p.fetch(ctx, u, srcDir, stem); err != nil {
			p.printf("  Skipping (download error): %v\n", err)
			slog.Debug("Download failed", "url", u, "error", err)
		}
	}
	p.printf("Download finished.\n\n")
	return nil
}

func sources(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasSuffix(e.Name(), ".part") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files
}

// Audio pulls root/files.txt into root/src and extracts 128k AAC audio to
// root/<stem>.m4a.
func (p *Pipeline) Audio(ctx context.Context, root string) (Summary, error) {
	srcDir := filepath.Join(root, "src")
	if err := p.pull(ctx, filepath.Join(root, "files.txt"), srcDir); err != nil {
		return Summary{}, err
	}

	p.printf("Converting to m4a...\n")
	var sum Summary
	for _, src := range sources(srcDir) {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		out := filepath.Join(root, media.Stem(src)+".m4a")
		if err := p.Enc.Run(ctx, ffmpeg.AudioAAC(src, out, 128)); err != nil {
			p.printf("  Skipping (encode error): %v\n", err)
			sum.Failed++
			continue
		}
		p.printf("  %s -> %s\n", filepath.Base(src), filepath.Base(out))
		sum.OK++
	}
	if sum.OK+sum.Failed == 0 {
		p.printf("Nothing to convert. Is src empty?\n")
	} else {
		p.printf("\nDone! Sources in ./src, audio in the current folder.\n")
	}
	return sum, nil
}

// MobileFPS is the frame rate of the mobile re-encode.
const MobileFPS = 20

// Mobile pulls root/files.txt into root/src and writes a half-size MP4 and
// an M4A for each source into root/result.
func (p *Pipeline) Mobile(ctx context.Context, root string) (Summary, error) {
	srcDir := filepath.Join(root, "src")
	if err := p.pull(ctx, filepath.Join(root, "files.txt"), srcDir); err != nil {
		return Summary{}, err
	}
	resultDir := filepath.Join(root, "result")
	if err := os.MkdirAll(resultDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("download: create %s: %w", resultDir, err)
	}

	p.printf("Encoding (mobile) and extracting audio...\n")
	var sum Summary
	for _, src := range sources(srcDir) {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		stem := media.Stem(src)
		mp4 := filepath.Join(resultDir, stem+".mp4")
		m4a := filepath.Join(resultDir, stem+".m4a")
		err := p.Enc.Run(ctx, ffmpeg.Mobile(src, mp4, MobileFPS))
		if err == nil {
			err = p.Enc.Run(ctx, ffmpeg.AudioAAC(src, m4a, 128))
		}
		if err != nil {
			p.printf("  Error: %v\n", err)
			sum.Failed++
			continue
		}
		p.printf("  %s -> %s + %s\n", filepath.Base(src), filepath.Base(mp4), filepath.Base(m4a))
		sum.OK++
	}
	if sum.OK+sum.Failed == 0 {
		p.printf("Nothing to encode. Is src empty?\n")
	} else {
		p.printf("\nDone! Sources in ./src, MP4 and M4A in ./result.\n")
	}
	return sum, nil
}
