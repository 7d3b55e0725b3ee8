// Package ytdlp wraps the yt-dlp command line downloader.
package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fedoraxfce/deskbin/internal/execx"
)

// ErrNotFound is returned when yt-dlp cannot run.
var ErrNotFound = errors.New("yt-dlp not found")

// UpdateStatus classifies `yt-dlp --update-to stable --no-update` output.
type UpdateStatus int

const (
	UpdateUnknown UpdateStatus = iota
	UpToDate
	UpdateAvailable
)

func (s UpdateStatus) String() string {
	switch s {
	case UpToDate:
		return "up to date"
	case UpdateAvailable:
		return "update available"
	default:
		return "unknown"
	}
}

// Client runs yt-dlp.
type Client struct {
	Bin    string
	Runner execx.Runner
}

// New returns a Client for bin. A nil runner uses execx.Exec.
func New(bin string, r execx.Runner) *Client {
	if bin == "" {
		bin = "yt-dlp"
	}
	if r == nil {
		r = &execx.Exec{}
	}
	return &Client{Bin: bin, Runner: r}
}

// Version returns the installed version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	res, err := c.Runner.Run(ctx, c.Bin, "--version")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// CheckUpdate asks yt-dlp whether a newer stable release exists without
// installing it.
func (c *Client) CheckUpdate(ctx context.Context) UpdateStatus {
	res, _ := c.Runner.Run(ctx, c.Bin, "--update-to", "stable", "--no-update")
	return classifyUpdate(res.Stdout + res.Stderr)
}

func classifyUpdate(out string) UpdateStatus {
	out = strings.ToLower(out)
	switch {
	case strings.Contains(out, "up to date"), strings.Contains(out, "latest"):
		return UpToDate
	case strings.Contains(out, "available"), strings.Contains(out, "update"):
		return UpdateAvailable
	default:
		return UpdateUnknown
	}
}

// Title returns the media title.
func (c *Client) Title(ctx context.Context, url string) (string, error) {
	res, err := c.Runner.Run(ctx, c.Bin, "--no-playlist", "--print", "title", url)
	if err != nil {
		return "", fmt.Errorf("ytdlp: title of %s: %w", url, err)
	}
	title := firstLine(res.Stdout)
	if title == "" {
		return "", fmt.Errorf("ytdlp: empty title for %s", url)
	}
	return title, nil
}

// IDAndTitle returns the media id and title in one call.
func (c *Client) IDAndTitle(ctx context.Context, url string) (id, title string, err error) {
	res, err := c.Runner.Run(ctx, c.Bin, "--no-playlist", "--print", "id", "--print", "title", url)
	if err != nil {
		return "", "", fmt.Errorf("ytdlp: id of %s: %w", url, err)
	}
	lines := nonEmptyLines(res.Stdout)
	switch len(lines) {
	case 0:
		return "", "", fmt.Errorf("ytdlp: no id for %s", url)
	case 1:
		return lines[0], "", nil
	default:
		return lines[0], lines[1], nil
	}
}

// DownloadOptions tunes Download.
type DownloadOptions struct {
	Sort           string // -S, e.g. "res:1080,fps"
	Format         string // -f, e.g. "bv*+ba/b"
	NoPlaylist     bool
	FFmpegLocation string // directory holding ffmpeg
}

// Download fetches url into outTemplate, which may use yt-dlp fields such
// as %(ext)s.
func (c *Client) Download(ctx context.Context, url, outTemplate string, o DownloadOptions) error {
	var args []string
	if o.Sort != "" {
		args = append(args, "-S", o.Sort)
	}
	if o.Format != "" {
		args = append(args, "-f", o.Format)
	}
	if o.NoPlaylist {
		args = append(args, "--no-playlist")
	}
	if o.FFmpegLocation != "" {
		args = append(args, "--ffmpeg-location", o.FFmpegLocation)
	}
	args = append(args, "-o", outTemplate, url)

	if _, err := c.Runner.Run(ctx, c.Bin, args...); err != nil {
		return fmt.Errorf("ytdlp: download %s: %w", url, err)
	}
	return nil
}

// Downloaded returns the file yt-dlp wrote for stem inside dir, ignoring
// partial downloads.
func Downloaded(dir, stem string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, globEscape(stem)+".*"))
	if err != nil {
		return "", fmt.Errorf("ytdlp: glob %s: %w", stem, err)
	}
	sort.Strings(matches)
	for _, m := range matches {
		if strings.HasSuffix(m, ".part") || strings.HasSuffix(m, ".ytdl") {
			continue
		}
		if info, err := os.Stat(m); err == nil && info.Mode().IsRegular() {
			return m, nil
		}
	}
	return "", fmt.Errorf("ytdlp: no downloaded file for %s in %s", stem, dir)
}

func globEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`)
	return r.Replace(s)
}

func firstLine(s string) string {
	if lines := nonEmptyLines(s); len(lines) > 0 {
		return lines[0]
	}
	return ""
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
