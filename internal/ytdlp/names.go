package ytdlp

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"
	"time"
	"unicode"
)

// IsYouTube reports whether u points at YouTube.
func IsYouTube(u string) bool {
	l := strings.ToLower(u)
	return strings.Contains(l, "youtube.com") ||
		strings.Contains(l, "youtu.be") ||
		strings.Contains(l, "youtube-nocookie.com")
}

// IsHLS reports whether u is an m3u8 playlist.
func IsHLS(u string) bool {
	l := strings.ToLower(u)
	return strings.HasSuffix(l, ".m3u8") || strings.Contains(l, ".m3u8?")
}

// ReadLinks reads one URL per line from path.
func ReadLinks(path string, requireHTTP bool) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ytdlp: read links: %w", err)
	}
	return ParseLinks(string(data), requireHTTP), nil
}

// ParseLinks returns the non-blank, non-comment lines of text. With
// requireHTTP only http(s) URLs are kept.
func ParseLinks(text string, requireHTTP bool) []string {
	var links []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if requireHTTP && !strings.HasPrefix(line, "http://") && !strings.HasPrefix(line, "https://") {
			continue
		}
		links = append(links, line)
	}
	return links
}

func isCyrillic(r rune) bool {
	return (r >= 'а' && r <= 'я') || (r >= 'А' && r <= 'Я') || r == 'ё' || r == 'Ё'
}

// SanitizeAlnum keeps Latin and Cyrillic letters and digits of name's stem.
func SanitizeAlnum(name string) string {
	name = strings.TrimSuffix(name, path.Ext(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case isCyrillic(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SafeFilename replaces characters that are invalid in file names with
// "_" and drops control characters. An empty result becomes item_<unix-ms>.
func SafeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case strings.ContainsRune(`\/*?:"<>|`, r):
			b.WriteRune('_')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return fmt.Sprintf("item_%d", time.Now().UnixMilli())
	}
	return out
}

// nameFor builds NNN_<name>.mp4 from an already fetched title.
func nameFor(u, title string, index int) string {
	prefix := fmt.Sprintf("%03d", index)
	if IsYouTube(u) {
		if s := SanitizeAlnum(title); title != "" && s != "" {
			return prefix + "_" + s + ".mp4"
		}
		return prefix + "_youtube_video.mp4"
	}
	if s := SanitizeAlnum(urlStem(u)); s != "" {
		return prefix + "_" + s + ".mp4"
	}
	return prefix + "_video.mp4"
}

// NameFromURL returns the numbered output file name for a batch download:
// the sanitized title for YouTube, the URL path stem otherwise.
func (c *Client) NameFromURL(ctx context.Context, u string, index int) string {
	var title string
	if IsYouTube(u) {
		title, _ = c.Title(ctx, u)
	}
	return nameFor(u, title, index)
}

// StemFromURL returns a file stem: <id>_<title> for YouTube, the URL
// basename without extension and query otherwise.
func (c *Client) StemFromURL(ctx context.Context, u string) string {
	if IsYouTube(u) {
		if id, title, err := c.IDAndTitle(ctx, u); err == nil {
			if title == "" {
				return SafeFilename(id)
			}
			return SafeFilename(id + "_" + title)
		}
	}
	return SafeFilename(urlStem(u))
}

// urlStem returns the last path element of u without its extension.
func urlStem(u string) string {
	p := u
	if parsed, err := url.Parse(u); err == nil && parsed.Path != "" {
		p = parsed.Path
	} else if i := strings.IndexAny(u, "?#"); i >= 0 {
		p = u[:i]
	}
	base := path.Base(p)
	if base == "/" || base == "." {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}
