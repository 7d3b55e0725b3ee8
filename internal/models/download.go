// Package models downloads whisper.cpp ggml models.
package models

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/fedoraxfce/deskbin/internal/config"
)

// BaseURL is the whisper.cpp model repository on HuggingFace.
const BaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

// Downloader fetches model files.
type Downloader struct {
	Client  *http.Client
	BaseURL string
	Out     io.Writer // progress output, default os.Stdout
}

// New returns a Downloader for the HuggingFace repository.
func New() *Downloader {
	return &Downloader{Client: http.DefaultClient, BaseURL: BaseURL, Out: os.Stdout}
}

// Download fetches the model named name (tiny, base, ..., turbo, or a raw
// ggml file name) into dir and returns its path. An existing non-empty file
// is reused.
func (d *Downloader) Download(ctx context.Context, name, dir string) (string, error) {
	file := config.ModelFile(name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("models: create dir: %w", err)
	}

	dest := filepath.Join(dir, file)
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		fmt.Fprintf(d.Out, "  Model already exists: %s (%.0f MB)\n", dest, float64(info.Size())/(1024*1024))
		return dest, nil
	}

	url := strings.TrimSuffix(d.BaseURL, "/") + "/" + file
	fmt.Fprintf(d.Out, "  Downloading %s\n", url)
	fmt.Fprintf(d.Out, "  Destination: %s\n", dest)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("models: build request: %w", err)
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("models: download %s: %w", file, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("models: download %s: HTTP %d", file, resp.StatusCode)
	}

	// Write to a temp file first, then rename.
	tmp := filepath.Join(dir, "."+file+"."+uuid.NewString()+".part")
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("models: create temp file: %w", err)
	}

	pw := &progressWriter{w: f, out: d.Out, total: resp.ContentLength, label: file}
	written, err := io.Copy(pw, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && written == 0 {
		err = fmt.Errorf("empty response")
	}
	if err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("models: write %s: %w", file, err)
	}
	fmt.Fprintf(d.Out, "\n  Downloaded %.1f MB\n", float64(written)/(1024*1024))

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("models: move model file: %w", err)
	}
	return dest, nil
}

// progressWriter prints download progress while writing.
type progressWriter struct {
	w       io.Writer
	out     io.Writer
	total   int64
	written int64
	label   string
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	pw.written += int64(n)
	if pw.total > 0 {
		fmt.Fprintf(pw.out, "\r  %s: %.1f MB / %.1f MB (%.0f%%)",
			pw.label,
			float64(pw.written)/(1024*1024),
			float64(pw.total)/(1024*1024),
			float64(pw.written)/float64(pw.total)*100)
	} else {
		fmt.Fprintf(pw.out, "\r  %s: %.1f MB downloaded", pw.label, float64(pw.written)/(1024*1024))
	}
	return n, err
}
