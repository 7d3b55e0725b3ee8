// Package media finds media files and derives output names for them.
package media

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ExtSet is a set of lower-case extensions including the dot.
type ExtSet map[string]bool

func newSet(exts ...string) ExtSet {
	s := make(ExtSet, len(exts))
	for _, e := range exts {
		s[e] = true
	}
	return s
}

// Has reports whether path's extension is in the set, ignoring case.
func (s ExtSet) Has(path string) bool {
	return s[strings.ToLower(filepath.Ext(path))]
}

// Union returns a new set holding both sets.
func (s ExtSet) Union(o ExtSet) ExtSet {
	u := make(ExtSet, len(s)+len(o))
	for e := range s {
		u[e] = true
	}
	for e := range o {
		u[e] = true
	}
	return u
}

// Sorted returns the extensions in order.
func (s ExtSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for e := range s {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

var (
	Video = newSet(".mp4", ".mov", ".m4v", ".mkv", ".webm", ".avi", ".wmv", ".flv",
		".mts", ".m2ts", ".3gp", ".mpeg", ".mpg", ".ts")
	Audio = newSet(".wav", ".mp3", ".aac", ".m4a", ".flac", ".ogg", ".oga", ".wma",
		".aif", ".aiff", ".opus")
	Media = Video.Union(Audio)

	// Transcribable is what the whisper CLI batch accepts.
	Transcribable = Media.Union(newSet(".webm"))
)

// Find returns the regular files directly inside root whose extension is
// in exts, sorted by name. Files inside a directory named skipDir are never
// returned, which keeps a tool from picking up its own outputs.
func Find(root string, exts ExtSet, skipDir string) ([]string, error) {
	if skipDir != "" && filepath.Base(root) == skipDir {
		return nil, nil
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("media: read %s: %w", root, err)
	}

	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if exts.Has(e.Name()) {
			files = append(files, filepath.Join(root, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Stem returns the file name without directory and extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Outputs returns the conversion targets for src inside outdir.
func Outputs(src, outdir string) (video, audio string) {
	stem := Stem(src)
	return filepath.Join(outdir, stem+"-result.mp4"), filepath.Join(outdir, stem+"-audio.m4a")
}

// Suffixed returns <stem><suffix> next to src.
func Suffixed(src, suffix string) string {
	return filepath.Join(filepath.Dir(src), Stem(src)+suffix)
}

// UniquePath returns dir/stem+ext, or the first free dir/stem-N+ext.
func UniquePath(dir, stem, ext string) string {
	p := filepath.Join(dir, stem+ext)
	for n := 1; exists(p); n++ {
		p = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, n, ext))
	}
	return p
}

// NonEmpty reports whether path is an existing non-empty regular file.
func NonEmpty(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// SizeMB returns the file size in megabytes, or 0 when it cannot be read.
func SizeMB(path string) float64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return float64(info.Size()) / (1024 * 1024)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
