package media

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func touch(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestExtSetHas(t *testing.T) {
	tests := []struct {
		set  ExtSet
		path string
		want bool
	}{
		{Video, "clip.MOV", true},
		{Video, "song.mp3", false},
		{Audio, "song.Opus", true},
		{Media, "notes.txt", false},
		{Media, "noext", false},
		{Transcribable, "call.webm", true},
	}
	for _, tt := range tests {
		if got := tt.set.Has(tt.path); got != tt.want {
			t.Errorf("Has(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.mp4"), 1)
	touch(t, filepath.Join(dir, "a.MKV"), 1)
	touch(t, filepath.Join(dir, "c.mp3"), 1)
	touch(t, filepath.Join(dir, "notes.txt"), 1)
	touch(t, filepath.Join(dir, "telegram", "a-result.mp4"), 1)

	got, err := Find(dir, Video, "telegram")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	want := []string{filepath.Join(dir, "a.MKV"), filepath.Join(dir, "b.mp4")}
	if !slices.Equal(got, want) {
		t.Errorf("Find() = %v, want %v", got, want)
	}

	inner, err := Find(filepath.Join(dir, "telegram"), Video, "telegram")
	if err != nil || len(inner) != 0 {
		t.Errorf("Find() inside skip dir = %v, %v, want none", inner, err)
	}
}

func TestOutputsAndSuffixed(t *testing.T) {
	v, a := Outputs("/src/talk.final.mov", "/out")
	if v != "/out/talk.final-result.mp4" || a != "/out/talk.final-audio.m4a" {
		t.Errorf("Outputs() = %q, %q", v, a)
	}
	if got := Suffixed("/v/clip.mkv", "_tg.mp4"); got != "/v/clip_tg.mp4" {
		t.Errorf("Suffixed() = %q", got)
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	if got := UniquePath(dir, "lecture", ".md"); got != filepath.Join(dir, "lecture.md") {
		t.Errorf("UniquePath() = %q", got)
	}
	touch(t, filepath.Join(dir, "lecture.md"), 0)
	touch(t, filepath.Join(dir, "lecture-1.md"), 0)
	if got := UniquePath(dir, "lecture", ".md"); got != filepath.Join(dir, "lecture-2.md") {
		t.Errorf("UniquePath() = %q, want lecture-2.md", got)
	}
}

func TestNonEmptyAndSize(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.mp4")
	full := filepath.Join(dir, "full.mp4")
	touch(t, empty, 0)
	touch(t, full, 1024*1024)

	if NonEmpty(empty) || NonEmpty(filepath.Join(dir, "missing")) || NonEmpty(dir) {
		t.Error("NonEmpty() should be false for empty, missing and directories")
	}
	if !NonEmpty(full) {
		t.Error("NonEmpty() should be true for a written file")
	}
	if got := SizeMB(full); got != 1 {
		t.Errorf("SizeMB() = %v, want 1", got)
	}
}
