package batch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

type fakeWhisper struct {
	text string
	err  error
}

func (f *fakeWhisper) File(_ context.Context, src, outDir, _, _ string) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	txt := filepath.Join(outDir, stem+".txt")
	if err := os.WriteFile(txt, []byte(f.text), 0644); err != nil {
		return "", "", err
	}
	return f.text, txt, nil
}

type fakeProbe float64

func (p fakeProbe) Duration(context.Context, string) (float64, bool) { return float64(p), p > 0 }

// stepClock advances by step on every call.
func stepClock(step time.Duration) func() time.Time {
	t := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func newTranscriber(t *testing.T, w Whisper) (*Transcriber, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	tr := New(w, fakeProbe(3725), t.TempDir(), &out)
	tr.now = stepClock(30 * time.Second)
	return tr, &out
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		answer string
		want   Choice
		ok     bool
	}{
		{"", Choice{}, true},
		{"ru", Choice{Language: "ru"}, true},
		{"  es \n", Choice{Language: "es"}, true},
		{"0", Choice{Files: []int{0, 1, 2}}, true},
		{"1 3", Choice{Files: []int{0, 2}}, true},
		{"3 9 x", Choice{Files: []int{2}}, true},
		{"9", Choice{}, false},
		{"abcd", Choice{}, false},
	}
	for _, tt := range tests {
		got, _, ok := ParseChoice(tt.answer, 3)
		if ok != tt.ok || got.Language != tt.want.Language || !slices.Equal(got.Files, tt.want.Files) {
			t.Errorf("ParseChoice(%q) = %+v, %v; want %+v, %v", tt.answer, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSelectLanguageSwitch(t *testing.T) {
	tr, out := newTranscriber(t, &fakeWhisper{})
	files := []string{"/m/a.mp3", "/m/b.mp4"}
	if err := os.WriteFile(filepath.Join(tr.OutDir, "b.md"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	sel, lang := tr.Select(context.Background(), strings.NewReader("ru\n7\n2\n"), files, "en")
	if !slices.Equal(sel, []int{1}) || lang != "ru" {
		t.Errorf("Select() = %v, %q", sel, lang)
	}
	text := out.String()
	if strings.Count(text, "Whisper Transcription Tool") != 2 {
		t.Errorf("menu should be redrawn after a language switch:\n%s", text)
	}
	if !strings.Contains(text, "2) [✓] b.mp4") || !strings.Contains(text, "1) [ ] a.mp3") {
		t.Errorf("menu marks wrong:\n%s", text)
	}
	if !strings.Contains(text, "Number 7 out of range") {
		t.Errorf("missing range note:\n%s", text)
	}
}

func TestSelectExit(t *testing.T) {
	tr, _ := newTranscriber(t, &fakeWhisper{})
	for _, input := range []string{"\n", ""} {
		if sel, _ := tr.Select(context.Background(), strings.NewReader(input), []string{"a.mp3"}, "en"); len(sel) != 0 {
			t.Errorf("Select(%q) = %v, want nothing", input, sel)
		}
	}
}

func TestSelectInterrupt(t *testing.T) {
	tr, out := newTranscriber(t, &fakeWhisper{})
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan []int, 1)
	go func() {
		sel, _ := tr.Select(ctx, pr, []string{"a.mp3"}, "en")
		done <- sel
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case sel := <-done:
		if len(sel) != 0 {
			t.Errorf("Select() = %v, want nothing", sel)
		}
		if !strings.Contains(out.String(), "Cancelled by user") {
			t.Errorf("missing cancel note:\n%s", out.String())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Select() kept waiting for input after cancel")
	}
}

func TestFileWritesNoteWithHeader(t *testing.T) {
	tr, _ := newTranscriber(t, &fakeWhisper{text: "hello world\nsecond line"})
	src := filepath.Join(t.TempDir(), "talk.m4a")
	if err := os.WriteFile(src, make([]byte, 1024*1024), 0644); err != nil {
		t.Fatal(err)
	}
	// An earlier note forces a numbered name.
	if err := os.WriteFile(filepath.Join(tr.OutDir, "talk.md"), []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	s := tr.File(context.Background(), src, "en")
	if !s.OK {
		t.Fatalf("File() failed: %+v", s)
	}
	if filepath.Base(s.Output) != "talk-1.md" {
		t.Errorf("Output = %q", s.Output)
	}
	if s.Words != 4 || s.Lines != 2 || s.Chars != 23 {
		t.Errorf("counts = %d words, %d lines, %d chars", s.Words, s.Lines, s.Chars)
	}

	data, err := os.ReadFile(s.Output)
	if err != nil {
		t.Fatal(err)
	}
	note := string(data)
	for _, want := range []string{
		" Transcription Statistics\n",
		"* File: talk.m4a\n",
		"* Size: 1.00 MB\n",
		"* Media duration: 01:02:05\n",
		"* Processing time: 00:00:30\n",
		"* Output: 23 characters, 4 words, 2 lines\n",
		"* Model: turbo\n",
		"* Language: en\n\n\nhello world",
	} {
		if !strings.Contains(note, want) {
			t.Errorf("note missing %q:\n%s", want, note)
		}
	}
	if _, err := os.Stat(filepath.Join(tr.OutDir, "talk.txt")); !os.IsNotExist(err) {
		t.Error("raw whisper txt should be removed")
	}
}

func TestHeaderGroupsThousands(t *testing.T) {
	h := Header(Stats{File: "x", Chars: 12345, Words: 2000, Lines: 3}, "turbo", "ru")
	if !strings.Contains(h, "* Output: 12,345 characters, 2,000 words, 3 lines") {
		t.Errorf("Header() =\n%s", h)
	}
	if strings.Contains(h, "Media duration") {
		t.Error("unknown media duration should be omitted")
	}
}

func TestRunReport(t *testing.T) {
	var out bytes.Buffer
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mp3")
	if err := os.WriteFile(src, make([]byte, 2*1024*1024), 0644); err != nil {
		t.Fatal(err)
	}

	tr := New(&fakeWhisper{text: "one two"}, fakeProbe(0), t.TempDir(), &out)
	tr.now = stepClock(30 * time.Second)
	stats := tr.Run(context.Background(), []string{src}, "en")
	if Failed(stats) != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	// 2 MB in 30s of processing.
	if !strings.Contains(out.String(), "Average speed: 4.00 MB/min") {
		t.Errorf("report:\n%s", out.String())
	}

	out.Reset()
	tr.Whisper = &fakeWhisper{err: errors.New("model missing")}
	stats = tr.Run(context.Background(), []string{src}, "en")
	if Failed(stats) != 1 {
		t.Errorf("Failed() = %d", Failed(stats))
	}
	if !strings.Contains(out.String(), "Failed: 1") || strings.Contains(out.String(), "TOTALS") {
		t.Errorf("report:\n%s", out.String())
	}
}

func TestOutputDir(t *testing.T) {
	t.Setenv("OBSIDIAN_PATH", "")
	dir, fromEnv := OutputDir("/work")
	if dir != filepath.Join("/work", "out") || fromEnv {
		t.Errorf("OutputDir() = %q, %v", dir, fromEnv)
	}

	t.Setenv("OBSIDIAN_PATH", "/vault/Transcripts")
	dir, fromEnv = OutputDir("/work")
	if dir != "/vault/Transcripts" || !fromEnv {
		t.Errorf("OutputDir() = %q, %v", dir, fromEnv)
	}
}
