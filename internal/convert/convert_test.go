package convert

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fedoraxfce/deskbin/internal/execx"
	"github.com/fedoraxfce/deskbin/internal/ffmpeg"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
}

// fakeFFmpeg writes the output file (the last argument) for every call,
// failing for sources whose name contains "bad".
func fakeFFmpeg() *execx.Fake {
	return &execx.Fake{Handle: func(c execx.Call) (execx.Result, error) {
		if c.Name == "ffprobe" {
			return execx.Result{Stdout: "12.5\n"}, nil
		}
		if strings.Contains(strings.Join(c.Args, " "), "bad") {
			return execx.Result{}, &execx.ExitError{Name: c.Name, Code: 1, Stderr: "boom"}
		}
		out := c.Args[len(c.Args)-1]
		if err := os.WriteFile(out, []byte("out"), 0644); err != nil {
			return execx.Result{}, err
		}
		return execx.Result{Stdout: "out_time_ms=6000000\nprogress=continue\nout_time_ms=12500000\nprogress=end\n"}, nil
	}}
}

func newConverter(f *execx.Fake) (*Converter, *bytes.Buffer) {
	var out bytes.Buffer
	return New(ffmpeg.New("ffmpeg", f), &out), &out
}

func TestModeDirs(t *testing.T) {
	want := []string{"merge_files", "telegram", "audio_only", "video_slides_1fps", "video_slides_1fps_half"}
	for i, m := range Modes {
		if m.Dir() != want[i] {
			t.Errorf("%d.Dir() = %q, want %q", i, m.Dir(), want[i])
		}
	}
}

func TestSelect(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.mp4"))
	touch(t, filepath.Join(dir, "a.mp3"))
	touch(t, filepath.Join(dir, "notes.txt"))

	all, err := Select(dir, "")
	if err != nil || len(all) != 2 || filepath.Base(all[0]) != "a.mp3" {
		t.Fatalf("Select(all) = %v, %v", all, err)
	}
	one, err := Select(dir, "b.mp4")
	if err != nil || len(one) != 1 {
		t.Fatalf("Select(b.mp4) = %v, %v", one, err)
	}

	tests := []struct {
		name, want string
	}{
		{"missing.mp4", "not found"},
		{"notes.txt", "not a supported media file"},
	}
	for _, tt := range tests {
		if _, err := Select(dir, tt.name); err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("Select(%q) error = %v, want %q", tt.name, err, tt.want)
		}
	}

	if _, err := Select(t.TempDir(), ""); err == nil {
		t.Error("Select on an empty dir should fail")
	}
}

func TestPrompt(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Mode
		wantErr error
	}{
		{"valid", "3\n", Slides, nil},
		{"retry after invalid", "9\nx\n1\n", Telegram, nil},
		{"no newline", "4", SlidesHalf, nil},
		{"eof", "", 0, ErrCancelled},
		{"invalid then eof", "7\n", 0, ErrCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := Prompt(context.Background(), strings.NewReader(tt.input), &out, "All files (2)")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Prompt() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("Prompt() = %v, want %v", got, tt.want)
			}
			if !strings.Contains(out.String(), "Current selection: All files (2)") {
				t.Errorf("menu missing selection:\n%s", out.String())
			}
		})
	}
}

func TestPromptInterrupt(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := Prompt(ctx, pr, io.Discard, "Nothing")
		errc <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, ErrCancelled) {
			t.Errorf("Prompt() error = %v, want %v", err, ErrCancelled)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Prompt() kept waiting for input after cancel")
	}
}

func TestScope(t *testing.T) {
	if got := Scope(nil, false); got != "Nothing" {
		t.Errorf("Scope(nil) = %q", got)
	}
	if got := Scope([]string{"/x/a.mp4"}, true); got != "a.mp4" {
		t.Errorf("Scope(single) = %q", got)
	}
	if got := Scope([]string{"a", "b"}, false); got != "All files (2)" {
		t.Errorf("Scope(all) = %q", got)
	}
}

func TestRunTelegram(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "clip.mp4"))
	touch(t, filepath.Join(dir, "voice.mp3"))

	f := fakeFFmpeg()
	c, _ := newConverter(f)
	sum, err := c.Run(context.Background(), Telegram, dir, []string{
		filepath.Join(dir, "clip.mp4"), filepath.Join(dir, "voice.mp3"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Done != 2 || sum.Failed != 0 {
		t.Errorf("summary = %+v", sum)
	}
	// video + audio for clip, audio only for voice
	if len(f.Calls) != 3 {
		t.Errorf("calls = %d, want 3", len(f.Calls))
	}
	for _, name := range []string{"clip-result.mp4", "clip-audio.m4a", "voice-audio.m4a"} {
		if _, err := os.Stat(filepath.Join(dir, "telegram", name)); err != nil {
			t.Errorf("missing %s", name)
		}
	}

	// Second run skips everything.
	f.Calls = nil
	sum, _ = c.Run(context.Background(), Telegram, dir, []string{
		filepath.Join(dir, "clip.mp4"), filepath.Join(dir, "voice.mp3"),
	})
	if sum.Skipped != 2 || len(f.Calls) != 0 {
		t.Errorf("rerun summary = %+v, calls = %d", sum, len(f.Calls))
	}

	// A missing video redoes the audio too.
	if err := os.Remove(filepath.Join(dir, "telegram", "clip-result.mp4")); err != nil {
		t.Fatal(err)
	}
	f.Calls = nil
	sum, _ = c.Run(context.Background(), Telegram, dir, []string{filepath.Join(dir, "clip.mp4")})
	if sum.Done != 1 || len(f.Calls) != 2 {
		t.Errorf("partial rerun summary = %+v, calls = %d, want 2", sum, len(f.Calls))
	}
}

func TestRunSlidesSkipsAudio(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.mp3"))
	touch(t, filepath.Join(dir, "bad.mp4"))

	c, out := newConverter(fakeFFmpeg())
	sum, _ := c.Run(context.Background(), SlidesHalf, dir, []string{
		filepath.Join(dir, "a.mp3"), filepath.Join(dir, "bad.mp4"),
	})
	if sum.Skipped != 1 || sum.Failed != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.Err() == nil {
		t.Error("Err() should report the failure")
	}
	if !strings.Contains(out.String(), "ffmpeg failed (video slides): boom") {
		t.Errorf("output missing failure:\n%s", out.String())
	}
}

func TestRunMerge(t *testing.T) {
	dir := t.TempDir()
	files := []string{filepath.Join(dir, "1.mp4"), filepath.Join(dir, "2.mp4"), filepath.Join(dir, "x.m4a")}
	for _, p := range files {
		touch(t, p)
	}

	f := fakeFFmpeg()
	c, out := newConverter(f)
	sum, err := c.Run(context.Background(), Merge, dir, files)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Done != 1 || len(f.Calls) != 1 {
		t.Errorf("summary = %+v, calls = %d", sum, len(f.Calls))
	}
	if !strings.Contains(out.String(), "Only 1 audio file found - nothing to merge") {
		t.Errorf("output:\n%s", out.String())
	}
	if got := f.Last().Args[len(f.Last().Args)-1]; filepath.Base(got) != "merged-video.mp4" {
		t.Errorf("merge output = %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "merge_files", "concat_list.txt")); !os.IsNotExist(err) {
		t.Error("concat list should be removed")
	}
}

func TestMP3AndSmall(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "talk.mov")
	touch(t, src)

	c, _ := newConverter(fakeFFmpeg())
	sum := c.MP3(context.Background(), []string{src, filepath.Join(dir, "nope.mov")})
	if sum.Done != 1 || sum.Failed != 1 {
		t.Errorf("MP3 summary = %+v", sum)
	}
	if _, err := os.Stat(filepath.Join(dir, "talk-result.mp3")); err != nil {
		t.Error("talk-result.mp3 not written")
	}

	sum = c.Small(context.Background(), []string{src})
	if sum.Done != 1 {
		t.Errorf("Small summary = %+v", sum)
	}
	if _, err := os.Stat(filepath.Join(dir, "talk-result-small.mp4")); err != nil {
		t.Error("talk-result-small.mp4 not written")
	}
}

func TestCover(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "song.mp3")
	touch(t, audio)

	c, out := newConverter(fakeFFmpeg())
	o := ffmpeg.DefaultCoverOptions()
	o.Audio = audio
	got, err := c.Cover(context.Background(), o)
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(dir, "song.mp4") {
		t.Errorf("Cover() = %q", got)
	}
	if !strings.HasPrefix(out.String(), "Running: ffmpeg -y") {
		t.Errorf("output:\n%s", out.String())
	}

	o.Image = filepath.Join(dir, "missing.jpg")
	if _, err := c.Cover(context.Background(), o); err == nil || !strings.Contains(err.Error(), "image file not found") {
		t.Errorf("Cover(missing image) error = %v", err)
	}
	o.Audio = filepath.Join(dir, "missing.mp3")
	if _, err := c.Cover(context.Background(), o); err == nil || !strings.Contains(err.Error(), "audio file not found") {
		t.Errorf("Cover(missing audio) error = %v", err)
	}
}

func TestWebinar(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "lesson.mp4"))
	touch(t, filepath.Join(dir, "intro.m4a"))

	f := fakeFFmpeg()
	c, _ := newConverter(f)
	sum, err := c.Webinar(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Done != 2 || len(f.Calls) != 3 {
		t.Errorf("summary = %+v, calls = %d", sum, len(f.Calls))
	}

	f.Calls = nil
	sum, _ = c.Webinar(context.Background(), dir)
	if sum.Skipped != 2 || len(f.Calls) != 0 {
		t.Errorf("rerun summary = %+v, calls = %d", sum, len(f.Calls))
	}
}

func TestTG(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "demo.mkv")
	touch(t, src)

	f := fakeFFmpeg()
	c, out := newConverter(f)
	probe := ffmpeg.NewProbe("ffprobe", f)
	sum := c.TG(context.Background(), probe, []string{src, filepath.Join(dir, "gone.mkv")})
	if sum.Done != 1 || sum.Skipped != 1 {
		t.Errorf("summary = %+v", sum)
	}
	text := out.String()
	for _, want := range []string{"File: demo.mkv", "Duration: 00:00:12", TGParams, "Output: demo_tg.mp4", "File not found"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "demo_tg.mp4")); err != nil {
		t.Error("demo_tg.mp4 not written")
	}
}
