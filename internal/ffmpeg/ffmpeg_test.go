package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/fedoraxfce/deskbin/internal/execx"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestTelegramArgs(t *testing.T) {
	job := Telegram("in.mov", "out/in-result.mp4")
	want := []string{
		"-y", "-i", "in.mov", "-map_metadata", "-1", "-max_muxing_queue_size", "512",
		"-vf", "scale=trunc(iw/2):trunc(ih/2):flags=lanczos", "-r", "15", "-crf", "25",
		"-vcodec", "libx264", "-preset", "slow", "-profile:v", "main", "-pix_fmt", "yuv420p",
		"-c:a", "aac", "-ac", "1", "-b:a", "64k", "-movflags", "+faststart", "out/in-result.mp4",
	}
	if !slices.Equal(job.Args, want) {
		t.Errorf("Telegram args =\n%v\nwant\n%v", job.Args, want)
	}
	if job.Output != "out/in-result.mp4" {
		t.Errorf("Output = %q", job.Output)
	}
}

func TestSlidesScale(t *testing.T) {
	tests := []struct {
		half bool
		want string
	}{
		{false, "scale=trunc(iw/2)*2:trunc(ih/2)*2"},
		{true, "scale=trunc(iw/2):trunc(ih/2)"},
	}
	for _, tt := range tests {
		job := Slides("a.mp4", "b.mp4", tt.half)
		i := slices.Index(job.Args, "-vf")
		if i < 0 || job.Args[i+1] != tt.want {
			t.Errorf("Slides(half=%v) -vf = %v, want %q", tt.half, job.Args, tt.want)
		}
		if j := slices.Index(job.Args, "-r"); j < 0 || job.Args[j+1] != "1" {
			t.Errorf("Slides should keep 1 fps, got %v", job.Args)
		}
	}
}

func TestCoverWithAndWithoutImage(t *testing.T) {
	o := DefaultCoverOptions()
	o.Audio = "talk.mp3"
	o.Output = "talk.mp4"

	black := Cover(o)
	joined := strings.Join(black.Args, " ")
	if !strings.Contains(joined, "-f lavfi -i color=size=1920x1080:rate=30:color=black") {
		t.Errorf("black cover missing lavfi source: %s", joined)
	}
	if strings.Contains(joined, "-vf") {
		t.Errorf("black cover should not scale: %s", joined)
	}
	if !strings.Contains(joined, "-b:a 192k") || !strings.Contains(joined, "-crf 18") {
		t.Errorf("cover defaults missing: %s", joined)
	}

	o.Image = "cover.jpg"
	img := Cover(o)
	joined = strings.Join(img.Args, " ")
	if !strings.Contains(joined, "-loop 1 -i cover.jpg") {
		t.Errorf("image cover missing loop input: %s", joined)
	}
	if !strings.Contains(joined, "pad=1920:1080:(ow-iw)/2:(oh-ih)/2") {
		t.Errorf("image cover missing pad: %s", joined)
	}
	if img.Args[len(img.Args)-1] != "talk.mp4" {
		t.Errorf("output should be last, got %v", img.Args)
	}
}

func TestMobileFPS(t *testing.T) {
	for _, fps := range []int{20, 25} {
		job := Mobile("a.mkv", "a.mp4", fps)
		i := slices.Index(job.Args, "-vf")
		if i < 0 || !strings.HasPrefix(job.Args[i+1], fmt.Sprintf("fps=%d,", fps)) {
			t.Errorf("Mobile(%d) -vf = %q", fps, job.Args[i+1])
		}
		if !slices.Contains(job.Args, "-threads") {
			t.Errorf("Mobile should limit threads: %v", job.Args)
		}
	}
}

func TestWriteConcatListEscapesQuotes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.txt")
	if err := WriteConcatList([]string{"/v/a.mp4", "/v/it's.mp4"}, path); err != nil {
		t.Fatalf("WriteConcatList() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "file '/v/a.mp4'\nfile '/v/it'\\''s.mp4'\n"
	if string(data) != want {
		t.Errorf("list = %q, want %q", data, want)
	}
}

func TestEncoderRunChecksOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.m4a")

	fake := &execx.Fake{Handle: func(c execx.Call) (execx.Result, error) {
		writeFile(t, c.Args[len(c.Args)-1], "data")
		return execx.Result{}, nil
	}}
	enc := New("/opt/ffmpeg", fake)

	if err := enc.Run(context.Background(), AudioCompact("in.mp4", out)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := fake.Last().Name; got != "/opt/ffmpeg" {
		t.Errorf("binary = %q, want /opt/ffmpeg", got)
	}

	empty := &execx.Fake{}
	enc = New("ffmpeg", empty)
	err := enc.Run(context.Background(), AudioCompact("in.mp4", filepath.Join(dir, "never.m4a")))
	if err == nil || !strings.Contains(err.Error(), "output missing") {
		t.Errorf("Run() without output error = %v, want output missing", err)
	}
}

func TestEncoderRunReportsStderr(t *testing.T) {
	fake := &execx.Fake{Handle: func(c execx.Call) (execx.Result, error) {
		return execx.Result{ExitCode: 1}, &execx.ExitError{Name: "ffmpeg", Code: 1, Stderr: "  Invalid data found  \n"}
	}}
	err := New("ffmpeg", fake).Run(context.Background(), Telegram("a", "b"))
	if err == nil || err.Error() != "ffmpeg failed (video): Invalid data found" {
		t.Errorf("Run() error = %v", err)
	}
}

func TestAvailable(t *testing.T) {
	ok := &execx.Fake{}
	if err := New("ffmpeg", ok).Available(context.Background()); err != nil {
		t.Errorf("Available() error = %v", err)
	}
	if c := ok.Last(); !slices.Equal(c.Args, []string{"-version"}) {
		t.Errorf("Available() args = %v", c.Args)
	}

	missing := &execx.Fake{Handle: func(execx.Call) (execx.Result, error) {
		return execx.Result{ExitCode: -1}, errors.New("exec: not found")
	}}
	if err := New("ffmpeg", missing).Available(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Available() error = %v, want ErrNotFound", err)
	}
}

func TestRunWithProgress(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "a_tg.mp4")
	stdout := strings.Join([]string{
		"fps=0.00", "out_time_ms=0", "speed=N/A", "progress=continue",
		"fps=48.2", "out_time_ms=5000000", "speed=2.1x", "progress=continue",
		"fps=50.0", "out_time_ms=10000000", "speed=2.0x", "progress=end",
	}, "\n")

	fake := &execx.Fake{Handle: func(c execx.Call) (execx.Result, error) {
		writeFile(t, out, "x")
		return execx.Result{Stdout: stdout}, nil
	}}
	enc := New("ffmpeg", fake)
	enc.ProgressInterval = 1 << 62 // only the first and the final snapshot pass

	var got []Progress
	err := enc.RunWithProgress(context.Background(), Mobile("a.mp4", out, 20), func(p Progress) {
		got = append(got, p)
	})
	if err != nil {
		t.Fatalf("RunWithProgress() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("callbacks = %d (%v), want 2", len(got), got)
	}
	last := got[1]
	if !last.Done || last.Seconds != 10 || last.FPS != "50.0" || last.Speed != "2.0x" {
		t.Errorf("final snapshot = %+v", last)
	}

	args := fake.Last().Args
	i := slices.Index(args, "-progress")
	if i < 0 || args[i+1] != "pipe:1" || args[len(args)-1] != out {
		t.Errorf("progress pipe not inserted before output: %v", args)
	}
}

func TestProbeDuration(t *testing.T) {
	fake := &execx.Fake{Handle: func(c execx.Call) (execx.Result, error) {
		if c.Args[len(c.Args)-1] == "broken.mp4" {
			return execx.Result{Stdout: "N/A\n"}, nil
		}
		return execx.Result{Stdout: "123.456000\n"}, nil
	}}
	p := NewProbe("ffprobe", fake)

	if d, ok := p.Duration(context.Background(), "a.mp4"); !ok || d != 123.456 {
		t.Errorf("Duration() = %v, %v, want 123.456, true", d, ok)
	}
	if _, ok := p.Duration(context.Background(), "broken.mp4"); ok {
		t.Error("Duration() should report unknown for N/A")
	}
}

func TestProgressSpeedFactor(t *testing.T) {
	tests := []struct {
		speed string
		want  float64
		ok    bool
	}{
		{"1.5x", 1.5, true},
		{" 0.98x", 0.98, true},
		{"N/A", 0, false},
		{"0x", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := Progress{Speed: tt.speed}.SpeedFactor()
		if got != tt.want || ok != tt.ok {
			t.Errorf("SpeedFactor(%q) = %v, %v, want %v, %v", tt.speed, got, ok, tt.want, tt.ok)
		}
	}
}
