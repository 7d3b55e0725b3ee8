package progress

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/fedoraxfce/deskbin/internal/ffmpeg"
)

func TestHumanTime(t *testing.T) {
	tests := []struct {
		sec  float64
		want string
	}{
		{0, "00:00:00"},
		{59.9, "00:00:59"},
		{61, "00:01:01"},
		{3725, "01:02:05"},
		{-5, "00:00:00"},
	}
	for _, tt := range tests {
		if got := HumanTime(tt.sec); got != tt.want {
			t.Errorf("HumanTime(%v) = %q, want %q", tt.sec, got, tt.want)
		}
	}
}

func TestRenderKnownTotal(t *testing.T) {
	p := ffmpeg.Progress{Seconds: 50, FPS: "48", Speed: "2x"}
	line := Render(">", p, 100, 0)

	if !strings.Contains(line, strings.Repeat("█", 16)+strings.Repeat("░", 16)) {
		t.Errorf("bar not half full: %q", line)
	}
	for _, part := range []string{" 50.0%", "00:00:50/00:01:40", "FPS 48", "2x", "ETA 00:00:25"} {
		if !strings.Contains(line, part) {
			t.Errorf("Render() = %q, missing %q", line, part)
		}
	}
}

func TestRenderClampsOverrun(t *testing.T) {
	line := Render("ok", ffmpeg.Progress{Seconds: 130}, 100, 0)
	if !strings.Contains(line, "100.0%") {
		t.Errorf("Render() = %q, want 100%%", line)
	}
}

func TestRenderNoETAWithoutSpeed(t *testing.T) {
	line := Render(">", ffmpeg.Progress{Seconds: 10, Speed: "N/A"}, 100, 0)
	if strings.Contains(line, "ETA") {
		t.Errorf("Render() = %q, should not show ETA", line)
	}
}

func TestRenderUnknownTotal(t *testing.T) {
	line := Render(">", ffmpeg.Progress{Seconds: 3}, 0, 0)
	if !strings.Contains(line, "FPS -  -") || !strings.Contains(line, "00:00:03") {
		t.Errorf("indeterminate Render() = %q", line)
	}
}

func TestRenderTruncatesToWidth(t *testing.T) {
	line := Render("🚀", ffmpeg.Progress{Seconds: 10, FPS: "25", Speed: "1x"}, 100, 40)
	if n := utf8.RuneCountInString(line); n != 39 {
		t.Errorf("rune count = %d, want 39", n)
	}
}

func TestBarFinishUsesTotal(t *testing.T) {
	var buf bytes.Buffer
	b := &Bar{W: &buf, Prefix: "🚀", Total: 60}
	b.Update(ffmpeg.Progress{Seconds: 30})
	b.Finish("✅", ffmpeg.Progress{Seconds: 59})

	out := buf.String()
	if !strings.HasPrefix(out, "\r🚀") || !strings.Contains(out, "\r✅") {
		t.Errorf("output = %q", out)
	}
	if !strings.HasSuffix(out, "\n") || !strings.Contains(out, "00:01:00/00:01:00") {
		t.Errorf("final line = %q", out)
	}
}
