package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetupWritesToExtraSink(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	logger := Setup("warn", &buf)

	logger.Info("hidden")
	logger.Warn("screenshot sent", "chat", 42)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered at warn level, got %q", out)
	}
	if !strings.Contains(out, "screenshot sent") || !strings.Contains(out, "chat=42") {
		t.Errorf("extra sink missing warn record, got %q", out)
	}
}

func TestSetupWithAttrsReachesAllSinks(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var a, b bytes.Buffer
	logger := Setup("debug", &a, &b).With("tool", "tgsnap")
	logger.Debug("start")

	for i, buf := range []*bytes.Buffer{&a, &b} {
		if !strings.Contains(buf.String(), "tool=tgsnap") {
			t.Errorf("sink %d = %q, want tool attr", i, buf.String())
		}
	}
}

func TestOpenFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	f, err := OpenFile("telegram_screenshot")
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()

	want := filepath.Join(home, "tmp", "telegram_screenshot.log")
	if f.Name() != want {
		t.Errorf("OpenFile() path = %q, want %q", f.Name(), want)
	}
	if _, err := f.WriteString("line\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}
