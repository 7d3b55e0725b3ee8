package config

import (
	"fmt"
	"os"
)

const defaultConfigYAML = `# speakflow configuration
# Voice tools (speakflow, mic, micnote, listen) read this file.
# Secrets live in ~/.env: OPENAI_API_KEY, SPEAKFLOW_PROXY, BOT_TOKEN, TELEGRAM_ID.

transcribe:
  # whisper (local whisper.cpp model) or openai (whisper-1 over the API)
  backend: whisper
  # tiny, base, small, medium, large, turbo
  model: base
  # model_path overrides the file derived from model
  # model_path: ~/.local/share/speakflow/models/ggml-base.bin
  language: auto
  # 0 uses every CPU
  threads: 0
  openai_model: whisper-1
  # proxy: 127.0.0.1:1080

hotkey:
  combo: "<ctrl>+<space>"
  # toggle: press to start, press again to stop; hold: record while held
  mode: toggle

audio:
  sample_rate: 16000
  channels: 1
  min_duration: 0.3

inject:
  # paste (clipboard + Ctrl+V), type (synthetic keystrokes), xdotool
  method: paste
  typing_fallback: true
  restore_clipboard: false

# tools:
#   ffmpeg: ~/apps/ffmpeg/ffmpeg
#   ffprobe: ~/apps/ffmpeg/ffprobe
#   ytdlp: yt-dlp
#   whisper: whisper

notify: false
log_level: info
`

// WriteDefault writes a commented default config to DefaultConfigPath.
// It returns the written path, or "" when a file already exists.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}

	if err := os.MkdirAll(DefaultConfigDir(), 0o755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return "", fmt.Errorf("writing default config: %w", err)
	}
	return path, nil
}
