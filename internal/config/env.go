package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by the tools.
const (
	EnvBotToken      = "BOT_TOKEN"
	EnvTelegramID    = "TELEGRAM_ID"
	EnvObsidianPath  = "OBSIDIAN_PATH"
	EnvObsidianInbox = "OBSIDIAN_INBOX"
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvProxy         = "SPEAKFLOW_PROXY"
)

// DefaultEnvPath returns ~/.env.
func DefaultEnvPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".env"
	}
	return filepath.Join(home, ".env")
}

// LoadEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set win. A missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		path = DefaultEnvPath()
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv copies environment overrides into the config.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvOpenAIKey); v != "" {
		c.Transcribe.APIKey = v
	}
	if v := os.Getenv(EnvProxy); v != "" && c.Transcribe.Proxy == "" {
		c.Transcribe.Proxy = v
	}
	for key, dst := range map[string]*string{
		"FFMPEG":  &c.Tools.FFmpeg,
		"FFPROBE": &c.Tools.FFprobe,
		"YTDLP":   &c.Tools.YtDlp,
		"WHISPER": &c.Tools.Whisper,
	} {
		if v := os.Getenv(key); v != "" {
			*dst = expandTilde(v)
		}
	}
}

// LoadTools returns the external tool locations for the media commands.
// ~/.env and the config file are read when present. The returned error
// describes files that could not be read; the tools are usable regardless.
func LoadTools() (ToolsConfig, error) {
	envErr := LoadEnv("")
	cfg, _, err := LoadDefault()
	if err != nil {
		cfg = Default()
	}
	cfg.ApplyEnv()
	return cfg.Tools, errors.Join(envErr, err)
}

// Require returns the value of key or an error naming the missing variable.
func Require(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("%s is not set (add it to %s)", key, DefaultEnvPath())
	}
	return v, nil
}

// RequireInt64 is Require for numeric ids such as TELEGRAM_ID.
func RequireInt64(key string) (int64, error) {
	v, err := Require(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}
