package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fedoraxfce/deskbin/internal/execx"
)

// Config holds the settings shared by the voice tools.
type Config struct {
	Transcribe TranscribeConfig `yaml:"transcribe"`
	Hotkey     HotkeyConfig     `yaml:"hotkey"`
	Audio      AudioConfig      `yaml:"audio"`
	Inject     InjectConfig     `yaml:"inject"`
	Tools      ToolsConfig      `yaml:"tools"`
	Notify     bool             `yaml:"notify"`
	LogLevel   string           `yaml:"log_level"`
}

// TranscribeConfig selects and tunes the speech-to-text backend.
type TranscribeConfig struct {
	Backend     string `yaml:"backend"` // "whisper" or "openai"
	Model       string `yaml:"model"`   // tiny, base, small, medium, large, turbo
	ModelPath   string `yaml:"model_path"`
	Language    string `yaml:"language"` // "auto" or an ISO code
	Threads     int    `yaml:"threads"`
	OpenAIModel string `yaml:"openai_model"`
	Proxy       string `yaml:"proxy"` // SOCKS5 host:port for the openai backend

	// APIKey comes from OPENAI_API_KEY, never from the file.
	APIKey string `yaml:"-"`
}

// HotkeyConfig holds hotkey-related settings.
type HotkeyConfig struct {
	Combo string `yaml:"combo"`
	Mode  string `yaml:"mode"` // "hold" or "toggle"
}

// AudioConfig holds audio capture settings.
type AudioConfig struct {
	SampleRate  uint32  `yaml:"sample_rate"`
	Channels    uint32  `yaml:"channels"`
	MinDuration float64 `yaml:"min_duration"` // seconds; shorter recordings are dropped
}

// InjectConfig holds text injection settings.
type InjectConfig struct {
	Method           string `yaml:"method"` // "paste", "type" or "xdotool"
	TypingFallback   bool   `yaml:"typing_fallback"`
	RestoreClipboard bool   `yaml:"restore_clipboard"`
}

// ToolsConfig overrides external binary locations. Empty means auto-detect.
type ToolsConfig struct {
	FFmpeg  string `yaml:"ffmpeg"`
	FFprobe string `yaml:"ffprobe"`
	YtDlp   string `yaml:"ytdlp"`
	Whisper string `yaml:"whisper"`
}

var modelFiles = map[string]string{
	"tiny":   "ggml-tiny.bin",
	"base":   "ggml-base.bin",
	"small":  "ggml-small.bin",
	"medium": "ggml-medium.bin",
	"large":  "ggml-large-v3.bin",
	"turbo":  "ggml-large-v3-turbo.bin",
}

// ModelNames lists the model shorthands accepted by the voice tools.
var ModelNames = []string{"tiny", "base", "small", "medium", "large", "turbo"}

// ModelFile returns the ggml file name for a model shorthand. Other names
// such as "base.en" map to ggml-<name>.bin.
func ModelFile(name string) string {
	if f, ok := modelFiles[name]; ok {
		return f
	}
	return "ggml-" + name + ".bin"
}

// ModelPath returns the default location of the named model.
func ModelPath(name string) string {
	return filepath.Join(DefaultModelsDir(), ModelFile(name))
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "speakflow")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultModelsDir returns where downloaded ggml models live.
func DefaultModelsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "speakflow", "models")
}

func defaults() *Config {
	return &Config{
		Transcribe: TranscribeConfig{
			Backend:     "whisper",
			Model:       "base",
			Language:    "auto",
			OpenAIModel: "whisper-1",
		},
		Hotkey: HotkeyConfig{
			Combo: "<ctrl>+<space>",
			Mode:  "toggle",
		},
		Audio: AudioConfig{
			SampleRate:  16000,
			Channels:    1,
			MinDuration: 0.3,
		},
		Inject: InjectConfig{
			Method:         "paste",
			TypingFallback: true,
		},
		LogLevel: "info",
	}
}

// Default returns a Config with sensible default values.
func Default() *Config {
	cfg := defaults()
	cfg.resolve()
	return cfg
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in paths is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.resolve()

	return cfg, nil
}

// LoadDefault loads the file at DefaultConfigPath, or returns defaults
// when it does not exist. The second value is the path that was read.
func LoadDefault() (*Config, string, error) {
	path := DefaultConfigPath()
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("loading %s: %w", path, err)
	}
	return cfg, path, nil
}

func (c *Config) resolve() {
	c.Transcribe.ModelPath = expandTilde(c.Transcribe.ModelPath)
	if c.Transcribe.ModelPath == "" && c.Transcribe.Model != "" {
		c.Transcribe.ModelPath = ModelPath(c.Transcribe.Model)
	}
	c.Tools.FFmpeg = expandTilde(c.Tools.FFmpeg)
	c.Tools.FFprobe = expandTilde(c.Tools.FFprobe)
	c.Tools.YtDlp = expandTilde(c.Tools.YtDlp)
	c.Tools.Whisper = expandTilde(c.Tools.Whisper)
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	switch c.Transcribe.Backend {
	case "whisper":
		if c.Transcribe.ModelPath == "" {
			return fmt.Errorf("transcribe.model_path must not be empty for whisper backend")
		}
	case "openai":
		if c.Transcribe.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY must be set for openai backend")
		}
	default:
		return fmt.Errorf("transcribe.backend must be \"whisper\" or \"openai\", got %q", c.Transcribe.Backend)
	}

	if c.Transcribe.Threads < 0 {
		return fmt.Errorf("transcribe.threads must be >= 0")
	}

	if strings.TrimSpace(c.Hotkey.Combo) == "" {
		return fmt.Errorf("hotkey.combo must not be empty")
	}

	switch c.Hotkey.Mode {
	case "hold", "toggle":
	default:
		return fmt.Errorf("hotkey.mode must be \"hold\" or \"toggle\", got %q", c.Hotkey.Mode)
	}

	if c.Audio.SampleRate == 0 {
		return fmt.Errorf("audio.sample_rate must be > 0")
	}

	if c.Audio.Channels == 0 {
		return fmt.Errorf("audio.channels must be > 0")
	}

	if c.Audio.MinDuration < 0 {
		return fmt.Errorf("audio.min_duration must be >= 0")
	}

	switch c.Inject.Method {
	case "paste", "type", "xdotool":
	default:
		return fmt.Errorf("inject.method must be \"paste\", \"type\" or \"xdotool\", got %q", c.Inject.Method)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// FFmpegPath returns the configured ffmpeg, the ~/apps/ffmpeg build when
// present, or plain "ffmpeg".
func (t ToolsConfig) FFmpegPath() string {
	return pick(t.FFmpeg, "~/apps/ffmpeg/ffmpeg", "ffmpeg")
}

// FFprobePath mirrors FFmpegPath for ffprobe.
func (t ToolsConfig) FFprobePath() string {
	return pick(t.FFprobe, "~/apps/ffmpeg/ffprobe", "ffprobe")
}

// YtDlpPath returns the yt-dlp binary to run.
func (t ToolsConfig) YtDlpPath() string {
	return pick(t.YtDlp, "~/.local/bin/yt-dlp", "yt-dlp")
}

// WhisperPath returns the openai-whisper CLI to run.
func (t ToolsConfig) WhisperPath() string {
	return pick(t.Whisper, "~/.local/bin/whisper", "whisper")
}

func pick(configured, preferred, fallback string) string {
	if configured != "" {
		return configured
	}
	if p := execx.LookPath(preferred); p != "" {
		return p
	}
	return fallback
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	return execx.ExpandHome(path)
}
