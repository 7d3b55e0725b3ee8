// Package transcribe provides speech-to-text backends.
//
// Supported backends:
//   - whisper: whisper.cpp via Go bindings (default)
//   - openai: the OpenAI transcription API, optionally through a SOCKS5 proxy
//
// CLI drives the Python whisper command for batch jobs on media files.
package transcribe

import (
	"context"
	"fmt"

	"github.com/fedoraxfce/deskbin/internal/config"
)

// SampleRate is the rate every backend expects.
const SampleRate = 16000

// Transcriber converts audio samples to text.
type Transcriber interface {
	// Process transcribes mono 16kHz float32 audio samples to text.
	Process(ctx context.Context, samples []float32) (string, error)
	// Close releases backend resources.
	Close() error
}

// New creates a Transcriber based on the config backend setting.
func New(cfg *config.TranscribeConfig) (Transcriber, error) {
	switch cfg.Backend {
	case "openai":
		return NewOpenAITranscriber(OpenAIOptions{
			APIKey:   cfg.APIKey,
			Model:    cfg.OpenAIModel,
			Language: cfg.Language,
			Proxy:    cfg.Proxy,
		})
	case "whisper", "":
		return NewWhisperTranscriber(cfg.ModelPath, WhisperOptions{
			Language: cfg.Language,
			Threads:  cfg.Threads,
		})
	default:
		return nil, fmt.Errorf("transcribe: unknown backend %q (supported: whisper, openai)", cfg.Backend)
	}
}
