package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// WhisperOptions tunes each whisper.cpp run.
type WhisperOptions struct {
	Language string // "auto" or an ISO code; empty means auto
	Threads  int    // <= 0 uses every CPU
}

// WhisperTranscriber wraps a whisper.cpp model loaded once for the
// lifetime of the process.
type WhisperTranscriber struct {
	model whisper.Model
	opts  WhisperOptions
	mu    sync.Mutex
}

// NewWhisperTranscriber loads a whisper model from the given path.
// The caller must call Close() when done.
func NewWhisperTranscriber(modelPath string, opts WhisperOptions) (*WhisperTranscriber, error) {
	if modelPath == "" {
		return nil, errors.New("transcribe: empty whisper model path")
	}
	if opts.Language == "" {
		opts.Language = "auto"
	}
	if opts.Threads <= 0 {
		opts.Threads = runtime.NumCPU()
	}
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("transcribe: load whisper model %q: %w", modelPath, err)
	}
	return &WhisperTranscriber{model: model, opts: opts}, nil
}

// SetLanguage changes the language used by later calls.
func (t *WhisperTranscriber) SetLanguage(lang string) {
	t.mu.Lock()
	t.opts.Language = lang
	t.mu.Unlock()
}

// Close releases the whisper model resources.
func (t *WhisperTranscriber) Close() error {
	if t.model != nil {
		return t.model.Close()
	}
	return nil
}

// Process transcribes mono 16kHz float32 audio samples to text.
func (t *WhisperTranscriber) Process(ctx context.Context, samples []float32) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}

	// A model runs one context at a time.
	t.mu.Lock()
	defer t.mu.Unlock()

	wctx, err := t.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("transcribe: create context: %w", err)
	}
	if err := wctx.SetLanguage(t.opts.Language); err != nil {
		slog.Warn("whisper language not supported by model, using default", "language", t.opts.Language, "error", err)
	}
	wctx.SetThreads(uint(t.opts.Threads))

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("transcribe: process: %w", err)
	}

	var segments []string
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		seg, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("transcribe: next segment: %w", err)
		}
		if text := strings.TrimSpace(seg.Text); text != "" {
			segments = append(segments, text)
		}
	}

	return strings.TrimSpace(strings.Join(segments, " ")), nil
}
