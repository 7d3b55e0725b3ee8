package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/net/proxy"

	"github.com/fedoraxfce/deskbin/internal/audio"
)

// OpenAIOptions configures the OpenAI backend.
type OpenAIOptions struct {
	APIKey   string
	Model    string // default whisper-1
	Language string // "auto" or empty lets the API detect it
	Proxy    string // optional SOCKS5 host:port
	BaseURL  string // overrides the API endpoint
}

// OpenAITranscriber sends recordings to the OpenAI transcription API.
type OpenAITranscriber struct {
	client openai.Client
	opts   OpenAIOptions
}

// NewOpenAITranscriber creates the API client.
func NewOpenAITranscriber(opts OpenAIOptions) (*OpenAITranscriber, error) {
	if opts.APIKey == "" {
		return nil, errors.New("transcribe: OPENAI_API_KEY is not set")
	}
	if opts.Model == "" {
		opts.Model = "whisper-1"
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.Proxy != "" {
		hc, err := NewSocksClient(opts.Proxy)
		if err != nil {
			return nil, err
		}
		reqOpts = append(reqOpts, option.WithHTTPClient(hc))
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &OpenAITranscriber{client: openai.NewClient(reqOpts...), opts: opts}, nil
}

// NewSocksClient returns an HTTP client that dials through a SOCKS5 proxy.
func NewSocksClient(addr string) (*http.Client, error) {
	dialer, err := proxy.SOCKS5("tcp", addr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("transcribe: socks5 proxy %s: %w", addr, err)
	}
	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		},
	}
	return &http.Client{Transport: transport, Timeout: 120 * time.Second}, nil
}

// Close is a no-op.
func (t *OpenAITranscriber) Close() error { return nil }

// Process uploads the samples as a WAV file and returns the text.
func (t *OpenAITranscriber) Process(ctx context.Context, samples []float32) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}
	data, err := audio.WAVBytes(samples, SampleRate, 1)
	if err != nil {
		return "", err
	}

	params := openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(t.opts.Model),
		File:  openai.File(bytes.NewReader(data), "speech.wav", "audio/wav"),
	}
	if lang := t.opts.Language; lang != "" && lang != "auto" {
		params.Language = openai.String(lang)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("transcribe: openai request: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
