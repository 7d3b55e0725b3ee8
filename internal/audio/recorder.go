// Package audio captures microphone input and handles PCM samples.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

var (
	// ErrAlreadyRecording is returned by Start while a capture is running.
	ErrAlreadyRecording = errors.New("audio: already recording")
	// ErrNotRecording is returned by Drain when no capture is running.
	ErrNotRecording = errors.New("audio: not recording")
	// ErrNoAudio is returned when a capture produced no samples.
	ErrNoAudio = errors.New("audio: no audio recorded")
)

// Recorder captures float32 samples from the default microphone.
type Recorder struct {
	ctx        *malgo.AllocatedContext
	device     *malgo.Device
	sampleRate uint32
	channels   uint32

	mu        sync.Mutex
	buf       []float32
	recording bool
}

// NewRecorder initializes the audio backend. Call Close when done.
func NewRecorder(sampleRate, channels uint32) (*Recorder, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("audio: init context: %w", err)
	}
	return &Recorder{ctx: ctx, sampleRate: sampleRate, channels: channels}, nil
}

// SampleRate returns the capture rate in Hz.
func (r *Recorder) SampleRate() int { return int(r.sampleRate) }

// Start opens the capture device and begins buffering samples.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return ErrAlreadyRecording
	}
	r.buf = r.buf[:0]
	r.recording = true
	r.mu.Unlock()

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = r.channels
	cfg.SampleRate = r.sampleRate

	device, err := malgo.InitDevice(r.ctx.Context, cfg, malgo.DeviceCallbacks{Data: r.onData})
	if err != nil {
		r.setRecording(false)
		return fmt.Errorf("audio: init capture device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		r.setRecording(false)
		return fmt.Errorf("audio: start capture device: %w", err)
	}

	r.mu.Lock()
	r.device = device
	r.mu.Unlock()
	return nil
}

func (r *Recorder) setRecording(v bool) {
	r.mu.Lock()
	r.recording = v
	r.mu.Unlock()
}

// Stop closes the device and returns everything captured since Start. It
// returns nil when not recording.
func (r *Recorder) Stop() []float32 {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return nil
	}
	r.recording = false
	device := r.device
	r.device = nil
	out := make([]float32, len(r.buf))
	copy(out, r.buf)
	r.mu.Unlock()

	// Uninit waits for the data callback, which takes r.mu.
	if device != nil {
		device.Uninit()
	}
	return out
}

// Drain returns the samples buffered since the last Drain and keeps
// recording. Used for continuous capture.
func (r *Recorder) Drain() ([]float32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return nil, ErrNotRecording
	}
	out := make([]float32, len(r.buf))
	copy(out, r.buf)
	r.buf = r.buf[:0]
	return out, nil
}

// IsRecording reports whether a capture is running.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Close stops any capture and releases the audio backend.
func (r *Recorder) Close() error {
	r.mu.Lock()
	device := r.device
	r.device = nil
	r.recording = false
	r.mu.Unlock()

	if device != nil {
		device.Uninit()
	}
	if r.ctx != nil {
		if err := r.ctx.Uninit(); err != nil {
			return fmt.Errorf("audio: uninit context: %w", err)
		}
		r.ctx.Free()
		r.ctx = nil
	}
	return nil
}

func (r *Recorder) onData(_, input []byte, frameCount uint32) {
	samples := decodeF32(input, int(frameCount*r.channels))

	r.mu.Lock()
	if r.recording {
		r.buf = append(r.buf, samples...)
	}
	r.mu.Unlock()
}

// decodeF32 converts little-endian float32 bytes to samples.
func decodeF32(data []byte, n int) []float32 {
	if avail := len(data) / 4; n > avail {
		n = avail
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}

// Duration returns the length in seconds of mono samples at rate Hz.
func Duration(samples []float32, rate int) float64 {
	if rate <= 0 {
		return 0
	}
	return float64(len(samples)) / float64(rate)
}
