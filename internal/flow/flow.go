// Package flow is the idle/recording/processing latch behind the SpeakFlow
// hotkey: record on the first press, transcribe and paste on the second.
package flow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrBusy is returned when the hotkey is pressed while processing.
var ErrBusy = errors.New("flow: still processing previous recording")

// State is the latch position.
type State int

const (
	Idle State = iota
	Recording
	Processing
)

func (s State) String() string {
	switch s {
	case Recording:
		return "recording"
	case Processing:
		return "processing"
	default:
		return "idle"
	}
}

// Recorder captures audio.
type Recorder interface {
	Start() error
	Stop() []float32
}

// Transcriber turns samples into text.
type Transcriber interface {
	Process(ctx context.Context, samples []float32) (string, error)
}

// Injector delivers text to the focused window.
type Injector interface {
	Inject(text string) error
}

// Indicator shows the current state, e.g. a tray icon.
type Indicator interface {
	SetState(State)
}

// Indicators fans a state out to several indicators.
type Indicators []Indicator

// SetState implements Indicator.
func (is Indicators) SetState(s State) {
	for _, i := range is {
		i.SetState(s)
	}
}

// Options wires a Flow.
type Options struct {
	Recorder    Recorder
	Transcriber Transcriber
	Injector    Injector
	Indicator   Indicator // optional
	SampleRate  int
	MinDuration float64 // seconds
}

// Flow is safe for concurrent use.
type Flow struct {
	opts Options

	mu    sync.Mutex
	state State
	wg    sync.WaitGroup

	// Indicator updates run on their own goroutine, in order, so a slow
	// notifier never holds mu.
	shown   chan State
	pending sync.WaitGroup
}

// New returns an idle Flow.
func New(opts Options) *Flow {
	if opts.SampleRate <= 0 {
		opts.SampleRate = 16000
	}
	f := &Flow{opts: opts}
	if opts.Indicator != nil {
		f.shown = make(chan State, 16)
		go f.indicate()
	}
	return f
}

func (f *Flow) indicate() {
	for s := range f.shown {
		f.opts.Indicator.SetState(s)
		f.pending.Done()
	}
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// setState must be called with f.mu held.
func (f *Flow) setState(s State) {
	f.state = s
	if f.shown == nil {
		return
	}
	f.pending.Add(1)
	select {
	case f.shown <- s:
	default:
		f.pending.Done()
		slog.Debug("Indicator is behind, dropping state", "state", s)
	}
}

// Toggle advances the latch: idle starts recording, recording starts
// processing, processing is rejected with ErrBusy.
func (f *Flow) Toggle() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case Idle:
		return f.begin()
	case Recording:
		f.finish()
		return nil
	default:
		slog.Warn("Hotkey pressed while processing, ignoring")
		return ErrBusy
	}
}

// Begin starts recording if idle. Used by hold mode on key down.
func (f *Flow) Begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Idle {
		return nil
	}
	return f.begin()
}

// Finish starts processing if recording. Used by hold mode on key up.
func (f *Flow) Finish() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Recording {
		f.finish()
	}
}

func (f *Flow) begin() error {
	slog.Info("Starting recording")
	f.setState(Recording)
	if err := f.opts.Recorder.Start(); err != nil {
		slog.Error("Failed to start recording", "error", err)
		f.setState(Idle)
		return err
	}
	return nil
}

func (f *Flow) finish() {
	slog.Info("Stopping recording")
	f.setState(Processing)
	f.wg.Add(1)
	go f.process()
}

// process owns the recorder stop and always returns the latch to idle.
func (f *Flow) process() {
	defer f.wg.Done()
	defer func() {
		f.mu.Lock()
		f.setState(Idle)
		f.mu.Unlock()
	}()

	samples := f.opts.Recorder.Stop()
	duration := float64(len(samples)) / float64(f.opts.SampleRate)
	if len(samples) == 0 {
		slog.Error("No audio recorded")
		return
	}
	if duration < f.opts.MinDuration {
		slog.Info("Recording too short, skipping", "duration", duration)
		return
	}

	slog.Info("Transcribing", "duration", duration)
	start := time.Now()
	text, err := f.opts.Transcriber.Process(context.Background(), samples)
	if err != nil {
		slog.Error("Transcription failed", "error", err)
		return
	}
	elapsed := time.Since(start).Round(time.Millisecond)
	if text == "" {
		slog.Warn("No text transcribed", "elapsed", elapsed)
		return
	}

	slog.Info("Transcribed", "elapsed", elapsed, "text", text)
	if err := f.opts.Injector.Inject(text); err != nil {
		slog.Error("Text injection failed", "error", err)
		return
	}
	slog.Info("Processing complete")
}

// Shutdown stops an active recording and discards it.
func (f *Flow) Shutdown() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Recording {
		f.opts.Recorder.Stop()
		f.setState(Idle)
	}
}

// Wait blocks until background processing finishes and the indicator has
// shown every state.
func (f *Flow) Wait() {
	f.wg.Wait()
	f.pending.Wait()
}
