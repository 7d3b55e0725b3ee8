package flow

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"
)

type mockRecorder struct {
	samples  []float32
	startErr error
	starts   int
	stops    int
}

func (m *mockRecorder) Start() error { m.starts++; return m.startErr }
func (m *mockRecorder) Stop() []float32 {
	m.stops++
	return m.samples
}

type mockTranscriber struct {
	text  string
	err   error
	block chan struct{}
}

func (m *mockTranscriber) Process(context.Context, []float32) (string, error) {
	if m.block != nil {
		<-m.block
	}
	return m.text, m.err
}

type mockInjector struct {
	mu   sync.Mutex
	got  []string
	fail error
}

func (m *mockInjector) Inject(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.got = append(m.got, text)
	return m.fail
}

type recordingIndicator struct {
	mu     sync.Mutex
	states []State
}

func (r *recordingIndicator) SetState(s State) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func newTestFlow(rec *mockRecorder, tr *mockTranscriber) (*Flow, *mockInjector, *recordingIndicator) {
	inj := &mockInjector{}
	ind := &recordingIndicator{}
	f := New(Options{
		Recorder:    rec,
		Transcriber: tr,
		Injector:    inj,
		Indicator:   ind,
		SampleRate:  10,
		MinDuration: 0.3,
	})
	return f, inj, ind
}

func TestToggleFullCycle(t *testing.T) {
	rec := &mockRecorder{samples: make([]float32, 10)}
	f, inj, ind := newTestFlow(rec, &mockTranscriber{text: "hello"})

	if err := f.Toggle(); err != nil {
		t.Fatalf("first Toggle() error = %v", err)
	}
	if f.State() != Recording {
		t.Fatalf("State() = %v, want recording", f.State())
	}
	if err := f.Toggle(); err != nil {
		t.Fatalf("second Toggle() error = %v", err)
	}
	f.Wait()

	if f.State() != Idle {
		t.Errorf("State() = %v, want idle", f.State())
	}
	if !slices.Equal(inj.got, []string{"hello"}) {
		t.Errorf("injected = %v", inj.got)
	}
	if rec.starts != 1 || rec.stops != 1 {
		t.Errorf("starts = %d, stops = %d", rec.starts, rec.stops)
	}
	want := []State{Recording, Processing, Idle}
	if !slices.Equal(ind.states, want) {
		t.Errorf("indicator states = %v, want %v", ind.states, want)
	}
}

func TestToggleWhileProcessing(t *testing.T) {
	block := make(chan struct{})
	f, _, _ := newTestFlow(&mockRecorder{samples: make([]float32, 10)}, &mockTranscriber{text: "x", block: block})

	f.Toggle()
	f.Toggle()
	if err := f.Toggle(); !errors.Is(err, ErrBusy) {
		t.Errorf("Toggle() while processing error = %v, want ErrBusy", err)
	}
	close(block)
	f.Wait()
	if f.State() != Idle {
		t.Errorf("State() = %v, want idle", f.State())
	}
}

func TestStartFailureReturnsToIdle(t *testing.T) {
	f, _, ind := newTestFlow(&mockRecorder{startErr: errors.New("no mic")}, &mockTranscriber{})
	if err := f.Toggle(); err == nil {
		t.Fatal("Toggle() should report the start failure")
	}
	f.Wait()
	if f.State() != Idle {
		t.Errorf("State() = %v, want idle", f.State())
	}
	if !slices.Equal(ind.states, []State{Recording, Idle}) {
		t.Errorf("indicator states = %v", ind.states)
	}
}

func TestProcessingSkips(t *testing.T) {
	tests := []struct {
		name    string
		samples int
		tr      *mockTranscriber
	}{
		{"no audio", 0, &mockTranscriber{text: "x"}},
		{"too short", 2, &mockTranscriber{text: "x"}},
		{"empty text", 10, &mockTranscriber{text: ""}},
		{"transcribe error", 10, &mockTranscriber{err: errors.New("boom")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, inj, _ := newTestFlow(&mockRecorder{samples: make([]float32, tt.samples)}, tt.tr)
			f.Toggle()
			f.Toggle()
			f.Wait()
			if len(inj.got) != 0 {
				t.Errorf("injected %v, want nothing", inj.got)
			}
			if f.State() != Idle {
				t.Errorf("State() = %v, want idle", f.State())
			}
		})
	}
}

func TestInjectFailureReturnsToIdle(t *testing.T) {
	f, inj, _ := newTestFlow(&mockRecorder{samples: make([]float32, 10)}, &mockTranscriber{text: "x"})
	inj.fail = errors.New("no display")
	f.Toggle()
	f.Toggle()
	f.Wait()
	if f.State() != Idle {
		t.Errorf("State() = %v, want idle", f.State())
	}
}

func TestHoldMode(t *testing.T) {
	rec := &mockRecorder{samples: make([]float32, 10)}
	f, inj, _ := newTestFlow(rec, &mockTranscriber{text: "held"})

	f.Finish() // release without press is ignored
	if err := f.Begin(); err != nil {
		t.Fatal(err)
	}
	f.Begin() // key repeat
	f.Finish()
	f.Wait()

	if rec.starts != 1 || !slices.Equal(inj.got, []string{"held"}) {
		t.Errorf("starts = %d, injected = %v", rec.starts, inj.got)
	}
}

func TestShutdownStopsRecording(t *testing.T) {
	rec := &mockRecorder{samples: make([]float32, 10)}
	f, inj, _ := newTestFlow(rec, &mockTranscriber{text: "x"})
	f.Toggle()
	f.Shutdown()
	f.Wait()

	if rec.stops != 1 || f.State() != Idle || len(inj.got) != 0 {
		t.Errorf("stops = %d, state = %v, injected = %v", rec.stops, f.State(), inj.got)
	}
	f.Shutdown() // idle: no-op
	if rec.stops != 1 {
		t.Errorf("Shutdown() while idle stopped the recorder")
	}
}

type slowIndicator struct {
	release chan struct{}
}

func (s *slowIndicator) SetState(State) { <-s.release }

func TestSlowIndicatorDoesNotBlockToggle(t *testing.T) {
	ind := &slowIndicator{release: make(chan struct{})}
	f := New(Options{
		Recorder:    &mockRecorder{samples: make([]float32, 10)},
		Transcriber: &mockTranscriber{text: "x"},
		Injector:    &mockInjector{},
		Indicator:   ind,
		SampleRate:  10,
	})

	done := make(chan struct{})
	go func() {
		f.Toggle()
		f.Toggle()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Toggle() waited for the indicator")
	}
	close(ind.release)
	f.Wait()
	if f.State() != Idle {
		t.Errorf("State() = %v, want idle", f.State())
	}
}

func TestIndicators(t *testing.T) {
	a, b := &recordingIndicator{}, &recordingIndicator{}
	Indicators{a, b}.SetState(Processing)
	if len(a.states) != 1 || len(b.states) != 1 {
		t.Errorf("fan-out = %v, %v", a.states, b.states)
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{Idle: "idle", Recording: "recording", Processing: "processing"} {
		if s.String() != want {
			t.Errorf("%d.String() = %q", s, s.String())
		}
	}
}
