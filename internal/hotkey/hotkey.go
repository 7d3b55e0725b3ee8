// Package hotkey provides a global hotkey listener using gohook.
// It supports "hold" mode (press to start, release to stop) and
// "toggle" mode (press to start, press again to stop).
package hotkey

import (
	"fmt"
	"strings"
	"sync"

	hook "github.com/robotn/gohook"
)

// Modes accepted by NewListener.
const (
	ModeHold   = "hold"
	ModeToggle = "toggle"
)

// EventType indicates whether recording should start or stop.
type EventType int

const (
	// EventStart signals that the hotkey was activated.
	EventStart EventType = iota
	// EventStop signals that the hotkey was deactivated.
	EventStop
)

func (t EventType) String() string {
	if t == EventStart {
		return "start"
	}
	return "stop"
}

// Event is emitted on the channel returned by Events.
type Event struct {
	Type EventType
}

var keyAliases = map[string]string{
	"control": "ctrl",
	"ctrl_l":  "ctrl",
	"ctrl_r":  "ctrl",
	"alt_l":   "alt",
	"alt_r":   "alt",
	"option":  "alt",
	"shift_l": "shift",
	"shift_r": "shift",
	"super":   "cmd",
	"win":     "cmd",
	"meta":    "cmd",
	"return":  "enter",
	"escape":  "esc",
}

// ParseCombo turns "<ctrl>+<space>" or "ctrl+space" into gohook key
// names.
func ParseCombo(combo string) ([]string, error) {
	combo = strings.TrimSpace(combo)
	if combo == "" {
		return nil, fmt.Errorf("hotkey: empty combo")
	}
	var keys []string
	for _, part := range strings.Split(combo, "+") {
		k := strings.ToLower(strings.TrimSpace(part))
		k = strings.TrimSuffix(strings.TrimPrefix(k, "<"), ">")
		if k == "" {
			return nil, fmt.Errorf("hotkey: invalid combo %q", combo)
		}
		if alias, ok := keyAliases[k]; ok {
			k = alias
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Listener manages a global hotkey and emits start/stop events.
type Listener struct {
	keys []string
	mode string
	ch   chan Event
	done chan struct{}
	once sync.Once

	mu     sync.Mutex
	active bool // toggle mode: a start was emitted without a stop
}

// NewListener creates a Listener for the given keys. Any mode other than
// "hold" means toggle.
func NewListener(keys []string, mode string) *Listener {
	return &Listener{
		keys: keys,
		mode: mode,
		ch:   make(chan Event, 16),
		done: make(chan struct{}),
	}
}

// Events returns the channel that receives hotkey events.
// The channel is closed when Stop is called.
func (l *Listener) Events() <-chan Event {
	return l.ch
}

// Start listens for the hotkey. It blocks until Stop is called, so run it
// in a goroutine.
func (l *Listener) Start() {
	if l.mode == ModeHold {
		hook.Register(hook.KeyDown, l.keys, func(hook.Event) { l.emit(EventStart) })
		hook.Register(hook.KeyUp, l.keys, func(hook.Event) { l.emit(EventStop) })
	} else {
		hook.Register(hook.KeyDown, l.keys, func(hook.Event) { l.emit(l.toggle()) })
	}

	evChan := hook.Start()
	go func() {
		<-l.done
		hook.End()
	}()
	<-hook.Process(evChan)
	close(l.ch)
}

// toggle flips the toggle state and returns the event to emit.
func (l *Listener) toggle() EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = !l.active
	if l.active {
		return EventStart
	}
	return EventStop
}

func (l *Listener) emit(t EventType) {
	select {
	case l.ch <- Event{Type: t}:
	default: // don't block the hook thread
	}
}

// Stop terminates the hotkey listener.
// It is safe to call multiple times.
func (l *Listener) Stop() {
	l.once.Do(func() {
		close(l.done)
	})
}
