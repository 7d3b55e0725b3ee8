// Package inject puts transcribed text into the focused application, by
// clipboard paste, simulated typing or xdotool.
package inject

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-vgo/robotgo"

	"github.com/fedoraxfce/deskbin/internal/clipboard"
	"github.com/fedoraxfce/deskbin/internal/execx"
)

// Delays between clipboard writes and key events.
const (
	SettleDelay  = 100 * time.Millisecond
	RestoreDelay = 200 * time.Millisecond
)

// TextInjector delivers text to the active application.
type TextInjector interface {
	Inject(text string) error
}

// Keyboard simulates key events.
type Keyboard interface {
	Tap(key string, mods ...string) error
	Type(text string)
}

// Clipboard reads and writes the clipboard.
type Clipboard interface {
	Read() (string, error)
	Write(text string) error
}

// Options configures an Injector.
type Options struct {
	Method           string // "paste", "type" or "xdotool"
	TypingFallback   bool   // type the text when pasting fails
	RestoreClipboard bool   // put the previous clipboard back after pasting
}

// Injector handles typing or pasting text into the active application.
type Injector struct {
	opts   Options
	kb     Keyboard
	clip   Clipboard
	runner execx.Runner
	sleep  func(time.Duration)
}

var _ TextInjector = (*Injector)(nil)

// NewInjector creates an Injector backed by robotgo and the system clipboard.
func NewInjector(opts Options) *Injector {
	return &Injector{
		opts:   opts,
		kb:     robotKeyboard{},
		clip:   systemClipboard{},
		runner: &execx.Exec{},
		sleep:  time.Sleep,
	}
}

// Inject sends text to the active application using the configured method.
func (inj *Injector) Inject(text string) error {
	if text == "" {
		return nil
	}

	var err error
	switch inj.opts.Method {
	case "type":
		inj.kb.Type(text)
		return nil
	case "xdotool":
		err = inj.paste(text, inj.xdotoolPaste)
	default: // "paste"
		err = inj.paste(text, func() error { return inj.kb.Tap("v", "ctrl") })
	}

	if err != nil && inj.opts.TypingFallback {
		slog.Warn("Paste failed, typing instead", "error", err)
		inj.kb.Type(text)
		return nil
	}
	return err
}

// paste copies text, waits for the clipboard to settle, then runs keys.
func (inj *Injector) paste(text string, keys func() error) error {
	var prev string
	var havePrev bool
	if inj.opts.RestoreClipboard {
		if p, err := inj.clip.Read(); err == nil {
			prev, havePrev = p, true
		}
	}

	if err := inj.clip.Write(text); err != nil {
		return fmt.Errorf("inject: write clipboard: %w", err)
	}
	inj.sleep(SettleDelay)

	if err := keys(); err != nil {
		return fmt.Errorf("inject: paste: %w", err)
	}
	slog.Debug("Text pasted", "chars", len([]rune(text)))

	if havePrev {
		inj.sleep(RestoreDelay)
		if err := inj.clip.Write(prev); err != nil {
			slog.Warn("Could not restore clipboard", "error", err)
		}
	}
	return nil
}

func (inj *Injector) xdotoolPaste() error {
	_, err := inj.runner.Run(context.Background(), "xdotool", "key", "ctrl+v")
	return err
}

type robotKeyboard struct{}

func (robotKeyboard) Tap(key string, mods ...string) error {
	args := make([]interface{}, len(mods))
	for i, m := range mods {
		args[i] = m
	}
	return robotgo.KeyTap(key, args...)
}

func (robotKeyboard) Type(text string) {
	robotgo.Type(text)
}

// systemClipboard uses xclip/xsel through atotto and falls back to robotgo.
type systemClipboard struct{}

func (systemClipboard) Read() (string, error) {
	text, err := clipboard.Read()
	if err != nil {
		return robotgo.ReadAll()
	}
	return text, nil
}

func (systemClipboard) Write(text string) error {
	if err := clipboard.Copy(text); err != nil {
		if rerr := robotgo.WriteAll(text); rerr != nil {
			return fmt.Errorf("%w (robotgo: %v)", err, rerr)
		}
	}
	return nil
}

// Window focuses X11 windows with xdotool.
type Window struct {
	Runner execx.Runner
	sleep  func(time.Duration)
}

// NewWindow returns a Window using execx.Exec.
func NewWindow() *Window {
	return &Window{Runner: &execx.Exec{}, sleep: time.Sleep}
}

// Active returns the id of the focused window.
func (w *Window) Active(ctx context.Context) (string, error) {
	res, err := w.Runner.Run(ctx, "xdotool", "getactivewindow")
	if err != nil {
		return "", fmt.Errorf("inject: active window: %w", err)
	}
	id := strings.TrimSpace(res.Stdout)
	if id == "" {
		return "", fmt.Errorf("inject: active window: empty id")
	}
	return id, nil
}

// Focus activates the window and waits for it to take focus. Errors are
// logged, the caller pastes anyway.
func (w *Window) Focus(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if _, err := w.Runner.Run(ctx, "xdotool", "windowactivate", id); err != nil {
		slog.Warn("Could not focus window", "id", id, "error", err)
	}
	if w.sleep != nil {
		w.sleep(SettleDelay)
	}
}
