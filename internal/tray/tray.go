// Package tray shows the SpeakFlow state as a system tray icon.
package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"math"
	"sync"

	"github.com/getlantern/systray"

	"github.com/fedoraxfce/deskbin/internal/flow"
)

// IconSize is the icon edge in pixels.
const IconSize = 64

var stateColors = map[flow.State]color.RGBA{
	flow.Idle:       {128, 128, 128, 255},
	flow.Recording:  {255, 0, 0, 255},
	flow.Processing: {255, 255, 0, 255},
}

// Icon renders the state as a filled circle with a black outline, encoded
// as PNG.
func Icon(s flow.State) []byte {
	fill, ok := stateColors[s]
	if !ok {
		fill = stateColors[flow.Idle]
	}

	const margin, outline = 8.0, 2.0
	img := image.NewRGBA(image.Rect(0, 0, IconSize, IconSize))
	c := IconSize / 2.0
	r := c - margin
	for y := 0; y < IconSize; y++ {
		for x := 0; x < IconSize; x++ {
			d := math.Hypot(float64(x)+0.5-c, float64(y)+0.5-c)
			switch {
			case d <= r-outline:
				img.SetRGBA(x, y, fill)
			case d <= r:
				img.SetRGBA(x, y, color.RGBA{0, 0, 0, 255})
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		slog.Error("Encode tray icon", "error", err)
		return nil
	}
	return buf.Bytes()
}

// Tray owns the systray icon. SetState may be called before Run; the
// latest state is applied once the tray is ready.
type Tray struct {
	name   string
	onQuit func()
	icons  map[flow.State][]byte

	mu    sync.Mutex
	ready bool
	state flow.State
}

// New prepares a tray. onQuit runs when the Quit item is clicked.
func New(name string, onQuit func()) *Tray {
	icons := make(map[flow.State][]byte, len(stateColors))
	for s := range stateColors {
		icons[s] = Icon(s)
	}
	return &Tray{name: name, onQuit: onQuit, icons: icons}
}

// Run shows the icon and blocks until Stop. Call it from the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() { slog.Debug("Tray stopped") })
}

func (t *Tray) onReady() {
	systray.SetTitle(t.name)
	title := systray.AddMenuItem(t.name, "")
	title.Disable()
	quit := systray.AddMenuItem("Quit", "Quit "+t.name)

	t.mu.Lock()
	t.ready = true
	t.apply(t.state)
	t.mu.Unlock()
	slog.Info("Starting system tray icon")

	go func() {
		<-quit.ClickedCh
		slog.Info("Quit selected from tray menu")
		if t.onQuit != nil {
			t.onQuit()
		}
	}()
}

// SetState implements flow.Indicator.
func (t *Tray) SetState(s flow.State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = s
	if t.ready {
		t.apply(s)
	}
}

func (t *Tray) apply(s flow.State) {
	systray.SetIcon(t.icons[s])
	systray.SetTooltip(t.name + ": " + s.String())
	slog.Debug("Tray icon updated", "state", s)
}

// Stop removes the icon and makes Run return.
func (t *Tray) Stop() {
	systray.Quit()
}
