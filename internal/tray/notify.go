package tray

import (
	"log/slog"

	"github.com/gen2brain/beeep"

	"github.com/fedoraxfce/deskbin/internal/flow"
)

// Notifier shows a desktop notification and beeps when recording starts
// or stops.
type Notifier struct {
	App string

	notify func(title, msg string) error
	beep   func() error
}

// NewNotifier returns a Notifier using beeep.
func NewNotifier(app string) *Notifier {
	return &Notifier{
		App:    app,
		notify: func(title, msg string) error { return beeep.Notify(title, msg, "") },
		beep:   func() error { return beeep.Beep(beeep.DefaultFreq, 120) },
	}
}

// SetState implements flow.Indicator.
func (n *Notifier) SetState(s flow.State) {
	var msg string
	switch s {
	case flow.Recording:
		msg = "Recording started"
	case flow.Processing:
		msg = "Recording finished"
	default:
		return
	}
	if err := n.beep(); err != nil {
		slog.Debug("Beep failed", "error", err)
	}
	if err := n.notify(n.App, msg); err != nil {
		slog.Debug("Notification failed", "error", err)
	}
}
