// Package screenshot captures a user-selected screen region to a PNG.
package screenshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fedoraxfce/deskbin/internal/execx"
)

// Timeout bounds the interactive selection.
const Timeout = 120 * time.Second

// ErrNotSaved is returned when the capture tool exits without writing a file.
var ErrNotSaved = errors.New("screenshot not saved")

// Capturer picks a capture tool for the current session.
type Capturer struct {
	Runner execx.Runner
	// Getenv and LookPath default to os.Getenv and execx.LookPath.
	Getenv   func(string) string
	LookPath func(...string) string
}

// New returns a Capturer using the real environment.
func New() *Capturer {
	return &Capturer{Runner: &execx.Exec{}, Getenv: os.Getenv, LookPath: execx.LookPath}
}

// IsWayland reports whether the session is Wayland.
func (c *Capturer) IsWayland() bool {
	return strings.EqualFold(c.Getenv("XDG_SESSION_TYPE"), "wayland")
}

// Region lets the user select an area and saves it to path, replacing any
// previous image.
func (c *Capturer) Region(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Could not remove previous image", "path", path, "error", err)
	}

	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	slog.Info("Selecting screenshot region...")
	if err := c.capture(ctx, path); err != nil {
		return err
	}

	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		return fmt.Errorf("screenshot: %s: %w", path, ErrNotSaved)
	}
	return nil
}

func (c *Capturer) capture(ctx context.Context, path string) error {
	if c.IsWayland() {
		if bin := c.LookPath("gnome-screenshot"); bin != "" {
			return c.run(ctx, bin, "-a", "-f", path)
		}
		slurp, grim := c.LookPath("slurp"), c.LookPath("grim")
		if slurp != "" && grim != "" {
			res, err := c.Runner.Run(ctx, slurp)
			if err != nil {
				return fmt.Errorf("screenshot: select region: %w", err)
			}
			geom := strings.TrimSpace(res.Stdout)
			if geom == "" {
				return fmt.Errorf("screenshot: selection cancelled")
			}
			return c.run(ctx, grim, "-g", geom, path)
		}
		return errors.New("screenshot: Wayland session detected but neither gnome-screenshot nor grim+slurp found\n" +
			"Install with: sudo dnf install gnome-screenshot  (or grim slurp)")
	}

	if bin := c.LookPath("xfce4-screenshooter"); bin != "" {
		return c.run(ctx, bin, "--region", "--save", path)
	}
	return errors.New("screenshot: X11 session detected but xfce4-screenshooter not found\n" +
		"Install with: sudo dnf install xfce4-screenshooter")
}

func (c *Capturer) run(ctx context.Context, name string, args ...string) error {
	if _, err := c.Runner.Run(ctx, name, args...); err != nil {
		return fmt.Errorf("screenshot: %s: %w", name, err)
	}
	return nil
}
