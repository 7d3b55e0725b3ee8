// Package progress draws single-line terminal progress bars for ffmpeg jobs.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/fedoraxfce/deskbin/internal/ffmpeg"
)

// BarWidth is the number of cells in the bar.
const BarWidth = 32

// HumanTime formats seconds as HH:MM:SS. Negative values clamp to zero.
func HumanTime(sec float64) string {
	s := int(sec)
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

// Render builds one progress line. total <= 0 draws an indeterminate bar.
// The result is cut to width runes when width > 0.
func Render(prefix string, p ffmpeg.Progress, total float64, width int) string {
	var prog string
	if total > 0 {
		ratio := p.Seconds / total
		if ratio > 1 {
			ratio = 1
		}
		if ratio < 0 {
			ratio = 0
		}
		done := int(ratio * BarWidth)
		bar := strings.Repeat("█", done) + strings.Repeat("░", BarWidth-done)

		prog = fmt.Sprintf("[%s] %5.1f%%  %s/%s", bar, ratio*100, HumanTime(p.Seconds), HumanTime(total))
		if p.FPS != "" {
			prog += "  FPS " + p.FPS
		}
		if p.Speed != "" {
			prog += "  " + p.Speed
			if f, ok := p.SpeedFactor(); ok {
				prog += "  ETA " + HumanTime((total-p.Seconds)/f)
			}
		}
	} else {
		dots := int(time.Now().UnixMilli()/250) % BarWidth
		bar := ">" + strings.Repeat(".", dots) + strings.Repeat(" ", BarWidth-dots-1)
		prog = fmt.Sprintf("[%s]  %s  FPS %s  %s", bar, HumanTime(p.Seconds), orDash(p.FPS), orDash(p.Speed))
	}

	line := prefix + " " + prog
	if width > 0 {
		if r := []rune(line); len(r) > width {
			line = string(r[:width-1])
		}
	}
	return line
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// TerminalWidth returns the width of stdout, or 100 when unknown.
func TerminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 100
}

// Bar redraws a progress line in place on W.
type Bar struct {
	W      io.Writer
	Prefix string
	Total  float64
	Width  int
}

// NewBar returns a Bar on stdout sized to the terminal.
func NewBar(prefix string, total float64) *Bar {
	return &Bar{W: os.Stdout, Prefix: prefix, Total: total, Width: TerminalWidth()}
}

// Update draws p.
func (b *Bar) Update(p ffmpeg.Progress) {
	fmt.Fprint(b.W, "\r"+Render(b.Prefix, p, b.Total, b.Width))
}

// Finish draws the final line with prefix and ends it.
func (b *Bar) Finish(prefix string, p ffmpeg.Progress) {
	if b.Total > 0 {
		p.Seconds = b.Total
	}
	fmt.Fprintln(b.W, "\r"+Render(prefix, p, b.Total, b.Width))
}
