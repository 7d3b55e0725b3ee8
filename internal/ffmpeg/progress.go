package ffmpeg

import (
	"strconv"
	"strings"
)

// Progress is one snapshot of `-progress` output.
type Progress struct {
	Seconds float64 // encoded media time
	FPS     string
	Speed   string // e.g. "1.53x"
	Done    bool
}

// ProgressParser accumulates key=value lines until a `progress=` line
// closes a block.
type ProgressParser struct {
	cur Progress
}

// Feed consumes one line. It returns a snapshot when the line ends a block.
func (p *ProgressParser) Feed(line string) (Progress, bool) {
	key, val, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return Progress{}, false
	}
	val = strings.TrimSpace(val)

	switch key {
	case "out_time_ms", "out_time_us":
		// Both keys carry microseconds.
		if us, err := strconv.ParseFloat(val, 64); err == nil && us >= 0 {
			p.cur.Seconds = us / 1e6
		}
	case "fps":
		p.cur.FPS = val
	case "speed":
		p.cur.Speed = val
	case "progress":
		p.cur.Done = val == "end"
		return p.cur, true
	}
	return Progress{}, false
}

// SpeedFactor parses a speed like "1.5x". ok is false for "N/A" and zero.
func (p Progress) SpeedFactor() (float64, bool) {
	s := strings.TrimSpace(p.Speed)
	if !strings.HasSuffix(s, "x") {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "x")), 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}
