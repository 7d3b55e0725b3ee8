package audio

import (
	"math"
	"time"
)

// Segmenter defaults.
const (
	DefaultThreshold = 0.015
	DefaultFrame     = 20 * time.Millisecond
	DefaultSilence   = 600 * time.Millisecond
	DefaultMaxLength = 30 * time.Second
)

// Segmenter cuts a continuous sample stream into utterances using frame
// RMS. An utterance ends after Silence of quiet frames or at MaxLength.
type Segmenter struct {
	Threshold float64
	Frame     time.Duration
	Silence   time.Duration
	MaxLength time.Duration
	Rate      int

	pending []float32 // samples not yet forming a full frame
	voice   []float32 // current utterance
	quiet   int       // trailing quiet frames inside voice
}

// NewSegmenter returns a Segmenter with default settings for rate Hz.
func NewSegmenter(rate int) *Segmenter {
	return &Segmenter{
		Threshold: DefaultThreshold,
		Frame:     DefaultFrame,
		Silence:   DefaultSilence,
		MaxLength: DefaultMaxLength,
		Rate:      rate,
	}
}

func (s *Segmenter) frameLen() int {
	n := int(int64(s.Frame) * int64(s.Rate) / int64(time.Second))
	if n < 1 {
		n = 1
	}
	return n
}

// frames returns d in whole frames, rounded up.
func (s *Segmenter) frames(d time.Duration) int {
	return int((d + s.Frame - 1) / s.Frame)
}

// Feed consumes samples and returns any utterances that completed.
func (s *Segmenter) Feed(samples []float32) [][]float32 {
	s.pending = append(s.pending, samples...)
	n := s.frameLen()
	silenceFrames := s.frames(s.Silence)
	maxSamples := int(int64(s.MaxLength) * int64(s.Rate) / int64(time.Second))

	var out [][]float32
	for len(s.pending) >= n {
		frame := s.pending[:n]
		loud := RMS(frame) >= s.Threshold

		switch {
		case loud:
			s.voice = append(s.voice, frame...)
			s.quiet = 0
		case len(s.voice) > 0:
			s.voice = append(s.voice, frame...)
			s.quiet++
		}

		if len(s.voice) > 0 && (s.quiet >= silenceFrames || (maxSamples > 0 && len(s.voice) >= maxSamples)) {
			out = append(out, s.cut())
		}
		s.pending = s.pending[n:]
	}
	s.pending = append([]float32(nil), s.pending...)
	return out
}

// Flush returns the utterance in progress, if any.
func (s *Segmenter) Flush() []float32 {
	if len(s.voice) == 0 {
		return nil
	}
	return s.cut()
}

// cut returns the current utterance without its trailing silence.
func (s *Segmenter) cut() []float32 {
	end := len(s.voice) - s.quiet*s.frameLen()
	if end < 0 {
		end = 0
	}
	u := append([]float32(nil), s.voice[:end]...)
	s.voice = s.voice[:0]
	s.quiet = 0
	return u
}

// RMS returns the root mean square of samples.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
