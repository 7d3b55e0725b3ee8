package audio

import (
	"testing"
	"time"
)

func tone(n int, amp float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = amp
		} else {
			out[i] = -amp
		}
	}
	return out
}

func TestRMS(t *testing.T) {
	if got := RMS(tone(100, 0.5)); got < 0.499 || got > 0.501 {
		t.Errorf("RMS() = %v, want 0.5", got)
	}
	if got := RMS(nil); got != 0 {
		t.Errorf("RMS(nil) = %v, want 0", got)
	}
}

func TestSegmenterSplitsOnSilence(t *testing.T) {
	const rate = 1000 // 20 samples per frame
	s := NewSegmenter(rate)

	var stream []float32
	stream = append(stream, make([]float32, 200)...) // leading silence
	stream = append(stream, tone(400, 0.2)...)        // speech
	stream = append(stream, make([]float32, 700)...)  // long pause
	stream = append(stream, tone(200, 0.2)...)        // speech

	got := s.Feed(stream)
	if len(got) != 1 {
		t.Fatalf("Feed() returned %d utterances, want 1", len(got))
	}
	if len(got[0]) != 400 {
		t.Errorf("utterance = %d samples, want 400 without trailing silence", len(got[0]))
	}

	tail := s.Flush()
	if len(tail) != 200 {
		t.Errorf("Flush() = %d samples, want 200", len(tail))
	}
	if s.Flush() != nil {
		t.Error("second Flush() should return nil")
	}
}

func TestSegmenterShortPauseKeepsUtterance(t *testing.T) {
	s := NewSegmenter(1000)
	var stream []float32
	stream = append(stream, tone(200, 0.2)...)
	stream = append(stream, make([]float32, 300)...) // under 600ms
	stream = append(stream, tone(200, 0.2)...)

	// Feed in odd-sized chunks.
	var got [][]float32
	for len(stream) > 0 {
		n := min(37, len(stream))
		got = append(got, s.Feed(stream[:n])...)
		stream = stream[n:]
	}
	if len(got) != 0 {
		t.Fatalf("Feed() cut %d utterances on a short pause", len(got))
	}
	if u := s.Flush(); len(u) != 700 {
		t.Errorf("Flush() = %d samples, want 700", len(u))
	}
}

func TestSegmenterMaxLength(t *testing.T) {
	s := NewSegmenter(1000)
	s.MaxLength = 500 * time.Millisecond

	got := s.Feed(tone(1200, 0.3))
	if len(got) != 2 {
		t.Fatalf("Feed() returned %d utterances, want 2", len(got))
	}
	for i, u := range got {
		if len(u) != 500 {
			t.Errorf("utterance %d = %d samples, want 500", i, len(u))
		}
	}
}

func TestSegmenterIgnoresQuietInput(t *testing.T) {
	s := NewSegmenter(16000)
	if got := s.Feed(tone(16000, 0.001)); len(got) != 0 {
		t.Errorf("Feed(quiet) = %d utterances", len(got))
	}
	if s.Flush() != nil {
		t.Error("Flush() after quiet input should return nil")
	}
}
