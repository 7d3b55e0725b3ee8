package prompt

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestReadLine(t *testing.T) {
	r := NewReader(strings.NewReader("one\ntwo"))
	ctx := context.Background()

	tests := []struct {
		want    string
		wantErr error
	}{
		{"one\n", nil},
		{"two", io.EOF},
		{"", io.EOF},
	}
	for _, tt := range tests {
		got, err := r.ReadLine(ctx)
		if got != tt.want || !errors.Is(err, tt.wantErr) {
			t.Errorf("ReadLine() = %q, %v, want %q, %v", got, err, tt.want, tt.wantErr)
		}
	}
}

func TestReadLineCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	r := NewReader(pr)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := r.ReadLine(ctx)
		errc <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("ReadLine() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ReadLine() did not return after cancel")
	}

	// The abandoned read still delivers its line to the next caller.
	go pw.Write([]byte("late\n"))
	got, err := r.ReadLine(context.Background())
	if err != nil || got != "late\n" {
		t.Errorf("ReadLine() after cancel = %q, %v, want %q", got, err, "late\n")
	}
}
