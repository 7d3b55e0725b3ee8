// Package prompt reads answers from a terminal without blocking
// cancellation.
package prompt

import (
	"bufio"
	"context"
	"io"
)

type result struct {
	line string
	err  error
}

// Reader reads lines from an input that may block forever, such as stdin.
// A read abandoned because ctx ended stays pending and is returned by the
// next ReadLine. Reader is not safe for concurrent use.
type Reader struct {
	br      *bufio.Reader
	pending chan result
}

// NewReader wraps in.
func NewReader(in io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(in)}
}

// ReadLine returns the next line including its newline. At end of input it
// returns what was read with the error, like bufio.Reader.ReadString. It
// returns ctx.Err() as soon as ctx ends.
func (r *Reader) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if r.pending == nil {
		ch := make(chan result, 1)
		r.pending = ch
		go func() {
			line, err := r.br.ReadString('\n')
			ch <- result{line, err}
		}()
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-r.pending:
		r.pending = nil
		return res.line, res.err
	}
}
