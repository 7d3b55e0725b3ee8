package execx

import (
	"context"
	"strings"
	"sync"
)

// Call records a single invocation made through a Fake.
type Call struct {
	Name string
	Args []string
}

// String renders the call as a command line.
func (c Call) String() string {
	return Quote(c.Name, c.Args...)
}

// Fake is a Runner that records calls and replays canned results. It is
// used by package tests across the module.
type Fake struct {
	mu    sync.Mutex
	Calls []Call

	// Handle, if set, produces the result for a call. Lines returned in
	// Result.Stdout are fed to Stream callbacks one by one.
	Handle func(c Call) (Result, error)
}

var _ Runner = (*Fake)(nil)

// Run implements Runner.
func (f *Fake) Run(_ context.Context, name string, args ...string) (Result, error) {
	return f.record(name, args)
}

// Stream implements Runner.
func (f *Fake) Stream(_ context.Context, onLine func(string), name string, args ...string) (Result, error) {
	res, err := f.record(name, args)
	if onLine != nil {
		for _, line := range strings.Split(strings.TrimRight(res.Stdout, "\n"), "\n") {
			if line != "" {
				onLine(line)
			}
		}
	}
	return res, err
}

func (f *Fake) record(name string, args []string) (Result, error) {
	c := Call{Name: name, Args: append([]string(nil), args...)}
	f.mu.Lock()
	f.Calls = append(f.Calls, c)
	handle := f.Handle
	f.mu.Unlock()
	if handle == nil {
		return Result{}, nil
	}
	return handle(c)
}

// Last returns the most recent call.
func (f *Fake) Last() Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Calls) == 0 {
		return Call{}
	}
	return f.Calls[len(f.Calls)-1]
}
