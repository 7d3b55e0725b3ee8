// Package execx runs the external programs the tools wrap (ffmpeg, yt-dlp,
// whisper, xdotool, screenshot tools) behind a small interface so command
// construction can be tested without spawning processes.
package execx

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Name   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%s exited with code %d", e.Name, e.Code)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Name, e.Code, msg)
}

// Runner executes external commands.
type Runner interface {
	// Run executes name with args and captures stdout and stderr.
	Run(ctx context.Context, name string, args ...string) (Result, error)
	// Stream executes name with args, calling onLine for every stdout line
	// as it arrives. Stderr is captured into the Result.
	Stream(ctx context.Context, onLine func(string), name string, args ...string) (Result, error)
}

// Exec is the os/exec backed Runner.
type Exec struct {
	// Dir is the working directory; empty means the current one.
	Dir string
	// Stdin, if set, is connected to the command's standard input.
	Stdin io.Reader
}

var _ Runner = (*Exec)(nil)

// Run implements Runner.
func (e *Exec) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.Dir
	if e.Stdin != nil {
		cmd.Stdin = e.Stdin
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	return finish(name, cmd, res, err)
}

// Stream implements Runner.
func (e *Exec) Stream(ctx context.Context, onLine func(string), name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.Dir
	if e.Stdin != nil {
		cmd.Stdin = e.Stdin
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, fmt.Errorf("execx: stdout pipe for %s: %w", name, err)
	}

	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("execx: start %s: %w", name, err)
	}

	var stdout strings.Builder
	sc := bufio.NewScanner(pipe)
	for sc.Scan() {
		line := sc.Text()
		stdout.WriteString(line)
		stdout.WriteByte('\n')
		if onLine != nil {
			onLine(line)
		}
	}
	// Drain whatever is left so the process never blocks on a full pipe.
	_, _ = io.Copy(io.Discard, pipe)

	err = cmd.Wait()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	return finish(name, cmd, res, err)
}

func finish(name string, cmd *exec.Cmd, res Result, err error) (Result, error) {
	if err == nil {
		return res, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, &ExitError{Name: filepath.Base(name), Code: res.ExitCode, Stderr: res.Stderr}
	}
	res.ExitCode = -1
	if cmd.ProcessState == nil {
		return res, fmt.Errorf("execx: start %s: %w", name, err)
	}
	return res, fmt.Errorf("execx: %s: %w", name, err)
}

// Interactive runs a command attached to the current terminal.
func Interactive(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("execx: %s: %w", name, err)
	}
	return nil
}

// LookPath returns the first candidate that is either an existing file or
// an executable found in PATH. A leading ~ is expanded. It returns "" when
// nothing matches.
func LookPath(candidates ...string) string {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		c = ExpandHome(c)
		if strings.ContainsRune(c, os.PathSeparator) {
			if info, err := os.Stat(c); err == nil && !info.IsDir() {
				return c
			}
			continue
		}
		if p, err := exec.LookPath(c); err == nil {
			return p
		}
	}
	return ""
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// Quote renders a command line for display.
func Quote(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, a := range args {
		if a == "" || strings.ContainsAny(a, " \t'\"") {
			a = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}
