package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fedoraxfce/deskbin/internal/prompt"
)

// ErrCancelled is returned by Prompt when input ends or ctx is cancelled
// before a choice.
var ErrCancelled = errors.New("cancelled by user")

// Scope describes the selected files for the menu header.
func Scope(files []string, single bool) string {
	switch {
	case len(files) == 0:
		return "Nothing"
	case single:
		return filepath.Base(files[0])
	default:
		return fmt.Sprintf("All files (%d)", len(files))
	}
}

// Prompt shows the mode menu on out and reads choices from in until a valid
// one is entered.
func Prompt(ctx context.Context, in io.Reader, out io.Writer, scope string) (Mode, error) {
	r := prompt.NewReader(in)
	for {
		fmt.Fprintln(out, "Video Conversion Tool - Select Conversion Mode")
		fmt.Fprintf(out, "Current selection: %s\n\n", scope)
		for _, m := range Modes {
			fmt.Fprintf(out, "  %d. %s\n", int(m), m)
		}
		fmt.Fprintf(out, "\nEnter choice (0-%d): ", len(Modes)-1)

		line, err := r.ReadLine(ctx)
		choice := strings.TrimSpace(line)
		if ctx.Err() != nil || (err != nil && choice == "") {
			fmt.Fprintln(out)
			return 0, ErrCancelled
		}
		if n, convErr := strconv.Atoi(choice); convErr == nil && n >= 0 && n < len(Modes) {
			return Modes[n], nil
		}
		fmt.Fprintf(out, "Invalid choice. Please enter 0, 1, 2, 3, or 4.\n\n")
		if err != nil {
			return 0, ErrCancelled
		}
	}
}
