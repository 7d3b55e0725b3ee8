package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fedoraxfce/deskbin/internal/execx"
)

// ErrCLINotFound is returned when the whisper command cannot run.
var ErrCLINotFound = errors.New("whisper CLI not found (pip install -U openai-whisper)")

// CLI runs the openai-whisper command line tool on media files.
type CLI struct {
	Bin    string
	Runner execx.Runner
}

// NewCLI returns a CLI for bin. A nil runner uses execx.Exec.
func NewCLI(bin string, r execx.Runner) *CLI {
	if bin == "" {
		bin = "whisper"
	}
	if r == nil {
		r = &execx.Exec{}
	}
	return &CLI{Bin: bin, Runner: r}
}

// Available reports whether the command answers --help.
func (c *CLI) Available(ctx context.Context) error {
	if _, err := c.Runner.Run(ctx, c.Bin, "--help"); err != nil {
		return fmt.Errorf("%w: %v", ErrCLINotFound, err)
	}
	return nil
}

// File transcribes src into outDir and returns the text whisper wrote to
// <outDir>/<stem>.txt along with that path.
func (c *CLI) File(ctx context.Context, src, outDir, model, lang string) (text, txtPath string, err error) {
	args := []string{src, "--model", model, "--language", lang, "--output_format", "txt", "--output_dir", outDir}
	if _, err := c.Runner.Run(ctx, c.Bin, args...); err != nil {
		return "", "", fmt.Errorf("transcribe: whisper %s: %w", filepath.Base(src), err)
	}

	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	txtPath = filepath.Join(outDir, stem+".txt")
	data, err := os.ReadFile(txtPath)
	if err != nil {
		return "", "", fmt.Errorf("transcribe: whisper output: %w", err)
	}
	return strings.TrimSpace(string(data)), txtPath, nil
}
