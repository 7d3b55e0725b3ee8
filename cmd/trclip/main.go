// Command trclip opens Google Translate with the clipboard text.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	cli "github.com/spf13/pflag"

	"github.com/fedoraxfce/deskbin/internal/clipboard"
	"github.com/fedoraxfce/deskbin/internal/execx"
	"github.com/fedoraxfce/deskbin/internal/logging"
)

func main() {
	from := cli.String("from", "en", "source language")
	to := cli.String("to", "ru", "target language")
	logLevel := cli.String("log-level", "warn", "log level: debug, info, warn, error")
	cli.Parse()

	logging.Setup(*logLevel)

	text, err := clipboard.ReadTrimmed()
	if err != nil {
		// xclip fails on an empty selection.
		slog.Debug("Clipboard read failed", "error", err)
	}
	if text == "" {
		fmt.Println("Clipboard is empty, nothing to translate.")
		return
	}
	fmt.Printf("Opening translation for: %q\n", text)
	if _, err := (&execx.Exec{}).Run(context.Background(), "xdg-open", translateURL(text, *from, *to)); err != nil {
		slog.Error("Could not open the browser", "error", err)
		os.Exit(1)
	}
}

// translateURL builds the translate.google.ru link for text. Spaces are
// sent as %20.
func translateURL(text, from, to string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(text+"\n\n"), "+", "%20")
	return fmt.Sprintf("https://translate.google.ru/?sl=%s&tl=%s&text=%s&op=translate", from, to, escaped)
}
