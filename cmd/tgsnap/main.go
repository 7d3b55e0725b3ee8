// Command tgsnap sends a region screenshot to a Telegram topic and copies
// the message link. Given a topic link instead, it binds that topic.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	cli "github.com/spf13/pflag"

	"github.com/fedoraxfce/deskbin/internal/clipboard"
	"github.com/fedoraxfce/deskbin/internal/config"
	"github.com/fedoraxfce/deskbin/internal/execx"
	"github.com/fedoraxfce/deskbin/internal/logging"
	"github.com/fedoraxfce/deskbin/internal/screenshot"
	"github.com/fedoraxfce/deskbin/internal/telegram"
)

const tool = "tgsnap"

func main() {
	cli.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [https://t.me/c/<chat>/<thread>]\n\n", tool)
		fmt.Fprintln(os.Stderr, "With a topic link: bind the topic and send a test message.")
		fmt.Fprintln(os.Stderr, "Without arguments: take a region screenshot and send it.")
		cli.PrintDefaults()
	}
	logLevel := cli.String("log-level", "info", "log level: debug, info, warn, error")
	cli.Parse()

	var sinks []io.Writer
	logFile, logErr := logging.OpenFile("telegram_screenshot")
	if logErr == nil {
		defer logFile.Close()
		sinks = append(sinks, logFile)
	}
	logging.Setup(*logLevel, sinks...)
	if logErr != nil {
		slog.Warn("Logging to stderr only", "error", logErr)
	}
	if err := config.LoadEnv(""); err != nil {
		slog.Warn("Could not load env file", "error", err)
	}

	ctx := context.Background()
	path := telegram.DefaultTopicPath(tool)

	if cli.NArg() > 0 {
		if err := bind(ctx, cli.Arg(0), path); err != nil {
			slog.Error("Topic binding failed", "error", err)
			os.Exit(1)
		}
		return
	}
	if err := snap(ctx, path); err != nil {
		slog.Error("Screenshot not sent", "error", err)
		os.Exit(1)
	}
}

func bind(ctx context.Context, link, path string) error {
	topic, err := telegram.ParseTopicURL(link)
	if err != nil {
		return err
	}
	slog.Info("Parsed topic link", "chat_id", topic.ChatID, "thread_id", topic.ThreadID)
	if err := topic.SaveTopic(path); err != nil {
		return err
	}
	slog.Info("Config saved", "path", path)

	client, err := newClient()
	if err != nil {
		return err
	}
	slog.Info("Sending test message to verify configuration...")
	if _, err := client.SendText(ctx, topic, "."); err != nil {
		return err
	}
	slog.Info("Test message sent successfully")
	return nil
}

func snap(ctx context.Context, path string) error {
	topic, err := telegram.LoadTopic(path, "run: "+tool+" https://t.me/c/<chat>/<thread>")
	if err != nil {
		return err
	}
	client, err := newClient()
	if err != nil {
		return err
	}

	image := filepath.Join(execx.ExpandHome("~/tmp"), "screenshot.png")
	if err := os.MkdirAll(filepath.Dir(image), 0o755); err != nil {
		return err
	}
	if err := screenshot.New().Region(ctx, image); err != nil {
		return err
	}

	slog.Info("Sending screenshot to Telegram...")
	id, err := client.SendPhoto(ctx, topic, image, "")
	if err != nil {
		return err
	}
	url := topic.MessageURL(id)
	slog.Info("Sent", "url", url)

	if err := clipboard.Copy(url); err != nil {
		slog.Warn("Clipboard copy failed", "error", err)
	} else {
		slog.Info("Link copied to clipboard")
	}
	return nil
}

func newClient() (*telegram.Client, error) {
	token, err := config.Require(config.EnvBotToken)
	if err != nil {
		return nil, err
	}
	return telegram.New(token)
}
