// Command tgvideo uploads videos to a Telegram forum topic. The topic is
// bound once with "tgvideo init" by posting "@video" in it.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fedoraxfce/deskbin/internal/config"
	"github.com/fedoraxfce/deskbin/internal/logging"
	"github.com/fedoraxfce/deskbin/internal/telegram"
)

const (
	tool   = "tgvideo"
	marker = "@video"
)

var (
	logLevel    string
	initTimeout time.Duration
	caption     string

	client *telegram.Client
)

var rootCmd = &cobra.Command{
	Use:               tool,
	Short:             "Send videos to a bound Telegram topic",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bind the topic where you post " + marker,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := config.RequireInt64(config.EnvTelegramID)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), initTimeout)
		defer cancel()

		fmt.Printf("Post %s in the target topic (waiting %s)...\n", marker, initTimeout)
		b, err := client.WaitForBinding(ctx, owner, marker)
		if err != nil {
			return err
		}
		slog.Info("Marker received", "chat_id", b.Topic.ChatID, "thread_id", b.Topic.ThreadID)

		path := telegram.DefaultTopicPath(tool)
		if err := b.Topic.SaveTopic(path); err != nil {
			return err
		}
		fmt.Printf("Topic saved to %s\n", path)

		if err := client.DeleteMessage(cmd.Context(), b.Topic.ChatID, b.MessageID); err != nil {
			slog.Warn("Could not delete the marker message", "error", err)
		}
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <files...>",
	Short: "Upload files as streaming videos",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, err := loadTopic()
		if err != nil {
			return err
		}
		failed := 0
		for _, path := range args {
			if err := cmd.Context().Err(); err != nil {
				return err
			}
			fmt.Printf("Sending %s...\n", filepath.Base(path))
			id, err := client.SendVideo(cmd.Context(), topic, path, caption)
			if err != nil {
				slog.Error("Upload failed", "file", path, "error", err)
				failed++
				continue
			}
			fmt.Println(topic.MessageURL(id))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d uploads failed", failed, len(args))
		}
		return nil
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Send a test message to the bound topic",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, err := loadTopic()
		if err != nil {
			return err
		}
		id, err := client.SendText(cmd.Context(), topic, ".")
		if err != nil {
			return err
		}
		fmt.Println(topic.MessageURL(id))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "log level: debug, info, warn, error")
	initCmd.Flags().DurationVar(&initTimeout, "timeout", 2*time.Minute, "how long to wait for the marker message")
	sendCmd.Flags().StringVar(&caption, "caption", "", "caption for every video (HTML)")
	rootCmd.AddCommand(initCmd, sendCmd, pingCmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	var sinks []io.Writer
	if f, err := logging.OpenFile(tool); err == nil {
		sinks = append(sinks, f)
	}
	logging.Setup(logLevel, sinks...)
	if err := config.LoadEnv(""); err != nil {
		slog.Warn("Could not load env file", "error", err)
	}

	token, err := config.Require(config.EnvBotToken)
	if err != nil {
		return err
	}
	client, err = telegram.New(token)
	return err
}

func loadTopic() (telegram.Topic, error) {
	return telegram.LoadTopic(telegram.DefaultTopicPath(tool), "run: "+tool+" init")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	interrupted := ctx.Err() != nil
	cancel()

	switch {
	case err == nil:
	case interrupted:
		os.Exit(130)
	case errors.Is(err, context.DeadlineExceeded):
		slog.Error("No "+marker+" message arrived in time", "timeout", initTimeout)
		os.Exit(1)
	default:
		slog.Error(tool+" failed", "error", err)
		os.Exit(1)
	}
}
