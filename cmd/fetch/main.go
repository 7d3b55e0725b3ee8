// Command fetch downloads link lists with yt-dlp and ffmpeg. Without a
// subcommand it runs the batch downloader over every *.txt in the folder.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fedoraxfce/deskbin/internal/config"
	"github.com/fedoraxfce/deskbin/internal/download"
	"github.com/fedoraxfce/deskbin/internal/ffmpeg"
	"github.com/fedoraxfce/deskbin/internal/logging"
	"github.com/fedoraxfce/deskbin/internal/telegram"
	"github.com/fedoraxfce/deskbin/internal/ytdlp"
)

var (
	logLevel   string
	slidesBase string

	pipe *download.Pipeline
)

var rootCmd = &cobra.Command{
	Use:               "fetch",
	Short:             "Download videos and audio from link lists",
	SilenceUsage:      true,
	SilenceErrors:     true,
	Args:              cobra.NoArgs,
	PersistentPreRunE: setup,
	RunE:              runBatch,
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Download every *.txt list into a folder named after it",
	Args:  cobra.NoArgs,
	RunE:  runBatch,
}

var audioCmd = &cobra.Command{
	Use:   "audio",
	Short: "Download ./files.txt into ./src and extract M4A audio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return inCwd(func(dir string) (download.Summary, error) {
			return pipe.Audio(cmd.Context(), dir)
		})
	},
}

var mobileCmd = &cobra.Command{
	Use:   "mobile",
	Short: "Download ./files.txt and re-encode for phones into ./result",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return inCwd(func(dir string) (download.Summary, error) {
			return pipe.Mobile(cmd.Context(), dir)
		})
	},
}

var slidesCmd = &cobra.Command{
	Use:   "slides",
	Short: "Download <base>/files.txt and encode 1 fps slide videos",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sum, err := pipe.Slides(cmd.Context(), slidesBase)
		if err != nil {
			return err
		}
		return sum.Err()
	},
}

var hlsCmd = &cobra.Command{
	Use:   "hls",
	Short: "Send HLS streams to a Telegram topic as videos",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := config.Require(config.EnvBotToken)
		if err != nil {
			return err
		}
		client, err := telegram.New(token)
		if err != nil {
			return err
		}
		return pipe.HLS(cmd.Context(), os.Stdin, client, os.TempDir())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "warn", "log level: debug, info, warn, error")
	slidesCmd.Flags().StringVar(&slidesBase, "base", download.DefaultSlidesBase(), "folder holding files.txt")
	rootCmd.AddCommand(batchCmd, audioCmd, mobileCmd, slidesCmd, hlsCmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	logging.Setup(logLevel)
	tools, err := config.LoadTools()
	if err != nil {
		slog.Warn("Config not fully loaded", "error", err)
	}
	pipe = download.New(
		ytdlp.New(tools.YtDlpPath(), nil),
		ffmpeg.New(tools.FFmpegPath(), nil),
		os.Stdout,
	)
	return nil
}

func runBatch(cmd *cobra.Command, _ []string) error {
	fmt.Println("Checking dependencies...")
	if err := pipe.CheckDeps(cmd.Context()); err != nil {
		return err
	}
	return inCwd(func(dir string) (download.Summary, error) {
		return pipe.Batch(cmd.Context(), dir)
	})
}

func inCwd(run func(dir string) (download.Summary, error)) error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	sum, err := run(dir)
	if err != nil {
		return err
	}
	return sum.Err()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	interrupted := ctx.Err() != nil
	cancel()

	switch {
	case err == nil:
	case interrupted:
		fmt.Println("\nInterrupted by user.")
		os.Exit(130)
	case errors.Is(err, download.ErrNoLinks):
		fmt.Println("No links in files.txt")
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
