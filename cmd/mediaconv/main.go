// Command mediaconv converts media with ffmpeg presets. Without a
// subcommand it shows the conversion menu for one file or the whole folder.
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
	"github.com/fedoraxfce/deskbin/internal/convert"
	"github.com/fedoraxfce/deskbin/internal/ffmpeg"
	"github.com/fedoraxfce/deskbin/internal/logging"
)

var (
	logLevel string
	cover    = ffmpeg.DefaultCoverOptions()

	tools config.ToolsConfig
	conv  *convert.Converter
)

// errUsage exits with status 2.
var errUsage = errors.New("usage")

var rootCmd = &cobra.Command{
	Use:   "mediaconv [file]",
	Short: "Convert media files with ffmpeg presets",
	Long: "Without a subcommand, pick a conversion mode for [file] or for every\n" +
		"media file in the current folder. Results go to a folder per mode.",
	Args:              cobra.MaximumNArgs(1),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := os.Getwd()
		if err != nil {
			return err
		}
		var name string
		if len(args) == 1 {
			name = args[0]
		}
		files, err := convert.Select(root, name)
		if err != nil {
			return err
		}
		mode, err := convert.Prompt(cmd.Context(), os.Stdin, os.Stdout, convert.Scope(files, name != ""))
		if err != nil {
			return err
		}
		sum, err := conv.Run(cmd.Context(), mode, root, files)
		if err != nil {
			return err
		}
		report(sum)
		return sum.Err()
	},
}

var mp3Cmd = &cobra.Command{
	Use:   "mp3 <files...>",
	Short: "Extract MP3 audio to <name>-result.mp3",
	Args:  requireFiles,
	RunE: func(cmd *cobra.Command, args []string) error {
		return conv.MP3(cmd.Context(), args).Err()
	},
}

var coverCmd = &cobra.Command{
	Use:   "cover <audio>",
	Short: "Render audio as an MP4 over a still image or a black frame",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o := cover
		o.Audio = args[0]
		_, err := conv.Cover(cmd.Context(), o)
		return err
	},
}

var smallCmd = &cobra.Command{
	Use:   "small <files...>",
	Short: "Compress video for phones to <name>-result-small.mp4",
	Args:  requireFiles,
	RunE: func(cmd *cobra.Command, args []string) error {
		return conv.Small(cmd.Context(), args).Err()
	},
}

var webinarCmd = &cobra.Command{
	Use:   "webinar",
	Short: "Convert every media file in the folder into ./webinar",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := os.Getwd()
		if err != nil {
			return err
		}
		sum, err := conv.Webinar(cmd.Context(), root)
		if err != nil {
			return err
		}
		report(sum)
		return sum.Err()
	},
}

var tgCmd = &cobra.Command{
	Use:   "tg <files...>",
	Short: "Encode for Telegram to <name>_tg.mp4 with a progress bar",
	Args:  requireFiles,
	RunE: func(cmd *cobra.Command, args []string) error {
		probe := ffmpeg.NewProbe(tools.FFprobePath(), nil)
		return conv.TG(cmd.Context(), probe, args).Err()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "warn", "log level: debug, info, warn, error")

	f := coverCmd.Flags()
	f.StringVarP(&cover.Image, "image", "i", "", "still image (default: black background)")
	f.StringVarP(&cover.Output, "output", "o", "", "output file (default: <audio name>.mp4)")
	f.IntVar(&cover.FPS, "fps", cover.FPS, "frame rate")
	f.IntVar(&cover.Width, "width", cover.Width, "frame width")
	f.IntVar(&cover.Height, "height", cover.Height, "frame height")
	f.IntVar(&cover.ABR, "abr", cover.ABR, "audio bitrate, kbps")
	f.IntVar(&cover.CRF, "crf", cover.CRF, "x264 quality")

	rootCmd.AddCommand(mp3Cmd, coverCmd, smallCmd, webinarCmd, tgCmd)
}

// requireFiles wants at least one file argument.
func requireFiles(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s\n", cmd.UseLine())
		return errUsage
	}
	return nil
}

func setup(cmd *cobra.Command, _ []string) error {
	logging.Setup(logLevel)
	var err error
	if tools, err = config.LoadTools(); err != nil {
		slog.Warn("Config not fully loaded", "error", err)
	}
	enc := ffmpeg.New(tools.FFmpegPath(), nil)
	if err := enc.Available(cmd.Context()); err != nil {
		return fmt.Errorf("ffmpeg is not installed or not in PATH (%s): %w", enc.Bin, err)
	}
	conv = convert.New(enc, os.Stdout)
	return nil
}

func report(s convert.Summary) {
	fmt.Printf("\nDone: %d, skipped: %d, failed: %d\n", s.Done, s.Skipped, s.Failed)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	interrupted := ctx.Err() != nil
	cancel()

	switch {
	case err == nil:
	case errors.Is(err, convert.ErrCancelled):
		fmt.Println("Cancelled by user.")
	case errors.Is(err, errUsage):
		os.Exit(2)
	case interrupted:
		fmt.Println("\nInterrupted.")
		os.Exit(130)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
