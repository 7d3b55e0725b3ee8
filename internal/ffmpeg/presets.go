package ffmpeg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Job is one ffmpeg invocation: the arguments after the binary name, the
// file it must produce and a short label used in errors.
type Job struct {
	Label  string
	Args   []string
	Output string
}

const (
	halfLanczos = "scale=trunc(iw/2):trunc(ih/2):flags=lanczos"
	halfEven    = "scale=if(gte(iw\\,2)\\,iw/2\\,iw/2+1):if(gte(ih\\,2)\\,ih/2\\,ih/2+1)," +
		"scale=trunc(iw/2)*2:trunc(ih/2)*2:flags=lanczos"
)

var (
	x264Main  = []string{"-vcodec", "libx264", "-preset", "slow", "-profile:v", "main", "-pix_fmt", "yuv420p"}
	aacMono64 = []string{"-c:a", "aac", "-ac", "1", "-b:a", "64k"}
	faststart = []string{"-movflags", "+faststart"}
)

func join(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Telegram re-encodes a video at half size and 15 fps for chat uploads.
func Telegram(src, dst string) Job {
	return Job{
		Label: "video",
		Args: join(
			[]string{"-y", "-i", src, "-map_metadata", "-1", "-max_muxing_queue_size", "512",
				"-vf", halfLanczos, "-r", "15", "-crf", "25"},
			x264Main, aacMono64, faststart, []string{dst},
		),
		Output: dst,
	}
}

// AudioCompact extracts a mono 64k AAC track into an M4A file.
func AudioCompact(src, dst string) Job {
	return Job{
		Label: "audio",
		Args: join(
			[]string{"-y", "-i", src, "-map_metadata", "-1", "-vn"},
			aacMono64, faststart, []string{dst},
		),
		Output: dst,
	}
}

// Slides keeps one frame per second, which suits screen recordings of
// presentations. half additionally halves the resolution.
func Slides(src, dst string, half bool) Job {
	scale := "scale=trunc(iw/2)*2:trunc(ih/2)*2"
	if half {
		scale = "scale=trunc(iw/2):trunc(ih/2)"
	}
	return Job{
		Label: "video slides",
		Args: join(
			[]string{"-y", "-i", src, "-map_metadata", "-1", "-max_muxing_queue_size", "512",
				"-vf", scale, "-r", "1", "-crf", "23"},
			x264Main, aacMono64, faststart, []string{dst},
		),
		Output: dst,
	}
}

// Merge concatenates the files named in a concat demuxer list without
// re-encoding.
func Merge(listFile, dst string) Job {
	return Job{
		Label:  "merge",
		Args:   []string{"-y", "-f", "concat", "-safe", "0", "-i", listFile, "-c", "copy", dst},
		Output: dst,
	}
}

// WriteConcatList writes a concat demuxer list for files.
func WriteConcatList(files []string, path string) error {
	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(f, "'", `'\''`))
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("ffmpeg: write concat list: %w", err)
	}
	return nil
}

// MP3 transcodes the audio track to 128k MP3.
func MP3(src, dst string) Job {
	return Job{
		Label: "mp3",
		Args: []string{"-y", "-hide_banner", "-loglevel", "error", "-i", src,
			"-vn", "-c:a", "libmp3lame", "-b:a", "128k", dst},
		Output: dst,
	}
}

// CoverOptions configures Cover.
type CoverOptions struct {
	Audio  string
	Image  string // optional still image; black background when empty
	Output string
	FPS    int
	Width  int
	Height int
	ABR    int // audio bitrate, kbps
	CRF    int
}

// DefaultCoverOptions returns the YouTube-friendly defaults.
func DefaultCoverOptions() CoverOptions {
	return CoverOptions{FPS: 30, Width: 1920, Height: 1080, ABR: 192, CRF: 18}
}

// Cover renders an audio file as an MP4 over a still image or black frame.
func Cover(o CoverOptions) Job {
	args := []string{"-y"}
	if o.Image != "" {
		args = append(args, "-loop", "1", "-i", o.Image)
	} else {
		args = append(args, "-f", "lavfi", "-i",
			fmt.Sprintf("color=size=%dx%d:rate=%d:color=black", o.Width, o.Height, o.FPS))
	}
	args = append(args, "-i", o.Audio,
		"-c:v", "libx264", "-tune", "stillimage", "-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(o.FPS), "-crf", strconv.Itoa(o.CRF),
		"-c:a", "aac", "-b:a", fmt.Sprintf("%dk", o.ABR))
	if o.Image != "" {
		args = append(args, "-vf", fmt.Sprintf(
			"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
			o.Width, o.Height, o.Width, o.Height))
	}
	args = append(args, "-shortest", "-movflags", "+faststart",
		"-map", "0:v:0", "-map", "1:a:0", o.Output)
	return Job{Label: "cover", Args: args, Output: o.Output}
}

// Mobile downsizes to half resolution with even dimensions at fps.
func Mobile(src, dst string, fps int) Job {
	vf := fmt.Sprintf("fps=%d,%s", fps, halfEven)
	return Job{
		Label: "mobile",
		Args: join(
			[]string{"-y", "-i", src, "-hide_banner", "-nostats", "-loglevel", "error",
				"-threads", "4", "-map_metadata", "-1", "-max_muxing_queue_size", "512",
				"-vf", vf, "-crf", "23"},
			x264Main, aacMono64, faststart, []string{dst},
		),
		Output: dst,
	}
}

// Webinar keeps three frames per second tuned for mostly static video.
func Webinar(src, dst string) Job {
	return Job{
		Label: "video",
		Args: join(
			[]string{"-y", "-i", src, "-map_metadata", "-1", "-max_muxing_queue_size", "512",
				"-vf", "fps=3", "-tune", "stillimage", "-crf", "25"},
			x264Main, aacMono64, faststart, []string{dst},
		),
		Output: dst,
	}
}

// AudioAAC drops video and encodes stereo AAC at kbps.
func AudioAAC(src, dst string, kbps int) Job {
	return Job{
		Label: "audio",
		Args: []string{"-y", "-hide_banner", "-nostats", "-loglevel", "error", "-i", src,
			"-vn", "-c:a", "aac", "-b:a", fmt.Sprintf("%dk", kbps), "-movflags", "+faststart", dst},
		Output: dst,
	}
}

// HLSCopy remuxes an m3u8 stream into a transport stream file.
func HLSCopy(url, dst string) Job {
	return Job{
		Label:  "hls",
		Args:   []string{"-y", "-hide_banner", "-loglevel", "error", "-i", url, "-c", "copy", dst},
		Output: dst,
	}
}

// HLSTranscode downloads an m3u8 stream straight into an H.264/AAC MP4.
func HLSTranscode(url, dst string) Job {
	return Job{
		Label: "hls",
		Args: []string{"-y", "-i", url, "-c:v", "libx264", "-preset", "veryfast", "-crf", "23",
			"-c:a", "aac", "-b:a", "128k", "-movflags", "+faststart", dst},
		Output: dst,
	}
}

// TelegramSlides is the heavy long-GOP encode used for lecture recordings.
func TelegramSlides(src, dst string) Job {
	return Job{
		Label: "slides",
		Args: []string{"-hide_banner", "-y", "-i", src, "-c:v", "libx264", "-preset", "veryslow",
			"-crf", "28", "-g", "300", "-keyint_min", "300", "-c:a", "aac", "-b:a", "128k",
			"-movflags", "+faststart", dst},
		Output: dst,
	}
}
