package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/fedoraxfce/deskbin/internal/ffmpeg"
	"github.com/fedoraxfce/deskbin/internal/prompt"
	"github.com/fedoraxfce/deskbin/internal/telegram"
)

// VideoSender uploads a video to a topic.
type VideoSender interface {
	SendVideo(ctx context.Context, t telegram.Topic, path, caption string) (int, error)
}

// HLS asks for a topic link on in, then reads "<m3u8> [title]" lines until
// exit, quit or EOF. Each stream is transcoded to a temporary MP4 in
// tmpDir, sent to the topic with the title as caption and removed.
func (p *Pipeline) HLS(ctx context.Context, in io.Reader, send VideoSender, tmpDir string) error {
	r := prompt.NewReader(in)

	p.printf("Topic link (https://t.me/c/...): ")
	link, _ := r.ReadLine(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if strings.TrimSpace(link) == "" {
		return fmt.Errorf("download: no topic link given")
	}
	topic, err := telegram.ParseTopicURL(strings.TrimSpace(link))
	if err != nil {
		return err
	}
	p.printf("Chat ID: %d, topic ID: %d\n", topic.ChatID, topic.ThreadID)

	p.printf("\nEnter m3u8 links with an optional title, separated by a space. Type `exit` to quit.\n")
	p.printf("Examples:\nhttps://site.com/video.m3u8 My title\nhttps://site.com/video2.m3u8\n\n")

	for {
		p.printf("> ")
		raw, readErr := r.ReadLine(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(raw)
		if readErr != nil && line == "" {
			p.printf("\n")
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return readErr
		}
		if line == "" {
			continue
		}
		if l := strings.ToLower(line); l == "exit" || l == "quit" {
			return nil
		}

		u, title, _ := strings.Cut(line, " ")
		if err := p.sendHLS(ctx, send, topic, u, strings.TrimSpace(title), tmpDir); err != nil {
			p.printf("Error: %v\n", err)
		}
	}
}

func (p *Pipeline) sendHLS(ctx context.Context, send VideoSender, t telegram.Topic, u, title, tmpDir string) error {
	tmp := filepath.Join(tmpDir, "hls-"+uuid.NewString()+".mp4")
	defer func() {
		if err := os.Remove(tmp); err == nil {
			p.printf("Temporary file removed\n")
		}
	}()

	p.printf("Transcoding: %s\n", u)
	if err := p.Enc.Run(ctx, ffmpeg.HLSTranscode(u, tmp)); err != nil {
		return err
	}
	p.printf("Sending to Telegram...\n")
	if _, err := send.SendVideo(ctx, t, tmp, title); err != nil {
		return err
	}
	p.printf("Sent!\n")
	return nil
}
