package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	defaultServer = "https://api.telegram.org"
	ackTimeout    = 5 * time.Second
)

// Client sends messages to topics.
type Client struct {
	bot    *bot.Bot
	server string // Bot API base URL, used for update acks

	mu      sync.Mutex
	updates chan *models.Update
}

// New creates a Client. Extra options are passed to the bot, which lets
// tests point it at a local server.
func New(token string, extra ...bot.Option) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram: BOT_TOKEN is empty")
	}
	c := &Client{server: defaultServer}
	opts := append([]bot.Option{bot.WithDefaultHandler(c.dispatch)}, extra...)
	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}
	c.bot = b
	return c, nil
}

// SendText posts text to the topic and returns the message id.
func (c *Client) SendText(ctx context.Context, t Topic, text string) (int, error) {
	msg, err := c.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          t.ChatID,
		MessageThreadID: t.ThreadID,
		Text:            text,
	})
	if err != nil {
		return 0, fmt.Errorf("telegram: send message: %w", err)
	}
	return msg.ID, nil
}

// SendPhoto uploads an image to the topic.
func (c *Client) SendPhoto(ctx context.Context, t Topic, path, caption string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("telegram: open photo: %w", err)
	}
	defer file.Close()

	params := &bot.SendPhotoParams{
		ChatID:          t.ChatID,
		MessageThreadID: t.ThreadID,
		Photo:           &models.InputFileUpload{Filename: filepath.Base(path), Data: file},
	}
	if caption != "" {
		params.Caption = caption
		params.ParseMode = models.ParseModeHTML
	}

	msg, err := c.bot.SendPhoto(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("telegram: send photo: %w", err)
	}
	return msg.ID, nil
}

// SendVideo uploads a video that clients can stream while it loads.
func (c *Client) SendVideo(ctx context.Context, t Topic, path, caption string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("telegram: open video: %w", err)
	}
	defer file.Close()

	params := &bot.SendVideoParams{
		ChatID:            t.ChatID,
		MessageThreadID:   t.ThreadID,
		Video:             &models.InputFileUpload{Filename: filepath.Base(path), Data: file},
		SupportsStreaming: true,
	}
	if caption != "" {
		params.Caption = caption
		params.ParseMode = models.ParseModeHTML
	}

	msg, err := c.bot.SendVideo(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("telegram: send video: %w", err)
	}
	return msg.ID, nil
}

// DeleteMessage removes a message.
func (c *Client) DeleteMessage(ctx context.Context, chatID int64, msgID int) error {
	if _, err := c.bot.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: msgID,
	}); err != nil {
		return fmt.Errorf("telegram: delete message %d: %w", msgID, err)
	}
	return nil
}

// Binding is the topic found by WaitForBinding and the marker message.
type Binding struct {
	Topic     Topic
	MessageID int
}

// WaitForBinding long-polls updates until ownerID posts a message that
// contains marker inside a topic, or ctx ends.
func (c *Client) WaitForBinding(ctx context.Context, ownerID int64, marker string) (Binding, error) {
	ch := make(chan *models.Update, 16)
	c.mu.Lock()
	c.updates = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.updates = nil
		c.mu.Unlock()
	}()

	pollCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.bot.Start(pollCtx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	for {
		select {
		case <-ctx.Done():
			return Binding{}, fmt.Errorf("telegram: waiting for %q: %w", marker, ctx.Err())
		case u := <-ch:
			b, ok := MatchBinding(u, ownerID, marker)
			if !ok {
				continue
			}
			cancel()
			<-done
			if err := c.ack(ctx, u.ID); err != nil {
				slog.Warn("Marker update not acknowledged, the next init may see it again", "update_id", u.ID, "error", err)
			}
			return b, nil
		}
	}
}

// ack confirms every update up to id so the Bot API stops delivering them.
// Stopping the poller aborts its pending getUpdates, so this is a separate
// short request.
func (c *Client) ack(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ackTimeout)
	defer cancel()

	q := url.Values{
		"offset":  {strconv.FormatInt(id+1, 10)},
		"limit":   {"1"},
		"timeout": {"0"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.server+"/bot"+c.bot.Token()+"/getUpdates?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: ack update %d: %w", id, err)
	}
	defer resp.Body.Close()

	var body struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("telegram: ack update %d: %w", id, err)
	}
	if !body.OK {
		return fmt.Errorf("telegram: ack update %d: %s", id, body.Description)
	}
	return nil
}

func (c *Client) dispatch(ctx context.Context, _ *bot.Bot, u *models.Update) {
	c.mu.Lock()
	ch := c.updates
	c.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- u:
	case <-ctx.Done():
	default:
		slog.Debug("dropping telegram update", "update_id", u.ID)
	}
}

// MatchBinding reports whether u is a marker message from ownerID posted
// in a topic. The thread comes from the message or the message it
// replies to.
func MatchBinding(u *models.Update, ownerID int64, marker string) (Binding, bool) {
	if u == nil || u.Message == nil {
		return Binding{}, false
	}
	msg := u.Message
	if msg.From == nil || msg.From.ID != ownerID || msg.Text == "" {
		return Binding{}, false
	}
	if !strings.Contains(strings.ToLower(msg.Text), strings.ToLower(marker)) {
		return Binding{}, false
	}
	thread := msg.MessageThreadID
	if thread == 0 && msg.ReplyToMessage != nil {
		thread = msg.ReplyToMessage.MessageThreadID
	}
	if thread == 0 {
		return Binding{}, false
	}
	return Binding{
		Topic:     Topic{ChatID: msg.Chat.ID, ThreadID: thread},
		MessageID: msg.ID,
	}, true
}
