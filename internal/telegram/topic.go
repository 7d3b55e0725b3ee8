// Package telegram binds tools to a Telegram forum topic and talks to the
// Bot API.
package telegram

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrInvalidTopicURL is returned for links that are not t.me/c topic links.
	ErrInvalidTopicURL = errors.New("invalid topic link, example: https://t.me/c/1756893672/12759/12789")
	// ErrNoConfig is returned when no topic has been bound yet.
	ErrNoConfig = errors.New("topic not configured")
)

var topicURLRe = regexp.MustCompile(`^https://t\.me/c/(\d+)/(\d+)(?:/(\d+))?$`)

// Topic is a forum thread inside a supergroup.
type Topic struct {
	ChatID   int64 `json:"chat_id"`
	ThreadID int   `json:"thread_id"`
}

// ParseTopicURL parses https://t.me/c/<CHAT>/<THREAD>[/<MSG>]. The chat id
// gets the -100 supergroup prefix.
func ParseTopicURL(u string) (Topic, error) {
	m := topicURLRe.FindStringSubmatch(strings.TrimSpace(u))
	if m == nil {
		return Topic{}, ErrInvalidTopicURL
	}
	chatID, err := strconv.ParseInt("-100"+m[1], 10, 64)
	if err != nil {
		return Topic{}, fmt.Errorf("%w: %v", ErrInvalidTopicURL, err)
	}
	threadID, err := strconv.Atoi(m[2])
	if err != nil {
		return Topic{}, fmt.Errorf("%w: %v", ErrInvalidTopicURL, err)
	}
	return Topic{ChatID: chatID, ThreadID: threadID}, nil
}

// MessageURL returns the t.me link to a message inside a topic.
func MessageURL(chatID int64, threadID, msgID int) string {
	chat := strings.TrimPrefix(strconv.FormatInt(chatID, 10), "-100")
	return fmt.Sprintf("https://t.me/c/%s/%d/%d", chat, threadID, msgID)
}

// MessageURL returns the link to msgID inside t.
func (t Topic) MessageURL(msgID int) string {
	return MessageURL(t.ChatID, t.ThreadID, msgID)
}

// DefaultTopicPath returns ~/.config/<tool>/config.json.
func DefaultTopicPath(tool string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", tool, "config.json")
	}
	return filepath.Join(home, ".config", tool, "config.json")
}

// SaveTopic writes t as indented JSON, creating the directory.
func (t Topic) SaveTopic(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("telegram: create config dir: %w", err)
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("telegram: encode topic: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("telegram: write %s: %w", path, err)
	}
	return nil
}

// LoadTopic reads a topic written by SaveTopic. hint is appended to the
// ErrNoConfig message to tell the user how to bind one.
func LoadTopic(path, hint string) (Topic, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if hint != "" {
			return Topic{}, fmt.Errorf("%w: %s", ErrNoConfig, hint)
		}
		return Topic{}, ErrNoConfig
	}
	if err != nil {
		return Topic{}, fmt.Errorf("telegram: read %s: %w", path, err)
	}
	var t Topic
	if err := json.Unmarshal(data, &t); err != nil {
		return Topic{}, fmt.Errorf("telegram: parse %s: %w", path, err)
	}
	if t.ChatID == 0 || t.ThreadID == 0 {
		return Topic{}, fmt.Errorf("telegram: %s: chat_id and thread_id are required", path)
	}
	return t, nil
}
