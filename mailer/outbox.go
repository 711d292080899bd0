package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// FileSender appends each message to a log file instead of delivering it.
type FileSender struct {
	path string
	mu   sync.Mutex
}

func NewFileSender(path string) (*FileSender, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("outbox file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create outbox directory for %s: %w", path, err)
	}
	return &FileSender{path: path}, nil
}

func (s *FileSender) Send(ctx context.Context, msg Message) error {
	raw, err := Build(msg)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open outbox file: %w", err)
	}
	defer f.Close()

	entry := fmt.Sprintf("--- Email logged at %s (To: %s, Subject: %s) ---\n", time.Now().Format(time.RFC3339), msg.To, msg.Subject)
	entry += string(raw) + "\n--- End logged email ---\n\n"
	if _, err := f.WriteString(entry); err != nil {
		return fmt.Errorf("failed to write outbox file: %w", err)
	}
	log.Printf("FileSender: email to %s (Subject: %s) logged to %s", msg.To, msg.Subject, s.path)
	return nil
}

// RedisSender stores each message as JSON in Redis, keyed by recipient.
type RedisSender struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisSender creates a RedisSender. A zero ttl keeps entries forever.
func NewRedisSender(client redis.Cmdable, ttl time.Duration) *RedisSender {
	return &RedisSender{client: client, ttl: ttl}
}

// OutboxKey is the Redis key for a message stored at t.
func OutboxKey(to string, t time.Time) string {
	return fmt.Sprintf("outbox:%s:%d", strings.ToLower(strings.TrimSpace(to)), t.UnixNano())
}

func (s *RedisSender) Send(ctx context.Context, msg Message) error {
	now := time.Now().UTC()
	data, err := json.Marshal(map[string]any{
		"to":      msg.To,
		"cc":      msg.Cc,
		"from":    msg.From,
		"subject": msg.Subject,
		"body":    msg.Body,
		"html":    msg.HTML,
		"sent_at": now.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email: %w", err)
	}
	key := OutboxKey(msg.To, now)
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store email in Redis key '%s': %w", key, err)
	}
	log.Printf("RedisSender: email stored in '%s' (To: %s, Subject: %s)", key, msg.To, msg.Subject)
	return nil
}
