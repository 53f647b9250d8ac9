package email

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Sender delivers rendered messages and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// LogSender stands in for a real mail provider. It logs each message after a short
// random delay.
type LogSender struct {
	logger   *slog.Logger
	minDelay time.Duration
	jitter   time.Duration
}

func NewLogSender(logger *slog.Logger, minDelay, jitter time.Duration) *LogSender {
	return &LogSender{logger: logger, minDelay: minDelay, jitter: jitter}
}

func (s *LogSender) Send(ctx context.Context, msg Message) (string, error) {
	delay := s.minDelay
	if s.jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(s.jitter)))
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(delay):
	}

	id := uuid.New().String()
	s.logger.InfoContext(ctx, "email sent", "message_id", id, "from", msg.From, "to", msg.To, "subject", msg.Subject)
	return id, nil
}
