// Package notify keeps the transient notifications raised by one-shot
// actions (upload, download, category loading).
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-classifier-client/internal/core/ports"
)

const (
	LevelSuccess = "success"
	LevelError   = "error"
)

type Notification struct {
	ID        string    `json:"id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

var _ ports.Notifier = (*Toaster)(nil)

// Toaster logs every notification and keeps the most recent ones for the
// dashboard to poll.
type Toaster struct {
	logger *slog.Logger
	limit  int
	now    func() time.Time

	mu     sync.Mutex
	recent []Notification
}

func NewToaster(logger *slog.Logger, limit int) *Toaster {
	if logger == nil {
		logger = slog.Default()
	}
	if limit <= 0 {
		limit = 20
	}
	return &Toaster{
		logger: logger.With("component", "notify"),
		limit:  limit,
		now:    time.Now,
	}
}

func (t *Toaster) Success(message string) {
	n := t.push(LevelSuccess, message)
	t.logger.Info("notification", "id", n.ID, "level", n.Level, "message", message)
}

func (t *Toaster) Error(message string, err error) {
	n := t.push(LevelError, message)
	t.logger.Error("notification", "id", n.ID, "level", n.Level, "message", message, "error", err)
}

// Recent returns the kept notifications, newest first.
func (t *Toaster) Recent() []Notification {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Notification, len(t.recent))
	for i, n := range t.recent {
		out[len(t.recent)-1-i] = n
	}
	return out
}

func (t *Toaster) push(level, message string) Notification {
	n := Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: t.now().UTC(),
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.recent = append(t.recent, n)
	if over := len(t.recent) - t.limit; over > 0 {
		t.recent = append([]Notification(nil), t.recent[over:]...)
	}
	return n
}
