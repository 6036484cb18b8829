// Package events carries small change notifications between storefront
// instances, e.g. "a product changed, drop your cached copy".
package events

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID      string    `json:"id"`
	Topic   string    `json:"topic"`
	Subject string    `json:"subject,omitempty"`
	At      time.Time `json:"at"`
}

func New(topic, subject string) Event {
	return Event{
		ID:      uuid.NewString(),
		Topic:   topic,
		Subject: subject,
		At:      time.Now().UTC(),
	}
}

// HasPrefix reports whether the event topic is prefix or a dotted child of it.
func (e Event) HasPrefix(prefix string) bool {
	return e.Topic == prefix || strings.HasPrefix(e.Topic, prefix+".")
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type Handler func(ctx context.Context, ev Event)

// Bus delivers events synchronously to in-process subscribers. It is the
// publisher used when no broker is configured.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	log      *slog.Logger
}

func NewBus(log *slog.Logger) *Bus {
	return &Bus{log: log}
}

func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

func (b *Bus) Publish(ctx context.Context, ev Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers...)
	b.mu.RUnlock()

	b.log.Debug("event published", slog.String("topic", ev.Topic), slog.String("subject", ev.Subject))
	for _, h := range handlers {
		h(ctx, ev)
	}
	return nil
}
