// Package notify delivers toasts to whoever displays them.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/BearBump/PizzaTrack/internal/broker/messages"
	"github.com/BearBump/PizzaTrack/internal/models"
	"github.com/pkg/errors"
)

type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, n models.Notification) error

func (f Func) Notify(ctx context.Context, n models.Notification) error { return f(ctx, n) }

type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, n models.Notification) error {
	l.logger.InfoContext(ctx, "notification",
		"title", n.Title, "subtitle", n.Subtitle, "body", n.Body,
		"kind", n.Kind, "duration_ms", n.DurationMS, "session_id", n.SessionID)
	return nil
}

// Multi delivers to every notifier; one failing target does not stop the rest.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n models.Notification) error {
	var firstErr error
	for _, t := range m {
		if t == nil {
			continue
		}
		if err := t.Notify(ctx, n); err != nil {
			slog.Error("notify", "title", n.Title, "error", err.Error())
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// BrokerNotifier publishes toasts to a Kafka topic keyed by session.
type BrokerNotifier struct {
	producer Producer
	topic    string
}

func NewBrokerNotifier(producer Producer, topic string) *BrokerNotifier {
	return &BrokerNotifier{producer: producer, topic: topic}
}

func (b *BrokerNotifier) Notify(ctx context.Context, n models.Notification) error {
	msg := messages.NotificationPublished{
		SessionID:  n.SessionID,
		Title:      n.Title,
		Subtitle:   n.Subtitle,
		Body:       n.Body,
		Kind:       n.Kind,
		DurationMS: n.DurationMS,
		CreatedAt:  n.CreatedAt,
	}
	value, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal notification")
	}
	key := []byte(n.SessionID)
	if len(key) == 0 {
		key = []byte(fmt.Sprintf("%d", n.CreatedAt.UnixNano()))
	}
	return b.producer.Publish(ctx, b.topic, key, value)
}
