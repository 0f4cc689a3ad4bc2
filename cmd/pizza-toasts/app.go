package main

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/BearBump/PizzaTrack/internal/broker/messages"
)

type kafkaConsumer interface {
	Consume(ctx context.Context, handler func(key, value []byte) error) error
}

// toastHandler prints one toast per message. Undecodable messages are logged
// and skipped so they cannot block the topic.
func toastHandler(logger *slog.Logger) func(key, value []byte) error {
	return func(key, value []byte) error {
		var m messages.NotificationPublished
		if err := json.Unmarshal(value, &m); err != nil {
			logger.Warn("skip undecodable toast", "key", string(key), "error", err.Error())
			return nil
		}
		logger.Info(m.Title,
			"subtitle", m.Subtitle,
			"body", m.Body,
			"kind", m.Kind,
			"duration_ms", m.DurationMS,
			"session_id", m.SessionID,
		)
		return nil
	}
}

func RunToasts(ctx context.Context, consumer kafkaConsumer, logger *slog.Logger) error {
	return consumer.Consume(ctx, toastHandler(logger))
}
