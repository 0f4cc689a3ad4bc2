package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/BearBump/PizzaTrack/internal/broker/messages"
	"github.com/stretchr/testify/require"
)

type sliceConsumer struct {
	values [][]byte
}

func (c sliceConsumer) Consume(ctx context.Context, handler func(key, value []byte) error) error {
	for _, v := range c.values {
		if err := handler([]byte("s1"), v); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestRunToasts_PrintsEachToast(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	good, err := json.Marshal(messages.NotificationPublished{
		SessionID:  "s1",
		Title:      "Free Pizza!",
		Subtitle:   "5 seconds ago",
		Body:       "Your Pizza temperature is below 40 degrees and is now free of charge.",
		Kind:       "success",
		DurationMS: 15000,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = RunToasts(ctx, sliceConsumer{values: [][]byte{[]byte("{oops"), good}}, logger)
	require.ErrorIs(t, err, context.Canceled)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &rec))
	require.Equal(t, "Free Pizza!", rec["msg"])
	require.Equal(t, "5 seconds ago", rec["subtitle"])
	require.Equal(t, "s1", rec["session_id"])
	require.EqualValues(t, 15000, rec["duration_ms"])

	require.Contains(t, string(lines[0]), "skip undecodable toast")
}
