package poller

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func TestPoller_Run_PollsOnTick(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start())
	c := &fakeClient{}
	p := New(c, "dev-1", nil, nil, clock).WithSettings(5*time.Second, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	for i := 1; i <= 2; i++ {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(5 * time.Second)
		require.Eventually(t, func() bool { return len(c.seen()) == i }, time.Second, time.Millisecond)
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestPoller_Run_TriggerPollsImmediately(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start())
	c := &fakeClient{}
	p := New(c, "dev-1", nil, nil, clock).WithSettings(time.Hour, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	p.Trigger()
	require.Eventually(t, func() bool { return len(c.seen()) == 1 }, time.Second, time.Millisecond)
	require.NotNil(t, p.Stats().LastTriggerAt)

	cancel()
	require.Error(t, <-done)
}

func TestPoller_Trigger_DoesNotBlock(t *testing.T) {
	p := New(&fakeClient{}, "dev-1", nil, nil, clockwork.NewFakeClockAt(start()))
	p.Trigger()
	p.Trigger()
	p.Trigger()
	require.Len(t, p.triggerCh, 1)
}
