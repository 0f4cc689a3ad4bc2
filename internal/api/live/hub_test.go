package live

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/BearBump/PizzaTrack/internal/models"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type rawEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) rawEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev rawEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestHub_SendsStateOnConnect(t *testing.T) {
	h := NewHub(func() models.BoardSnapshot {
		return models.BoardSnapshot{DeliveryTime: "29:59", Cost: "$10"}
	})
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	conn := dial(t, srv)
	ev := read(t, conn)
	require.Equal(t, EventState, ev.Type)

	var snap models.BoardSnapshot
	require.NoError(t, json.Unmarshal(ev.Data, &snap))
	require.Equal(t, "29:59", snap.DeliveryTime)
	require.Equal(t, "$10", snap.Cost)
}

func TestHub_BroadcastsToasts(t *testing.T) {
	h := NewHub(nil)
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	a := dial(t, srv)
	b := dial(t, srv)
	require.Eventually(t, func() bool { return h.Connected() == 2 }, time.Second, time.Millisecond)

	require.NoError(t, h.Notify(context.Background(), models.Notification{Title: "Free Pizza!", Subtitle: "7 seconds ago"}))

	for _, conn := range []*websocket.Conn{a, b} {
		ev := read(t, conn)
		require.Equal(t, EventToast, ev.Type)
		var n models.Notification
		require.NoError(t, json.Unmarshal(ev.Data, &n))
		require.Equal(t, "Free Pizza!", n.Title)
	}
}

func TestHub_RemovesClosedClients(t *testing.T) {
	h := NewHub(nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return h.Connected() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return h.Connected() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_PublishStateWithoutClients(t *testing.T) {
	h := NewHub(nil)
	h.PublishState(models.BoardSnapshot{Flipped: "Yes"})
	require.Zero(t, h.Connected())
}
