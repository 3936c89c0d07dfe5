package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/r5vtools/forge/internal/engine"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialHub(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_BroadcastsToClient(t *testing.T) {
	hub, wsURL := startHub(t)
	conn := dialHub(t, wsURL)

	// Registration races the first broadcast; keep notifying until one
	// lands.
	require.Eventually(t, func() bool {
		hub.Notify(engine.Event{Type: engine.EventDirtyChanged, Data: map[string]any{"unsaved": true}})
		conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		var evt engine.Event
		return conn.ReadJSON(&evt) == nil && evt.Type == engine.EventDirtyChanged
	}, 2*time.Second, 50*time.Millisecond)
}

func TestHub_MultipleClients(t *testing.T) {
	hub, wsURL := startHub(t)
	a := dialHub(t, wsURL)
	b := dialHub(t, wsURL)

	for _, conn := range []*websocket.Conn{a, b} {
		c := conn
		require.Eventually(t, func() bool {
			hub.Notify(engine.Event{Type: engine.EventSaveCompleted})
			c.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
			var evt engine.Event
			return c.ReadJSON(&evt) == nil && evt.Type == engine.EventSaveCompleted
		}, 2*time.Second, 50*time.Millisecond)
	}
}

func TestHub_NotifyWithoutRunIsNoop(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	// Must not block or panic.
	hub.Notify(engine.Event{Type: engine.EventSaveCompleted})
}

func TestHub_DisconnectCleansUp(t *testing.T) {
	hub, wsURL := startHub(t)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	conn.Close()

	// Broadcasting after the disconnect must not wedge the hub.
	for i := 0; i < 10; i++ {
		hub.Notify(engine.Event{Type: engine.EventArtifactCreated})
	}
}
