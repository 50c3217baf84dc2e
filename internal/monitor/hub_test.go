package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensepath-app/sensepath/internal/telemetry"
)

func dialTestHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serveWS(hub, w, r)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("hub never reached %d clients (have %d)", want, hub.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcastsFrames(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := dialTestHub(t, hub)
	waitForClients(t, hub, 1)

	rec := telemetry.FrameRecord{
		SessionID: "session-a",
		State:     "Stop",
		Center:    0.6,
		Urgency:   1.0,
		Timestamp: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, hub.Consume(rec))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg frameMessage
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, "frame", msg.Type)
	assert.Equal(t, "Stop", msg.Frame.State)
	assert.Equal(t, 1.0, msg.Frame.Urgency)
}

func TestHubClientDisconnect(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := dialTestHub(t, hub)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHubConsumeWithoutClients(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	// No Run loop, no clients: Consume must not block even when the
	// broadcast queue fills up. Records vary so none are suppressed as
	// duplicates.
	for i := 0; i < 1000; i++ {
		require.NoError(t, hub.Consume(telemetry.FrameRecord{State: "Normal", Center: float64(i)}))
	}
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHubSuppressesIdenticalRecords(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := dialTestHub(t, hub)
	waitForClients(t, hub, 1)

	rec := telemetry.FrameRecord{
		SessionID: "session-a",
		State:     "Normal",
		Center:    4.2,
		Timestamp: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, hub.Consume(rec))
	require.NoError(t, hub.Consume(rec)) // identical, suppressed

	changed := rec
	changed.Center = 1.1
	require.NoError(t, hub.Consume(changed))

	// The duplicate never made it out, so the changed record arrives
	// immediately after the first.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg frameMessage
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, 4.2, msg.Frame.Center)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err = conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, 1.1, msg.Frame.Center)
}
