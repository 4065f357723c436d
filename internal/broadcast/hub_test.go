package broadcast

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/loopreel/loopreel/internal/initctl"
)

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(url, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var e envelope
	require.NoError(t, json.Unmarshal(data, &e))
	return e
}

func TestHubBroadcastsInitializationUpdateToConnectedClient(t *testing.T) {
	hub := &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan envelope, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
	go hub.Run()
	defer hub.Close()

	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dial(t, server.URL)

	// the dial may race hub.register; give it a moment before broadcasting
	time.Sleep(20 * time.Millisecond)
	hub.BroadcastInitializationUpdate(initctl.Update{Stage: initctl.StageComplete})

	env := readEnvelope(t, conn)
	require.Equal(t, EventInitializationUpdate, env.Type)
}

func TestHubSendsInitializationUpdateOnConnect(t *testing.T) {
	hub := &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan envelope, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
	hub.SetStatusProvider(func() initctl.Update {
		return initctl.Update{Stage: initctl.StageFillingQueue, Progress: 42}
	})
	go hub.Run()
	defer hub.Close()

	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dial(t, server.URL)

	env := readEnvelope(t, conn)
	require.Equal(t, EventInitializationUpdate, env.Type)

	data, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var update initctl.Update
	require.NoError(t, json.Unmarshal(data, &update))
	require.Equal(t, initctl.StageFillingQueue, update.Stage)
	require.Equal(t, float64(42), update.Progress)
}

func TestHubClientCountTracksConnections(t *testing.T) {
	hub := &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan envelope, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
	go hub.Run()
	defer hub.Close()

	server := httptest.NewServer(hub)
	defer server.Close()

	require.Equal(t, 0, hub.ClientCount())
	conn := dial(t, server.URL)
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 1, hub.ClientCount())

	require.NoError(t, conn.Close())
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 0, hub.ClientCount())
}

func TestBroadcastDropsWhenChannelSaturated(t *testing.T) {
	hub := &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan envelope, 1),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
	// Run is intentionally not started: broadcast channel fills and the
	// second send must not block the test.
	hub.broadcastEvent(EventMainLog, "first")
	hub.broadcastEvent(EventMainLog, "second")
}
