// Package broadcast implements the WebSocket fan-out hub (C12): a
// typed event enum, a per-client outbound queue, and log-replay for
// freshly-connected clients — grounded on the pack's own WebSocket hub
// shape (the teacher has no WebSocket surface of its own).
package broadcast

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/loopreel/loopreel/internal/initctl"
	"github.com/loopreel/loopreel/internal/log"
)

// Event is the typed outbound WebSocket event name (spec §6).
type Event string

const (
	EventMainLog              Event = "main-log"
	EventInitializationUpdate Event = "initialization-update"
)

type envelope struct {
	Type Event `json:"type"`
	Data any   `json:"data"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub owns the set of connected clients and fans broadcastEvent calls
// out to each client's own outbound queue, dropping a client that falls
// behind rather than blocking the broadcaster.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan envelope
	register   chan *client
	unregister chan *client
	done       chan struct{}

	clientCount atomic.Int32

	statusProvider atomic.Pointer[func() initctl.Update]
}

// NewHub constructs a Hub and subscribes it to internal/log so every
// structured log line is fanned out as a main-log event.
func NewHub() *Hub {
	h := &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan envelope, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
	log.OnEntry(func(e log.Entry) { h.BroadcastMainLog(e) })
	return h
}

// Run processes register/unregister/broadcast events until Close is
// called. It must run in its own goroutine for the lifetime of the hub.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for c := range h.clients {
				_ = c.conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(2*time.Second),
				)
				close(c.send)
				delete(h.clients, c)
			}
			h.clientCount.Store(0)
			return
		case c := <-h.register:
			h.clients[c] = true
			h.clientCount.Store(int32(len(h.clients)))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.clientCount.Store(int32(len(h.clients)))
			}
		case msg := <-h.broadcast:
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.clientCount.Store(int32(len(h.clients)))
		}
	}
}

// Close stops Run and disconnects every client.
func (h *Hub) Close() {
	close(h.done)
}

// ClientCount reports the number of currently connected clients.
func (h *Hub) ClientCount() int {
	return int(h.clientCount.Load())
}

// SetStatusProvider wires the function used to fetch the current
// initialization state for newly-connecting clients (spec §4.10/§6). It
// takes a func rather than a concrete *initctl.Controller so Hub stays
// decoupled from the controller's lifecycle and construction order.
func (h *Hub) SetStatusProvider(fn func() initctl.Update) {
	h.statusProvider.Store(&fn)
}

func (h *Hub) broadcastEvent(event Event, data any) {
	select {
	case h.broadcast <- envelope{Type: event, Data: data}:
	default:
		// broadcast channel saturated; drop rather than block the caller
	}
}

// BroadcastMainLog fans a log entry out as a main-log event.
func (h *Hub) BroadcastMainLog(entry log.Entry) {
	h.broadcastEvent(EventMainLog, entry)
}

// BroadcastInitializationUpdate implements initctl.Broadcaster.
func (h *Hub) BroadcastInitializationUpdate(update initctl.Update) {
	h.broadcastEvent(EventInitializationUpdate, update)
}

// ServeHTTP upgrades the connection, registers the client, replays
// recently-buffered log entries (spec §6's main-log replay-on-connect),
// and starts its read/write pumps.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithComponent("broadcast").Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, 32)}
	h.register <- c

	if fn := h.statusProvider.Load(); fn != nil {
		data, err := json.Marshal(envelope{Type: EventInitializationUpdate, Data: (*fn)()})
		if err == nil {
			select {
			case c.send <- data:
			default:
			}
		}
	}

	for _, entry := range log.RecentEntries() {
		data, err := json.Marshal(envelope{Type: EventMainLog, Data: entry})
		if err != nil {
			continue
		}
		select {
		case c.send <- data:
		default:
		}
	}

	go c.writePump()
	go c.readPump()
}
