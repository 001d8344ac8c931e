package notify

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

// Client is one connected websocket party.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
}

// Hub tracks connected websocket clients keyed by party ID. At most
// one connection per party: a reconnect replaces the previous one.
type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Register attaches a connection for the given party and starts its
// read and write pumps. Any previous connection for the party is closed.
func (h *Hub) Register(id string, conn *websocket.Conn) {
	client := &Client{
		ID:   id,
		Conn: conn,
		Send: make(chan []byte, sendBufferSize),
	}

	h.mu.Lock()
	if prev, ok := h.clients[id]; ok {
		close(prev.Send)
	}
	h.clients[id] = client
	h.mu.Unlock()

	go h.writePump(client)
	go h.readPump(client)
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if h.clients[client.ID] == client {
		delete(h.clients, client.ID)
		close(client.Send)
	}
	h.mu.Unlock()
}

// Deliver sends a message to the party's connection, if any. A slow
// consumer whose send buffer is full is disconnected rather than
// blocking the dispatcher.
//
// The read lock is held across the send attempt: Send is only closed
// under the write lock (Register, remove), so a client found in the map
// here cannot have its channel closed before the select runs. The send
// is non-blocking, so holding the lock is cheap.
func (h *Hub) Deliver(recipient string, message []byte) {
	h.mu.RLock()
	client, ok := h.clients[recipient]
	if !ok {
		h.mu.RUnlock()
		return
	}

	select {
	case client.Send <- message:
		h.mu.RUnlock()
		return
	default:
	}
	h.mu.RUnlock()

	h.logger.Warn("disconnecting slow websocket consumer",
		zap.String("recipient", recipient))
	h.remove(client)
}

func (h *Hub) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames. Clients only listen on this
// channel; it exists to process control frames and detect disconnects.
func (h *Hub) readPump(client *Client) {
	defer h.remove(client)

	client.Conn.SetReadLimit(512)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Ensure Hub implements Sink.
var _ Sink = (*Hub)(nil)
