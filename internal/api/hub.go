/*
Package api
File: hub.go
Description:
    The WebSocket Hub pushes game traffic to every connected UI.

    It keeps a registry of clients and one broadcast channel. The engine's
    state subscription and notification bus feed Publish, and the Hub
    writes each message to every socket.

    Architecture:
    - Hub: The singleton manager.
    - Client: Represents one browser connection.
    - ServeWs: Upgrades a GET request to a WebSocket.
*/

package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/everforgeworks/gangwars/internal/game"
)

// Message types pushed to clients.
const (
	KindState        = "state"
	KindNotification = "notification"
)

// Message is the JSON envelope for everything sent over the socket.
type Message struct {
	Type    string `json:"type"` // KindState or KindNotification
	Payload any    `json:"payload"`
	Sender  string `json:"sender"`
}

// Client represents a single connected browser tab.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte // Buffered outbound messages
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients map[*Client]bool

	// Broadcast carries encoded messages. Use Publish rather than sending
	// directly, so a stalled hub never blocks the engine.
	Broadcast chan []byte

	register   chan *Client
	unregister chan *Client
	done       chan struct{} // Closed when Run returns

	connected atomic.Int64
}

// NewHub creates a Hub. Run must be started before clients connect.
func NewHub() *Hub {
	return &Hub{
		Broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
	}
}

// Run is the hub's event loop. It returns when ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.connected.Store(0)
			return nil

		case client := <-h.register:
			h.clients[client] = true
			h.connected.Store(int64(len(h.clients)))
			log.Println("WS: New Connection Registered")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.connected.Store(int64(len(h.clients)))

		case message := <-h.Broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Buffer full: the client hung or disconnected.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.connected.Store(int64(len(h.clients)))
		}
	}
}

// Connected returns the number of registered clients.
func (h *Hub) Connected() int { return int(h.connected.Load()) }

// Publish encodes a system message and queues it for broadcast. When the
// queue is full the message is dropped.
func (h *Hub) Publish(kind string, payload any) {
	data, err := encode(kind, payload)
	if err != nil {
		log.Printf("WS: encode %s: %v", kind, err)
		return
	}
	select {
	case h.Broadcast <- data:
	default:
		log.Printf("WS: broadcast queue full, dropping %s", kind)
	}
}

// Relay forwards every state change and notification of the engine to the hub.
func Relay(engine *game.Engine, hub *Hub) {
	engine.Subscribe(func(st game.State) { hub.Publish(KindState, st) })
	engine.Listen(func(n game.Notification) { hub.Publish(KindNotification, n) })
}

func encode(kind string, payload any) ([]byte, error) {
	return json.Marshal(Message{Type: kind, Payload: payload, Sender: "system"})
}

// CheckOrigin allows any host, matching the permissive CORS policy.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWs upgrades the request and registers the client. greeting, when
// non-nil, is the first message the client receives.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, greeting []byte) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WS Upgrade Error:", err)
		return
	}

	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256)}
	if greeting != nil {
		client.send <- greeting
	}

	select {
	case client.hub.register <- client:
	case <-hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump drains the socket until it closes. The UI talks to the REST
// endpoints, so inbound frames are ignored.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WS Error: %v", err)
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	defer func() {
		c.conn.Close()
	}()

	// Exits when the hub closes c.send.
	for message := range c.send {
		w, err := c.conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)

		if err := w.Close(); err != nil {
			return
		}
	}
}
