package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/looney-race/game/engine"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Turns queued for the hub before Publish starts dropping them.
	broadcastBuffer = 256
)

// Message event names
const (
	EventSnapshot = "snapshot"
	EventTurn     = "turn"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Spectator feed is read-only
		return true
	},
}

// Message represents a WebSocket message
type Message struct {
	RaceID string           `json:"race_id"`
	Event  string           `json:"event"`
	Events []engine.Event   `json:"events,omitempty"`
	State  *engine.Snapshot `json:"state,omitempty"`
}

// Client represents a WebSocket client watching one race
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	raceID string
}

type countRequest struct {
	raceID string
	reply  chan int
}

// Hub maintains the set of active clients and broadcasts race turns
type Hub struct {
	// Registered clients by race ID
	races map[string]map[*Client]bool

	// Outbound messages from races
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	counts chan countRequest
	quit   chan struct{}
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		races:      make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		counts:     make(chan countRequest),
		quit:       make(chan struct{}),
	}
}

// Run starts the hub's event loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case req := <-h.counts:
			req.reply <- len(h.races[req.raceID])

		case <-h.quit:
			for _, clients := range h.races {
				for client := range clients {
					h.unregisterClient(client)
				}
			}
			return
		}
	}
}

// Stop ends the event loop and disconnects every client
func (h *Hub) Stop() {
	close(h.quit)
}

// ServeWS upgrades the request and subscribes the connection to raceID.
// A non-nil snap is sent first so the client starts from the current board.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, raceID string, snap *engine.Snapshot) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 256),
		raceID: raceID,
	}

	if snap != nil {
		data, err := json.Marshal(&Message{RaceID: raceID, Event: EventSnapshot, State: snap})
		if err != nil {
			log.Printf("Failed to marshal WebSocket snapshot: %v", err)
		} else {
			client.send <- data
		}
	}

	select {
	case h.register <- client:
	case <-h.quit:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// Publish queues one committed turn of a race for its watchers. It never
// blocks: when the queue is full the turn is dropped.
func (h *Hub) Publish(raceID string, events []engine.Event, snap engine.Snapshot) {
	message := &Message{
		RaceID: raceID,
		Event:  EventTurn,
		Events: events,
		State:  &snap,
	}

	select {
	case h.broadcast <- message:
	default:
		log.Printf("WebSocket queue full, dropping turn of race %s", raceID)
	}
}

// ClientCount returns how many clients watch raceID. The hub must be running.
func (h *Hub) ClientCount(raceID string) int {
	reply := make(chan int, 1)
	select {
	case h.counts <- countRequest{raceID: raceID, reply: reply}:
		return <-reply
	case <-h.quit:
		return 0
	}
}

// registerClient adds a client to a race
func (h *Hub) registerClient(client *Client) {
	if h.races[client.raceID] == nil {
		h.races[client.raceID] = make(map[*Client]bool)
	}
	h.races[client.raceID][client] = true

	log.Printf("Client registered for race %s (total clients: %d)",
		client.raceID, len(h.races[client.raceID]))
}

// unregisterClient removes a client from a race
func (h *Hub) unregisterClient(client *Client) {
	if clients, ok := h.races[client.raceID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)

			if len(clients) == 0 {
				delete(h.races, client.raceID)
			}

			log.Printf("Client unregistered from race %s (remaining clients: %d)",
				client.raceID, len(clients))
		}
	}
}

// broadcastMessage sends a message to all clients watching its race
func (h *Hub) broadcastMessage(message *Message) {
	clients, ok := h.races[message.RaceID]
	if !ok {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal broadcast message: %v", err)
		return
	}

	for client := range clients {
		select {
		case client.send <- data:
		default:
			// Client's send channel is full, drop it
			h.unregisterClient(client)
		}
	}
}

// readPump drains the connection so pongs and close frames are handled
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Spectators have nothing to say
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection, one
// JSON document per frame
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
