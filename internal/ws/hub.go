package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Event is a message pushed to websocket clients.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// EventConnected is sent once to every client right after it joins a feed.
const EventConnected = "feed.connected"

type channelEvent struct {
	Channel string
	Event   Event
}

// Hub owns the room map. Rooms are keyed by feed channel ("kitchen",
// "cashier"); Run is the only writer.
type Hub struct {
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *channelEvent

	done     chan struct{}
	stopOnce sync.Once

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *channelEvent, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. Call it as a goroutine. It returns after
// Shutdown, once every connected client has been told to close.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.channel] == nil {
				h.rooms[client.channel] = make(map[*Client]bool)
			}
			h.rooms[client.channel][client] = true
			h.mu.Unlock()
			h.greet(client)

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event.Event)
			if err != nil {
				log.Printf("ERROR: encode %s event: %v", event.Event.Type, err)
				continue
			}

			h.mu.Lock()
			for client := range h.rooms[event.Channel] {
				select {
				case client.send <- message:
				default:
					log.Printf("WARNING: dropping slow %s feed client", event.Channel)
					h.remove(client)
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for _, clients := range h.rooms {
				for client := range clients {
					h.remove(client)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

// Shutdown stops Run and disconnects every client. Safe to call more than once.
func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() { close(h.done) })
}

// greet tells a newly registered client which feed it joined.
func (h *Hub) greet(client *Client) {
	payload, _ := json.Marshal(map[string]string{"channel": client.channel})
	message, _ := json.Marshal(Event{Type: EventConnected, Payload: payload})
	select {
	case client.send <- message:
	default:
	}
}

// remove drops a client and closes its send channel. Caller holds mu.
func (h *Hub) remove(client *Client) {
	clients, ok := h.rooms[client.channel]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.channel)
	}
}

// join hands a client to Run. It reports false once the hub has shut down.
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// leave hands a disconnected client to Run. A no-op after shutdown.
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// BroadcastToChannel queues an event for every client subscribed to channel.
// Events published after Shutdown are dropped.
func (h *Hub) BroadcastToChannel(channel string, event Event) {
	select {
	case h.broadcast <- &channelEvent{Channel: channel, Event: event}:
	case <-h.done:
	}
}

// ClientCount returns the number of clients in a channel's room.
func (h *Hub) ClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[channel])
}
