package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/bingo-backend/internal/presenter"
)

const sendBuffer = 256

// Client is one browser connection.
type Client struct {
	id     string
	send   chan Message
	mu     sync.Mutex
	closed bool
}

func NewClient(id string) *Client {
	return &Client{
		id:   id,
		send: make(chan Message, sendBuffer),
	}
}

// Send queues a message without blocking. It returns false if the client is
// closed or too slow.
func (that *Client) Send(msg Message) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return false
	}

	select {
	case that.send <- msg:
		return true
	default:
		return false
	}
}

func (that *Client) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.closed {
		that.closed = true
		close(that.send)
	}
}

// Hub fans presenter events out to every connected client.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[*Client]bool

	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:     logger.With("component", "ws-hub"),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is done, then closes every client.
func (that *Hub) Run(ctx context.Context) {
	defer close(that.done)

	for {
		select {
		case <-ctx.Done():
			that.mu.Lock()
			for client := range that.clients {
				client.Close()
				delete(that.clients, client)
			}
			that.mu.Unlock()

			return

		case client := <-that.register:
			that.mu.Lock()
			that.clients[client] = true
			total := len(that.clients)
			that.mu.Unlock()

			that.logger.Info("client registered", "client_id", client.id, "total_clients", total)

		case client := <-that.unregister:
			that.remove(client)

		case msg := <-that.broadcast:
			that.mu.RLock()
			clients := make([]*Client, 0, len(that.clients))
			for client := range that.clients {
				clients = append(clients, client)
			}
			that.mu.RUnlock()

			for _, client := range clients {
				if !client.Send(msg) {
					that.logger.Warn("dropping slow client", "client_id", client.id)
					that.remove(client)
				}
			}
		}
	}
}

func (that *Hub) remove(client *Client) {
	that.mu.Lock()
	_, ok := that.clients[client]
	if ok {
		delete(that.clients, client)
		client.Close()
	}
	total := len(that.clients)
	that.mu.Unlock()

	if ok {
		that.logger.Info("client unregistered", "client_id", client.id, "total_clients", total)
	}
}

// Register adds a client. After the hub stopped the client is closed instead.
func (that *Hub) Register(client *Client) {
	select {
	case that.register <- client:
	case <-that.done:
		client.Close()
	}
}

func (that *Hub) Unregister(client *Client) {
	select {
	case that.unregister <- client:
	case <-that.done:
	}
}

// Broadcast queues msg for every client. It never blocks: when the queue is
// full the message is dropped.
func (that *Hub) Broadcast(msg Message) {
	select {
	case that.broadcast <- msg:
	default:
		that.logger.Warn("broadcast channel full, dropping message", "action", msg.Action)
	}
}

// Publish sends a presenter event to every client as {"action": type, "payload": event}.
func (that *Hub) Publish(event presenter.Event) {
	msg, err := newMessage(event.Type, event)
	if err != nil {
		that.logger.Error("failed to encode event", "type", event.Type, "error", err)
		return
	}

	that.Broadcast(msg)
}

func (that *Hub) ClientCount() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.clients)
}
