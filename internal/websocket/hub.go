package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"ethics-review-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ClusterChannel is the Redis channel hubs use to reach clients connected
// to other instances.
const ClusterChannel = "review_cluster_events"

type clusterMessage struct {
	Origin          string          `json:"origin"`
	TargetSessionID string          `json:"target_session_id"`
	Message         json.RawMessage `json:"message"`
}

type Hub struct {
	// Registered clients: SessionID -> clients (several tabs per session)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	// done is closed once Run returns.
	done chan struct{}

	mu sync.RWMutex

	// Redis connection for cross-instance communication, optional
	rdb      *redis.Client
	instance string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		instance:   uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			h.mu.Unlock()
			h.logger.Info("HUB", "Client registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.mu.Lock()
			clients := h.clients[client.SessionID]
			for i, c := range clients {
				if c == client {
					h.clients[client.SessionID] = append(clients[:i], clients[i+1:]...)
					close(client.Send)
					break
				}
			}
			if len(h.clients[client.SessionID]) == 0 {
				delete(h.clients, client.SessionID)
				h.logger.Info("HUB", "Session has no more clients", map[string]interface{}{"session_id": client.SessionID})
			}
			h.mu.Unlock()
		}
	}
}

// add hands c to Run. It reports false when the hub has stopped.
func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, clients := range h.clients {
		for _, c := range clients {
			close(c.Send)
		}
		delete(h.clients, id)
	}
}

// Envelope encodes an event the way followers receive it: {type, data}.
func Envelope(eventType string, data interface{}) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"type": eventType,
		"data": data,
	})
}

// SendToSession delivers an envelope to every client of the session, here
// and on other instances.
func (h *Hub) SendToSession(sessionID, eventType string, data interface{}) error {
	message, err := Envelope(eventType, data)
	if err != nil {
		return err
	}

	h.deliverLocal(sessionID, message)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{
			Origin:          h.instance,
			TargetSessionID: sessionID,
			Message:         message,
		})
		if err := h.rdb.Publish(context.Background(), ClusterChannel, payload).Err(); err != nil {
			h.logger.Warn("HUB", "Failed to publish to cluster", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
		}
	}
	return nil
}

// ClientCount returns how many local clients follow the session.
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

func (h *Hub) deliverLocal(sessionID string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients[sessionID] {
		select {
		case client.Send <- message:
		default:
			h.logger.Warn("HUB", "Client send buffer full, dropping message", map[string]interface{}{"session_id": sessionID})
		}
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, ClusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload clusterMessage
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("HUB", "Malformed cluster message", map[string]interface{}{"error": err.Error()})
			continue
		}
		if payload.Origin == h.instance {
			continue
		}
		h.deliverLocal(payload.TargetSessionID, payload.Message)
	}
}
