package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"match-service/internal/models"
	"match-service/internal/observability"
)

const (
	wsKind       = "match"
	wsRoutingKey = "ws_events.matches"
	writeWait    = 10 * time.Second
)

// Publisher delivers websocket lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

type client struct {
	conn *websocket.Conn
	info ConnInfo
	mu   sync.Mutex
}

func (c *client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub maintains active websocket rooms, one per match.
type Hub struct {
	rooms  map[string]map[*websocket.Conn]*client
	events Publisher
	mu     sync.RWMutex
}

// NewHub creates an empty hub. events may be nil.
func NewHub(events Publisher) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*websocket.Conn]*client),
		events: events,
	}
}

// AddClient registers a websocket connection to a match room.
func (h *Hub) AddClient(matchID string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[matchID]; !ok {
		h.rooms[matchID] = make(map[*websocket.Conn]*client)
	}
	h.rooms[matchID][conn] = &client{conn: conn, info: info}
}

// RemoveClient removes a websocket connection.
func (h *Hub) RemoveClient(matchID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.rooms[matchID]; ok {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(h.rooms, matchID)
		}
	}
}

// RoomSize returns the number of connections subscribed to a match.
func (h *Hub) RoomSize(matchID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[matchID])
}

func (h *Hub) clients(matchID string) []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	list := make([]*client, 0, len(h.rooms[matchID]))
	for _, c := range h.rooms[matchID] {
		list = append(list, c)
	}
	return list
}

// BroadcastMessage sends message to all clients of a match.
func (h *Hub) BroadcastMessage(matchID string, msg models.Message) {
	event := models.MatchEvent{Type: "message", Message: &msg}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("websocket encode error: %v", err)
		return
	}
	for _, c := range h.clients(matchID) {
		if err := c.write(payload); err != nil {
			log.Printf("websocket write error: %v", err)
			c.conn.Close()
			h.RemoveClient(matchID, c.conn)
			h.publishWSEvent(context.Background(), "ws_error", matchID, c.info, err.Error())
		}
	}
}

// NotifyMessage delivers a stored message to this instance's subscribers.
func (h *Hub) NotifyMessage(_ context.Context, msg models.Message) {
	h.BroadcastMessage(msg.MatchID, msg)
}

func (h *Hub) publishWSEvent(ctx context.Context, event, matchID string, info ConnInfo, reason string) {
	observability.IncWSEvent(wsKind, event)
	if h.events == nil {
		return
	}

	duration := int64(0)
	if !info.ConnectedAt.IsZero() && event != "ws_connect" {
		duration = time.Since(info.ConnectedAt).Milliseconds()
	}
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        wsKind,
			"resource_id": matchID,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": duration,
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"group_id":  info.GroupID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	ctx = observability.WithRequestID(ctx, info.RequestID)
	if err := h.events.Publish(ctx, wsRoutingKey, observability.NewEvent("ws_events", event, payload)); err != nil {
		log.Printf("ws event publish failed event=%s err=%v", event, err)
	}
}
