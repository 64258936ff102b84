package events

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	subscriberBuffer = 16
	pongWait         = 60 * time.Second
)

// Hub streams ingestion events to websocket subscribers.
type Hub struct {
	mu           sync.RWMutex
	subscribers  map[string]*subscriber
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	writeTimeout time.Duration
	logger       *zap.Logger
}

type subscriber struct {
	id          string
	householdID int64 // 0 receives every household
	ws          *websocket.Conn
	send        chan []byte
}

// NewHub builds websocket hub.
func NewHub(pingInterval, writeTimeout time.Duration, logger *zap.Logger) *Hub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &Hub{
		subscribers: make(map[string]*subscriber),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingInterval: pingInterval,
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// Publish implements Notifier. Slow subscribers drop the event instead of blocking.
func (h *Hub) Publish(_ context.Context, event IngestionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subscribers {
		if sub.householdID != 0 && sub.householdID != event.HouseholdID {
			continue
		}
		select {
		case sub.send <- payload:
		default:
			h.logger.Warn("dropping event, subscriber buffer full", zap.String("subscriber_id", sub.id))
		}
	}
	return nil
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Serve upgrades the request and streams events until the client disconnects or ctx ends.
// householdID 0 subscribes to every household.
func (h *Hub) Serve(ctx context.Context, w http.ResponseWriter, r *http.Request, householdID int64) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	sub := &subscriber{
		id:          uuid.NewString(),
		householdID: householdID,
		ws:          conn,
		send:        make(chan []byte, subscriberBuffer),
	}
	h.mu.Lock()
	h.subscribers[sub.id] = sub
	h.mu.Unlock()
	h.logger.Info("event subscriber connected", zap.String("subscriber_id", sub.id), zap.Int64("household_id", householdID))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go h.writePump(ctx, sub)

	// Closing the connection is the only way to unblock a pending ReadMessage.
	readDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = sub.ws.Close()
		case <-readDone:
		}
	}()
	h.readPump(sub)
	close(readDone)
	h.remove(sub)
	return nil
}

// readPump only services control frames; subscribers never send data.
func (h *Hub) readPump(sub *subscriber) {
	sub.ws.SetReadLimit(512)
	_ = sub.ws.SetReadDeadline(time.Now().Add(pongWait))
	sub.ws.SetPongHandler(func(string) error {
		return sub.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := sub.ws.ReadMessage(); err != nil {
			h.logger.Info("event subscriber closed", zap.String("subscriber_id", sub.id), zap.Error(err))
			return
		}
	}
}

func (h *Hub) writePump(ctx context.Context, sub *subscriber) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.send:
			if !ok {
				_ = h.write(sub, websocket.CloseMessage, []byte{})
				return
			}
			if err := h.write(sub, websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := h.write(sub, websocket.PingMessage, []byte("ping")); err != nil {
				return
			}
		}
	}
}

func (h *Hub) write(sub *subscriber, messageType int, data []byte) error {
	_ = sub.ws.SetWriteDeadline(time.Now().Add(h.writeTimeout))
	return sub.ws.WriteMessage(messageType, data)
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	delete(h.subscribers, sub.id)
	h.mu.Unlock()
	close(sub.send)
	_ = sub.ws.Close()
}
