package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/threadline/storefront-backend/internal/app/model"
	"github.com/threadline/storefront-backend/pkg/logger"
)

const (
	// Messages a client may send per second before being ignored.
	maxMessagesPerSecond = 10

	sendBufferSize = 64
)

// Event types pushed to clients.
const (
	EventOrderStatus = "order_status"
	EventPong        = "pong"
)

// ClientMessage is a message received from a client.
type ClientMessage struct {
	Type string `json:"type"`
}

// OrderStatusEvent is pushed to a user's sessions whenever one of their
// orders is created or changes status.
type OrderStatusEvent struct {
	Type        string            `json:"type"`
	OrderID     uint              `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	Status      model.OrderStatus `json:"status"`
	TotalCents  int64             `json:"total_cents"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Client is one websocket session. A user may hold several.
type Client struct {
	Hub    *Hub
	Conn   *Conn
	UserID string
	Send   chan []byte

	messageCount  int
	lastResetTime time.Time
	rateMu        sync.Mutex

	sendMu sync.Mutex
	closed bool
}

func NewClient(hub *Hub, conn *Conn, userID string) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, sendBufferSize),
	}
}

// trySend queues data without blocking. It reports false when the buffer is
// full or the session has already been closed.
func (c *Client) trySend(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

type userMessage struct {
	userID  string
	message []byte
}

// Hub fans messages out to the sessions of individual users. All mutations of
// the client table happen on the Run goroutine.
type Hub struct {
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan userMessage
	done       chan struct{}

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan userMessage, 1024),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and deliveries until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			sessions := len(h.clients[client.UserID])
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"user_id":        client.UserID,
				"total_sessions": sessions,
			})

		case client := <-h.unregister:
			h.removeClient(client)

		case msg := <-h.broadcast:
			h.mu.RLock()
			targets := append([]*Client(nil), h.clients[msg.userID]...)
			h.mu.RUnlock()

			for _, client := range targets {
				if !client.trySend(msg.message) {
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"user_id": msg.userID,
					})
					h.removeClient(client)
				}
			}
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	kept := make([]*Client, 0, len(list))
	removed := false
	for _, c := range list {
		if c == client {
			removed = true
			continue
		}
		kept = append(kept, c)
	}
	if !removed {
		return
	}
	if len(kept) == 0 {
		delete(h.clients, client.UserID)
	} else {
		h.clients[client.UserID] = kept
	}
	client.closeSend()

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"user_id":            client.UserID,
		"remaining_sessions": len(kept),
	})
}

func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// SendToUser queues message for every session of userID. Messages for users
// without sessions are dropped.
func (h *Hub) SendToUser(userID string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal websocket message", err)
		return err
	}

	select {
	case h.broadcast <- userMessage{userID: userID, message: data}:
	default:
		logger.Warn("Broadcast channel full, message dropped", map[string]interface{}{
			"user_id": userID,
		})
	}
	return nil
}

// NotifyOrderStatus pushes the order's current status to its owner.
func (h *Hub) NotifyOrderStatus(order *model.Order) {
	if order == nil {
		return
	}
	_ = h.SendToUser(order.UserID, OrderStatusEvent{
		Type:        EventOrderStatus,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		TotalCents:  order.TotalCents,
		UpdatedAt:   order.UpdatedAt,
	})
}

func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// HandleClientMessage answers keepalive pings from clients. Anything else is
// ignored.
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.rateMu.Lock()
	now := time.Now()
	if now.Sub(client.lastResetTime) >= time.Second {
		client.messageCount = 0
		client.lastResetTime = now
	}
	client.messageCount++
	count := client.messageCount
	client.rateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"user_id": client.UserID,
			"count":   count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"user_id": client.UserID,
			"error":   err.Error(),
		})
		return
	}

	if msg.Type == "ping" {
		data, _ := json.Marshal(ClientMessage{Type: EventPong})
		client.trySend(data)
	}
}
