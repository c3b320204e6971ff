package chatws

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/anj-alii/learniverse-skillbridge-33/internal/services"
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

const (
	TypeMessage = "message"
	TypeError   = "error"
)

// Hub fans chat messages and account events out to every open connection of
// a user. A user may hold several connections, one per tab or device.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uuid.UUID
	send   chan []byte
}

type sender interface {
	SendMessage(
		ctx context.Context,
		senderID uuid.UUID,
		conversationID uuid.UUID,
		content string,
	) (*services.ChatDelivery, error)
}

type Message struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversation_id,omitempty"`
	SenderID       string          `json:"sender_id,omitempty"`
	RecipientID    string          `json:"recipient_id,omitempty"`
	Content        string          `json:"content,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
	Timestamp      string          `json:"timestamp"`

	targets []uuid.UUID
	// recipient, when set, limits delivery to one connection.
	recipient *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			set, ok := h.clients[client.userID]
			if !ok {
				continue
			}
			if _, exists := set[client]; exists {
				delete(set, client)
				close(client.send)
			}
			if len(set) == 0 {
				delete(h.clients, client.userID)
			}
		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Publish queues an event for userID without blocking. Events are dropped
// when the queue is full or the user has no open connection.
func (h *Hub) Publish(userID uuid.UUID, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ws hub encode %s event: %v", eventType, err)
		return
	}

	h.enqueue(&Message{
		Type:      eventType,
		Data:      data,
		Timestamp: services.FormatChatTimestamp(time.Now()),
		targets:   []uuid.UUID{userID},
	})
}

func (h *Hub) enqueue(message *Message) {
	select {
	case h.broadcast <- message:
	default:
		log.Printf("ws hub queue full, dropping %s event", message.Type)
	}
}

func (h *Hub) deliver(message *Message) {
	encoded, err := json.Marshal(message)
	if err != nil {
		log.Printf("ws hub encode message: %v", err)
		return
	}

	if message.recipient != nil {
		h.sendToClient(message.recipient, encoded)
		return
	}

	seen := make(map[uuid.UUID]struct{}, len(message.targets))
	for _, userID := range message.targets {
		if _, ok := seen[userID]; ok {
			continue
		}
		seen[userID] = struct{}{}
		h.sendToUser(userID, encoded)
	}
}

func (h *Hub) sendToUser(userID uuid.UUID, payload []byte) {
	set, ok := h.clients[userID]
	if !ok {
		return
	}

	for client := range set {
		h.sendToClient(client, payload)
	}
}

// sendToClient drops a connection whose buffer is full. Only Run may call it,
// so a client's send channel is never written after it is closed.
func (h *Hub) sendToClient(client *Client, payload []byte) {
	set, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, registered := set[client]; !registered {
		return
	}

	select {
	case client.send <- payload:
	default:
		delete(set, client)
		close(client.send)
		if len(set) == 0 {
			delete(h.clients, client.userID)
		}
	}
}

func chatMessage(delivery *services.ChatDelivery) *Message {
	return &Message{
		Type:           TypeMessage,
		ConversationID: delivery.Message.ConversationID.String(),
		SenderID:       delivery.Message.SenderID.String(),
		RecipientID:    delivery.RecipientID.String(),
		Content:        delivery.Message.Content,
		Timestamp:      services.FormatChatTimestamp(delivery.Message.CreatedAt),
		targets:        []uuid.UUID{delivery.Message.SenderID, delivery.RecipientID},
	}
}

// DeliverChat pushes a stored message to both participants.
func (h *Hub) DeliverChat(delivery *services.ChatDelivery) {
	if delivery == nil || delivery.Message == nil {
		return
	}
	h.enqueue(chatMessage(delivery))
}

func (c *Client) ReadPump(service sender) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming struct {
			Type           string `json:"type"`
			ConversationID string `json:"conversation_id"`
			Content        string `json:"content"`
		}
		if err := json.Unmarshal(payload, &incoming); err != nil {
			writeError(c, "invalid message payload")
			continue
		}
		if incoming.Type != TypeMessage {
			writeError(c, "unsupported message type")
			continue
		}

		conversationID, err := uuid.Parse(incoming.ConversationID)
		if err != nil {
			writeError(c, "invalid conversation id")
			continue
		}

		delivery, err := service.SendMessage(context.Background(), c.userID, conversationID, incoming.Content)
		if err != nil {
			writeError(c, "failed to send message")
			continue
		}
		c.hub.DeliverChat(delivery)
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// writeError queues an error frame for this connection only. It goes through
// the hub so it is dropped once the connection has been closed.
func writeError(client *Client, message string) {
	client.hub.enqueue(&Message{
		Type:      TypeError,
		Content:   message,
		Timestamp: services.FormatChatTimestamp(time.Now()),
		recipient: client,
	})
}
