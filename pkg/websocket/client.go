package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"tripmate/internal/models"
	"tripmate/internal/services"
	"tripmate/internal/utils"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	writeWait          = 10 * time.Second
	maxMessageSize     = 4096
	defaultBufferSize  = 1024
	defaultPongTimeout = 60 * time.Second
)

type Client struct {
	hub      *Hub
	handler  *Handler
	conn     *websocket.Conn
	send     chan []byte
	Identity models.UserIdentity
	rooms    map[string]bool

	mu sync.Mutex
	// Live message subscriptions, one per conversation.
	subscriptions map[string]string
}

// inboundFrame is what a device sends: a command scoped to one
// conversation.
type inboundFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
	MessageType    string `json:"message_type"`
	AttachmentURL  string `json:"attachment_url"`
	AttachmentName string `json:"attachment_name"`
}

func NewClient(hub *Hub, handler *Handler, conn *websocket.Conn, identity models.UserIdentity) *Client {
	return &Client{
		hub:           hub,
		handler:       handler,
		conn:          conn,
		send:          make(chan []byte, 256),
		Identity:      identity,
		rooms:         make(map[string]bool),
		subscriptions: make(map[string]string),
	}
}

func (c *Client) readPump() {
	defer func() {
		c.teardown()
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.handler.pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.handler.pongTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket error: %v", err)
			}
			break
		}

		c.handleFrame(message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.handler.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
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

func (c *Client) handleFrame(raw []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.sendError("", "invalid frame")
		return
	}

	conversationID, err := primitive.ObjectIDFromHex(frame.ConversationID)
	if err != nil {
		c.sendError(frame.ConversationID, "invalid conversation id")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch frame.Type {
	case "subscribe":
		c.subscribe(conversationID)

	case "unsubscribe":
		c.unsubscribe(ctx, conversationID)

	case "typing":
		if err := c.handler.messaging.HandleInputChange(ctx, conversationID, c.Identity.ID); err != nil {
			log.Printf("failed to handle typing event: %v", err)
		}

	case "message":
		c.sendMessage(ctx, conversationID, &frame)

	case "read":
		if err := c.handler.messaging.MarkConversationRead(ctx, conversationID, c.Identity.ID); err != nil {
			c.sendError(frame.ConversationID, "failed to mark conversation read")
		}

	default:
		c.sendError(frame.ConversationID, "unknown frame type")
	}
}

func (c *Client) subscribe(conversationID primitive.ObjectID) {
	key := conversationID.Hex()

	c.mu.Lock()
	if _, exists := c.subscriptions[key]; exists {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	subscriptionID, err := c.handler.messaging.Subscribe(context.Background(), conversationID, func(messages []*models.Message) {
		c.hub.sendToClient(c, Event{
			Type:           utils.EventMessageSnapshot,
			ConversationID: key,
			Timestamp:      getCurrentTimestamp(),
			Data: map[string]interface{}{
				"messages": messages,
			},
		})
	})
	if err != nil {
		c.sendError(key, "failed to subscribe")
		return
	}

	c.mu.Lock()
	c.subscriptions[key] = subscriptionID
	c.mu.Unlock()

	c.hub.JoinConversation(c, conversationID)
}

func (c *Client) unsubscribe(ctx context.Context, conversationID primitive.ObjectID) {
	key := conversationID.Hex()

	c.mu.Lock()
	subscriptionID, exists := c.subscriptions[key]
	if exists {
		delete(c.subscriptions, key)
	}
	c.mu.Unlock()

	if !exists {
		return
	}

	c.handler.messaging.Unsubscribe(subscriptionID)
	c.hub.LeaveConversation(c, conversationID)

	// Leaving the screen must never strand the user in the typing set.
	if err := c.handler.messaging.ClearTyping(ctx, conversationID, c.Identity.ID); err != nil {
		log.Printf("failed to clear typing on unsubscribe: %v", err)
	}
}

func (c *Client) sendMessage(ctx context.Context, conversationID primitive.ObjectID, frame *inboundFrame) {
	_, err := c.handler.messaging.SendMessage(ctx, &services.SendMessageInput{
		ConversationID: conversationID,
		Sender:         c.Identity,
		Content:        frame.Content,
		Type:           models.MessageType(frame.MessageType),
		AttachmentURL:  frame.AttachmentURL,
		AttachmentName: frame.AttachmentName,
	})
	if err != nil {
		// Echo the content back so the device can restore its composer.
		c.hub.sendToClient(c, Event{
			Type:           "send_failed",
			ConversationID: conversationID.Hex(),
			Timestamp:      getCurrentTimestamp(),
			Data: map[string]interface{}{
				"content": frame.Content,
				"error":   err.Error(),
			},
		})
	}
}

// teardown runs when the connection drops: every subscription is released
// and typing state cleared, matching screen unmount semantics.
func (c *Client) teardown() {
	c.mu.Lock()
	subscriptions := make(map[string]string, len(c.subscriptions))
	for key, id := range c.subscriptions {
		subscriptions[key] = id
		delete(c.subscriptions, key)
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for key, subscriptionID := range subscriptions {
		c.handler.messaging.Unsubscribe(subscriptionID)

		conversationID, err := primitive.ObjectIDFromHex(key)
		if err != nil {
			continue
		}
		if err := c.handler.messaging.ClearTyping(ctx, conversationID, c.Identity.ID); err != nil {
			log.Printf("failed to clear typing on disconnect: %v", err)
		}
	}
}

func (c *Client) sendError(conversationID, message string) {
	c.hub.sendToClient(c, Event{
		Type:           "error",
		ConversationID: conversationID,
		Timestamp:      getCurrentTimestamp(),
		Data: map[string]interface{}{
			"error": message,
		},
	})
}
