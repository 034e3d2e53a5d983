package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	rooms      map[string]map[*Client]bool
	mutex      sync.RWMutex
}

// Event is the frame pushed to connected devices.
type Event struct {
	Type           string                 `json:"type"`
	ConversationID string                 `json:"conversation_id,omitempty"`
	UserID         string                 `json:"user_id,omitempty"`
	Timestamp      int64                  `json:"timestamp"`
	Data           map[string]interface{} `json:"data,omitempty"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[client] = true

	// Every device joins its user's personal room for notification fanout.
	h.joinRoom(client, userRoom(client.Identity.ID))

	log.Printf("websocket client registered: %s", client.Identity.ID.Hex())
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)

		for roomID, room := range h.rooms {
			if _, exists := room[client]; exists {
				delete(room, client)
				if len(room) == 0 {
					delete(h.rooms, roomID)
				}
			}
		}

		log.Printf("websocket client unregistered: %s", client.Identity.ID.Hex())
	}
}

func (h *Hub) JoinConversation(client *Client, conversationID primitive.ObjectID) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.joinRoom(client, conversationRoom(conversationID))
}

func (h *Hub) LeaveConversation(client *Client, conversationID primitive.ObjectID) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	roomID := conversationRoom(conversationID)
	if room, exists := h.rooms[roomID]; exists {
		delete(room, client)
		delete(client.rooms, roomID)

		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func (h *Hub) SendToUser(userID primitive.ObjectID, event Event) {
	h.sendToRoom(userRoom(userID), event)
}

func (h *Hub) SendToConversation(conversationID primitive.ObjectID, event Event) {
	h.sendToRoom(conversationRoom(conversationID), event)
}

func (h *Hub) sendToRoom(roomID string, event Event) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	room, exists := h.rooms[roomID]
	if !exists {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal websocket event: %v", err)
		return
	}

	for client := range room {
		select {
		case client.send <- data:
		default:
			// Slow consumer; drop the frame rather than block the room.
		}
	}
}

func (h *Hub) sendToClient(client *Client, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal websocket event: %v", err)
		return
	}

	select {
	case client.send <- data:
	default:
	}
}

func (h *Hub) joinRoom(client *Client, roomID string) {
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
	client.rooms[roomID] = true
}

func userRoom(userID primitive.ObjectID) string {
	return "user_" + userID.Hex()
}

func conversationRoom(conversationID primitive.ObjectID) string {
	return "conversation_" + conversationID.Hex()
}

func getCurrentTimestamp() int64 {
	return time.Now().Unix()
}
