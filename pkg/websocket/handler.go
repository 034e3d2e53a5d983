package websocket

import (
	"log"
	"net/http"
	"time"

	"tripmate/internal/models"
	"tripmate/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Config tunes the connection upgrade and keepalive behavior. Zero
// values fall back to the package defaults.
type Config struct {
	ReadBufferSize   int
	WriteBufferSize  int
	HandshakeTimeout time.Duration
	PingInterval     time.Duration
	PongTimeout      time.Duration
	AllowedOrigins   []string
}

type Handler struct {
	hub       *Hub
	messaging services.MessagingService
	upgrader  websocket.Upgrader

	pingInterval time.Duration
	pongTimeout  time.Duration
}

func NewHandler(messaging services.MessagingService, cfg Config) *Handler {
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = defaultBufferSize
	}
	if cfg.WriteBufferSize <= 0 {
		cfg.WriteBufferSize = defaultBufferSize
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = defaultPongTimeout
	}
	if cfg.PingInterval <= 0 || cfg.PingInterval >= cfg.PongTimeout {
		// Pings must land inside the pong window or healthy connections
		// get timed out.
		cfg.PingInterval = cfg.PongTimeout * 9 / 10
	}

	hub := NewHub()
	go hub.Run()

	return &Handler{
		hub:       hub,
		messaging: messaging,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   cfg.ReadBufferSize,
			WriteBufferSize:  cfg.WriteBufferSize,
			HandshakeTimeout: cfg.HandshakeTimeout,
			CheckOrigin:      originChecker(cfg.AllowedOrigins),
		},
		pingInterval: cfg.PingInterval,
		pongTimeout:  cfg.PongTimeout,
	}
}

// originChecker admits requests without an Origin header (non-browser
// clients) and, when the allow list contains "*", any origin. Otherwise
// the origin must match the list exactly.
func originChecker(allowedOrigins []string) func(*http.Request) bool {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowAll {
			return true
		}
		return allowed[origin]
	}
}

// HandleWebSocket upgrades the connection for the authenticated user and
// starts the read/write pumps.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	userObjectID, ok := userID.(primitive.ObjectID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	identity := models.UserIdentity{
		ID:     userObjectID,
		Name:   c.GetString("user_name"),
		Avatar: c.GetString("user_avatar"),
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	client := NewClient(h.hub, h, conn, identity)
	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// SendUserEvent pushes an event to all of a user's connected devices. It
// satisfies services.RealtimeNotifier.
func (h *Handler) SendUserEvent(userID primitive.ObjectID, event string, data map[string]interface{}) {
	h.hub.SendToUser(userID, Event{
		Type:      event,
		UserID:    userID.Hex(),
		Timestamp: getCurrentTimestamp(),
		Data:      data,
	})
}

// SendConversationEvent pushes an event to everyone viewing a
// conversation.
func (h *Handler) SendConversationEvent(conversationID primitive.ObjectID, event string, data map[string]interface{}) {
	h.hub.SendToConversation(conversationID, Event{
		Type:           event,
		ConversationID: conversationID.Hex(),
		Timestamp:      getCurrentTimestamp(),
		Data:           data,
	})
}
