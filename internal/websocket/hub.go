package websocket

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"guardian-backend/internal/notify"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub relays published child alerts to connected parent dashboards.
// One redis subscription per child is held while at least one socket
// is listening for that child.
type Hub struct {
	mu          sync.RWMutex
	connections map[string][]*websocket.Conn
	redisClient *redis.Client
	jwtSecret   []byte
	cancelFuncs map[string]context.CancelFunc
}

func NewHub(redisClient *redis.Client, jwtSecret string) *Hub {
	return &Hub{
		connections: make(map[string][]*websocket.Conn),
		redisClient: redisClient,
		jwtSecret:   []byte(jwtSecret),
		cancelFuncs: make(map[string]context.CancelFunc),
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Authenticate via token query param
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if _, ok := claims["client_id"].(string); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	childID := r.URL.Query().Get("child_id")
	if childID == "" {
		http.Error(w, "Missing child_id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.registerConnection(childID, conn)

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregisterConnection(childID, conn)
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				break
			}
		}
	}()
}

func (h *Hub) registerConnection(childID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[childID] = append(h.connections[childID], conn)

	// Start pub/sub subscription if this is the first connection for this child
	if len(h.connections[childID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[childID] = cancel
		go h.subscribeToPubSub(ctx, childID)
	}

	log.Printf("WebSocket connected: child %s (total: %d)", childID, len(h.connections[childID]))
}

func (h *Hub) unregisterConnection(childID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	conns := h.connections[childID]
	for i, c := range conns {
		if c == conn {
			h.connections[childID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	// If no more connections, cancel pub/sub
	if len(h.connections[childID]) == 0 {
		delete(h.connections, childID)
		if cancel, ok := h.cancelFuncs[childID]; ok {
			cancel()
			delete(h.cancelFuncs, childID)
		}
	}

	log.Printf("WebSocket disconnected: child %s", childID)
}

func (h *Hub) subscribeToPubSub(ctx context.Context, childID string) {
	pubsub := h.redisClient.Subscribe(ctx, notify.AlertChannel(childID))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(childID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(childID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[childID] {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}
