package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/quadpass/quadpass/internal/auth"
	"github.com/quadpass/quadpass/internal/realtime"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Handler upgrades connections, runs the session lifecycle against the
// registry and relays client commands (auth, subscribe, unsubscribe).
type Handler struct {
	registry *realtime.Registry
	verifier auth.Verifier
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewHandler(registry *realtime.Registry, verifier auth.Verifier, allowedOrigins []string, logger *zap.Logger) *Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	allowAll := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = struct{}{}
	}

	return &Handler{
		registry: registry,
		verifier: verifier,
		logger:   logger.Named("ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowAll {
					return true
				}
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

type clientMessage struct {
	Action string `json:"action"`
	Token  string `json:"token,omitempty"`
	Scope  string `json:"scope,omitempty"`
	ID     string `json:"id,omitempty"`
}

type serverMessage struct {
	Type    string `json:"type"`
	Topic   string `json:"topic,omitempty"`
	Message string `json:"message,omitempty"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", zap.Error(err))
		return
	}

	connID := uuid.NewString()
	out := h.registry.Register(connID)
	h.logger.Info("session connected", zap.String("connection_id", connID))

	go h.writePump(conn, out, connID)
	h.readPump(conn, connID)
}

// readPump processes inbound frames until the connection drops for any
// reason; the deferred unregister covers normal closes and timeouts alike.
func (h *Handler) readPump(conn *websocket.Conn, connID string) {
	defer func() {
		h.registry.Unregister(connID)
		_ = conn.Close()
		h.logger.Info("session disconnected", zap.String("connection_id", connID))
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("read error", zap.String("connection_id", connID), zap.Error(err))
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.sendAck(connID, serverMessage{Type: "error", Message: "malformed message"})
			continue
		}
		h.handleMessage(connID, msg)
	}
}

func (h *Handler) handleMessage(connID string, msg clientMessage) {
	switch msg.Action {
	case "auth":
		userID, err := h.verifier.UserID(msg.Token)
		if err != nil {
			h.sendAck(connID, serverMessage{Type: "error", Message: "invalid token"})
			return
		}
		// Re-auth as another user must not keep the old private queue.
		if prev, ok := h.registry.LookupUser(connID); ok && prev != userID {
			h.registry.Unsubscribe(connID, realtime.UserQueue(prev))
		}
		h.registry.BindUser(connID, userID)
		h.registry.Subscribe(connID, realtime.UserQueue(userID))
		h.sendAck(connID, serverMessage{Type: "authenticated"})
	case "subscribe", "unsubscribe":
		topic, ok := scopeTopic(msg.Scope, msg.ID)
		if !ok {
			h.sendAck(connID, serverMessage{Type: "error", Message: "unknown scope"})
			return
		}
		if msg.Action == "subscribe" {
			h.registry.Subscribe(connID, topic)
			h.sendAck(connID, serverMessage{Type: "subscribed", Topic: topic})
		} else {
			h.registry.Unsubscribe(connID, topic)
			h.sendAck(connID, serverMessage{Type: "unsubscribed", Topic: topic})
		}
	default:
		h.sendAck(connID, serverMessage{Type: "error", Message: "unknown action"})
	}
}

// writePump owns all writes to the socket. It drains the session's outbound
// channel and exits when the registry closes it on unregister.
func (h *Handler) writePump(conn *websocket.Conn, out <-chan []byte, connID string) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case payload, ok := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.logger.Debug("write error", zap.String("connection_id", connID), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) sendAck(connID string, msg serverMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.registry.SendTo(connID, payload)
}

func scopeTopic(scope, id string) (string, bool) {
	if id == "" {
		return "", false
	}
	switch scope {
	case "event":
		return realtime.EventTopic(id), true
	case "campus":
		return realtime.CampusTopic(id), true
	case "organization":
		return realtime.OrganizationTopic(id), true
	default:
		return "", false
	}
}
