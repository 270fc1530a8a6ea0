package ws

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"planningpoker/internal/model"
	"planningpoker/internal/service"
	"planningpoker/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var _ service.Broadcaster = (*Hub)(nil)

// RoomViewer loads the room snapshot sent on subscribe
type RoomViewer interface {
	GetRoomView(ctx context.Context, roomID string, viewer *model.Player) (*model.RoomView, error)
}

// Handler handles WebSocket connections
type Handler struct {
	hub      *Hub
	sessions middleware.SessionResolver
	rooms    RoomViewer
	upgrader websocket.Upgrader
	log      *zap.SugaredLogger
}

// NewHandler creates a new WebSocket handler. allowedOrigins is the CORS
// origin list; "*" accepts any origin.
func NewHandler(hub *Hub, sessions middleware.SessionResolver, rooms RoomViewer, allowedOrigins string, log *zap.SugaredLogger) *Handler {
	return &Handler{
		hub:      hub,
		sessions: sessions,
		rooms:    rooms,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log,
	}
}

func originChecker(allowed string) func(r *http.Request) bool {
	origins := make(map[string]bool)
	for _, o := range strings.Split(allowed, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins[o] = true
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || origins["*"] || origins[origin]
	}
}

// RoomWS handles GET /v1/ws/rooms/{roomId}
func (h *Handler) RoomWS(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	token := middleware.ExtractToken(r)

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	player, err := h.sessions.ResolveToken(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	view, err := h.rooms.GetRoomView(r.Context(), roomID, player)
	if errors.Is(err, service.ErrRoomNotFound) {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Errorw("failed to load room for subscriber", "roomId", roomID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	snapshot, err := encode(model.MsgRoomUpdated, view)
	if err != nil {
		h.log.Errorw("failed to encode room view", "roomId", roomID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "roomId", roomID, "error", err)
		return
	}

	conn := NewConnection(roomID, player.ID)
	conn.Send <- snapshot
	h.hub.Register(conn)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)

	// A removal between the first load and Register reached no one.
	if _, err := h.rooms.GetRoomView(r.Context(), roomID, nil); errors.Is(err, service.ErrRoomNotFound) {
		h.log.Infow("room removed while subscribing", "roomId", roomID, "playerId", player.PlayerID)
		h.hub.RoomRemoved(roomID)
		return
	}

	h.log.Infow("subscriber joined", "roomId", roomID, "playerId", player.PlayerID)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Clients only listen; anything they send is discarded.
		if _, _, err := wsConn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Debugw("websocket read error", "roomId", conn.RoomID, "error", err)
			}
			return
		}
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
