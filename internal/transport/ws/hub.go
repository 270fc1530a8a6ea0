package ws

import (
	"encoding/json"
	"sync"

	"planningpoker/internal/model"

	"go.uber.org/zap"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Connection is one subscriber to a room
type Connection struct {
	RoomID   string
	PlayerID string // internal Player.ID, used to unmask the viewer's own vote
	Send     chan []byte
}

// NewConnection creates a connection with a buffered send queue
func NewConnection(roomID, playerID string) *Connection {
	return &Connection{
		RoomID:   roomID,
		PlayerID: playerID,
		Send:     make(chan []byte, 256),
	}
}

// event is a room change queued for fan-out
type event struct {
	roomID  string
	room    *model.Room // nil when the room was removed
	names   map[string]string
	removed bool
}

// Hub manages WebSocket connections per room and implements
// service.Broadcaster. Each subscriber gets its own view of the room.
type Hub struct {
	rooms map[string]map[*Connection]struct{}
	mu    sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *event
	done       chan struct{}
	closeOnce  sync.Once

	encode func(msgType string, payload interface{}) ([]byte, error)
	log    *zap.SugaredLogger
}

// NewHub creates a new WebSocket hub and starts its loop
func NewHub(log *zap.SugaredLogger) *Hub {
	h := &Hub{
		rooms:      make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *event, 256),
		done:       make(chan struct{}),
		encode:     encode,
		log:        log,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.rooms[conn.RoomID] == nil {
				h.rooms[conn.RoomID] = make(map[*Connection]struct{})
			}
			h.rooms[conn.RoomID][conn] = struct{}{}
			h.mu.Unlock()
			h.log.Debugw("subscriber connected", "roomId", conn.RoomID, "playerId", conn.PlayerID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if h.drop(conn) {
				h.log.Debugw("subscriber disconnected", "roomId", conn.RoomID, "playerId", conn.PlayerID)
			}
			h.mu.Unlock()

		case ev := <-h.broadcast:
			if ev.removed {
				h.mu.Lock()
				h.fanOutRemoved(ev.roomID)
				h.mu.Unlock()
				continue
			}
			h.mu.RLock()
			h.fanOutUpdated(ev)
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for _, conns := range h.rooms {
				for conn := range conns {
					h.drop(conn)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

// drop removes conn and closes its queue. Caller holds mu.
func (h *Hub) drop(conn *Connection) bool {
	conns, ok := h.rooms[conn.RoomID]
	if !ok {
		return false
	}
	if _, ok := conns[conn]; !ok {
		return false
	}
	delete(conns, conn)
	close(conn.Send)
	if len(conns) == 0 {
		delete(h.rooms, conn.RoomID)
	}
	return true
}

func (h *Hub) fanOutUpdated(ev *event) {
	for conn := range h.rooms[ev.roomID] {
		data, err := h.encode(model.MsgRoomUpdated, ev.room.View(conn.PlayerID, ev.names))
		if err != nil {
			h.log.Errorw("failed to encode room view", "roomId", ev.roomID, "playerId", conn.PlayerID, "error", err)
			continue
		}
		select {
		case conn.Send <- data:
		default:
			// Drop message if buffer full
		}
	}
}

func (h *Hub) fanOutRemoved(roomID string) {
	data, err := h.encode(model.MsgRoomRemoved, model.RoomRemovedPayload{RoomID: roomID})
	if err != nil {
		h.log.Errorw("failed to encode room removal", "roomId", roomID, "error", err)
		return
	}
	for conn := range h.rooms[roomID] {
		select {
		case conn.Send <- data:
		default:
		}
		h.drop(conn)
	}
}

func encode(msgType string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Message{Type: msgType, Payload: raw})
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// RoomUpdated pushes a fresh view of room to its subscribers
func (h *Hub) RoomUpdated(room *model.Room, names map[string]string) {
	h.enqueue(&event{roomID: room.RoomID, room: room, names: names})
}

// RoomRemoved notifies subscribers and disconnects them
func (h *Hub) RoomRemoved(roomID string) {
	h.enqueue(&event{roomID: roomID, removed: true})
}

func (h *Hub) enqueue(ev *event) {
	select {
	case h.broadcast <- ev:
	case <-h.done:
	default:
		h.log.Warnw("broadcast queue full, dropping event", "roomId", ev.roomID)
	}
}

// Subscribers returns the number of connections watching roomID
func (h *Hub) Subscribers(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Close disconnects every subscriber and stops the hub loop
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}
