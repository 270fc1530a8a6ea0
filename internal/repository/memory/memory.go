// Package memory provides in-process repositories for local runs without
// MongoDB.
package memory

import (
	"context"
	"sync"
	"time"

	"planningpoker/internal/model"
	"planningpoker/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	_ repository.RoomRepo   = (*RoomRepo)(nil)
	_ repository.PlayerRepo = (*PlayerRepo)(nil)
)

// RoomRepo is an in-memory repository.RoomRepo with the same guards as the
// Mongo implementation. Every method holds one lock, so each write is atomic.
type RoomRepo struct {
	mu    sync.Mutex
	rooms map[string]*model.Room
}

// NewRoomRepo creates an empty room store
func NewRoomRepo() *RoomRepo {
	return &RoomRepo{rooms: make(map[string]*model.Room)}
}

// Mutate applies fn to a stored room under the lock. Tests use it to reach
// states no room operation produces, such as an observer seat.
func (m *RoomRepo) Mutate(roomID string, fn func(*model.Room)) error {
	return m.update(roomID, func(r *model.Room) error { fn(r); return nil })
}

// Len returns the number of stored rooms
func (m *RoomRepo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

func cloneRoom(r *model.Room) *model.Room {
	c := *r
	c.Participants = make(map[string]*model.Participant, len(r.Participants))
	for k, p := range r.Participants {
		cp := *p
		c.Participants[k] = &cp
	}
	c.ParticipantOrder = append([]string(nil), r.ParticipantOrder...)
	return &c
}

func (m *RoomRepo) Insert(_ context.Context, room *model.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[room.RoomID]; ok {
		return repository.ErrDuplicateRoomID
	}
	m.rooms[room.RoomID] = cloneRoom(room)
	return nil
}

func (m *RoomRepo) GetByRoomID(_ context.Context, roomID string) (*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return nil, nil
	}
	return cloneRoom(r), nil
}

func (m *RoomRepo) Delete(_ context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[roomID]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rooms, roomID)
	return nil
}

func (m *RoomRepo) update(roomID string, fn func(*model.Room) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := fn(r); err != nil {
		return err
	}
	r.UpdatedAt = time.Now()
	return nil
}

func (m *RoomRepo) SetLocked(_ context.Context, roomID string, locked bool) error {
	return m.update(roomID, func(r *model.Room) error { r.IsLocked = locked; return nil })
}

func (m *RoomRepo) SetRevealed(_ context.Context, roomID string, revealed bool) error {
	return m.update(roomID, func(r *model.Room) error { r.IsRevealed = revealed; return nil })
}

func (m *RoomRepo) SetCurrentStoryURL(_ context.Context, roomID, url string) error {
	return m.update(roomID, func(r *model.Room) error { r.CurrentStoryURL = url; return nil })
}

func (m *RoomRepo) AddParticipant(_ context.Context, roomID string, p *model.Participant) error {
	return m.update(roomID, func(r *model.Room) error {
		if r.HasParticipant(p.PlayerID) {
			return repository.ErrAlreadyMember
		}
		if r.IsLocked {
			return repository.ErrRoomLocked
		}
		cp := *p
		r.Participants[p.PlayerID] = &cp
		r.ParticipantOrder = append(r.ParticipantOrder, p.PlayerID)
		return nil
	})
}

func (m *RoomRepo) SetVote(_ context.Context, roomID, playerID, vote string, requireHidden bool) error {
	return m.update(roomID, func(r *model.Room) error {
		p := r.Participant(playerID)
		switch {
		case p == nil:
			return repository.ErrNotMember
		case !p.IsAllowedVote:
			return repository.ErrVoteNotAllowed
		case requireHidden && r.IsRevealed:
			return repository.ErrVoteLocked
		}
		p.Vote = vote
		return nil
	})
}

// PlayerRepo is an in-memory repository.PlayerRepo
type PlayerRepo struct {
	mu      sync.Mutex
	players map[string]*model.Player
}

// NewPlayerRepo creates a player store seeded with copies of players
func NewPlayerRepo(players ...*model.Player) *PlayerRepo {
	m := &PlayerRepo{players: make(map[string]*model.Player)}
	for _, p := range players {
		cp := *p
		m.players[p.ID] = &cp
	}
	return m
}

func (m *PlayerRepo) Create(_ context.Context, player *model.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if player.ID == "" {
		player.ID = primitive.NewObjectID().Hex()
	}
	for _, p := range m.players {
		if p.PlayerID == player.PlayerID || p.SessionID == player.SessionID {
			return repository.ErrDuplicatePlayer
		}
	}
	cp := *player
	m.players[player.ID] = &cp
	return nil
}

func (m *PlayerRepo) find(match func(*model.Player) bool) *model.Player {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.players {
		if match(p) {
			cp := *p
			return &cp
		}
	}
	return nil
}

func (m *PlayerRepo) GetByID(_ context.Context, id string) (*model.Player, error) {
	return m.find(func(p *model.Player) bool { return p.ID == id }), nil
}

func (m *PlayerRepo) GetByPlayerID(_ context.Context, playerID string) (*model.Player, error) {
	return m.find(func(p *model.Player) bool { return p.PlayerID == playerID }), nil
}

func (m *PlayerRepo) GetBySessionID(_ context.Context, sessionID string) (*model.Player, error) {
	return m.find(func(p *model.Player) bool { return p.SessionID == sessionID }), nil
}

func (m *PlayerRepo) GetByIDs(_ context.Context, ids []string) ([]*model.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Player
	for _, id := range ids {
		if p, ok := m.players[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *PlayerRepo) Touch(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.LastSeenAt = at
	return nil
}
