package model

import "time"

// RoomSettings controls what non-admin participants may do in a room
type RoomSettings struct {
	PlayerReveal     bool `json:"playerReveal" bson:"playerReveal"`
	PlayerChangeVote bool `json:"playerChangeVote" bson:"playerChangeVote"`
	PlayerAddTicket  bool `json:"playerAddTicket" bson:"playerAddTicket"`
}

// Participant is a player's seat in a room
type Participant struct {
	PlayerID      string    `json:"playerId" bson:"playerId"` // internal Player.ID
	Vote          string    `json:"vote" bson:"vote"`         // "" means no vote
	IsAdmin       bool      `json:"isAdmin" bson:"isAdmin"`
	IsAllowedVote bool      `json:"isAllowedVote" bson:"isAllowedVote"`
	JoinedAt      time.Time `json:"joinedAt" bson:"joinedAt"`
}

// Room is an estimation room. Participants are keyed by player ID;
// ParticipantOrder keeps join order for display.
type Room struct {
	RoomID           string                  `json:"roomId" bson:"roomId"`
	PrettyName       string                  `json:"prettyName" bson:"prettyName"`
	IsLocked         bool                    `json:"isLocked" bson:"isLocked"`
	IsRevealed       bool                    `json:"isRevealed" bson:"isRevealed"`
	VoteSystem       string                  `json:"voteSystem" bson:"voteSystem"`
	CurrentStoryURL  string                  `json:"currentStoryUrl" bson:"currentStoryUrl"`
	Settings         RoomSettings            `json:"settings" bson:"settings"`
	Participants     map[string]*Participant `json:"participants" bson:"participants"`
	ParticipantOrder []string                `json:"participantOrder" bson:"participantOrder"`
	CreatedAt        time.Time               `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time               `json:"updatedAt" bson:"updatedAt"`
}

// NewRoom builds a room with the creator seated as its only admin
func NewRoom(roomID, prettyName, voteSystem string, settings RoomSettings, creatorID string, now time.Time) *Room {
	return &Room{
		RoomID:     roomID,
		PrettyName: prettyName,
		VoteSystem: voteSystem,
		Settings:   settings,
		Participants: map[string]*Participant{
			creatorID: {
				PlayerID:      creatorID,
				IsAdmin:       true,
				IsAllowedVote: true,
				JoinedAt:      now,
			},
		},
		ParticipantOrder: []string{creatorID},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Participant returns the seat held by playerID, or nil
func (r *Room) Participant(playerID string) *Participant {
	if r == nil || r.Participants == nil {
		return nil
	}
	return r.Participants[playerID]
}

// HasParticipant reports whether playerID is seated in the room
func (r *Room) HasParticipant(playerID string) bool {
	return r.Participant(playerID) != nil
}

// IsAdmin reports whether playerID is an admin of the room
func (r *Room) IsAdmin(playerID string) bool {
	p := r.Participant(playerID)
	return p != nil && p.IsAdmin
}

// OrderedParticipants returns seats in join order
func (r *Room) OrderedParticipants() []*Participant {
	out := make([]*Participant, 0, len(r.ParticipantOrder))
	for _, id := range r.ParticipantOrder {
		if p, ok := r.Participants[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// CreateRoomRequest is the input for rooms.create
type CreateRoomRequest struct {
	RoomID           string `json:"roomId"` // display name, slugified server-side
	VoteSystem       string `json:"voteSystem"`
	PlayerReveal     bool   `json:"playerReveal"`
	PlayerChangeVote bool   `json:"playerChangeVote"`
	PlayerAddTicket  bool   `json:"playerAddTicket"`
}

// Settings extracts the room settings from the request
func (r CreateRoomRequest) Settings() RoomSettings {
	return RoomSettings{
		PlayerReveal:     r.PlayerReveal,
		PlayerChangeVote: r.PlayerChangeVote,
		PlayerAddTicket:  r.PlayerAddTicket,
	}
}

// ParticipantView is a participant as seen by one viewer
type ParticipantView struct {
	PlayerID      string `json:"playerId"`
	Name          string `json:"name,omitempty"`
	Vote          string `json:"vote,omitempty"`
	HasVoted      bool   `json:"hasVoted"`
	IsAdmin       bool   `json:"isAdmin"`
	IsAllowedVote bool   `json:"isAllowedVote"`
}

// RoomView is the room snapshot sent to clients; votes stay hidden until reveal
type RoomView struct {
	RoomID          string            `json:"roomId"`
	PrettyName      string            `json:"prettyName"`
	IsLocked        bool              `json:"isLocked"`
	IsRevealed      bool              `json:"isRevealed"`
	VoteSystem      string            `json:"voteSystem"`
	CurrentStoryURL string            `json:"currentStoryUrl"`
	Settings        RoomSettings      `json:"settings"`
	Participants    []ParticipantView `json:"participants"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// View projects the room for viewerID. An empty viewerID sees no votes
// unless the room is revealed.
func (r *Room) View(viewerID string, names map[string]string) *RoomView {
	v := &RoomView{
		RoomID:          r.RoomID,
		PrettyName:      r.PrettyName,
		IsLocked:        r.IsLocked,
		IsRevealed:      r.IsRevealed,
		VoteSystem:      r.VoteSystem,
		CurrentStoryURL: r.CurrentStoryURL,
		Settings:        r.Settings,
		Participants:    make([]ParticipantView, 0, len(r.ParticipantOrder)),
		UpdatedAt:       r.UpdatedAt,
	}
	for _, p := range r.OrderedParticipants() {
		pv := ParticipantView{
			PlayerID:      p.PlayerID,
			Name:          names[p.PlayerID],
			HasVoted:      p.Vote != "",
			IsAdmin:       p.IsAdmin,
			IsAllowedVote: p.IsAllowedVote,
		}
		if r.IsRevealed || (viewerID != "" && p.PlayerID == viewerID) {
			pv.Vote = p.Vote
		}
		v.Participants = append(v.Participants, pv)
	}
	return v
}
