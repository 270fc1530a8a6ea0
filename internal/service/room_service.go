package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"planningpoker/internal/cache"
	"planningpoker/internal/model"
	"planningpoker/internal/repository"
	"planningpoker/internal/roomid"

	"go.uber.org/zap"
)

const (
	// DefaultVoteSystem is used when create omits a vote system
	DefaultVoteSystem = "fibonacci"

	maxCreateAttempts = 5
	maxVoteLength     = 16
	maxStoryURLLength = 2048
)

// RoomService handles room lifecycle and membership.
//
// Mutations that take an actor check it against the room's admin and
// settings. A nil actor skips those checks; it is meant for internal callers.
type RoomService struct {
	roomRepo    repository.RoomRepo
	playerRepo  repository.PlayerRepo
	roomCache   cache.RoomCache
	broadcaster Broadcaster
	log         *zap.SugaredLogger
	now         func() time.Time
	suffix      func(string) (string, error)
}

// NewRoomService creates a new room service
func NewRoomService(
	roomRepo repository.RoomRepo,
	playerRepo repository.PlayerRepo,
	roomCache cache.RoomCache,
	log *zap.SugaredLogger,
) *RoomService {
	return &RoomService{
		roomRepo:    roomRepo,
		playerRepo:  playerRepo,
		roomCache:   roomCache,
		broadcaster: nopBroadcaster{},
		log:         log,
		now:         time.Now,
		suffix:      roomid.AppendRandomSuffix,
	}
}

// SetBroadcaster sets the realtime broadcaster
func (s *RoomService) SetBroadcaster(b Broadcaster) {
	if b == nil {
		b = nopBroadcaster{}
	}
	s.broadcaster = b
}

// GetRoom retrieves a room by its roomId, reading through the cache
func (s *RoomService) GetRoom(ctx context.Context, roomID string) (*model.Room, error) {
	room, err := s.roomCache.Get(ctx, roomID)
	if err != nil {
		s.log.Warnw("room cache read failed", "roomId", roomID, "error", err)
	}
	if room != nil {
		return room, nil
	}

	room, err = s.roomRepo.GetByRoomID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	s.cache(ctx, room)
	return room, nil
}

// GetRoomView retrieves a room projected for viewer (nil means anonymous)
func (s *RoomService) GetRoomView(ctx context.Context, roomID string, viewer *model.Player) (*model.RoomView, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	viewerID := ""
	if viewer != nil {
		viewerID = viewer.ID
	}
	return room.View(viewerID, s.names(ctx, room)), nil
}

// CreateRoom creates a room named by req.RoomID with creator as its admin and
// returns the final roomId. A taken slug gets a random suffix.
func (s *RoomService) CreateRoom(ctx context.Context, creator *model.Player, req model.CreateRoomRequest) (string, error) {
	if creator == nil {
		s.log.Errorw("creator player not found", "roomName", req.RoomID)
		return "", ErrCreatorNotFound
	}

	// The display name is stored verbatim; only the slug is normalized.
	prettyName := req.RoomID
	slug, err := roomid.FormatStringToRoomID(prettyName)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRoomName, err)
	}

	voteSystem := strings.TrimSpace(req.VoteSystem)
	if voteSystem == "" {
		voteSystem = DefaultVoteSystem
	}

	candidate := slug
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		if attempt > 0 {
			if candidate, err = s.suffix(slug); err != nil {
				return "", err
			}
		}

		room := model.NewRoom(candidate, prettyName, voteSystem, req.Settings(), creator.ID, s.now())
		err = s.roomRepo.Insert(ctx, room)
		if errors.Is(err, repository.ErrDuplicateRoomID) {
			s.log.Debugw("room id taken", "roomId", candidate)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create room: %w", err)
		}

		s.cache(ctx, room)
		s.log.Infow("room created", "roomId", candidate, "playerId", creator.PlayerID)
		return candidate, nil
	}

	s.log.Errorw("room id conflict", "slug", slug, "attempts", maxCreateAttempts)
	return "", ErrRoomIDConflict
}

// RemoveRoom deletes a room. Admin only.
func (s *RoomService) RemoveRoom(ctx context.Context, actor *model.Player, roomID string) (Outcome, error) {
	room, err := s.loadForUpdate(ctx, roomID)
	if err != nil || room == nil {
		return OutcomeNotFound, err
	}
	if err := authorize(room, actor, false); err != nil {
		return OutcomeUnchanged, err
	}

	if err := s.roomRepo.Delete(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.notFound("remove", roomID), nil
		}
		return OutcomeUnchanged, fmt.Errorf("failed to remove room: %w", err)
	}

	s.evict(ctx, roomID)
	s.broadcaster.RoomRemoved(roomID)
	s.log.Infow("room removed", "roomId", roomID)
	return OutcomeApplied, nil
}

// AddParticipant seats the player with external id playerID in the room.
// Re-adding a seated player is OutcomeUnchanged. A locked room rejects new
// players with ErrRoomLocked. An actor may add itself; adding someone else
// takes an admin.
func (s *RoomService) AddParticipant(ctx context.Context, actor *model.Player, roomID, playerID string) (Outcome, error) {
	player, err := s.playerRepo.GetByPlayerID(ctx, playerID)
	if err != nil {
		return OutcomeUnchanged, fmt.Errorf("failed to get player: %w", err)
	}
	if player == nil {
		s.log.Warnw("player not found", "playerId", playerID, "roomId", roomID)
		return OutcomeNotFound, nil
	}

	if actor != nil && actor.ID != player.ID {
		room, err := s.loadForUpdate(ctx, roomID)
		if err != nil || room == nil {
			return OutcomeNotFound, err
		}
		if err := authorize(room, actor, false); err != nil {
			return OutcomeUnchanged, err
		}
	}

	participant := &model.Participant{
		PlayerID:      player.ID,
		Vote:          "",
		IsAdmin:       false,
		IsAllowedVote: true,
		JoinedAt:      s.now(),
	}
	err = s.roomRepo.AddParticipant(ctx, roomID, participant)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return s.notFound("add participant", roomID), nil
	case errors.Is(err, repository.ErrAlreadyMember):
		s.log.Debugw("participant already in room", "playerId", playerID, "roomId", roomID)
		return OutcomeUnchanged, nil
	case errors.Is(err, repository.ErrRoomLocked):
		return OutcomeUnchanged, ErrRoomLocked
	case err != nil:
		return OutcomeUnchanged, fmt.Errorf("failed to add participant: %w", err)
	}

	s.log.Infow("participant added", "playerId", playerID, "roomId", roomID)
	s.publish(ctx, roomID)
	return OutcomeApplied, nil
}

// UpdateLock sets isLocked. Admin only.
func (s *RoomService) UpdateLock(ctx context.Context, actor *model.Player, roomID string, locked bool) (Outcome, error) {
	return s.updateFlag(ctx, actor, roomID, "lock",
		func(*model.Room) bool { return false },
		func(ctx context.Context) error { return s.roomRepo.SetLocked(ctx, roomID, locked) })
}

// UpdateReveal sets isRevealed. Admins, or anyone when the room allows player reveal.
func (s *RoomService) UpdateReveal(ctx context.Context, actor *model.Player, roomID string, revealed bool) (Outcome, error) {
	return s.updateFlag(ctx, actor, roomID, "reveal",
		func(r *model.Room) bool { return r.Settings.PlayerReveal },
		func(ctx context.Context) error { return s.roomRepo.SetRevealed(ctx, roomID, revealed) })
}

// UpdateCurrentStoryURL sets the story being estimated. Admins, or anyone
// when the room allows players to add tickets.
func (s *RoomService) UpdateCurrentStoryURL(ctx context.Context, actor *model.Player, roomID, url string) (Outcome, error) {
	url = strings.TrimSpace(url)
	if utf8.RuneCountInString(url) > maxStoryURLLength {
		return OutcomeUnchanged, ErrInvalidStoryURL
	}
	return s.updateFlag(ctx, actor, roomID, "story url",
		func(r *model.Room) bool { return r.Settings.PlayerAddTicket },
		func(ctx context.Context) error { return s.roomRepo.SetCurrentStoryURL(ctx, roomID, url) })
}

func (s *RoomService) updateFlag(
	ctx context.Context,
	actor *model.Player,
	roomID, op string,
	playersAllowed func(*model.Room) bool,
	write func(context.Context) error,
) (Outcome, error) {
	if actor != nil {
		room, err := s.loadForUpdate(ctx, roomID)
		if err != nil || room == nil {
			return OutcomeNotFound, err
		}
		if err := authorize(room, actor, playersAllowed(room)); err != nil {
			return OutcomeUnchanged, err
		}
	}

	if err := write(ctx); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.notFound(op, roomID), nil
		}
		return OutcomeUnchanged, fmt.Errorf("failed to update %s: %w", op, err)
	}

	s.log.Debugw("room updated", "op", op, "roomId", roomID)
	s.publish(ctx, roomID)
	return OutcomeApplied, nil
}

// CastVote records actor's card. While the room is revealed only admins may
// vote unless the room allows players to change votes.
func (s *RoomService) CastVote(ctx context.Context, actor *model.Player, roomID, vote string) (Outcome, error) {
	if actor == nil {
		return OutcomeUnchanged, ErrPlayerNotFound
	}
	vote = strings.TrimSpace(vote)
	if vote == "" || utf8.RuneCountInString(vote) > maxVoteLength {
		return OutcomeUnchanged, ErrInvalidVote
	}

	room, err := s.loadForUpdate(ctx, roomID)
	if err != nil || room == nil {
		return OutcomeNotFound, err
	}
	p := room.Participant(actor.ID)
	switch {
	case p == nil:
		return OutcomeUnchanged, ErrNotMember
	case !p.IsAllowedVote:
		return OutcomeUnchanged, ErrVoteNotAllowed
	case p.Vote == vote:
		return OutcomeUnchanged, nil
	}

	requireHidden := !p.IsAdmin && !room.Settings.PlayerChangeVote
	err = s.roomRepo.SetVote(ctx, roomID, actor.ID, vote, requireHidden)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return s.notFound("vote", roomID), nil
	case errors.Is(err, repository.ErrNotMember):
		return OutcomeUnchanged, ErrNotMember
	case errors.Is(err, repository.ErrVoteNotAllowed):
		return OutcomeUnchanged, ErrVoteNotAllowed
	case errors.Is(err, repository.ErrVoteLocked):
		return OutcomeUnchanged, ErrVoteLocked
	case err != nil:
		return OutcomeUnchanged, fmt.Errorf("failed to cast vote: %w", err)
	}

	s.publish(ctx, roomID)
	return OutcomeApplied, nil
}

// loadForUpdate reads the room from the store, bypassing the cache. A
// missing room is logged and returned as nil, nil.
func (s *RoomService) loadForUpdate(ctx context.Context, roomID string) (*model.Room, error) {
	room, err := s.roomRepo.GetByRoomID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		s.log.Warnw("room not found", "roomId", roomID)
	}
	return room, nil
}

func (s *RoomService) notFound(op, roomID string) Outcome {
	s.log.Warnw("room not found", "op", op, "roomId", roomID)
	return OutcomeNotFound
}

// publish evicts the cached snapshot and pushes the stored room to
// subscribers. GetRoom refills the cache on the next read.
func (s *RoomService) publish(ctx context.Context, roomID string) {
	s.evict(ctx, roomID)

	room, err := s.roomRepo.GetByRoomID(ctx, roomID)
	if err != nil {
		s.log.Warnw("failed to reload room", "roomId", roomID, "error", err)
		return
	}
	if room == nil {
		return
	}
	s.broadcaster.RoomUpdated(room, s.names(ctx, room))
}

func (s *RoomService) evict(ctx context.Context, roomID string) {
	if err := s.roomCache.Delete(ctx, roomID); err != nil {
		s.log.Warnw("failed to evict room", "roomId", roomID, "error", err)
	}
}

// cache stores a snapshot read from the store. A failed write evicts the key
// so an older snapshot cannot outlive it.
func (s *RoomService) cache(ctx context.Context, room *model.Room) {
	if err := s.roomCache.Set(ctx, room); err != nil {
		s.log.Warnw("failed to cache room", "roomId", room.RoomID, "error", err)
		s.evict(ctx, room.RoomID)
	}
}

// names maps participant ids to display names; lookup failures leave names blank
func (s *RoomService) names(ctx context.Context, room *model.Room) map[string]string {
	names := make(map[string]string, len(room.ParticipantOrder))
	players, err := s.playerRepo.GetByIDs(ctx, room.ParticipantOrder)
	if err != nil {
		s.log.Warnw("failed to load participant names", "roomId", room.RoomID, "error", err)
		return names
	}
	for _, p := range players {
		names[p.ID] = p.Name
	}
	return names
}

// authorize allows admins always and other participants when playersAllowed.
// A nil actor is an internal caller and always passes.
func authorize(room *model.Room, actor *model.Player, playersAllowed bool) error {
	if actor == nil {
		return nil
	}
	p := room.Participant(actor.ID)
	if p == nil {
		return ErrForbidden
	}
	if p.IsAdmin || playersAllowed {
		return nil
	}
	return ErrForbidden
}
