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

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxNameLength = 40

// PlayerService handles player identity and session resolution
type PlayerService struct {
	playerRepo   repository.PlayerRepo
	sessionCache cache.SessionCache
	authSvc      *AuthService
	log          *zap.SugaredLogger
	now          func() time.Time
	newID        func() string
}

// NewPlayerService creates a new player service
func NewPlayerService(
	playerRepo repository.PlayerRepo,
	sessionCache cache.SessionCache,
	authSvc *AuthService,
	log *zap.SugaredLogger,
) *PlayerService {
	return &PlayerService{
		playerRepo:   playerRepo,
		sessionCache: sessionCache,
		authSvc:      authSvc,
		log:          log,
		now:          time.Now,
		newID:        func() string { return uuid.New().String() },
	}
}

// Register creates a player with a fresh session and returns its token
func (s *PlayerService) Register(ctx context.Context, name string) (*model.SessionResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return nil, ErrInvalidName
	}

	now := s.now()
	player := &model.Player{
		PlayerID:   s.newID(),
		SessionID:  s.newID(),
		Name:       name,
		CreatedAt:  now,
		LastSeenAt: now,
	}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	session := &model.Session{ID: player.SessionID, PlayerID: player.ID, CreatedAt: now}
	if err := s.sessionCache.Set(ctx, session); err != nil {
		// Resolution falls back to the player directory.
		s.log.Warnw("failed to cache session", "playerId", player.PlayerID, "error", err)
	}

	token, err := s.authSvc.IssueSessionToken(player.SessionID, player.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.log.Infow("player registered", "playerId", player.PlayerID)
	return &model.SessionResponse{
		PlayerID:  player.PlayerID,
		SessionID: player.SessionID,
		Token:     token,
		Name:      player.Name,
	}, nil
}

// ResolveSession returns the player owning sessionID, or ErrPlayerNotFound
func (s *PlayerService) ResolveSession(ctx context.Context, sessionID string) (*model.Player, error) {
	if sessionID == "" {
		return nil, ErrPlayerNotFound
	}

	session, err := s.sessionCache.Get(ctx, sessionID)
	if err != nil {
		s.log.Warnw("session cache read failed", "error", err)
	}
	if session != nil {
		player, err := s.playerRepo.GetByID(ctx, session.PlayerID)
		if err != nil {
			return nil, fmt.Errorf("failed to get player: %w", err)
		}
		if player != nil && player.SessionID == sessionID {
			return player, nil
		}
		// The cached binding is stale; drop it before consulting the store.
		if err := s.sessionCache.Delete(ctx, sessionID); err != nil {
			s.log.Warnw("failed to drop stale session", "error", err)
		}
	}

	player, err := s.playerRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	if player == nil {
		return nil, ErrPlayerNotFound
	}

	if err := s.sessionCache.Set(ctx, &model.Session{ID: sessionID, PlayerID: player.ID, CreatedAt: s.now()}); err != nil {
		s.log.Warnw("failed to cache session", "playerId", player.PlayerID, "error", err)
	}
	return player, nil
}

// ResolveToken validates a bearer token and resolves its session
func (s *PlayerService) ResolveToken(ctx context.Context, token string) (*model.Player, error) {
	claims, err := s.authSvc.ValidateSessionToken(token)
	if err != nil {
		return nil, err
	}
	player, err := s.ResolveSession(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if err := s.playerRepo.Touch(ctx, player.ID, s.now()); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.log.Debugw("failed to touch player", "playerId", player.PlayerID, "error", err)
	}
	return player, nil
}

// GetByPlayerID looks a player up by external id
func (s *PlayerService) GetByPlayerID(ctx context.Context, playerID string) (*model.Player, error) {
	player, err := s.playerRepo.GetByPlayerID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	if player == nil {
		return nil, ErrPlayerNotFound
	}
	return player, nil
}
