package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"planningpoker/internal/model"
	"planningpoker/internal/service"

	"go.uber.org/zap"
)

type contextKey string

const PlayerKey contextKey = "player"

// SessionResolver turns a bearer token into the player owning the session
type SessionResolver interface {
	ResolveToken(ctx context.Context, token string) (*model.Player, error)
}

// AuthMiddleware resolves the session token on every request
type AuthMiddleware struct {
	resolver SessionResolver
	log      *zap.SugaredLogger
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(resolver SessionResolver, log *zap.SugaredLogger) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver, log: log}
}

// RequireSession validates the token from the Authorization header or the
// token query param and stores the player in the request context.
func (m *AuthMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ExtractToken(r)
		if token == "" {
			http.Error(w, `{"error":"missing authorization"}`, http.StatusUnauthorized)
			return
		}

		player, err := m.resolver.ResolveToken(r.Context(), token)
		switch {
		case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrPlayerNotFound):
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		case err != nil:
			m.log.Errorw("session resolution failed", "path", r.URL.Path, "error", err)
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}

		ctx := WithPlayer(r.Context(), player)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetPlayer extracts the session player from context
func GetPlayer(ctx context.Context) *model.Player {
	if v, ok := ctx.Value(PlayerKey).(*model.Player); ok {
		return v
	}
	return nil
}

// WithPlayer returns a context carrying player
func WithPlayer(ctx context.Context, player *model.Player) context.Context {
	return context.WithValue(ctx, PlayerKey, player)
}

// ExtractToken reads a bearer token, falling back to the token query param
// used by WebSocket clients.
func ExtractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	return r.URL.Query().Get("token")
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
