package rest

import (
	"net/http"
	"time"

	"planningpoker/internal/service"
	"planningpoker/internal/transport/rest/handler"
	"planningpoker/internal/transport/rest/middleware"
	"planningpoker/internal/transport/ws"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// CORS holds the allowed CORS values
type CORS struct {
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

// Container holds all dependencies for the router
type Container struct {
	RoomService   *service.RoomService
	PlayerService *service.PlayerService
	WSHub         *ws.Hub
	CORS          CORS
	Log           *zap.SugaredLogger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	roomHandler := handler.NewRoomHandler(c.RoomService, c.Log)
	playerHandler := handler.NewPlayerHandler(c.PlayerService, c.Log)
	wsHandler := ws.NewHandler(c.WSHub, c.PlayerService, c.RoomService, c.CORS.AllowedOrigins, c.Log)

	authMW := middleware.NewAuthMiddleware(c.PlayerService, c.Log)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.CORS))
	r.Use(requestLogger(c.Log))

	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/players", playerHandler.Register).Methods("POST", "OPTIONS")

	// WebSocket routes (token in query param)
	v1.HandleFunc("/ws/rooms/{roomId}", wsHandler.RoomWS).Methods("GET")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Session routes
	sessionRoutes := v1.NewRoute().Subrouter()
	sessionRoutes.Use(authMW.RequireSession)

	sessionRoutes.HandleFunc("/players/me", playerHandler.Me).Methods("GET", "OPTIONS")
	sessionRoutes.HandleFunc("/rooms", roomHandler.Create).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/rooms/{roomId}", roomHandler.Get).Methods("GET", "OPTIONS")
	sessionRoutes.HandleFunc("/rooms/{roomId}", roomHandler.Remove).Methods("DELETE", "OPTIONS")
	sessionRoutes.HandleFunc("/rooms/{roomId}/participants", roomHandler.AddParticipant).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/rooms/{roomId}/lock", roomHandler.Lock).Methods("PUT", "OPTIONS")
	sessionRoutes.HandleFunc("/rooms/{roomId}/reveal", roomHandler.Reveal).Methods("PUT", "OPTIONS")
	sessionRoutes.HandleFunc("/rooms/{roomId}/story", roomHandler.Story).Methods("PUT", "OPTIONS")
	sessionRoutes.HandleFunc("/rooms/{roomId}/vote", roomHandler.Vote).Methods("PUT", "OPTIONS")

	return r
}

func corsMiddleware(cfg CORS) mux.MiddlewareFunc {
	if cfg.AllowedOrigins == "" {
		cfg.AllowedOrigins = "*"
	}
	if cfg.AllowedMethods == "" {
		cfg.AllowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
	}
	if cfg.AllowedHeaders == "" {
		cfg.AllowedHeaders = "Content-Type, Authorization"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", cfg.AllowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", cfg.AllowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", cfg.AllowedHeaders)

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLogger(log *zap.SugaredLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// WebSocket upgrades need the raw writer for hijacking.
			if r.Header.Get("Upgrade") != "" {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Debugw("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
			)
		})
	}
}
