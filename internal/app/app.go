package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"planningpoker/internal/cache"
	"planningpoker/internal/config"
	"planningpoker/internal/repository"
	"planningpoker/internal/repository/memory"
	"planningpoker/internal/service"
	"planningpoker/internal/transport/rest"
	"planningpoker/internal/transport/ws"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

// App holds the wired service graph
type App struct {
	PlayerRepo   repository.PlayerRepo
	RoomRepo     repository.RoomRepo
	SessionCache cache.SessionCache
	RoomCache    cache.RoomCache

	AuthService   *service.AuthService
	PlayerService *service.PlayerService
	RoomService   *service.RoomService
	Hub           *ws.Hub
	Router        http.Handler

	closers []func(context.Context) error
	log     *zap.SugaredLogger
}

// New connects the configured stores and wires every layer
func New(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*App, error) {
	a := &App{log: log}

	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Warnw("using in-memory store; data is lost on exit")
		a.RoomRepo = memory.NewRoomRepo()
		a.PlayerRepo = memory.NewPlayerRepo()
		a.RoomCache = cache.NewNopRoomCache()
		a.SessionCache = cache.NewNopSessionCache()
	default:
		if err := a.connectStores(ctx, cfg); err != nil {
			a.Close(context.Background())
			return nil, err
		}
	}

	a.AuthService = service.NewAuthService(cfg.JWTSecret, cfg.SessionTTL)
	a.PlayerService = service.NewPlayerService(a.PlayerRepo, a.SessionCache, a.AuthService, log)
	a.RoomService = service.NewRoomService(a.RoomRepo, a.PlayerRepo, a.RoomCache, log)

	a.Hub = ws.NewHub(log)
	a.RoomService.SetBroadcaster(a.Hub)
	a.closers = append(a.closers, func(context.Context) error {
		a.Hub.Close()
		return nil
	})

	a.Router = rest.NewRouter(&rest.Container{
		RoomService:   a.RoomService,
		PlayerService: a.PlayerService,
		WSHub:         a.Hub,
		CORS: rest.CORS{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: cfg.CORSAllowedMethods,
			AllowedHeaders: cfg.CORSAllowedHeaders,
		},
		Log: log,
	})
	return a, nil
}

func (a *App) connectStores(ctx context.Context, cfg *config.Config) error {
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	a.closers = append(a.closers, mongoClient.Disconnect)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}
	a.log.Infow("connected to MongoDB", "db", cfg.MongoDB)

	db := mongoClient.Database(cfg.MongoDB)
	a.RoomRepo = repository.NewRoomRepo(db, a.log)
	a.PlayerRepo = repository.NewPlayerRepo(db, a.log)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr()})
	a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	a.log.Infow("connected to Redis", "addr", cfg.RedisAddr())

	a.RoomCache = cache.NewRoomCache(rdb, cfg.RoomCacheTTL)
	a.SessionCache = cache.NewSessionCache(rdb, cfg.SessionTTL)
	return nil
}

// Close releases connections in reverse order of acquisition
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.Warnw("close failed", "error", err)
		}
	}
	a.closers = nil
}
