package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"planningpoker/internal/app"
	"planningpoker/internal/config"
	"planningpoker/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := context.Background()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Errorw("failed to start", "error", err)
		return err
	}
	defer a.Close(context.Background())

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: a.Router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server starting", "port", cfg.Port, "store", cfg.StoreDriver)
		log.Infow("endpoints",
			"players", "POST /v1/players, GET /v1/players/me",
			"rooms", "POST /v1/rooms, GET|DELETE /v1/rooms/{roomId}",
			"membership", "POST /v1/rooms/{roomId}/participants",
			"lifecycle", "PUT /v1/rooms/{roomId}/{lock|reveal|story|vote}",
			"ws", "GET /v1/ws/rooms/{roomId}?token=",
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Infow("shutting down server", "signal", sig.String())
	case err := <-errCh:
		log.Errorw("listen failed", "error", err)
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	log.Info("server exited")
	return nil
}
