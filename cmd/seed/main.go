package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"planningpoker/internal/app"
	"planningpoker/internal/config"
	"planningpoker/internal/logger"
	"planningpoker/internal/model"
)

func main() {
	name := flag.String("name", "Demo Admin", "display name of the seeded player")
	room := flag.String("room", "Demo Sprint", "display name of the seeded room")
	voteSystem := flag.String("vote-system", "fibonacci", "card set of the seeded room")
	open := flag.Bool("open", false, "let every participant reveal, change votes and set the story")
	flag.Parse()

	if err := seed(*name, *room, *voteSystem, *open); err != nil {
		fmt.Fprintln(os.Stderr, "seed failed:", err)
		os.Exit(1)
	}
}

func seed(name, roomName, voteSystem string, open bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogLevel, "console")
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	session, err := a.PlayerService.Register(ctx, name)
	if err != nil {
		return err
	}
	player, err := a.PlayerService.ResolveSession(ctx, session.SessionID)
	if err != nil {
		return err
	}

	roomID, err := a.RoomService.CreateRoom(ctx, player, model.CreateRoomRequest{
		RoomID:           roomName,
		VoteSystem:       voteSystem,
		PlayerReveal:     open,
		PlayerChangeVote: open,
		PlayerAddTicket:  open,
	})
	if err != nil {
		return err
	}

	fmt.Printf("player: %s (%s)\n", session.Name, session.PlayerID)
	fmt.Printf("room:   %s\n", roomID)
	fmt.Printf("token:  %s\n", session.Token)
	return nil
}
