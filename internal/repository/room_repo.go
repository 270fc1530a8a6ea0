package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"planningpoker/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// RoomRepo stores rooms keyed by their roomId slug
type RoomRepo interface {
	Insert(ctx context.Context, room *model.Room) error
	GetByRoomID(ctx context.Context, roomID string) (*model.Room, error)
	Delete(ctx context.Context, roomID string) error

	SetLocked(ctx context.Context, roomID string, locked bool) error
	SetRevealed(ctx context.Context, roomID string, revealed bool) error
	SetCurrentStoryURL(ctx context.Context, roomID, url string) error

	// AddParticipant seats p unless the room is locked or p is already seated.
	AddParticipant(ctx context.Context, roomID string, p *model.Participant) error
	// SetVote records a vote for a seated, vote-eligible player. With
	// requireHidden set the write only applies while the room is unrevealed.
	SetVote(ctx context.Context, roomID, playerID, vote string, requireHidden bool) error
}

type roomRepo struct {
	collection *mongo.Collection
	log        *zap.SugaredLogger
	now        func() time.Time
}

// NewRoomRepo creates a room repository and ensures its indexes
func NewRoomRepo(db *mongo.Database, log *zap.SugaredLogger) RoomRepo {
	repo := &roomRepo{
		collection: db.Collection("rooms"),
		log:        log,
		now:        time.Now,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *roomRepo) ensureIndexes(ctx context.Context) {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "roomId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("by_roomId"),
	})
	if err != nil {
		r.log.Warnw("failed to create index", "collection", r.collection.Name(), "error", err)
	}
}

func participantPath(playerID string) string {
	return "participants." + playerID
}

func (r *roomRepo) Insert(ctx context.Context, room *model.Room) error {
	_, err := r.collection.InsertOne(ctx, room)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateRoomID
		}
		return fmt.Errorf("insert room %s: %w", room.RoomID, err)
	}
	return nil
}

func (r *roomRepo) GetByRoomID(ctx context.Context, roomID string) (*model.Room, error) {
	var room model.Room
	err := r.collection.FindOne(ctx, bson.M{"roomId": roomID}).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // Room not found
		}
		return nil, fmt.Errorf("find room %s: %w", roomID, err)
	}
	return &room, nil
}

func (r *roomRepo) Delete(ctx context.Context, roomID string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"roomId": roomID})
	if err != nil {
		return fmt.Errorf("delete room %s: %w", roomID, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *roomRepo) SetLocked(ctx context.Context, roomID string, locked bool) error {
	return r.patch(ctx, roomID, bson.M{"isLocked": locked})
}

func (r *roomRepo) SetRevealed(ctx context.Context, roomID string, revealed bool) error {
	return r.patch(ctx, roomID, bson.M{"isRevealed": revealed})
}

func (r *roomRepo) SetCurrentStoryURL(ctx context.Context, roomID, url string) error {
	return r.patch(ctx, roomID, bson.M{"currentStoryUrl": url})
}

// patch applies a single $set to the room and bumps updatedAt
func (r *roomRepo) patch(ctx context.Context, roomID string, fields bson.M) error {
	fields["updatedAt"] = r.now()
	res, err := r.collection.UpdateOne(ctx, bson.M{"roomId": roomID}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update room %s: %w", roomID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *roomRepo) AddParticipant(ctx context.Context, roomID string, p *model.Participant) error {
	path := participantPath(p.PlayerID)
	filter := bson.M{
		"roomId":   roomID,
		"isLocked": false,
		path:       bson.M{"$exists": false},
	}
	update := bson.M{
		"$set":  bson.M{path: p, "updatedAt": r.now()},
		"$push": bson.M{"participantOrder": p.PlayerID},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("add participant to room %s: %w", roomID, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Nothing matched: find out which guard rejected the write.
	room, err := r.GetByRoomID(ctx, roomID)
	if err != nil {
		return err
	}
	switch {
	case room == nil:
		return ErrNotFound
	case room.HasParticipant(p.PlayerID):
		return ErrAlreadyMember
	case room.IsLocked:
		return ErrRoomLocked
	}
	// The room changed between the update and the re-read; report it as locked
	// rather than retrying so the caller sees a definite outcome.
	return ErrRoomLocked
}

func (r *roomRepo) SetVote(ctx context.Context, roomID, playerID, vote string, requireHidden bool) error {
	path := participantPath(playerID)
	filter := bson.M{
		"roomId":                roomID,
		path + ".isAllowedVote": true,
	}
	if requireHidden {
		filter["isRevealed"] = false
	}
	update := bson.M{"$set": bson.M{path + ".vote": vote, "updatedAt": r.now()}}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("set vote in room %s: %w", roomID, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	room, err := r.GetByRoomID(ctx, roomID)
	if err != nil {
		return err
	}
	return classifyVoteMiss(room, playerID)
}

func classifyVoteMiss(room *model.Room, playerID string) error {
	if room == nil {
		return ErrNotFound
	}
	p := room.Participant(playerID)
	switch {
	case p == nil:
		return ErrNotMember
	case !p.IsAllowedVote:
		return ErrVoteNotAllowed
	default:
		return ErrVoteLocked
	}
}
