package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"planningpoker/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// PlayerRepo is the player directory
type PlayerRepo interface {
	Create(ctx context.Context, player *model.Player) error
	GetByID(ctx context.Context, id string) (*model.Player, error)
	GetByPlayerID(ctx context.Context, playerID string) (*model.Player, error)
	GetBySessionID(ctx context.Context, sessionID string) (*model.Player, error)
	GetByIDs(ctx context.Context, ids []string) ([]*model.Player, error)
	Touch(ctx context.Context, id string, at time.Time) error
}

type playerRepo struct {
	collection *mongo.Collection
	log        *zap.SugaredLogger
}

// NewPlayerRepo creates a player repository and ensures its indexes
func NewPlayerRepo(db *mongo.Database, log *zap.SugaredLogger) PlayerRepo {
	repo := &playerRepo{
		collection: db.Collection("players"),
		log:        log,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *playerRepo) ensureIndexes(ctx context.Context) {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "playerId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("by_playerId"),
		},
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("by_sessionId"),
		},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, models); err != nil {
		r.log.Warnw("failed to create indexes", "collection", r.collection.Name(), "error", err)
	}
}

func (r *playerRepo) Create(ctx context.Context, player *model.Player) error {
	// Generate ObjectID if not provided
	if player.ID == "" {
		player.ID = primitive.NewObjectID().Hex()
	}

	if _, err := r.collection.InsertOne(ctx, player); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicatePlayer
		}
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

func (r *playerRepo) GetByID(ctx context.Context, id string) (*model.Player, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *playerRepo) GetByPlayerID(ctx context.Context, playerID string) (*model.Player, error) {
	return r.findOne(ctx, bson.M{"playerId": playerID})
}

func (r *playerRepo) GetBySessionID(ctx context.Context, sessionID string) (*model.Player, error) {
	return r.findOne(ctx, bson.M{"sessionId": sessionID})
}

func (r *playerRepo) findOne(ctx context.Context, filter bson.M) (*model.Player, error) {
	var player model.Player
	err := r.collection.FindOne(ctx, filter).Decode(&player)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // Player not found
		}
		return nil, fmt.Errorf("find player: %w", err)
	}
	return &player, nil
}

func (r *playerRepo) GetByIDs(ctx context.Context, ids []string) ([]*model.Player, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find players: %w", err)
	}
	defer cursor.Close(ctx)

	var players []*model.Player
	if err := cursor.All(ctx, &players); err != nil {
		return nil, fmt.Errorf("decode players: %w", err)
	}
	return players, nil
}

func (r *playerRepo) Touch(ctx context.Context, id string, at time.Time) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"lastSeenAt": at}})
	if err != nil {
		return fmt.Errorf("touch player %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
