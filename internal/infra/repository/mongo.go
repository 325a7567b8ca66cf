package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rag-chat/internal/domain/entities"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const TranscriptsCollection = "transcripts"

// MongoConversationStore keeps one document per user. Appends are a single
// upserting $push, which the server applies atomically per document.
type MongoConversationStore struct {
	mongo      *mongo.Database
	collection string
}

func NewMongoConversationStore(db *mongo.Database) *MongoConversationStore {
	return &MongoConversationStore{mongo: db, collection: TranscriptsCollection}
}

// EnsureIndexes creates the unique user_id index.
func (r *MongoConversationStore) EnsureIndexes(ctx context.Context) error {
	_, err := r.mongo.Collection(r.collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *MongoConversationStore) History(ctx context.Context, userID string) ([]entities.ChatTurn, error) {
	return r.find(ctx, userID, options.FindOne())
}

func (r *MongoConversationStore) RecentHistory(ctx context.Context, userID string, maxTurns int) ([]entities.ChatTurn, error) {
	if maxTurns == 0 {
		return []entities.ChatTurn{}, nil
	}
	if maxTurns < 0 {
		return r.History(ctx, userID)
	}
	return r.find(ctx, userID, options.FindOne().SetProjection(recentTurnsProjection(maxTurns)))
}

func (r *MongoConversationStore) Append(ctx context.Context, userID string, turns ...entities.ChatTurn) error {
	if len(turns) == 0 {
		return nil
	}

	collection := r.mongo.Collection(r.collection)
	_, err := collection.UpdateOne(ctx, userFilter(userID), appendTurnsUpdate(turns, time.Now().UTC()), options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("append transcript for %q: %w", userID, err)
	}
	return nil
}

func (r *MongoConversationStore) find(ctx context.Context, userID string, opts *options.FindOneOptions) ([]entities.ChatTurn, error) {
	var transcript entities.UserTranscript
	collection := r.mongo.Collection(r.collection)
	err := collection.FindOne(ctx, userFilter(userID), opts).Decode(&transcript)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []entities.ChatTurn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load transcript for %q: %w", userID, err)
	}
	if transcript.Turns == nil {
		return []entities.ChatTurn{}, nil
	}
	return transcript.Turns, nil
}

func userFilter(userID string) bson.M {
	return bson.M{"user_id": userID}
}

func appendTurnsUpdate(turns []entities.ChatTurn, now time.Time) bson.M {
	return bson.M{
		"$push": bson.M{"turns": bson.M{"$each": turns}},
		"$set":  bson.M{"updated_at": now},
	}
}

func recentTurnsProjection(maxTurns int) bson.M {
	return bson.M{"turns": bson.M{"$slice": -maxTurns}}
}
