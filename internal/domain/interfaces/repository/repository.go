package Irepository

import (
	"context"

	"rag-chat/internal/domain/entities"
)

// ConversationStore keeps one append-only transcript per user id.
// Append must be atomic per user so concurrent requests never lose turns.
type ConversationStore interface {
	History(ctx context.Context, userID string) ([]entities.ChatTurn, error)
	RecentHistory(ctx context.Context, userID string, maxTurns int) ([]entities.ChatTurn, error)
	Append(ctx context.Context, userID string, turns ...entities.ChatTurn) error
}

// VectorIndex stores documents in named collections and answers nearest
// neighbour queries by cosine similarity.
type VectorIndex interface {
	// RebuildCollection drops the named collection, if any, and creates it
	// empty. Prior contents are lost; meant for bootstrap only.
	RebuildCollection(ctx context.Context, name string, vectorSize int) error
	// Upsert assigns ids 0..n-1 in input order. It fails with
	// apperrors.ErrIDCollision when the collection already holds points.
	Upsert(ctx context.Context, name string, documents []entities.IndexedDocument) error
	// UpsertWithIDs inserts or overwrites documents by their own ids.
	UpsertWithIDs(ctx context.Context, name string, documents []entities.IndexedDocument) error
	Search(ctx context.Context, name string, query entities.Vector, topK int) ([]entities.RetrievalHit, error)
	Count(ctx context.Context, name string) (int, error)
}
