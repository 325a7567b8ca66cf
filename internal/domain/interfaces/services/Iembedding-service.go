package Iservices

import (
	"context"

	"rag-chat/internal/domain/entities"
)

// IEmbeddingClient turns texts into vectors, one per input and in input order.
// An empty batch yields an empty result without contacting the provider.
type IEmbeddingClient interface {
	Embed(ctx context.Context, texts []string) ([]entities.Vector, error)
}
