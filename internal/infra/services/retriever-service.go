package services

import (
	"context"
	"fmt"

	Irepository "rag-chat/internal/domain/interfaces/repository"
	Iservices "rag-chat/internal/domain/interfaces/services"
	"rag-chat/internal/infra/logger"
)

const DefaultTopK = 3

// ContextRetriever turns a query into the texts of its nearest documents.
type ContextRetriever struct {
	Embedder   Iservices.IEmbeddingClient
	Index      Irepository.VectorIndex
	Collection string
	Logger     *logger.Logger
}

func NewContextRetriever(embedder Iservices.IEmbeddingClient, index Irepository.VectorIndex, collection string, logger *logger.Logger) *ContextRetriever {
	return &ContextRetriever{
		Embedder:   embedder,
		Index:      index,
		Collection: collection,
		Logger:     logger,
	}
}

// Retrieve returns up to topK chunk texts, most similar first. A topK of zero
// or less uses DefaultTopK. An empty embedding result means no context, not an
// error.
func (r *ContextRetriever) Retrieve(ctx context.Context, query string, topK int) ([]string, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	vectors, err := r.Embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		r.Logger.Warn("Embedding provider returned no vector for query")
		return []string{}, nil
	}

	hits, err := r.Index.Search(ctx, r.Collection, vectors[0], topK)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", r.Collection, err)
	}

	chunks := make([]string, 0, len(hits))
	for _, hit := range hits {
		chunks = append(chunks, hit.Text)
	}
	return chunks, nil
}
