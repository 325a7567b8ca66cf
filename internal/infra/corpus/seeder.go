package corpus

import (
	"context"
	"fmt"

	"rag-chat/internal/domain/entities"
	Irepository "rag-chat/internal/domain/interfaces/repository"
	Iservices "rag-chat/internal/domain/interfaces/services"
	"rag-chat/internal/infra/logger"

	"github.com/sirupsen/logrus"
)

// Seeder rebuilds a collection from a corpus. Rebuilding discards whatever
// the collection held, so it belongs at startup only.
type Seeder struct {
	embedder   Iservices.IEmbeddingClient
	index      Irepository.VectorIndex
	collection string
	log        *logger.Logger
}

func NewSeeder(embedder Iservices.IEmbeddingClient, index Irepository.VectorIndex, collection string, log *logger.Logger) *Seeder {
	return &Seeder{embedder: embedder, index: index, collection: collection, log: log}
}

// Seed embeds every document and loads the result into a fresh collection.
// It returns the number of documents indexed. When the provider returns no
// vectors the index is left untouched.
func (s *Seeder) Seed(ctx context.Context, documents []Document) (int, error) {
	texts := make([]string, len(documents))
	for i, doc := range documents {
		texts[i] = doc.Text
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed corpus: %w", err)
	}
	if len(vectors) == 0 {
		s.log.Warn("corpus produced no embeddings, skipping index rebuild", logrus.Fields{
			"collection": s.collection,
			"documents":  len(documents),
		})
		return 0, nil
	}
	if len(vectors) != len(documents) {
		return 0, fmt.Errorf("embed corpus: got %d vectors for %d documents", len(vectors), len(documents))
	}

	if err := s.index.RebuildCollection(ctx, s.collection, len(vectors[0])); err != nil {
		return 0, fmt.Errorf("rebuild collection %s: %w", s.collection, err)
	}

	indexed := make([]entities.IndexedDocument, len(documents))
	for i, doc := range documents {
		indexed[i] = entities.IndexedDocument{
			Vector:   vectors[i],
			Text:     doc.Text,
			Metadata: doc.Metadata,
		}
	}
	if err := s.index.Upsert(ctx, s.collection, indexed); err != nil {
		return 0, fmt.Errorf("upsert corpus into %s: %w", s.collection, err)
	}

	s.log.Info("corpus indexed", logrus.Fields{
		"collection": s.collection,
		"documents":  len(indexed),
		"dimension":  len(vectors[0]),
	})
	return len(indexed), nil
}
