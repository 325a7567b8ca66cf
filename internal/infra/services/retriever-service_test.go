package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"rag-chat/internal/domain/apperrors"
	"rag-chat/internal/domain/entities"
	"rag-chat/internal/infra/corpus"
	"rag-chat/internal/infra/vectorindex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededIndex(t *testing.T, embedder *keywordEmbedder) *vectorindex.MemoryIndex {
	t.Helper()
	var buf bytes.Buffer
	index := vectorindex.NewMemoryIndex()
	_, err := corpus.NewSeeder(embedder, index, "demo_docs", testLogger(&buf)).Seed(context.Background(), corpus.Default())
	require.NoError(t, err)
	return index
}

func TestRetrieve_ReturnsMostSimilarFirst(t *testing.T) {
	var buf bytes.Buffer
	embedder := &keywordEmbedder{}
	retriever := NewContextRetriever(embedder, seededIndex(t, embedder), "demo_docs", testLogger(&buf))

	chunks, err := retriever.Retrieve(context.Background(), "How does caching cut latency?", 2)

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0], "caching repeated queries")
}

func TestRetrieve_DefaultsTopK(t *testing.T) {
	var buf bytes.Buffer
	embedder := &keywordEmbedder{}
	retriever := NewContextRetriever(embedder, seededIndex(t, embedder), "demo_docs", testLogger(&buf))

	chunks, err := retriever.Retrieve(context.Background(), "What is RAG?", 0)

	require.NoError(t, err)
	assert.Len(t, chunks, DefaultTopK)
	assert.Contains(t, chunks[0], "RAG pipeline")
}

func TestRetrieve_EmptyEmbeddingMeansNoContext(t *testing.T) {
	var buf bytes.Buffer
	embedder := &keywordEmbedder{empty: true}
	retriever := NewContextRetriever(embedder, vectorindex.NewMemoryIndex(), "demo_docs", testLogger(&buf))

	chunks, err := retriever.Retrieve(context.Background(), "anything", 3)

	require.NoError(t, err)
	assert.NotNil(t, chunks)
	assert.Empty(t, chunks)
}

func TestRetrieve_PropagatesErrors(t *testing.T) {
	var buf bytes.Buffer
	cause := errors.New("rate limited")
	retriever := NewContextRetriever(&keywordEmbedder{err: cause}, vectorindex.NewMemoryIndex(), "demo_docs", testLogger(&buf))

	_, err := retriever.Retrieve(context.Background(), "q", 3)
	assert.ErrorIs(t, err, cause)

	retriever.Embedder = &keywordEmbedder{}
	_, err = retriever.Retrieve(context.Background(), "q", 3)
	assert.ErrorIs(t, err, apperrors.ErrCollectionNotFound)
}

func TestRetrieve_DoesNotDeduplicate(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	index := vectorindex.NewMemoryIndex()
	require.NoError(t, index.RebuildCollection(ctx, "dupes", 2))
	require.NoError(t, index.Upsert(ctx, "dupes", []entities.IndexedDocument{
		{Vector: entities.Vector{1, 0}, Text: "same"},
		{Vector: entities.Vector{1, 0}, Text: "same"},
	}))
	retriever := NewContextRetriever(&fixedEmbedder{v: entities.Vector{1, 0}}, index, "dupes", testLogger(&buf))

	chunks, err := retriever.Retrieve(ctx, "q", 3)

	require.NoError(t, err)
	assert.Equal(t, []string{"same", "same"}, chunks)
}

type fixedEmbedder struct{ v entities.Vector }

func (f *fixedEmbedder) Embed(ctx context.Context, texts []string) ([]entities.Vector, error) {
	out := make([]entities.Vector, len(texts))
	for i := range texts {
		out[i] = f.v
	}
	return out, nil
}
