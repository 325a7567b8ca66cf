package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"rag-chat/internal/domain/apperrors"
	"rag-chat/internal/domain/entities"
)

// MemoryIndex is an in-process VectorIndex using brute force cosine
// similarity. It backs tests and VECTOR_STORE=memory.
type MemoryIndex struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	size   int
	points map[uint64]entities.IndexedDocument
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{collections: make(map[string]*memoryCollection)}
}

func (m *MemoryIndex) RebuildCollection(ctx context.Context, name string, vectorSize int) error {
	if vectorSize <= 0 {
		return fmt.Errorf("%w: invalid vector size %d", apperrors.ErrVectorIndex, vectorSize)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[name] = &memoryCollection{size: vectorSize, points: make(map[uint64]entities.IndexedDocument)}
	return nil
}

func (m *MemoryIndex) Upsert(ctx context.Context, name string, documents []entities.IndexedDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.collection(name)
	if err != nil {
		return err
	}
	if len(c.points) > 0 {
		return fmt.Errorf("%w: %q holds %d points", apperrors.ErrIDCollision, name, len(c.points))
	}

	numbered := make([]entities.IndexedDocument, len(documents))
	for i, doc := range documents {
		doc.ID = uint64(i)
		numbered[i] = doc
	}
	return c.put(name, numbered)
}

func (m *MemoryIndex) UpsertWithIDs(ctx context.Context, name string, documents []entities.IndexedDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.collection(name)
	if err != nil {
		return err
	}
	return c.put(name, documents)
}

func (m *MemoryIndex) Search(ctx context.Context, name string, query entities.Vector, topK int) ([]entities.RetrievalHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, err := m.collection(name)
	if err != nil {
		return nil, err
	}
	if len(query) != c.size {
		return nil, fmt.Errorf("%w: query has %d dimensions, %q expects %d", apperrors.ErrDimensionMismatch, len(query), name, c.size)
	}
	if topK <= 0 {
		return []entities.RetrievalHit{}, nil
	}

	type scored struct {
		doc   entities.IndexedDocument
		score float64
	}
	candidates := make([]scored, 0, len(c.points))
	for _, doc := range c.points {
		candidates = append(candidates, scored{doc: doc, score: CosineSimilarity(query, doc.Vector)})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].doc.ID < candidates[j].doc.ID
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	hits := make([]entities.RetrievalHit, len(candidates))
	for i, cand := range candidates {
		hits[i] = entities.RetrievalHit{
			Text:    cand.doc.Text,
			Score:   cand.score,
			Payload: cand.doc.Payload(),
		}
	}
	return hits, nil
}

func (m *MemoryIndex) Count(ctx context.Context, name string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, err := m.collection(name)
	if err != nil {
		return 0, err
	}
	return len(c.points), nil
}

func (m *MemoryIndex) collection(name string) (*memoryCollection, error) {
	c, ok := m.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrCollectionNotFound, name)
	}
	return c, nil
}

// put validates the whole batch before storing any of it.
func (c *memoryCollection) put(name string, documents []entities.IndexedDocument) error {
	for _, doc := range documents {
		if len(doc.Vector) != c.size {
			return fmt.Errorf("%w: document %d has %d dimensions, %q expects %d", apperrors.ErrDimensionMismatch, doc.ID, len(doc.Vector), name, c.size)
		}
	}
	for _, doc := range documents {
		doc.Vector = append(entities.Vector(nil), doc.Vector...)
		c.points[doc.ID] = doc
	}
	return nil
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 when
// either has zero magnitude or their lengths differ.
func CosineSimilarity(a, b entities.Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
