package vectorindex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"rag-chat/internal/domain/apperrors"
	"rag-chat/internal/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQdrant speaks enough of the Qdrant REST API for the index client.
type fakeQdrant struct {
	mu          sync.Mutex
	collections map[string]map[uint64]qdrantPoint
	sizes       map[string]int
	apiKeys     []string
	searches    []map[string]any
}

func newFakeQdrant(t *testing.T) (*fakeQdrant, *QdrantIndex) {
	t.Helper()
	f := &fakeQdrant{
		collections: make(map[string]map[uint64]qdrantPoint),
		sizes:       make(map[string]int),
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, NewQdrantIndex(QdrantConfig{URL: srv.URL + "/", APIKey: "secret"})
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apiKeys = append(f.apiKeys, r.Header.Get("api-key"))

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "collections" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	name := parts[1]
	action := strings.Join(parts[2:], "/")

	notFound := func() {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": map[string]any{"error": "Not found: Collection `" + name + "` doesn't exist!"},
		})
	}
	ok := func(result any) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "result": result})
	}

	points, exists := f.collections[name]
	switch {
	case r.Method == http.MethodDelete && action == "":
		if !exists {
			notFound()
			return
		}
		delete(f.collections, name)
		ok(true)
	case r.Method == http.MethodPut && action == "":
		var body struct {
			Vectors struct {
				Size     int    `json:"size"`
				Distance string `json:"distance"`
			} `json:"vectors"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Vectors.Distance != "Cosine" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.collections[name] = make(map[uint64]qdrantPoint)
		f.sizes[name] = body.Vectors.Size
		ok(true)
	case !exists:
		notFound()
	case r.Method == http.MethodPut && action == "points":
		var body struct {
			Points []qdrantPoint `json:"points"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		for _, p := range body.Points {
			if len(p.Vector) != f.sizes[name] {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"status": map[string]any{"error": "Wrong input: Vector dimension error: expected dim: 3, got 2"},
				})
				return
			}
		}
		for _, p := range body.Points {
			points[p.ID] = p
		}
		ok(map[string]any{"status": "completed"})
	case r.Method == http.MethodPost && action == "points/count":
		ok(map[string]any{"count": len(points)})
	case r.Method == http.MethodPost && action == "points/search":
		var raw map[string]any
		_ = json.NewDecoder(r.Body).Decode(&raw)
		f.searches = append(f.searches, raw)
		vec := entities.Vector{}
		for _, v := range raw["vector"].([]any) {
			vec = append(vec, float32(v.(float64)))
		}
		limit := int(raw["limit"].(float64))

		type result struct {
			ID      uint64         `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		}
		results := make([]result, 0, len(points))
		for _, p := range points {
			results = append(results, result{ID: p.ID, Score: CosineSimilarity(vec, p.Vector), Payload: p.Payload})
		}
		sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
		if len(results) > limit {
			results = results[:limit]
		}
		ok(results)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestQdrantIndex_RebuildUpsertSearch(t *testing.T) {
	ctx := context.Background()
	fake, idx := newFakeQdrant(t)

	require.NoError(t, idx.RebuildCollection(ctx, "demo_docs", 3))
	require.NoError(t, idx.Upsert(ctx, "demo_docs", demoDocuments()))

	count, err := idx.Count(ctx, "demo_docs")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	hits, err := idx.Search(ctx, "demo_docs", entities.Vector{0, 1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "rag", hits[0].Text)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.Equal(t, "rag_overview", hits[0].Payload["source"])

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.searches, 1)
	assert.Equal(t, true, fake.searches[0]["with_payload"])
	assert.Equal(t, false, fake.searches[0]["with_vector"])
	for id, p := range fake.collections["demo_docs"] {
		assert.Less(t, id, uint64(3))
		assert.Contains(t, p.Payload, entities.PayloadTextKey)
	}
	for _, key := range fake.apiKeys {
		assert.Equal(t, "secret", key)
	}
}

func TestQdrantIndex_RebuildReplacesExisting(t *testing.T) {
	ctx := context.Background()
	_, idx := newFakeQdrant(t)
	require.NoError(t, idx.RebuildCollection(ctx, "demo_docs", 3))
	require.NoError(t, idx.Upsert(ctx, "demo_docs", demoDocuments()))

	require.NoError(t, idx.RebuildCollection(ctx, "demo_docs", 3))

	count, err := idx.Count(ctx, "demo_docs")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestQdrantIndex_UpsertIntoNonEmptyCollectionFails(t *testing.T) {
	ctx := context.Background()
	_, idx := newFakeQdrant(t)
	require.NoError(t, idx.RebuildCollection(ctx, "demo_docs", 3))
	require.NoError(t, idx.Upsert(ctx, "demo_docs", demoDocuments()))

	err := idx.Upsert(ctx, "demo_docs", demoDocuments())
	assert.ErrorIs(t, err, apperrors.ErrIDCollision)

	require.NoError(t, idx.UpsertWithIDs(ctx, "demo_docs", []entities.IndexedDocument{
		{ID: 7, Vector: entities.Vector{1, 1, 0}, Text: "extra"},
	}))
	count, err := idx.Count(ctx, "demo_docs")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestQdrantIndex_MissingCollection(t *testing.T) {
	ctx := context.Background()
	_, idx := newFakeQdrant(t)

	_, err := idx.Search(ctx, "absent", entities.Vector{1, 0, 0}, 3)
	assert.ErrorIs(t, err, apperrors.ErrCollectionNotFound)
	assert.ErrorIs(t, err, apperrors.ErrVectorIndex)
	assert.Contains(t, err.Error(), "doesn't exist")

	_, err = idx.Count(ctx, "absent")
	assert.ErrorIs(t, err, apperrors.ErrCollectionNotFound)
}

func TestQdrantIndex_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	_, idx := newFakeQdrant(t)
	require.NoError(t, idx.RebuildCollection(ctx, "demo_docs", 3))

	err := idx.UpsertWithIDs(ctx, "demo_docs", []entities.IndexedDocument{{ID: 1, Vector: entities.Vector{1, 0}}})
	assert.ErrorIs(t, err, apperrors.ErrDimensionMismatch)

	err = idx.UpsertWithIDs(ctx, "demo_docs", []entities.IndexedDocument{
		{ID: 1, Vector: entities.Vector{1, 0, 0}},
		{ID: 2, Vector: entities.Vector{1, 0}},
	})
	assert.ErrorIs(t, err, apperrors.ErrDimensionMismatch)
}

func TestQdrantIndex_UnreachableServer(t *testing.T) {
	idx := NewQdrantIndex(QdrantConfig{URL: "http://127.0.0.1:1"})

	_, err := idx.Count(context.Background(), "demo_docs")
	assert.ErrorIs(t, err, apperrors.ErrVectorIndex)
}

func TestQdrantIndex_ZeroTopKSkipsRequest(t *testing.T) {
	fake, idx := newFakeQdrant(t)

	hits, err := idx.Search(context.Background(), "demo_docs", entities.Vector{1}, 0)

	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.Empty(t, fake.apiKeys)
}
