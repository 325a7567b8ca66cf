package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rag-chat/internal/domain/apperrors"
	"rag-chat/internal/domain/entities"
)

const defaultQdrantTimeout = 15 * time.Second

type QdrantConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// QdrantIndex is a VectorIndex over the Qdrant REST API. Collections use the
// cosine distance.
type QdrantIndex struct {
	url    string
	apiKey string
	client *http.Client
}

func NewQdrantIndex(cfg QdrantConfig) *QdrantIndex {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultQdrantTimeout
	}
	return &QdrantIndex{
		url:    strings.TrimRight(cfg.URL, "/"),
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
	}
}

type qdrantPoint struct {
	ID      uint64          `json:"id"`
	Vector  entities.Vector `json:"vector"`
	Payload map[string]any  `json:"payload"`
}

type qdrantStatus struct {
	Error string `json:"error"`
}

func (q *QdrantIndex) RebuildCollection(ctx context.Context, name string, vectorSize int) error {
	if vectorSize <= 0 {
		return fmt.Errorf("%w: invalid vector size %d", apperrors.ErrVectorIndex, vectorSize)
	}

	// Deleting a missing collection is not an error for a rebuild.
	err := q.do(ctx, http.MethodDelete, q.collectionPath(name), nil, nil)
	if err != nil && !errors.Is(err, apperrors.ErrCollectionNotFound) {
		return err
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	return q.do(ctx, http.MethodPut, q.collectionPath(name), body, nil)
}

func (q *QdrantIndex) Upsert(ctx context.Context, name string, documents []entities.IndexedDocument) error {
	count, err := q.Count(ctx, name)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %q holds %d points", apperrors.ErrIDCollision, name, count)
	}

	numbered := make([]entities.IndexedDocument, len(documents))
	for i, doc := range documents {
		doc.ID = uint64(i)
		numbered[i] = doc
	}
	return q.UpsertWithIDs(ctx, name, numbered)
}

func (q *QdrantIndex) UpsertWithIDs(ctx context.Context, name string, documents []entities.IndexedDocument) error {
	if len(documents) == 0 {
		return nil
	}

	size := len(documents[0].Vector)
	points := make([]qdrantPoint, len(documents))
	for i, doc := range documents {
		if len(doc.Vector) != size {
			return fmt.Errorf("%w: document %d has %d dimensions, expected %d", apperrors.ErrDimensionMismatch, doc.ID, len(doc.Vector), size)
		}
		points[i] = qdrantPoint{ID: doc.ID, Vector: doc.Vector, Payload: doc.Payload()}
	}

	body := map[string]any{"points": points}
	return q.do(ctx, http.MethodPut, q.collectionPath(name)+"/points?wait=true", body, nil)
}

func (q *QdrantIndex) Search(ctx context.Context, name string, query entities.Vector, topK int) ([]entities.RetrievalHit, error) {
	if topK <= 0 {
		return []entities.RetrievalHit{}, nil
	}

	req := map[string]any{
		"vector":       query,
		"limit":        topK,
		"with_payload": true,
		"with_vector":  false,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := q.do(ctx, http.MethodPost, q.collectionPath(name)+"/points/search", req, &resp); err != nil {
		return nil, err
	}

	hits := make([]entities.RetrievalHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hit := entities.RetrievalHit{Score: r.Score, Payload: r.Payload}
		if hit.Payload == nil {
			hit.Payload = map[string]any{}
		}
		if v, ok := r.Payload[entities.PayloadTextKey].(string); ok {
			hit.Text = v
		}
		hits = append(hits, hit)
	}
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (q *QdrantIndex) Count(ctx context.Context, name string) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := q.do(ctx, http.MethodPost, q.collectionPath(name)+"/points/count", map[string]any{"exact": true}, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

func (q *QdrantIndex) collectionPath(name string) string {
	return fmt.Sprintf("%s/collections/%s", q.url, url.PathEscape(name))
}

type statusError struct {
	method string
	url    string
	status int
	detail string
}

func (e *statusError) Error() string {
	if e.detail != "" {
		return fmt.Sprintf("qdrant %s %s failed: %d %s", e.method, e.url, e.status, e.detail)
	}
	return fmt.Sprintf("qdrant %s %s failed: %d", e.method, e.url, e.status)
}

// do sends one JSON request. Transport and status failures come back as
// apperrors.ErrVectorIndex, with 404 mapped to ErrCollectionNotFound.
func (q *QdrantIndex) do(ctx context.Context, method, target string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode request: %w", apperrors.ErrVectorIndex, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrVectorIndex, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrVectorIndex, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		se := &statusError{method: method, url: target, status: resp.StatusCode}
		var payload struct {
			Status qdrantStatus `json:"status"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &payload) == nil {
			se.detail = payload.Status.Error
		}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %w", apperrors.ErrCollectionNotFound, se)
		}
		if strings.Contains(strings.ToLower(se.detail), "dimension") {
			return fmt.Errorf("%w: %w", apperrors.ErrDimensionMismatch, se)
		}
		return fmt.Errorf("%w: %w", apperrors.ErrVectorIndex, se)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode response: %w", apperrors.ErrVectorIndex, err)
		}
	}
	return nil
}
