package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"paperchat/internal/domain"
)

// Store is a minimal REST client to Qdrant for installs that outgrow
// the sqlite backend. The collection is created with cosine distance
// on first use. Qdrant only accepts UUID or integer point ids, so the
// deterministic chunk id is mapped to a UUIDv5 over its bytes; equal
// chunk ids still collide and overwrite on re-ingest.
type Store struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
	ready      bool
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStore(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if cfg.Collection == "" {
		cfg.Collection = "research_papers"
	}
	return &Store{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

func pointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("paperchat/"+chunkID)).String()
}

// ensureCollection creates the collection if missing. Qdrant answers
// 200 for an existing collection with the same schema.
func (s *Store) ensureCollection(ctx context.Context, dimension int) error {
	if s.ready {
		return nil
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if err := s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, s.collection), body); err != nil {
		return err
	}
	s.ready = true
	return nil
}

func (s *Store) Add(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx, len(records[0].Vector)); err != nil {
		return &domain.VectorStoreError{Op: "add", Err: err}
	}
	points := make([]map[string]any, len(records))
	for i, r := range records {
		points[i] = map[string]any{
			"id":     pointID(r.ID),
			"vector": r.Vector,
			"payload": map[string]any{
				"chunk_id":    r.ID,
				"source":      r.Source,
				"chunk_index": r.ChunkIndex,
				"text":        r.Text,
			},
		}
	}
	body := map[string]any{"points": points}
	if err := s.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body); err != nil {
		return &domain.VectorStoreError{Op: "add", Err: err}
	}
	return nil
}

type payload struct {
	ChunkID    string  `json:"chunk_id"`
	Source     string  `json:"source"`
	ChunkIndex float64 `json:"chunk_index"`
	Text       string  `json:"text"`
}

func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]domain.Match, error) {
	if topK <= 0 {
		topK = 20
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload payload `json:"payload"`
		} `json:"result"`
	}
	err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection), req, &resp)
	if err != nil {
		return nil, &domain.VectorStoreError{Op: "query", Err: err}
	}
	matches := make([]domain.Match, 0, len(resp.Result))
	for _, r := range resp.Result {
		matches = append(matches, domain.Match{
			ID:         r.Payload.ChunkID,
			Text:       r.Payload.Text,
			Source:     r.Payload.Source,
			ChunkIndex: int(r.Payload.ChunkIndex),
			// Qdrant reports cosine similarity; convert to distance so
			// smaller stays better across backends.
			Distance: 1 - r.Score,
		})
	}
	return matches, nil
}

func (s *Store) List(ctx context.Context) ([]domain.ChunkMeta, error) {
	var metas []domain.ChunkMeta
	var offset any
	for {
		req := map[string]any{
			"limit":        256,
			"with_payload": true,
		}
		if offset != nil {
			req["offset"] = offset
		}
		var resp struct {
			Result struct {
				Points []struct {
					Payload payload `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/scroll", s.url, s.collection), req, &resp)
		if err != nil {
			return nil, &domain.VectorStoreError{Op: "list", Err: err}
		}
		for _, p := range resp.Result.Points {
			metas = append(metas, domain.ChunkMeta{
				ID:         p.Payload.ChunkID,
				Source:     p.Payload.Source,
				ChunkIndex: int(p.Payload.ChunkIndex),
			})
		}
		if resp.Result.NextPageOffset == nil {
			return metas, nil
		}
		offset = resp.Result.NextPageOffset
	}
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	req := map[string]any{"exact": true}
	err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/count", s.url, s.collection), req, &resp)
	if err != nil {
		return 0, &domain.VectorStoreError{Op: "count", Err: err}
	}
	return resp.Result.Count, nil
}

func (s *Store) PurgeSource(ctx context.Context, source string) (int, error) {
	filter := map[string]any{
		"must": []map[string]any{
			{"key": "source", "match": map[string]any{"value": source}},
		},
	}
	var countResp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/count", s.url, s.collection),
		map[string]any{"exact": true, "filter": filter}, &countResp)
	if err != nil {
		return 0, &domain.VectorStoreError{Op: "purge", Err: err}
	}
	err = s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/delete?wait=true", s.url, s.collection),
		map[string]any{"filter": filter}, nil)
	if err != nil {
		return 0, &domain.VectorStoreError{Op: "purge", Err: err}
	}
	return countResp.Result.Count, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) putJSON(ctx context.Context, url string, body any) error {
	return s.do(ctx, http.MethodPut, url, body, nil)
}

func (s *Store) postJSON(ctx context.Context, url string, body any, out any) error {
	return s.do(ctx, http.MethodPost, url, body, out)
}

func (s *Store) do(ctx context.Context, method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
