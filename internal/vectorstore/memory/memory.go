package memory

import (
	"context"
	"sort"
	"sync"

	"paperchat/internal/domain"
	"paperchat/internal/vectorstore"
)

// Store is an in-memory vector store using brute-force cosine ranking.
// It keeps the same upsert-by-id semantics as the persistent backends.
type Store struct {
	mu      sync.RWMutex
	records map[string]domain.Record
}

func NewStore() *Store {
	return &Store{records: make(map[string]domain.Record)}
}

func (s *Store) Add(ctx context.Context, records []domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records[r.ID] = r
	}
	return nil
}

func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]domain.Match, error) {
	if topK <= 0 {
		topK = 20
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]domain.Match, 0, len(s.records))
	for _, r := range s.records {
		matches = append(matches, domain.Match{
			ID:         r.ID,
			Text:       r.Text,
			Source:     r.Source,
			ChunkIndex: r.ChunkIndex,
			Distance:   vectorstore.CosineDistance(vector, r.Vector),
		})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if topK < len(matches) {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *Store) List(ctx context.Context) ([]domain.ChunkMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	metas := make([]domain.ChunkMeta, 0, len(s.records))
	for _, r := range s.records {
		metas = append(metas, domain.ChunkMeta{ID: r.ID, Source: r.Source, ChunkIndex: r.ChunkIndex})
	}
	sort.Slice(metas, func(i, j int) bool {
		if metas[i].Source != metas[j].Source {
			return metas[i].Source < metas[j].Source
		}
		return metas[i].ChunkIndex < metas[j].ChunkIndex
	})
	return metas, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *Store) PurgeSource(ctx context.Context, source string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for id, r := range s.records {
		if r.Source == source {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *Store) Close() error { return nil }
