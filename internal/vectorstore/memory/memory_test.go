package memory

import (
	"context"
	"testing"

	"paperchat/internal/domain"
)

func TestQueryReturnsAllWhenFewerThanTopK(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	vectors := [][]float32{{1, 0}, {0.9, 0.1}, {0.5, 0.5}, {0.1, 0.9}, {0, 1}}
	var records []domain.Record
	for i, v := range vectors {
		records = append(records, domain.Record{
			ID:         domain.ChunkID("paper.pdf", i),
			Text:       "text",
			Source:     "paper.pdf",
			ChunkIndex: i,
			Vector:     v,
		})
	}
	if err := s.Add(ctx, records); err != nil {
		t.Fatal(err)
	}
	matches, err := s.Query(ctx, []float32{1, 0}, 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 5 {
		t.Fatalf("got %d matches, want all 5", len(matches))
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Distance < matches[i-1].Distance {
			t.Errorf("not sorted ascending at %d", i)
		}
	}
	if matches[0].ChunkIndex != 0 {
		t.Errorf("closest match is chunk %d, want 0", matches[0].ChunkIndex)
	}
}

func TestAddOverwritesAndPurge(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	r := domain.Record{ID: "a.pdf_0", Text: "t", Source: "a.pdf", Vector: []float32{1}}
	if err := s.Add(ctx, []domain.Record{r, r}); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(ctx, []domain.Record{r}); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.Count(ctx); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
	if deleted, _ := s.PurgeSource(ctx, "a.pdf"); deleted != 1 {
		t.Errorf("purged %d, want 1", deleted)
	}
	if n, _ := s.Count(ctx); n != 0 {
		t.Errorf("count after purge = %d, want 0", n)
	}
}
