package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Chunker.ChunkSize != 500 || *cfg.Chunker.Overlap != 100 {
		t.Errorf("chunker defaults = %+v", cfg.Chunker)
	}
	if cfg.Retrieval.TopK != 20 {
		t.Errorf("top_k default = %d", cfg.Retrieval.TopK)
	}
	if cfg.Store.Type != "sqlite" || cfg.Store.Collection != "research_papers" {
		t.Errorf("store defaults = %+v", cfg.Store)
	}
	if cfg.Gemini.APIKeyEnv != "GOOGLE_API_KEY" {
		t.Errorf("api key env default = %q", cfg.Gemini.APIKeyEnv)
	}
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "chunker:\n  chunk_size: 800\nretrieval:\n  answer_language: Japanese\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Chunker.ChunkSize != 800 {
		t.Errorf("chunk_size = %d, want 800", cfg.Chunker.ChunkSize)
	}
	if cfg.Chunker.Overlap == nil || *cfg.Chunker.Overlap != 100 {
		t.Errorf("overlap default = %v, want 100", cfg.Chunker.Overlap)
	}
	if cfg.Retrieval.AnswerLanguage != "Japanese" {
		t.Errorf("answer_language = %q", cfg.Retrieval.AnswerLanguage)
	}
}

func TestLoadKeepsExplicitZeroValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "chunker:\n  overlap: 0\narxiv:\n  delay_secs: 0\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Chunker.Overlap == nil || *cfg.Chunker.Overlap != 0 {
		t.Errorf("explicit overlap: 0 was overridden: %v", cfg.Chunker.Overlap)
	}
	if cfg.Arxiv.DelaySecs == nil || *cfg.Arxiv.DelaySecs != 0 {
		t.Errorf("explicit delay_secs: 0 was overridden: %v", cfg.Arxiv.DelaySecs)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "config.yaml")
	cfg := defaultConfig()
	cfg.Store.Type = "qdrant"
	cfg.Store.Qdrant = &QdrantConfig{URL: "http://example:6333"}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Store.Type != "qdrant" || got.Store.Qdrant == nil || got.Store.Qdrant.URL != "http://example:6333" {
		t.Errorf("round trip lost store config: %+v", got.Store)
	}
	if got.Store.Qdrant.TimeoutSecs != 15 {
		t.Errorf("qdrant timeout default = %d", got.Store.Qdrant.TimeoutSecs)
	}
}
