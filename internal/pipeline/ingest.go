package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"paperchat/internal/domain"
)

// ProgressFunc reports batch progress: done files out of total, and
// the file currently being processed.
type ProgressFunc func(done, total int, file string)

// FileError records a per-file ingestion failure. One bad file never
// aborts the batch.
type FileError struct {
	File string
	Err  error
}

// Report summarizes one ingestion batch.
type Report struct {
	Files  int
	Chunks int
	Errors []FileError
}

// Ingestor drives extract → chunk → embed (document mode) → store for
// batches of PDF files.
type Ingestor struct {
	extractor domain.Extractor
	chunker   domain.Chunker
	embedder  domain.Embedder
	store     domain.VectorStore
	progress  ProgressFunc
}

func NewIngestor(ex domain.Extractor, ch domain.Chunker, emb domain.Embedder, store domain.VectorStore) *Ingestor {
	return &Ingestor{extractor: ex, chunker: ch, embedder: emb, store: store}
}

// OnProgress registers a progress hook for batch ingestion.
func (ing *Ingestor) OnProgress(fn ProgressFunc) { ing.progress = fn }

// IngestDir ingests every *.pdf file directly under dir. Per-file
// failures are collected in the report; only listing the directory
// itself can fail the batch.
func (ing *Ingestor) IngestDir(ctx context.Context, dir string) (*Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read ingest directory %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	report := &Report{}
	for i, path := range files {
		if ing.progress != nil {
			ing.progress(i, len(files), filepath.Base(path))
		}
		n, err := ing.IngestFile(ctx, path)
		if err != nil {
			report.Errors = append(report.Errors, FileError{File: filepath.Base(path), Err: err})
			continue
		}
		report.Files++
		report.Chunks += n
	}
	if ing.progress != nil {
		ing.progress(len(files), len(files), "")
	}
	return report, nil
}

// IngestFile ingests a single PDF and returns how many chunks were
// stored. Re-ingesting an unchanged file produces the same chunk ids
// and overwrites the previous records; re-ingesting after changing
// chunking parameters should be preceded by a purge of the source, or
// stale chunks with higher indices stay behind.
func (ing *Ingestor) IngestFile(ctx context.Context, path string) (int, error) {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return 0, fmt.Errorf("%s is not a PDF", path)
	}
	text, err := ing.extractor.Extract(path)
	if err != nil {
		return 0, err
	}
	chunks := ing.chunker.Split(text)
	if len(chunks) == 0 {
		return 0, nil
	}
	vectors, err := ing.embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return 0, err
	}
	source := filepath.Base(path)
	records := make([]domain.Record, len(chunks))
	for i, chunk := range chunks {
		records[i] = domain.Record{
			ID:         domain.ChunkID(source, i),
			Text:       chunk,
			Source:     source,
			ChunkIndex: i,
			Vector:     vectors[i],
		}
	}
	if err := ing.store.Add(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}
