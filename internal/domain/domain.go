package domain

import (
	"context"
	"fmt"
)

// Record is a stored document chunk together with its embedding vector.
// The ID is derived from the source filename and the chunk index, so
// re-ingesting an unchanged file produces colliding IDs and overwrites
// instead of duplicating.
type Record struct {
	ID         string
	Text       string
	Source     string
	ChunkIndex int
	Vector     []float32
}

// ChunkID builds the deterministic record ID for a chunk of a source file.
func ChunkID(source string, index int) string {
	return fmt.Sprintf("%s_%d", source, index)
}

// Match is a retrieved chunk with its cosine distance to the query
// vector. Smaller distance means more similar.
type Match struct {
	ID         string
	Text       string
	Source     string
	ChunkIndex int
	Distance   float64
}

// ChunkMeta is the metadata view of a stored record, without text or
// vector. Source is never empty for a stored chunk.
type ChunkMeta struct {
	ID         string
	Source     string
	ChunkIndex int
}

// Extractor reads a document file and returns one cleaned text blob.
type Extractor interface {
	Extract(path string) (string, error)
}

// Chunker splits a cleaned text blob into ordered chunk strings.
type Chunker interface {
	Split(text string) []string
}

// Embedder converts text into vectors via the hosted embedding model.
// The two operations map to distinct upstream task hints and must not
// be conflated: document vectors and query vectors live in compatible
// but distinct regions of the space (asymmetric search).
type Embedder interface {
	// EmbedDocuments returns one vector per input text, in order. Any
	// individual failure aborts the whole call; no partial result.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedQuery returns the vector for a single question.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Generator produces natural-language answers from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// GenerateStream delivers the answer as a finite sequence of text
	// fragments to a single consumer. Restarting means reissuing the
	// request.
	GenerateStream(ctx context.Context, prompt string, fn func(fragment string) error) error
}

// VectorStore is the persistent collection of chunk records.
type VectorStore interface {
	// Add upserts records in one call; colliding IDs overwrite.
	Add(ctx context.Context, records []Record) error
	// Query returns the topK nearest records by ascending cosine distance.
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
	// List returns the metadata of every stored record.
	List(ctx context.Context) ([]ChunkMeta, error)
	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
	// PurgeSource removes all records of one source file and reports
	// how many were deleted. Required before re-ingesting a file with
	// changed chunking parameters, which would otherwise orphan chunks.
	PurgeSource(ctx context.Context, source string) (int, error)
	Close() error
}
