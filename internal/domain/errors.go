package domain

import "fmt"

// DocumentReadError marks a PDF that could not be opened or parsed.
// Ingestion skips the file and continues with the rest of the batch.
type DocumentReadError struct {
	Path string
	Err  error
}

func (e *DocumentReadError) Error() string {
	return fmt.Sprintf("read document %s: %v", e.Path, e.Err)
}

func (e *DocumentReadError) Unwrap() error { return e.Err }

// EmbedMode distinguishes the two embedding task hints.
type EmbedMode string

const (
	EmbedDocument EmbedMode = "document"
	EmbedQuery    EmbedMode = "query"
)

// EmbeddingError marks a failed embedding call. In document mode it
// aborts the file being ingested; in query mode it aborts only that
// query turn.
type EmbeddingError struct {
	Mode EmbedMode
	Err  error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embed (%s mode): %v", e.Mode, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// VectorStoreError marks an unreachable or missing collection. Fatal to
// the whole run; the operator likely needs to run ingestion first.
type VectorStoreError struct {
	Op  string
	Err error
}

func (e *VectorStoreError) Error() string {
	return fmt.Sprintf("vector store %s: %v", e.Op, e.Err)
}

func (e *VectorStoreError) Unwrap() error { return e.Err }

// GenerationError marks a failed generation call. Surfaced to the user
// for that turn, never retried automatically.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate answer: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
