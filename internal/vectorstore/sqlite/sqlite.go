package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/mattn/go-sqlite3"

	"paperchat/internal/domain"
	"paperchat/internal/vectorstore"
)

// Store persists chunk records in a SQLite file under the configured
// data directory, one database per collection. Vectors are stored as
// JSON arrays and ranked by brute-force cosine distance in Go, which
// is fine at personal-corpus scale.
type Store struct {
	db        *sql.DB
	path      string
	dimension int
}

// Open creates or opens the collection database under dir. The vector
// dimensionality is pinned on the first Add and enforced afterwards:
// switching embedding models without rebuilding the collection would
// make similarity comparisons meaningless.
func Open(dir, collection string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &domain.VectorStoreError{Op: "open", Err: err}
	}
	path := filepath.Join(dir, collection+".db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &domain.VectorStoreError{Op: "open", Err: err}
	}
	s := &Store{db: db, path: path}
	if err := s.setup(); err != nil {
		db.Close()
		return nil, &domain.VectorStoreError{Op: "setup", Err: err}
	}
	return s, nil
}

func (s *Store) setup() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			document TEXT NOT NULL,
			embedding TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source)`,
		`CREATE TABLE IF NOT EXISTS collection_meta (
			key TEXT PRIMARY KEY,
			value INTEGER NOT NULL
		)`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	var dim int
	err := s.db.QueryRow(`SELECT value FROM collection_meta WHERE key = 'dimension'`).Scan(&dim)
	switch err {
	case nil:
		s.dimension = dim
	case sql.ErrNoRows:
	default:
		return err
	}
	return nil
}

// Path returns the on-disk location of the collection database.
func (s *Store) Path() string { return s.path }

func (s *Store) Add(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if r.Source == "" {
			return &domain.VectorStoreError{Op: "add", Err: fmt.Errorf("record %s has empty source", r.ID)}
		}
		if s.dimension == 0 {
			s.dimension = len(r.Vector)
		}
		if len(r.Vector) != s.dimension {
			return &domain.VectorStoreError{Op: "add", Err: fmt.Errorf(
				"record %s has dimension %d, collection is %d", r.ID, len(r.Vector), s.dimension)}
		}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.VectorStoreError{Op: "add", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO collection_meta (key, value) VALUES ('dimension', ?)`, s.dimension); err != nil {
		return &domain.VectorStoreError{Op: "add", Err: err}
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO chunks (id, source, chunk_index, document, embedding) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return &domain.VectorStoreError{Op: "add", Err: err}
	}
	defer stmt.Close()
	for _, r := range records {
		embedding, err := json.Marshal(r.Vector)
		if err != nil {
			return &domain.VectorStoreError{Op: "add", Err: err}
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.Source, r.ChunkIndex, r.Text, string(embedding)); err != nil {
			return &domain.VectorStoreError{Op: "add", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &domain.VectorStoreError{Op: "add", Err: err}
	}
	return nil
}

func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]domain.Match, error) {
	if topK <= 0 {
		topK = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, source, chunk_index, document, embedding FROM chunks`)
	if err != nil {
		return nil, &domain.VectorStoreError{Op: "query", Err: err}
	}
	defer rows.Close()

	var matches []domain.Match
	for rows.Next() {
		var m domain.Match
		var embedding string
		if err := rows.Scan(&m.ID, &m.Source, &m.ChunkIndex, &m.Text, &embedding); err != nil {
			return nil, &domain.VectorStoreError{Op: "query", Err: err}
		}
		var v []float32
		if err := json.Unmarshal([]byte(embedding), &v); err != nil {
			return nil, &domain.VectorStoreError{Op: "query", Err: fmt.Errorf("chunk %s: %w", m.ID, err)}
		}
		m.Distance = vectorstore.CosineDistance(vector, v)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.VectorStoreError{Op: "query", Err: err}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if topK < len(matches) {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *Store) List(ctx context.Context) ([]domain.ChunkMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, chunk_index FROM chunks ORDER BY source, chunk_index`)
	if err != nil {
		return nil, &domain.VectorStoreError{Op: "list", Err: err}
	}
	defer rows.Close()

	var metas []domain.ChunkMeta
	for rows.Next() {
		var m domain.ChunkMeta
		if err := rows.Scan(&m.ID, &m.Source, &m.ChunkIndex); err != nil {
			return nil, &domain.VectorStoreError{Op: "list", Err: err}
		}
		metas = append(metas, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.VectorStoreError{Op: "list", Err: err}
	}
	return metas, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, &domain.VectorStoreError{Op: "count", Err: err}
	}
	return n, nil
}

func (s *Store) PurgeSource(ctx context.Context, source string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE source = ?`, source)
	if err != nil {
		return 0, &domain.VectorStoreError{Op: "purge", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &domain.VectorStoreError{Op: "purge", Err: err}
	}
	return int(n), nil
}

func (s *Store) Close() error { return s.db.Close() }
