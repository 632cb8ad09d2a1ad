package kb

import (
	"context"
	"database/sql"
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

// Store is a sqlite-vec backed knowledge index. Chunk text and sources live in
// a regular table; embeddings live in a vec0 virtual table sharing rowids.
type Store struct {
	db       *sql.DB
	embedder Embedder
	dim      int
}

// OpenStore opens (or creates) the index at path. dim must match the embedder's
// output dimension.
func OpenStore(path string, embedder Embedder, dim int) (*Store, error) {
	sqlite_vec.Auto()

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open kb index: %w", err)
	}

	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS chunks (
			id     INTEGER PRIMARY KEY,
			source TEXT NOT NULL,
			text   TEXT NOT NULL
		);
		CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunks USING vec0(
			embedding float[%d] distance_metric=cosine
		);`, dim)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create kb schema: %w", err)
	}

	return &Store{db: db, embedder: embedder, dim: dim}, nil
}

// Add embeds one chunk and stores it under the given source identifier.
func (s *Store) Add(ctx context.Context, source, text string) error {
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed chunk from %s: %w", source, err)
	}
	if len(vec) != s.dim {
		return fmt.Errorf("embedding dimension %d does not match index dimension %d", len(vec), s.dim)
	}

	blob, err := sqlite_vec.SerializeFloat32(vec)
	if err != nil {
		return fmt.Errorf("failed to serialize embedding: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO chunks (source, text) VALUES (?, ?)`, source, text)
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read chunk id: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO vec_chunks (rowid, embedding) VALUES (?, ?)`, id, blob); err != nil {
		return fmt.Errorf("failed to insert embedding: %w", err)
	}

	return tx.Commit()
}

// Search embeds the query and returns the k nearest chunks, best-first.
func (s *Store) Search(ctx context.Context, query string, k int) ([]Snippet, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	blob, err := sqlite_vec.SerializeFloat32(vec)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize query embedding: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.source, c.text, v.distance
		FROM vec_chunks v
		JOIN chunks c ON c.id = v.rowid
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance`, blob, k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer rows.Close()

	var out []Snippet
	for rows.Next() {
		var sn Snippet
		var distance float64
		if err := rows.Scan(&sn.Source, &sn.Text, &distance); err != nil {
			return nil, fmt.Errorf("failed to scan search row: %w", err)
		}
		// Cosine distance in [0,2]; flip so higher means closer.
		sn.Score = 1 - distance
		out = append(out, sn)
	}
	return out, rows.Err()
}

// Count returns the number of indexed chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n)
	return n, err
}

// Close closes the underlying index.
func (s *Store) Close() error {
	return s.db.Close()
}
