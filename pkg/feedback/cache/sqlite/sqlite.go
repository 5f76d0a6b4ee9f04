package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/feedback/pkg/feedback/embedding"
)

// Cache persists embedding vectors in SQLite so repeated runs over the same
// comments skip the model.
type Cache struct {
	db *sql.DB
}

// Open opens a SQLite database with WAL mode enabled and creates the schema.
func Open(ctx context.Context, path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// One connection serializes writers from concurrent bucket clusterings.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Cache{db: db}, nil
}

// Close closes the database connection
func (c *Cache) Close() error {
	return c.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS embeddings (
	model TEXT NOT NULL,
	text TEXT NOT NULL,
	dims INTEGER NOT NULL,
	vector TEXT NOT NULL,
	created_at TEXT NOT NULL,
	PRIMARY KEY(model, text)
);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Get implements embedding.Cache.
func (c *Cache) Get(ctx context.Context, model, text string) (embedding.Vector, bool, error) {
	var raw string
	err := c.db.QueryRowContext(ctx,
		`SELECT vector FROM embeddings WHERE model = ? AND text = ?`, model, text).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var v embedding.Vector
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, false, fmt.Errorf("decode vector for %q: %w", text, err)
	}
	return v, true, nil
}

// Put implements embedding.Cache.
func (c *Cache) Put(ctx context.Context, model, text string, v embedding.Vector) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx, `
INSERT INTO embeddings(model, text, dims, vector, created_at) VALUES(?, ?, ?, ?, ?)
ON CONFLICT(model, text) DO UPDATE SET dims = excluded.dims, vector = excluded.vector, created_at = excluded.created_at`,
		model, text, len(v), string(raw), time.Now().UTC().Format(time.RFC3339))
	return err
}

// Count returns the number of cached vectors for a model.
func (c *Cache) Count(ctx context.Context, model string) (int64, error) {
	var n int64
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings WHERE model = ?`, model).Scan(&n)
	return n, err
}

// Prune removes vectors older than the cutoff and returns how many went.
func (c *Cache) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM embeddings WHERE created_at < ?`, olderThan.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
