// Package postgres implements the vector.Store contract on PostgreSQL with
// the pgvector extension. All collections share one documents table keyed by
// (collection, id); metadata filters use JSONB containment.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/coursechat/coursechat/internal/vector"
)

// querier is the common interface satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const upsertSQL = `INSERT INTO documents (collection, id, content, metadata, embedding)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (collection, id)
	DO UPDATE SET content = EXCLUDED.content, metadata = EXCLUDED.metadata, embedding = EXCLUDED.embedding`

const querySQL = `SELECT id, content, metadata, 1 - (embedding <=> $1) AS similarity
	FROM documents
	WHERE collection = $2 AND metadata @> $3
	ORDER BY embedding <=> $1
	LIMIT $4`

const deleteSQL = `DELETE FROM documents WHERE collection = $1 AND metadata @> $2`

const countSQL = `SELECT count(*) FROM documents WHERE collection = $1`

// Store is a PostgreSQL-backed vector store.
// Safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	embed  vector.EmbeddingFunc
	logger *slog.Logger
}

// New creates a Store on an existing connection pool. The documents table
// must already exist; run db.Migrate before constructing the store.
func New(pool *pgxpool.Pool, embed vector.EmbeddingFunc, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if embed == nil {
		return nil, fmt.Errorf("embedding function is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, embed: embed, logger: logger}, nil
}

// Collection returns a view over the named collection. Collections need no
// creation step; they exist as soon as a document is upserted.
func (s *Store) Collection(name string) (vector.Collection, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", vector.ErrUnknownCollection)
	}
	return &collection{
		name:   name,
		db:     s.pool,
		embed:  s.embed,
		logger: s.logger.With("collection", name),
	}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

type collection struct {
	name   string
	db     querier
	embed  vector.EmbeddingFunc
	logger *slog.Logger
}

func (c *collection) Upsert(ctx context.Context, docs ...vector.Document) error {
	for _, d := range docs {
		emb, err := c.embed(ctx, d.Content)
		if err != nil {
			return fmt.Errorf("embedding document %q: %w", d.ID, err)
		}

		meta := d.Metadata
		if meta == nil {
			meta = map[string]string{}
		}
		metaJSON, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshaling metadata for %q: %w", d.ID, err)
		}

		v := pgvector.NewVector(emb)
		if _, err := c.db.Exec(ctx, upsertSQL, c.name, d.ID, d.Content, metaJSON, &v); err != nil {
			return fmt.Errorf("upserting document %q: %w", d.ID, err)
		}
	}
	c.logger.Debug("upserted documents", "count", len(docs))
	return nil
}

func (c *collection) Query(ctx context.Context, text string, limit int, where map[string]string) ([]vector.Result, error) {
	emb, err := c.embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	if where == nil {
		where = map[string]string{}
	}
	filterJSON, err := json.Marshal(where)
	if err != nil {
		return nil, fmt.Errorf("marshaling filter: %w", err)
	}

	v := pgvector.NewVector(emb)
	rows, err := c.db.Query(ctx, querySQL, &v, c.name, filterJSON, limit)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}
	defer rows.Close()

	var out []vector.Result
	for rows.Next() {
		var (
			r        vector.Result
			metaJSON []byte
		)
		if err := rows.Scan(&r.ID, &r.Content, &metaJSON, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}
		if err := json.Unmarshal(metaJSON, &r.Metadata); err != nil {
			c.logger.Warn("unparsable metadata", "id", r.ID, "error", err)
			r.Metadata = map[string]string{}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating results: %w", err)
	}
	return out, nil
}

func (c *collection) Delete(ctx context.Context, where map[string]string) error {
	if where == nil {
		where = map[string]string{}
	}
	filterJSON, err := json.Marshal(where)
	if err != nil {
		return fmt.Errorf("marshaling filter: %w", err)
	}

	tag, err := c.db.Exec(ctx, deleteSQL, c.name, filterJSON)
	if err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}
	c.logger.Debug("deleted documents", "count", tag.RowsAffected())
	return nil
}

func (c *collection) Count(ctx context.Context) (int, error) {
	var count int64
	if err := c.db.QueryRow(ctx, countSQL, c.name).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return int(count), nil
}
