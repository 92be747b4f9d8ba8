// Package chromem implements the vector.Store contract on top of
// philippgille/chromem-go, an embedded in-process vector database.
// It is the default backend: no external service, optional persistence
// to disk, and fast enough for corpora of course-material size.
package chromem

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	chromemgo "github.com/philippgille/chromem-go"

	"github.com/coursechat/coursechat/internal/vector"
)

// Store is an embedded vector store. Safe for concurrent use.
type Store struct {
	db     *chromemgo.DB
	embed  chromemgo.EmbeddingFunc
	logger *slog.Logger
}

// New creates an in-memory store. Contents are lost on process exit, which
// suits the ingest-on-startup lifecycle.
func New(embed vector.EmbeddingFunc, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:     chromemgo.NewDB(),
		embed:  chromemgo.EmbeddingFunc(embed),
		logger: logger,
	}
}

// NewPersistent creates a store persisted under path, reloading any
// previously written collections.
func NewPersistent(path string, embed vector.EmbeddingFunc, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := chromemgo.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("opening persistent vector db: %w", err)
	}
	return &Store{db: db, embed: chromemgo.EmbeddingFunc(embed), logger: logger}, nil
}

// Collection returns the named collection, creating it on first use.
func (s *Store) Collection(name string) (vector.Collection, error) {
	coll, err := s.db.GetOrCreateCollection(name, nil, s.embed)
	if err != nil {
		return nil, fmt.Errorf("getting collection %q: %w", name, err)
	}
	return &collection{coll: coll, logger: s.logger.With("collection", name)}, nil
}

// Close is a no-op; chromem has no connections to release.
func (*Store) Close() error { return nil }

type collection struct {
	coll   *chromemgo.Collection
	logger *slog.Logger
}

func (c *collection) Upsert(ctx context.Context, docs ...vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	converted := make([]chromemgo.Document, 0, len(docs))
	for _, d := range docs {
		converted = append(converted, chromemgo.Document{
			ID:       d.ID,
			Content:  d.Content,
			Metadata: d.Metadata,
		})
	}

	if err := c.coll.AddDocuments(ctx, converted, runtime.NumCPU()); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}
	c.logger.Debug("upserted documents", "count", len(docs))
	return nil
}

func (c *collection) Query(ctx context.Context, text string, limit int, where map[string]string) ([]vector.Result, error) {
	// chromem rejects limits above the collection size, and an empty
	// collection has nothing to return.
	count := c.coll.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	results, err := c.coll.Query(ctx, text, limit, where, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	out := make([]vector.Result, 0, len(results))
	for _, r := range results {
		out = append(out, vector.Result{
			Document: vector.Document{
				ID:       r.ID,
				Content:  r.Content,
				Metadata: r.Metadata,
			},
			Similarity: r.Similarity,
		})
	}
	return out, nil
}

func (c *collection) Delete(ctx context.Context, where map[string]string) error {
	if c.coll.Count() == 0 {
		return nil
	}
	if err := c.coll.Delete(ctx, where, nil); err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}
	return nil
}

func (c *collection) Count(_ context.Context) (int, error) {
	return c.coll.Count(), nil
}
