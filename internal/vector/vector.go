// Package vector defines the nearest-neighbor store contract shared by the
// embedded (chromem) and PostgreSQL (pgvector) backends.
//
// A Store exposes named collections of embedded documents. The same
// embedding function is used for indexing and querying, so index-time and
// query-time vectors are always comparable.
package vector

import (
	"context"
	"errors"
)

// EmbeddingFunc converts text into a fixed-length vector. It must be pure:
// the same text always yields the same vector.
type EmbeddingFunc func(ctx context.Context, text string) ([]float32, error)

// Document is an embeddable record in a collection. Metadata values are
// strings to stay compatible with both backends.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Result is a single nearest-neighbor match. Similarity is cosine
// similarity in [0, 1]; results are ordered by descending similarity,
// equivalently ascending distance (distance = 1 - similarity).
type Result struct {
	Document
	Similarity float32
}

// ErrUnknownCollection indicates a collection name the store does not serve.
var ErrUnknownCollection = errors.New("unknown collection")

// Collection is a named set of embedded documents supporting upsert,
// filtered nearest-neighbor queries and filtered deletion.
type Collection interface {
	// Upsert inserts or replaces documents by ID.
	Upsert(ctx context.Context, docs ...Document) error

	// Query returns up to limit nearest neighbors of text, restricted to
	// documents whose metadata contains every key/value pair in where.
	// A nil or empty where matches all documents. Fewer than limit results
	// (including none) is not an error.
	Query(ctx context.Context, text string, limit int, where map[string]string) ([]Result, error)

	// Delete removes every document whose metadata contains all of where.
	Delete(ctx context.Context, where map[string]string) error

	// Count returns the number of documents in the collection.
	Count(ctx context.Context) (int, error)
}

// Store provides access to named collections.
type Store interface {
	Collection(name string) (Collection, error)
	Close() error
}
