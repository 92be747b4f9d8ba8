package chromem

import (
	"context"
	"testing"

	"github.com/coursechat/coursechat/internal/testutil"
	"github.com/coursechat/coursechat/internal/vector"
)

func newTestCollection(t *testing.T) vector.Collection {
	t.Helper()

	store := New(testutil.NewMockEmbedding(), testutil.DiscardLogger())
	coll, err := store.Collection("test")
	if err != nil {
		t.Fatalf("Collection() unexpected error: %v", err)
	}
	return coll
}

func seedDocs(t *testing.T, coll vector.Collection) {
	t.Helper()

	err := coll.Upsert(context.Background(),
		vector.Document{ID: "a", Content: "the quick brown fox", Metadata: map[string]string{"group": "animals"}},
		vector.Document{ID: "b", Content: "a lazy sleeping dog", Metadata: map[string]string{"group": "animals"}},
		vector.Document{ID: "c", Content: "binary search trees", Metadata: map[string]string{"group": "algorithms"}},
	)
	if err != nil {
		t.Fatalf("Upsert() unexpected error: %v", err)
	}
}

func TestCollection_QueryReturnsNearest(t *testing.T) {
	coll := newTestCollection(t)
	seedDocs(t, coll)

	results, err := coll.Query(context.Background(), "quick brown fox", 1, nil)
	if err != nil {
		t.Fatalf("Query() unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].ID != "a" {
		t.Errorf("top result ID = %q, want %q", results[0].ID, "a")
	}
	if results[0].Similarity <= 0 {
		t.Errorf("Similarity = %f, want > 0", results[0].Similarity)
	}
}

func TestCollection_QueryClampsLimit(t *testing.T) {
	coll := newTestCollection(t)
	seedDocs(t, coll)

	// chromem rejects nResults above the collection size; the wrapper
	// clamps instead.
	results, err := coll.Query(context.Background(), "anything", 50, nil)
	if err != nil {
		t.Fatalf("Query() unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("len(results) = %d, want 3", len(results))
	}
}

func TestCollection_QueryEmptyCollection(t *testing.T) {
	coll := newTestCollection(t)

	results, err := coll.Query(context.Background(), "anything", 5, nil)
	if err != nil {
		t.Fatalf("Query() unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
}

func TestCollection_QueryMetadataFilter(t *testing.T) {
	coll := newTestCollection(t)
	seedDocs(t, coll)

	results, err := coll.Query(context.Background(), "anything at all", 10, map[string]string{"group": "algorithms"})
	if err != nil {
		t.Fatalf("Query() unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].ID != "c" {
		t.Errorf("results = %+v, want only document c", results)
	}
}

func TestCollection_UpsertReplacesByID(t *testing.T) {
	coll := newTestCollection(t)
	seedDocs(t, coll)

	err := coll.Upsert(context.Background(),
		vector.Document{ID: "a", Content: "replacement content", Metadata: map[string]string{"group": "animals"}})
	if err != nil {
		t.Fatalf("Upsert() unexpected error: %v", err)
	}

	count, err := coll.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() unexpected error: %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d after re-upsert, want 3", count)
	}
}

func TestCollection_DeleteByFilter(t *testing.T) {
	coll := newTestCollection(t)
	seedDocs(t, coll)

	if err := coll.Delete(context.Background(), map[string]string{"group": "animals"}); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}

	count, err := coll.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d after delete, want 1", count)
	}
}

func TestCollection_DeleteOnEmptyCollection(t *testing.T) {
	coll := newTestCollection(t)

	if err := coll.Delete(context.Background(), map[string]string{"group": "animals"}); err != nil {
		t.Errorf("Delete() on empty collection = %v, want nil", err)
	}
}

func TestStore_CollectionIsStable(t *testing.T) {
	store := New(testutil.NewMockEmbedding(), testutil.DiscardLogger())

	c1, err := store.Collection("shared")
	if err != nil {
		t.Fatalf("Collection() unexpected error: %v", err)
	}
	if err := c1.Upsert(context.Background(), vector.Document{ID: "x", Content: "hello world"}); err != nil {
		t.Fatalf("Upsert() unexpected error: %v", err)
	}

	c2, err := store.Collection("shared")
	if err != nil {
		t.Fatalf("Collection() unexpected error: %v", err)
	}
	count, err := c2.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("Count() via second handle = %d, want 1", count)
	}
}
