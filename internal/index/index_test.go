package index

import (
	"context"
	"errors"
	"testing"

	"github.com/coursechat/coursechat/internal/course"
	"github.com/coursechat/coursechat/internal/testutil"
	"github.com/coursechat/coursechat/internal/vector/chromem"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	vs := chromem.New(testutil.NewMockEmbedding(), testutil.DiscardLogger())
	store, err := New(vs, 5, testutil.DiscardLogger())
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	return store
}

func ingestSamples(t *testing.T, store *Store) {
	t.Helper()

	chunker := course.NewChunker(800, 100)
	for _, doc := range testutil.SampleCourses() {
		if err := store.IngestCourse(context.Background(), doc, chunker.Chunk(doc)); err != nil {
			t.Fatalf("IngestCourse(%q) unexpected error: %v", doc.Title, err)
		}
	}
}

func TestResolveCourse_PartialName(t *testing.T) {
	store := newTestStore(t)
	ingestSamples(t, store)

	tests := []struct {
		name     string
		fragment string
		want     string
	}{
		{"truncated title", "Deep Learnin", "Introduction to Deep Learning"},
		{"exact title", "Practical Databases", "Practical Databases"},
		{"single word", "Sailing", "Sailing for Beginners"},
		{"lowercase", "deep learning", "Introduction to Deep Learning"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := store.ResolveCourse(context.Background(), tt.fragment)
			if err != nil {
				t.Fatalf("ResolveCourse(%q) unexpected error: %v", tt.fragment, err)
			}
			if meta.Title != tt.want {
				t.Errorf("ResolveCourse(%q) = %q, want %q", tt.fragment, meta.Title, tt.want)
			}
		})
	}
}

func TestResolveCourse_EmptyCatalog(t *testing.T) {
	store := newTestStore(t)

	_, err := store.ResolveCourse(context.Background(), "anything")
	if !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("ResolveCourse() error = %v, want ErrCourseNotFound", err)
	}
}

func TestResolveCourse_CarriesOutlineMetadata(t *testing.T) {
	store := newTestStore(t)
	ingestSamples(t, store)

	meta, err := store.ResolveCourse(context.Background(), "Practical Databases")
	if err != nil {
		t.Fatalf("ResolveCourse() unexpected error: %v", err)
	}

	if meta.Instructor != "Edgar Codd" {
		t.Errorf("Instructor = %q, want %q", meta.Instructor, "Edgar Codd")
	}
	if meta.Link != "https://example.com/databases" {
		t.Errorf("Link = %q, want %q", meta.Link, "https://example.com/databases")
	}
	if len(meta.Lessons) != 2 {
		t.Fatalf("len(Lessons) = %d, want 2", len(meta.Lessons))
	}
	if meta.Lessons[1].Number != 2 || meta.Lessons[1].Title != "Indexes and Query Plans" {
		t.Errorf("Lessons[1] = %+v, want number 2 title %q", meta.Lessons[1], "Indexes and Query Plans")
	}
}

func TestSearch_Unfiltered(t *testing.T) {
	store := newTestStore(t)
	ingestSamples(t, store)

	resp, err := store.Search(context.Background(), "gradient descent backpropagation", "", nil, 3)
	if err != nil {
		t.Fatalf("Search() unexpected error: %v", err)
	}
	if len(resp.Results) == 0 {
		t.Fatal("Search() returned no results")
	}
	if resp.CourseTitle != "" {
		t.Errorf("CourseTitle = %q, want empty (no filter)", resp.CourseTitle)
	}
	if got := resp.Results[0].CourseTitle; got != "Introduction to Deep Learning" {
		t.Errorf("top result course = %q, want %q", got, "Introduction to Deep Learning")
	}
}

func TestSearch_CourseFilterRestrictsResults(t *testing.T) {
	store := newTestStore(t)
	ingestSamples(t, store)

	resp, err := store.Search(context.Background(), "lesson content", "Databases", nil, 10)
	if err != nil {
		t.Fatalf("Search() unexpected error: %v", err)
	}
	if resp.CourseTitle != "Practical Databases" {
		t.Errorf("CourseTitle = %q, want %q", resp.CourseTitle, "Practical Databases")
	}
	if len(resp.Results) == 0 {
		t.Fatal("Search() returned no results")
	}
	for _, r := range resp.Results {
		if r.CourseTitle != "Practical Databases" {
			t.Errorf("result from course %q, want only %q", r.CourseTitle, "Practical Databases")
		}
	}
}

func TestSearch_LessonFilter(t *testing.T) {
	store := newTestStore(t)
	ingestSamples(t, store)

	lesson := 2
	resp, err := store.Search(context.Background(), "filters and pooling", "Deep Learning", &lesson, 10)
	if err != nil {
		t.Fatalf("Search() unexpected error: %v", err)
	}
	if len(resp.Results) == 0 {
		t.Fatal("Search() returned no results")
	}
	for _, r := range resp.Results {
		if r.LessonNumber == nil || *r.LessonNumber != 2 {
			t.Errorf("result lesson = %v, want 2", r.LessonNumber)
		}
	}
}

func TestSearch_ResolvedCourseNoMatches(t *testing.T) {
	store := newTestStore(t)
	ingestSamples(t, store)

	// Lesson 9 does not exist, so the filter matches nothing. That is an
	// empty result, not a resolution failure.
	lesson := 9
	resp, err := store.Search(context.Background(), "anything", "Sailing", &lesson, 10)
	if err != nil {
		t.Fatalf("Search() unexpected error: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("len(Results) = %d, want 0", len(resp.Results))
	}
}

func TestSearch_EmptyIndexWithCourseFilter(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Search(context.Background(), "anything", "Deep Learning", nil, 5)
	if !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("Search() error = %v, want ErrCourseNotFound", err)
	}
}

func TestIngestCourse_ReplaceNotAppend(t *testing.T) {
	store := newTestStore(t)
	ingestSamples(t, store)

	before, err := store.ChunkCount(context.Background())
	if err != nil {
		t.Fatalf("ChunkCount() unexpected error: %v", err)
	}

	chunker := course.NewChunker(800, 100)
	doc := testutil.SampleCourses()[0]
	if err := store.IngestCourse(context.Background(), doc, chunker.Chunk(doc)); err != nil {
		t.Fatalf("IngestCourse() unexpected error: %v", err)
	}

	after, err := store.ChunkCount(context.Background())
	if err != nil {
		t.Fatalf("ChunkCount() unexpected error: %v", err)
	}
	if after != before {
		t.Errorf("chunk count after re-ingest = %d, want %d", after, before)
	}
}

func TestIngestCourse_SmallerReplacementShrinksIndex(t *testing.T) {
	store := newTestStore(t)
	ingestSamples(t, store)

	chunker := course.NewChunker(800, 100)
	doc := testutil.SampleCourses()[0]
	doc.Lessons = doc.Lessons[:1]
	if err := store.IngestCourse(context.Background(), doc, chunker.Chunk(doc)); err != nil {
		t.Fatalf("IngestCourse() unexpected error: %v", err)
	}

	resp, err := store.Search(context.Background(), "convolutional pooling filters", doc.Title, nil, 20)
	if err != nil {
		t.Fatalf("Search() unexpected error: %v", err)
	}
	for _, r := range resp.Results {
		if r.LessonNumber != nil && *r.LessonNumber == 2 {
			t.Errorf("stale lesson 2 chunk survived re-ingest: %q", r.Text)
		}
	}
}

func TestIngestCourse_EmptyTitle(t *testing.T) {
	store := newTestStore(t)

	err := store.IngestCourse(context.Background(), &course.Document{}, nil)
	if err == nil {
		t.Error("IngestCourse() with empty title = nil error, want error")
	}
}

func TestCourses_SortedByTitle(t *testing.T) {
	store := newTestStore(t)
	ingestSamples(t, store)

	courses := store.Courses()
	if len(courses) != 3 {
		t.Fatalf("len(Courses()) = %d, want 3", len(courses))
	}
	want := []string{"Introduction to Deep Learning", "Practical Databases", "Sailing for Beginners"}
	for i, w := range want {
		if courses[i].Title != w {
			t.Errorf("Courses()[%d].Title = %q, want %q", i, courses[i].Title, w)
		}
	}
}
