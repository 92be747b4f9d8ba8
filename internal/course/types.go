// Package course defines the course document model and the ingestion-side
// processing applied to it: parsing raw course files and splitting lesson
// content into overlapping, sentence-bounded chunks.
package course

import "fmt"

// Document is a raw course file parsed into its structure.
// Documents are read once at startup and are immutable afterwards.
type Document struct {
	Title      string
	Link       string
	Instructor string
	FileName   string

	// Preamble is content that appears after the header but before the
	// first lesson marker. It is chunked without a lesson number.
	Preamble string

	Lessons []Lesson
}

// Lesson is a named section within a Document, owned exclusively by it.
type Lesson struct {
	Number  int
	Title   string
	Link    string
	Content string
}

// Chunk is a bounded span of course text prepared for embedding and
// retrieval. Chunks are created once per Document at ingestion and are
// immutable. Index increases monotonically across the whole document, so
// (course title, index) is a stable, deterministic identity.
type Chunk struct {
	CourseTitle  string
	LessonNumber *int // nil for preamble chunks
	LessonLink   string
	Index        int
	Text         string
}

// ID returns the deterministic chunk key used in the content index.
// Re-ingesting the same course produces the same keys, making ingestion
// idempotent (replace, not duplicate).
func (c Chunk) ID() string {
	return fmt.Sprintf("%s-%d", c.CourseTitle, c.Index)
}

// Contextualized returns the chunk text prefixed with a synthetic context
// header, so the embedding captures course and lesson context even though
// only the body varies chunk to chunk.
func (c Chunk) Contextualized() string {
	if c.LessonNumber == nil {
		return fmt.Sprintf("Course %s content: %s", c.CourseTitle, c.Text)
	}
	return fmt.Sprintf("Course %s Lesson %d content: %s", c.CourseTitle, *c.LessonNumber, c.Text)
}
