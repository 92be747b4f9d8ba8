// Package index organizes course material into two nearest-neighbor
// collections over a vector.Store:
//
//   - the catalog collection holds one entry per course, embedding only the
//     title; it resolves approximate course names to canonical titles.
//   - the content collection holds one entry per chunk, embedding the
//     context-prefixed chunk text; it answers semantic searches with
//     optional course/lesson equality filters.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"github.com/coursechat/coursechat/internal/course"
	"github.com/coursechat/coursechat/internal/vector"
)

// Collection names within the vector store.
const (
	CatalogCollection = "catalog"
	ContentCollection = "chunks"
)

// Metadata keys on content entries.
const (
	metaCourseTitle  = "course_title"
	metaLessonNumber = "lesson_number"
	metaChunkIndex   = "chunk_index"
	metaLessonLink   = "lesson_link"
)

// Metadata keys on catalog entries.
const (
	metaCourseLink = "link"
	metaInstructor = "instructor"
	metaLessons    = "lessons"
)

// ErrCourseNotFound indicates a course-name fragment that resolved to
// nothing because the catalog is empty. It is distinguishable from a search
// that resolved fine but matched no content (which returns zero results and
// no error).
var ErrCourseNotFound = errors.New("no matching course found")

// CourseMeta describes one catalog entry.
type CourseMeta struct {
	Title      string       `json:"title"`
	Link       string       `json:"link"`
	Instructor string       `json:"instructor"`
	Lessons    []LessonMeta `json:"lessons"`
}

// LessonMeta is one lesson of a catalog entry.
type LessonMeta struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Link   string `json:"link,omitempty"`
}

// SearchResult is one content match.
type SearchResult struct {
	Text         string
	CourseTitle  string
	LessonNumber *int // nil for preamble chunks
	LessonLink   string
	Similarity   float32
}

// SearchResponse carries the matches together with the filter that was
// actually applied (canonical title after resolution), so callers can name
// the filters in user-facing messages.
type SearchResponse struct {
	Results      []SearchResult
	CourseTitle  string // canonical title, empty if no course filter
	LessonNumber *int
}

// Store is the dual-collection index. Safe for concurrent reads; ingestion
// runs once at startup before queries are served.
type Store struct {
	catalog vector.Collection
	content vector.Collection
	limit   int
	logger  *slog.Logger

	// courses is populated only by IngestCourse, so Courses reflects what
	// this process ingested. Deployments on a persistent backend must keep
	// ingestion at startup (serve reingests the docs directory) or the
	// registry starts empty while searches still hit persisted data.
	mu      sync.RWMutex
	courses map[string]CourseMeta
}

// New creates a Store over the given vector store. searchLimit is the
// default result cap applied when a search does not specify its own.
func New(vs vector.Store, searchLimit int, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	catalog, err := vs.Collection(CatalogCollection)
	if err != nil {
		return nil, fmt.Errorf("opening catalog collection: %w", err)
	}
	content, err := vs.Collection(ContentCollection)
	if err != nil {
		return nil, fmt.Errorf("opening content collection: %w", err)
	}
	if searchLimit <= 0 {
		searchLimit = 5
	}
	return &Store{
		catalog: catalog,
		content: content,
		limit:   searchLimit,
		logger:  logger,
		courses: make(map[string]CourseMeta),
	}, nil
}

// IngestCourse replaces the catalog entry and all content chunks of the
// course described by doc. Old chunks are deleted first and the catalog
// entry is written last, so a stale catalog entry without content is never
// observable; chunk IDs are deterministic, making re-ingestion idempotent.
func (s *Store) IngestCourse(ctx context.Context, doc *course.Document, chunks []course.Chunk) error {
	if doc.Title == "" {
		return fmt.Errorf("course title must not be empty")
	}

	if err := s.content.Delete(ctx, map[string]string{metaCourseTitle: doc.Title}); err != nil {
		return fmt.Errorf("removing stale chunks for %q: %w", doc.Title, err)
	}

	docs := make([]vector.Document, 0, len(chunks))
	for _, ch := range chunks {
		meta := map[string]string{
			metaCourseTitle: ch.CourseTitle,
			metaChunkIndex:  strconv.Itoa(ch.Index),
		}
		if ch.LessonNumber != nil {
			meta[metaLessonNumber] = strconv.Itoa(*ch.LessonNumber)
		}
		if ch.LessonLink != "" {
			meta[metaLessonLink] = ch.LessonLink
		}
		docs = append(docs, vector.Document{
			ID:       ch.ID(),
			Content:  ch.Contextualized(),
			Metadata: meta,
		})
	}
	if err := s.content.Upsert(ctx, docs...); err != nil {
		return fmt.Errorf("indexing chunks for %q: %w", doc.Title, err)
	}

	meta := courseMeta(doc)
	lessonsJSON, err := json.Marshal(meta.Lessons)
	if err != nil {
		return fmt.Errorf("marshaling lesson list for %q: %w", doc.Title, err)
	}
	entry := vector.Document{
		ID:      doc.Title,
		Content: doc.Title,
		Metadata: map[string]string{
			metaCourseLink: doc.Link,
			metaInstructor: doc.Instructor,
			metaLessons:    string(lessonsJSON),
		},
	}
	if err := s.catalog.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("indexing catalog entry for %q: %w", doc.Title, err)
	}

	s.mu.Lock()
	s.courses[doc.Title] = meta
	s.mu.Unlock()

	s.logger.Info("ingested course", "course", doc.Title, "chunks", len(chunks))
	return nil
}

// ResolveCourse resolves an approximate course name to its catalog entry by
// taking the single nearest neighbor. There is deliberately no similarity
// threshold: with a non-empty catalog, every fragment resolves to some
// course, even an implausible one. ErrCourseNotFound is returned only when
// the catalog has no entries at all.
func (s *Store) ResolveCourse(ctx context.Context, nameFragment string) (CourseMeta, error) {
	results, err := s.catalog.Query(ctx, nameFragment, 1, nil)
	if err != nil {
		return CourseMeta{}, fmt.Errorf("resolving course %q: %w", nameFragment, err)
	}
	if len(results) == 0 {
		return CourseMeta{}, fmt.Errorf("%w: %q", ErrCourseNotFound, nameFragment)
	}
	return parseCatalogEntry(results[0].Document), nil
}

// Search runs a semantic query over the content collection. A non-empty
// courseName is first resolved against the catalog; the canonical title
// (and lessonNumber, if given) become equality filters on chunk metadata.
// Resolution failure surfaces as ErrCourseNotFound; a resolved search with
// no matches returns an empty result set and no error.
func (s *Store) Search(ctx context.Context, query, courseName string, lessonNumber *int, limit int) (*SearchResponse, error) {
	resp := &SearchResponse{LessonNumber: lessonNumber}

	where := map[string]string{}
	if courseName != "" {
		meta, err := s.ResolveCourse(ctx, courseName)
		if err != nil {
			return nil, err
		}
		resp.CourseTitle = meta.Title
		where[metaCourseTitle] = meta.Title
	}
	if lessonNumber != nil {
		where[metaLessonNumber] = strconv.Itoa(*lessonNumber)
	}
	if len(where) == 0 {
		where = nil
	}
	if limit <= 0 {
		limit = s.limit
	}

	results, err := s.content.Query(ctx, query, limit, where)
	if err != nil {
		return nil, fmt.Errorf("searching content: %w", err)
	}

	for _, r := range results {
		sr := SearchResult{
			Text:        r.Content,
			CourseTitle: r.Metadata[metaCourseTitle],
			LessonLink:  r.Metadata[metaLessonLink],
			Similarity:  r.Similarity,
		}
		if raw, ok := r.Metadata[metaLessonNumber]; ok {
			if n, err := strconv.Atoi(raw); err == nil {
				sr.LessonNumber = &n
			}
		}
		resp.Results = append(resp.Results, sr)
	}
	return resp, nil
}

// Courses lists all ingested courses ordered by title.
func (s *Store) Courses() []CourseMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]CourseMeta, 0, len(s.courses))
	for _, m := range s.courses {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// ChunkCount reports the number of indexed chunks, for startup logging.
func (s *Store) ChunkCount(ctx context.Context) (int, error) {
	return s.content.Count(ctx)
}

func courseMeta(doc *course.Document) CourseMeta {
	meta := CourseMeta{
		Title:      doc.Title,
		Link:       doc.Link,
		Instructor: doc.Instructor,
	}
	for _, l := range doc.Lessons {
		meta.Lessons = append(meta.Lessons, LessonMeta{Number: l.Number, Title: l.Title, Link: l.Link})
	}
	return meta
}

func parseCatalogEntry(d vector.Document) CourseMeta {
	meta := CourseMeta{
		Title:      d.ID,
		Link:       d.Metadata[metaCourseLink],
		Instructor: d.Metadata[metaInstructor],
	}
	if raw := d.Metadata[metaLessons]; raw != "" {
		// Ignore unmarshal errors: the lesson list is written by
		// IngestCourse, so a bad value only loses outline detail.
		_ = json.Unmarshal([]byte(raw), &meta.Lessons)
	}
	return meta
}
