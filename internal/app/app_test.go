package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/coursechat/coursechat/internal/config"
	"github.com/coursechat/coursechat/internal/testutil"
	"github.com/coursechat/coursechat/internal/tools"
	"github.com/coursechat/coursechat/internal/vector/chromem"
)

const deepLearningDoc = `Course Title: Introduction to Deep Learning
Course Link: https://example.com/deep-learning
Course Instructor: Grace Hopper

Lesson 1: What Is a Neural Network
Lesson Link: https://example.com/deep-learning/lesson-1
A neural network is a function built from layers of weighted sums. Training adjusts the weights with gradient descent. Backpropagation computes the gradients efficiently.

Lesson 2: Convolutional Networks
Lesson Link: https://example.com/deep-learning/lesson-2
Convolutional networks apply small filters across an image. Pooling layers reduce spatial resolution. They dominate computer vision tasks.
`

const sailingDoc = `Course Title: Sailing for Beginners
Course Link: https://example.com/sailing
Course Instructor: Joshua Slocum

Lesson 1: Parts of the Boat
Lesson Link: https://example.com/sailing/lesson-1
The mast carries the mainsail. The rudder steers the hull. The keel keeps the boat upright against the wind.
`

func testConfig() *config.Config {
	return &config.Config{
		ModelName:       config.DefaultModelName,
		ChunkSize:       config.DefaultChunkSize,
		ChunkOverlap:    config.DefaultChunkOverlap,
		SearchLimit:     config.DefaultSearchLimit,
		MaxHistoryTurns: config.DefaultMaxHistoryTurns,
	}
}

func newTestApp(t *testing.T, mock *testutil.MockLLM) *App {
	t.Helper()

	vs := chromem.New(testutil.NewMockEmbedding(), testutil.DiscardLogger())
	a, err := New(testConfig(), testutil.DiscardLogger(), vs, mock)
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	return a
}

func writeCourseDir(t *testing.T, docs map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range docs {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("writing fixture %s: %v", name, err)
		}
	}
	return dir
}

func TestIngestDirectory_IndexesCourses(t *testing.T) {
	a := newTestApp(t, testutil.NewMockLLM("ok"))
	dir := writeCourseDir(t, map[string]string{
		"course1.txt": deepLearningDoc,
		"course2.txt": sailingDoc,
		"notes.md":    "not a course file",
	})

	n, err := a.IngestDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("IngestDirectory() unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("IngestDirectory() = %d courses, want 2", n)
	}

	courses := a.Index.Courses()
	if len(courses) != 2 {
		t.Fatalf("len(Courses()) = %d, want 2", len(courses))
	}
	if courses[0].Title != "Introduction to Deep Learning" {
		t.Errorf("Courses()[0].Title = %q, want %q", courses[0].Title, "Introduction to Deep Learning")
	}
}

func TestIngestDirectory_SkipsMalformedFiles(t *testing.T) {
	a := newTestApp(t, testutil.NewMockLLM("ok"))
	dir := writeCourseDir(t, map[string]string{
		"good.txt": sailingDoc,
		"bad.txt":  "this file has no course header at all",
	})

	n, err := a.IngestDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("IngestDirectory() unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("IngestDirectory() = %d courses, want 1", n)
	}
}

func TestIngestDirectory_MissingDir(t *testing.T) {
	a := newTestApp(t, testutil.NewMockLLM("ok"))

	if _, err := a.IngestDirectory(context.Background(), "/does/not/exist"); err == nil {
		t.Error("IngestDirectory(missing) = nil error, want error")
	}
}

func TestQuery_EndToEndWithRetrieval(t *testing.T) {
	mock := testutil.NewMockLLM("fallback")
	mock.AddToolCall("neural network", tools.SearchToolName, map[string]any{
		"query":       "neural network basics",
		"course_name": "Deep Learning",
	})
	mock.AddAfterTool(tools.SearchToolName, "Neural networks are layered weighted sums trained by gradient descent.")
	a := newTestApp(t, mock)

	dir := writeCourseDir(t, map[string]string{"course1.txt": deepLearningDoc})
	if _, err := a.IngestDirectory(context.Background(), dir); err != nil {
		t.Fatalf("IngestDirectory() unexpected error: %v", err)
	}

	answer, sid, err := a.Query(context.Background(), "What is a neural network in the deep learning course?", "")
	if err != nil {
		t.Fatalf("Query() unexpected error: %v", err)
	}
	if sid == "" {
		t.Error("Query() returned empty session ID")
	}
	if answer.Text != "Neural networks are layered weighted sums trained by gradient descent." {
		t.Errorf("answer = %q", answer.Text)
	}
	if len(answer.Sources) == 0 {
		t.Fatal("answer has no sources")
	}
	if answer.Sources[0].Course != "Introduction to Deep Learning" {
		t.Errorf("source course = %q", answer.Sources[0].Course)
	}

	// Second turn reuses the session.
	_, sid2, err := a.Query(context.Background(), "thanks", sid)
	if err != nil {
		t.Fatalf("Query() second turn unexpected error: %v", err)
	}
	if sid2 != sid {
		t.Errorf("second turn session = %q, want %q", sid2, sid)
	}
	if got := len(a.Sessions.History(sid)); got != 4 {
		t.Errorf("len(history) = %d, want 4", got)
	}
}

func TestQuery_NewSessionPerEmptyID(t *testing.T) {
	a := newTestApp(t, testutil.NewMockLLM("ok"))

	_, sid1, err := a.Query(context.Background(), "hi", "")
	if err != nil {
		t.Fatalf("Query() unexpected error: %v", err)
	}
	_, sid2, err := a.Query(context.Background(), "hi again", "")
	if err != nil {
		t.Fatalf("Query() unexpected error: %v", err)
	}
	if sid1 == sid2 {
		t.Errorf("both queries got session %q, want distinct sessions", sid1)
	}
}
