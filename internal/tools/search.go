package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/coursechat/coursechat/internal/index"
	"github.com/coursechat/coursechat/internal/llm"
)

// SearchToolName is the name the model uses to invoke content search.
const SearchToolName = "search_course_content"

// SearchTool performs semantic search over indexed course content with
// optional course and lesson filters.
type SearchTool struct {
	store *index.Store
	limit int
}

// NewSearchTool creates the content search tool. limit caps results per
// search; zero falls back to the store default.
func NewSearchTool(store *index.Store, limit int) *SearchTool {
	return &SearchTool{store: store, limit: limit}
}

func (t *SearchTool) Decl() llm.ToolDecl {
	return llm.ToolDecl{
		Name:        SearchToolName,
		Description: "Search course materials with smart course name matching and lesson filtering",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"query": {
					Type:        genai.TypeString,
					Description: "What to search for in the course content",
				},
				"course_name": {
					Type:        genai.TypeString,
					Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
				"lesson_number": {
					Type:        genai.TypeInteger,
					Description: "Specific lesson number to search within (e.g. 1, 2, 3)",
				},
			},
			Required: []string{"query"},
		},
	}
}

// Execute runs the search. An unresolvable course name or an empty result
// set comes back as explanatory text for the model, not as an error.
func (t *SearchTool) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	query := stringArg(args, "query")
	if query == "" {
		return &Result{Text: "Search failed: a query is required."}, nil
	}
	courseName := stringArg(args, "course_name")
	lessonNumber := intArg(args, "lesson_number")

	resp, err := t.store.Search(ctx, query, courseName, lessonNumber, t.limit)
	if err != nil {
		if errors.Is(err, index.ErrCourseNotFound) {
			return &Result{Text: fmt.Sprintf("No course found matching '%s'", courseName)}, nil
		}
		return nil, fmt.Errorf("content search: %w", err)
	}

	if len(resp.Results) == 0 {
		var b strings.Builder
		b.WriteString("No relevant content found")
		if resp.CourseTitle != "" {
			fmt.Fprintf(&b, " in course '%s'", resp.CourseTitle)
		}
		if resp.LessonNumber != nil {
			fmt.Fprintf(&b, " in lesson %d", *resp.LessonNumber)
		}
		b.WriteString(".")
		return &Result{Text: b.String()}, nil
	}

	return formatResults(resp.Results), nil
}

// formatResults renders matches as header-prefixed blocks and collects one
// source per match.
func formatResults(results []index.SearchResult) *Result {
	blocks := make([]string, 0, len(results))
	sources := make([]Source, 0, len(results))
	for _, r := range results {
		header := r.CourseTitle
		if r.LessonNumber != nil {
			header = fmt.Sprintf("%s - Lesson %d", r.CourseTitle, *r.LessonNumber)
		}
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", header, r.Text))
		sources = append(sources, Source{
			Course: r.CourseTitle,
			Lesson: r.LessonNumber,
			Link:   r.LessonLink,
		})
	}
	return &Result{Text: strings.Join(blocks, "\n\n"), Sources: sources}
}
