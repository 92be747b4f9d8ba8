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

// OutlineToolName is the name the model uses to fetch a course outline.
const OutlineToolName = "get_course_outline"

// OutlineTool returns the structure of a course: title, link, instructor
// and the full lesson list. It answers questions about what a course
// covers without running a content search.
type OutlineTool struct {
	store *index.Store
}

func NewOutlineTool(store *index.Store) *OutlineTool {
	return &OutlineTool{store: store}
}

func (t *OutlineTool) Decl() llm.ToolDecl {
	return llm.ToolDecl{
		Name:        OutlineToolName,
		Description: "Get the outline of a course: its title, link, instructor and complete lesson list",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"course_name": {
					Type:        genai.TypeString,
					Description: "Course title (partial matches work)",
				},
			},
			Required: []string{"course_name"},
		},
	}
}

func (t *OutlineTool) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	courseName := stringArg(args, "course_name")
	if courseName == "" {
		return &Result{Text: "Outline lookup failed: a course name is required."}, nil
	}

	meta, err := t.store.ResolveCourse(ctx, courseName)
	if err != nil {
		if errors.Is(err, index.ErrCourseNotFound) {
			return &Result{Text: fmt.Sprintf("No course found matching '%s'", courseName)}, nil
		}
		return nil, fmt.Errorf("outline lookup: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", meta.Title)
	if meta.Link != "" {
		fmt.Fprintf(&b, "Link: %s\n", meta.Link)
	}
	if meta.Instructor != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", meta.Instructor)
	}
	fmt.Fprintf(&b, "Lessons (%d):\n", len(meta.Lessons))
	for _, l := range meta.Lessons {
		fmt.Fprintf(&b, "  Lesson %d: %s\n", l.Number, l.Title)
	}

	return &Result{
		Text:    b.String(),
		Sources: []Source{{Course: meta.Title, Link: meta.Link}},
	}, nil
}
