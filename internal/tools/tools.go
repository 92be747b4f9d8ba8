// Package tools provides the retrieval tools the model can call during a
// chat turn, plus the registry that dispatches calls by name.
package tools

import (
	"context"
	"fmt"

	"github.com/coursechat/coursechat/internal/llm"
)

// Source identifies where a piece of returned content came from. Sources
// are collected during tool execution and surfaced to the user alongside
// the final answer.
type Source struct {
	Course string `json:"course"`
	Lesson *int   `json:"lesson,omitempty"`
	Link   string `json:"link,omitempty"`
}

// Label renders the source for display, e.g. "Practical Databases - Lesson 2".
func (s Source) Label() string {
	if s.Lesson != nil {
		return fmt.Sprintf("%s - Lesson %d", s.Course, *s.Lesson)
	}
	return s.Course
}

// Result is the outcome of one tool execution. Text goes back to the model
// as the function response; Sources bypass the model and are returned to
// the caller directly.
type Result struct {
	Text    string
	Sources []Source
}

// Tool is a model-invocable operation.
type Tool interface {
	// Decl describes the tool to the model.
	Decl() llm.ToolDecl

	// Execute runs the tool. Domain-level misses (unknown course, no
	// matching content) are reported in Result.Text so the model can
	// relay them; the error return is reserved for infrastructure
	// failures.
	Execute(ctx context.Context, args map[string]any) (*Result, error)
}

// Registry holds the available tools keyed by name.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates a registry over the given tools. Duplicate names are
// rejected.
func NewRegistry(ts ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(ts))}
	for _, t := range ts {
		name := t.Decl().Name
		if _, ok := r.tools[name]; ok {
			return nil, fmt.Errorf("duplicate tool name %q", name)
		}
		r.tools[name] = t
		r.order = append(r.order, name)
	}
	return r, nil
}

// Decls returns the tool declarations in registration order, for offering
// to the model.
func (r *Registry) Decls() []llm.ToolDecl {
	out := make([]llm.ToolDecl, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Decl())
	}
	return out
}

// Execute dispatches a model-issued call to the named tool.
func (r *Registry) Execute(ctx context.Context, call *llm.ToolCall) (*Result, error) {
	t, ok := r.tools[call.Name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", call.Name)
	}
	return t.Execute(ctx, call.Args)
}

// stringArg reads an optional string argument.
func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// intArg reads an optional integer argument. JSON decoding delivers
// numbers as float64, so both forms are accepted.
func intArg(args map[string]any, key string) *int {
	switch v := args[key].(type) {
	case float64:
		n := int(v)
		return &n
	case int:
		n := v
		return &n
	default:
		return nil
	}
}
