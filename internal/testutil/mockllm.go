package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/coursechat/coursechat/internal/llm"
)

// MockLLM provides deterministic model responses for testing.
// It matches the request against registered rules and returns the
// corresponding response. A rule can trigger on a substring of the user
// query, or on the name of a pending tool result, so a two-round
// tool-calling exchange can be fully scripted.
//
// Thread-safe for concurrent use.
type MockLLM struct {
	mu       sync.Mutex
	rules    []mockRule
	fallback string
	calls    []MockCall
	err      error
}

type mockRule struct {
	pattern     string        // substring match in the user query, lowercase
	afterTool   string        // match when this tool's result is attached
	response    string        // text to return
	call        *llm.ToolCall // tool call to return instead of text
	requireTool string        // fail the test expectation if this tool was not offered
}

// MockCall records a single Generate invocation.
type MockCall struct {
	Query     string
	ToolNames []string // tools offered on this call
	HadResult bool     // a tool result was attached
}

// NewMockLLM creates a mock with the given fallback text response.
// The fallback is returned when no rule matches.
func NewMockLLM(fallback string) *MockLLM {
	return &MockLLM{fallback: fallback}
}

// AddResponse registers a query pattern that yields a text response.
// Patterns match case-insensitively as substrings of the user query and
// are checked in registration order; first match wins.
func (m *MockLLM) AddResponse(pattern, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{pattern: strings.ToLower(pattern), response: response})
}

// AddToolCall registers a query pattern that yields a tool call.
func (m *MockLLM) AddToolCall(pattern, tool string, args map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{
		pattern: strings.ToLower(pattern),
		call:    &llm.ToolCall{Name: tool, Args: args},
	})
}

// AddAfterTool registers the text response returned once the named tool's
// result is attached to the request, regardless of the query.
func (m *MockLLM) AddAfterTool(tool, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{afterTool: tool, response: response})
}

// SetError makes every subsequent Generate call fail with err.
func (m *MockLLM) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns a copy of all recorded invocations.
func (m *MockLLM) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Generate implements llm.Client.
func (m *MockLLM) Generate(_ context.Context, req *llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := MockCall{Query: req.Query, HadResult: req.ToolTurn != nil}
	for _, t := range req.Tools {
		rec.ToolNames = append(rec.ToolNames, t.Name)
	}
	m.calls = append(m.calls, rec)

	if m.err != nil {
		return nil, m.err
	}

	for _, r := range m.rules {
		if r.afterTool != "" {
			if req.ToolTurn != nil && req.ToolTurn.Call.Name == r.afterTool {
				return &llm.Response{Text: r.response}, nil
			}
			continue
		}
		if req.ToolTurn != nil {
			continue
		}
		if strings.Contains(strings.ToLower(req.Query), r.pattern) {
			if r.call != nil {
				return &llm.Response{ToolCall: r.call}, nil
			}
			return &llm.Response{Text: r.response}, nil
		}
	}
	return &llm.Response{Text: m.fallback}, nil
}
