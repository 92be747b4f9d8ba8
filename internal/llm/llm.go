// Package llm defines the generation provider contract and its Gemini
// implementation.
//
// The contract is deliberately narrow: a request carries system
// instructions, prior history, the user query and (optionally) tool
// declarations; the response is either final text or a single structured
// tool invocation. The orchestrator in internal/chat depends only on this
// two-outcome shape.
package llm

import (
	"context"

	"google.golang.org/genai"
)

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleUser marks messages authored by the end user.
	RoleUser Role = "user"

	// RoleAssistant marks messages authored by the model.
	RoleAssistant Role = "model"
)

// Message is one prior conversation turn, plain text only. Tool traffic is
// never stored in history; it is carried per-request via ToolTurn.
type Message struct {
	Role Role
	Text string
}

// ToolCall is a structured invocation request returned by the provider in
// place of a final answer.
type ToolCall struct {
	Name string
	Args map[string]any
}

// ToolTurn carries a completed tool execution back to the provider: the
// call the model made and the textual output the tool produced.
type ToolTurn struct {
	Call   ToolCall
	Output string
}

// ToolDecl describes a callable capability to the provider.
type ToolDecl struct {
	Name        string
	Description string
	Parameters  *genai.Schema
}

// Request is one generation round.
type Request struct {
	System  string
	History []Message
	Query   string

	// Tools offered this round. Empty means the provider must answer with
	// text; the orchestrator omits tools on the follow-up round to force a
	// final answer.
	Tools []ToolDecl

	// ToolTurn, when set, appends the model's earlier tool call and its
	// result to the conversation before generating.
	ToolTurn *ToolTurn
}

// Response is the provider's answer: exactly one of Text or ToolCall is
// meaningful. ToolCall non-nil means the model wants a tool executed.
type Response struct {
	Text     string
	ToolCall *ToolCall
}

// Client is the generation provider. Implementations must treat the request
// as read-only.
type Client interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
}
