// Package chat orchestrates a single question-answering turn against the
// model.
//
// A turn moves through at most two model rounds. The first round offers
// the retrieval tools; if the model answers directly the turn is done. If
// it requests a tool instead, the tool runs locally and a second round
// carries the tool output back to the model with no tools offered, which
// forces a final text answer and caps every turn at one tool call.
package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coursechat/coursechat/internal/llm"
	"github.com/coursechat/coursechat/internal/session"
	"github.com/coursechat/coursechat/internal/tools"
)

const systemPrompt = `You are an AI assistant specialized in course materials and educational content, with tools for searching course content and retrieving course outlines.

Tool usage:
- Use search_course_content for questions about specific course content or detailed educational materials.
- Use get_course_outline for questions about a course's structure, its lesson list, or what it covers.
- At most one tool call per user question.
- If a tool yields no results, state that clearly without offering alternatives.

For questions answerable from general knowledge, answer directly without using any tool.

Responses must be brief, concise and focused, with no meta-commentary about your search process or reasoning. Provide only the direct answer.`

// Answer is the outcome of one completed turn.
type Answer struct {
	Text    string
	Sources []tools.Source
}

// Orchestrator runs chat turns. Safe for concurrent use; per-session
// ordering is the caller's concern.
type Orchestrator struct {
	client   llm.Client
	registry *tools.Registry
	sessions *session.Store
	logger   *slog.Logger
}

// New creates an orchestrator over the given model client, tool registry
// and session store.
func New(client llm.Client, registry *tools.Registry, sessions *session.Store, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		client:   client,
		registry: registry,
		sessions: sessions,
		logger:   logger,
	}
}

// Respond answers one user question within the given session. The exchange
// is recorded in the session history only after the turn fully succeeds,
// so a failed turn leaves the history untouched.
func (o *Orchestrator) Respond(ctx context.Context, sessionID, query string) (*Answer, error) {
	history := o.sessions.History(sessionID)

	// Round one: the model decides between a direct answer and a tool call.
	first, err := o.client.Generate(ctx, &llm.Request{
		System:  systemPrompt,
		History: history,
		Query:   query,
		Tools:   o.registry.Decls(),
	})
	if err != nil {
		return nil, fmt.Errorf("model request: %w", err)
	}

	answer := &Answer{Text: first.Text}

	if first.ToolCall != nil {
		// Round two: run the tool and let the model compose the final
		// answer from its output. Tool failures are relayed as text so
		// the model can tell the user, rather than aborting the turn.
		output := ""
		result, err := o.registry.Execute(ctx, first.ToolCall)
		if err != nil {
			o.logger.Warn("tool execution failed",
				"tool", first.ToolCall.Name, "error", err)
			output = fmt.Sprintf("Tool execution failed: %v", err)
		} else {
			output = result.Text
			answer.Sources = result.Sources
		}

		second, err := o.client.Generate(ctx, &llm.Request{
			System:  systemPrompt,
			History: history,
			Query:   query,
			ToolTurn: &llm.ToolTurn{
				Call:   *first.ToolCall,
				Output: output,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("model follow-up request: %w", err)
		}
		answer.Text = second.Text
	}

	o.sessions.Append(sessionID, query, answer.Text)
	return answer, nil
}
