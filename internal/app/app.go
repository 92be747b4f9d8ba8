// Package app provides application initialization and dependency wiring.
//
// App is the container that assembles the vector store, the course index,
// the retrieval tools, the model client and the chat orchestrator into one
// ready-to-serve unit.
package app

import (
	"context"
	"fmt"

	"github.com/coursechat/coursechat/internal/chat"
	"github.com/coursechat/coursechat/internal/config"
	"github.com/coursechat/coursechat/internal/index"
	"github.com/coursechat/coursechat/internal/llm"
	"github.com/coursechat/coursechat/internal/log"
	"github.com/coursechat/coursechat/internal/session"
	"github.com/coursechat/coursechat/internal/tools"
	"github.com/coursechat/coursechat/internal/vector"
)

// App is the core application container.
type App struct {
	Config       *config.Config
	Index        *index.Store
	Sessions     *session.Store
	Orchestrator *chat.Orchestrator

	logger  log.Logger
	vectors vector.Store
}

// New assembles an App from its parts. Setup is the production entry
// point; New exists so tests can inject fakes for the model client and
// vector store.
func New(cfg *config.Config, logger log.Logger, vs vector.Store, client llm.Client) (*App, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	idx, err := index.New(vs, cfg.SearchLimit, logger)
	if err != nil {
		return nil, fmt.Errorf("creating course index: %w", err)
	}

	registry, err := tools.NewRegistry(
		tools.NewSearchTool(idx, cfg.SearchLimit),
		tools.NewOutlineTool(idx),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tool registry: %w", err)
	}

	sessions := session.NewStore(cfg.MaxHistoryTurns)

	return &App{
		Config:       cfg,
		Index:        idx,
		Sessions:     sessions,
		Orchestrator: chat.New(client, registry, sessions, logger),
		logger:       logger,
		vectors:      vs,
	}, nil
}

// Query answers one user question. An empty sessionID starts a new
// session; the (possibly new) session ID is returned so the caller can
// continue the conversation.
func (a *App) Query(ctx context.Context, text, sessionID string) (*chat.Answer, string, error) {
	if sessionID == "" {
		sessionID = a.Sessions.Create()
	}
	answer, err := a.Orchestrator.Respond(ctx, sessionID, text)
	if err != nil {
		return nil, sessionID, err
	}
	return answer, sessionID, nil
}

// Close releases held resources.
func (a *App) Close() error {
	a.logger.Info("shutting down application")

	if a.vectors != nil {
		if err := a.vectors.Close(); err != nil {
			return fmt.Errorf("closing vector store: %w", err)
		}
	}
	return nil
}
