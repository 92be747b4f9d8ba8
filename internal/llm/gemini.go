package llm

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"
)

// GeminiConfig contains the parameters for the Gemini client.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int32
	Logger      *slog.Logger
}

// Gemini implements Client on the Gemini API.
// Safe for concurrent use; all fields are immutable after construction.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
	logger      *slog.Logger
}

// NewGemini creates a Gemini client.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &Gemini{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}, nil
}

// Client exposes the underlying genai client for the embedding function.
func (g *Gemini) Client() *genai.Client { return g.client }

// Generate performs one generation round. If the model requests a function
// call, the first call is returned and any accompanying text is ignored;
// otherwise the concatenated text parts form the answer.
func (g *Gemini) Generate(ctx context.Context, req *Request) (*Response, error) {
	contents := make([]*genai.Content, 0, len(req.History)+3)
	for _, m := range req.History {
		contents = append(contents, genai.NewContentFromText(m.Text, genai.Role(m.Role)))
	}
	contents = append(contents, genai.NewContentFromText(req.Query, genai.RoleUser))

	if req.ToolTurn != nil {
		call := &genai.FunctionCall{Name: req.ToolTurn.Call.Name, Args: req.ToolTurn.Call.Args}
		contents = append(contents,
			&genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{FunctionCall: call}},
			},
			genai.NewContentFromParts(
				[]*genai.Part{genai.NewPartFromFunctionResponse(
					req.ToolTurn.Call.Name,
					map[string]any{"output": req.ToolTurn.Output},
				)},
				genai.RoleUser,
			),
		)
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: g.maxTokens,
	}
	if req.System != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			})
		}
		genCfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, genCfg)
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	if calls := resp.FunctionCalls(); len(calls) > 0 {
		g.logger.Debug("model requested tool", "tool", calls[0].Name)
		return &Response{ToolCall: &ToolCall{Name: calls[0].Name, Args: calls[0].Args}}, nil
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("empty response from model")
	}
	return &Response{Text: text}, nil
}
