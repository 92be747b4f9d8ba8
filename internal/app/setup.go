package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coursechat/coursechat/db"
	"github.com/coursechat/coursechat/internal/config"
	"github.com/coursechat/coursechat/internal/llm"
	"github.com/coursechat/coursechat/internal/log"
	"github.com/coursechat/coursechat/internal/vector"
	vchromem "github.com/coursechat/coursechat/internal/vector/chromem"
	vpostgres "github.com/coursechat/coursechat/internal/vector/postgres"
)

// Setup creates and initializes the application for production use: it
// connects to the configured vector backend, builds the Gemini client and
// embedder, and assembles the container. Call Close to release resources.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = log.NewNop()
	}

	gemini, err := provideGemini(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	embed := llm.NewGeminiEmbedding(gemini.Client(), cfg.EmbedderModel)

	vs, err := provideVectorStore(ctx, cfg, embed, logger)
	if err != nil {
		return nil, err
	}

	// On assembly failure, release the backend we already opened.
	defer func() {
		if retErr != nil {
			if cerr := vs.Close(); cerr != nil {
				logger.Warn("cleanup during setup failure", "error", cerr)
			}
		}
	}()

	a, err := New(cfg, logger, vs, gemini)
	if err != nil {
		return nil, err
	}

	logger.Info("application initialized",
		"model", cfg.ModelName,
		"embedder", cfg.EmbedderModel,
		"vector_backend", cfg.VectorBackend,
	)
	return a, nil
}

// provideGemini creates the Gemini model client.
func provideGemini(ctx context.Context, cfg *config.Config, logger log.Logger) (*llm.Gemini, error) {
	gemini, err := llm.NewGemini(ctx, llm.GeminiConfig{
		APIKey:      cfg.GeminiAPIKey,
		Model:       cfg.ModelName,
		Temperature: cfg.Temperature,
		MaxTokens:   int32(cfg.MaxTokens),
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return gemini, nil
}

// provideVectorStore opens the configured vector backend. The chromem
// backend is embedded and needs no external service; the postgres backend
// runs migrations and opens a connection pool.
func provideVectorStore(ctx context.Context, cfg *config.Config, embed vector.EmbeddingFunc, logger log.Logger) (vector.Store, error) {
	switch cfg.VectorBackend {
	case config.BackendPostgres:
		pool, err := provideDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store, err := vpostgres.New(pool, embed, logger)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("creating postgres vector store: %w", err)
		}
		return store, nil

	default: // config.BackendChromem
		if cfg.ChromemPath == "" {
			return vchromem.New(embed, logger), nil
		}
		store, err := vchromem.NewPersistent(cfg.ChromemPath, embed, logger)
		if err != nil {
			return nil, fmt.Errorf("opening chromem store at %q: %w", cfg.ChromemPath, err)
		}
		return store, nil
	}
}

// provideDBPool runs migrations and creates a PostgreSQL connection pool.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresURL())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}
