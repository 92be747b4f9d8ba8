// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override, COURSECHAT_* prefix for most keys)
//  2. Config file (~/.coursechat/config.yaml or ./config.yaml)
//  3. Default values
//
// Sensitive data (API keys, passwords) is never logged. Validation is
// fail-fast: Load returns an error the moment any value is out of range.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Sentinel errors for configuration validation. Check with errors.Is.
var (
	// ErrMissingAPIKey indicates the Gemini API key is not set.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is empty or malformed.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidChunkSize indicates the chunk size is out of range.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrInvalidChunkOverlap indicates the chunk overlap is out of range.
	ErrInvalidChunkOverlap = errors.New("invalid chunk overlap")

	// ErrInvalidSearchLimit indicates the search result limit is out of range.
	ErrInvalidSearchLimit = errors.New("invalid search limit")

	// ErrInvalidHistoryTurns indicates the session history bound is out of range.
	ErrInvalidHistoryTurns = errors.New("invalid history turns")

	// ErrInvalidVectorBackend indicates an unknown vector store backend.
	ErrInvalidVectorBackend = errors.New("invalid vector backend")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")
)

// Vector store backend identifiers used in Config.VectorBackend.
const (
	// BackendChromem is the embedded in-process vector store (default).
	BackendChromem = "chromem"

	// BackendPostgres is the PostgreSQL + pgvector store.
	BackendPostgres = "postgres"
)

const (
	// DefaultModelName is the default generation model.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultEmbedderModel is the default embedding model.
	// gemini-embedding-001 supports truncation to 768 dimensions via
	// OutputDimensionality; see llm.VectorDimension.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultChunkSize is the chunk character budget.
	DefaultChunkSize = 800

	// DefaultChunkOverlap is the overlap character budget between
	// consecutive chunks of the same lesson.
	DefaultChunkOverlap = 100

	// DefaultSearchLimit is the default number of search results.
	DefaultSearchLimit = 5

	// DefaultMaxHistoryTurns is the default session history bound in
	// user/assistant exchanges, so 4 keeps the last 8 messages.
	DefaultMaxHistoryTurns = 4

	// MaxAllowedHistoryTurns is the absolute session history ceiling.
	MaxAllowedHistoryTurns = 1000
)

// Config stores application configuration.
type Config struct {
	// Generation model configuration
	GeminiAPIKey string  `mapstructure:"gemini_api_key"` // SENSITIVE: never logged
	ModelName    string  `mapstructure:"model_name"`
	Temperature  float32 `mapstructure:"temperature"`
	MaxTokens    int     `mapstructure:"max_tokens"`

	// Embedding configuration
	EmbedderModel string `mapstructure:"embedder_model"`

	// Chunking configuration
	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`

	// Retrieval configuration
	SearchLimit int `mapstructure:"search_limit"`

	// Session configuration
	MaxHistoryTurns int `mapstructure:"max_history_turns"`

	// Vector store configuration
	VectorBackend string `mapstructure:"vector_backend"` // "chromem" (default) or "postgres"
	ChromemPath   string `mapstructure:"chromem_path"`   // empty = in-memory only

	// PostgreSQL configuration (only used when vector_backend is "postgres")
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"` // SENSITIVE: never logged
	PostgresDBName   string `mapstructure:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode"`

	// Ingestion configuration
	DocsDir string `mapstructure:"docs_dir"`

	// HTTP server configuration
	ListenAddr  string   `mapstructure:"listen_addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy"`
	RateBurst   int      `mapstructure:"rate_burst"` // per-IP token bucket burst (0 = default)
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".coursechat")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env cover it.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("temperature", 0.0)
	v.SetDefault("max_tokens", 800)
	v.SetDefault("embedder_model", DefaultEmbedderModel)

	v.SetDefault("chunk_size", DefaultChunkSize)
	v.SetDefault("chunk_overlap", DefaultChunkOverlap)
	v.SetDefault("search_limit", DefaultSearchLimit)
	v.SetDefault("max_history_turns", DefaultMaxHistoryTurns)

	v.SetDefault("vector_backend", BackendChromem)
	v.SetDefault("chromem_path", "")

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "coursechat")
	v.SetDefault("postgres_password", "")
	v.SetDefault("postgres_db_name", "coursechat")
	v.SetDefault("postgres_ssl_mode", "disable")

	v.SetDefault("docs_dir", "./docs")
	v.SetDefault("listen_addr", ":8000")
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("trust_proxy", false)
	v.SetDefault("rate_burst", 0)
}

// bindEnvVariables binds environment variables explicitly.
// The API key deliberately has no COURSECHAT_ prefix: GEMINI_API_KEY is the
// conventional name shared with other Gemini tooling.
func bindEnvVariables(v *viper.Viper) {
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("gemini_api_key", "GEMINI_API_KEY")
	mustBind("model_name", "COURSECHAT_MODEL_NAME")
	mustBind("embedder_model", "COURSECHAT_EMBEDDER_MODEL")
	mustBind("vector_backend", "COURSECHAT_VECTOR_BACKEND")
	mustBind("chromem_path", "COURSECHAT_CHROMEM_PATH")
	mustBind("docs_dir", "COURSECHAT_DOCS_DIR")
	mustBind("listen_addr", "COURSECHAT_LISTEN_ADDR")
	mustBind("cors_origins", "COURSECHAT_CORS_ORIGINS")
	mustBind("trust_proxy", "COURSECHAT_TRUST_PROXY")
	mustBind("rate_burst", "COURSECHAT_RATE_BURST")
	mustBind("postgres_host", "COURSECHAT_POSTGRES_HOST")
	mustBind("postgres_port", "COURSECHAT_POSTGRES_PORT")
	mustBind("postgres_user", "COURSECHAT_POSTGRES_USER")
	mustBind("postgres_password", "COURSECHAT_POSTGRES_PASSWORD")
	mustBind("postgres_db_name", "COURSECHAT_POSTGRES_DB")
	mustBind("postgres_ssl_mode", "COURSECHAT_POSTGRES_SSL_MODE")
}

// PostgresURL builds a postgres:// connection URL from the individual fields.
func (c *Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPassword,
		c.PostgresHost, c.PostgresPort,
		c.PostgresDBName, c.PostgresSSLMode)
}
