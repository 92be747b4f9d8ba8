package config

import "fmt"

// Validate checks all configuration values for consistency.
// Returns the first violation found, wrapped around a sentinel error so
// callers can use errors.Is.
func (c *Config) Validate() error {
	if c.ModelName == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder model must not be empty", ErrInvalidModelName)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: %.2f not in [0, 2]", ErrInvalidTemperature, c.Temperature)
	}
	if c.MaxTokens <= 0 || c.MaxTokens > 65536 {
		return fmt.Errorf("%w: %d not in (0, 65536]", ErrInvalidMaxTokens, c.MaxTokens)
	}

	if c.ChunkSize < 100 || c.ChunkSize > 100_000 {
		return fmt.Errorf("%w: %d not in [100, 100000]", ErrInvalidChunkSize, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: %d must be non-negative and smaller than chunk size %d",
			ErrInvalidChunkOverlap, c.ChunkOverlap, c.ChunkSize)
	}

	if c.SearchLimit <= 0 || c.SearchLimit > 100 {
		return fmt.Errorf("%w: %d not in (0, 100]", ErrInvalidSearchLimit, c.SearchLimit)
	}
	if c.MaxHistoryTurns <= 0 || c.MaxHistoryTurns > MaxAllowedHistoryTurns {
		return fmt.Errorf("%w: %d not in (0, %d]",
			ErrInvalidHistoryTurns, c.MaxHistoryTurns, MaxAllowedHistoryTurns)
	}

	switch c.VectorBackend {
	case BackendChromem:
	case BackendPostgres:
		if c.PostgresHost == "" {
			return fmt.Errorf("%w: host must not be empty", ErrInvalidPostgresHost)
		}
		if c.PostgresPort <= 0 || c.PostgresPort > 65535 {
			return fmt.Errorf("%w: %d not in (0, 65535]", ErrInvalidPostgresPort, c.PostgresPort)
		}
	default:
		return fmt.Errorf("%w: %q (want %q or %q)",
			ErrInvalidVectorBackend, c.VectorBackend, BackendChromem, BackendPostgres)
	}

	return nil
}

// ValidateServe performs additional checks required to serve queries: a
// generation provider must actually be reachable, so the API key is mandatory.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY must be set", ErrMissingAPIKey)
	}
	return nil
}
