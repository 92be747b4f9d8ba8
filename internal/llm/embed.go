package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/coursechat/coursechat/internal/vector"
)

// VectorDimension is the embedding width used across the system.
// gemini-embedding-001 outputs 3072 dimensions by default but supports
// truncation to 768 via OutputDimensionality; the pgvector schema in
// db/migrations matches this value.
const VectorDimension = 768

// NewGeminiEmbedding returns an embedding function backed by the given
// genai client. The same function is used for indexing and querying, which
// keeps index-time and query-time vectors comparable.
func NewGeminiEmbedding(client *genai.Client, model string) vector.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		dim := int32(VectorDimension)
		resp, err := client.Models.EmbedContent(ctx, model, genai.Text(text), &genai.EmbedContentConfig{
			OutputDimensionality: &dim,
		})
		if err != nil {
			return nil, fmt.Errorf("embedding text: %w", err)
		}
		if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
			return nil, fmt.Errorf("empty embedding response")
		}
		return resp.Embeddings[0].Values, nil
	}
}
