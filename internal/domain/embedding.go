package domain

import "context"

// DefaultVectorDimensions is the embedding dimension used when the
// configured vectorizer does not specify one.
const DefaultVectorDimensions = 384

// EmbeddingResult holds a vector and the token usage that produced it.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Embedder vectorizes text into fixed-length embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)
}

// HealthChecker is implemented by embedders that can verify provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
