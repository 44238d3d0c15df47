package search

import (
	"context"

	"github.com/nordkart/shopsearch/internal/domain"
	domprod "github.com/nordkart/shopsearch/internal/domain/product"
	domsearch "github.com/nordkart/shopsearch/internal/domain/search"
)

// CatalogReader defines the storage contract for consolidated search.
type CatalogReader interface {
	All(ctx context.Context) ([]domprod.Product, error)
	CategoryRollup(ctx context.Context, query string, limit int) ([]domsearch.CategoryHit, error)
	BrandRollup(ctx context.Context, query string, limit int) ([]domsearch.BrandHit, error)
	TitlePrefix(ctx context.Context, prefix string, limit int) ([]domprod.Product, error)
}

// Embedder vectorizes the query for the vector retrieval strategy.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// ResultCache caches assembled search responses.
type ResultCache interface {
	Get(key any) (any, bool)
	Set(key, value any)
}

// StrategyObserver records per-strategy retrieval durations.
// Implementations must not block.
type StrategyObserver interface {
	ObserveStrategy(strategy string, seconds float64)
}
