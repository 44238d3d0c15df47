// Package embedding decorates the embedding provider with caching.
package embedding

import (
	"context"
	"fmt"

	"github.com/nordkart/shopsearch/internal/domain"
	"github.com/nordkart/shopsearch/internal/metrics"
)

// ResultCache stores computed embeddings keyed by input text.
type ResultCache interface {
	Get(key any) (any, bool)
	Set(key, value any)
}

// Cached wraps an Embedder so identical texts are vectorized once per
// cache lifetime. Token usage is only reported for actual provider calls.
type Cached struct {
	inner domain.Embedder
	cache ResultCache
}

// NewCached creates a caching embedder decorator.
func NewCached(inner domain.Embedder, cache ResultCache) *Cached {
	return &Cached{inner: inner, cache: cache}
}

// Embed implements domain.Embedder.
func (c *Cached) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if cached, ok := c.cache.Get(text); ok {
		metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
		return domain.EmbeddingResult{Embedding: cached.([]float32)}, nil
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()

	result, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	c.cache.Set(text, result.Embedding)
	return result, nil
}

// HealthCheck forwards to the inner provider when it supports it.
func (c *Cached) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

// BatchEmbed implements domain.Embedder, forwarding only cache misses to
// the inner provider.
func (c *Cached) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if cached, ok := c.cache.Get(text); ok {
			metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
			out[i] = cached.([]float32)
			continue
		}
		metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	embeddings, err := c.inner.BatchEmbed(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("batch embed: %w", err)
	}
	if len(embeddings) != len(missing) {
		return nil, fmt.Errorf("expected %d embeddings, got %d: %w",
			len(missing), len(embeddings), domain.ErrEmbeddingProviderError)
	}

	for j, emb := range embeddings {
		out[missingIdx[j]] = emb
		c.cache.Set(missing[j], emb)
	}
	return out, nil
}
