package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrProductNotFound signals a missing product.
	ErrProductNotFound = errors.New("product not found")
	// ErrQueryTooShort signals a search query below the minimum length.
	ErrQueryTooShort = errors.New("query must be at least 3 characters")
	// ErrInvalidLimit signals a negative or otherwise unusable result limit.
	ErrInvalidLimit = errors.New("invalid result limit")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrStoreUnavailable signals that the document store cannot be reached.
	ErrStoreUnavailable = errors.New("document store unavailable")
)
