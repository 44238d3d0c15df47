package ingest

import (
	"context"

	domorder "github.com/nordkart/shopsearch/internal/domain/order"
	domprod "github.com/nordkart/shopsearch/internal/domain/product"
)

// ProductWriter stores catalog products.
type ProductWriter interface {
	InsertMany(ctx context.Context, products []domprod.Product) error
}

// OrderWriter stores order lines.
type OrderWriter interface {
	InsertMany(ctx context.Context, lines []domorder.Line) error
}

// Embedder vectorizes product text during ingestion.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)
}
