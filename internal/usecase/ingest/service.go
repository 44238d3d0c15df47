// Package ingest loads catalog products and order history into the
// document store, vectorizing product text on the way in.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	domorder "github.com/nordkart/shopsearch/internal/domain/order"
	domprod "github.com/nordkart/shopsearch/internal/domain/product"
	"github.com/nordkart/shopsearch/internal/logger"
)

// Result summarizes one ingestion batch.
type Result struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// Service ingests products and orders.
type Service struct {
	products ProductWriter
	orders   OrderWriter
	embed    Embedder
}

// New creates an ingest service.
func New(products ProductWriter, orders OrderWriter, embed Embedder) *Service {
	return &Service{products: products, orders: orders, embed: embed}
}

// Products validates and stores a product batch. Items without an id
// count as failed without aborting the batch. Missing title and
// description embeddings are batch-computed; an embedding provider
// failure stores the products unvectorized rather than failing them.
func (s *Service) Products(ctx context.Context, items []domprod.Product) (Result, error) {
	valid := make([]domprod.Product, 0, len(items))
	failed := 0
	for _, p := range items {
		if p.ID == "" {
			failed++
			continue
		}
		valid = append(valid, p)
	}
	if len(valid) == 0 {
		return Result{Failed: failed}, nil
	}

	s.vectorize(ctx, valid)

	if err := s.products.InsertMany(ctx, valid); err != nil {
		return Result{}, fmt.Errorf("store products: %w", err)
	}
	return Result{Processed: len(valid), Failed: failed}, nil
}

// Orders validates and stores an order-line batch. Lines without an
// order or product id count as failed without aborting the batch.
func (s *Service) Orders(ctx context.Context, lines []domorder.Line) (Result, error) {
	valid := make([]domorder.Line, 0, len(lines))
	failed := 0
	for _, l := range lines {
		if l.OrderID == "" || l.ProductID == "" {
			failed++
			continue
		}
		valid = append(valid, l)
	}
	if len(valid) == 0 {
		return Result{Failed: failed}, nil
	}

	if err := s.orders.InsertMany(ctx, valid); err != nil {
		return Result{}, fmt.Errorf("store order lines: %w", err)
	}
	return Result{Processed: len(valid), Failed: failed}, nil
}

// vectorize fills missing title and description embeddings in place.
func (s *Service) vectorize(ctx context.Context, products []domprod.Product) {
	if s.embed == nil {
		return
	}

	var texts []string
	// Each pending slot points at the embedding field to fill.
	var slots []*[]float32
	for i := range products {
		if len(products[i].TitleEmbedding) == 0 && products[i].Title != "" {
			texts = append(texts, products[i].Title)
			slots = append(slots, &products[i].TitleEmbedding)
		}
		if len(products[i].DescriptionEmbedding) == 0 && products[i].Description != "" {
			texts = append(texts, products[i].Description)
			slots = append(slots, &products[i].DescriptionEmbedding)
		}
	}
	if len(texts) == 0 {
		return
	}

	embeddings, err := s.embed.BatchEmbed(ctx, texts)
	if err != nil || len(embeddings) != len(slots) {
		logger.FromContext(ctx).Warn("ingest: batch embedding failed, storing unvectorized",
			zap.Int("texts", len(texts)), zap.Error(err))
		return
	}
	for i, emb := range embeddings {
		*slots[i] = emb
	}
}
