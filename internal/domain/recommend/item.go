// Package recommend holds recommendation result types.
package recommend

import "github.com/nordkart/shopsearch/internal/domain/product"

// Source tags which strategy produced a recommendation.
type Source string

const (
	// SourceCollaborative marks co-purchase based recommendations.
	SourceCollaborative Source = "collaborative"
	// SourceContent marks embedding-similarity based recommendations.
	SourceContent Source = "content"
	// SourceHybrid marks blended recommendations.
	SourceHybrid Source = "hybrid"
)

// Item is a single ranked recommendation.
type Item struct {
	ProductID string          `json:"productId"`
	Score     float64         `json:"score"`
	Source    Source          `json:"source"`
	Product   product.Product `json:"product"`
}
