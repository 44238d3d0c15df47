// Package product holds the catalog product projection used by search
// and recommendations.
package product

import "github.com/nordkart/shopsearch/internal/domain/season"

// Category is a catalog category reference carried on a product.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Product is the read-side catalog projection. Embeddings are populated
// during ingestion and stripped from outward-facing responses.
type Product struct {
	ID                    string          `json:"id"`
	Title                 string          `json:"title"`
	Description           string          `json:"description"`
	Brand                 string          `json:"brand"`
	ImageThumbnailURL     string          `json:"imageThumbnailUrl,omitempty"`
	PriceOriginal         float64         `json:"priceOriginal"`
	PriceCurrent          float64         `json:"priceCurrent"`
	IsOnSale              bool            `json:"isOnSale"`
	Color                 string          `json:"color,omitempty"`
	Categories            []Category      `json:"categories,omitempty"`
	Seasons               []season.Season `json:"seasons,omitempty"`
	SeasonRelevancyFactor float64         `json:"seasonRelevancyFactor"`
	StockLevel            int             `json:"stockLevel"`
	TitleEmbedding        []float32       `json:"title_embedding,omitempty"`
	DescriptionEmbedding  []float32       `json:"description_embedding,omitempty"`
}

// InStock reports whether the product can currently be fulfilled.
func (p *Product) InStock() bool { return p.StockLevel > 0 }

// StripEmbeddings returns a copy without embedding vectors, for responses.
func (p Product) StripEmbeddings() Product {
	p.TitleEmbedding = nil
	p.DescriptionEmbedding = nil
	return p
}
