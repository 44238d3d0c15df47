// Package search holds consolidated search result types.
package search

// MatchType records which retrieval strategy first produced a product
// hit. It is fixed at the point of retrieval and never re-derived from
// the score afterwards.
type MatchType string

const (
	// MatchTypeExact marks a word-boundary phrase match.
	MatchTypeExact MatchType = "exact"
	// MatchTypeNgram marks a substring / partial match.
	MatchTypeNgram MatchType = "ngram"
	// MatchTypeVector marks an embedding-similarity match.
	MatchTypeVector MatchType = "vector"
)

// CategoryHit is a category aggregate with a product-count rollup.
type CategoryHit struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	ProductCount int    `json:"productCount"`
}

// BrandHit is a brand aggregate with a product-count rollup.
type BrandHit struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProductCount int    `json:"productCount"`
}

// ProductHit is a single product result tagged with its match type.
type ProductHit struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Brand             string    `json:"brand"`
	ImageThumbnailURL string    `json:"imageThumbnailUrl,omitempty"`
	PriceOriginal     float64   `json:"priceOriginal"`
	PriceCurrent      float64   `json:"priceCurrent"`
	IsOnSale          bool      `json:"isOnSale"`
	Score             float64   `json:"score"`
	MatchType         MatchType `json:"matchType"`
}

// Metadata describes a consolidated response as a whole.
type Metadata struct {
	TotalResults int    `json:"totalResults"`
	ElapsedMs    int64  `json:"processingTimeMs"`
	Query        string `json:"query"`
}

// ConsolidatedResult is the merged response across the category, brand
// and product retrieval strategies.
type ConsolidatedResult struct {
	Categories []CategoryHit `json:"categories"`
	Brands     []BrandHit    `json:"brands"`
	Products   []ProductHit  `json:"products"`
	Metadata   Metadata      `json:"metadata"`
}

// Suggestion is a lightweight autosuggest hit.
type Suggestion struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Brand string `json:"brand"`
}
