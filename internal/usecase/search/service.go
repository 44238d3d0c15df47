// Package search orchestrates consolidated search across the category,
// brand and product retrieval strategies.
package search

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nordkart/shopsearch/internal/domain"
	domprod "github.com/nordkart/shopsearch/internal/domain/product"
	domsearch "github.com/nordkart/shopsearch/internal/domain/search"
	"github.com/nordkart/shopsearch/internal/domain/vector"
	"github.com/nordkart/shopsearch/internal/logger"
)

// Scores assigned by the lexical strategies. The vector strategy scores
// by cosine similarity instead.
const (
	exactScore = 1.0
	ngramScore = 0.7
)

// Query is a consolidated search request. Zero limits fall back to the
// configured defaults.
type Query struct {
	Text                string `json:"text"`
	MaxCategories       int    `json:"maxCategories"`
	MaxBrands           int    `json:"maxBrands"`
	MaxProducts         int    `json:"maxProducts"`
	IncludeVectorSearch bool   `json:"includeVectorSearch"`
}

// Config holds the search limits and thresholds.
type Config struct {
	MinQueryLength      int
	MaxCategories       int
	MaxBrands           int
	MaxProducts         int
	VectorMinSimilarity float64
}

// Service executes consolidated search and autosuggest.
type Service struct {
	catalog  CatalogReader
	embed    Embedder
	cache    ResultCache
	observer StrategyObserver
	cfg      Config
}

// New creates a search service. observer may be nil.
func New(catalog CatalogReader, embed Embedder, cache ResultCache, observer StrategyObserver, cfg Config) *Service {
	return &Service{catalog: catalog, embed: embed, cache: cache, observer: observer, cfg: cfg}
}

// Consolidated fans out the category, brand and product strategies
// concurrently and joins their results. A failing strategy contributes
// an empty slice without affecting the others; the assembled response is
// cached only after all branches have completed.
func (s *Service) Consolidated(ctx context.Context, q Query) (domsearch.ConsolidatedResult, error) {
	q.Text = strings.TrimSpace(q.Text)
	if utf8.RuneCountInString(q.Text) < s.cfg.MinQueryLength {
		return domsearch.ConsolidatedResult{},
			fmt.Errorf("%w (got %d)", domain.ErrQueryTooShort, utf8.RuneCountInString(q.Text))
	}
	if q.MaxCategories < 0 || q.MaxBrands < 0 || q.MaxProducts < 0 {
		return domsearch.ConsolidatedResult{}, domain.ErrInvalidLimit
	}
	if q.MaxCategories == 0 {
		q.MaxCategories = s.cfg.MaxCategories
	}
	if q.MaxBrands == 0 {
		q.MaxBrands = s.cfg.MaxBrands
	}
	if q.MaxProducts == 0 {
		q.MaxProducts = s.cfg.MaxProducts
	}

	if cached, ok := s.cache.Get(q); ok {
		return cached.(domsearch.ConsolidatedResult), nil
	}

	start := time.Now()
	log := logger.FromContext(ctx)

	var (
		categories []domsearch.CategoryHit
		brands     []domsearch.BrandHit
		products   []domsearch.ProductHit
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := timed(gctx, s.observer, "categories", func(ctx context.Context) ([]domsearch.CategoryHit, error) {
			return s.catalog.CategoryRollup(ctx, q.Text, q.MaxCategories)
		})
		if err != nil {
			log.Warn("consolidated: category strategy failed", zap.Error(err))
			return nil
		}
		categories = hits
		return nil
	})
	g.Go(func() error {
		hits, err := timed(gctx, s.observer, "brands", func(ctx context.Context) ([]domsearch.BrandHit, error) {
			return s.catalog.BrandRollup(ctx, q.Text, q.MaxBrands)
		})
		if err != nil {
			log.Warn("consolidated: brand strategy failed", zap.Error(err))
			return nil
		}
		brands = hits
		return nil
	})
	g.Go(func() error {
		hits, err := timed(gctx, s.observer, "products", func(ctx context.Context) ([]domsearch.ProductHit, error) {
			return s.productHits(ctx, q)
		})
		if err != nil {
			log.Warn("consolidated: product strategy failed", zap.Error(err))
			return nil
		}
		products = hits
		return nil
	})

	// Branches swallow their own errors; Wait only joins.
	_ = g.Wait()

	if categories == nil {
		categories = []domsearch.CategoryHit{}
	}
	if brands == nil {
		brands = []domsearch.BrandHit{}
	}
	if products == nil {
		products = []domsearch.ProductHit{}
	}

	result := domsearch.ConsolidatedResult{
		Categories: categories,
		Brands:     brands,
		Products:   products,
		Metadata: domsearch.Metadata{
			TotalResults: len(categories) + len(brands) + len(products),
			ElapsedMs:    time.Since(start).Milliseconds(),
			Query:        q.Text,
		},
	}

	s.cache.Set(q, result)
	return result, nil
}

// productHits runs the exact, ngram and vector strategies in order.
// Each product is tagged with the strategy that first produced it.
func (s *Service) productHits(ctx context.Context, q Query) ([]domsearch.ProductHit, error) {
	all, err := s.catalog.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	seen := make(map[string]struct{})
	var hits []domsearch.ProductHit

	exactRe, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(q.Text) + `\b`)
	if err != nil {
		return nil, fmt.Errorf("compile exact matcher: %w", err)
	}
	var exact []domsearch.ProductHit
	for _, p := range all {
		if exactRe.MatchString(p.Title) {
			exact = append(exact, productHit(p, exactScore, domsearch.MatchTypeExact))
			seen[p.ID] = struct{}{}
		}
	}
	sortHitsByID(exact)
	hits = append(hits, exact...)

	lowered := strings.ToLower(q.Text)
	var ngram []domsearch.ProductHit
	for _, p := range all {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		if strings.Contains(strings.ToLower(p.Title), lowered) {
			ngram = append(ngram, productHit(p, ngramScore, domsearch.MatchTypeNgram))
			seen[p.ID] = struct{}{}
		}
	}
	sortHitsByID(ngram)
	hits = append(hits, ngram...)

	// The vector strategy only pays off for multi-token queries; single
	// tokens are already well served lexically.
	if q.IncludeVectorSearch && len(strings.Fields(q.Text)) > 1 && s.embed != nil {
		vecHits, err := s.vectorHits(ctx, q.Text, all, seen)
		if err != nil {
			return nil, err
		}
		hits = append(hits, vecHits...)
	}

	if len(hits) > q.MaxProducts {
		hits = hits[:q.MaxProducts]
	}
	return hits, nil
}

func (s *Service) vectorHits(
	ctx context.Context, text string, all []domprod.Product, seen map[string]struct{},
) ([]domsearch.ProductHit, error) {
	embResult, err := s.embed.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	var hits []domsearch.ProductHit
	for _, p := range all {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		emb := p.TitleEmbedding
		if len(emb) == 0 {
			emb = p.DescriptionEmbedding
		}
		if len(emb) == 0 {
			continue
		}
		sim := vector.Cosine(embResult.Embedding, emb)
		if sim < s.cfg.VectorMinSimilarity {
			continue
		}
		hits = append(hits, productHit(p, sim, domsearch.MatchTypeVector))
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	return hits, nil
}

// suggestKey identifies a cached autosuggest response.
type suggestKey struct {
	Prefix string `json:"prefix"`
	Limit  int    `json:"limit"`
}

// Autosuggest returns lightweight title-prefix completions.
func (s *Service) Autosuggest(ctx context.Context, prefix string, limit int) ([]domsearch.Suggestion, error) {
	prefix = strings.TrimSpace(prefix)
	if utf8.RuneCountInString(prefix) < s.cfg.MinQueryLength {
		return nil, fmt.Errorf("%w (got %d)", domain.ErrQueryTooShort, utf8.RuneCountInString(prefix))
	}
	if limit < 0 {
		return nil, domain.ErrInvalidLimit
	}
	if limit == 0 {
		limit = s.cfg.MaxProducts
	}

	key := suggestKey{Prefix: strings.ToLower(prefix), Limit: limit}
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]domsearch.Suggestion), nil
	}

	matched, err := s.catalog.TitlePrefix(ctx, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("title prefix match: %w", err)
	}

	suggestions := make([]domsearch.Suggestion, len(matched))
	for i, p := range matched {
		suggestions[i] = domsearch.Suggestion{ID: p.ID, Title: p.Title, Brand: p.Brand}
	}

	s.cache.Set(key, suggestions)
	return suggestions, nil
}

// timed runs fn and reports its duration to the strategy observer.
func timed[T any](ctx context.Context, obs StrategyObserver, strategy string, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	result, err := fn(ctx)
	if obs != nil {
		obs.ObserveStrategy(strategy, time.Since(start).Seconds())
	}
	return result, err
}

func productHit(p domprod.Product, score float64, mt domsearch.MatchType) domsearch.ProductHit {
	return domsearch.ProductHit{
		ID:                p.ID,
		Title:             p.Title,
		Description:       p.Description,
		Brand:             p.Brand,
		ImageThumbnailURL: p.ImageThumbnailURL,
		PriceOriginal:     p.PriceOriginal,
		PriceCurrent:      p.PriceCurrent,
		IsOnSale:          p.IsOnSale,
		Score:             score,
		MatchType:         mt,
	}
}

func sortHitsByID(hits []domsearch.ProductHit) {
	sort.Slice(hits, func(i, j int) bool { return hits[i].ID < hits[j].ID })
}
