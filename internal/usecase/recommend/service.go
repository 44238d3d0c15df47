// Package recommend blends collaborative, content-based and hybrid
// product recommendations.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nordkart/shopsearch/internal/domain"
	domaff "github.com/nordkart/shopsearch/internal/domain/affinity"
	domprod "github.com/nordkart/shopsearch/internal/domain/product"
	domrec "github.com/nordkart/shopsearch/internal/domain/recommend"
	"github.com/nordkart/shopsearch/internal/domain/season"
	"github.com/nordkart/shopsearch/internal/domain/vector"
	"github.com/nordkart/shopsearch/internal/logger"
	"go.uber.org/zap"
)

// Config holds the blending knobs.
type Config struct {
	DefaultLimit         int
	ContentMinSimilarity float64
	StockBoost           float64
	SaleBoost            float64
}

// Service computes product recommendations.
type Service struct {
	products ProductReader
	orders   OrderReader
	affinity AffinityReader
	cache    ResultCache
	cfg      Config
	now      func() time.Time
}

// New creates a recommendation service.
func New(products ProductReader, orders OrderReader, affinity AffinityReader, cache ResultCache, cfg Config) *Service {
	return &Service{
		products: products,
		orders:   orders,
		affinity: affinity,
		cache:    cache,
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithClock overrides the time source used to derive the current season (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// cacheKey identifies one computed recommendation list.
type cacheKey struct {
	Op        string        `json:"op"`
	ProductID string        `json:"productId,omitempty"`
	UserID    string        `json:"userId,omitempty"`
	Limit     int           `json:"limit"`
	Season    season.Season `json:"season,omitempty"`
}

// CoOccurrence recommends products bought together with productID,
// ranked by co-purchase count, ties by ascending product id. A product
// with no purchase history yields an empty list.
func (s *Service) CoOccurrence(ctx context.Context, productID string, limit int) ([]domrec.Item, error) {
	limit, err := s.normalizeLimit(limit)
	if err != nil {
		return nil, err
	}

	key := cacheKey{Op: "co-occurrence", ProductID: productID, Limit: limit}
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]domrec.Item), nil
	}

	partners, err := s.coPurchasePartners(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(partners) > limit {
		partners = partners[:limit]
	}

	items, err := s.attachProducts(ctx, partnerItems(partners, domrec.SourceCollaborative))
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, items)
	return items, nil
}

// ForUser recommends products for a customer based on their purchase
// history: affinity partners of everything they bought, counts summed,
// already-purchased products excluded. An unknown customer yields an
// empty list.
func (s *Service) ForUser(ctx context.Context, userID string, limit int) ([]domrec.Item, error) {
	limit, err := s.normalizeLimit(limit)
	if err != nil {
		return nil, err
	}

	key := cacheKey{Op: "user", UserID: userID, Limit: limit}
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]domrec.Item), nil
	}

	purchased, err := s.orders.ProductsPurchasedBy(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load purchases for %s: %w", userID, err)
	}
	if len(purchased) == 0 {
		return []domrec.Item{}, nil
	}

	owned := make(map[string]struct{}, len(purchased))
	for _, p := range purchased {
		owned[p] = struct{}{}
	}

	totals := make(map[string]int)
	for _, p := range purchased {
		partners, err := s.affinity.Partners(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("affinity partners of %s: %w", p, err)
		}
		for _, partner := range partners {
			if _, ok := owned[partner.ProductID]; ok {
				continue
			}
			totals[partner.ProductID] += partner.Count
		}
	}

	partners := make([]domaff.Partner, 0, len(totals))
	for id, count := range totals {
		partners = append(partners, domaff.Partner{ProductID: id, Count: count})
	}
	domaff.SortPartners(partners)
	if len(partners) > limit {
		partners = partners[:limit]
	}

	items, err := s.attachProducts(ctx, partnerItems(partners, domrec.SourceCollaborative))
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, items)
	return items, nil
}

// ContentBased recommends products whose title embeddings are close to
// the source product's, keeping candidates at or above the similarity
// threshold. Candidates without embeddings are skipped; a missing source
// product yields an empty list.
func (s *Service) ContentBased(ctx context.Context, productID string, limit int) ([]domrec.Item, error) {
	limit, err := s.normalizeLimit(limit)
	if err != nil {
		return nil, err
	}

	key := cacheKey{Op: "content", ProductID: productID, Limit: limit}
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]domrec.Item), nil
	}

	items, err := s.contentBased(ctx, productID, limit)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, items)
	return items, nil
}

func (s *Service) contentBased(ctx context.Context, productID string, limit int) ([]domrec.Item, error) {
	source, err := s.products.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return []domrec.Item{}, nil
		}
		return nil, fmt.Errorf("load product %s: %w", productID, err)
	}

	srcEmb := embeddingOf(source)
	if len(srcEmb) == 0 {
		return []domrec.Item{}, nil
	}

	candidates, err := s.products.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	var items []domrec.Item
	for _, c := range candidates {
		if c.ID == productID {
			continue
		}
		emb := embeddingOf(c)
		if len(emb) == 0 {
			continue
		}
		sim := vector.Cosine(srcEmb, emb)
		if sim < s.cfg.ContentMinSimilarity {
			continue
		}
		items = append(items, domrec.Item{
			ProductID: c.ID,
			Score:     sim,
			Source:    domrec.SourceContent,
			Product:   c.StripEmbeddings(),
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ProductID < items[j].ProductID
	})
	if len(items) > limit {
		items = items[:limit]
	}
	if items == nil {
		items = []domrec.Item{}
	}
	return items, nil
}

// Hybrid blends collaborative and content-based recommendations, then
// re-ranks with seasonal boosting: base 1.0, plus the product's season
// relevancy factor when it matches the current season, plus fixed
// in-stock and on-sale increments. The sort is stable so equally boosted
// items keep merge order (collaborative first).
func (s *Service) Hybrid(ctx context.Context, productID string, limit int, current season.Season) ([]domrec.Item, error) {
	limit, err := s.normalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	if current == "" {
		current = season.FromTime(s.now())
	}

	key := cacheKey{Op: "hybrid", ProductID: productID, Limit: limit, Season: current}
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]domrec.Item), nil
	}

	log := logger.FromContext(ctx)

	var collab []domrec.Item
	partners, err := s.coPurchasePartners(ctx, productID)
	if err != nil {
		log.Warn("hybrid: collaborative strategy failed",
			zap.String("product_id", productID), zap.Error(err))
	} else {
		if len(partners) > limit {
			partners = partners[:limit]
		}
		collab, err = s.attachProducts(ctx, partnerItems(partners, domrec.SourceCollaborative))
		if err != nil {
			log.Warn("hybrid: collaborative strategy failed",
				zap.String("product_id", productID), zap.Error(err))
			collab = nil
		}
	}

	content, err := s.contentBased(ctx, productID, limit)
	if err != nil {
		log.Warn("hybrid: content strategy failed",
			zap.String("product_id", productID), zap.Error(err))
		content = nil
	}

	seen := make(map[string]struct{})
	merged := make([]domrec.Item, 0, len(collab)+len(content))
	for _, item := range append(collab, content...) {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		merged = append(merged, item)
		if len(merged) == 2*limit {
			break
		}
	}

	for i := range merged {
		merged[i].Source = domrec.SourceHybrid
		merged[i].Score = s.boost(merged[i].Product, current)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}

	s.cache.Set(key, merged)
	return merged, nil
}

// boost computes the seasonal re-ranking score for a product.
func (s *Service) boost(p domprod.Product, current season.Season) float64 {
	score := 1.0
	if season.Matches(p.Seasons, current) {
		score += p.SeasonRelevancyFactor
	}
	if p.InStock() {
		score += s.cfg.StockBoost
	}
	if p.IsOnSale {
		score += s.cfg.SaleBoost
	}
	return score
}

// coPurchasePartners counts co-purchases of productID across the baskets
// that contain it.
func (s *Service) coPurchasePartners(ctx context.Context, productID string) ([]domaff.Partner, error) {
	baskets, err := s.orders.BasketsContaining(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load baskets containing %s: %w", productID, err)
	}

	counts := make(map[string]int)
	for _, b := range baskets {
		for _, p := range b.Products {
			if p != productID {
				counts[p]++
			}
		}
	}

	partners := make([]domaff.Partner, 0, len(counts))
	for id, count := range counts {
		partners = append(partners, domaff.Partner{ProductID: id, Count: count})
	}
	domaff.SortPartners(partners)
	return partners, nil
}

// attachProducts resolves partner ids to catalog products. Partners whose
// product no longer exists are dropped rather than failing the list.
func (s *Service) attachProducts(ctx context.Context, items []domrec.Item) ([]domrec.Item, error) {
	if len(items) == 0 {
		return []domrec.Item{}, nil
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}

	products, err := s.products.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	byID := make(map[string]domprod.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	resolved := make([]domrec.Item, 0, len(items))
	for _, item := range items {
		p, ok := byID[item.ProductID]
		if !ok {
			continue
		}
		item.Product = p.StripEmbeddings()
		resolved = append(resolved, item)
	}
	return resolved, nil
}

func (s *Service) normalizeLimit(limit int) (int, error) {
	if limit < 0 {
		return 0, domain.ErrInvalidLimit
	}
	if limit == 0 {
		return s.cfg.DefaultLimit, nil
	}
	return limit, nil
}

func partnerItems(partners []domaff.Partner, source domrec.Source) []domrec.Item {
	items := make([]domrec.Item, len(partners))
	for i, p := range partners {
		items[i] = domrec.Item{
			ProductID: p.ProductID,
			Score:     float64(p.Count),
			Source:    source,
		}
	}
	return items
}

func embeddingOf(p domprod.Product) []float32 {
	if len(p.TitleEmbedding) > 0 {
		return p.TitleEmbedding
	}
	return p.DescriptionEmbedding
}
