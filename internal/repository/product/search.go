package product

import (
	"context"
	"sort"
	"strings"

	domprod "github.com/nordkart/shopsearch/internal/domain/product"
	domsearch "github.com/nordkart/shopsearch/internal/domain/search"
)

// TitleMatching returns products whose title contains query,
// case-insensitively.
func (r *Repo) TitleMatching(ctx context.Context, query string) ([]domprod.Product, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	matched := all[:0]
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Title), q) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// CategoryRollup groups title-matching products by category with product
// counts, ordered count descending then name ascending, capped at limit.
func (r *Repo) CategoryRollup(ctx context.Context, query string, limit int) ([]domsearch.CategoryHit, error) {
	matched, err := r.TitleMatching(ctx, query)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]*domsearch.CategoryHit)
	for _, p := range matched {
		for _, c := range p.Categories {
			hit, ok := counts[c.ID]
			if !ok {
				hit = &domsearch.CategoryHit{ID: c.ID, Name: c.Name, Slug: slugify(c.Name)}
				counts[c.ID] = hit
			}
			hit.ProductCount++
		}
	}

	hits := make([]domsearch.CategoryHit, 0, len(counts))
	for _, hit := range counts {
		hits = append(hits, *hit)
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].ProductCount != hits[j].ProductCount {
			return hits[i].ProductCount > hits[j].ProductCount
		}
		return hits[i].Name < hits[j].Name
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// BrandRollup groups brand-matching products by brand with product
// counts, ordered count descending then name ascending, capped at limit.
func (r *Repo) BrandRollup(ctx context.Context, query string, limit int) ([]domsearch.BrandHit, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	counts := make(map[string]*domsearch.BrandHit)
	for _, p := range all {
		if p.Brand == "" || !strings.Contains(strings.ToLower(p.Brand), q) {
			continue
		}
		hit, ok := counts[p.Brand]
		if !ok {
			hit = &domsearch.BrandHit{ID: slugify(p.Brand), Name: p.Brand}
			counts[p.Brand] = hit
		}
		hit.ProductCount++
	}

	hits := make([]domsearch.BrandHit, 0, len(counts))
	for _, hit := range counts {
		hits = append(hits, *hit)
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].ProductCount != hits[j].ProductCount {
			return hits[i].ProductCount > hits[j].ProductCount
		}
		return hits[i].Name < hits[j].Name
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// TitlePrefix returns products whose title starts with prefix,
// case-insensitively, ordered title ascending, capped at limit.
func (r *Repo) TitlePrefix(ctx context.Context, prefix string, limit int) ([]domprod.Product, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}

	p := strings.ToLower(prefix)
	matched := all[:0]
	for _, prod := range all {
		if strings.HasPrefix(strings.ToLower(prod.Title), p) {
			matched = append(matched, prod)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Title < matched[j].Title })
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// slugify lowercases a name and collapses non-alphanumeric runs to hyphens.
func slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	prevHyphen := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
