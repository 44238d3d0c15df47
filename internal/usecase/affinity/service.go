// Package affinity rebuilds the co-purchase table from order history.
package affinity

import (
	"context"
	"fmt"

	domaff "github.com/nordkart/shopsearch/internal/domain/affinity"
)

// Stats summarizes one rebuild run.
type Stats struct {
	PreviousPairs int `json:"previousPairs"`
	Pairs         int `json:"pairs"`
	Baskets       int `json:"baskets"`
	Skipped       int `json:"skipped"`
}

// Service rebuilds the affinity table.
type Service struct {
	repo   Repository
	orders OrderReader
}

// New creates an affinity service.
func New(repo Repository, orders OrderReader) *Service {
	return &Service{repo: repo, orders: orders}
}

// Rebuild recomputes all co-purchase counts from the full order history
// and installs them as the new affinity generation. A store error aborts
// the rebuild and leaves the previous generation serving reads.
func (s *Service) Rebuild(ctx context.Context) (Stats, error) {
	baskets, err := s.orders.Baskets(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("load baskets: %w", err)
	}

	skipped := 0
	for _, b := range baskets {
		if len(b.Products) < 2 {
			skipped++
		}
	}

	counts := domaff.CountPairs(baskets)

	previous, err := s.repo.Replace(ctx, counts)
	if err != nil {
		return Stats{}, fmt.Errorf("replace affinity table: %w", err)
	}

	return Stats{
		PreviousPairs: previous,
		Pairs:         len(counts),
		Baskets:       len(baskets),
		Skipped:       skipped,
	}, nil
}
