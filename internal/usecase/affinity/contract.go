package affinity

import (
	"context"

	domaff "github.com/nordkart/shopsearch/internal/domain/affinity"
	domorder "github.com/nordkart/shopsearch/internal/domain/order"
)

// Repository defines the storage contract for the affinity table.
type Repository interface {
	Replace(ctx context.Context, counts map[domaff.Pair]int) (previous int, err error)
	Partners(ctx context.Context, productID string) ([]domaff.Partner, error)
	Count(ctx context.Context) (int, error)
}

// OrderReader reads purchase history for the rebuild.
type OrderReader interface {
	Baskets(ctx context.Context) ([]domorder.Basket, error)
}
