package recommend

import (
	"context"

	domaff "github.com/nordkart/shopsearch/internal/domain/affinity"
	domorder "github.com/nordkart/shopsearch/internal/domain/order"
	domprod "github.com/nordkart/shopsearch/internal/domain/product"
)

// ProductReader reads catalog products.
type ProductReader interface {
	Get(ctx context.Context, id string) (domprod.Product, error)
	GetMany(ctx context.Context, ids []string) ([]domprod.Product, error)
	All(ctx context.Context) ([]domprod.Product, error)
}

// OrderReader reads purchase history.
type OrderReader interface {
	BasketsContaining(ctx context.Context, productID string) ([]domorder.Basket, error)
	ProductsPurchasedBy(ctx context.Context, customerID string) ([]string, error)
}

// AffinityReader reads the precomputed co-purchase table.
type AffinityReader interface {
	Partners(ctx context.Context, productID string) ([]domaff.Partner, error)
}

// ResultCache caches computed recommendation lists.
type ResultCache interface {
	Get(key any) (any, bool)
	Set(key, value any)
}
