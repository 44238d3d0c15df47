// Package order persists order lines and answers basket queries.
package order

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/nordkart/shopsearch/internal/db"
	"github.com/nordkart/shopsearch/internal/domain"
	domorder "github.com/nordkart/shopsearch/internal/domain/order"
)

// store is the consumer interface for order persistence (ISP).
type store interface {
	JSONSetMulti(ctx context.Context, items []db.JSONSetItem) error
	JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	DelMulti(ctx context.Context, keys []string) error
}

// Repo implements order-line persistence over the document store.
type Repo struct {
	store store
}

// New creates an order repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// InsertMany stores order lines in one pipelined round-trip.
// One line per (order, product) pair; a re-ingested line overwrites itself.
func (r *Repo) InsertMany(ctx context.Context, lines []domorder.Line) error {
	if len(lines) == 0 {
		return nil
	}

	items := make([]db.JSONSetItem, len(lines))
	for i, l := range lines {
		data, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("marshal order line %s/%s: %w", l.OrderID, l.ProductID, err)
		}
		items[i] = db.JSONSetItem{Key: lineKey(l.OrderID, l.ProductID), Path: "$", Data: data}
	}

	if err := r.store.JSONSetMulti(ctx, items); err != nil {
		return fmt.Errorf("json.set multi: %w", err)
	}
	return nil
}

// All returns every stored order line.
func (r *Repo) All(ctx context.Context) ([]domorder.Line, error) {
	return r.scanLines(ctx, keyPrefix()+"*")
}

// Baskets returns the full order history grouped into baskets.
func (r *Repo) Baskets(ctx context.Context) ([]domorder.Basket, error) {
	lines, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	return domorder.GroupBaskets(lines), nil
}

// BasketsContaining returns the baskets that include the given product.
func (r *Repo) BasketsContaining(ctx context.Context, productID string) ([]domorder.Basket, error) {
	lines, err := r.All(ctx)
	if err != nil {
		return nil, err
	}

	withProduct := make(map[string]struct{})
	for _, l := range lines {
		if l.ProductID == productID {
			withProduct[l.OrderID] = struct{}{}
		}
	}
	if len(withProduct) == 0 {
		return nil, nil
	}

	matching := lines[:0]
	for _, l := range lines {
		if _, ok := withProduct[l.OrderID]; ok {
			matching = append(matching, l)
		}
	}
	return domorder.GroupBaskets(matching), nil
}

// ProductsPurchasedBy returns the distinct products a customer has
// bought, sorted ascending for determinism.
func (r *Repo) ProductsPurchasedBy(ctx context.Context, customerID string) ([]string, error) {
	lines, err := r.All(ctx)
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{})
	for _, l := range lines {
		if l.CustomerID == customerID {
			set[l.ProductID] = struct{}{}
		}
	}

	products := make([]string, 0, len(set))
	for p := range set {
		products = append(products, p)
	}
	sort.Strings(products)
	return products, nil
}

// DeleteAll removes every stored order line and returns the count removed.
func (r *Repo) DeleteAll(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, keyPrefix()+"*")
	if err != nil {
		return 0, fmt.Errorf("scan order lines: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := r.store.DelMulti(ctx, keys); err != nil {
		return 0, fmt.Errorf("del order lines: %w", err)
	}
	return len(keys), nil
}

func (r *Repo) scanLines(ctx context.Context, pattern string) ([]domorder.Line, error) {
	keys, err := r.store.Scan(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("scan order lines: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	raws, err := r.store.JSONGetMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("json.get multi: %w", err)
	}

	lines := make([]domorder.Line, 0, len(raws))
	for i, raw := range raws {
		if raw == nil {
			continue
		}
		var l domorder.Line
		if err := json.Unmarshal(raw, &l); err != nil {
			return nil, fmt.Errorf("unmarshal order line key %s: %w", keys[i], err)
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func lineKey(orderID, productID string) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix(), orderID, productID)
}

func keyPrefix() string {
	return domain.KeyPrefix + "orderline:"
}
