// Package product persists catalog products as JSON documents.
package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nordkart/shopsearch/internal/db"
	"github.com/nordkart/shopsearch/internal/domain"
	domprod "github.com/nordkart/shopsearch/internal/domain/product"
)

// store is the consumer interface for product persistence (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONSetMulti(ctx context.Context, items []db.JSONSetItem) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	DelMulti(ctx context.Context, keys []string) error
}

// Repo implements product persistence over the document store.
type Repo struct {
	store store
}

// New creates a product repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Get returns a product by id. Missing products map to domain.ErrProductNotFound.
func (r *Repo) Get(ctx context.Context, id string) (domprod.Product, error) {
	raw, err := r.store.JSONGet(ctx, docKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domprod.Product{}, domain.ErrProductNotFound
		}
		return domprod.Product{}, fmt.Errorf("json.get %s: %w", docKey(id), err)
	}

	var p domprod.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return domprod.Product{}, fmt.Errorf("unmarshal product %s: %w", id, err)
	}
	return p, nil
}

// GetMany returns the products for the given ids, skipping missing ones.
// Result order follows the input id order.
func (r *Repo) GetMany(ctx context.Context, ids []string) ([]domprod.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(id)
	}

	raws, err := r.store.JSONGetMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("json.get multi: %w", err)
	}

	products := make([]domprod.Product, 0, len(raws))
	for i, raw := range raws {
		if raw == nil {
			continue
		}
		var p domprod.Product
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("unmarshal product %s: %w", ids[i], err)
		}
		products = append(products, p)
	}
	return products, nil
}

// All returns every stored product. Intended for retrieval strategies
// that filter and group client-side; the catalog is the bounded set here,
// not the order history.
func (r *Repo) All(ctx context.Context) ([]domprod.Product, error) {
	keys, err := r.store.Scan(ctx, keyPrefix()+"*")
	if err != nil {
		return nil, fmt.Errorf("scan products: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	raws, err := r.store.JSONGetMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("json.get multi: %w", err)
	}

	products := make([]domprod.Product, 0, len(raws))
	for i, raw := range raws {
		if raw == nil {
			continue
		}
		var p domprod.Product
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("unmarshal product key %s: %w", keys[i], err)
		}
		products = append(products, p)
	}
	return products, nil
}

// Insert stores a single product.
func (r *Repo) Insert(ctx context.Context, p domprod.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product %s: %w", p.ID, err)
	}
	if err := r.store.JSONSet(ctx, docKey(p.ID), "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", docKey(p.ID), err)
	}
	return nil
}

// InsertMany stores products in one pipelined round-trip.
func (r *Repo) InsertMany(ctx context.Context, products []domprod.Product) error {
	if len(products) == 0 {
		return nil
	}

	items := make([]db.JSONSetItem, len(products))
	for i, p := range products {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal product %s: %w", p.ID, err)
		}
		items[i] = db.JSONSetItem{Key: docKey(p.ID), Path: "$", Data: data}
	}

	if err := r.store.JSONSetMulti(ctx, items); err != nil {
		return fmt.Errorf("json.set multi: %w", err)
	}
	return nil
}

// DeleteAll removes every stored product and returns the count removed.
func (r *Repo) DeleteAll(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, keyPrefix()+"*")
	if err != nil {
		return 0, fmt.Errorf("scan products: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := r.store.DelMulti(ctx, keys); err != nil {
		return 0, fmt.Errorf("del products: %w", err)
	}
	return len(keys), nil
}

func docKey(id string) string {
	return keyPrefix() + id
}

func keyPrefix() string {
	return domain.KeyPrefix + "product:"
}

// IDFromKey strips the product key prefix, for callers working with raw scan output.
func IDFromKey(key string) string {
	return strings.TrimPrefix(key, keyPrefix())
}
