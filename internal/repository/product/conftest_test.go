package product

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"testing"

	"github.com/nordkart/shopsearch/internal/db"
	domprod "github.com/nordkart/shopsearch/internal/domain/product"
)

// mockStore is an in-memory document store for tests.
type mockStore struct {
	docs    map[string][]byte
	scanErr error
	getErr  error
	setErr  error
	deleted []string
}

func newMockStore() *mockStore {
	return &mockStore{docs: make(map[string][]byte)}
}

func (m *mockStore) JSONSet(_ context.Context, key, _ string, data []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.docs[key] = data
	return nil
}

func (m *mockStore) JSONSetMulti(_ context.Context, items []db.JSONSetItem) error {
	if m.setErr != nil {
		return m.setErr
	}
	for _, it := range items {
		m.docs[it.Key] = it.Data
	}
	return nil
}

func (m *mockStore) JSONGet(_ context.Context, key string, _ ...string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	raw, ok := m.docs[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return raw, nil
}

func (m *mockStore) JSONGetMulti(_ context.Context, keys []string) ([][]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	raws := make([][]byte, len(keys))
	for i, k := range keys {
		raws[i] = m.docs[k] // nil for missing keys
	}
	return raws, nil
}

func (m *mockStore) Scan(_ context.Context, pattern string) ([]string, error) {
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range m.docs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *mockStore) DelMulti(_ context.Context, keys []string) error {
	for _, k := range keys {
		delete(m.docs, k)
		m.deleted = append(m.deleted, k)
	}
	return nil
}

// seed marshals products into the store under their document keys.
func seed(t *testing.T, s *mockStore, products ...domprod.Product) {
	t.Helper()
	for _, p := range products {
		data, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("marshal product %s: %v", p.ID, err)
		}
		s.docs[docKey(p.ID)] = data
	}
}
