package order

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"testing"

	"github.com/nordkart/shopsearch/internal/db"
	domorder "github.com/nordkart/shopsearch/internal/domain/order"
)

// mockStore is an in-memory document store for tests.
type mockStore struct {
	docs    map[string][]byte
	scanErr error
	getErr  error
	setErr  error
}

func newMockStore() *mockStore {
	return &mockStore{docs: make(map[string][]byte)}
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

func (m *mockStore) JSONGetMulti(_ context.Context, keys []string) ([][]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	raws := make([][]byte, len(keys))
	for i, k := range keys {
		raws[i] = m.docs[k]
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
	}
	return nil
}

// seed marshals order lines into the store under their line keys.
func seed(t *testing.T, s *mockStore, lines ...domorder.Line) {
	t.Helper()
	for _, l := range lines {
		data, err := json.Marshal(l)
		if err != nil {
			t.Fatalf("marshal line %s/%s: %v", l.OrderID, l.ProductID, err)
		}
		s.docs[lineKey(l.OrderID, l.ProductID)] = data
	}
}
