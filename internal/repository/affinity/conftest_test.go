package affinity

import (
	"context"
	"sort"
	"strings"

	"github.com/nordkart/shopsearch/internal/db"
)

// mockStore is an in-memory key-value and hash store for tests.
type mockStore struct {
	kv      map[string][]byte
	hashes  map[string]map[string]string
	hsetErr error
	setErr  error
	getErr  error
	scanErr error
	deleted []string
}

func newMockStore() *mockStore {
	return &mockStore{
		kv:     make(map[string][]byte),
		hashes: make(map[string]map[string]string),
	}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	raw, ok := m.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return raw, nil
}

func (m *mockStore) Set(_ context.Context, key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.kv[key] = value
	return nil
}

func (m *mockStore) HSet(_ context.Context, key string, fields map[string]string) error {
	if m.hsetErr != nil {
		return m.hsetErr
	}
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	for f, v := range fields {
		h[f] = v
	}
	return nil
}

func (m *mockStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	return m.hashes[key], nil
}

func (m *mockStore) Scan(_ context.Context, pattern string) ([]string, error) {
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range m.kv {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	for k := range m.hashes {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *mockStore) DelMulti(_ context.Context, keys []string) error {
	for _, k := range keys {
		delete(m.kv, k)
		delete(m.hashes, k)
		m.deleted = append(m.deleted, k)
	}
	return nil
}
