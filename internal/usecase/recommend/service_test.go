package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/nordkart/shopsearch/internal/domain"
	domaff "github.com/nordkart/shopsearch/internal/domain/affinity"
	domorder "github.com/nordkart/shopsearch/internal/domain/order"
	domprod "github.com/nordkart/shopsearch/internal/domain/product"
	domrec "github.com/nordkart/shopsearch/internal/domain/recommend"
	"github.com/nordkart/shopsearch/internal/domain/season"
)

// --- Mocks ---

type mockProducts struct {
	byID map[string]domprod.Product
	err  error
}

func (m *mockProducts) Get(_ context.Context, id string) (domprod.Product, error) {
	if m.err != nil {
		return domprod.Product{}, m.err
	}
	p, ok := m.byID[id]
	if !ok {
		return domprod.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

func (m *mockProducts) GetMany(_ context.Context, ids []string) ([]domprod.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domprod.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProducts) All(_ context.Context) ([]domprod.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domprod.Product, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, p)
	}
	return out, nil
}

type mockOrders struct {
	baskets   []domorder.Basket
	purchased map[string][]string
	err       error
}

func (m *mockOrders) BasketsContaining(_ context.Context, productID string) ([]domorder.Basket, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domorder.Basket
	for _, b := range m.baskets {
		for _, p := range b.Products {
			if p == productID {
				out = append(out, b)
				break
			}
		}
	}
	return out, nil
}

func (m *mockOrders) ProductsPurchasedBy(_ context.Context, customerID string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.purchased[customerID], nil
}

type mockAffinity struct {
	partners map[string][]domaff.Partner
	err      error
}

func (m *mockAffinity) Partners(_ context.Context, productID string) ([]domaff.Partner, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.partners[productID], nil
}

type mockCache struct {
	values map[string]any
	hits   int
}

func newMockCache() *mockCache {
	return &mockCache{values: make(map[string]any)}
}

func (m *mockCache) Get(key any) (any, bool) {
	v, ok := m.values[keyString(key)]
	if ok {
		m.hits++
	}
	return v, ok
}

func (m *mockCache) Set(key, value any) {
	m.values[keyString(key)] = value
}

func keyString(key any) string {
	k := key.(cacheKey)
	return k.Op + "|" + k.ProductID + "|" + k.UserID + "|" + string(k.Season)
}

func catalog(products ...domprod.Product) *mockProducts {
	byID := make(map[string]domprod.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &mockProducts{byID: byID}
}

func newService(products *mockProducts, orders *mockOrders, aff *mockAffinity) *Service {
	return New(products, orders, aff, newMockCache(), Config{
		DefaultLimit:         5,
		ContentMinSimilarity: 0.5,
		StockBoost:           0.3,
		SaleBoost:            0.2,
	})
}

func ids(items []domrec.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ProductID
	}
	return out
}

func assertIDs(t *testing.T, items []domrec.Item, want ...string) {
	t.Helper()
	got := ids(items)
	if len(got) != len(want) {
		t.Fatalf("expected ids %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected ids %v, got %v", want, got)
		}
	}
}

// --- Tests ---

func TestCoOccurrence_CountsAcrossBaskets(t *testing.T) {
	products := catalog(
		domprod.Product{ID: "P1"}, domprod.Product{ID: "P2"},
	)
	orders := &mockOrders{baskets: []domorder.Basket{
		{OrderID: "O1", Products: []string{"P1", "P2"}},
		{OrderID: "O2", Products: []string{"P1", "P2"}},
	}}
	svc := newService(products, orders, &mockAffinity{})

	items, err := svc.CoOccurrence(context.Background(), "P1", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, items, "P2")
	if items[0].Score != 2 {
		t.Errorf("expected co-purchase count 2, got %v", items[0].Score)
	}
	if items[0].Source != domrec.SourceCollaborative {
		t.Errorf("expected collaborative source, got %s", items[0].Source)
	}
}

func TestCoOccurrence_TieBreaksAscendingID(t *testing.T) {
	products := catalog(
		domprod.Product{ID: "P1"}, domprod.Product{ID: "P2"}, domprod.Product{ID: "P3"},
	)
	orders := &mockOrders{baskets: []domorder.Basket{
		{OrderID: "O1", Products: []string{"P1", "P3"}},
		{OrderID: "O2", Products: []string{"P1", "P2"}},
	}}
	svc := newService(products, orders, &mockAffinity{})

	items, err := svc.CoOccurrence(context.Background(), "P1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, items, "P2", "P3")
}

func TestCoOccurrence_NoHistory(t *testing.T) {
	svc := newService(catalog(domprod.Product{ID: "P1"}), &mockOrders{}, &mockAffinity{})

	items, err := svc.CoOccurrence(context.Background(), "P1", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty list, got %v", ids(items))
	}
}

func TestCoOccurrence_NegativeLimit(t *testing.T) {
	svc := newService(catalog(), &mockOrders{}, &mockAffinity{})

	_, err := svc.CoOccurrence(context.Background(), "P1", -1)
	if !errors.Is(err, domain.ErrInvalidLimit) {
		t.Fatalf("expected ErrInvalidLimit, got %v", err)
	}
}

func TestCoOccurrence_SecondCallHitsCache(t *testing.T) {
	products := catalog(domprod.Product{ID: "P1"}, domprod.Product{ID: "P2"})
	orders := &mockOrders{baskets: []domorder.Basket{
		{OrderID: "O1", Products: []string{"P1", "P2"}},
	}}
	cache := newMockCache()
	svc := New(products, orders, &mockAffinity{}, cache, Config{DefaultLimit: 5})

	ctx := context.Background()
	if _, err := svc.CoOccurrence(ctx, "P1", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.CoOccurrence(ctx, "P1", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.hits != 1 {
		t.Errorf("expected 1 cache hit, got %d", cache.hits)
	}
}

func TestForUser_ExcludesPurchased(t *testing.T) {
	products := catalog(
		domprod.Product{ID: "P2"}, domprod.Product{ID: "P3"},
	)
	orders := &mockOrders{purchased: map[string][]string{"C1": {"P1"}}}
	aff := &mockAffinity{partners: map[string][]domaff.Partner{
		"P1": {{ProductID: "P2", Count: 3}, {ProductID: "P3", Count: 1}},
	}}
	svc := newService(products, orders, aff)

	items, err := svc.ForUser(context.Background(), "C1", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, items, "P2", "P3")
}

func TestForUser_SumsAcrossPurchases(t *testing.T) {
	products := catalog(
		domprod.Product{ID: "P3"}, domprod.Product{ID: "P4"},
	)
	orders := &mockOrders{purchased: map[string][]string{"C1": {"P1", "P2"}}}
	aff := &mockAffinity{partners: map[string][]domaff.Partner{
		"P1": {{ProductID: "P3", Count: 1}, {ProductID: "P4", Count: 2}},
		"P2": {{ProductID: "P3", Count: 2}, {ProductID: "P2", Count: 9}},
	}}
	svc := newService(products, orders, aff)

	items, err := svc.ForUser(context.Background(), "C1", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, items, "P3", "P4")
	if items[0].Score != 3 {
		t.Errorf("expected summed count 3 for P3, got %v", items[0].Score)
	}
}

func TestForUser_EmptyHistory(t *testing.T) {
	svc := newService(catalog(), &mockOrders{}, &mockAffinity{})

	items, err := svc.ForUser(context.Background(), "nobody", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty list, got %v", ids(items))
	}
}

func TestContentBased_ThresholdAndOrdering(t *testing.T) {
	products := catalog(
		domprod.Product{ID: "P1", TitleEmbedding: []float32{1, 0}},
		domprod.Product{ID: "P2", TitleEmbedding: []float32{1, 0}},
		domprod.Product{ID: "P3", TitleEmbedding: []float32{0.8, 0.6}},
		domprod.Product{ID: "P4", TitleEmbedding: []float32{0, 1}},
	)
	svc := newService(products, &mockOrders{}, &mockAffinity{})

	items, err := svc.ContentBased(context.Background(), "P1", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// P2 similarity 1.0, P3 0.8, P4 0.0 (below threshold).
	assertIDs(t, items, "P2", "P3")
	if items[0].Source != domrec.SourceContent {
		t.Errorf("expected content source, got %s", items[0].Source)
	}
}

func TestContentBased_SkipsCandidatesWithoutEmbeddings(t *testing.T) {
	products := catalog(
		domprod.Product{ID: "P1", TitleEmbedding: []float32{1, 0}},
		domprod.Product{ID: "P2"},
		domprod.Product{ID: "P3", DescriptionEmbedding: []float32{1, 0}},
	)
	svc := newService(products, &mockOrders{}, &mockAffinity{})

	items, err := svc.ContentBased(context.Background(), "P1", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, items, "P3")
}

func TestContentBased_MissingProduct(t *testing.T) {
	svc := newService(catalog(), &mockOrders{}, &mockAffinity{})

	items, err := svc.ContentBased(context.Background(), "ghost", 5)
	if err != nil {
		t.Fatalf("expected missing product to be a business-empty result, got %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty list, got %v", ids(items))
	}
}

func TestHybrid_SeasonalBoostDeterminism(t *testing.T) {
	// Collaborative yields [P2, P3]; content yields [P3, P4]. P4 matches
	// winter with relevancy 0.6, P2 and P3 match nothing. All are out of
	// stock and not on sale, so boosted scores are P2=1.0, P3=1.0, P4=1.6.
	products := catalog(
		domprod.Product{ID: "P1", TitleEmbedding: []float32{1, 0}},
		domprod.Product{ID: "P2"},
		domprod.Product{ID: "P3", TitleEmbedding: []float32{1, 0}},
		domprod.Product{
			ID:                    "P4",
			TitleEmbedding:        []float32{0.8, 0.6},
			Seasons:               []season.Season{season.Winter},
			SeasonRelevancyFactor: 0.6,
		},
	)
	orders := &mockOrders{baskets: []domorder.Basket{
		{OrderID: "O1", Products: []string{"P1", "P2"}},
		{OrderID: "O2", Products: []string{"P1", "P2"}},
		{OrderID: "O3", Products: []string{"P1", "P3"}},
	}}
	svc := newService(products, orders, &mockAffinity{})

	items, err := svc.Hybrid(context.Background(), "P1", 3, season.Winter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, items, "P4", "P2", "P3")

	scores := map[string]float64{}
	for _, item := range items {
		scores[item.ProductID] = item.Score
		if item.Source != domrec.SourceHybrid {
			t.Errorf("expected hybrid source for %s, got %s", item.ProductID, item.Source)
		}
	}
	if scores["P2"] != 1.0 || scores["P3"] != 1.0 {
		t.Errorf("expected unboosted scores 1.0, got P2=%v P3=%v", scores["P2"], scores["P3"])
	}
	if scores["P4"] != 1.6 {
		t.Errorf("expected winter-boosted score 1.6 for P4, got %v", scores["P4"])
	}
}

func TestHybrid_StockAndSaleBoosts(t *testing.T) {
	products := catalog(
		domprod.Product{ID: "P1"},
		domprod.Product{ID: "P2", StockLevel: 5, IsOnSale: true},
	)
	orders := &mockOrders{baskets: []domorder.Basket{
		{OrderID: "O1", Products: []string{"P1", "P2"}},
	}}
	svc := newService(products, orders, &mockAffinity{})

	items, err := svc.Hybrid(context.Background(), "P1", 5, season.Summer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, items, "P2")
	if items[0].Score != 1.5 {
		t.Errorf("expected 1.0 + 0.3 stock + 0.2 sale = 1.5, got %v", items[0].Score)
	}
}

func TestHybrid_DedupFirstWins(t *testing.T) {
	// P3 appears in both strategies and must appear once.
	products := catalog(
		domprod.Product{ID: "P1", TitleEmbedding: []float32{1, 0}},
		domprod.Product{ID: "P3", TitleEmbedding: []float32{1, 0}},
	)
	orders := &mockOrders{baskets: []domorder.Basket{
		{OrderID: "O1", Products: []string{"P1", "P3"}},
	}}
	svc := newService(products, orders, &mockAffinity{})

	items, err := svc.Hybrid(context.Background(), "P1", 5, season.Summer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, items, "P3")
}

func TestHybrid_ContentFailureKeepsCollaborative(t *testing.T) {
	// Products.All fails but GetMany succeeds, so the collaborative
	// branch still resolves while content contributes nothing.
	products := catalog(
		domprod.Product{ID: "P1", TitleEmbedding: []float32{1, 0}},
		domprod.Product{ID: "P2"},
	)
	failing := &partialProducts{mockProducts: products}
	orders := &mockOrders{baskets: []domorder.Basket{
		{OrderID: "O1", Products: []string{"P1", "P2"}},
	}}
	svc := New(failing, orders, &mockAffinity{}, newMockCache(), Config{DefaultLimit: 5})

	items, err := svc.Hybrid(context.Background(), "P1", 5, season.Summer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, items, "P2")
}

type partialProducts struct {
	*mockProducts
}

func (p *partialProducts) All(_ context.Context) ([]domprod.Product, error) {
	return nil, errors.New("catalog scan failed")
}
