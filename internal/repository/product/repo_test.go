package product

import (
	"context"
	"errors"
	"testing"

	"github.com/nordkart/shopsearch/internal/domain"
	domprod "github.com/nordkart/shopsearch/internal/domain/product"
)

func TestGet_NotFound(t *testing.T) {
	repo := New(newMockStore())

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}

func TestGet_ReturnsProduct(t *testing.T) {
	store := newMockStore()
	seed(t, store, domprod.Product{ID: "P1", Title: "Trail Jacket", Brand: "NorthRock"})
	repo := New(store)

	p, err := repo.Get(context.Background(), "P1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "P1" || p.Title != "Trail Jacket" || p.Brand != "NorthRock" {
		t.Errorf("unexpected product: %+v", p)
	}
}

func TestGetMany_SkipsMissingAndKeepsOrder(t *testing.T) {
	store := newMockStore()
	seed(t, store,
		domprod.Product{ID: "P1", Title: "First"},
		domprod.Product{ID: "P3", Title: "Third"},
	)
	repo := New(store)

	products, err := repo.GetMany(context.Background(), []string{"P3", "P2", "P1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if products[0].ID != "P3" || products[1].ID != "P1" {
		t.Errorf("expected input order [P3 P1], got [%s %s]", products[0].ID, products[1].ID)
	}
}

func TestGetMany_EmptyInput(t *testing.T) {
	repo := New(newMockStore())

	products, err := repo.GetMany(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 0 {
		t.Errorf("expected no products, got %d", len(products))
	}
}

func TestAll_ScansEveryProduct(t *testing.T) {
	store := newMockStore()
	seed(t, store,
		domprod.Product{ID: "P1"},
		domprod.Product{ID: "P2"},
		domprod.Product{ID: "P3"},
	)
	repo := New(store)

	products, err := repo.All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 3 {
		t.Errorf("expected 3 products, got %d", len(products))
	}
}

func TestInsertMany_WritesDocuments(t *testing.T) {
	store := newMockStore()
	repo := New(store)

	err := repo.InsertMany(context.Background(), []domprod.Product{
		{ID: "P1", Title: "One"},
		{ID: "P2", Title: "Two"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := store.docs[docKey("P1")]; !ok {
		t.Error("expected P1 document written")
	}
	if _, ok := store.docs[docKey("P2")]; !ok {
		t.Error("expected P2 document written")
	}
}

func TestDeleteAll_ReturnsCount(t *testing.T) {
	store := newMockStore()
	seed(t, store, domprod.Product{ID: "P1"}, domprod.Product{ID: "P2"})
	repo := New(store)

	n, err := repo.DeleteAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted, got %d", n)
	}
	if len(store.docs) != 0 {
		t.Errorf("expected empty store, got %d docs", len(store.docs))
	}
}

func TestCategoryRollup_CountsAndOrders(t *testing.T) {
	outdoor := domprod.Category{ID: "C1", Name: "Outdoor Wear"}
	footwear := domprod.Category{ID: "C2", Name: "Footwear"}

	store := newMockStore()
	seed(t, store,
		domprod.Product{ID: "P1", Title: "Trail Jacket", Categories: []domprod.Category{outdoor}},
		domprod.Product{ID: "P2", Title: "Trail Pants", Categories: []domprod.Category{outdoor}},
		domprod.Product{ID: "P3", Title: "Trail Boots", Categories: []domprod.Category{footwear}},
		domprod.Product{ID: "P4", Title: "City Umbrella", Categories: []domprod.Category{footwear}},
	)
	repo := New(store)

	hits, err := repo.CategoryRollup(context.Background(), "trail", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 category hits, got %d", len(hits))
	}
	if hits[0].ID != "C1" || hits[0].ProductCount != 2 {
		t.Errorf("expected C1 first with count 2, got %+v", hits[0])
	}
	if hits[1].ID != "C2" || hits[1].ProductCount != 1 {
		t.Errorf("expected C2 second with count 1, got %+v", hits[1])
	}
	if hits[0].Slug != "outdoor-wear" {
		t.Errorf("expected slug outdoor-wear, got %q", hits[0].Slug)
	}
}

func TestCategoryRollup_TieBreaksByName(t *testing.T) {
	store := newMockStore()
	seed(t, store,
		domprod.Product{ID: "P1", Title: "Trail Hat", Categories: []domprod.Category{{ID: "C2", Name: "Zulu"}}},
		domprod.Product{ID: "P2", Title: "Trail Cap", Categories: []domprod.Category{{ID: "C1", Name: "Alpha"}}},
	)
	repo := New(store)

	hits, err := repo.CategoryRollup(context.Background(), "trail", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 || hits[0].Name != "Alpha" || hits[1].Name != "Zulu" {
		t.Errorf("expected name-ascending tie break, got %+v", hits)
	}
}

func TestCategoryRollup_CapsAtLimit(t *testing.T) {
	store := newMockStore()
	seed(t, store,
		domprod.Product{ID: "P1", Title: "Trail A", Categories: []domprod.Category{{ID: "C1", Name: "A"}}},
		domprod.Product{ID: "P2", Title: "Trail B", Categories: []domprod.Category{{ID: "C2", Name: "B"}}},
		domprod.Product{ID: "P3", Title: "Trail C", Categories: []domprod.Category{{ID: "C3", Name: "C"}}},
	)
	repo := New(store)

	hits, err := repo.CategoryRollup(context.Background(), "trail", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("expected limit 2 honored, got %d hits", len(hits))
	}
}

func TestBrandRollup_MatchesBrandNotTitle(t *testing.T) {
	store := newMockStore()
	seed(t, store,
		domprod.Product{ID: "P1", Title: "Jacket", Brand: "NorthRock"},
		domprod.Product{ID: "P2", Title: "Pants", Brand: "NorthRock"},
		domprod.Product{ID: "P3", Title: "NorthRock Socks", Brand: "Plainline"},
		domprod.Product{ID: "P4", Title: "Gloves"},
	)
	repo := New(store)

	hits, err := repo.BrandRollup(context.Background(), "northrock", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 brand hit, got %d", len(hits))
	}
	if hits[0].ID != "northrock" || hits[0].Name != "NorthRock" || hits[0].ProductCount != 2 {
		t.Errorf("unexpected brand hit: %+v", hits[0])
	}
}

func TestTitlePrefix_OrdersAndCaps(t *testing.T) {
	store := newMockStore()
	seed(t, store,
		domprod.Product{ID: "P1", Title: "Trail Jacket"},
		domprod.Product{ID: "P2", Title: "Trail Boots"},
		domprod.Product{ID: "P3", Title: "Trail Cap"},
		domprod.Product{ID: "P4", Title: "City Coat"},
	)
	repo := New(store)

	products, err := repo.TitlePrefix(context.Background(), "tra", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if products[0].Title != "Trail Boots" || products[1].Title != "Trail Cap" {
		t.Errorf("expected title-ascending order, got [%s %s]", products[0].Title, products[1].Title)
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Outdoor Wear", "outdoor-wear"},
		{"Shoes & Boots", "shoes-boots"},
		{"  Café  ", "caf"},
		{"Already-Simple", "already-simple"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := slugify(tc.in); got != tc.want {
			t.Errorf("slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
