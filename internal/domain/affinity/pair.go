// Package affinity models co-purchase counts between product pairs.
package affinity

import (
	"sort"

	"github.com/nordkart/shopsearch/internal/domain/order"
)

// Pair is a canonical unordered product pair: A < B always holds, so a
// pair is represented once regardless of purchase order.
type Pair struct {
	A string
	B string
}

// NewPair canonicalizes two product ids into a Pair.
func NewPair(p1, p2 string) Pair {
	if p2 < p1 {
		p1, p2 = p2, p1
	}
	return Pair{A: p1, B: p2}
}

// Other returns the pair member that is not productID.
func (p Pair) Other(productID string) string {
	if p.A == productID {
		return p.B
	}
	return p.A
}

// Contains reports whether productID is a member of the pair.
func (p Pair) Contains(productID string) bool {
	return p.A == productID || p.B == productID
}

// Partner is one side of an affinity row as seen from a source product.
type Partner struct {
	ProductID string
	Count     int
}

// CountPairs enumerates every unordered pair of distinct products in each
// basket and accumulates co-purchase counts. Baskets with fewer than two
// distinct products contribute nothing.
func CountPairs(baskets []order.Basket) map[Pair]int {
	counts := make(map[Pair]int)
	for _, b := range baskets {
		if len(b.Products) < 2 {
			continue
		}
		for i := 0; i < len(b.Products); i++ {
			for j := i + 1; j < len(b.Products); j++ {
				counts[NewPair(b.Products[i], b.Products[j])]++
			}
		}
	}
	return counts
}

// SortPartners orders partners by count descending, ties by ascending
// product id so results are deterministic across runs.
func SortPartners(partners []Partner) {
	sort.Slice(partners, func(i, j int) bool {
		if partners[i].Count != partners[j].Count {
			return partners[i].Count > partners[j].Count
		}
		return partners[i].ProductID < partners[j].ProductID
	})
}
