// Package order models purchase history used for co-purchase analysis.
package order

import "time"

// Line is a single product purchase within an order. Lines sharing an
// OrderID form a basket.
type Line struct {
	OrderID    string    `json:"orderNr"`
	ProductID  string    `json:"productNr"`
	CustomerID string    `json:"customerNr"`
	Timestamp  time.Time `json:"dateTime"`
}

// Basket is the set of distinct products purchased together in one order.
type Basket struct {
	OrderID  string
	Products []string
}

// GroupBaskets groups order lines by order id into baskets of distinct
// products. Duplicate lines for the same product collapse to one entry.
func GroupBaskets(lines []Line) []Basket {
	byOrder := make(map[string]map[string]struct{})
	orderIDs := make([]string, 0)
	for _, l := range lines {
		set, ok := byOrder[l.OrderID]
		if !ok {
			set = make(map[string]struct{})
			byOrder[l.OrderID] = set
			orderIDs = append(orderIDs, l.OrderID)
		}
		set[l.ProductID] = struct{}{}
	}

	baskets := make([]Basket, 0, len(orderIDs))
	for _, id := range orderIDs {
		products := make([]string, 0, len(byOrder[id]))
		for p := range byOrder[id] {
			products = append(products, p)
		}
		baskets = append(baskets, Basket{OrderID: id, Products: products})
	}
	return baskets
}
