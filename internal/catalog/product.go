package catalog

import (
	"strings"

	"github.com/ariefcatur/go-storefront-checkout/internal/ident"
	"github.com/ariefcatur/go-storefront-checkout/internal/money"
)

// Product as served by the catalog. Stock is advisory display data.
type Product struct {
	ID          ident.ID    `json:"id"`
	Name        string      `json:"name"`
	Category    string      `json:"category,omitempty"`
	Price       money.Price `json:"price"`
	Stock       int         `json:"stock"`
	Image       string      `json:"image,omitempty"`
	Description string      `json:"description,omitempty"`
}

// InStock reports whether the product may be put in a cart.
func InStock(p Product) bool { return p.Stock > 0 }

// CanIncrement reports whether a cart line holding quantity units may grow
// by one without passing the advertised stock.
func CanIncrement(quantity, stock int) bool { return quantity < stock }

// Filter keeps the products whose name, category or description contain
// term, case-insensitively. A blank term keeps everything.
func Filter(products []Product, term string) []Product {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return products
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if contains(p.Name, term) || contains(p.Category, term) || contains(p.Description, term) {
			out = append(out, p)
		}
	}
	return out
}

func contains(field, term string) bool {
	return field != "" && strings.Contains(strings.ToLower(field), term)
}
