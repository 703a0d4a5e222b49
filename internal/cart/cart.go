// Package cart holds shopping cart line items. A Cart is a value: every
// operation returns the next cart and leaves the receiver untouched.
package cart

import (
	"encoding/json"

	"github.com/ariefcatur/go-storefront-checkout/internal/catalog"
	"github.com/ariefcatur/go-storefront-checkout/internal/ident"
	"github.com/ariefcatur/go-storefront-checkout/internal/money"
)

// Line binds a product to a quantity. Display fields are copied from the
// product when it is first added.
type Line struct {
	ProductID   ident.ID    `json:"id"`
	Name        string      `json:"name"`
	Category    string      `json:"category,omitempty"`
	Price       money.Price `json:"price"`
	Stock       int         `json:"stock"`
	Image       string      `json:"image,omitempty"`
	Description string      `json:"description,omitempty"`
	Quantity    int         `json:"quantity"`
}

// Cart keeps at most one line per product, in insertion order.
type Cart struct {
	lines []Line
}

func New(lines ...Line) Cart {
	var c Cart
	for _, l := range lines {
		if l.Quantity < 1 {
			continue
		}
		if i := c.index(l.ProductID); i >= 0 {
			c.lines[i].Quantity += l.Quantity
			continue
		}
		c.lines = append(c.lines, l)
	}
	return c
}

// Add increments the product's line, or appends a line with quantity 1.
// Stock is not checked here.
func (c Cart) Add(p catalog.Product) Cart {
	next := c.copy()
	if i := next.index(p.ID); i >= 0 {
		next.lines[i].Quantity++
		return next
	}
	next.lines = append(next.lines, Line{
		ProductID:   p.ID,
		Name:        p.Name,
		Category:    p.Category,
		Price:       p.Price,
		Stock:       p.Stock,
		Image:       p.Image,
		Description: p.Description,
		Quantity:    1,
	})
	return next
}

func (c Cart) Remove(id ident.ID) Cart {
	i := c.index(id)
	if i < 0 {
		return c
	}
	next := c.copy()
	next.lines = append(next.lines[:i], next.lines[i+1:]...)
	return next
}

func (c Cart) Increment(id ident.ID) Cart {
	i := c.index(id)
	if i < 0 {
		return c
	}
	next := c.copy()
	next.lines[i].Quantity++
	return next
}

// Decrement drops the line once its quantity reaches zero.
func (c Cart) Decrement(id ident.ID) Cart {
	i := c.index(id)
	if i < 0 {
		return c
	}
	if c.lines[i].Quantity <= 1 {
		return c.Remove(id)
	}
	next := c.copy()
	next.lines[i].Quantity--
	return next
}

func (c Cart) Clear() Cart { return Cart{} }

func (c Cart) Empty() bool { return len(c.lines) == 0 }

func (c Cart) Len() int { return len(c.lines) }

// Lines returns a copy of the lines for display.
func (c Cart) Lines() []Line {
	return append([]Line{}, c.lines...)
}

func (c Cart) Line(id ident.ID) (Line, bool) {
	if i := c.index(id); i >= 0 {
		return c.lines[i], true
	}
	return Line{}, false
}

// TotalItems sums quantities across lines.
func (c Cart) TotalItems() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c Cart) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Lines())
}

func (c Cart) index(id ident.ID) int {
	for i, l := range c.lines {
		if l.ProductID.Equal(id) {
			return i
		}
	}
	return -1
}

func (c Cart) copy() Cart {
	return Cart{lines: append([]Line(nil), c.lines...)}
}
