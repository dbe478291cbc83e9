package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one line of a shopping cart. Quantity is always >= 1 while the line exists.
type CartItem struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	ImageURL *string         `json:"image_url,omitempty"`
	Flavor   *string         `json:"flavor,omitempty"`
	Volume   *string         `json:"volume,omitempty"`
}

// Subtotal is price * quantity for the line.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Address is the delivery address a shopper saves before checking out.
type Address struct {
	Street     string  `json:"street"`
	Number     string  `json:"number"`
	Complement string  `json:"complement,omitempty"`
	District   string  `json:"district"`
	City       string  `json:"city"`
	State      string  `json:"state,omitempty"`
	ZipCode    string  `json:"zip_code,omitempty"`
	Reference  string  `json:"reference,omitempty"`
	DistanceKm float64 `json:"distance_km,omitempty"`
}

// IsComplete reports whether the address has enough to deliver to.
func (a *Address) IsComplete() bool {
	if a == nil {
		return false
	}
	for _, f := range []string{a.Street, a.Number, a.District, a.City} {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}
	return true
}

// Lines renders the address as printable lines.
func (a *Address) Lines() []string {
	first := a.Street + ", " + a.Number
	if a.Complement != "" {
		first += " - " + a.Complement
	}
	lines := []string{first, a.District}
	city := a.City
	if a.State != "" {
		city += " - " + a.State
	}
	lines = append(lines, city)
	if a.ZipCode != "" {
		lines = append(lines, "CEP: "+a.ZipCode)
	}
	if a.Reference != "" {
		lines = append(lines, "Referência: "+a.Reference)
	}
	return lines
}

// String joins Lines with ", " for single-column storage.
func (a *Address) String() string {
	return strings.Join(a.Lines(), ", ")
}

// Cart is a shopper's session: the line list plus the saved delivery address.
type Cart struct {
	Items     []CartItem `json:"items"`
	Address   *Address   `json:"address,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{Items: []CartItem{}}
}

func (c *Cart) indexOf(id int64) int {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// AddItem merges into the line with the same product id or appends a new line.
// Name and price are refreshed from item; qty < 1 counts as 1.
func (c *Cart) AddItem(item CartItem, qty int) {
	if qty < 1 {
		qty = 1
	}
	if i := c.indexOf(item.ID); i >= 0 {
		c.Items[i].Quantity += qty
		c.Items[i].Name = item.Name
		c.Items[i].Price = item.Price
		return
	}
	item.Quantity = qty
	c.Items = append(c.Items, item)
}

// SetQuantity overwrites the line quantity; qty < 1 removes the line.
func (c *Cart) SetQuantity(id int64, qty int) {
	if qty < 1 {
		c.RemoveItem(id)
		return
	}
	if i := c.indexOf(id); i >= 0 {
		c.Items[i].Quantity = qty
	}
}

// RemoveItem deletes the line if present.
func (c *Cart) RemoveItem(id int64) {
	if i := c.indexOf(id); i >= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}
}

// Has reports whether a line exists for the product.
func (c *Cart) Has(id int64) bool {
	return c.indexOf(id) >= 0
}

// Total is the sum of price * quantity over all lines.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// ItemCount is the sum of quantities.
func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Clear drops all lines. The saved address is kept for the next order.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
}
