package model

import "time"

// CartItem is one line of a cart.
type CartItem struct {
	ItemID   string  `json:"itemId,omitempty"`
	Name     string  `json:"name,omitempty"`
	Size     string  `json:"size,omitempty"`
	Price    float64 `json:"price"`
	Quantity int     `json:"qty"`
}

// Subtotal is Price x Quantity.
func (i CartItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

// Cart holds the items a user is about to order.
type Cart struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Items     []CartItem `json:"items"`
	Total     float64    `json:"total"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Recalculate sets Total to the sum of the line subtotals.
// Call it after every change to Items.
func (c *Cart) Recalculate() {
	var total float64
	for _, item := range c.Items {
		total += item.Subtotal()
	}
	c.Total = total
}
