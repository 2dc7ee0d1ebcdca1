package model

// Price is the price of one item in one size.
type Price struct {
	Size  string  `json:"size"`
	Price float64 `json:"price"`
}

// MenuItem is read-only catalog data.
type MenuItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Prices      []Price `json:"prices"`
	Vegetarian  bool    `json:"vegetarian"`
	Image       string  `json:"image"`
}

// PriceFor returns the price of the item in the given size.
func (m *MenuItem) PriceFor(size string) (float64, bool) {
	for _, p := range m.Prices {
		if p.Size == size {
			return p.Price, true
		}
	}
	return 0, false
}
