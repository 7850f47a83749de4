package cart

import (
	"strconv"

	"kirana-pos/internal/models"

	"gorm.io/gorm"
)

// Cart is the per-session product_id -> quantity map. Keys are decimal
// strings because the cart lives inside the cookie session (gob-encoded)
// and survives nothing beyond the session itself.
type Cart map[string]int

func key(productID uint) string {
	return strconv.FormatUint(uint64(productID), 10)
}

// Add accumulates qty onto an existing line (or starts one). qty below 1
// is treated as 1.
func (c Cart) Add(productID uint, qty int) {
	if qty < 1 {
		qty = 1
	}
	c[key(productID)] += qty
}

// Set pins a line to an exact quantity; qty <= 0 removes the line.
func (c Cart) Set(productID uint, qty int) {
	if qty <= 0 {
		delete(c, key(productID))
		return
	}
	c[key(productID)] = qty
}

// Remove drops a line.
func (c Cart) Remove(productID uint) {
	delete(c, key(productID))
}

// ProductIDs lists the ids currently in the cart.
func (c Cart) ProductIDs() []uint {
	ids := make([]uint, 0, len(c))
	for k := range c {
		id, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids
}

// Quantity returns the quantity for a product id string key.
func (c Cart) Quantity(productID uint) int {
	return c[key(productID)]
}

// Line is one cart row joined against the live catalog.
type Line struct {
	Product   models.Product `json:"product"`
	Quantity  int            `json:"quantity"`
	UnitPrice float64        `json:"unit_price"` // price - discount
	Discount  float64        `json:"discount"`
	Subtotal  float64        `json:"subtotal"`
}

// Summary is the cart priced against the catalog as it is right now.
type Summary struct {
	Lines []Line  `json:"lines"`
	Total float64 `json:"total"`
}

// Summarize joins the cart against live Product rows. Lines whose product
// no longer exists are silently dropped - the shelf wins.
func Summarize(db *gorm.DB, c Cart) (*Summary, error) {
	summary := &Summary{Lines: []Line{}}
	ids := c.ProductIDs()
	if len(ids) == 0 {
		return summary, nil
	}

	var products []models.Product
	if err := db.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}

	for _, p := range products {
		qty := c.Quantity(p.ID)
		if qty <= 0 {
			continue
		}
		unit := p.SellingPrice()
		line := Line{
			Product:   p,
			Quantity:  qty,
			UnitPrice: unit,
			Discount:  p.DiscountPrice,
			Subtotal:  unit * float64(qty),
		}
		summary.Lines = append(summary.Lines, line)
		summary.Total += line.Subtotal
	}
	return summary, nil
}
