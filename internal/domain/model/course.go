package model

import "github.com/shopspring/decimal"

// Course is the catalog entry an order is placed against.
type Course struct {
	ID            int64
	InstructorID  int64
	Title         string
	Published     bool
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	Currency      string
}

// EffectivePrice returns the discount price when set and positive, otherwise the list price.
func (c *Course) EffectivePrice() decimal.Decimal {
	if c.DiscountPrice != nil && c.DiscountPrice.IsPositive() {
		return *c.DiscountPrice
	}
	return c.Price
}
