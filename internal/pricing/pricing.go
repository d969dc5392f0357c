// Package pricing derives totals, member discount and loyalty points from cart lines.
package pricing

import (
	"math"

	"github.com/fjod/cart-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// Rates are the member benefits applied to authenticated identities.
type Rates struct {
	DiscountPercent float64 `yaml:"discount_percent"`
	PointsPerUnit   float64 `yaml:"points_per_unit"`
}

// DefaultRates: 10% off and 5 points per currency unit.
var DefaultRates = Rates{
	DiscountPercent: 10,
	PointsPerUnit:   5,
}

// DiscountRate is DiscountPercent as a fraction.
func (r Rates) DiscountRate() float64 {
	return r.DiscountPercent / 100
}

// ComputeTotals is pure. Guests get no discount and no points. Points are floored from the
// unrounded final total.
func ComputeTotals(lines []domain.CartLine, authenticated bool, rates Rates) domain.PricingResult {
	var result domain.PricingResult
	for _, l := range lines {
		result.Subtotal += l.Subtotal()
		result.ItemCount += l.Quantity
	}

	result.FinalTotal = result.Subtotal
	if authenticated {
		// multiply before dividing: 30*10/100 is exactly 3, 30*0.1 is not
		result.Discount = result.Subtotal * rates.DiscountPercent / 100
		result.FinalTotal = result.Subtotal - result.Discount
		result.LoyaltyPoints = int(math.Floor(result.FinalTotal * rates.PointsPerUnit))
	}
	return result
}

// FormatAmount renders a monetary amount with two decimals, rounding half away from zero.
func FormatAmount(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}

// Presented is a PricingResult rendered for display.
type Presented struct {
	Subtotal      string `json:"subtotal"`
	Discount      string `json:"discount"`
	FinalTotal    string `json:"final_total"`
	LoyaltyPoints int    `json:"loyalty_points"`
	ItemCount     int    `json:"item_count"`
}

func Present(r domain.PricingResult) Presented {
	return Presented{
		Subtotal:      FormatAmount(r.Subtotal),
		Discount:      FormatAmount(r.Discount),
		FinalTotal:    FormatAmount(r.FinalTotal),
		LoyaltyPoints: r.LoyaltyPoints,
		ItemCount:     r.ItemCount,
	}
}
