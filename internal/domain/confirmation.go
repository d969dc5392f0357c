package domain

import "time"

// Confirmation is emitted once per authorized checkout, before the cart is cleared.
type Confirmation struct {
	ID              string        `json:"id"`
	OwnerKey        OwnerKey      `json:"owner_key"`
	Method          PaymentMethod `json:"method"`
	MaskedReference string        `json:"masked_reference"`
	Subtotal        float64       `json:"subtotal"`
	Discount        float64       `json:"discount"`
	FinalTotal      float64       `json:"final_total"`
	LoyaltyPoints   int           `json:"loyalty_points"`
	Lines           []CartLine    `json:"lines"`
	ConfirmedAt     time.Time     `json:"confirmed_at"`
}
