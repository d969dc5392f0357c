package domain

// PricingResult is derived from cart lines on demand and never persisted.
type PricingResult struct {
	Subtotal      float64 `json:"subtotal"`
	Discount      float64 `json:"discount"`
	FinalTotal    float64 `json:"final_total"`
	LoyaltyPoints int     `json:"loyalty_points"`
	ItemCount     int     `json:"item_count"`
}
