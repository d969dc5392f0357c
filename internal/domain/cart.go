package domain

type CartLine struct {
	Product  Product `json:"product" bson:"product"`
	Quantity int     `json:"quantity" bson:"quantity"`
}

// Subtotal is price times quantity for this line.
func (l CartLine) Subtotal() float64 {
	return l.Product.Price * float64(l.Quantity)
}

type Cart struct {
	OwnerKey OwnerKey   `json:"owner_key" bson:"owner_key"`
	Lines    []CartLine `json:"lines" bson:"lines"`
}

// CloneLines returns a deep copy of lines. A nil input yields an empty, non-nil slice.
func CloneLines(lines []CartLine) []CartLine {
	out := make([]CartLine, len(lines))
	copy(out, lines)
	return out
}
