package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrIllegalTransition = errors.New("illegal transition of checkout status")
	ErrProductNotFound   = errors.New("product not found")
)

// ValidationError reports the first payment field that failed validation.
type ValidationError struct {
	Method PaymentMethod
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("payment %s rejected: %s", e.Method, e.Reason)
	}
	return fmt.Sprintf("payment %s rejected: %s %s", e.Method, e.Field, e.Reason)
}

// PersistenceError wraps a failed read, write or decode of a stored cart record.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("cart persistence %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

type StockShortfall struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// StockError lists lines whose quantity exceeds the snapshot stock.
type StockError struct {
	Shortfalls []StockShortfall
}

func (e *StockError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("%s (requested %d, available %d)", s.ProductID, s.Requested, s.Available))
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

// CheckStock returns a *StockError when any line asks for more than its snapshot stock.
func CheckStock(lines []CartLine) error {
	var shortfalls []StockShortfall
	for _, l := range lines {
		if l.Quantity > l.Product.Stock {
			shortfalls = append(shortfalls, StockShortfall{
				ProductID: l.Product.ID,
				Requested: l.Quantity,
				Available: l.Product.Stock,
			})
		}
	}
	if len(shortfalls) == 0 {
		return nil
	}
	return &StockError{Shortfalls: shortfalls}
}
