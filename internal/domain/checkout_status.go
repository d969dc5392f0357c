package domain

type CheckoutStatus string

const (
	CheckoutStatusIdle              CheckoutStatus = "IDLE"
	CheckoutStatusCollectingPayment CheckoutStatus = "COLLECTING_PAYMENT"
	CheckoutStatusValidating        CheckoutStatus = "VALIDATING"
	CheckoutStatusAuthorized        CheckoutStatus = "AUTHORIZED"
	CheckoutStatusRejected          CheckoutStatus = "REJECTED"
)

var checkoutTransitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusIdle:              {CheckoutStatusCollectingPayment},
	CheckoutStatusCollectingPayment: {CheckoutStatusValidating, CheckoutStatusIdle},
	CheckoutStatusValidating:        {CheckoutStatusAuthorized, CheckoutStatusRejected, CheckoutStatusIdle},
	CheckoutStatusAuthorized:        {CheckoutStatusIdle},
	CheckoutStatusRejected:          {CheckoutStatusValidating, CheckoutStatusIdle},
}

// CanTransitionTo reports whether the checkout flow may move from `from` to `to`.
func CanTransitionTo(from, to CheckoutStatus) bool {
	for _, next := range checkoutTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a submitted attempt has reached a verdict.
func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusAuthorized || s == CheckoutStatusRejected
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}
