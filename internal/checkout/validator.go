package checkout

import (
	"github.com/fjod/cart-engine/internal/domain"
)

// Validator is the checkout state machine: Idle -> CollectingPayment -> Validating -> Authorized|Rejected.
// It holds only the in-flight attempt and never touches the cart.
type Validator struct {
	status  domain.CheckoutStatus
	attempt *domain.PaymentAttempt
	lastErr error
}

func NewValidator() *Validator {
	return &Validator{status: domain.CheckoutStatusIdle}
}

func (v *Validator) Status() domain.CheckoutStatus {
	return v.status
}

// LastError is the validation error of the most recent rejection, if any.
func (v *Validator) LastError() error {
	return v.lastErr
}

// Open starts collecting payment details. Opening an already open flow is a no-op.
func (v *Validator) Open(lineCount int) error {
	if lineCount == 0 {
		return domain.ErrEmptyCart
	}
	if v.status == domain.CheckoutStatusCollectingPayment {
		return nil
	}
	if !domain.CanTransitionTo(v.status, domain.CheckoutStatusCollectingPayment) {
		return domain.ErrIllegalTransition
	}
	v.status = domain.CheckoutStatusCollectingPayment
	v.lastErr = nil
	return nil
}

// Submit validates attempt and returns the verdict. A rejected flow may be submitted again.
func (v *Validator) Submit(attempt domain.PaymentAttempt) (domain.CheckoutStatus, error) {
	if !domain.CanTransitionTo(v.status, domain.CheckoutStatusValidating) {
		return v.status, domain.ErrIllegalTransition
	}
	v.status = domain.CheckoutStatusValidating
	v.attempt = &attempt

	if err := ValidateAttempt(attempt); err != nil {
		v.status = domain.CheckoutStatusRejected
		v.attempt = nil
		v.lastErr = err
		return v.status, err
	}

	normalized := normalizeAttempt(attempt)
	v.attempt = &normalized
	v.status = domain.CheckoutStatusAuthorized
	v.lastErr = nil
	return v.status, nil
}

// Attempt returns the authorized attempt with its fields in canonical form.
func (v *Validator) Attempt() (domain.PaymentAttempt, bool) {
	if v.status != domain.CheckoutStatusAuthorized || v.attempt == nil {
		return domain.PaymentAttempt{}, false
	}
	return *v.attempt, true
}

// Cancel returns to Idle from any state and drops the in-flight attempt.
func (v *Validator) Cancel() {
	v.status = domain.CheckoutStatusIdle
	v.attempt = nil
	v.lastErr = nil
}
