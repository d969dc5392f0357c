package checkout

import (
	"testing"

	"github.com/fjod/cart-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_OpenEmptyCart(t *testing.T) {
	v := NewValidator()
	assert.ErrorIs(t, v.Open(0), domain.ErrEmptyCart)
	assert.Equal(t, domain.CheckoutStatusIdle, v.Status())
}

func TestValidator_Authorize(t *testing.T) {
	v := NewValidator()
	require.NoError(t, v.Open(1))
	assert.Equal(t, domain.CheckoutStatusCollectingPayment, v.Status())
	require.NoError(t, v.Open(1), "re-opening an open flow is a no-op")

	status, err := v.Submit(validCard(domain.PaymentMethodCreditCard))
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusAuthorized, status)

	attempt, ok := v.Attempt()
	require.True(t, ok)
	assert.Equal(t, domain.PaymentMethodCreditCard, attempt.Method)
}

func TestValidator_AttemptIsCanonical(t *testing.T) {
	v := NewValidator()
	require.NoError(t, v.Open(1))

	submitted := validCard(domain.PaymentMethodCreditCard)
	submitted.Fields[domain.FieldCardNumber] = "4111111111111111"
	submitted.Fields[domain.FieldExpiry] = "12-27"
	_, err := v.Submit(submitted)
	require.NoError(t, err)

	attempt, ok := v.Attempt()
	require.True(t, ok)
	assert.Equal(t, "4111 1111 1111 1111", attempt.Field(domain.FieldCardNumber))
	assert.Equal(t, "12/27", attempt.Field(domain.FieldExpiry))
	assert.Equal(t, "4111111111111111", submitted.Fields[domain.FieldCardNumber])
}

func TestValidator_RejectThenRetry(t *testing.T) {
	v := NewValidator()
	require.NoError(t, v.Open(2))

	status, err := v.Submit(mobile("123"))
	require.Error(t, err)
	assert.Equal(t, domain.CheckoutStatusRejected, status)
	assert.Equal(t, err, v.LastError())
	_, ok := v.Attempt()
	assert.False(t, ok)

	status, err = v.Submit(mobile("612345678"))
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusAuthorized, status)
	assert.NoError(t, v.LastError())
}

func TestValidator_SubmitWithoutOpen(t *testing.T) {
	v := NewValidator()
	status, err := v.Submit(validCard(domain.PaymentMethodCreditCard))
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	assert.Equal(t, domain.CheckoutStatusIdle, status)
}

func TestValidator_SubmitAfterAuthorized(t *testing.T) {
	v := NewValidator()
	require.NoError(t, v.Open(1))
	_, err := v.Submit(validCard(domain.PaymentMethodCreditCard))
	require.NoError(t, err)

	_, err = v.Submit(validCard(domain.PaymentMethodCreditCard))
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	assert.ErrorIs(t, v.Open(1), domain.ErrIllegalTransition)
}

func TestValidator_CancelFromAnyState(t *testing.T) {
	v := NewValidator()
	v.Cancel()
	assert.Equal(t, domain.CheckoutStatusIdle, v.Status())

	require.NoError(t, v.Open(1))
	v.Cancel()
	assert.Equal(t, domain.CheckoutStatusIdle, v.Status())

	require.NoError(t, v.Open(1))
	_, _ = v.Submit(mobile("1"))
	v.Cancel()
	assert.Equal(t, domain.CheckoutStatusIdle, v.Status())
	assert.NoError(t, v.LastError())

	require.NoError(t, v.Open(1))
	_, _ = v.Submit(mobile("612345678"))
	v.Cancel()
	_, ok := v.Attempt()
	assert.False(t, ok)
}
