package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/cart-engine/internal/domain"
	"github.com/fjod/cart-engine/internal/pricing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartStore is the part of cart.Store checkout needs.
type CartStore interface {
	CurrentLines() []domain.CartLine
	OwnerKey() domain.OwnerKey
	Clear(ctx context.Context) error
}

// ConfirmationSink receives one record per authorized checkout.
type ConfirmationSink interface {
	Publish(ctx context.Context, confirmation domain.Confirmation) error
}

type Controller struct {
	store     CartStore
	validator *Validator
	sink      ConfirmationSink
	rates     pricing.Rates
	log       *zap.Logger
	now       func() time.Time
}

func NewController(store CartStore, sink ConfirmationSink, rates pricing.Rates, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		store:     store,
		validator: NewValidator(),
		sink:      sink,
		rates:     rates,
		log:       log,
		now:       time.Now,
	}
}

func (c *Controller) Status() domain.CheckoutStatus {
	return c.validator.Status()
}

// LastError is the validation failure behind a Rejected status.
func (c *Controller) LastError() error {
	return c.validator.LastError()
}

// Open enters payment collection. An empty cart or a line above its stock keeps the flow closed.
func (c *Controller) Open() error {
	lines := c.store.CurrentLines()
	if len(lines) == 0 {
		return domain.ErrEmptyCart
	}
	if err := domain.CheckStock(lines); err != nil {
		return err
	}
	return c.validator.Open(len(lines))
}

// Submit validates attempt in the open flow and finalizes the checkout when it is authorized.
func (c *Controller) Submit(ctx context.Context, attempt domain.PaymentAttempt) (*domain.Confirmation, error) {
	lines := c.store.CurrentLines()
	if len(lines) == 0 {
		c.validator.Cancel()
		return nil, domain.ErrEmptyCart
	}
	if err := domain.CheckStock(lines); err != nil {
		return nil, err
	}

	status, err := c.validator.Submit(attempt)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			c.log.Info("payment rejected",
				zap.String("owner", c.store.OwnerKey().String()),
				zap.String("method", ve.Method.String()),
				zap.String("field", ve.Field))
		}
		return nil, err
	}
	authorized, ok := c.validator.Attempt()
	if status != domain.CheckoutStatusAuthorized || !ok {
		return nil, domain.ErrIllegalTransition
	}
	return c.finalize(ctx, lines, authorized), nil
}

// Cancel abandons the flow. The cart is left untouched.
func (c *Controller) Cancel() {
	c.validator.Cancel()
}

// Checkout runs the whole flow for one attempt: empty check, open, validate, finalize.
func (c *Controller) Checkout(ctx context.Context, attempt domain.PaymentAttempt) (*domain.Confirmation, error) {
	if len(c.store.CurrentLines()) == 0 {
		return nil, domain.ErrEmptyCart
	}
	if c.validator.Status() == domain.CheckoutStatusIdle {
		if err := c.Open(); err != nil {
			return nil, err
		}
	}
	return c.Submit(ctx, attempt)
}

// finalize prices the cart, emits the confirmation and only then clears the cart.
func (c *Controller) finalize(ctx context.Context, lines []domain.CartLine, attempt domain.PaymentAttempt) *domain.Confirmation {
	owner := c.store.OwnerKey()
	totals := pricing.ComputeTotals(lines, !owner.IsGuest(), c.rates)

	confirmation := domain.Confirmation{
		ID:              uuid.NewString(),
		OwnerKey:        owner,
		Method:          attempt.Method,
		MaskedReference: maskedReference(attempt),
		Subtotal:        totals.Subtotal,
		Discount:        totals.Discount,
		FinalTotal:      totals.FinalTotal,
		LoyaltyPoints:   totals.LoyaltyPoints,
		Lines:           lines,
		ConfirmedAt:     c.now().UTC(),
	}

	if c.sink != nil {
		if err := c.sink.Publish(ctx, confirmation); err != nil {
			c.log.Error("publish confirmation failed", zap.String("confirmation_id", confirmation.ID), zap.Error(err))
		}
	}

	if err := c.store.Clear(ctx); err != nil {
		c.log.Error("clear cart after checkout failed", zap.String("owner", owner.String()), zap.Error(err))
	}
	c.validator.Cancel()

	c.log.Info("checkout confirmed",
		zap.String("confirmation_id", confirmation.ID),
		zap.String("owner", owner.String()),
		zap.String("method", attempt.Method.String()),
		zap.String("final_total", pricing.FormatAmount(confirmation.FinalTotal)),
		zap.Int("loyalty_points", confirmation.LoyaltyPoints))
	return &confirmation
}

func maskedReference(attempt domain.PaymentAttempt) string {
	if attempt.Method.IsCard() {
		return MaskCardNumber(attempt.Field(domain.FieldCardNumber))
	}
	return attempt.Field(domain.FieldPhone)
}
