package checkout_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/cucumber/godog"
	"github.com/fjod/cart-engine/internal/cart"
	"github.com/fjod/cart-engine/internal/checkout"
	"github.com/fjod/cart-engine/internal/domain"
	"github.com/fjod/cart-engine/internal/pricing"
	"github.com/fjod/cart-engine/internal/storage"
)

type collectingSink struct {
	m    sync.Mutex
	seen []domain.Confirmation
}

func (s *collectingSink) Publish(_ context.Context, c domain.Confirmation) error {
	s.m.Lock()
	defer s.m.Unlock()
	s.seen = append(s.seen, c)
	return nil
}

type checkoutTestContext struct {
	store        *cart.Store
	sink         *collectingSink
	controller   *checkout.Controller
	confirmation *domain.Confirmation
	err          error
}

func (c *checkoutTestContext) reset() {
	c.store = cart.NewStore(storage.NewMemoryStore(), nil)
	c.sink = &collectingSink{}
	c.controller = checkout.NewController(c.store, c.sink, pricing.DefaultRates, nil)
	c.confirmation = nil
	c.err = nil
}

func (c *checkoutTestContext) aGuestCart() error {
	return c.store.Bind(context.Background(), domain.GuestOwnerKey)
}

func (c *checkoutTestContext) aCartForIdentity(identifier string) error {
	owner := domain.OwnerKeyFor(&domain.Identity{Identifier: identifier, IsAuthenticated: true})
	return c.store.Bind(context.Background(), owner)
}

func (c *checkoutTestContext) itemsInTheCart(qty int, id string, price float64, stock int) error {
	return c.store.AddItem(context.Background(), domain.Product{ID: id, Name: id, Price: price, Stock: stock}, qty)
}

func (c *checkoutTestContext) iCheckOutByCard(method, number, holder, expiry, cvv string) error {
	c.confirmation, c.err = c.controller.Checkout(context.Background(), domain.PaymentAttempt{
		Method: domain.PaymentMethod(method),
		Fields: map[string]string{
			domain.FieldCardNumber: number,
			domain.FieldCardHolder: holder,
			domain.FieldExpiry:     expiry,
			domain.FieldCVV:        cvv,
		},
	})
	return nil
}

func (c *checkoutTestContext) iCheckOutByMobileTransfer(phone string) error {
	c.confirmation, c.err = c.controller.Checkout(context.Background(), domain.PaymentAttempt{
		Method: domain.PaymentMethodMobileTransfer,
		Fields: map[string]string{domain.FieldPhone: phone},
	})
	return nil
}

func (c *checkoutTestContext) iOpenCheckoutAndCancelIt() error {
	if err := c.controller.Open(); err != nil {
		return err
	}
	c.controller.Cancel()
	return nil
}

func (c *checkoutTestContext) theCheckoutIsAuthorized() error {
	if c.err != nil {
		return fmt.Errorf("expected authorization, got %v", c.err)
	}
	if c.confirmation == nil {
		return errors.New("expected a confirmation")
	}
	return nil
}

func (c *checkoutTestContext) theConfirmationShows(total string, points int) error {
	if c.confirmation == nil {
		return errors.New("no confirmation")
	}
	if got := pricing.FormatAmount(c.confirmation.FinalTotal); got != total {
		return fmt.Errorf("expected final total %s, got %s", total, got)
	}
	if c.confirmation.LoyaltyPoints != points {
		return fmt.Errorf("expected %d loyalty points, got %d", points, c.confirmation.LoyaltyPoints)
	}
	return nil
}

func (c *checkoutTestContext) theCheckoutIsRejectedOnField(field string) error {
	var ve *domain.ValidationError
	if !errors.As(c.err, &ve) {
		return fmt.Errorf("expected a validation error, got %v", c.err)
	}
	if ve.Field != field {
		return fmt.Errorf("expected field %q, got %q", field, ve.Field)
	}
	if status := c.controller.Status(); status != domain.CheckoutStatusRejected {
		return fmt.Errorf("expected status REJECTED, got %s", status)
	}
	return nil
}

func (c *checkoutTestContext) theCheckoutFailsBecauseTheCartIsEmpty() error {
	if !errors.Is(c.err, domain.ErrEmptyCart) {
		return fmt.Errorf("expected ErrEmptyCart, got %v", c.err)
	}
	return nil
}

func (c *checkoutTestContext) theCheckoutFailsForInsufficientStockOf(id string) error {
	var se *domain.StockError
	if !errors.As(c.err, &se) {
		return fmt.Errorf("expected a stock error, got %v", c.err)
	}
	for _, s := range se.Shortfalls {
		if s.ProductID == id {
			return nil
		}
	}
	return fmt.Errorf("no shortfall for %q in %v", id, se)
}

func (c *checkoutTestContext) theCheckoutStatusIs(status string) error {
	if got := c.controller.Status().String(); got != status {
		return fmt.Errorf("expected status %s, got %s", status, got)
	}
	return nil
}

func (c *checkoutTestContext) theCartIsEmpty() error {
	return c.theCartHoldsItems(0)
}

func (c *checkoutTestContext) theCartHoldsItems(n int) error {
	if got := c.store.TotalItems(); got != n {
		return fmt.Errorf("expected %d items in the cart, got %d", n, got)
	}
	return nil
}

func (c *checkoutTestContext) confirmationsWereEmitted(n int) error {
	c.sink.m.Lock()
	defer c.sink.m.Unlock()
	if len(c.sink.seen) != n {
		return fmt.Errorf("expected %d confirmations, got %d", n, len(c.sink.seen))
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &checkoutTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^a guest cart$`, tc.aGuestCart)
	ctx.Step(`^a cart for identity "([^"]*)"$`, tc.aCartForIdentity)
	ctx.Step(`^(\d+) of "([^"]*)" priced (\d+(?:\.\d+)?) with stock (\d+) in the cart$`, tc.itemsInTheCart)

	ctx.Step(`^I check out by "([^"]*)" with card "([^"]*)" holder "([^"]*)" expiry "([^"]*)" cvv "([^"]*)"$`, tc.iCheckOutByCard)
	ctx.Step(`^I check out by mobile transfer with phone "([^"]*)"$`, tc.iCheckOutByMobileTransfer)
	ctx.Step(`^I open checkout and cancel it$`, tc.iOpenCheckoutAndCancelIt)

	ctx.Step(`^the checkout is authorized$`, tc.theCheckoutIsAuthorized)
	ctx.Step(`^the confirmation shows final total "([^"]*)" and (\d+) loyalty points$`, tc.theConfirmationShows)
	ctx.Step(`^the checkout is rejected on field "([^"]*)"$`, tc.theCheckoutIsRejectedOnField)
	ctx.Step(`^the checkout fails because the cart is empty$`, tc.theCheckoutFailsBecauseTheCartIsEmpty)
	ctx.Step(`^the checkout fails for insufficient stock of "([^"]*)"$`, tc.theCheckoutFailsForInsufficientStockOf)
	ctx.Step(`^the checkout status is "([^"]*)"$`, tc.theCheckoutStatusIs)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
	ctx.Step(`^the cart holds (\d+) items$`, tc.theCartHoldsItems)
	ctx.Step(`^(\d+) confirmation was emitted$`, tc.confirmationsWereEmitted)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"testdata/checkout.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
