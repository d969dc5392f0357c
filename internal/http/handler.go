package http

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/cart-engine/internal/cart"
	"github.com/fjod/cart-engine/internal/catalog"
	"github.com/fjod/cart-engine/internal/domain"
	"github.com/fjod/cart-engine/internal/pricing"
	"go.uber.org/zap"
)

type CartStore interface {
	AddItem(ctx context.Context, product domain.Product, quantity int) error
	RemoveItem(ctx context.Context, productID string) error
	SetQuantity(ctx context.Context, productID string, quantity int) error
	Clear(ctx context.Context) error
	RefreshSnapshots(ctx context.Context, catalog cart.ProductFetcher) error
	Snapshot() domain.Cart
	Line(productID string) (domain.CartLine, bool)
	TotalItems() int
}

type CheckoutFlow interface {
	Status() domain.CheckoutStatus
	LastError() error
	Open() error
	Submit(ctx context.Context, attempt domain.PaymentAttempt) (*domain.Confirmation, error)
	Cancel()
	Checkout(ctx context.Context, attempt domain.PaymentAttempt) (*domain.Confirmation, error)
}

type Sessions interface {
	Login(identifier string)
	Logout()
}

type Deps struct {
	Cart        CartStore
	Checkout    CheckoutFlow
	Sessions    Sessions
	Catalog     catalog.Provider
	Rates       pricing.Rates
	JWTSecret   []byte
	Timeout     time.Duration
	MaxBodySize int64
	Log         *zap.Logger
}

// Handler exposes the cart engine over HTTP. The engine is single-writer, so every call into it
// runs under mu.
type Handler struct {
	mu          sync.Mutex
	cart        CartStore
	checkout    CheckoutFlow
	sessions    Sessions
	catalog     catalog.Provider
	rates       pricing.Rates
	jwtSecret   []byte
	timeout     time.Duration
	maxBodySize int64
	log         *zap.Logger
}

func NewHandler(d Deps) *Handler {
	if d.Timeout <= 0 {
		d.Timeout = 30 * time.Second
	}
	if d.MaxBodySize <= 0 {
		d.MaxBodySize = 1 << 20
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &Handler{
		cart:        d.Cart,
		checkout:    d.Checkout,
		sessions:    d.Sessions,
		catalog:     d.Catalog,
		rates:       d.Rates,
		jwtSecret:   d.JWTSecret,
		timeout:     d.Timeout,
		maxBodySize: d.MaxBodySize,
		log:         d.Log,
	}
}
