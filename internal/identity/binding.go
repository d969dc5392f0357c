package identity

import (
	"context"
	"sync"

	"github.com/fjod/cart-engine/internal/domain"
	"go.uber.org/zap"
)

// Binder is the part of cart.Store the binding drives.
type Binder interface {
	Bind(ctx context.Context, owner domain.OwnerKey) error
}

// Binding keeps a cart store bound to the owner key of the provider's current identity.
// Carts are never merged: each owner key is its own partition.
type Binding struct {
	store    Binder
	provider Provider
	log      *zap.Logger

	mu          sync.Mutex
	ctx         context.Context
	bound       domain.OwnerKey
	started     bool
	unsubscribe func()
}

func NewBinding(store Binder, provider Provider, log *zap.Logger) *Binding {
	if log == nil {
		log = zap.NewNop()
	}
	return &Binding{store: store, provider: provider, log: log}
}

// Start binds the store to the current identity and follows later changes until Stop.
// ctx is used for every load triggered by a notification.
func (b *Binding) Start(ctx context.Context) {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return
	}
	b.started = true
	b.ctx = context.WithoutCancel(ctx)
	b.mu.Unlock()

	unsubscribe := b.provider.Subscribe(b.onIdentity)
	b.mu.Lock()
	b.unsubscribe = unsubscribe
	b.mu.Unlock()

	b.rebind(domain.OwnerKeyFor(b.provider.Current()), true)
}

func (b *Binding) Stop() {
	b.mu.Lock()
	unsubscribe := b.unsubscribe
	b.unsubscribe = nil
	b.started = false
	b.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// OwnerKey is the key the store was last bound to.
func (b *Binding) OwnerKey() domain.OwnerKey {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bound
}

func (b *Binding) IsAuthenticated() bool {
	return !b.OwnerKey().IsGuest()
}

func (b *Binding) onIdentity(id *domain.Identity) {
	b.rebind(domain.OwnerKeyFor(id), false)
}

func (b *Binding) rebind(owner domain.OwnerKey, force bool) {
	b.mu.Lock()
	if !force && owner == b.bound {
		b.mu.Unlock()
		return
	}
	b.bound = owner
	ctx := b.ctx
	b.mu.Unlock()

	if err := b.store.Bind(ctx, owner); err != nil {
		b.log.Warn("cart bound with load error", zap.String("owner", owner.String()), zap.Error(err))
		return
	}
	b.log.Info("cart owner switched", zap.String("owner", owner.String()))
}
