package catalog

import (
	"context"
	"sync"

	"github.com/fjod/cart-engine/internal/domain"
)

var ErrProductNotFound = domain.ErrProductNotFound

// Provider supplies the current record of a product.
type Provider interface {
	FetchProduct(ctx context.Context, id string) (domain.Product, error)
}

// MemoryCatalog is a fixed product list, used when no catalog URL is configured and in tests.
type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

func NewMemoryCatalog(products ...domain.Product) *MemoryCatalog {
	c := &MemoryCatalog{products: make(map[string]domain.Product, len(products))}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *MemoryCatalog) FetchProduct(_ context.Context, id string) (domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	if !ok {
		return domain.Product{}, ErrProductNotFound
	}
	return p, nil
}

// Put adds or replaces a product.
func (c *MemoryCatalog) Put(p domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
}

func (c *MemoryCatalog) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.products, id)
}
