package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/cart-engine/internal/domain"
)

// KeyValueStore is the persistence boundary for cart records.
// Consumers define this interface, not the backend implementations.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

var ErrNotFound = errors.New("record not found")

// RecordKey is the storage key of the cart owned by owner.
func RecordKey(owner domain.OwnerKey) string {
	return fmt.Sprintf("cart:%s", owner)
}
