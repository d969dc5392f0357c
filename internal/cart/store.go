package cart

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/cart-engine/internal/domain"
	"github.com/fjod/cart-engine/internal/storage"
	"go.uber.org/zap"
)

// Listener receives a copy of the cart after every change.
type Listener func(domain.Cart)

// ProductFetcher supplies fresh product snapshots.
type ProductFetcher interface {
	FetchProduct(ctx context.Context, id string) (domain.Product, error)
}

type subscription struct {
	id       int
	listener Listener
}

// Store owns the lines of the cart bound to one owner key and is the only writer of that key's record.
// It is not safe for concurrent use; callers serialise access.
type Store struct {
	kv    storage.KeyValueStore
	log   *zap.Logger
	now   func() time.Time
	owner domain.OwnerKey
	lines []domain.CartLine

	subs   []subscription
	nextID int
}

// NewStore returns an empty store bound to the guest key. Nothing is loaded until Bind.
func NewStore(kv storage.KeyValueStore, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		kv:    kv,
		log:   log,
		now:   time.Now,
		owner: domain.GuestOwnerKey,
	}
}

func (s *Store) OwnerKey() domain.OwnerKey {
	return s.owner
}

// Bind discards the in-memory cart and loads the one stored for owner. A record that cannot be
// decoded is purged. Whatever happens the store ends up bound to owner; the returned error is
// informational.
func (s *Store) Bind(ctx context.Context, owner domain.OwnerKey) error {
	s.owner = owner
	s.lines = nil

	key := storage.RecordKey(owner)
	var loadErr error

	data, err := s.kv.Get(ctx, key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		loadErr = &domain.PersistenceError{Op: "read", Key: key, Err: err}
		s.log.Error("cart load failed, starting empty", zap.String("key", key), zap.Error(err))
	default:
		lines, decodeErr := decodeRecord(data)
		if decodeErr != nil {
			loadErr = &domain.PersistenceError{Op: "decode", Key: key, Err: decodeErr}
			s.log.Warn("corrupt cart record purged", zap.String("key", key), zap.Error(decodeErr))
			if errDelete := s.kv.Delete(ctx, key); errDelete != nil {
				s.log.Error("purge corrupt cart failed", zap.String("key", key), zap.Error(errDelete))
			}
		} else {
			s.lines = lines
		}
	}

	s.log.Debug("cart bound", zap.String("owner", owner.String()), zap.Int("lines", len(s.lines)))
	s.notify()
	return loadErr
}

// AddItem increments the line for product or appends a new one. quantity <= 0 is ignored.
func (s *Store) AddItem(ctx context.Context, product domain.Product, quantity int) error {
	if quantity <= 0 {
		return nil
	}

	lines := domain.CloneLines(s.lines)
	if i := indexOf(lines, product.ID); i >= 0 {
		lines[i].Quantity += quantity
	} else {
		lines = append(lines, domain.CartLine{Product: product, Quantity: quantity})
	}
	return s.commit(ctx, lines)
}

// RemoveItem deletes the line for productID if there is one.
func (s *Store) RemoveItem(ctx context.Context, productID string) error {
	i := indexOf(s.lines, productID)
	if i < 0 {
		return nil
	}

	lines := make([]domain.CartLine, 0, len(s.lines)-1)
	lines = append(lines, s.lines[:i]...)
	lines = append(lines, s.lines[i+1:]...)
	return s.commit(ctx, lines)
}

// SetQuantity replaces the quantity of an existing line verbatim; quantity <= 0 removes it.
func (s *Store) SetQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, productID)
	}
	i := indexOf(s.lines, productID)
	if i < 0 {
		return nil
	}

	lines := domain.CloneLines(s.lines)
	lines[i].Quantity = quantity
	return s.commit(ctx, lines)
}

// Clear empties the cart and erases its stored record.
func (s *Store) Clear(ctx context.Context) error {
	s.lines = nil
	s.notify()

	key := storage.RecordKey(s.owner)
	if err := s.kv.Delete(ctx, key); err != nil {
		s.log.Error("cart delete failed", zap.String("key", key), zap.Error(err))
		return &domain.PersistenceError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// RefreshSnapshots replaces each line's product snapshot with the catalog's current record.
// Products the catalog no longer knows keep their old snapshot.
func (s *Store) RefreshSnapshots(ctx context.Context, catalog ProductFetcher) error {
	lines := domain.CloneLines(s.lines)
	changed := false
	for i, l := range lines {
		product, err := catalog.FetchProduct(ctx, l.Product.ID)
		if errors.Is(err, domain.ErrProductNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if product != l.Product {
			lines[i].Product = product
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.commit(ctx, lines)
}

// CurrentLines returns a copy of the cart lines.
func (s *Store) CurrentLines() []domain.CartLine {
	return domain.CloneLines(s.lines)
}

func (s *Store) Snapshot() domain.Cart {
	return domain.Cart{OwnerKey: s.owner, Lines: s.CurrentLines()}
}

// Line returns the line for productID, if the cart holds one.
func (s *Store) Line(productID string) (domain.CartLine, bool) {
	if i := indexOf(s.lines, productID); i >= 0 {
		return s.lines[i], true
	}
	return domain.CartLine{}, false
}

func (s *Store) TotalItems() int {
	total := 0
	for _, l := range s.lines {
		total += l.Quantity
	}
	return total
}

// Subscribe registers listener; it is called synchronously, in registration order, after every change.
// The returned func unsubscribes and may be called more than once.
func (s *Store) Subscribe(listener Listener) func() {
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, listener: listener})

	return func() {
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// commit installs lines, notifies listeners and overwrites the active record. A failed write
// leaves the in-memory cart updated.
func (s *Store) commit(ctx context.Context, lines []domain.CartLine) error {
	s.lines = lines
	s.notify()

	key := storage.RecordKey(s.owner)
	data, err := encodeRecord(s.owner, s.lines, s.now())
	if err == nil {
		err = s.kv.Set(ctx, key, data)
	}
	if err != nil {
		s.log.Error("cart save failed", zap.String("key", key), zap.Error(err))
		return &domain.PersistenceError{Op: "write", Key: key, Err: err}
	}
	return nil
}

func (s *Store) notify() {
	subs := append([]subscription(nil), s.subs...)
	for _, sub := range subs {
		sub.listener(s.Snapshot())
	}
}

func indexOf(lines []domain.CartLine, productID string) int {
	for i, l := range lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}
