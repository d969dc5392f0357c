package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CachedStore reads through cache before primary and invalidates cache on every write.
// A fill that raced with a write is dropped, so the cache never serves a value older than primary.
type CachedStore struct {
	primary KeyValueStore
	cache   KeyValueStore
	log     *zap.Logger
	sfg     singleflight.Group // Prevents cache stampede

	mu          sync.Mutex
	generations map[string]uint64 // bumped by every write to the key
	fills       sync.WaitGroup
}

func NewCachedStore(primary, cache KeyValueStore, log *zap.Logger) *CachedStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedStore{
		primary:     primary,
		cache:       cache,
		log:         log,
		generations: map[string]uint64{},
	}
}

func (s *CachedStore) Get(ctx context.Context, key string) ([]byte, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		value, err := s.cache.Get(ctx, key)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, ErrNotFound) {
			s.log.Warn("cache get error", zap.String("key", key), zap.Error(err))
		}

		gen := s.generation(key)
		value, err = s.primary.Get(ctx, key)
		if err != nil {
			return nil, err
		}

		s.fills.Add(1)
		go func() {
			defer s.fills.Done()
			s.fill(key, value, gen)
		}()
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (s *CachedStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.primary.Set(ctx, key, value); err != nil {
		return err
	}
	s.invalidate(key)
	return nil
}

func (s *CachedStore) Delete(ctx context.Context, key string) error {
	if err := s.primary.Delete(ctx, key); err != nil {
		return err
	}
	s.invalidate(key)
	return nil
}

// Wait blocks until pending cache fills finish.
func (s *CachedStore) Wait() {
	s.fills.Wait()
}

func (s *CachedStore) generation(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[key]
}

// fill writes value read at generation gen into the cache. If a write bumped the generation
// before or during the cache write, the filled entry is removed again.
func (s *CachedStore) fill(key string, value []byte, gen uint64) {
	if s.generation(key) != gen {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.log.Warn("cache set error", zap.String("key", key), zap.Error(err))
		return
	}
	if s.generation(key) != gen {
		s.evict(ctx, key)
	}
}

func (s *CachedStore) invalidate(key string) {
	s.mu.Lock()
	s.generations[key]++
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.evict(ctx, key)
}

func (s *CachedStore) evict(ctx context.Context, key string) {
	if err := s.cache.Delete(ctx, key); err != nil {
		s.log.Warn("cache invalidate error", zap.String("key", key), zap.Error(err))
	}
}
