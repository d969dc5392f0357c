package identity

import (
	"sync"

	"github.com/fjod/cart-engine/internal/domain"
)

// Listener receives the new identity, or nil after logout.
type Listener func(*domain.Identity)

// Provider is the source of authentication changes.
type Provider interface {
	Current() *domain.Identity
	Subscribe(listener Listener) func()
}

type subscription struct {
	id       int
	listener Listener
}

// Session is an in-process Provider driven by explicit Login and Logout calls.
// Listeners run synchronously on the caller's goroutine, after the session lock is released.
type Session struct {
	mu      sync.Mutex
	current *domain.Identity
	subs    []subscription
	nextID  int
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) Current() *domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	id := *s.current
	return &id
}

func (s *Session) Subscribe(listener Listener) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, listener: listener})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Login makes identifier the authenticated identity and notifies listeners.
func (s *Session) Login(identifier string) {
	s.set(&domain.Identity{Identifier: identifier, IsAuthenticated: true})
}

// Logout clears the identity and notifies listeners with nil.
func (s *Session) Logout() {
	s.set(nil)
}

func (s *Session) set(id *domain.Identity) {
	s.mu.Lock()
	s.current = id
	subs := append([]subscription(nil), s.subs...)
	s.mu.Unlock()

	for _, sub := range subs {
		if id == nil {
			sub.listener(nil)
			continue
		}
		cp := *id
		sub.listener(&cp)
	}
}
