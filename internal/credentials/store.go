// Package credentials keeps the citizen and administrator bearer tokens that the
// gateway client attaches to outgoing requests. Token acquisition and refresh happen
// elsewhere; this package only stores and reads them.
package credentials

import (
	"context"
	"fmt"
	"sync"
)

// Kind selects one of the two independent tokens.
type Kind string

const (
	Citizen Kind = "citizen_token"
	Admin   Kind = "admin_token"
)

func (k Kind) valid() bool {
	return k == Citizen || k == Admin
}

// Store persists tokens by kind. A missing token is reported as "" with a nil error.
type Store interface {
	Token(ctx context.Context, kind Kind) (string, error)
	SetToken(ctx context.Context, kind Kind, token string) error
	Clear(ctx context.Context, kind Kind) error
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[Kind]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[Kind]string)}
}

func (s *MemoryStore) Token(_ context.Context, kind Kind) (string, error) {
	if !kind.valid() {
		return "", fmt.Errorf("unknown credential kind %q", kind)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens[kind], nil
}

func (s *MemoryStore) SetToken(_ context.Context, kind Kind, token string) error {
	if !kind.valid() {
		return fmt.Errorf("unknown credential kind %q", kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" {
		delete(s.tokens, kind)
		return nil
	}
	s.tokens[kind] = token
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, kind Kind) error {
	return s.SetToken(ctx, kind, "")
}
