package store

import (
	"context"
	"sync"
)

type inMemory struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewMemoryStore creates a process-local token store.
func NewMemoryStore() TokenStore {
	return &inMemory{}
}

func (m *inMemory) Token(_ context.Context, server string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.tokens == nil {
		return "", nil
	}
	return m.tokens[server], nil
}

func (m *inMemory) SetToken(_ context.Context, server, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		// create on first use
		m.tokens = make(map[string]string)
	}
	m.tokens[server] = token
	return nil
}

func (m *inMemory) DeleteToken(_ context.Context, server string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens != nil {
		delete(m.tokens, server)
	}
	return nil
}
