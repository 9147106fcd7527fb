package settings

import (
	"context"
	"sync"

	"github.com/hoppxi/luxflex/internal/dimmer"
)

// MemoryStore implements Store in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	state *dimmer.State
	saves int
	err   error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (*dimmer.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}
	if m.state == nil {
		return nil, nil
	}
	s := *m.state
	return &s, nil
}

func (m *MemoryStore) Save(ctx context.Context, s dimmer.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.state = &s
	m.saves++
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// Saves reports how many saves succeeded.
func (m *MemoryStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// Fail makes Load and Save return err until Fail(nil).
func (m *MemoryStore) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}
