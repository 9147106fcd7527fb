// Package settings persists the last applied dimmer state.
package settings

import (
	"context"
	"fmt"

	"github.com/hoppxi/luxflex/internal/dimmer"
)

// Store loads and saves the dimmer state.
type Store interface {
	// Load returns nil, nil when nothing has been saved yet.
	Load(ctx context.Context) (*dimmer.State, error)
	Save(ctx context.Context, s dimmer.State) error
	Close() error
}

// Open builds the store named by kind ("yaml", "sqlite" or "memory").
func Open(kind, path string) (Store, error) {
	switch kind {
	case "yaml", "file", "":
		return NewFileStore(path), nil
	case "sqlite":
		return NewSQLiteStore(path)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store type %q", kind)
	}
}
