package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hoppxi/luxflex/internal/dimmer"
)

// FileStore keeps the state in a small YAML file.
type FileStore struct {
	path string
}

type fileState struct {
	Brightness     int       `yaml:"brightness"`
	OverlayAlpha   int       `yaml:"overlay_alpha"`
	OverlayEnabled *bool     `yaml:"overlay_enabled,omitempty"`
	SavedAt        time.Time `yaml:"saved_at"`
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Load(ctx context.Context) (*dimmer.State, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	var fs fileState
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return nil, fmt.Errorf("failed to parse state %s: %w", f.path, err)
	}

	s := dimmer.State{
		Brightness:     fs.Brightness,
		OverlayAlpha:   fs.OverlayAlpha,
		OverlayEnabled: true,
	}
	if fs.OverlayEnabled != nil {
		s.OverlayEnabled = *fs.OverlayEnabled
	}
	return &s, nil
}

// Save writes to a temp file and renames it so a crash never leaves a
// truncated state file behind.
func (f *FileStore) Save(ctx context.Context, s dimmer.State) error {
	enabled := s.OverlayEnabled
	data, err := yaml.Marshal(fileState{
		Brightness:     s.Brightness,
		OverlayAlpha:   s.OverlayAlpha,
		OverlayEnabled: &enabled,
		SavedAt:        time.Now().UTC().Truncate(time.Second),
	})
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".state-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close state: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace state: %w", err)
	}
	return nil
}

func (f *FileStore) Close() error { return nil }
