package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoppxi/luxflex/internal/dimmer"
)

func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()

	sq, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })

	return map[string]Store{
		"yaml":   NewFileStore(filepath.Join(t.TempDir(), "nested", "state.yaml")),
		"sqlite": sq,
		"memory": NewMemoryStore(),
	}
}

func TestStore_LoadEmpty(t *testing.T) {
	for name, s := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			got, err := s.Load(context.Background())
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestStore_SaveLoadLatest(t *testing.T) {
	ctx := context.Background()
	for name, s := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Save(ctx, dimmer.State{Brightness: 80, OverlayEnabled: true}))
			require.NoError(t, s.Save(ctx, dimmer.State{Brightness: 5, OverlayAlpha: 128, OverlayEnabled: false}))

			got, err := s.Load(ctx)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, 5, got.Brightness)
			assert.Equal(t, 128, got.OverlayAlpha)
			assert.False(t, got.OverlayEnabled)
		})
	}
}

func TestFileStore_MissingEnabledDefaultsTrue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte("brightness: 30\n"), 0o644))

	got, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 30, got.Brightness)
	assert.True(t, got.OverlayEnabled)
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte("brightness: [nope"), 0o644))

	_, err := NewFileStore(path).Load(context.Background())
	assert.Error(t, err)
}

func TestSQLiteStore_HistoryAndPrune(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.Save(ctx, dimmer.State{Brightness: i * 10, OverlayEnabled: true}))
	}

	entries, err := s.History(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 50, entries[0].State.Brightness)
	assert.Equal(t, 30, entries[2].State.Brightness)
	assert.NotEmpty(t, entries[0].ID)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)

	require.NoError(t, s.Prune(ctx, 2))
	entries, err = s.History(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestMemoryStore_Fail(t *testing.T) {
	m := NewMemoryStore()
	m.Fail(errors.New("disk full"))
	assert.Error(t, m.Save(context.Background(), dimmer.DefaultState()))
	assert.Equal(t, 0, m.Saves())
}

func TestOpen(t *testing.T) {
	s, err := Open("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open("floppy", "")
	assert.Error(t, err)
}
