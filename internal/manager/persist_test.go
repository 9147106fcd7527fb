package manager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoppxi/luxflex/internal/dimmer"
	"github.com/hoppxi/luxflex/internal/settings"
)

func TestPersister_CloseFlushesLatest(t *testing.T) {
	store := settings.NewMemoryStore()
	p := NewPersister(store, zerolog.Nop(), nil)

	for _, v := range []int{10, 20, 30} {
		p.Submit(dimmer.State{Brightness: v, OverlayEnabled: true})
	}
	require.NoError(t, p.Close())

	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, 30, saved.Brightness)
	assert.GreaterOrEqual(t, store.Saves(), 1)
	assert.LessOrEqual(t, store.Saves(), 3)

	// Submit after Close is ignored.
	p.Submit(dimmer.State{Brightness: 90})
	assert.NoError(t, p.Close())
}

func TestPersister_FailureIsCounted(t *testing.T) {
	store := settings.NewMemoryStore()
	store.Fail(errors.New("disk full"))
	rec := &countingRecorder{}
	p := NewPersister(store, zerolog.Nop(), rec)

	p.Submit(dimmer.State{Brightness: 40})
	require.NoError(t, p.Close())

	// the failed save is retried once more on Close
	_, _, _, persistence := rec.counts()
	assert.GreaterOrEqual(t, persistence, 1)
	assert.LessOrEqual(t, persistence, 2)
}

func TestPersister_CloseRetriesFailedSave(t *testing.T) {
	store := settings.NewMemoryStore()
	store.Fail(errors.New("disk busy"))
	rec := &countingRecorder{}
	p := NewPersister(store, zerolog.Nop(), rec)

	p.Submit(dimmer.State{Brightness: 35, OverlayEnabled: true})
	require.Eventually(t, func() bool {
		_, _, _, persistence := rec.counts()
		return persistence == 1
	}, time.Second, 5*time.Millisecond)

	store.Fail(nil)
	require.NoError(t, p.Close())

	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, 35, saved.Brightness)
}

func TestPersister_FailedSaveDoesNotOverrideNewer(t *testing.T) {
	store := settings.NewMemoryStore()
	store.Fail(errors.New("disk busy"))
	rec := &countingRecorder{}
	p := NewPersister(store, zerolog.Nop(), rec)

	p.Submit(dimmer.State{Brightness: 35})
	require.Eventually(t, func() bool {
		_, _, _, persistence := rec.counts()
		return persistence >= 1
	}, time.Second, 5*time.Millisecond)

	store.Fail(nil)
	p.Submit(dimmer.State{Brightness: 60})
	require.NoError(t, p.Close())

	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, 60, saved.Brightness)
}
