package watchers

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/hoppxi/luxflex/internal/manager"
	"github.com/hoppxi/luxflex/internal/subscribe"
)

func TestWatchStops(t *testing.T) {
	stop := make(chan struct{})
	events := make(chan struct{}, 1)

	var calls int
	done := make(chan struct{})
	go func() {
		watch(stop, events, func() { calls++ })
		close(done)
	}()

	events <- struct{}{}
	assert.Eventually(t, func() bool { return len(events) == 0 }, time.Second, 5*time.Millisecond)
	close(stop)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watch did not stop")
	}
	assert.Equal(t, 1, calls)
}

func TestConfigWatcher(t *testing.T) {
	events := make(chan subscribe.ConfigChange, 3)
	stop := make(chan struct{})

	var (
		mu     sync.Mutex
		floors []int
	)
	apply := func(c subscribe.ConfigChange) error {
		mu.Lock()
		defer mu.Unlock()
		floors = append(floors, c.Settings.Floor)
		return nil
	}

	events <- subscribe.ConfigChange{Err: errors.New("bad yaml")}
	events <- subscribe.ConfigChange{Settings: manager.Settings{Floor: 15}}
	events <- subscribe.ConfigChange{Settings: manager.Settings{Floor: 20}}

	done := make(chan struct{})
	go func() {
		ConfigWatcher(events, apply, zerolog.Nop())(stop)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(floors) == 2
	}, time.Second, 5*time.Millisecond)
	close(stop)
	<-done

	assert.Equal(t, []int{15, 20}, floors)
}
