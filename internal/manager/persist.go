package manager

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hoppxi/luxflex/internal/dimmer"
	"github.com/hoppxi/luxflex/internal/metrics"
	"github.com/hoppxi/luxflex/internal/settings"
)

const saveTimeout = 5 * time.Second

// Persister saves states in the background. Only the latest submitted state
// is written; older unsaved ones are dropped. A failed save is retried on the
// next Submit or on Close.
type Persister struct {
	store settings.Store
	log   zerolog.Logger
	rec   metrics.Recorder

	mu     sync.Mutex
	latest *dimmer.State
	closed bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func NewPersister(store settings.Store, log zerolog.Logger, rec metrics.Recorder) *Persister {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	p := &Persister{
		store: store,
		log:   log,
		rec:   rec,
		wake:  make(chan struct{}, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go p.run()
	return p
}

// Submit queues s for saving. It never blocks.
func (p *Persister) Submit(s dimmer.State) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.latest = &s
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Close writes the last queued state, waits for the worker and closes the
// store.
func (p *Persister) Close() error {
	var err error
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		close(p.stop)
		<-p.done

		if cerr := p.store.Close(); cerr != nil {
			err = dimmer.PersistenceError("close", cerr)
		}
	})
	return err
}

func (p *Persister) run() {
	defer close(p.done)
	for {
		select {
		case <-p.wake:
			p.saveLatest()
		case <-p.stop:
			p.saveLatest()
			return
		}
	}
}

func (p *Persister) saveLatest() {
	p.mu.Lock()
	s := p.latest
	p.latest = nil
	p.mu.Unlock()

	if s == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := p.store.Save(ctx, *s); err != nil {
		if !errors.Is(err, dimmer.ErrPersistence) {
			err = dimmer.PersistenceError("save", err)
		}
		p.rec.IncPersistenceFailure()
		p.log.Warn().Err(err).Int("brightness", s.Brightness).Msg("failed to save state")

		// keep it for the next attempt unless a newer state arrived
		p.mu.Lock()
		if p.latest == nil {
			p.latest = s
		}
		p.mu.Unlock()
		return
	}
	p.log.Debug().Int("brightness", s.Brightness).Msg("state saved")
}
