package manager

import (
	"sync"

	"github.com/hoppxi/luxflex/internal/dimmer"
)

type fakeBackend struct {
	mu      sync.Mutex
	level   int
	alpha   int
	sets    []int
	alphas  []int
	failSet error
}

func (f *fakeBackend) Brightness() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.level, nil
}

func (f *fakeBackend) SetBrightness(percent int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSet != nil {
		return f.failSet
	}
	f.level = percent
	f.sets = append(f.sets, percent)
	return nil
}

func (f *fakeBackend) SetOverlayAlpha(alpha int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alpha = alpha
	f.alphas = append(f.alphas, alpha)
	return nil
}

func (f *fakeBackend) setCalls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.sets...)
}

func (f *fakeBackend) external(level int) {
	f.mu.Lock()
	f.level = level
	f.mu.Unlock()
}

func (f *fakeBackend) fail(err error) {
	f.mu.Lock()
	f.failSet = err
	f.mu.Unlock()
}

type countingRecorder struct {
	mu          sync.Mutex
	applied     int
	coalesced   int
	backend     int
	persistence int
}

func (r *countingRecorder) ObserveApplied(dimmer.State) {
	r.mu.Lock()
	r.applied++
	r.mu.Unlock()
}

func (r *countingRecorder) AddCoalesced(n int) {
	r.mu.Lock()
	r.coalesced += n
	r.mu.Unlock()
}

func (r *countingRecorder) IncBackendFailure() {
	r.mu.Lock()
	r.backend++
	r.mu.Unlock()
}

func (r *countingRecorder) IncPersistenceFailure() {
	r.mu.Lock()
	r.persistence++
	r.mu.Unlock()
}

func (r *countingRecorder) counts() (applied, coalesced, backend, persistence int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applied, r.coalesced, r.backend, r.persistence
}
