// Package metrics records dimmer activity for Prometheus.
package metrics

import (
	"github.com/hoppxi/luxflex/internal/dimmer"
)

// Recorder receives dimmer events from the event loop.
type Recorder interface {
	ObserveApplied(s dimmer.State)
	AddCoalesced(n int)
	IncBackendFailure()
	IncPersistenceFailure()
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

func (NoopRecorder) ObserveApplied(dimmer.State) {}
func (NoopRecorder) AddCoalesced(int)            {}
func (NoopRecorder) IncBackendFailure()          {}
func (NoopRecorder) IncPersistenceFailure()      {}
