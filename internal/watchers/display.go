// Package watchers turns system events into dimmer loop input.
package watchers

import (
	"github.com/rs/zerolog"

	"github.com/hoppxi/luxflex/internal/subscribe"
)

// Resyncer adopts brightness changes made outside luxflex.
type Resyncer interface {
	Resync() error
}

// Reapplier pushes the current state to the display again.
type Reapplier interface {
	Reapply() error
}

// BacklightWatcher resyncs the loop whenever the kernel reports a backlight
// change, e.g. from brightness keys.
func BacklightWatcher(target Resyncer, log zerolog.Logger) func(stop <-chan struct{}) {
	return func(stop <-chan struct{}) {
		events := subscribe.BacklightEvents(stop, log)
		watch(stop, events, func() {
			if err := target.Resync(); err != nil {
				log.Debug().Err(err).Msg("resync skipped")
			}
		})
	}
}

// ResumeWatcher re-applies the state after the machine wakes up, since
// many panels come back at full brightness.
func ResumeWatcher(target Reapplier, log zerolog.Logger) func(stop <-chan struct{}) {
	return func(stop <-chan struct{}) {
		events := subscribe.ResumeEvents(stop, log)
		watch(stop, events, func() {
			log.Info().Msg("resumed from sleep, re-applying brightness")
			if err := target.Reapply(); err != nil {
				log.Debug().Err(err).Msg("reapply skipped")
			}
		})
	}
}

func watch(stop <-chan struct{}, events <-chan struct{}, f func()) {
	for {
		select {
		case <-stop:
			return
		case <-events:
			f()
		}
	}
}
