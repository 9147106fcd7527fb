package watchers

import (
	"github.com/rs/zerolog"

	"github.com/hoppxi/luxflex/internal/subscribe"
)

// ConfigWatcher hands every valid config change to apply. Invalid edits are
// logged and the running settings stay in effect.
func ConfigWatcher(events <-chan subscribe.ConfigChange, apply func(subscribe.ConfigChange) error, log zerolog.Logger) func(stop <-chan struct{}) {
	return func(stop <-chan struct{}) {
		for {
			select {
			case <-stop:
				return
			case change := <-events:
				if change.Err != nil {
					log.Warn().Err(change.Err).Msg("ignoring invalid config change")
					continue
				}
				if err := apply(change); err != nil {
					log.Warn().Err(err).Msg("failed to apply config change")
					continue
				}
				log.Info().Msg("config reloaded")
			}
		}
	}
}
