package subscribe

import (
	"github.com/hoppxi/luxflex/internal/manager"
)

// ConfigChange carries re-decoded settings, or the error that stopped them.
type ConfigChange struct {
	Settings manager.Settings
	Err      error
}

// ConfigEvents turns config file edits into a channel holding the latest
// change.
func ConfigEvents(cm *manager.ConfigManager) <-chan ConfigChange {
	events := make(chan ConfigChange, 1)

	cm.Watch(func(s manager.Settings, err error) {
		change := ConfigChange{Settings: s, Err: err}
		for {
			select {
			case events <- change:
				return
			default:
			}
			// Drop the stale change and retry.
			select {
			case <-events:
			default:
			}
		}
	})

	return events
}
