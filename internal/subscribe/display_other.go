//go:build !linux

package subscribe

import (
	"github.com/rs/zerolog"
)

// BacklightEvents never fires outside Linux.
func BacklightEvents(stop <-chan struct{}, log zerolog.Logger) <-chan struct{} {
	log.Debug().Msg("backlight events are only available on linux")
	return make(chan struct{})
}
