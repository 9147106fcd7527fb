package subscribe

import (
	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
)

const sleepSignal = "org.freedesktop.login1.Manager.PrepareForSleep"

// ResumeEvents signals when logind reports the system woke from sleep.
func ResumeEvents(stop <-chan struct{}, log zerolog.Logger) <-chan struct{} {
	events := make(chan struct{}, 1)

	go func() {
		conn, err := dbus.ConnectSystemBus()
		if err != nil {
			log.Debug().Err(err).Msg("failed to connect to system bus")
			return
		}
		defer conn.Close()

		if err := conn.AddMatchSignal(
			dbus.WithMatchInterface("org.freedesktop.login1.Manager"),
			dbus.WithMatchMember("PrepareForSleep"),
		); err != nil {
			log.Warn().Err(err).Msg("PrepareForSleep match failed")
			return
		}

		signals := make(chan *dbus.Signal, 8)
		conn.Signal(signals)
		defer conn.RemoveSignal(signals)

		for {
			select {
			case <-stop:
				return
			case sig := <-signals:
				if isResume(sig) {
					trySend(events)
				}
			}
		}
	}()

	return events
}

// isResume matches PrepareForSleep(false), sent after waking up.
func isResume(sig *dbus.Signal) bool {
	if sig == nil || sig.Name != sleepSignal || len(sig.Body) < 1 {
		return false
	}
	sleeping, ok := sig.Body[0].(bool)
	return ok && !sleeping
}
