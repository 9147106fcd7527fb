package subscribe

import (
	"bytes"
)

// isBacklightChange reports whether a kernel uevent is a backlight level
// change. Fields in msg are NUL separated.
func isBacklightChange(msg []byte) bool {
	var subsystem, action bool
	for _, field := range bytes.Split(msg, []byte{0}) {
		switch string(field) {
		case "SUBSYSTEM=backlight":
			subsystem = true
		case "ACTION=change":
			action = true
		}
	}
	return subsystem && action
}

func trySend(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
