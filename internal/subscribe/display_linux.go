//go:build linux

package subscribe

import (
	"errors"
	"syscall"

	"github.com/rs/zerolog"
)

// BacklightEvents signals kernel backlight changes until stop is closed.
func BacklightEvents(stop <-chan struct{}, log zerolog.Logger) <-chan struct{} {
	events := make(chan struct{}, 1)

	go func() {
		fd, err := syscall.Socket(syscall.AF_NETLINK, syscall.SOCK_RAW, syscall.NETLINK_KOBJECT_UEVENT)
		if err != nil {
			log.Warn().Err(err).Msg("failed to open netlink socket")
			return
		}
		defer syscall.Close(fd)

		addr := &syscall.SockaddrNetlink{
			Family: syscall.AF_NETLINK,
			Groups: 1, // broadcast uevents
		}
		if err := syscall.Bind(fd, addr); err != nil {
			log.Warn().Err(err).Msg("failed to bind netlink socket")
			return
		}

		// Wake up once a second to notice stop.
		tv := syscall.Timeval{Sec: 1}
		if err := syscall.SetsockoptTimeval(fd, syscall.SOL_SOCKET, syscall.SO_RCVTIMEO, &tv); err != nil {
			log.Warn().Err(err).Msg("failed to set netlink timeout")
		}

		buf := make([]byte, 4096)
		for {
			select {
			case <-stop:
				return
			default:
			}

			n, _, err := syscall.Recvfrom(fd, buf, 0)
			if err != nil {
				if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EINTR) {
					continue
				}
				log.Debug().Err(err).Msg("netlink recv error")
				continue
			}

			if isBacklightChange(buf[:n]) {
				trySend(events)
			}
		}
	}()

	return events
}
