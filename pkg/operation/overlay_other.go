//go:build !windows

package operation

import "errors"

func newWindowOverlay() (OverlaySink, error) {
	return nil, errors.New("the window overlay is only available on Windows, use eww")
}
