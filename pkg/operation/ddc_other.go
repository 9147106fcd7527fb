//go:build !windows

package operation

import "errors"

func newDDC() (BrightnessDriver, error) {
	return nil, errors.New("the ddc backend is only available on Windows")
}
