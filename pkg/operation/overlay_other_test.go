//go:build !windows

package operation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_WindowOverlayNeedsWindows(t *testing.T) {
	_, err := New(BackendConfig{Driver: "none", Overlay: "window"})
	assert.ErrorContains(t, err, "only available on Windows")

	_, err = New(BackendConfig{Driver: "ddc", Overlay: "none"})
	assert.ErrorContains(t, err, "only available on Windows")
}
