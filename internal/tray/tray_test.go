package tray

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoppxi/luxflex/internal/dimmer"
)

func TestParseBrightness(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"40", 40, false},
		{" 75% ", 75, false},
		{"0", 0, false},
		{"100", 100, false},
		{"101", 0, true},
		{"-1", 0, true},
		{"bright", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBrightness(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusTitle(t *testing.T) {
	assert.Equal(t, "Brightness: 50%", statusTitle(dimmer.State{Brightness: 50, OverlayEnabled: true}))
	assert.Equal(t, "Brightness: 5% (dimmed)", statusTitle(dimmer.State{Brightness: 5, OverlayAlpha: 128, OverlayEnabled: true}))
	assert.Equal(t, "Brightness: 5%", statusTitle(dimmer.State{Brightness: 5, OverlayAlpha: 128}))
}

func TestIcon(t *testing.T) {
	b, err := Icon(dimmer.State{Brightness: 50})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, iconSize, img.Bounds().Dx())
	assert.Equal(t, iconSize, img.Bounds().Dy())

	_, _, _, a := img.At(0, 0).RGBA()
	assert.Less(t, a, uint32(0x8000), "corner should be transparent")

	again, err := Icon(dimmer.State{Brightness: 52})
	require.NoError(t, err)
	assert.Equal(t, b, again, "nearby levels share an icon")

	dim, err := Icon(dimmer.State{Brightness: 50, OverlayAlpha: 10, OverlayEnabled: true})
	require.NoError(t, err)
	assert.NotEqual(t, b, dim)
}

func TestIconFillTracksLevel(t *testing.T) {
	empty, err := renderIcon(0, false)
	require.NoError(t, err)
	full, err := renderIcon(iconSteps, false)
	require.NoError(t, err)

	center := func(b []byte) uint32 {
		img, err := png.Decode(bytes.NewReader(b))
		require.NoError(t, err)
		r, _, _, _ := img.At(iconSize/2, iconSize/2).RGBA()
		return r
	}
	assert.Greater(t, center(full), center(empty))
}
