package dimmer

import (
	"fmt"
	"time"
)

const (
	MinBrightness = 0
	MaxBrightness = 100
	MinAlpha      = 0
	MaxAlpha      = 255

	DefaultBrightness = 50
	DefaultFloor      = 10
)

// State is the brightness/overlay pair applied to the display.
type State struct {
	Brightness     int       `json:"brightness" yaml:"brightness"`
	OverlayAlpha   int       `json:"overlay_alpha" yaml:"overlay_alpha"`
	OverlayEnabled bool      `json:"overlay_enabled" yaml:"overlay_enabled"`
	LastAppliedAt  time.Time `json:"last_applied_at" yaml:"last_applied_at"`
}

// DefaultState is used when nothing has been persisted yet.
func DefaultState() State {
	return State{
		Brightness:     DefaultBrightness,
		OverlayAlpha:   0,
		OverlayEnabled: true,
	}
}

// EffectiveAlpha is the alpha the overlay actually shows.
func (s State) EffectiveAlpha() int {
	if !s.OverlayEnabled {
		return 0
	}
	return s.OverlayAlpha
}

func (s State) String() string {
	return fmt.Sprintf("brightness=%d overlay=%d enabled=%t", s.Brightness, s.OverlayAlpha, s.OverlayEnabled)
}

// Clamp bounds v to [lo, hi]. It reports an OutOfRange error when v had to
// be adjusted so callers can log it; the clamped value is always usable.
func Clamp(v, lo, hi int) (int, error) {
	switch {
	case v < lo:
		return lo, &Error{Kind: KindOutOfRange, Op: "clamp", Err: fmt.Errorf("%d below %d", v, lo)}
	case v > hi:
		return hi, &Error{Kind: KindOutOfRange, Op: "clamp", Err: fmt.Errorf("%d above %d", v, hi)}
	}
	return v, nil
}

// ClampBrightness bounds v to the brightness percentage range.
func ClampBrightness(v int) int {
	c, _ := Clamp(v, MinBrightness, MaxBrightness)
	return c
}

func clampAlpha(v int) int {
	c, _ := Clamp(v, MinAlpha, MaxAlpha)
	return c
}
