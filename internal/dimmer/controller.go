package dimmer

import (
	"time"

	"github.com/rs/zerolog"
)

// Backend is the display capability the controller drives.
type Backend interface {
	Brightness() (int, error)
	SetBrightness(percent int) error
	SetOverlayAlpha(alpha int) error
}

// Quantizer is an optional Backend extension reporting the level the
// hardware reads back after percent is written.
type Quantizer interface {
	Quantize(percent int) int
}

// Controller owns the dimmer state. It is not safe for concurrent use; the
// event loop is its only caller.
type Controller struct {
	backend Backend
	curve   Curve
	state   State
	now     func() time.Time
	log     zerolog.Logger
}

type Option func(*Controller)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithInitialState seeds the in-memory state without touching the backend.
func WithInitialState(s State) Option {
	return func(c *Controller) { c.state = s }
}

func NewController(backend Backend, curve Curve, opts ...Option) *Controller {
	if curve == nil {
		curve = NewLinearCurve(DefaultFloor)
	}
	c := &Controller{
		backend: backend,
		curve:   curve,
		state:   DefaultState(),
		now:     time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current in-memory state. No I/O.
func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Curve() Curve {
	return c.curve
}

// SetCurve swaps the overlay curve. It takes effect on the next apply.
func (c *Controller) SetCurve(curve Curve) {
	if curve != nil {
		c.curve = curve
	}
}

// SetBrightness clamps target, derives the overlay alpha and applies both.
// On backend failure the previous state is kept and returned with the error.
func (c *Controller) SetBrightness(target int) (State, error) {
	if _, err := Clamp(target, MinBrightness, MaxBrightness); err != nil {
		c.log.Debug().Int("target", target).Msg("brightness clamped")
	}

	next := c.state
	next.Brightness = ClampBrightness(target)
	next.OverlayAlpha = c.curve.Alpha(next.Brightness)
	return c.apply("set_brightness", next)
}

// Restore applies a persisted state through the same clamp-and-apply path.
// The stored alpha is recomputed from the current curve.
func (c *Controller) Restore(persisted State) (State, error) {
	next := c.state
	next.Brightness = ClampBrightness(persisted.Brightness)
	next.OverlayAlpha = c.curve.Alpha(next.Brightness)
	next.OverlayEnabled = persisted.OverlayEnabled
	return c.apply("restore", next)
}

// SetOverlayEnabled shows or hides the overlay without changing brightness.
func (c *Controller) SetOverlayEnabled(enabled bool) (State, error) {
	next := c.state
	next.OverlayEnabled = enabled
	next.OverlayAlpha = c.curve.Alpha(next.Brightness)
	return c.apply("set_overlay_enabled", next)
}

// Reapply pushes the current brightness again, picking up a new curve.
func (c *Controller) Reapply() (State, error) {
	return c.SetBrightness(c.state.Brightness)
}

// ReadBackend asks the backend for the hardware brightness.
func (c *Controller) ReadBackend() (int, error) {
	v, err := c.backend.Brightness()
	if err != nil {
		return 0, backendError("get_brightness", err)
	}
	return ClampBrightness(v), nil
}

// ExternalChange reads the hardware level and reports whether it differs
// from what the last apply left there. A read-back that only reflects the
// backend's own rounding of our write is not a change.
func (c *Controller) ExternalChange() (int, bool, error) {
	v, err := c.ReadBackend()
	if err != nil {
		return 0, false, err
	}
	cur := c.state.Brightness
	if v == cur {
		return v, false, nil
	}
	if q, ok := c.backend.(Quantizer); ok && v == ClampBrightness(q.Quantize(cur)) {
		return v, false, nil
	}
	return v, true, nil
}

func (c *Controller) apply(op string, next State) (State, error) {
	prev := c.state

	if err := c.backend.SetBrightness(next.Brightness); err != nil {
		return prev, backendError(op, err)
	}

	if err := c.backend.SetOverlayAlpha(next.EffectiveAlpha()); err != nil {
		if next.Brightness != prev.Brightness {
			if rerr := c.backend.SetBrightness(prev.Brightness); rerr != nil {
				c.log.Error().Err(rerr).
					Int("brightness", prev.Brightness).
					Msg("failed to restore brightness after overlay failure")
			}
		}
		return prev, backendError(op, err)
	}

	next.LastAppliedAt = c.now()
	c.state = next

	c.log.Debug().
		Str("op", op).
		Int("brightness", next.Brightness).
		Int("alpha", next.OverlayAlpha).
		Bool("overlay", next.OverlayEnabled).
		Msg("applied")

	return next, nil
}
