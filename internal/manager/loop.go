package manager

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hoppxi/luxflex/internal/dimmer"
	"github.com/hoppxi/luxflex/internal/metrics"
)

// ErrStopped is returned when the loop is no longer accepting input.
var ErrStopped = errors.New("dimmer loop stopped")

type eventKind int

const (
	evRequest eventKind = iota
	evStep
	evOverlay
	evToggle
	evCurve
	evResync
	evReapply
	evSettle
)

type event struct {
	kind    eventKind
	value   int
	enabled bool
	curve   dimmer.Curve
	reply   chan result
}

type result struct {
	state dimmer.State
	err   error
}

// Observer is told about every confirmed state change.
type Observer func(dimmer.State)

// ErrorHandler is told about backend failures.
type ErrorHandler func(error)

// Loop owns the Controller. Every input goes through one ordered channel
// and is handled on the Run goroutine.
type Loop struct {
	ctrl    *dimmer.Controller
	persist *Persister
	rec     metrics.Recorder
	log     zerolog.Logger
	tick    time.Duration
	now     func() time.Time

	inbox chan event
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once

	pending dimmer.Coalescer

	mu        sync.RWMutex
	snapshot  dimmer.State
	observers []Observer
	onError   []ErrorHandler
}

type LoopOption func(*Loop)

func WithTick(d time.Duration) LoopOption {
	return func(l *Loop) { l.tick = d }
}

func WithLoopClock(now func() time.Time) LoopOption {
	return func(l *Loop) { l.now = now }
}

func WithRecorder(r metrics.Recorder) LoopOption {
	return func(l *Loop) {
		if r != nil {
			l.rec = r
		}
	}
}

func WithLoopLogger(log zerolog.Logger) LoopOption {
	return func(l *Loop) { l.log = log }
}

// NewLoop wraps ctrl. persist may be nil.
func NewLoop(ctrl *dimmer.Controller, persist *Persister, opts ...LoopOption) *Loop {
	l := &Loop{
		ctrl:     ctrl,
		persist:  persist,
		rec:      metrics.NoopRecorder{},
		log:      zerolog.Nop(),
		tick:     DefaultTick,
		now:      time.Now,
		inbox:    make(chan event, 64),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		snapshot: ctrl.State(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns the last confirmed state.
func (l *Loop) State() dimmer.State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot
}

func (l *Loop) Subscribe(o Observer) {
	l.mu.Lock()
	l.observers = append(l.observers, o)
	l.mu.Unlock()
}

func (l *Loop) OnError(h ErrorHandler) {
	l.mu.Lock()
	l.onError = append(l.onError, h)
	l.mu.Unlock()
}

// Request asks for a brightness. Values arriving within one tick collapse
// to the latest.
func (l *Loop) Request(percent int) error {
	return l.send(event{kind: evRequest, value: percent})
}

// Step moves the brightness relative to the latest requested value.
func (l *Loop) Step(delta int) error {
	return l.send(event{kind: evStep, value: delta})
}

func (l *Loop) SetOverlayEnabled(enabled bool) error {
	return l.send(event{kind: evOverlay, enabled: enabled})
}

func (l *Loop) ToggleOverlay() error {
	return l.send(event{kind: evToggle})
}

// SetCurve swaps the curve and re-applies the current brightness with it.
func (l *Loop) SetCurve(c dimmer.Curve) error {
	return l.send(event{kind: evCurve, curve: c})
}

// Resync adopts a brightness changed outside luxflex, e.g. by hardware keys.
func (l *Loop) Resync() error {
	return l.send(event{kind: evResync})
}

// Reapply pushes the current state to the display again, e.g. after resume.
func (l *Loop) Reapply() error {
	return l.send(event{kind: evReapply})
}

// Settle applies any pending value now and returns the resulting state.
func (l *Loop) Settle(ctx context.Context) (dimmer.State, error) {
	reply := make(chan result, 1)
	if err := l.sendCtx(ctx, event{kind: evSettle, reply: reply}); err != nil {
		return l.State(), err
	}
	select {
	case r := <-reply:
		return r.state, r.err
	case <-ctx.Done():
		return l.State(), ctx.Err()
	case <-l.done:
		return l.State(), ErrStopped
	}
}

// Shutdown asks Run to apply pending input, save and return.
func (l *Loop) Shutdown() {
	l.once.Do(func() { close(l.quit) })
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) send(ev event) error {
	return l.sendCtx(context.Background(), ev)
}

func (l *Loop) sendCtx(ctx context.Context, ev event) error {
	select {
	case <-l.quit:
		return ErrStopped
	case <-l.done:
		return ErrStopped
	default:
	}

	select {
	case l.inbox <- ev:
		return nil
	case <-l.quit:
		return ErrStopped
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes input until ctx is cancelled or Shutdown is called. Pending
// values are applied and the persister is closed before it returns.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}
		timer, timerC = nil, nil
	}
	arm := func() {
		if timerC != nil || !l.pending.Pending() {
			return
		}
		timer = time.NewTimer(l.delay())
		timerC = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer()
			return l.finish()
		case <-l.quit:
			stopTimer()
			return l.finish()
		case ev := <-l.inbox:
			if ev.kind == evSettle {
				stopTimer()
			}
			l.handle(ev)
			arm()
		case <-timerC:
			timer, timerC = nil, nil
			l.flush()
			arm()
		}
	}
}

// delay is the remaining part of the tick since the last apply.
func (l *Loop) delay() time.Duration {
	last := l.ctrl.State().LastAppliedAt
	if last.IsZero() {
		return l.tick
	}
	d := l.tick - l.now().Sub(last)
	if d < 0 {
		return 0
	}
	if d > l.tick {
		return l.tick
	}
	return d
}

func (l *Loop) handle(ev event) {
	switch ev.kind {
	case evRequest:
		l.pending.Offer(ev.value)

	case evStep:
		base := l.ctrl.State().Brightness
		if v, ok := l.pending.Take(); ok {
			base = v
		}
		l.pending.Offer(dimmer.ClampBrightness(base + ev.value))

	case evOverlay:
		l.flush()
		l.commit(l.ctrl.SetOverlayEnabled(ev.enabled))

	case evToggle:
		l.flush()
		l.commit(l.ctrl.SetOverlayEnabled(!l.ctrl.State().OverlayEnabled))

	case evCurve:
		l.ctrl.SetCurve(ev.curve)
		if !l.pending.Pending() {
			l.commit(l.ctrl.Reapply())
		}

	case evResync:
		if l.pending.Pending() {
			return
		}
		v, changed, err := l.ctrl.ExternalChange()
		if err != nil {
			l.log.Debug().Err(err).Msg("resync read failed")
			return
		}
		if changed {
			l.log.Info().Int("brightness", v).Msg("adopting external brightness change")
			l.pending.Offer(v)
		}

	case evReapply:
		if !l.pending.Pending() {
			l.commit(l.ctrl.Reapply())
		}

	case evSettle:
		err := l.flush()
		ev.reply <- result{state: l.ctrl.State(), err: err}
	}
}

// flush applies the latest pending value, if any.
func (l *Loop) flush() error {
	v, ok := l.pending.Take()
	if !ok {
		return nil
	}
	l.rec.AddCoalesced(l.pending.Dropped())
	return l.commit(l.ctrl.SetBrightness(v))
}

func (l *Loop) commit(s dimmer.State, err error) error {
	if err != nil {
		l.rec.IncBackendFailure()
		l.log.Error().Err(err).Msg("failed to apply brightness")

		l.mu.RLock()
		handlers := append([]ErrorHandler(nil), l.onError...)
		l.mu.RUnlock()
		for _, h := range handlers {
			h(err)
		}
		return err
	}

	l.mu.Lock()
	l.snapshot = s
	observers := append([]Observer(nil), l.observers...)
	l.mu.Unlock()

	l.rec.ObserveApplied(s)
	if l.persist != nil {
		l.persist.Submit(s)
	}
	for _, o := range observers {
		o(s)
	}
	return nil
}

func (l *Loop) finish() error {
	l.drain()
	l.flush()

	if l.persist != nil {
		if err := l.persist.Close(); err != nil {
			l.log.Warn().Err(err).Msg("failed to close state store")
		}
	}
	l.log.Info().Str("state", l.ctrl.State().String()).Msg("dimmer loop stopped")
	return nil
}

// drain handles input that was queued before shutdown.
func (l *Loop) drain() {
	for {
		select {
		case ev := <-l.inbox:
			l.handle(ev)
		default:
			return
		}
	}
}
