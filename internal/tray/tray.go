// Package tray shows the dimmer in the system tray.
package tray

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"fyne.io/systray"
	"github.com/ncruces/zenity"
	"github.com/rs/zerolog"

	"github.com/hoppxi/luxflex/internal/dimmer"
)

// Presets are the fixed brightness entries of the menu.
var Presets = []int{100, 75, 50, 25, 10, 5, 0}

// Controller is what the menu drives. manager.Loop implements it.
type Controller interface {
	State() dimmer.State
	Request(percent int) error
	Step(delta int) error
	SetOverlayEnabled(enabled bool) error
	Shutdown()
}

type Tray struct {
	ctrl Controller
	step int
	log  zerolog.Logger

	mu       sync.Mutex
	mStatus  *systray.MenuItem
	mOverlay *systray.MenuItem
	ready    bool

	done chan struct{}
}

func New(ctrl Controller, step int, log zerolog.Logger) *Tray {
	if step <= 0 {
		step = 5
	}
	return &Tray{ctrl: ctrl, step: step, log: log, done: make(chan struct{})}
}

// Run blocks on the tray event loop. Call it from the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("luxflex")
	systray.SetTooltip("luxflex")

	t.mu.Lock()
	t.mStatus = systray.AddMenuItem("Brightness: -", "Current brightness")
	t.mStatus.Disable()
	t.mu.Unlock()

	systray.AddSeparator()
	for _, p := range Presets {
		item := systray.AddMenuItem(presetTitle(p), fmt.Sprintf("Set brightness to %d%%", p))
		go t.onClick(item, func() { t.request(p) })
	}

	systray.AddSeparator()
	mUp := systray.AddMenuItem(fmt.Sprintf("Brighter (+%d)", t.step), "Increase brightness")
	mDown := systray.AddMenuItem(fmt.Sprintf("Dimmer (-%d)", t.step), "Decrease brightness")
	mCustom := systray.AddMenuItem("Set brightness...", "Enter a brightness value")
	go t.onClick(mUp, func() { t.stepBy(t.step) })
	go t.onClick(mDown, func() { t.stepBy(-t.step) })
	go t.onClick(mCustom, t.promptBrightness)

	systray.AddSeparator()
	s := t.ctrl.State()
	t.mu.Lock()
	t.mOverlay = systray.AddMenuItemCheckbox("Show dimmer", "Show or hide the dimming overlay", s.OverlayEnabled)
	overlay := t.mOverlay
	t.ready = true
	t.mu.Unlock()
	go t.onClick(overlay, func() { t.toggleOverlay(overlay) })

	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit luxflex")
	go t.onClick(mQuit, t.ctrl.Shutdown)

	t.Update(s)
}

func (t *Tray) onExit() {
	close(t.done)
}

func (t *Tray) onClick(item *systray.MenuItem, f func()) {
	for {
		select {
		case <-item.ClickedCh:
			f()
		case <-t.done:
			return
		}
	}
}

// Update refreshes the icon, tooltip and menu for s.
func (t *Tray) Update(s dimmer.State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ready {
		return
	}

	if icon, err := Icon(s); err == nil {
		systray.SetIcon(icon)
	} else {
		t.log.Debug().Err(err).Msg("icon render failed")
	}
	systray.SetTooltip(tooltip(s))
	t.mStatus.SetTitle(statusTitle(s))
	if s.OverlayEnabled {
		t.mOverlay.Check()
	} else {
		t.mOverlay.Uncheck()
	}
}

// NotifyError raises a desktop notification for a failed apply.
func (t *Tray) NotifyError(err error) {
	msg := err.Error()
	if errors.Is(err, dimmer.ErrBackendUnavailable) {
		msg = "Could not change the display brightness: " + msg
	}
	if nerr := zenity.Notify(msg, zenity.Title("luxflex"), zenity.ErrorIcon); nerr != nil {
		t.log.Debug().Err(nerr).Msg("notification failed")
	}
}

func (t *Tray) request(v int) {
	if err := t.ctrl.Request(v); err != nil {
		t.log.Warn().Err(err).Int("brightness", v).Msg("request rejected")
	}
}

func (t *Tray) stepBy(delta int) {
	if err := t.ctrl.Step(delta); err != nil {
		t.log.Warn().Err(err).Int("delta", delta).Msg("step rejected")
	}
}

func (t *Tray) toggleOverlay(item *systray.MenuItem) {
	if err := t.ctrl.SetOverlayEnabled(!item.Checked()); err != nil {
		t.log.Warn().Err(err).Msg("overlay toggle rejected")
	}
}

func (t *Tray) promptBrightness() {
	current := t.ctrl.State().Brightness
	text, err := zenity.Entry("Brightness (0-100):",
		zenity.Title("luxflex"),
		zenity.EntryText(strconv.Itoa(current)),
	)
	switch {
	case errors.Is(err, zenity.ErrCanceled):
		return
	case err != nil:
		t.log.Warn().Err(err).Msg("brightness prompt failed")
		return
	}

	v, err := ParseBrightness(text)
	if err != nil {
		_ = zenity.Error(err.Error(), zenity.Title("luxflex"))
		return
	}
	t.request(v)
}

// ParseBrightness accepts "40" or "40%" within 0..100.
func ParseBrightness(text string) (int, error) {
	s := strings.TrimSuffix(strings.TrimSpace(text), "%")
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", text)
	}
	if v < dimmer.MinBrightness || v > dimmer.MaxBrightness {
		return 0, fmt.Errorf("brightness must be between 0 and 100, got %d", v)
	}
	return v, nil
}

func presetTitle(p int) string {
	return fmt.Sprintf("%d%%", p)
}

func statusTitle(s dimmer.State) string {
	if s.EffectiveAlpha() > 0 {
		return fmt.Sprintf("Brightness: %d%% (dimmed)", s.Brightness)
	}
	return fmt.Sprintf("Brightness: %d%%", s.Brightness)
}

func tooltip(s dimmer.State) string {
	return fmt.Sprintf("luxflex: %d%%", s.Brightness)
}
