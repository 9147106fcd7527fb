package operation

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/hoppxi/luxflex/pkg/displayinfo"
)

// BrightnessDriver controls the panel backlight.
type BrightnessDriver interface {
	Brightness() (int, error)
	SetBrightness(percent int) error
}

// OverlaySink shows a darkening layer over the screen.
type OverlaySink interface {
	SetOverlayAlpha(alpha int) error
}

// Quantizer is implemented by drivers whose read-back differs from the
// percentage written, such as backlights with a coarse raw scale.
type Quantizer interface {
	Quantize(percent int) int
}

// Display pairs a brightness driver with an overlay sink.
type Display struct {
	driver  BrightnessDriver
	overlay OverlaySink
}

func NewDisplay(driver BrightnessDriver, overlay OverlaySink) *Display {
	if overlay == nil {
		overlay = NoOverlay{}
	}
	return &Display{driver: driver, overlay: overlay}
}

func (d *Display) Brightness() (int, error) {
	return d.driver.Brightness()
}

func (d *Display) SetBrightness(percent int) error {
	return d.driver.SetBrightness(percent)
}

func (d *Display) SetOverlayAlpha(alpha int) error {
	return d.overlay.SetOverlayAlpha(alpha)
}

// Quantize forwards to the driver, or returns percent unchanged.
func (d *Display) Quantize(percent int) int {
	if q, ok := d.driver.(Quantizer); ok {
		return q.Quantize(percent)
	}
	return percent
}

// quantizeFirst maps percent through the device Brightness reads from.
func quantizeFirst(root, name string, percent int) int {
	devices, err := displayinfo.Devices(root, name)
	if err != nil {
		return percent
	}
	return devices[0].Quantize(percent)
}

// Runner executes an external command and returns its stdout.
type Runner func(name string, args ...string) ([]byte, error)

func execRunner(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// Sysfs writes /sys/class/backlight directly. Needs write access to the
// brightness files (udev rule or video group).
type Sysfs struct {
	Root   string
	Device string
}

func (s *Sysfs) Brightness() (int, error) {
	info, err := displayinfo.GetDisplayInfo(s.Root, s.Device)
	if err != nil {
		return 0, err
	}
	return info.Level, nil
}

func (s *Sysfs) Quantize(percent int) int {
	return quantizeFirst(s.Root, s.Device, percent)
}

func (s *Sysfs) SetBrightness(percent int) error {
	devices, err := displayinfo.Devices(s.Root, s.Device)
	if err != nil {
		return err
	}
	for _, d := range devices {
		if err := displayinfo.WriteRaw(d, d.Raw(percent)); err != nil {
			return fmt.Errorf("failed to set brightness on %s: %w", d.Name, err)
		}
	}
	return nil
}

// Brightnessctl shells out to brightnessctl.
type Brightnessctl struct {
	Device string
	Run    Runner
}

func (b *Brightnessctl) run(args ...string) ([]byte, error) {
	if b.Device != "" {
		args = append([]string{"-d", b.Device}, args...)
	}
	run := b.Run
	if run == nil {
		run = execRunner
	}
	return run("brightnessctl", args...)
}

func (b *Brightnessctl) SetBrightness(percent int) error {
	if _, err := b.run("set", fmt.Sprintf("%d%%", percent)); err != nil {
		return fmt.Errorf("failed to set brightness: %w", err)
	}
	return nil
}

// Brightness parses `brightnessctl -m info`:
// intel_backlight,backlight,9600,50%,19200
func (b *Brightnessctl) Brightness() (int, error) {
	out, err := b.run("-m", "info")
	if err != nil {
		return 0, fmt.Errorf("failed to read brightness: %w", err)
	}

	line := strings.TrimSpace(strings.SplitN(string(out), "\n", 2)[0])
	fields := strings.Split(line, ",")
	if len(fields) < 4 {
		return 0, fmt.Errorf("unexpected brightnessctl output %q", line)
	}

	v, err := strconv.Atoi(strings.TrimSuffix(fields[3], "%"))
	if err != nil {
		return 0, fmt.Errorf("unexpected brightnessctl output %q: %w", line, err)
	}
	return v, nil
}

// Eww publishes the overlay alpha to an eww variable. A fullscreen
// click-through eww window reads it as its background opacity.
type Eww struct {
	Var string
	Run Runner
}

func (e *Eww) SetOverlayAlpha(alpha int) error {
	name := e.Var
	if name == "" {
		name = "DIMMER_ALPHA"
	}
	run := e.Run
	if run == nil {
		run = execRunner
	}
	if _, err := run("eww", "update", fmt.Sprintf("%s=%d", name, alpha)); err != nil {
		return fmt.Errorf("failed to update %s: %w", name, err)
	}
	return nil
}

// NoOverlay accepts and ignores overlay updates.
type NoOverlay struct{}

func (NoOverlay) SetOverlayAlpha(int) error { return nil }
