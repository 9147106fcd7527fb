package operation

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/hoppxi/luxflex/pkg/displayinfo"
)

const (
	logindDest        = "org.freedesktop.login1"
	logindSessionPath = "/org/freedesktop/login1/session/auto"
	logindSetMethod   = "org.freedesktop.login1.Session.SetBrightness"
)

// Logind sets the backlight through systemd-logind, which lets an
// unprivileged session change it without a udev rule. Reads go to sysfs.
type Logind struct {
	Root   string
	Device string

	// Call overrides the D-Bus call, for tests.
	Call func(subsystem, name string, value uint32) error
}

func (l *Logind) Brightness() (int, error) {
	info, err := displayinfo.GetDisplayInfo(l.Root, l.Device)
	if err != nil {
		return 0, err
	}
	return info.Level, nil
}

func (l *Logind) Quantize(percent int) int {
	return quantizeFirst(l.Root, l.Device, percent)
}

func (l *Logind) SetBrightness(percent int) error {
	devices, err := displayinfo.Devices(l.Root, l.Device)
	if err != nil {
		return err
	}

	call := l.Call
	if call == nil {
		call = logindCall
	}

	for _, d := range devices {
		if err := call("backlight", d.Name, uint32(d.Raw(percent))); err != nil {
			return fmt.Errorf("failed to set brightness on %s: %w", d.Name, err)
		}
	}
	return nil
}

func logindCall(subsystem, name string, value uint32) error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("failed to connect to system bus: %w", err)
	}
	defer conn.Close()

	obj := conn.Object(logindDest, dbus.ObjectPath(logindSessionPath))
	if err := obj.Call(logindSetMethod, 0, subsystem, name, value).Store(); err != nil {
		return fmt.Errorf("logind SetBrightness(%s, %d): %w", name, value, err)
	}
	return nil
}
