package operation

import (
	"fmt"
)

// BackendConfig selects the brightness driver and overlay sink.
type BackendConfig struct {
	Driver     string // sysfs | logind | brightnessctl | ddc | none
	Device     string
	SysfsRoot  string
	Overlay    string // eww | window | none
	OverlayVar string
}

// New builds the Display described by cfg.
func New(cfg BackendConfig) (*Display, error) {
	var driver BrightnessDriver
	switch cfg.Driver {
	case "sysfs":
		driver = &Sysfs{Root: cfg.SysfsRoot, Device: cfg.Device}
	case "logind", "":
		driver = &Logind{Root: cfg.SysfsRoot, Device: cfg.Device}
	case "brightnessctl":
		driver = &Brightnessctl{Device: cfg.Device}
	case "ddc":
		d, err := newDDC()
		if err != nil {
			return nil, err
		}
		driver = d
	case "none":
		driver = NewMemory(100)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Driver)
	}

	var overlay OverlaySink
	switch cfg.Overlay {
	case "eww":
		overlay = &Eww{Var: cfg.OverlayVar}
	case "window":
		w, err := newWindowOverlay()
		if err != nil {
			return nil, err
		}
		overlay = w
	case "none", "":
		overlay = NoOverlay{}
	default:
		return nil, fmt.Errorf("unknown overlay %q", cfg.Overlay)
	}

	return NewDisplay(driver, overlay), nil
}
