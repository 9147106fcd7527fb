//go:build windows

package operation

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	dxva2  = windows.NewLazySystemDLL("dxva2.dll")

	procEnumDisplayMonitors                     = user32.NewProc("EnumDisplayMonitors")
	procGetNumberOfPhysicalMonitorsFromHMONITOR = dxva2.NewProc("GetNumberOfPhysicalMonitorsFromHMONITOR")
	procGetPhysicalMonitorsFromHMONITOR         = dxva2.NewProc("GetPhysicalMonitorsFromHMONITOR")
	procGetMonitorBrightness                    = dxva2.NewProc("GetMonitorBrightness")
	procSetMonitorBrightness                    = dxva2.NewProc("SetMonitorBrightness")
	procDestroyPhysicalMonitors                 = dxva2.NewProc("DestroyPhysicalMonitors")
)

type physicalMonitor struct {
	handle      windows.Handle
	description [128]uint16
}

var (
	enumOnce     sync.Once
	enumCallback uintptr
	enumMu       sync.Mutex
	enumHandles  []uintptr
)

// DDC drives external monitors over DDC/CI through the DXVA2 API.
type DDC struct{}

func newDDC() (BrightnessDriver, error) {
	if err := dxva2.Load(); err != nil {
		return nil, fmt.Errorf("dxva2.dll unavailable: %w", err)
	}
	return &DDC{}, nil
}

func monitorHandles() ([]uintptr, error) {
	enumOnce.Do(func() {
		enumCallback = windows.NewCallback(func(hmon, hdc, rect, lparam uintptr) uintptr {
			enumHandles = append(enumHandles, hmon)
			return 1
		})
	})

	enumMu.Lock()
	defer enumMu.Unlock()

	enumHandles = nil
	r, _, err := procEnumDisplayMonitors.Call(0, 0, enumCallback, 0)
	if r == 0 {
		return nil, fmt.Errorf("EnumDisplayMonitors: %w", err)
	}
	return append([]uintptr(nil), enumHandles...), nil
}

func physicalMonitors() ([]physicalMonitor, error) {
	handles, err := monitorHandles()
	if err != nil {
		return nil, err
	}

	var out []physicalMonitor
	for _, h := range handles {
		var n uint32
		r, _, _ := procGetNumberOfPhysicalMonitorsFromHMONITOR.Call(h, uintptr(unsafe.Pointer(&n)))
		if r == 0 || n == 0 {
			continue
		}
		mons := make([]physicalMonitor, n)
		r, _, _ = procGetPhysicalMonitorsFromHMONITOR.Call(h, uintptr(n), uintptr(unsafe.Pointer(&mons[0])))
		if r == 0 {
			continue
		}
		out = append(out, mons...)
	}

	if len(out) == 0 {
		return nil, errors.New("no DDC/CI capable monitors found")
	}
	return out, nil
}

func destroyMonitors(mons []physicalMonitor) {
	if len(mons) == 0 {
		return
	}
	procDestroyPhysicalMonitors.Call(uintptr(len(mons)), uintptr(unsafe.Pointer(&mons[0])))
}

func monitorRange(m physicalMonitor) (lo, cur, hi uint32, err error) {
	r, _, cerr := procGetMonitorBrightness.Call(
		uintptr(m.handle),
		uintptr(unsafe.Pointer(&lo)),
		uintptr(unsafe.Pointer(&cur)),
		uintptr(unsafe.Pointer(&hi)),
	)
	if r == 0 {
		return 0, 0, 0, fmt.Errorf("GetMonitorBrightness: %w", cerr)
	}
	return lo, cur, hi, nil
}

func (d *DDC) Brightness() (int, error) {
	mons, err := physicalMonitors()
	if err != nil {
		return 0, err
	}
	defer destroyMonitors(mons)

	lo, cur, hi, err := monitorRange(mons[0])
	if err != nil {
		return 0, err
	}
	return ddcPercent(lo, cur, hi), nil
}

func (d *DDC) SetBrightness(percent int) error {
	mons, err := physicalMonitors()
	if err != nil {
		return err
	}
	defer destroyMonitors(mons)

	for _, m := range mons {
		lo, _, hi, err := monitorRange(m)
		if err != nil {
			return err
		}
		r, _, err := procSetMonitorBrightness.Call(uintptr(m.handle), uintptr(ddcRaw(lo, hi, percent)))
		if r == 0 {
			return fmt.Errorf("SetMonitorBrightness: %w", err)
		}
	}
	return nil
}
