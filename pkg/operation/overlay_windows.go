//go:build windows

package operation

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	gdi32    = windows.NewLazySystemDLL("gdi32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procGetModuleHandleW           = kernel32.NewProc("GetModuleHandleW")
	procGetStockObject             = gdi32.NewProc("GetStockObject")
	procRegisterClassExW           = user32.NewProc("RegisterClassExW")
	procCreateWindowExW            = user32.NewProc("CreateWindowExW")
	procDefWindowProcW             = user32.NewProc("DefWindowProcW")
	procGetMessageW                = user32.NewProc("GetMessageW")
	procTranslateMessage           = user32.NewProc("TranslateMessage")
	procDispatchMessageW           = user32.NewProc("DispatchMessageW")
	procSendMessageW               = user32.NewProc("SendMessageW")
	procPostQuitMessage            = user32.NewProc("PostQuitMessage")
	procSetLayeredWindowAttributes = user32.NewProc("SetLayeredWindowAttributes")
	procShowWindow                 = user32.NewProc("ShowWindow")
	procGetSystemMetrics           = user32.NewProc("GetSystemMetrics")
)

const (
	wsPopup         = 0x80000000
	wsExTopmost     = 0x00000008
	wsExTransparent = 0x00000020
	wsExToolWindow  = 0x00000080
	wsExLayered     = 0x00080000
	wsExNoActivate  = 0x08000000

	smXVirtualScreen  = 76
	smYVirtualScreen  = 77
	smCXVirtualScreen = 78
	smCYVirtualScreen = 79

	blackBrush       = 4
	lwaAlpha         = 0x2
	swHide           = 0
	swShowNoActivate = 4

	wmDestroy  = 0x0002
	wmSetAlpha = 0x8000 + 1 // WM_APP + 1
)

type wndClassEx struct {
	size       uint32
	style      uint32
	wndProc    uintptr
	clsExtra   int32
	wndExtra   int32
	instance   windows.Handle
	icon       windows.Handle
	cursor     windows.Handle
	background windows.Handle
	menuName   *uint16
	className  *uint16
	iconSm     windows.Handle
}

type msg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      struct{ x, y int32 }
	private uint32
}

var (
	classOnce sync.Once
	classErr  error
	className = windows.StringToUTF16Ptr("LuxflexDimmer")
)

// Window is a black, click-through, always-on-top layered window spanning
// the virtual screen. Its opacity is the overlay alpha; alpha 0 hides it.
type Window struct {
	hwnd uintptr
}

func newWindowOverlay() (OverlaySink, error) {
	ready := make(chan error, 1)
	w := &Window{}
	go w.run(ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return w, nil
}

func overlayProc(hwnd, message, wParam, lParam uintptr) uintptr {
	switch message {
	case wmSetAlpha:
		alpha := byte(wParam)
		if alpha == 0 {
			procShowWindow.Call(hwnd, swHide)
			return 1
		}
		r, _, _ := procSetLayeredWindowAttributes.Call(hwnd, 0, uintptr(alpha), lwaAlpha)
		if r == 0 {
			return 0
		}
		procShowWindow.Call(hwnd, swShowNoActivate)
		return 1
	case wmDestroy:
		procPostQuitMessage.Call(0)
		return 0
	}
	r, _, _ := procDefWindowProcW.Call(hwnd, message, wParam, lParam)
	return r
}

func registerClass(instance uintptr) error {
	classOnce.Do(func() {
		brush, _, _ := procGetStockObject.Call(blackBrush)
		wc := wndClassEx{
			wndProc:    windows.NewCallback(overlayProc),
			instance:   windows.Handle(instance),
			background: windows.Handle(brush),
			className:  className,
		}
		wc.size = uint32(unsafe.Sizeof(wc))
		if r, _, err := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc))); r == 0 {
			classErr = fmt.Errorf("RegisterClassExW: %w", err)
		}
	})
	return classErr
}

// run owns the window. Windows delivers its messages to the creating
// thread, so the goroutine stays locked to it.
func (w *Window) run(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	instance, _, _ := procGetModuleHandleW.Call(0)
	if err := registerClass(instance); err != nil {
		ready <- err
		return
	}

	x, _, _ := procGetSystemMetrics.Call(smXVirtualScreen)
	y, _, _ := procGetSystemMetrics.Call(smYVirtualScreen)
	cx, _, _ := procGetSystemMetrics.Call(smCXVirtualScreen)
	cy, _, _ := procGetSystemMetrics.Call(smCYVirtualScreen)

	hwnd, _, err := procCreateWindowExW.Call(
		wsExLayered|wsExTransparent|wsExTopmost|wsExToolWindow|wsExNoActivate,
		uintptr(unsafe.Pointer(className)),
		0,
		wsPopup,
		uintptr(int32(x)), uintptr(int32(y)), cx, cy,
		0, 0, instance, 0,
	)
	if hwnd == 0 {
		ready <- fmt.Errorf("CreateWindowExW: %w", err)
		return
	}
	w.hwnd = hwnd
	ready <- nil

	var m msg
	for {
		r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(r) <= 0 {
			return
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}

func (w *Window) SetOverlayAlpha(alpha int) error {
	if alpha < 0 {
		alpha = 0
	} else if alpha > 255 {
		alpha = 255
	}
	r, _, _ := procSendMessageW.Call(w.hwnd, wmSetAlpha, uintptr(alpha), 0)
	if r == 0 {
		return fmt.Errorf("failed to set overlay alpha %d", alpha)
	}
	return nil
}
