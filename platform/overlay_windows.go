// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

//go:build windows

package platform

import (
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/mediar-ai/terminator-sub003/types"
)

var (
	procRegisterClassW      = user32.NewProc("RegisterClassW")
	procCreateWindowExW     = user32.NewProc("CreateWindowExW")
	procDestroyWindow       = user32.NewProc("DestroyWindow")
	procDefWindowProcW      = user32.NewProc("DefWindowProcW")
	procShowWindow          = user32.NewProc("ShowWindow")
	procSetLayeredAttrs     = user32.NewProc("SetLayeredWindowAttributes")
	procGetModuleHandleW    = windows.NewLazySystemDLL("kernel32.dll").NewProc("GetModuleHandleW")
)

const (
	wsPopup          = 0x80000000
	wsExLayered      = 0x00080000
	wsExTransparent  = 0x00000020
	wsExTopmost      = 0x00000008
	wsExToolWindow   = 0x00000080
	wsExNoActivate   = 0x08000000
	swShowNoActivate = 4
	lwaAlpha         = 0x2

	overlayAlpha = 96 // translucent highlight
)

var (
	overlayClassOnce sync.Once
	overlayClassAtom uintptr
)

func overlayClassName() *uint16 {
	p, _ := syscall.UTF16PtrFromString("TerminatorOverlay")
	return p
}

func registerOverlayClass() {
	overlayClassOnce.Do(func() {
		type wndClass struct {
			style      uint32
			wndProc    uintptr
			clsExtra   int32
			wndExtra   int32
			instance   uintptr
			icon       uintptr
			cursor     uintptr
			background uintptr
			menuName   *uint16
			className  *uint16
		}
		instance, _, _ := procGetModuleHandleW.Call(0)
		proc := syscall.NewCallback(func(hwnd, msg, wparam, lparam uintptr) uintptr {
			ret, _, _ := procDefWindowProcW.Call(hwnd, msg, wparam, lparam)
			return ret
		})
		const colorWindow = 5
		wc := wndClass{
			wndProc:    proc,
			instance:   instance,
			background: colorWindow + 1,
			className:  overlayClassName(),
		}
		overlayClassAtom, _, _ = procRegisterClassW.Call(uintptr(unsafe.Pointer(&wc)))
	})
}

// windowsOverlay is a set of layered, click-through, top-most popup
// windows, one per annotation shape.
type windowsOverlay struct {
	mu    sync.Mutex
	hwnds []uintptr
}

func (o *windowsOverlay) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, h := range o.hwnds {
		procDestroyWindow.Call(h)
	}
	o.hwnds = nil
	return nil
}

// showWindowsOverlay materializes shapes as highlight windows pinned over
// the anchor window's coordinate space.
func showWindowsOverlay(shapes []types.OverlayShape, anchor types.Node) (types.OverlayHandle, error) {
	registerOverlayClass()
	anchorBounds, err := anchor.Bounds()
	if err != nil {
		return nil, err
	}
	o := &windowsOverlay{}
	for _, s := range shapes {
		x := int32(anchorBounds.X + s.Bounds.X)
		y := int32(anchorBounds.Y + s.Bounds.Y)
		w := int32(s.Bounds.Width)
		h := int32(s.Bounds.Height)
		if w <= 0 || h <= 0 {
			continue
		}
		hwnd, _, _ := procCreateWindowExW.Call(
			wsExLayered|wsExTransparent|wsExTopmost|wsExToolWindow|wsExNoActivate,
			uintptr(unsafe.Pointer(overlayClassName())),
			0,
			wsPopup,
			uintptr(x), uintptr(y), uintptr(w), uintptr(h),
			0, 0, 0, 0,
		)
		if hwnd == 0 {
			o.Close()
			return nil, types.NewPlatformError("overlay", "create-window", "CreateWindowExW failed", nil)
		}
		procSetLayeredAttrs.Call(hwnd, 0, overlayAlpha, lwaAlpha)
		procShowWindow.Call(hwnd, swShowNoActivate)
		o.hwnds = append(o.hwnds, hwnd)
	}
	return o, nil
}
