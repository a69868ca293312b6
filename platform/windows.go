// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

//go:build windows

package platform

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"syscall"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/mediar-ai/terminator-sub003/types"
)

// newNative builds the Windows UI Automation backend.
func newNative(ctx context.Context) (types.Backend, error) {
	return newWindowsBackend()
}

type comGUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

var (
	clsidCUIAutomation = comGUID{0xff48dba4, 0x60ef, 0x4201, [8]byte{0xaa, 0x87, 0x54, 0x10, 0x3e, 0xef, 0x59, 0x4e}}
	iidIUIAutomation   = comGUID{0x30cbe57d, 0xd9d0, 0x452a, [8]byte{0xab, 0x13, 0x7a, 0xc5, 0xac, 0x48, 0x25, 0xee}}
)

var (
	ole32                 = windows.NewLazySystemDLL("ole32.dll")
	procCoInitializeEx    = ole32.NewProc("CoInitializeEx")
	procCoCreateInstance  = ole32.NewProc("CoCreateInstance")
	oleaut32              = windows.NewLazySystemDLL("oleaut32.dll")
	procSysStringLen      = oleaut32.NewProc("SysStringLen")
	procSysFreeString     = oleaut32.NewProc("SysFreeString")
	procVariantClear      = oleaut32.NewProc("VariantClear")
	user32                = windows.NewLazySystemDLL("user32.dll")
	procSendInput         = user32.NewProc("SendInput")
	procSetCursorPos      = user32.NewProc("SetCursorPos")
	procSystemParameters  = user32.NewProc("SystemParametersInfoW")
	procEnumWindows       = user32.NewProc("EnumWindows")
	procIsWindowVisible   = user32.NewProc("IsWindowVisible")
	procGetWindowTextW    = user32.NewProc("GetWindowTextW")
	procGetWindowThread   = user32.NewProc("GetWindowThreadProcessId")
	procGetClassNameW     = user32.NewProc("GetClassNameW")
	procGetDC             = user32.NewProc("GetDC")
	procReleaseDC         = user32.NewProc("ReleaseDC")
	gdi32                 = windows.NewLazySystemDLL("gdi32.dll")
	procCreateCompatDC    = gdi32.NewProc("CreateCompatibleDC")
	procCreateDIBSection  = gdi32.NewProc("CreateDIBSection")
	procSelectObject      = gdi32.NewProc("SelectObject")
	procBitBlt            = gdi32.NewProc("BitBlt")
	procDeleteDC          = gdi32.NewProc("DeleteDC")
	procDeleteObject      = gdi32.NewProc("DeleteObject")
)

// IUIAutomation vtable slots used here.
const (
	uiaGetRootElement     = 5
	uiaElementFromHandle  = 6
	uiaGetFocusedElement  = 8
	uiaControlViewWalker  = 14
)

// IUIAutomationElement vtable slots.
const (
	elemSetFocus             = 3
	elemGetRuntimeID         = 4
	elemGetCurrentPattern    = 16
	elemProcessID            = 23
	elemControlType          = 24
	elemLocalizedControlType = 25
	elemName                 = 26
	elemHasKeyboardFocus     = 29
	elemIsKeyboardFocusable  = 30
	elemIsEnabled            = 31
	elemAutomationID         = 32
	elemClassName            = 33
	elemHelpText             = 34
	elemIsOffscreen          = 41
	elemBoundingRectangle    = 46
	elemGetCurrentPropVal    = 10
)

// IUIAutomationTreeWalker vtable slots.
const (
	walkerGetParent      = 3
	walkerGetFirstChild  = 4
	walkerGetNextSibling = 6
)

// UIA pattern and property ids.
const (
	patternInvoke        = 10000
	patternValue         = 10002
	patternExpand        = 10005
	patternSelectionItem = 10010
	patternToggle        = 10015
	patternScrollItem    = 10017

	propValueValue       = 30045
	propFullDescription  = 30159
	propIsSelected       = 30079 // SelectionItem.IsSelected
	propToggleState      = 30086
	propExpandState      = 30070
)

const comRelease = 2

func comCall(obj uintptr, slot int, args ...uintptr) (uintptr, error) {
	if obj == 0 {
		return 0, &types.AutomationError{Kind: types.KindStaleElement, Message: "released COM object"}
	}
	vtbl := *(*uintptr)(unsafe.Pointer(obj))
	fn := *(*uintptr)(unsafe.Pointer(vtbl + uintptr(slot)*unsafe.Sizeof(uintptr(0))))
	full := append([]uintptr{obj}, args...)
	hr, _, _ := syscall.SyscallN(fn, full...)
	if int32(hr) < 0 {
		return hr, types.NewPlatformError("com", fmt.Sprintf("0x%08x", uint32(hr)), "COM call failed", nil)
	}
	return hr, nil
}

func comReleaseObj(obj uintptr) {
	if obj != 0 {
		vtbl := *(*uintptr)(unsafe.Pointer(obj))
		fn := *(*uintptr)(unsafe.Pointer(vtbl + comRelease*unsafe.Sizeof(uintptr(0))))
		syscall.SyscallN(fn, obj)
	}
}

func bstrToString(b uintptr) string {
	if b == 0 {
		return ""
	}
	n, _, _ := procSysStringLen.Call(b)
	if n == 0 {
		return ""
	}
	buf := unsafe.Slice((*uint16)(unsafe.Pointer(b)), n)
	return string(utf16.Decode(buf))
}

func freeBSTR(b uintptr) {
	if b != 0 {
		procSysFreeString.Call(b)
	}
}

// variant mirrors the Win32 VARIANT layout on 64-bit.
type variant struct {
	vt       uint16
	r1, r2, r3 uint16
	val      uint64
	_        uint64
}

const (
	vtBool = 11
	vtBSTR = 8
	vtI4   = 3
)

func (v *variant) clear() { procVariantClear.Call(uintptr(unsafe.Pointer(v))) }

type winBackend struct {
	automation uintptr // IUIAutomation*
	walker     uintptr // IUIAutomationTreeWalker*, control view
	overlays   *overlayManager
	jab        *jabBridge
}

var _ types.Backend = (*winBackend)(nil)

func newWindowsBackend() (*winBackend, error) {
	const coinitApartmentThreaded = 0x2
	procCoInitializeEx.Call(0, coinitApartmentThreaded)

	var automation uintptr
	const clsctxInprocServer = 0x1
	hr, _, _ := procCoCreateInstance.Call(
		uintptr(unsafe.Pointer(&clsidCUIAutomation)),
		0,
		clsctxInprocServer,
		uintptr(unsafe.Pointer(&iidIUIAutomation)),
		uintptr(unsafe.Pointer(&automation)),
	)
	if int32(hr) < 0 || automation == 0 {
		return nil, types.NewPlatformError("init", fmt.Sprintf("0x%08x", uint32(hr)), "CoCreateInstance(CUIAutomation) failed", nil)
	}

	var walker uintptr
	if _, err := comCall(automation, uiaControlViewWalker, uintptr(unsafe.Pointer(&walker))); err != nil {
		comReleaseObj(automation)
		return nil, err
	}
	return &winBackend{
		automation: automation,
		walker:     walker,
		overlays:   newOverlayManager(),
		jab:        loadJABBridge(),
	}, nil
}

// winNode wraps one IUIAutomationElement*. The COM reference is released
// by a GC cleanup, and HandleID is the element's UIA runtime id rendered
// as a string, stable for the element's lifetime.
type winNode struct {
	b    *winBackend
	elem uintptr
	id   string
	pid  int
}

var _ types.Node = (*winNode)(nil)

func (b *winBackend) wrapElement(elem uintptr) (*winNode, error) {
	if elem == 0 {
		return nil, nil
	}
	n := &winNode{b: b, elem: elem}
	n.id = b.runtimeID(elem)
	var pid int32
	comCall(elem, elemProcessID, uintptr(unsafe.Pointer(&pid)))
	n.pid = int(pid)
	runtime.AddCleanup(n, func(e uintptr) { comReleaseObj(e) }, elem)
	return n, nil
}

func (b *winBackend) runtimeID(elem uintptr) string {
	// GetRuntimeId returns a SAFEARRAY of int32; render it as a dotted
	// string. On failure fall back to the raw pointer, which is at least
	// unique for the element's lifetime.
	var sa uintptr
	if _, err := comCall(elem, elemGetRuntimeID, uintptr(unsafe.Pointer(&sa))); err != nil || sa == 0 {
		return fmt.Sprintf("uia-%x", elem)
	}
	defer func() {
		procSafeArrayDestroy := oleaut32.NewProc("SafeArrayDestroy")
		procSafeArrayDestroy.Call(sa)
	}()
	var lower, upper int32
	oleaut32.NewProc("SafeArrayGetLBound").Call(sa, 1, uintptr(unsafe.Pointer(&lower)))
	oleaut32.NewProc("SafeArrayGetUBound").Call(sa, 1, uintptr(unsafe.Pointer(&upper)))
	var sb strings.Builder
	for i := lower; i <= upper; i++ {
		var v int32
		idx := i
		oleaut32.NewProc("SafeArrayGetElement").Call(sa, uintptr(unsafe.Pointer(&idx)), uintptr(unsafe.Pointer(&v)))
		if sb.Len() > 0 {
			sb.WriteByte('.')
		}
		fmt.Fprintf(&sb, "%d", v)
	}
	if sb.Len() == 0 {
		return fmt.Sprintf("uia-%x", elem)
	}
	return sb.String()
}

func (b *winBackend) Variant() types.Variant { return types.VariantWindows }

func (b *winBackend) Root(ctx context.Context) (types.Node, error) {
	var elem uintptr
	if _, err := comCall(b.automation, uiaGetRootElement, uintptr(unsafe.Pointer(&elem))); err != nil {
		return nil, err
	}
	return b.wrapElement(elem)
}

func (b *winBackend) Applications(ctx context.Context) ([]types.Node, error) {
	var hwnds []windows.HWND
	cb := syscall.NewCallback(func(hwnd windows.HWND, _ uintptr) uintptr {
		visible, _, _ := procIsWindowVisible.Call(uintptr(hwnd))
		if visible == 0 {
			return 1
		}
		var title [256]uint16
		n, _, _ := procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&title[0])), 256)
		if n == 0 {
			return 1
		}
		hwnds = append(hwnds, hwnd)
		return 1
	})
	procEnumWindows.Call(cb, 0)

	out := make([]types.Node, 0, len(hwnds))
	for _, h := range hwnds {
		var elem uintptr
		if _, err := comCall(b.automation, uiaElementFromHandle, uintptr(h), uintptr(unsafe.Pointer(&elem))); err != nil || elem == 0 {
			continue
		}
		n, err := b.wrapElement(elem)
		if err != nil || n == nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (b *winBackend) FocusedElement(ctx context.Context) (types.Node, error) {
	var elem uintptr
	if _, err := comCall(b.automation, uiaGetFocusedElement, uintptr(unsafe.Pointer(&elem))); err != nil {
		return nil, err
	}
	if elem == 0 {
		return nil, types.NewPlatformError("focused_element", "no-focus", "nothing focused", nil)
	}
	return b.wrapElement(elem)
}

func (b *winBackend) FindWindowByPID(ctx context.Context, pid int) (types.Node, error) {
	apps, err := b.Applications(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range apps {
		if a.ProcessID() == pid {
			return a, nil
		}
	}
	return nil, types.NewPlatformError("find_window_by_pid", "not-found", fmt.Sprintf("no window for pid %d", pid), nil)
}

func (b *winBackend) TopWindowForProcess(ctx context.Context, name string) (types.Node, error) {
	apps, err := b.Applications(ctx)
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(name)
	for _, a := range apps {
		winName, err := a.Name()
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(winName), lower) {
			return a, nil
		}
	}
	return nil, types.NewPlatformError("top_window_for_process", "not-found", fmt.Sprintf("no window for process %q", name), nil)
}

func (b *winBackend) Children(ctx context.Context, n types.Node) ([]types.Node, error) {
	return n.Children(ctx)
}

func (b *winBackend) Parent(ctx context.Context, n types.Node) (types.Node, error) {
	return n.Parent(ctx)
}

func (b *winBackend) WindowOf(ctx context.Context, n types.Node) (types.Node, error) {
	return n.Window(ctx)
}

func (b *winBackend) Attribute(ctx context.Context, n types.Node, key string) (string, error) {
	return n.Attribute(ctx, key)
}

func (b *winBackend) Bounds(ctx context.Context, n types.Node) (types.Bounds, error) {
	return n.Bounds()
}

func (b *winBackend) WorkArea(ctx context.Context) (types.Bounds, error) {
	const spiGetWorkArea = 0x0030
	var rect struct{ left, top, right, bottom int32 }
	ok, _, _ := procSystemParameters.Call(spiGetWorkArea, 0, uintptr(unsafe.Pointer(&rect)), 0)
	if ok == 0 {
		return types.Bounds{}, types.NewPlatformError("work_area", "spi", "SystemParametersInfo(SPI_GETWORKAREA) failed", nil)
	}
	return types.Bounds{
		X:      float64(rect.left),
		Y:      float64(rect.top),
		Width:  float64(rect.right - rect.left),
		Height: float64(rect.bottom - rect.top),
	}, nil
}

// Input synthesis. Mouse events go through SendInput in absolute
// normalized coordinates; keyboard events use KEYEVENTF_UNICODE so any
// code point, not just ASCII, round-trips.

type mouseInput struct {
	typ       uint32
	_         uint32
	dx, dy    int32
	mouseData uint32
	flags     uint32
	time      uint32
	extraInfo uintptr
}

type keyboardInput struct {
	typ       uint32
	_         uint32
	vk        uint16
	scan      uint16
	flags     uint32
	time      uint32
	extraInfo uintptr
	_         [8]byte // pad to the INPUT union size
}

const (
	inputMouse    = 0
	inputKeyboard = 1

	mouseLeftDown   = 0x0002
	mouseLeftUp     = 0x0004
	mouseRightDown  = 0x0008
	mouseRightUp    = 0x0010
	mouseMiddleDown = 0x0020
	mouseMiddleUp   = 0x0040

	keyUnicode = 0x0004
	keyUp      = 0x0002
)

func sendInputs(inputs []keyboardInput) error {
	if len(inputs) == 0 {
		return nil
	}
	n, _, err := procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	if int(n) != len(inputs) {
		return types.NewPlatformError("send_input", "partial", "SendInput injected fewer events than requested", err)
	}
	return nil
}

func (b *winBackend) SynthesizeClick(ctx context.Context, target types.ClickTarget, button types.MouseButton, kind types.ClickType) error {
	var pt types.Point
	if target.Point != nil {
		pt = *target.Point
	} else if target.Node != nil {
		bounds, err := target.Node.Bounds()
		if err != nil {
			return err
		}
		pt = bounds.Center()
	} else {
		return types.NewPlatformError("click", "no-target", "neither node nor point given", nil)
	}

	procSetCursorPos.Call(uintptr(int32(pt.X)), uintptr(int32(pt.Y)))

	var down, up uint32
	switch button {
	case types.ButtonRight:
		down, up = mouseRightDown, mouseRightUp
	case types.ButtonMiddle:
		down, up = mouseMiddleDown, mouseMiddleUp
	default:
		down, up = mouseLeftDown, mouseLeftUp
	}
	presses := 1
	if kind == types.ClickDouble {
		presses = 2
	}
	for i := 0; i < presses; i++ {
		events := []mouseInput{
			{typ: inputMouse, flags: down},
			{typ: inputMouse, flags: up},
		}
		n, _, err := procSendInput.Call(
			uintptr(len(events)),
			uintptr(unsafe.Pointer(&events[0])),
			unsafe.Sizeof(events[0]),
		)
		if int(n) != len(events) {
			return types.NewPlatformError("click", "send-input", "SendInput dropped mouse events", err)
		}
	}
	return nil
}

// namedVirtualKeys maps the key-spec names to Windows virtual-key codes.
var namedVirtualKeys = map[string]uint16{
	"enter": 0x0D, "tab": 0x09, "esc": 0x1B, "escape": 0x1B,
	"space": 0x20, "backspace": 0x08, "delete": 0x2E, "del": 0x2E,
	"insert": 0x2D, "ins": 0x2D, "home": 0x24, "end": 0x23,
	"pgup": 0x21, "pgdn": 0x22, "up": 0x26, "down": 0x28,
	"left": 0x25, "right": 0x27, "win": 0x5B, "apps": 0x5D,
	"printscreen": 0x2C, "capslock": 0x14, "numlock": 0x90,
}

func virtualKeyFor(name string) (uint16, bool) {
	if vk, ok := namedVirtualKeys[name]; ok {
		return vk, true
	}
	if isFunctionKey(name) {
		var n int
		fmt.Sscanf(name[1:], "%d", &n)
		return uint16(0x70 + n - 1), true // VK_F1 == 0x70
	}
	return 0, false
}

const (
	vkControl = 0x11
	vkShift   = 0x10
	vkMenu    = 0x12
)

func (b *winBackend) SynthesizeKeys(ctx context.Context, n types.Node, keys types.KeySpec) error {
	chords, err := ParseKeySpec(keys)
	if err != nil {
		return types.NewPlatformError("synthesize_keys", "bad-keyspec", err.Error(), err)
	}
	if err := b.Focus(ctx, n); err != nil {
		return err
	}
	var events []keyboardInput
	for _, c := range chords {
		var mods []uint16
		if c.Ctrl {
			mods = append(mods, vkControl)
		}
		if c.Shift {
			mods = append(mods, vkShift)
		}
		if c.Alt {
			mods = append(mods, vkMenu)
		}
		for _, m := range mods {
			events = append(events, keyboardInput{typ: inputKeyboard, vk: m})
		}
		if c.Key != "" {
			vk, ok := virtualKeyFor(c.Key)
			if !ok {
				return types.NewPlatformError("synthesize_keys", "bad-key", fmt.Sprintf("unknown key %q", c.Key), nil)
			}
			events = append(events,
				keyboardInput{typ: inputKeyboard, vk: vk},
				keyboardInput{typ: inputKeyboard, vk: vk, flags: keyUp},
			)
		} else {
			for _, unit := range utf16.Encode([]rune{c.Literal}) {
				events = append(events,
					keyboardInput{typ: inputKeyboard, scan: unit, flags: keyUnicode},
					keyboardInput{typ: inputKeyboard, scan: unit, flags: keyUnicode | keyUp},
				)
			}
		}
		for i := len(mods) - 1; i >= 0; i-- {
			events = append(events, keyboardInput{typ: inputKeyboard, vk: mods[i], flags: keyUp})
		}
	}
	return sendInputs(events)
}

func (b *winBackend) TypeText(ctx context.Context, n types.Node, text string) error {
	if err := b.Focus(ctx, n); err != nil {
		return err
	}
	var events []keyboardInput
	for _, unit := range utf16.Encode([]rune(text)) {
		events = append(events,
			keyboardInput{typ: inputKeyboard, scan: unit, flags: keyUnicode},
			keyboardInput{typ: inputKeyboard, scan: unit, flags: keyUnicode | keyUp},
		)
	}
	return sendInputs(events)
}

func (b *winBackend) SetValue(ctx context.Context, n types.Node, value string) error {
	wn, err := b.unwrap(n)
	if err != nil {
		return err
	}
	pattern, err := wn.pattern(patternValue)
	if err == nil && pattern != 0 {
		defer comReleaseObj(pattern)
		bstr, err := syscall.UTF16PtrFromString(value)
		if err != nil {
			return types.NewPlatformError("set_value", "utf16", "value contains a NUL byte", err)
		}
		// IUIAutomationValuePattern::SetValue is slot 3.
		if _, err := comCall(pattern, 3, uintptr(unsafe.Pointer(bstr))); err == nil {
			return nil
		}
	}
	// ValuePattern unsupported: focus, select all, type, commit.
	if err := b.Focus(ctx, n); err != nil {
		return err
	}
	if err := b.SynthesizeKeys(ctx, n, "^a"); err != nil {
		return err
	}
	if err := b.TypeText(ctx, n, value); err != nil {
		return err
	}
	return b.SynthesizeKeys(ctx, n, "{Enter}")
}

func (b *winBackend) SetSelected(ctx context.Context, n types.Node, selected bool) error {
	wn, err := b.unwrap(n)
	if err != nil {
		return err
	}
	pattern, err := wn.pattern(patternSelectionItem)
	if err != nil || pattern == 0 {
		return types.NewUnsupported("set_selected")
	}
	defer comReleaseObj(pattern)
	// Select is slot 3, RemoveFromSelection slot 5.
	slot := 3
	if !selected {
		slot = 5
	}
	_, err = comCall(pattern, slot)
	return err
}

func (b *winBackend) Focus(ctx context.Context, n types.Node) error {
	wn, err := b.unwrap(n)
	if err != nil {
		return err
	}
	_, err = comCall(wn.elem, elemSetFocus)
	return err
}

func (b *winBackend) Invoke(ctx context.Context, n types.Node) error {
	wn, err := b.unwrap(n)
	if err != nil {
		return err
	}
	pattern, err := wn.pattern(patternInvoke)
	if err != nil || pattern == 0 {
		return types.NewUnsupported("invoke")
	}
	defer comReleaseObj(pattern)
	_, err = comCall(pattern, 3) // IUIAutomationInvokePattern::Invoke
	return err
}

func (b *winBackend) ScrollIntoView(ctx context.Context, n types.Node) error {
	wn, err := b.unwrap(n)
	if err != nil {
		return err
	}
	pattern, err := wn.pattern(patternScrollItem)
	if err != nil || pattern == 0 {
		return types.NewUnsupported("scroll_into_view")
	}
	defer comReleaseObj(pattern)
	_, err = comCall(pattern, 3) // IUIAutomationScrollItemPattern::ScrollIntoView
	return err
}

func (b *winBackend) Scroll(ctx context.Context, n types.Node, dir types.ScrollDirection, amount float64) error {
	// Wheel scrolling at the element's centroid; one unit of amount is one
	// wheel detent (WHEEL_DELTA).
	bounds, err := n.Bounds()
	if err != nil {
		return err
	}
	pt := bounds.Center()
	procSetCursorPos.Call(uintptr(int32(pt.X)), uintptr(int32(pt.Y)))

	const wheelDelta = 120
	const mouseWheel = 0x0800
	const mouseHWheel = 0x1000
	flags := uint32(mouseWheel)
	delta := int32(amount * wheelDelta)
	switch dir {
	case types.ScrollDown:
		delta = -delta
	case types.ScrollLeft:
		flags = mouseHWheel
		delta = -delta
	case types.ScrollRight:
		flags = mouseHWheel
	}
	ev := mouseInput{typ: inputMouse, flags: flags, mouseData: uint32(delta)}
	cnt, _, callErr := procSendInput.Call(1, uintptr(unsafe.Pointer(&ev)), unsafe.Sizeof(ev))
	if cnt != 1 {
		return types.NewPlatformError("scroll", "send-input", "SendInput dropped the wheel event", callErr)
	}
	return nil
}

func (b *winBackend) Capture(ctx context.Context, n types.Node) (types.Bitmap, error) {
	bounds, err := n.Bounds()
	if err != nil {
		return types.Bitmap{}, err
	}
	w, h := int32(bounds.Width), int32(bounds.Height)
	if w <= 0 || h <= 0 {
		return types.Bitmap{}, types.NewPlatformError("capture", "empty-bounds", "element has no on-screen area", nil)
	}

	screen, _, _ := procGetDC.Call(0)
	if screen == 0 {
		return types.Bitmap{}, types.NewPlatformError("capture", "getdc", "GetDC(NULL) failed", nil)
	}
	defer procReleaseDC.Call(0, screen)

	mem, _, _ := procCreateCompatDC.Call(screen)
	if mem == 0 {
		return types.Bitmap{}, types.NewPlatformError("capture", "dc", "CreateCompatibleDC failed", nil)
	}
	defer procDeleteDC.Call(mem)

	type bitmapInfoHeader struct {
		size          uint32
		width, height int32
		planes        uint16
		bitCount      uint16
		compression   uint32
		sizeImage     uint32
		xppm, yppm    int32
		clrUsed       uint32
		clrImportant  uint32
	}
	hdr := bitmapInfoHeader{
		size:     uint32(unsafe.Sizeof(bitmapInfoHeader{})),
		width:    w,
		height:   -h, // top-down
		planes:   1,
		bitCount: 32,
	}
	var bits uintptr
	dib, _, _ := procCreateDIBSection.Call(mem, uintptr(unsafe.Pointer(&hdr)), 0, uintptr(unsafe.Pointer(&bits)), 0, 0)
	if dib == 0 || bits == 0 {
		return types.Bitmap{}, types.NewPlatformError("capture", "dib", "CreateDIBSection failed", nil)
	}
	defer procDeleteObject.Call(dib)

	procSelectObject.Call(mem, dib)
	const srccopy = 0x00CC0020
	ok, _, _ := procBitBlt.Call(mem, 0, 0, uintptr(w), uintptr(h), screen, uintptr(int32(bounds.X)), uintptr(int32(bounds.Y)), srccopy)
	if ok == 0 {
		return types.Bitmap{}, types.NewPlatformError("capture", "bitblt", "BitBlt failed", nil)
	}

	size := int(w) * int(h) * 4
	pixels := make([]byte, size)
	copy(pixels, unsafe.Slice((*byte)(unsafe.Pointer(bits)), size))
	return types.Bitmap{Width: int(w), Height: int(h), Stride: int(w) * 4, Pixels: pixels, BGRA: true}, nil
}

func (b *winBackend) OverlayRectangles(ctx context.Context, shapes []types.OverlayShape, anchor types.Node) (types.OverlayHandle, error) {
	handle, err := showWindowsOverlay(shapes, anchor)
	if err != nil {
		return nil, err
	}
	return b.overlays.replace(anchor.HandleID(), handle), nil
}

func (b *winBackend) unwrap(n types.Node) (*winNode, error) {
	if b.jab != nil {
		if jn, ok := n.(*jabNode); ok {
			return nil, types.NewUnsupported("uia operation on JAB node " + jn.id)
		}
	}
	wn, ok := n.(*winNode)
	if !ok {
		return nil, types.NewPlatformError("unwrap", "foreign-node", "node belongs to a different backend", nil)
	}
	return wn, nil
}

// pattern fetches a UIA control pattern object, returning 0 with nil error
// when the element does not support it.
func (n *winNode) pattern(patternID int) (uintptr, error) {
	var obj uintptr
	if _, err := comCall(n.elem, elemGetCurrentPattern, uintptr(patternID), uintptr(unsafe.Pointer(&obj))); err != nil {
		return 0, err
	}
	return obj, nil
}

func (n *winNode) HandleID() string { return n.id }

func (n *winNode) ProcessID() int { return n.pid }

func (n *winNode) bstrProperty(slot int) (string, error) {
	var b uintptr
	if _, err := comCall(n.elem, slot, uintptr(unsafe.Pointer(&b))); err != nil {
		return "", staleOr(err)
	}
	defer freeBSTR(b)
	return bstrToString(b), nil
}

func (n *winNode) boolProperty(slot int) (bool, error) {
	var v int32
	if _, err := comCall(n.elem, slot, uintptr(unsafe.Pointer(&v))); err != nil {
		return false, staleOr(err)
	}
	return v != 0, nil
}

// staleOr converts the UIA "element not available" failure into a
// StaleElement error; everything else passes through.
func staleOr(err error) error {
	ae, ok := err.(*types.AutomationError)
	if !ok {
		return err
	}
	const uiaElementNotAvailable = "0x80040201"
	if ae.Code == uiaElementNotAvailable {
		return &types.AutomationError{Kind: types.KindStaleElement, Message: "element no longer exists", Cause: err}
	}
	return err
}

func (n *winNode) AccessibilityID() (string, error) { return n.bstrProperty(elemAutomationID) }

func (n *winNode) NativeID() string {
	id, err := n.bstrProperty(elemAutomationID)
	if err != nil {
		return ""
	}
	return id
}

func (n *winNode) Variant() types.Variant { return types.VariantWindows }

// controlTypeNames maps UIA control type ids to the role names the
// selector engine's synonym table understands.
var controlTypeNames = map[int32]string{
	50000: "Button", 50001: "Calendar", 50002: "CheckBox", 50003: "ComboBox",
	50004: "Edit", 50005: "Hyperlink", 50006: "Image", 50007: "ListItem",
	50008: "List", 50009: "Menu", 50010: "MenuBar", 50011: "MenuItem",
	50012: "ProgressBar", 50013: "RadioButton", 50014: "ScrollBar",
	50015: "Slider", 50016: "Spinner", 50017: "StatusBar", 50018: "Tab",
	50019: "TabItem", 50020: "Text", 50021: "ToolBar", 50022: "ToolTip",
	50023: "Tree", 50024: "TreeItem", 50025: "Custom", 50026: "Group",
	50027: "Thumb", 50028: "DataGrid", 50029: "DataItem", 50030: "Document",
	50031: "SplitButton", 50032: "Window", 50033: "Pane", 50034: "Header",
	50035: "HeaderItem", 50036: "Table", 50037: "TitleBar", 50038: "Separator",
}

func (n *winNode) Role() (string, error) {
	var ct int32
	if _, err := comCall(n.elem, elemControlType, uintptr(unsafe.Pointer(&ct))); err != nil {
		return "", staleOr(err)
	}
	if name, ok := controlTypeNames[ct]; ok {
		return name, nil
	}
	return fmt.Sprintf("ControlType(%d)", ct), nil
}

func (n *winNode) LocalizedRole() (string, error) { return n.bstrProperty(elemLocalizedControlType) }
func (n *winNode) ClassName() (string, error)     { return n.bstrProperty(elemClassName) }
func (n *winNode) Name() (string, error)          { return n.bstrProperty(elemName) }
func (n *winNode) HelpText() (string, error)      { return n.bstrProperty(elemHelpText) }

func (n *winNode) Value() (string, error) {
	return n.variantStringProperty(propValueValue)
}

func (n *winNode) Description() (string, error) {
	return n.variantStringProperty(propFullDescription)
}

func (n *winNode) variantStringProperty(propID int) (string, error) {
	var v variant
	if _, err := comCall(n.elem, elemGetCurrentPropVal, uintptr(propID), uintptr(unsafe.Pointer(&v))); err != nil {
		return "", staleOr(err)
	}
	defer v.clear()
	if v.vt != vtBSTR {
		return "", nil
	}
	return bstrToString(uintptr(v.val)), nil
}

func (n *winNode) variantBoolProperty(propID int) (bool, error) {
	var v variant
	if _, err := comCall(n.elem, elemGetCurrentPropVal, uintptr(propID), uintptr(unsafe.Pointer(&v))); err != nil {
		return false, staleOr(err)
	}
	defer v.clear()
	if v.vt != vtBool {
		return false, nil
	}
	return int16(v.val) != 0, nil
}

func (n *winNode) Bounds() (types.Bounds, error) {
	var rect struct{ left, top, right, bottom int32 }
	if _, err := comCall(n.elem, elemBoundingRectangle, uintptr(unsafe.Pointer(&rect))); err != nil {
		return types.Bounds{}, staleOr(err)
	}
	return types.Bounds{
		X:      float64(rect.left),
		Y:      float64(rect.top),
		Width:  float64(rect.right - rect.left),
		Height: float64(rect.bottom - rect.top),
	}, nil
}

func (n *winNode) IsVisible() (bool, error) {
	off, err := n.IsOffscreen()
	if err != nil {
		return false, err
	}
	if off {
		return false, nil
	}
	bounds, err := n.Bounds()
	if err != nil {
		return false, err
	}
	if bounds.IsEmpty() {
		return false, nil
	}
	wa, err := n.b.WorkArea(context.Background())
	if err != nil {
		return false, err
	}
	return bounds.X < wa.X+wa.Width && bounds.X+bounds.Width > wa.X &&
		bounds.Y < wa.Y+wa.Height && bounds.Y+bounds.Height > wa.Y, nil
}

func (n *winNode) IsOffscreen() (bool, error) { return n.boolProperty(elemIsOffscreen) }
func (n *winNode) IsEnabled() (bool, error)   { return n.boolProperty(elemIsEnabled) }
func (n *winNode) IsFocused() (bool, error)   { return n.boolProperty(elemHasKeyboardFocus) }
func (n *winNode) IsKeyboardFocusable() (bool, error) {
	return n.boolProperty(elemIsKeyboardFocusable)
}

func (n *winNode) IsSelected() (bool, error) { return n.variantBoolProperty(propIsSelected) }

func (n *winNode) IsToggleOn() (bool, error) {
	var v variant
	if _, err := comCall(n.elem, elemGetCurrentPropVal, uintptr(propToggleState), uintptr(unsafe.Pointer(&v))); err != nil {
		return false, staleOr(err)
	}
	defer v.clear()
	if v.vt != vtI4 {
		return false, nil
	}
	return int32(v.val) == 1, nil // ToggleState_On
}

func (n *winNode) IsExpanded() (bool, error) {
	var v variant
	if _, err := comCall(n.elem, elemGetCurrentPropVal, uintptr(propExpandState), uintptr(unsafe.Pointer(&v))); err != nil {
		return false, staleOr(err)
	}
	defer v.clear()
	if v.vt != vtI4 {
		return false, nil
	}
	return int32(v.val) == 1, nil // ExpandCollapseState_Expanded
}

func (n *winNode) Attribute(ctx context.Context, key string) (string, error) {
	switch strings.ToLower(key) {
	case "name":
		return n.Name()
	case "value":
		return n.Value()
	case "class_name", "classname":
		return n.ClassName()
	case "help_text", "helptext":
		return n.HelpText()
	case "automation_id", "automationid", "native_id":
		return n.bstrProperty(elemAutomationID)
	default:
		return "", nil
	}
}

func (n *winNode) Parent(ctx context.Context) (types.Node, error) {
	var parent uintptr
	if _, err := comCall(n.b.walker, walkerGetParent, n.elem, uintptr(unsafe.Pointer(&parent))); err != nil {
		return nil, staleOr(err)
	}
	if parent == 0 {
		return nil, nil
	}
	return n.b.wrapElement(parent)
}

func (n *winNode) Children(ctx context.Context) ([]types.Node, error) {
	// A JAB-backed Java window answers child queries through the access
	// bridge instead of UIA, under the same Node surface.
	if n.b.jab != nil {
		cls, _ := n.ClassName()
		if n.b.jab.isJavaWindowClass(cls) {
			if kids, ok := n.b.jab.childrenForWindow(n); ok {
				return kids, nil
			}
		}
	}
	var out []types.Node
	var child uintptr
	if _, err := comCall(n.b.walker, walkerGetFirstChild, n.elem, uintptr(unsafe.Pointer(&child))); err != nil {
		return nil, staleOr(err)
	}
	for child != 0 {
		wrapped, err := n.b.wrapElement(child)
		if err != nil {
			return nil, err
		}
		if wrapped != nil {
			out = append(out, wrapped)
		}
		var next uintptr
		if _, err := comCall(n.b.walker, walkerGetNextSibling, child, uintptr(unsafe.Pointer(&next))); err != nil {
			break
		}
		child = next
	}
	return out, nil
}

func (n *winNode) Window(ctx context.Context) (types.Node, error) {
	var cur types.Node = n
	for {
		role, err := cur.Role()
		if err != nil {
			return nil, err
		}
		if role == "Window" || role == "Pane" {
			return cur, nil
		}
		parent, err := cur.Parent(ctx)
		if err != nil || parent == nil {
			return cur, nil
		}
		cur = parent
	}
}
