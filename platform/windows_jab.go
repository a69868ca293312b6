// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

//go:build windows

package platform

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/mediar-ai/terminator-sub003/types"
)

// jabBridge wraps the Windows Access Bridge DLL that Java UIs expose their
// accessibility through. UIA sees a Java window as an opaque pane; when a
// window's class marks it as Java, child queries route through the bridge
// instead, surfacing JAB roles under the same Node type so the selector
// engine never knows the difference.
//
// The bridge is optional: when the DLL is not installed, loadJABBridge
// returns nil and Java windows simply expose whatever UIA can see.
type jabBridge struct {
	dll *windows.LazyDLL

	procWindowsRun                     *windows.LazyProc
	procIsJavaWindow                   *windows.LazyProc
	procGetAccessibleContextFromHWND   *windows.LazyProc
	procGetAccessibleContextInfo       *windows.LazyProc
	procGetAccessibleChildFromContext  *windows.LazyProc
	procReleaseJavaObject              *windows.LazyProc
	procRequestFocus                   *windows.LazyProc
	procDoAccessibleActions            *windows.LazyProc
}

func loadJABBridge() *jabBridge {
	dll := windows.NewLazySystemDLL("WindowsAccessBridge-64.dll")
	if dll.Load() != nil {
		return nil
	}
	b := &jabBridge{
		dll:                               dll,
		procWindowsRun:                    dll.NewProc("Windows_run"),
		procIsJavaWindow:                  dll.NewProc("isJavaWindow"),
		procGetAccessibleContextFromHWND:  dll.NewProc("getAccessibleContextFromHWND"),
		procGetAccessibleContextInfo:      dll.NewProc("getAccessibleContextInfo"),
		procGetAccessibleChildFromContext: dll.NewProc("getAccessibleChildFromContext"),
		procReleaseJavaObject:             dll.NewProc("releaseJavaContext"),
		procRequestFocus:                  dll.NewProc("requestFocus"),
		procDoAccessibleActions:           dll.NewProc("doAccessibleActions"),
	}
	b.procWindowsRun.Call()
	return b
}

// isJavaWindowClass reports whether a window class string names an AWT or
// Swing top-level, the signal to route through the bridge.
func (b *jabBridge) isJavaWindowClass(class string) bool {
	return strings.HasPrefix(class, "SunAwt")
}

// jabContextInfo mirrors the bridge's AccessibleContextInfo struct. Text
// fields are fixed UTF-16 buffers.
type jabContextInfo struct {
	name        [1024]uint16
	description [1024]uint16
	role        [256]uint16
	roleEnUS    [256]uint16
	states      [256]uint16
	statesEnUS  [256]uint16
	indexInParent int32
	childrenCount int32
	x, y          int32
	width, height int32
	accessibleComponent int32
	accessibleAction    int32
	accessibleSelection int32
	accessibleText      int32
	accessibleInterfaces int32
}

func jabString(buf []uint16) string {
	for i, c := range buf {
		if c == 0 {
			return string(utf16.Decode(buf[:i]))
		}
	}
	return string(utf16.Decode(buf))
}

// childrenForWindow resolves a UIA window node to its JAB root and wraps
// the root's children. Returns ok=false when the window is not actually
// bridge-reachable, so the caller falls back to UIA traversal.
func (b *jabBridge) childrenForWindow(n *winNode) ([]types.Node, bool) {
	hwnd := b.hwndOf(n)
	if hwnd == 0 {
		return nil, false
	}
	isJava, _, _ := b.procIsJavaWindow.Call(hwnd)
	if isJava == 0 {
		return nil, false
	}
	var vmID int32
	var ac uintptr
	ok, _, _ := b.procGetAccessibleContextFromHWND.Call(hwnd, uintptr(unsafe.Pointer(&vmID)), uintptr(unsafe.Pointer(&ac)))
	if ok == 0 || ac == 0 {
		return nil, false
	}
	root := &jabNode{bridge: b, vmID: vmID, ac: ac, pid: n.pid}
	root.id = fmt.Sprintf("jab-%d-%x", vmID, ac)
	kids, err := root.Children(context.Background())
	if err != nil {
		return nil, false
	}
	return kids, true
}

func (b *jabBridge) hwndOf(n *winNode) uintptr {
	// The UIA NativeWindowHandle property (slot 39) is the HWND.
	const elemNativeWindowHandle = 39
	var hwnd uintptr
	if _, err := comCall(n.elem, elemNativeWindowHandle, uintptr(unsafe.Pointer(&hwnd))); err != nil {
		return 0
	}
	return hwnd
}

func (b *jabBridge) contextInfo(vmID int32, ac uintptr) (*jabContextInfo, error) {
	var info jabContextInfo
	ok, _, _ := b.procGetAccessibleContextInfo.Call(uintptr(vmID), ac, uintptr(unsafe.Pointer(&info)))
	if ok == 0 {
		return nil, &types.AutomationError{Kind: types.KindStaleElement, Message: "JAB context no longer exists"}
	}
	return &info, nil
}

// jabNode is one Java accessible context under the shared Node surface.
type jabNode struct {
	bridge *jabBridge
	vmID   int32
	ac     uintptr
	id     string
	pid    int
	parent *jabNode
}

var _ types.Node = (*jabNode)(nil)

func (n *jabNode) HandleID() string { return n.id }
func (n *jabNode) ProcessID() int   { return n.pid }

func (n *jabNode) AccessibilityID() (string, error) { return n.id, nil }
func (n *jabNode) NativeID() string                 { return "" }
func (n *jabNode) Variant() types.Variant           { return types.VariantJavaAccessBridge }

func (n *jabNode) info() (*jabContextInfo, error) {
	return n.bridge.contextInfo(n.vmID, n.ac)
}

func (n *jabNode) Role() (string, error) {
	info, err := n.info()
	if err != nil {
		return "", err
	}
	return jabString(info.roleEnUS[:]), nil
}

func (n *jabNode) LocalizedRole() (string, error) {
	info, err := n.info()
	if err != nil {
		return "", err
	}
	return jabString(info.role[:]), nil
}

func (n *jabNode) ClassName() (string, error) { return "", nil }

func (n *jabNode) Name() (string, error) {
	info, err := n.info()
	if err != nil {
		return "", err
	}
	return jabString(info.name[:]), nil
}

func (n *jabNode) Value() (string, error) { return "", nil }

func (n *jabNode) Description() (string, error) {
	info, err := n.info()
	if err != nil {
		return "", err
	}
	return jabString(info.description[:]), nil
}

func (n *jabNode) HelpText() (string, error) { return "", nil }

func (n *jabNode) Bounds() (types.Bounds, error) {
	info, err := n.info()
	if err != nil {
		return types.Bounds{}, err
	}
	return types.Bounds{
		X:      float64(info.x),
		Y:      float64(info.y),
		Width:  float64(info.width),
		Height: float64(info.height),
	}, nil
}

func (n *jabNode) hasState(state string) (bool, error) {
	info, err := n.info()
	if err != nil {
		return false, err
	}
	states := strings.Split(jabString(info.statesEnUS[:]), ",")
	for _, s := range states {
		if strings.EqualFold(strings.TrimSpace(s), state) {
			return true, nil
		}
	}
	return false, nil
}

func (n *jabNode) IsVisible() (bool, error)   { return n.hasState("showing") }
func (n *jabNode) IsOffscreen() (bool, error) {
	showing, err := n.hasState("showing")
	return !showing, err
}
func (n *jabNode) IsEnabled() (bool, error)           { return n.hasState("enabled") }
func (n *jabNode) IsFocused() (bool, error)           { return n.hasState("focused") }
func (n *jabNode) IsSelected() (bool, error)          { return n.hasState("selected") }
func (n *jabNode) IsKeyboardFocusable() (bool, error) { return n.hasState("focusable") }
func (n *jabNode) IsToggleOn() (bool, error)          { return n.hasState("checked") }
func (n *jabNode) IsExpanded() (bool, error)          { return n.hasState("expanded") }

func (n *jabNode) Attribute(ctx context.Context, key string) (string, error) {
	switch strings.ToLower(key) {
	case "name":
		return n.Name()
	case "description":
		return n.Description()
	default:
		return "", nil
	}
}

func (n *jabNode) Parent(ctx context.Context) (types.Node, error) {
	if n.parent == nil {
		return nil, nil
	}
	return n.parent, nil
}

func (n *jabNode) Children(ctx context.Context) ([]types.Node, error) {
	info, err := n.info()
	if err != nil {
		return nil, err
	}
	out := make([]types.Node, 0, info.childrenCount)
	for i := int32(0); i < info.childrenCount; i++ {
		child, _, _ := n.bridge.procGetAccessibleChildFromContext.Call(uintptr(n.vmID), n.ac, uintptr(i))
		if child == 0 {
			continue
		}
		c := &jabNode{
			bridge: n.bridge,
			vmID:   n.vmID,
			ac:     child,
			id:     fmt.Sprintf("jab-%d-%x", n.vmID, child),
			pid:    n.pid,
			parent: n,
		}
		out = append(out, c)
	}
	return out, nil
}

func (n *jabNode) Window(ctx context.Context) (types.Node, error) {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur, nil
}
