// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package platform

import (
	"context"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/mediar-ai/terminator-sub003/types"
)

// newNative builds the Linux AT-SPI backend over the accessibility bus.
func newNative(ctx context.Context) (types.Backend, error) {
	return newATSPIBackend(ctx)
}

const (
	atspiAccessibleIface = "org.a11y.atspi.Accessible"
	atspiComponentIface  = "org.a11y.atspi.Component"
	atspiActionIface     = "org.a11y.atspi.Action"
	atspiEditableIface   = "org.a11y.atspi.EditableText"
	atspiSelectionIface  = "org.a11y.atspi.Selection"
	atspiRegistryName    = "org.a11y.atspi.Registry"
	atspiRootPath        = "/org/a11y/atspi/accessible/root"
	atspiDeviceCtrlPath  = "/org/a11y/atspi/registry/deviceeventcontroller"
	atspiDeviceCtrlIface = "org.a11y.atspi.DeviceEventController"

	coordTypeScreen = 0
)

// AT-SPI state bits (AtspiStateType), within the first word of GetState's
// two-word bitset.
const (
	stateChecked   = 4
	stateEnabled   = 8
	stateExpanded  = 10
	stateFocusable = 11
	stateFocused   = 12
	stateSelected  = 23
	stateShowing   = 25
	stateVisible   = 30
)

type atspiBackend struct {
	conn     *dbus.Conn
	overlays *overlayManager
}

var _ types.Backend = (*atspiBackend)(nil)

// newATSPIBackend asks the session bus's accessibility broker for the
// dedicated a11y bus address, then connects to it.
func newATSPIBackend(ctx context.Context) (*atspiBackend, error) {
	session, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, types.NewPlatformError("init", "session-bus", "connecting to the session bus", err)
	}
	var address string
	obj := session.Object("org.a11y.Bus", "/org/a11y/bus")
	if err := obj.CallWithContext(ctx, "org.a11y.Bus.GetAddress", 0).Store(&address); err != nil {
		session.Close()
		return nil, types.NewPlatformError("init", "a11y-bus", "querying the accessibility bus address", err)
	}
	session.Close()

	conn, err := dbus.Connect(address)
	if err != nil {
		return nil, types.NewPlatformError("init", "a11y-connect", "connecting to the accessibility bus", err)
	}
	return &atspiBackend{conn: conn, overlays: newOverlayManager()}, nil
}

// objectRef is the (bus name, object path) pair AT-SPI uses to reference
// an accessible object across the bus.
type objectRef struct {
	Name string
	Path dbus.ObjectPath
}

func (b *atspiBackend) object(ref objectRef) dbus.BusObject {
	return b.conn.Object(ref.Name, ref.Path)
}

func (b *atspiBackend) rootNode() *atspiNode {
	return b.wrapRef(objectRef{Name: atspiRegistryName, Path: atspiRootPath}, nil)
}

func (b *atspiBackend) wrapRef(ref objectRef, parent *atspiNode) *atspiNode {
	return &atspiNode{
		b:      b,
		ref:    ref,
		id:     fmt.Sprintf("%s%s", ref.Name, ref.Path),
		parent: parent,
	}
}

func (b *atspiBackend) Variant() types.Variant { return types.VariantLinux }

func (b *atspiBackend) Root(ctx context.Context) (types.Node, error) {
	return b.rootNode(), nil
}

func (b *atspiBackend) Applications(ctx context.Context) ([]types.Node, error) {
	return b.rootNode().Children(ctx)
}

func (b *atspiBackend) FocusedElement(ctx context.Context) (types.Node, error) {
	// AT-SPI has no direct "focused element" query; walk applications and
	// follow the FOCUSED state down.
	apps, err := b.Applications(ctx)
	if err != nil {
		return nil, err
	}
	for _, app := range apps {
		if found := b.findFocused(ctx, app, 0); found != nil {
			return found, nil
		}
	}
	return nil, types.NewPlatformError("focused_element", "no-focus", "nothing focused", nil)
}

func (b *atspiBackend) findFocused(ctx context.Context, n types.Node, depth int) types.Node {
	if depth > 30 {
		return nil
	}
	focused, err := n.IsFocused()
	if err == nil && focused {
		return n
	}
	children, err := n.Children(ctx)
	if err != nil {
		return nil
	}
	for _, c := range children {
		if found := b.findFocused(ctx, c, depth+1); found != nil {
			return found
		}
	}
	return nil
}

func (b *atspiBackend) FindWindowByPID(ctx context.Context, pid int) (types.Node, error) {
	apps, err := b.Applications(ctx)
	if err != nil {
		return nil, err
	}
	for _, app := range apps {
		if app.ProcessID() == pid {
			frames, err := app.Children(ctx)
			if err != nil || len(frames) == 0 {
				return app, nil
			}
			return frames[0], nil
		}
	}
	return nil, types.NewPlatformError("find_window_by_pid", "not-found", fmt.Sprintf("no window for pid %d", pid), nil)
}

func (b *atspiBackend) TopWindowForProcess(ctx context.Context, name string) (types.Node, error) {
	apps, err := b.Applications(ctx)
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(name)
	for _, app := range apps {
		appName, err := app.Name()
		if err != nil {
			continue
		}
		if !strings.Contains(strings.ToLower(appName), lower) {
			continue
		}
		frames, err := app.Children(ctx)
		if err != nil || len(frames) == 0 {
			return app, nil
		}
		return frames[0], nil
	}
	return nil, types.NewPlatformError("top_window_for_process", "not-found", fmt.Sprintf("no window for process %q", name), nil)
}

func (b *atspiBackend) Children(ctx context.Context, n types.Node) ([]types.Node, error) {
	return n.Children(ctx)
}

func (b *atspiBackend) Parent(ctx context.Context, n types.Node) (types.Node, error) {
	return n.Parent(ctx)
}

func (b *atspiBackend) WindowOf(ctx context.Context, n types.Node) (types.Node, error) {
	return n.Window(ctx)
}

func (b *atspiBackend) Attribute(ctx context.Context, n types.Node, key string) (string, error) {
	return n.Attribute(ctx, key)
}

func (b *atspiBackend) Bounds(ctx context.Context, n types.Node) (types.Bounds, error) {
	return n.Bounds()
}

func (b *atspiBackend) WorkArea(ctx context.Context) (types.Bounds, error) {
	// The desktop root's extents are the full screen; AT-SPI does not
	// expose panel struts, so the work area is the screen itself here.
	root := b.rootNode()
	bounds, err := root.Bounds()
	if err != nil {
		return types.Bounds{}, types.NewPlatformError("work_area", "extents", "reading desktop extents", err)
	}
	return bounds, nil
}

func (b *atspiBackend) deviceController() dbus.BusObject {
	return b.conn.Object(atspiRegistryName, atspiDeviceCtrlPath)
}

func (b *atspiBackend) mouseEvent(ctx context.Context, x, y int32, event string) error {
	call := b.deviceController().CallWithContext(ctx, atspiDeviceCtrlIface+".GenerateMouseEvent", 0, x, y, event)
	if call.Err != nil {
		return types.NewPlatformError("mouse", "generate-mouse-event", "injecting mouse event", call.Err)
	}
	return nil
}

func (b *atspiBackend) SynthesizeClick(ctx context.Context, target types.ClickTarget, button types.MouseButton, kind types.ClickType) error {
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
	btn := "b1"
	switch button {
	case types.ButtonMiddle:
		btn = "b2"
	case types.ButtonRight:
		btn = "b3"
	}
	event := btn + "c"
	if kind == types.ClickDouble {
		event = btn + "d"
	}
	return b.mouseEvent(ctx, int32(pt.X), int32(pt.Y), event)
}

// keySynthString is the AT-SPI KeySynthType for injecting a whole string
// as keystrokes, which keeps non-ASCII code points intact.
const keySynthString = 4

func (b *atspiBackend) keyboardString(ctx context.Context, s string) error {
	call := b.deviceController().CallWithContext(ctx, atspiDeviceCtrlIface+".GenerateKeyboardEvent", 0, int32(0), s, uint32(keySynthString))
	if call.Err != nil {
		return types.NewPlatformError("keyboard", "generate-keyboard-event", "injecting keystrokes", call.Err)
	}
	return nil
}

// keySynthSym injects a single keysym press+release.
const keySynthSym = 3

// namedKeysyms maps key-spec names to X keysyms.
var namedKeysyms = map[string]int32{
	"enter": 0xff0d, "tab": 0xff09, "esc": 0xff1b, "escape": 0xff1b,
	"space": 0x020, "backspace": 0xff08, "delete": 0xffff, "del": 0xffff,
	"insert": 0xff63, "ins": 0xff63, "home": 0xff50, "end": 0xff57,
	"pgup": 0xff55, "pgdn": 0xff56, "up": 0xff52, "down": 0xff54,
	"left": 0xff51, "right": 0xff53, "win": 0xffeb, "apps": 0xff67,
	"printscreen": 0xff61, "capslock": 0xffe5, "numlock": 0xff7f,
}

func keysymFor(name string) (int32, bool) {
	if ks, ok := namedKeysyms[name]; ok {
		return ks, true
	}
	if isFunctionKey(name) {
		var n int
		fmt.Sscanf(name[1:], "%d", &n)
		return 0xffbe + int32(n) - 1, true // XK_F1
	}
	return 0, false
}

func (b *atspiBackend) SynthesizeKeys(ctx context.Context, n types.Node, keys types.KeySpec) error {
	chords, err := ParseKeySpec(keys)
	if err != nil {
		return types.NewPlatformError("synthesize_keys", "bad-keyspec", err.Error(), err)
	}
	if err := b.Focus(ctx, n); err != nil {
		return err
	}
	const (
		keysymControl = 0xffe3
		keysymShift   = 0xffe1
		keysymAlt     = 0xffe9
		keyPress      = 0
		keyRelease    = 1
	)
	press := func(sym int32, typ uint32) error {
		call := b.deviceController().CallWithContext(ctx, atspiDeviceCtrlIface+".GenerateKeyboardEvent", 0, sym, "", typ)
		if call.Err != nil {
			return types.NewPlatformError("keyboard", "generate-keyboard-event", "injecting key event", call.Err)
		}
		return nil
	}
	for _, c := range chords {
		var mods []int32
		if c.Ctrl {
			mods = append(mods, keysymControl)
		}
		if c.Shift {
			mods = append(mods, keysymShift)
		}
		if c.Alt {
			mods = append(mods, keysymAlt)
		}
		for _, m := range mods {
			if err := press(m, keyPress); err != nil {
				return err
			}
		}
		if c.Key != "" {
			sym, ok := keysymFor(c.Key)
			if !ok {
				return types.NewPlatformError("synthesize_keys", "bad-key", fmt.Sprintf("unknown key %q", c.Key), nil)
			}
			call := b.deviceController().CallWithContext(ctx, atspiDeviceCtrlIface+".GenerateKeyboardEvent", 0, sym, "", uint32(keySynthSym))
			if call.Err != nil {
				return types.NewPlatformError("keyboard", "generate-keyboard-event", "injecting key event", call.Err)
			}
		} else if err := b.keyboardString(ctx, string(c.Literal)); err != nil {
			return err
		}
		for i := len(mods) - 1; i >= 0; i-- {
			if err := press(mods[i], keyRelease); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *atspiBackend) TypeText(ctx context.Context, n types.Node, text string) error {
	if err := b.Focus(ctx, n); err != nil {
		return err
	}
	return b.keyboardString(ctx, text)
}

func (b *atspiBackend) SetValue(ctx context.Context, n types.Node, value string) error {
	an, err := b.unwrap(n)
	if err != nil {
		return err
	}
	var ok bool
	call := b.object(an.ref).CallWithContext(ctx, atspiEditableIface+".SetTextContents", 0, value)
	if call.Err == nil {
		if call.Store(&ok) == nil && ok {
			return nil
		}
	}
	// EditableText unsupported: focus, select all, type, commit.
	if err := b.SynthesizeKeys(ctx, n, "^a"); err != nil {
		return err
	}
	if err := b.TypeText(ctx, n, value); err != nil {
		return err
	}
	return b.SynthesizeKeys(ctx, n, "{Enter}")
}

func (b *atspiBackend) SetSelected(ctx context.Context, n types.Node, selected bool) error {
	an, err := b.unwrap(n)
	if err != nil {
		return err
	}
	if an.parent == nil {
		return types.NewUnsupported("set_selected")
	}
	idx, err := an.indexInParent(ctx)
	if err != nil {
		return err
	}
	method := ".SelectChild"
	if !selected {
		method = ".DeselectChild"
	}
	var ok bool
	call := b.object(an.parent.ref).CallWithContext(ctx, atspiSelectionIface+method, 0, idx)
	if call.Err != nil {
		return types.NewPlatformError("set_selected", "selection", "toggling selection", call.Err)
	}
	if call.Store(&ok) == nil && !ok {
		return types.NewPlatformError("set_selected", "selection-refused", "container refused the selection change", nil)
	}
	return nil
}

func (b *atspiBackend) Focus(ctx context.Context, n types.Node) error {
	an, err := b.unwrap(n)
	if err != nil {
		return err
	}
	var ok bool
	call := b.object(an.ref).CallWithContext(ctx, atspiComponentIface+".GrabFocus", 0)
	if call.Err != nil {
		return types.NewPlatformError("focus", "grab-focus", "grabbing focus", call.Err)
	}
	if call.Store(&ok) == nil && !ok {
		return types.NewPlatformError("focus", "grab-refused", "element refused focus", nil)
	}
	return nil
}

func (b *atspiBackend) Invoke(ctx context.Context, n types.Node) error {
	an, err := b.unwrap(n)
	if err != nil {
		return err
	}
	var ok bool
	call := b.object(an.ref).CallWithContext(ctx, atspiActionIface+".DoAction", 0, int32(0))
	if call.Err != nil {
		return types.NewPlatformError("invoke", "do-action", "invoking default action", call.Err)
	}
	if call.Store(&ok) == nil && !ok {
		return types.NewPlatformError("invoke", "action-refused", "element refused the action", nil)
	}
	return nil
}

func (b *atspiBackend) ScrollIntoView(ctx context.Context, n types.Node) error {
	an, err := b.unwrap(n)
	if err != nil {
		return err
	}
	// ScrollTo with ScrollType ANYWHERE (6).
	var ok bool
	call := b.object(an.ref).CallWithContext(ctx, atspiComponentIface+".ScrollTo", 0, uint32(6))
	if call.Err != nil {
		return types.NewPlatformError("scroll_into_view", "scroll-to", "scrolling element into view", call.Err)
	}
	if call.Store(&ok) == nil && !ok {
		return types.NewPlatformError("scroll_into_view", "scroll-refused", "element refused to scroll", nil)
	}
	return nil
}

func (b *atspiBackend) Scroll(ctx context.Context, n types.Node, dir types.ScrollDirection, amount float64) error {
	bounds, err := n.Bounds()
	if err != nil {
		return err
	}
	pt := bounds.Center()
	// Wheel scrolling via button 4/5 (vertical) and 6/7 (horizontal)
	// presses at the element's centroid, one press per unit of amount.
	var btn string
	switch dir {
	case types.ScrollUp:
		btn = "b4"
	case types.ScrollDown:
		btn = "b5"
	case types.ScrollLeft:
		btn = "b6"
	case types.ScrollRight:
		btn = "b7"
	}
	presses := int(amount)
	if presses < 1 {
		presses = 1
	}
	for i := 0; i < presses; i++ {
		if err := b.mouseEvent(ctx, int32(pt.X), int32(pt.Y), btn+"c"); err != nil {
			return err
		}
	}
	return nil
}

func (b *atspiBackend) Capture(ctx context.Context, n types.Node) (types.Bitmap, error) {
	// Screen capture needs a screenshot portal session, which lives with
	// the streaming surface, not the accessibility core.
	return types.Bitmap{}, types.NewUnsupported("capture")
}

func (b *atspiBackend) OverlayRectangles(ctx context.Context, shapes []types.OverlayShape, anchor types.Node) (types.OverlayHandle, error) {
	return nil, types.NewUnsupported("overlay_rectangles")
}

func (b *atspiBackend) unwrap(n types.Node) (*atspiNode, error) {
	an, ok := n.(*atspiNode)
	if !ok {
		return nil, types.NewPlatformError("unwrap", "foreign-node", "node belongs to a different backend", nil)
	}
	return an, nil
}

// atspiNode is one accessible object reference on the a11y bus.
type atspiNode struct {
	b      *atspiBackend
	ref    objectRef
	id     string
	parent *atspiNode
}

var _ types.Node = (*atspiNode)(nil)

func (n *atspiNode) obj() dbus.BusObject { return n.b.object(n.ref) }

// deadOr maps the disconnected-peer D-Bus failures onto StaleElement.
func deadOr(op string, err error) error {
	if err == nil {
		return nil
	}
	if dbusErr, ok := err.(dbus.Error); ok {
		switch dbusErr.Name {
		case "org.freedesktop.DBus.Error.ServiceUnknown",
			"org.freedesktop.DBus.Error.UnknownObject",
			"org.freedesktop.DBus.Error.NoReply":
			return &types.AutomationError{Kind: types.KindStaleElement, Message: "accessible object no longer exists", Cause: err}
		case "org.freedesktop.DBus.Error.AccessDenied":
			return &types.AutomationError{Kind: types.KindPermissionDenied, Message: "accessibility bus denied the request", Cause: err}
		}
	}
	return types.NewPlatformError(op, "dbus", "accessibility bus call failed", err)
}

func (n *atspiNode) HandleID() string { return n.id }

func (n *atspiNode) ProcessID() int {
	v, err := n.obj().GetProperty(atspiAccessibleIface + ".ProcessID")
	if err != nil {
		// The property is unavailable; report 0. No application-level
		// lookup is attempted.
		return 0
	}
	var pid uint32
	if v.Store(&pid) != nil {
		return 0
	}
	return int(pid)
}

func (n *atspiNode) AccessibilityID() (string, error) {
	v, err := n.obj().GetProperty(atspiAccessibleIface + ".AccessibleId")
	if err != nil {
		return "", nil
	}
	var id string
	if v.Store(&id) != nil {
		return "", nil
	}
	return id, nil
}

func (n *atspiNode) NativeID() string { return "" }

func (n *atspiNode) Variant() types.Variant { return types.VariantLinux }

func (n *atspiNode) Role() (string, error) {
	var role string
	call := n.obj().Call(atspiAccessibleIface+".GetRoleName", 0)
	if call.Err != nil {
		return "", deadOr("role", call.Err)
	}
	if err := call.Store(&role); err != nil {
		return "", deadOr("role", err)
	}
	return role, nil
}

func (n *atspiNode) LocalizedRole() (string, error) {
	var role string
	call := n.obj().Call(atspiAccessibleIface+".GetLocalizedRoleName", 0)
	if call.Err != nil {
		return "", deadOr("localized_role", call.Err)
	}
	if err := call.Store(&role); err != nil {
		return "", deadOr("localized_role", err)
	}
	return role, nil
}

func (n *atspiNode) ClassName() (string, error) {
	attrs, err := n.attributes()
	if err != nil {
		return "", err
	}
	return attrs["class"], nil
}

func (n *atspiNode) Name() (string, error) {
	v, err := n.obj().GetProperty(atspiAccessibleIface + ".Name")
	if err != nil {
		return "", deadOr("name", err)
	}
	var name string
	if err := v.Store(&name); err != nil {
		return "", deadOr("name", err)
	}
	return name, nil
}

func (n *atspiNode) Value() (string, error) {
	// Text-bearing controls expose their content through the Text
	// interface, which is the only one read here; Value.CurrentValue is
	// not consulted, so other controls report "".
	var text string
	call := n.obj().Call("org.a11y.atspi.Text.GetText", 0, int32(0), int32(-1))
	if call.Err == nil && call.Store(&text) == nil {
		return text, nil
	}
	return "", nil
}

func (n *atspiNode) Description() (string, error) {
	v, err := n.obj().GetProperty(atspiAccessibleIface + ".Description")
	if err != nil {
		return "", nil
	}
	var desc string
	if v.Store(&desc) != nil {
		return "", nil
	}
	return desc, nil
}

func (n *atspiNode) HelpText() (string, error) {
	attrs, err := n.attributes()
	if err != nil {
		return "", err
	}
	return attrs["help-text"], nil
}

func (n *atspiNode) Bounds() (types.Bounds, error) {
	var extents struct{ X, Y, Width, Height int32 }
	call := n.obj().Call(atspiComponentIface+".GetExtents", 0, uint32(coordTypeScreen))
	if call.Err != nil {
		return types.Bounds{}, deadOr("bounds", call.Err)
	}
	if err := call.Store(&extents); err != nil {
		return types.Bounds{}, deadOr("bounds", err)
	}
	return types.Bounds{
		X:      float64(extents.X),
		Y:      float64(extents.Y),
		Width:  float64(extents.Width),
		Height: float64(extents.Height),
	}, nil
}

func (n *atspiNode) states() (uint64, error) {
	var words []uint32
	call := n.obj().Call(atspiAccessibleIface+".GetState", 0)
	if call.Err != nil {
		return 0, deadOr("state", call.Err)
	}
	if err := call.Store(&words); err != nil {
		return 0, deadOr("state", err)
	}
	var bits uint64
	if len(words) > 0 {
		bits = uint64(words[0])
	}
	if len(words) > 1 {
		bits |= uint64(words[1]) << 32
	}
	return bits, nil
}

func (n *atspiNode) hasState(bit uint) (bool, error) {
	bits, err := n.states()
	if err != nil {
		return false, err
	}
	return bits&(1<<bit) != 0, nil
}

func (n *atspiNode) IsVisible() (bool, error) { return n.hasState(stateShowing) }

func (n *atspiNode) IsOffscreen() (bool, error) {
	showing, err := n.hasState(stateShowing)
	if err != nil {
		return false, err
	}
	return !showing, nil
}

func (n *atspiNode) IsEnabled() (bool, error)           { return n.hasState(stateEnabled) }
func (n *atspiNode) IsFocused() (bool, error)           { return n.hasState(stateFocused) }
func (n *atspiNode) IsSelected() (bool, error)          { return n.hasState(stateSelected) }
func (n *atspiNode) IsKeyboardFocusable() (bool, error) { return n.hasState(stateFocusable) }
func (n *atspiNode) IsToggleOn() (bool, error)          { return n.hasState(stateChecked) }
func (n *atspiNode) IsExpanded() (bool, error)          { return n.hasState(stateExpanded) }

func (n *atspiNode) attributes() (map[string]string, error) {
	var attrs map[string]string
	call := n.obj().Call(atspiAccessibleIface+".GetAttributes", 0)
	if call.Err != nil {
		return nil, deadOr("attributes", call.Err)
	}
	if err := call.Store(&attrs); err != nil {
		return nil, deadOr("attributes", err)
	}
	return attrs, nil
}

func (n *atspiNode) Attribute(ctx context.Context, key string) (string, error) {
	attrs, err := n.attributes()
	if err != nil {
		return "", err
	}
	return attrs[key], nil
}

func (n *atspiNode) Parent(ctx context.Context) (types.Node, error) {
	if n.parent != nil {
		return n.parent, nil
	}
	v, err := n.obj().GetProperty(atspiAccessibleIface + ".Parent")
	if err != nil {
		return nil, deadOr("parent", err)
	}
	var ref objectRef
	if err := v.Store(&ref); err != nil {
		return nil, deadOr("parent", err)
	}
	if ref.Path == "/org/a11y/atspi/null" || ref.Path == "" {
		return nil, nil
	}
	return n.b.wrapRef(ref, nil), nil
}

func (n *atspiNode) Children(ctx context.Context) ([]types.Node, error) {
	var refs []objectRef
	call := n.obj().CallWithContext(ctx, atspiAccessibleIface+".GetChildren", 0)
	if call.Err != nil {
		return nil, deadOr("children", call.Err)
	}
	if err := call.Store(&refs); err != nil {
		return nil, deadOr("children", err)
	}
	out := make([]types.Node, 0, len(refs))
	for _, ref := range refs {
		if ref.Path == "/org/a11y/atspi/null" {
			continue
		}
		out = append(out, n.b.wrapRef(ref, n))
	}
	return out, nil
}

func (n *atspiNode) indexInParent(ctx context.Context) (int32, error) {
	var idx int32
	call := n.obj().CallWithContext(ctx, atspiAccessibleIface+".GetIndexInParent", 0)
	if call.Err != nil {
		return 0, deadOr("index_in_parent", call.Err)
	}
	if err := call.Store(&idx); err != nil {
		return 0, deadOr("index_in_parent", err)
	}
	return idx, nil
}

func (n *atspiNode) Window(ctx context.Context) (types.Node, error) {
	var cur types.Node = n
	for {
		role, err := cur.Role()
		if err != nil {
			return nil, err
		}
		switch role {
		case "frame", "window", "dialog":
			return cur, nil
		}
		parent, err := cur.Parent(ctx)
		if err != nil || parent == nil {
			return cur, nil
		}
		cur = parent
	}
}
