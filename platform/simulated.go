// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mediar-ai/terminator-sub003/types"
)

// SimNode is one element of a Simulated backend's tree. Callers build a
// tree of these, hand the root to NewSimulated, and mutate fields through
// the backend's helpers (or directly, under their own synchronization)
// to model a changing UI.
type SimNode struct {
	ID            string // handle id; auto-assigned when empty
	PID           int
	Role          string
	Name          string
	Value         string
	Description   string
	Help          string
	ClassName     string
	LocalizedRole string
	NativeID      string
	AccessID      string
	Bounds        types.Bounds
	Offscreen     bool
	Disabled      bool
	Focusable     bool
	Selected      bool
	ToggleOn      bool
	Expanded      bool
	Attrs         map[string]string
	Children      []*SimNode

	parent  *SimNode
	stale   bool
	focused bool
}

// Detach marks the node (and, transitively, nothing else) stale: every
// subsequent operation on a wrapper of it fails with a StaleElement
// error, the way a real platform handle dies out from under a caller.
func (n *SimNode) Detach() { n.stale = true }

// Simulated is the in-memory types.Backend: a mutable accessibility tree
// plus input synthesis that mutates it the way a real UI would react
// (typing appends to the focused field's value, clicking focuses and
// toggles, scrolling moves bounds). It also keeps an ordered call log so
// tests can assert the sequence of platform operations an upper layer
// performed.
type Simulated struct {
	mu       sync.Mutex
	root     *SimNode
	workArea types.Bounds
	focused  *SimNode
	calls    []string
	overlays *overlayManager
	nextID   int

	// FocusScrollsIntoView makes Focus also move the node's bounds into
	// the work area, modelling applications that scroll to the focused
	// control. Off by default so tests can observe the explicit
	// scroll-into-view fallback.
	FocusScrollsIntoView bool
}

var _ types.Backend = (*Simulated)(nil)

// NewSimulated builds a backend over the tree rooted at root, assigning
// ids and parent links. workArea is the usable screen rectangle visibility
// is judged against.
func NewSimulated(workArea types.Bounds, root *SimNode) *Simulated {
	s := &Simulated{root: root, workArea: workArea, overlays: newOverlayManager()}
	s.attach(root, nil)
	return s
}

func (s *Simulated) attach(n *SimNode, parent *SimNode) {
	n.parent = parent
	if n.ID == "" {
		s.nextID++
		n.ID = fmt.Sprintf("sim-%d", s.nextID)
	}
	if n.PID == 0 {
		if parent != nil {
			n.PID = parent.PID
		} else {
			n.PID = 1
		}
	}
	for _, c := range n.Children {
		s.attach(c, n)
	}
}

// AddChild appends child under parent at runtime, wiring ids and parent
// links, so tests can model elements appearing mid-resolve.
func (s *Simulated) AddChild(parent, child *SimNode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attach(child, parent)
	parent.Children = append(parent.Children, child)
}

// CallLog returns the ordered operation names recorded so far.
func (s *Simulated) CallLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *Simulated) record(format string, args ...any) {
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

func (s *Simulated) wrap(n *SimNode) types.Node { return &simNode{sim: s, n: n} }

func (s *Simulated) Variant() types.Variant { return types.VariantSimulated }

func (s *Simulated) Applications(ctx context.Context) ([]types.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Node, 0, len(s.root.Children))
	for _, c := range s.root.Children {
		out = append(out, s.wrap(c))
	}
	return out, nil
}

func (s *Simulated) FocusedElement(ctx context.Context) (types.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.focused == nil {
		return nil, types.NewPlatformError("focused_element", "no-focus", "nothing focused", nil)
	}
	return s.wrap(s.focused), nil
}

func (s *Simulated) Root(ctx context.Context) (types.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wrap(s.root), nil
}

func (s *Simulated) FindWindowByPID(ctx context.Context, pid int) (types.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if found := findSim(s.root, func(n *SimNode) bool { return n.PID == pid && n.parent == s.root }); found != nil {
		return s.wrap(found), nil
	}
	return nil, types.NewPlatformError("find_window_by_pid", "not-found", fmt.Sprintf("no window for pid %d", pid), nil)
}

func (s *Simulated) TopWindowForProcess(ctx context.Context, name string) (types.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lower := strings.ToLower(name)
	found := findSim(s.root, func(n *SimNode) bool {
		return n.parent == s.root && strings.Contains(strings.ToLower(n.Name), lower)
	})
	if found != nil {
		return s.wrap(found), nil
	}
	return nil, types.NewPlatformError("top_window_for_process", "not-found", fmt.Sprintf("no window for process %q", name), nil)
}

func findSim(n *SimNode, pred func(*SimNode) bool) *SimNode {
	if pred(n) {
		return n
	}
	for _, c := range n.Children {
		if found := findSim(c, pred); found != nil {
			return found
		}
	}
	return nil
}

func (s *Simulated) Children(ctx context.Context, n types.Node) ([]types.Node, error) {
	return n.Children(ctx)
}

func (s *Simulated) Parent(ctx context.Context, n types.Node) (types.Node, error) {
	return n.Parent(ctx)
}

func (s *Simulated) WindowOf(ctx context.Context, n types.Node) (types.Node, error) {
	return n.Window(ctx)
}

func (s *Simulated) Attribute(ctx context.Context, n types.Node, key string) (string, error) {
	return n.Attribute(ctx, key)
}

func (s *Simulated) Bounds(ctx context.Context, n types.Node) (types.Bounds, error) {
	return n.Bounds()
}

func (s *Simulated) WorkArea(ctx context.Context) (types.Bounds, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workArea, nil
}

func (s *Simulated) SynthesizeClick(ctx context.Context, target types.ClickTarget, button types.MouseButton, kind types.ClickType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if target.Node == nil {
		if target.Point == nil {
			return types.NewPlatformError("click", "no-target", "neither node nor point given", nil)
		}
		s.record("click point=(%g,%g)", target.Point.X, target.Point.Y)
		return nil
	}
	n, err := s.unwrap(target.Node)
	if err != nil {
		return err
	}
	switch {
	case kind == types.ClickDouble:
		s.record("double_click %s", n.ID)
	case button == types.ButtonRight:
		s.record("right_click %s", n.ID)
	default:
		s.record("click %s", n.ID)
	}
	s.setFocusLocked(n)
	switch strings.ToLower(n.Role) {
	case "checkbox", "toggle":
		n.ToggleOn = !n.ToggleOn
	}
	return nil
}

func (s *Simulated) SynthesizeKeys(ctx context.Context, n types.Node, keys types.KeySpec) error {
	chords, err := ParseKeySpec(keys)
	if err != nil {
		return types.NewPlatformError("synthesize_keys", "bad-keyspec", err.Error(), err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sn, err := s.unwrap(n)
	if err != nil {
		return err
	}
	s.record("keys %s %q", sn.ID, string(keys))
	for _, c := range chords {
		if c.Literal != 0 && !c.Ctrl && !c.Alt {
			sn.Value += string(c.Literal)
		}
	}
	return nil
}

func (s *Simulated) TypeText(ctx context.Context, n types.Node, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sn, err := s.unwrap(n)
	if err != nil {
		return err
	}
	s.record("type %s %q", sn.ID, text)
	sn.Value += text
	return nil
}

func (s *Simulated) SetValue(ctx context.Context, n types.Node, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sn, err := s.unwrap(n)
	if err != nil {
		return err
	}
	s.record("set_value %s", sn.ID)
	sn.Value = value
	return nil
}

func (s *Simulated) SetSelected(ctx context.Context, n types.Node, selected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sn, err := s.unwrap(n)
	if err != nil {
		return err
	}
	s.record("set_selected %s %v", sn.ID, selected)
	sn.Selected = selected
	if selected && sn.parent != nil && strings.Contains(strings.ToLower(sn.Role), "radio") {
		for _, sib := range sn.parent.Children {
			if sib != sn && strings.Contains(strings.ToLower(sib.Role), "radio") {
				sib.Selected = false
			}
		}
	}
	return nil
}

func (s *Simulated) Focus(ctx context.Context, n types.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sn, err := s.unwrap(n)
	if err != nil {
		return err
	}
	s.record("focus %s", sn.ID)
	s.setFocusLocked(sn)
	if s.FocusScrollsIntoView {
		s.scrollIntoWorkAreaLocked(sn)
	}
	return nil
}

func (s *Simulated) setFocusLocked(n *SimNode) {
	if s.focused != nil {
		s.focused.focused = false
	}
	s.focused = n
	n.focused = true
}

func (s *Simulated) Invoke(ctx context.Context, n types.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sn, err := s.unwrap(n)
	if err != nil {
		return err
	}
	s.record("invoke %s", sn.ID)
	return nil
}

func (s *Simulated) ScrollIntoView(ctx context.Context, n types.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sn, err := s.unwrap(n)
	if err != nil {
		return err
	}
	s.record("scroll_into_view %s", sn.ID)
	s.scrollIntoWorkAreaLocked(sn)
	return nil
}

func (s *Simulated) scrollIntoWorkAreaLocked(n *SimNode) {
	b := n.Bounds
	if b.X < s.workArea.X {
		b.X = s.workArea.X
	}
	if b.Y < s.workArea.Y {
		b.Y = s.workArea.Y
	}
	if b.X+b.Width > s.workArea.X+s.workArea.Width {
		b.X = s.workArea.X + s.workArea.Width - b.Width
	}
	if b.Y+b.Height > s.workArea.Y+s.workArea.Height {
		b.Y = s.workArea.Y + s.workArea.Height - b.Height
	}
	n.Bounds = b
	n.Offscreen = false
}

func (s *Simulated) Scroll(ctx context.Context, n types.Node, dir types.ScrollDirection, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sn, err := s.unwrap(n)
	if err != nil {
		return err
	}
	s.record("scroll %s %s %g", sn.ID, dir, amount)
	// Scrolling a container shifts its children's bounds one work-area
	// unit per unit of amount, opposite the scroll direction.
	dx, dy := 0.0, 0.0
	switch dir {
	case types.ScrollUp:
		dy = amount * s.workArea.Height
	case types.ScrollDown:
		dy = -amount * s.workArea.Height
	case types.ScrollLeft:
		dx = amount * s.workArea.Width
	case types.ScrollRight:
		dx = -amount * s.workArea.Width
	}
	var shift func(*SimNode)
	shift = func(c *SimNode) {
		c.Bounds.X += dx
		c.Bounds.Y += dy
		for _, cc := range c.Children {
			shift(cc)
		}
	}
	for _, c := range sn.Children {
		shift(c)
	}
	return nil
}

func (s *Simulated) Capture(ctx context.Context, n types.Node) (types.Bitmap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sn, err := s.unwrap(n)
	if err != nil {
		return types.Bitmap{}, err
	}
	s.record("capture %s", sn.ID)
	w, h := int(sn.Bounds.Width), int(sn.Bounds.Height)
	if w <= 0 || h <= 0 {
		return types.Bitmap{}, types.NewPlatformError("capture", "empty-bounds", "element has no on-screen area", nil)
	}
	return types.Bitmap{
		Width:  w,
		Height: h,
		Stride: w * 4,
		Pixels: make([]byte, w*h*4),
	}, nil
}

func (s *Simulated) OverlayRectangles(ctx context.Context, shapes []types.OverlayShape, anchor types.Node) (types.OverlayHandle, error) {
	s.mu.Lock()
	sn, err := s.unwrap(anchor)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.record("overlay %s shapes=%d", sn.ID, len(shapes))
	s.mu.Unlock()
	return s.overlays.replace(sn.ID, nopOverlay{}), nil
}

type nopOverlay struct{}

func (nopOverlay) Close() error { return nil }

func (s *Simulated) unwrap(n types.Node) (*SimNode, error) {
	w, ok := n.(*simNode)
	if !ok || w.sim != s {
		return nil, types.NewPlatformError("unwrap", "foreign-node", "node belongs to a different backend", nil)
	}
	if w.n.stale {
		return nil, &types.AutomationError{Kind: types.KindStaleElement, Message: "element no longer exists"}
	}
	return w.n, nil
}

// simNode adapts a *SimNode to types.Node. All accessors take the
// backend's lock so concurrent resolver polling and tree mutation stay
// race free.
type simNode struct {
	sim *Simulated
	n   *SimNode
}

var _ types.Node = (*simNode)(nil)

func (w *simNode) guard() error {
	if w.n.stale {
		return &types.AutomationError{Kind: types.KindStaleElement, Message: "element no longer exists"}
	}
	return nil
}

func (w *simNode) HandleID() string { return w.n.ID }

func (w *simNode) ProcessID() int { return w.n.PID }

func (w *simNode) AccessibilityID() (string, error) {
	if err := w.guard(); err != nil {
		return "", err
	}
	w.sim.mu.Lock()
	defer w.sim.mu.Unlock()
	if w.n.AccessID != "" {
		return w.n.AccessID, nil
	}
	return w.n.ID, nil
}

func (w *simNode) NativeID() string { return w.n.NativeID }

func (w *simNode) Variant() types.Variant { return types.VariantSimulated }

func (w *simNode) strField(f func(*SimNode) string) (string, error) {
	if err := w.guard(); err != nil {
		return "", err
	}
	w.sim.mu.Lock()
	defer w.sim.mu.Unlock()
	return f(w.n), nil
}

func (w *simNode) boolField(f func(*SimNode) bool) (bool, error) {
	if err := w.guard(); err != nil {
		return false, err
	}
	w.sim.mu.Lock()
	defer w.sim.mu.Unlock()
	return f(w.n), nil
}

func (w *simNode) Role() (string, error) { return w.strField(func(n *SimNode) string { return n.Role }) }
func (w *simNode) LocalizedRole() (string, error) {
	return w.strField(func(n *SimNode) string {
		if n.LocalizedRole != "" {
			return n.LocalizedRole
		}
		return n.Role
	})
}
func (w *simNode) ClassName() (string, error) {
	return w.strField(func(n *SimNode) string { return n.ClassName })
}
func (w *simNode) Name() (string, error) { return w.strField(func(n *SimNode) string { return n.Name }) }
func (w *simNode) Value() (string, error) {
	return w.strField(func(n *SimNode) string { return n.Value })
}
func (w *simNode) Description() (string, error) {
	return w.strField(func(n *SimNode) string { return n.Description })
}
func (w *simNode) HelpText() (string, error) {
	return w.strField(func(n *SimNode) string { return n.Help })
}

func (w *simNode) Bounds() (types.Bounds, error) {
	if err := w.guard(); err != nil {
		return types.Bounds{}, err
	}
	w.sim.mu.Lock()
	defer w.sim.mu.Unlock()
	return w.n.Bounds, nil
}

// IsVisible reports on-screen-and-in-work-area: non-empty bounds that
// intersect the work area, and no explicit off-screen flag.
func (w *simNode) IsVisible() (bool, error) {
	if err := w.guard(); err != nil {
		return false, err
	}
	w.sim.mu.Lock()
	defer w.sim.mu.Unlock()
	if w.n.Offscreen || w.n.Bounds.IsEmpty() {
		return false, nil
	}
	wa := w.sim.workArea
	b := w.n.Bounds
	return b.X < wa.X+wa.Width && b.X+b.Width > wa.X &&
		b.Y < wa.Y+wa.Height && b.Y+b.Height > wa.Y, nil
}

func (w *simNode) IsOffscreen() (bool, error) {
	return w.boolField(func(n *SimNode) bool { return n.Offscreen })
}
func (w *simNode) IsEnabled() (bool, error) {
	return w.boolField(func(n *SimNode) bool { return !n.Disabled })
}
func (w *simNode) IsFocused() (bool, error) {
	return w.boolField(func(n *SimNode) bool { return n.focused })
}
func (w *simNode) IsSelected() (bool, error) {
	return w.boolField(func(n *SimNode) bool { return n.Selected })
}
func (w *simNode) IsKeyboardFocusable() (bool, error) {
	return w.boolField(func(n *SimNode) bool { return n.Focusable })
}
func (w *simNode) IsToggleOn() (bool, error) {
	return w.boolField(func(n *SimNode) bool { return n.ToggleOn })
}
func (w *simNode) IsExpanded() (bool, error) {
	return w.boolField(func(n *SimNode) bool { return n.Expanded })
}

func (w *simNode) Attribute(ctx context.Context, key string) (string, error) {
	if err := w.guard(); err != nil {
		return "", err
	}
	w.sim.mu.Lock()
	defer w.sim.mu.Unlock()
	return w.n.Attrs[key], nil
}

func (w *simNode) Parent(ctx context.Context) (types.Node, error) {
	if err := w.guard(); err != nil {
		return nil, err
	}
	w.sim.mu.Lock()
	defer w.sim.mu.Unlock()
	if w.n.parent == nil {
		return nil, nil
	}
	return w.sim.wrap(w.n.parent), nil
}

func (w *simNode) Children(ctx context.Context) ([]types.Node, error) {
	if err := w.guard(); err != nil {
		return nil, err
	}
	w.sim.mu.Lock()
	defer w.sim.mu.Unlock()
	out := make([]types.Node, len(w.n.Children))
	for i, c := range w.n.Children {
		out[i] = w.sim.wrap(c)
	}
	return out, nil
}

func (w *simNode) Window(ctx context.Context) (types.Node, error) {
	if err := w.guard(); err != nil {
		return nil, err
	}
	w.sim.mu.Lock()
	defer w.sim.mu.Unlock()
	cur := w.n
	for cur.parent != nil && cur.parent != w.sim.root {
		cur = cur.parent
	}
	return w.sim.wrap(cur), nil
}
