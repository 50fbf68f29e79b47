package manager

import (
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/1broseidon/proptile/internal/geometry"
	"github.com/1broseidon/proptile/internal/grid"
	"github.com/1broseidon/proptile/internal/platform"
)

// fakeBackend is an in-memory window system for tests. SetFrame updates
// the live frame immediately, so a freshly applied layout reads back
// exactly as expected until a test perturbs it.
type fakeBackend struct {
	mu       sync.Mutex
	monitors []platform.Monitor
	frames   map[platform.WindowID]geometry.Rect
	missing  map[platform.WindowID]bool
	dead     map[platform.WindowID]bool
	hints    map[platform.WindowID][2]geometry.Size
	subs     map[platform.WindowID]bool
	events   chan platform.Event
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		monitors: []platform.Monitor{{
			ID:      "DP-1",
			Name:    "DP-1",
			Usable:  geometry.Rect{X: 0, Y: 0, Width: 1920, Height: 1080},
			Primary: true,
		}},
		frames:  make(map[platform.WindowID]geometry.Rect),
		missing: make(map[platform.WindowID]bool),
		dead:    make(map[platform.WindowID]bool),
		hints:   make(map[platform.WindowID][2]geometry.Size),
		subs:    make(map[platform.WindowID]bool),
		events:  make(chan platform.Event, 16),
	}
}

func (f *fakeBackend) Monitors() ([]platform.Monitor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]platform.Monitor, len(f.monitors))
	copy(out, f.monitors)
	return out, nil
}

func (f *fakeBackend) ListWindows(monitorID string) ([]platform.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []platform.Window
	for id, frame := range f.frames {
		if !f.missing[id] {
			out = append(out, platform.Window{ID: id, Frame: frame})
		}
	}
	return out, nil
}

func (f *fakeBackend) GetFrame(id platform.WindowID) (geometry.Rect, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missing[id] {
		return geometry.Rect{}, false
	}
	frame, ok := f.frames[id]
	return frame, ok
}

func (f *fakeBackend) SetFrame(id platform.WindowID, frame geometry.Rect) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames[id] = frame
	return nil
}

func (f *fakeBackend) SizeHints(id platform.WindowID) (geometry.Size, geometry.Size) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := f.hints[id]
	return h[0], h[1]
}

func (f *fakeBackend) IsProcessAlive(id platform.WindowID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.dead[id]
}

func (f *fakeBackend) Subscribe(id platform.WindowID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[id] = true
	return nil
}

func (f *fakeBackend) Unsubscribe(id platform.WindowID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, id)
}

func (f *fakeBackend) Events() <-chan platform.Event { return f.events }

// dragFrame shifts one window's live frame without going through SetFrame,
// simulating a user resize performed directly on the window.
func (f *fakeBackend) dragFrame(id platform.WindowID, dx, dy, dw, dh int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.frames[id]
	f.frames[id] = geometry.Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width + dw, Height: r.Height + dh}
}

func newTestManager(t *testing.T) (*Manager, *fakeBackend) {
	t.Helper()
	fb := newFakeBackend()
	m := New(fb, Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err := m.SelectMonitor("DP-1"); err != nil {
		t.Fatalf("SelectMonitor: %v", err)
	}
	return m, fb
}

// twoColumns prepares a managed 50/50 two-column layout with one window in
// each column.
func twoColumns(t *testing.T, m *Manager, fb *fakeBackend) {
	t.Helper()
	fb.SetFrame(1, geometry.Rect{Width: 100, Height: 100})
	fb.SetFrame(2, geometry.Rect{Width: 100, Height: 100})
	if err := m.SetupFixedGrid(2); err != nil {
		t.Fatalf("SetupFixedGrid: %v", err)
	}
	if err := m.AddWindow(1, 0); err != nil {
		t.Fatalf("AddWindow: %v", err)
	}
	if err := m.AddWindow(2, 1); err != nil {
		t.Fatalf("AddWindow: %v", err)
	}
	if err := m.StartManaging(); err != nil {
		t.Fatalf("StartManaging: %v", err)
	}
}

func layoutOf(t *testing.T, m *Manager) *grid.Layout {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	ml, err := m.selectedLocked()
	if err != nil {
		t.Fatalf("no selected layout: %v", err)
	}
	return ml.layout
}

func TestStartManagingAppliesFrames(t *testing.T) {
	m, fb := newTestManager(t)
	twoColumns(t, m, fb)

	left, _ := fb.GetFrame(1)
	right, _ := fb.GetFrame(2)
	if left.Width != 960 || right.Width != 960 {
		t.Fatalf("column widths %d/%d, want 960/960", left.Width, right.Width)
	}
	if right.X != 960 {
		t.Fatalf("right column starts at x=%d, want 960", right.X)
	}
	if !fb.subs[1] || !fb.subs[2] {
		t.Fatal("managed windows not subscribed")
	}
}

func TestReconcileConvergesAfterDrag(t *testing.T) {
	m, fb := newTestManager(t)
	twoColumns(t, m, fb)

	// Drag window 1's right edge 192px right (one tenth of the screen).
	fb.dragFrame(1, 0, 0, 192, 0)
	m.reconcileAll()

	l := layoutOf(t, m)
	if got := l.Divisions[0].Proportion; math.Abs(got-0.6) > grid.SumTolerance {
		t.Fatalf("left division proportion = %v, want 0.6", got)
	}
	if got := l.Divisions[1].Proportion; math.Abs(got-0.4) > grid.SumTolerance {
		t.Fatalf("right division proportion = %v, want 0.4", got)
	}

	// The re-apply must have pushed both windows to the drag's end state.
	left, _ := fb.GetFrame(1)
	right, _ := fb.GetFrame(2)
	if left.Width != 1152 {
		t.Errorf("left column width = %d, want 1152", left.Width)
	}
	if right.X != 1152 || right.Width != 768 {
		t.Errorf("right column = %+v, want x=1152 width=768", right)
	}

	// A second pass sees no drift and changes nothing.
	m.reconcileAll()
	if got := layoutOf(t, m).Divisions[0].Proportion; math.Abs(got-0.6) > grid.SumTolerance {
		t.Fatalf("second pass drifted the proportion to %v", got)
	}
}

func TestReconcileDraggedLeftEdge(t *testing.T) {
	m, fb := newTestManager(t)
	twoColumns(t, m, fb)

	// Drag window 2's left edge 192px left: window 2 grows at window 1's
	// expense through the same divider.
	fb.dragFrame(2, -192, 0, 192, 0)
	m.reconcileAll()

	l := layoutOf(t, m)
	if got := l.Divisions[0].Proportion; math.Abs(got-0.4) > grid.SumTolerance {
		t.Fatalf("left division proportion = %v, want 0.4", got)
	}
}

func TestReconcileIgnoresNoise(t *testing.T) {
	m, fb := newTestManager(t)
	twoColumns(t, m, fb)

	fb.dragFrame(1, 2, 1, -3, 2)
	m.reconcileAll()

	l := layoutOf(t, m)
	if got := l.Divisions[0].Proportion; math.Abs(got-0.5) > grid.SumTolerance {
		t.Fatalf("noise moved the proportion to %v", got)
	}
}

func TestReconcileIgnoresOuterEdge(t *testing.T) {
	m, fb := newTestManager(t)
	twoColumns(t, m, fb)

	// Window 1's left edge is the container edge; there is no neighbor to
	// borrow from.
	fb.dragFrame(1, 50, 0, -50, 0)
	m.reconcileAll()

	l := layoutOf(t, m)
	if got := l.Divisions[0].Proportion; math.Abs(got-0.5) > grid.SumTolerance {
		t.Fatalf("outer-edge drag moved the proportion to %v", got)
	}
}

func TestReconcileRejectsBelowMinimum(t *testing.T) {
	m, fb := newTestManager(t)
	twoColumns(t, m, fb)

	// Shrinking the right column to 96px (0.05) would breach the floor.
	fb.dragFrame(1, 0, 0, 864, 0)
	m.reconcileAll()

	l := layoutOf(t, m)
	if got := l.Divisions[0].Proportion; math.Abs(got-0.5) > grid.SumTolerance {
		t.Fatalf("below-minimum drag changed the proportion to %v", got)
	}
}

func TestReconcileSlotLevelDrag(t *testing.T) {
	m, fb := newTestManager(t)
	fb.SetFrame(1, geometry.Rect{Width: 100, Height: 100})
	fb.SetFrame(2, geometry.Rect{Width: 100, Height: 100})
	if err := m.SetupFixedGrid(1); err != nil {
		t.Fatal(err)
	}
	m.AddWindow(1, 0)
	m.AddWindow(2, 0)
	if err := m.StartManaging(); err != nil {
		t.Fatal(err)
	}

	// Drag window 1's bottom edge 108px down (one tenth of the height).
	fb.dragFrame(1, 0, 0, 0, 108)
	m.reconcileAll()

	l := layoutOf(t, m)
	if got := l.Divisions[0].Slots[0].Proportion; math.Abs(got-0.6) > grid.SumTolerance {
		t.Fatalf("top slot proportion = %v, want 0.6", got)
	}
	bottom, _ := fb.GetFrame(2)
	if bottom.Y != 648 {
		t.Fatalf("bottom slot starts at y=%d, want 648", bottom.Y)
	}
}

func TestNoSelfFeedbackWhileApplying(t *testing.T) {
	m, fb := newTestManager(t)
	twoColumns(t, m, fb)

	m.mu.Lock()
	ml, _ := m.selectedLocked()
	ml.applying = true
	m.mu.Unlock()

	fb.dragFrame(1, 0, 0, 192, 0)
	m.reconcileAll()

	l := layoutOf(t, m)
	if got := l.Divisions[0].Proportion; math.Abs(got-0.5) > grid.SumTolerance {
		t.Fatalf("reconcile ran during apply; proportion = %v", got)
	}
}

func TestStopManagingHaltsReconciliation(t *testing.T) {
	m, fb := newTestManager(t)
	twoColumns(t, m, fb)

	if err := m.StopManaging(); err != nil {
		t.Fatal(err)
	}
	if len(fb.subs) != 0 {
		t.Fatalf("%d subscriptions left after stop", len(fb.subs))
	}

	fb.dragFrame(1, 0, 0, 192, 0)
	m.reconcileAll()

	l := layoutOf(t, m)
	if got := l.Divisions[0].Proportion; math.Abs(got-0.5) > grid.SumTolerance {
		t.Fatalf("inactive layout reconciled; proportion = %v", got)
	}
}

func TestSweepRemovesConfirmedGoneWindow(t *testing.T) {
	m, fb := newTestManager(t)
	twoColumns(t, m, fb)

	fb.mu.Lock()
	fb.missing[2] = true
	fb.dead[2] = true
	fb.mu.Unlock()

	m.sweepClosed()

	l := layoutOf(t, m)
	if l.SlotCount() != 1 {
		t.Fatalf("slot count = %d after sweep, want 1", l.SlotCount())
	}
	// The survivor takes the whole screen.
	left, _ := fb.GetFrame(1)
	if left.Width != 1920 {
		t.Fatalf("surviving window width = %d, want 1920", left.Width)
	}
}

func TestSweepKeepsTransientlyUnreadableWindow(t *testing.T) {
	m, fb := newTestManager(t)
	twoColumns(t, m, fb)

	// Frame unavailable but the process is alive: hung app or sleep,
	// not a close.
	fb.mu.Lock()
	fb.missing[2] = true
	fb.mu.Unlock()

	m.sweepClosed()
	m.reconcileAll()

	if got := layoutOf(t, m).SlotCount(); got != 2 {
		t.Fatalf("slot count = %d, want 2 (window dropped on transient failure)", got)
	}
}

func TestMonitorRescalePreservesProportions(t *testing.T) {
	m, fb := newTestManager(t)
	twoColumns(t, m, fb)
	m.ResizeDivider(0, 192)

	// Panel appears: usable area shrinks.
	fb.mu.Lock()
	fb.monitors[0].Usable = geometry.Rect{X: 0, Y: 30, Width: 1920, Height: 1050}
	fb.mu.Unlock()

	m.refreshMonitors()

	l := layoutOf(t, m)
	if got := l.Divisions[0].Proportion; math.Abs(got-0.6) > grid.SumTolerance {
		t.Fatalf("rescale changed the proportion to %v", got)
	}
	left, _ := fb.GetFrame(1)
	if left.Y != 30 || left.Height != 1050 {
		t.Fatalf("left window = %+v, want y=30 height=1050", left)
	}
}

func TestMonitorRemovalDropsLayout(t *testing.T) {
	m, fb := newTestManager(t)
	twoColumns(t, m, fb)

	fb.mu.Lock()
	fb.monitors = nil
	fb.mu.Unlock()

	m.refreshMonitors()

	if got := m.SelectedMonitor(); got != "" {
		t.Fatalf("selected monitor = %q after removal, want empty", got)
	}
	if st := m.Status(); len(st.Layouts) != 0 {
		t.Fatalf("%d layouts remain after monitor removal", len(st.Layouts))
	}
}

func TestCommandsWithoutSelection(t *testing.T) {
	fb := newFakeBackend()
	m := New(fb, Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	if err := m.SetupFixedGrid(2); err != ErrNoMonitorSelected {
		t.Fatalf("SetupFixedGrid error = %v, want ErrNoMonitorSelected", err)
	}
	if err := m.StartManaging(); err != ErrNoMonitorSelected {
		t.Fatalf("StartManaging error = %v, want ErrNoMonitorSelected", err)
	}
}

func TestScanFallbackReportedToCaller(t *testing.T) {
	m, _ := newTestManager(t)

	ok, err := m.ScanExistingLayout()
	if err != nil {
		t.Fatalf("ScanExistingLayout: %v", err)
	}
	if ok {
		t.Fatal("scan reported success with no windows on the monitor")
	}
}

func TestRestoreSnapshotDropsVanishedWindows(t *testing.T) {
	m, fb := newTestManager(t)
	twoColumns(t, m, fb)
	snap, err := m.LayoutSnapshot()
	if err != nil {
		t.Fatal(err)
	}

	m.StopManaging()
	fb.mu.Lock()
	delete(fb.frames, 2)
	fb.mu.Unlock()

	if err := m.RestoreSnapshot(snap); err != nil {
		t.Fatal(err)
	}
	l := layoutOf(t, m)
	if l.SlotCount() != 1 {
		t.Fatalf("slot count = %d after restore, want 1", l.SlotCount())
	}
	if _, _, slot := l.FindWindow(1); slot == nil {
		t.Fatal("surviving window missing from restored layout")
	}
}
