package grid

import (
	"math"
	"testing"

	"github.com/1broseidon/proptile/internal/geometry"
	"github.com/1broseidon/proptile/internal/platform"
)

func testContainer() geometry.Rect {
	return geometry.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}
}

func checkSums(t *testing.T, l *Layout) {
	t.Helper()
	sum := 0.0
	for _, d := range l.Divisions {
		sum += d.Proportion
	}
	if len(l.Divisions) > 0 && math.Abs(sum-1.0) > SumTolerance {
		t.Fatalf("division proportions sum to %v, want 1.0", sum)
	}
	for di, d := range l.Divisions {
		ssum := 0.0
		for _, s := range d.Slots {
			ssum += s.Proportion
		}
		if len(d.Slots) > 0 && math.Abs(ssum-1.0) > SumTolerance {
			t.Fatalf("division %d slot proportions sum to %v, want 1.0", di, ssum)
		}
	}
}

func TestSetupFixedEqualShares(t *testing.T) {
	l := New(ColumnMajor, testContainer(), DefaultMinProportion)
	l.SetupFixed(3)

	if len(l.Divisions) != 3 {
		t.Fatalf("got %d divisions, want 3", len(l.Divisions))
	}
	for i, d := range l.Divisions {
		if math.Abs(d.Proportion-1.0/3) > SumTolerance {
			t.Errorf("division %d proportion = %v, want 1/3", i, d.Proportion)
		}
	}
	checkSums(t, l)
}

func TestSetupFixedClampsCount(t *testing.T) {
	l := New(ColumnMajor, testContainer(), DefaultMinProportion)

	l.SetupFixed(0)
	if len(l.Divisions) != 1 {
		t.Errorf("count 0: got %d divisions, want 1", len(l.Divisions))
	}

	l.SetupFixed(25)
	if len(l.Divisions) != 10 {
		t.Errorf("count 25: got %d divisions, want 10", len(l.Divisions))
	}
}

func TestAddSlotRedistributesEqually(t *testing.T) {
	l := New(ColumnMajor, testContainer(), DefaultMinProportion)
	l.SetupFixed(1)

	for i := 1; i <= 4; i++ {
		slot := l.AddSlot(0, platform.WindowID(i))
		if slot == nil {
			t.Fatalf("AddSlot window %d returned nil", i)
		}
		want := 1.0 / float64(i)
		for j, s := range l.Divisions[0].Slots {
			if math.Abs(s.Proportion-want) > SumTolerance {
				t.Fatalf("after %d adds, slot %d proportion = %v, want %v", i, j, s.Proportion, want)
			}
		}
	}
	checkSums(t, l)
}

func TestAddSlotRejectsDuplicateWindow(t *testing.T) {
	l := New(ColumnMajor, testContainer(), DefaultMinProportion)
	l.SetupFixed(2)
	l.AddSlot(0, 100)

	if s := l.AddSlot(1, 100); s != nil {
		t.Fatal("AddSlot accepted a window already placed in the layout")
	}
	if n := l.SlotCount(); n != 1 {
		t.Fatalf("slot count = %d, want 1", n)
	}
}

func TestInsertSlotAtPreservesOrder(t *testing.T) {
	l := New(ColumnMajor, testContainer(), DefaultMinProportion)
	l.SetupFixed(1)
	l.AddSlot(0, 1)
	l.AddSlot(0, 3)
	l.InsertSlotAt(0, 1, 2)

	want := []platform.WindowID{1, 2, 3}
	got := l.Windows()
	if len(got) != len(want) {
		t.Fatalf("got %d windows, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("window order[%d] = %d, want %d", i, got[i], want[i])
		}
	}
	checkSums(t, l)
}

func TestRemoveSlotCollapsesEmptyDivision(t *testing.T) {
	l := New(ColumnMajor, testContainer(), DefaultMinProportion)
	l.SetupFixed(3)
	l.AddSlot(0, 1)
	l.AddSlot(1, 2)
	l.AddSlot(2, 3)

	if !l.RemoveWindow(2) {
		t.Fatal("RemoveWindow failed for a placed window")
	}
	if len(l.Divisions) != 2 {
		t.Fatalf("got %d divisions after collapse, want 2", len(l.Divisions))
	}
	for i, d := range l.Divisions {
		if math.Abs(d.Proportion-0.5) > SumTolerance {
			t.Errorf("division %d proportion = %v, want 0.5", i, d.Proportion)
		}
	}
	checkSums(t, l)
}

func TestRemoveSlotRedistributesSiblings(t *testing.T) {
	l := New(ColumnMajor, testContainer(), DefaultMinProportion)
	l.SetupFixed(1)
	l.AddSlot(0, 1)
	l.AddSlot(0, 2)
	l.AddSlot(0, 3)

	l.RemoveWindow(2)
	if len(l.Divisions) != 1 {
		t.Fatalf("division was removed while still holding slots")
	}
	for i, s := range l.Divisions[0].Slots {
		if math.Abs(s.Proportion-0.5) > SumTolerance {
			t.Errorf("slot %d proportion = %v, want 0.5", i, s.Proportion)
		}
	}
}

func TestRemoveUnknownWindow(t *testing.T) {
	l := New(ColumnMajor, testContainer(), DefaultMinProportion)
	l.SetupFixed(2)
	l.AddSlot(0, 1)

	if l.RemoveWindow(99) {
		t.Fatal("RemoveWindow reported success for an unplaced window")
	}
	if n := l.SlotCount(); n != 1 {
		t.Fatalf("slot count = %d after failed remove, want 1", n)
	}
}

func TestMoveWindowAcrossDivisions(t *testing.T) {
	l := New(ColumnMajor, testContainer(), DefaultMinProportion)
	l.SetupFixed(2)
	l.AddSlot(0, 1)
	l.AddSlot(0, 2)
	l.AddSlot(1, 3)

	if slot := l.MoveWindow(2, 1); slot == nil {
		t.Fatal("MoveWindow returned nil")
	}
	if di, _, s := l.FindWindow(2); s == nil || di != 1 {
		t.Fatalf("window 2 in division %d, want 1", di)
	}
	if len(l.Divisions[1].Slots) != 2 {
		t.Fatalf("target division has %d slots, want 2", len(l.Divisions[1].Slots))
	}
	checkSums(t, l)
}

func TestMoveWindowOutOfCollapsingDivision(t *testing.T) {
	l := New(ColumnMajor, testContainer(), DefaultMinProportion)
	l.SetupFixed(2)
	l.AddSlot(0, 1)
	l.AddSlot(1, 2)

	// Moving the only slot out of division 0 collapses it; the target
	// index must be resolved against the post-collapse layout.
	if slot := l.MoveWindow(1, 1); slot == nil {
		t.Fatal("MoveWindow returned nil")
	}
	if len(l.Divisions) != 1 {
		t.Fatalf("got %d divisions, want 1", len(l.Divisions))
	}
	if l.SlotCount() != 2 {
		t.Fatalf("slot count = %d, want 2", l.SlotCount())
	}
	checkSums(t, l)
}

func TestMoveWindowIntoOwnDivision(t *testing.T) {
	l := New(ColumnMajor, testContainer(), DefaultMinProportion)
	l.SetupFixed(2)
	l.AddSlot(0, 1)
	l.AddSlot(1, 2)

	// A move into the division the window already occupies must leave the
	// layout untouched, even when the window is the division's only slot.
	slot := l.MoveWindow(1, 0)
	if slot == nil {
		t.Fatal("MoveWindow returned nil")
	}
	if di, _, s := l.FindWindow(1); s == nil || di != 0 {
		t.Fatalf("window 1 in division %d, want 0", di)
	}
	if _, _, s := l.SlotByID(slot.ID); s == nil {
		t.Fatal("returned slot no longer in layout")
	}
	if len(l.Divisions) != 2 || l.SlotCount() != 2 {
		t.Fatalf("layout changed: %d divisions, %d slots", len(l.Divisions), l.SlotCount())
	}
	checkSums(t, l)
}

func TestReorderSlot(t *testing.T) {
	l := New(ColumnMajor, testContainer(), DefaultMinProportion)
	l.SetupFixed(1)
	l.AddSlot(0, 1)
	l.AddSlot(0, 2)
	l.AddSlot(0, 3)
	before := slotProportions(l.Divisions[0].Slots)

	l.ReorderSlot(0, 0, 2)

	want := []platform.WindowID{2, 3, 1}
	got := l.Windows()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("order[%d] = %d, want %d", i, got[i], want[i])
		}
	}
	after := slotProportions(l.Divisions[0].Slots)
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("reorder changed proportion at %d: %v -> %v", i, before[i], after[i])
		}
	}
}

func TestResizeDivisionDivider(t *testing.T) {
	l := New(ColumnMajor, testContainer(), DefaultMinProportion)
	l.SetupFixed(2)

	// +192px on a 1920px extent is +0.10.
	if !l.ResizeDivisionDivider(0, 192) {
		t.Fatal("valid resize rejected")
	}
	if got := l.Divisions[0].Proportion; math.Abs(got-0.6) > SumTolerance {
		t.Errorf("division 0 proportion = %v, want 0.6", got)
	}
	if got := l.Divisions[1].Proportion; math.Abs(got-0.4) > SumTolerance {
		t.Errorf("division 1 proportion = %v, want 0.4", got)
	}
	checkSums(t, l)
}

func TestResizeRejectedBelowMinimum(t *testing.T) {
	l := New(ColumnMajor, testContainer(), DefaultMinProportion)
	l.SetupFixed(2)
	l.ResizeDivisionDivider(0, 768) // 0.9 / 0.1

	// Any further growth would push division 1 below the floor. The model
	// must be unchanged, and repeating the rejected resize must stay a
	// no-op rather than creep.
	for i := 0; i < 3; i++ {
		if l.ResizeDivisionDivider(0, 20) {
			t.Fatalf("resize below minimum accepted on attempt %d", i)
		}
	}
	if got := l.Divisions[0].Proportion; math.Abs(got-0.9) > SumTolerance {
		t.Errorf("division 0 proportion drifted to %v, want 0.9", got)
	}
	checkSums(t, l)
}

func TestResizeToExactMinimumAccepted(t *testing.T) {
	l := New(ColumnMajor, testContainer(), DefaultMinProportion)
	l.SetupFixed(2)

	// +768px on a 1920px extent lands division 1 exactly on the 0.10
	// floor. The pixel conversion undershoots by floating-point error, so
	// the check must carry a tolerance.
	if !l.ResizeDivisionDivider(0, 768) {
		t.Fatal("resize to exact minimum rejected")
	}
	if got := l.Divisions[1].Proportion; math.Abs(got-0.1) > SumTolerance {
		t.Errorf("division 1 proportion = %v, want 0.1", got)
	}
	checkSums(t, l)
}

func TestResizeSlotDivider(t *testing.T) {
	l := New(ColumnMajor, testContainer(), DefaultMinProportion)
	l.SetupFixed(1)
	l.AddSlot(0, 1)
	l.AddSlot(0, 2)

	// Slots split the 1080px height in column-major mode.
	if !l.ResizeSlotDivider(0, 0, 108) {
		t.Fatal("valid slot resize rejected")
	}
	if got := l.Divisions[0].Slots[0].Proportion; math.Abs(got-0.6) > SumTolerance {
		t.Errorf("slot 0 proportion = %v, want 0.6", got)
	}
	checkSums(t, l)
}

func TestResizeDividerBadIndex(t *testing.T) {
	l := New(ColumnMajor, testContainer(), DefaultMinProportion)
	l.SetupFixed(2)

	if l.ResizeDivisionDivider(-1, 50) {
		t.Error("accepted divider index -1")
	}
	if l.ResizeDivisionDivider(1, 50) {
		t.Error("accepted divider index past the last pair")
	}
}

func TestSlotFramesTileExactly(t *testing.T) {
	l := New(ColumnMajor, testContainer(), DefaultMinProportion)
	l.SetupFixed(3)
	win := platform.WindowID(1)
	for di := 0; di < 3; di++ {
		for si := 0; si < di+1; si++ {
			l.AddSlot(di, win)
			win++
		}
	}
	l.ResizeDivisionDivider(0, 137)

	frames := l.SlotFrames()
	area := 0
	for _, f := range frames {
		area += f.Frame.Area()
	}
	if want := l.Container.Area(); area != want {
		t.Fatalf("frames cover %d px, container is %d px", area, want)
	}
	for _, f := range frames {
		if f.LastDiv && f.Frame.Right() != l.Container.Right() {
			t.Errorf("last-division frame right edge %d, want %d", f.Frame.Right(), l.Container.Right())
		}
		if f.LastSlot && f.Frame.Bottom() != l.Container.Bottom() {
			t.Errorf("last-slot frame bottom edge %d, want %d", f.Frame.Bottom(), l.Container.Bottom())
		}
	}
}

func TestRowMajorTransposesAxes(t *testing.T) {
	l := New(RowMajor, testContainer(), DefaultMinProportion)
	l.SetupFixed(2)
	l.AddSlot(0, 1)
	l.AddSlot(0, 2)
	l.AddSlot(1, 3)

	frames := l.SlotFrames()
	// Division 0 is the top strip holding two side-by-side slots.
	if frames[0].Frame.Height != 540 {
		t.Errorf("row-major division height = %d, want 540", frames[0].Frame.Height)
	}
	if frames[0].Frame.Width != 960 {
		t.Errorf("row-major slot width = %d, want 960", frames[0].Frame.Width)
	}
	if frames[2].Frame.Y != 540 {
		t.Errorf("second division starts at y=%d, want 540", frames[2].Frame.Y)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	l := New(ColumnMajor, testContainer(), DefaultMinProportion)
	l.SetupFixed(3)
	l.Divisions[0].Proportion = 0.5
	l.Divisions[1].Proportion = 0.3
	l.Divisions[2].Proportion = 0.4

	if !l.Normalize() {
		t.Fatal("Normalize failed on a valid layout")
	}
	first := divisionProportions(l.Divisions)
	l.Normalize()
	second := divisionProportions(l.Divisions)
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("second Normalize changed proportion %d: %v -> %v", i, first[i], second[i])
		}
	}
	checkSums(t, l)
}

func TestNormalizeZeroSum(t *testing.T) {
	l := New(ColumnMajor, testContainer(), DefaultMinProportion)
	l.SetupFixed(2)
	l.Divisions[0].Proportion = 0
	l.Divisions[1].Proportion = 0

	if l.Normalize() {
		t.Fatal("Normalize reported success on an all-zero sibling list")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	l := New(ColumnMajor, testContainer(), DefaultMinProportion)
	l.SetupFixed(2)
	l.AddSlot(0, 10)
	l.AddSlot(0, 11)
	l.AddSlot(1, 12)
	l.ResizeDivisionDivider(0, 192)
	l.Active = true

	got := FromSnapshot(l.Snapshot())

	if got.Mode != l.Mode || got.Active != l.Active || got.Container != l.Container {
		t.Fatal("snapshot round trip lost layout fields")
	}
	if len(got.Divisions) != len(l.Divisions) {
		t.Fatalf("got %d divisions, want %d", len(got.Divisions), len(l.Divisions))
	}
	for di, div := range l.Divisions {
		if math.Abs(got.Divisions[di].Proportion-div.Proportion) > SumTolerance {
			t.Errorf("division %d proportion = %v, want %v", di, got.Divisions[di].Proportion, div.Proportion)
		}
		for si, s := range div.Slots {
			if got.Divisions[di].Slots[si].Window != s.Window {
				t.Errorf("division %d slot %d window = %d, want %d", di, si, got.Divisions[di].Slots[si].Window, s.Window)
			}
		}
	}
	checkSums(t, got)
}

func TestOperationSequenceKeepsInvariants(t *testing.T) {
	l := New(ColumnMajor, testContainer(), DefaultMinProportion)
	l.SetupFixed(3)
	for w := platform.WindowID(1); w <= 6; w++ {
		l.AddSlot(int(w-1)%3, w)
	}

	l.ResizeDivisionDivider(0, 150)
	l.ResizeSlotDivider(1, 0, -90)
	l.RemoveWindow(4)
	l.MoveWindow(5, 0)
	l.ReorderSlot(0, 0, 1)
	l.ResizeDivisionDivider(1, -60)

	checkSums(t, l)
	frames := l.SlotFrames()
	area := 0
	for _, f := range frames {
		area += f.Frame.Area()
	}
	if area != l.Container.Area() {
		t.Fatalf("frames cover %d px after edits, container is %d px", area, l.Container.Area())
	}
}
