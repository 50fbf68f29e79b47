package scan

import (
	"math"
	"testing"

	"github.com/1broseidon/proptile/internal/geometry"
	"github.com/1broseidon/proptile/internal/grid"
	"github.com/1broseidon/proptile/internal/platform"
)

func testMonitor() platform.Monitor {
	return platform.Monitor{
		ID:      "DP-1",
		Name:    "DP-1",
		Usable:  geometry.Rect{X: 0, Y: 0, Width: 1920, Height: 1080},
		Primary: true,
	}
}

func win(id platform.WindowID, x, y, w, h int) platform.Window {
	return platform.Window{ID: id, Frame: geometry.Rect{X: x, Y: y, Width: w, Height: h}}
}

// tileWindows lays out one window per slot of an already-valid layout,
// giving the scanner a perfectly tiled input to recover.
func tileWindows(l *grid.Layout) []platform.Window {
	var out []platform.Window
	for _, f := range l.SlotFrames() {
		out = append(out, platform.Window{ID: f.Window, Frame: f.Frame})
	}
	return out
}

func TestScanRoundTripUniformGrids(t *testing.T) {
	s := New(DefaultEdgeTolerance, grid.DefaultMinProportion)
	mon := testMonitor()

	for divs := 1; divs <= 4; divs++ {
		for slots := 1; slots <= 3; slots++ {
			src := grid.New(grid.ColumnMajor, mon.Usable, grid.DefaultMinProportion)
			src.SetupFixed(divs)
			id := platform.WindowID(1)
			for d := 0; d < divs; d++ {
				for n := 0; n < slots; n++ {
					src.AddSlot(d, id)
					id++
				}
			}

			got, ok := s.Scan(mon, tileWindows(src), grid.ColumnMajor)
			if !ok {
				t.Fatalf("%dx%d: scan failed", divs, slots)
			}
			if len(got.Divisions) != divs {
				t.Fatalf("%dx%d: recovered %d divisions", divs, slots, len(got.Divisions))
			}
			for di, div := range got.Divisions {
				if len(div.Slots) != slots {
					t.Fatalf("%dx%d: division %d has %d slots", divs, slots, di, len(div.Slots))
				}
			}
		}
	}
}

func TestScanPreservesAsymmetricProportions(t *testing.T) {
	s := New(DefaultEdgeTolerance, grid.DefaultMinProportion)
	mon := testMonitor()

	// 70/30 columns; left column split 60/40 vertically.
	windows := []platform.Window{
		win(1, 0, 0, 1344, 648),
		win(2, 0, 648, 1344, 432),
		win(3, 1344, 0, 576, 1080),
	}

	layout, ok := s.Scan(mon, windows, grid.ColumnMajor)
	if !ok {
		t.Fatal("scan failed")
	}
	if len(layout.Divisions) != 2 {
		t.Fatalf("got %d divisions, want 2", len(layout.Divisions))
	}
	if got := layout.Divisions[0].Proportion; math.Abs(got-0.7) > 0.02 {
		t.Errorf("left division proportion = %v, want ~0.7", got)
	}
	if got := layout.Divisions[0].Slots[0].Proportion; math.Abs(got-0.6) > 0.02 {
		t.Errorf("top-left slot proportion = %v, want ~0.6", got)
	}
	if got := layout.Divisions[0].Slots[1].Proportion; math.Abs(got-0.4) > 0.02 {
		t.Errorf("bottom-left slot proportion = %v, want ~0.4", got)
	}
}

func TestScanExcludesFloatingWindows(t *testing.T) {
	s := New(DefaultEdgeTolerance, grid.DefaultMinProportion)
	mon := testMonitor()

	windows := []platform.Window{
		win(1, 0, 0, 960, 1080),
		win(2, 960, 0, 960, 1080),
		// Centered dialog touching nothing.
		win(3, 700, 400, 400, 300),
	}

	layout, ok := s.Scan(mon, windows, grid.ColumnMajor)
	if !ok {
		t.Fatal("scan failed")
	}
	if got := layout.SlotCount(); got != 2 {
		t.Fatalf("got %d slots, want 2 (floating window kept)", got)
	}
	for _, w := range layout.Windows() {
		if w == 3 {
			t.Fatal("floating window was placed in the layout")
		}
	}
}

func TestScanToleratesGapsUpToEdgeTolerance(t *testing.T) {
	s := New(DefaultEdgeTolerance, grid.DefaultMinProportion)
	mon := testMonitor()
	tol := DefaultEdgeTolerance

	// Two columns separated from the container edges and from each other
	// by exactly the edge tolerance. Both must still read as tiled, and a
	// third window offset past the tolerance must not.
	windows := []platform.Window{
		win(1, tol, tol, 960-2*tol, 1080-2*tol),
		win(2, 960+tol, tol, 960-2*tol, 1080-2*tol),
		win(3, 400, 2*tol+1, 400, 300),
	}

	layout, ok := s.Scan(mon, windows, grid.ColumnMajor)
	if !ok {
		t.Fatal("scan failed")
	}
	if got := layout.SlotCount(); got != 2 {
		t.Fatalf("got %d slots, want 2", got)
	}
	for _, w := range layout.Windows() {
		if w == 3 {
			t.Fatal("window past the edge tolerance was placed in the layout")
		}
	}
}

func TestScanFallsBackWhenAllFloating(t *testing.T) {
	s := New(DefaultEdgeTolerance, grid.DefaultMinProportion)
	mon := testMonitor()

	windows := []platform.Window{
		win(1, 100, 100, 500, 400),
		win(2, 900, 300, 600, 500),
	}

	layout, ok := s.Scan(mon, windows, grid.ColumnMajor)
	if !ok {
		t.Fatal("scan failed")
	}
	if got := layout.SlotCount(); got != 2 {
		t.Fatalf("got %d slots, want 2 via the all-floating fallback", got)
	}
}

func TestScanFailsOffMonitor(t *testing.T) {
	s := New(DefaultEdgeTolerance, grid.DefaultMinProportion)
	mon := testMonitor()

	// Less than half of the window overlaps the monitor.
	windows := []platform.Window{
		win(1, 1700, 0, 800, 600),
	}

	if _, ok := s.Scan(mon, windows, grid.ColumnMajor); ok {
		t.Fatal("scan succeeded with no window majority-overlapping the monitor")
	}
}

func TestScanRowMajor(t *testing.T) {
	s := New(DefaultEdgeTolerance, grid.DefaultMinProportion)
	mon := testMonitor()

	// Two horizontal strips; top strip holds two side-by-side windows.
	windows := []platform.Window{
		win(1, 0, 0, 960, 540),
		win(2, 960, 0, 960, 540),
		win(3, 0, 540, 1920, 540),
	}

	layout, ok := s.Scan(mon, windows, grid.RowMajor)
	if !ok {
		t.Fatal("scan failed")
	}
	if layout.Mode != grid.RowMajor {
		t.Fatalf("layout mode = %v, want RowMajor", layout.Mode)
	}
	if len(layout.Divisions) != 2 {
		t.Fatalf("got %d divisions, want 2", len(layout.Divisions))
	}
	if got := len(layout.Divisions[0].Slots); got != 2 {
		t.Fatalf("top division has %d slots, want 2", got)
	}
	if layout.Container != mon.Usable {
		t.Fatalf("container = %+v, want the monitor usable rect", layout.Container)
	}
}

func TestScanNormalizesResult(t *testing.T) {
	s := New(DefaultEdgeTolerance, grid.DefaultMinProportion)
	mon := testMonitor()

	windows := []platform.Window{
		win(1, 0, 0, 640, 1080),
		win(2, 640, 0, 640, 1080),
		win(3, 1280, 0, 640, 1080),
	}

	layout, ok := s.Scan(mon, windows, grid.ColumnMajor)
	if !ok {
		t.Fatal("scan failed")
	}
	sum := 0.0
	for _, d := range layout.Divisions {
		sum += d.Proportion
	}
	if math.Abs(sum-1.0) > grid.SumTolerance {
		t.Fatalf("division proportions sum to %v", sum)
	}
}
