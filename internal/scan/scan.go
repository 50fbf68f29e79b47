// Package scan reverse-engineers a proportional grid layout from the
// windows already positioned on a monitor.
package scan

import (
	"sort"

	"github.com/google/uuid"

	"github.com/1broseidon/proptile/internal/geometry"
	"github.com/1broseidon/proptile/internal/grid"
	"github.com/1broseidon/proptile/internal/platform"
)

// DefaultEdgeTolerance is the pixel slack when deciding whether two edges
// line up.
const DefaultEdgeTolerance = 20

// Scanner infers a layout from live window rectangles. The zero value is
// not usable; construct with New.
type Scanner struct {
	edgeTolerance int
	minProportion float64
}

// New returns a scanner with the given edge tolerance in pixels and the
// layout minimum proportion. Non-positive values fall back to defaults.
func New(edgeTolerance int, minProportion float64) *Scanner {
	if edgeTolerance <= 0 {
		edgeTolerance = DefaultEdgeTolerance
	}
	if minProportion <= 0 || minProportion >= 1 {
		minProportion = grid.DefaultMinProportion
	}
	return &Scanner{edgeTolerance: edgeTolerance, minProportion: minProportion}
}

// Scan builds a layout from the windows on the monitor. It returns false
// when no window overlaps the monitor's usable area by at least half the
// window's own area; the caller is expected to fall back to a fixed grid.
func (s *Scanner) Scan(mon platform.Monitor, windows []platform.Window, mode grid.Mode) (*grid.Layout, bool) {
	usable := mon.Usable

	onMonitor := make([]platform.Window, 0, len(windows))
	for _, w := range windows {
		if w.Frame.Area() == 0 {
			continue
		}
		overlap := geometry.Intersect(w.Frame, usable).Area()
		if overlap*2 >= w.Frame.Area() {
			onMonitor = append(onMonitor, w)
		}
	}
	if len(onMonitor) == 0 {
		return nil, false
	}

	// RowMajor is the transpose of ColumnMajor; run the column-major
	// inference on transposed rectangles and flip the result back.
	container := usable
	if mode == grid.RowMajor {
		container = transpose(container)
		for i := range onMonitor {
			onMonitor[i].Frame = transpose(onMonitor[i].Frame)
		}
	}

	tiled := s.filterTiled(container, onMonitor)
	count := s.inferDivisionCount(tiled)
	layout := s.buildLayout(container, tiled, count, mode)
	layout.Rescale(usable)
	return layout, true
}

func transpose(r geometry.Rect) geometry.Rect {
	return geometry.Rect{X: r.Y, Y: r.X, Width: r.Height, Height: r.Width}
}

func near(a, b, tol int) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func rangesOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// filterTiled keeps windows with at least 2 of 4 edges within tolerance of
// either a container edge or an opposing neighbor edge. When no window
// qualifies, every window is treated as tiled so the scan still produces a
// layout.
func (s *Scanner) filterTiled(container geometry.Rect, windows []platform.Window) []platform.Window {
	tol := s.edgeTolerance
	tiled := make([]platform.Window, 0, len(windows))

	for i, w := range windows {
		f := w.Frame
		leftOK := near(f.X, container.X, tol)
		rightOK := near(f.Right(), container.Right(), tol)
		topOK := near(f.Y, container.Y, tol)
		bottomOK := near(f.Bottom(), container.Bottom(), tol)

		for j, o := range windows {
			if j == i {
				continue
			}
			of := o.Frame
			// Left/right edges are only comparable when the windows
			// overlap vertically; top/bottom when they overlap
			// horizontally.
			if rangesOverlap(f.Y, f.Bottom(), of.Y, of.Bottom()) {
				leftOK = leftOK || near(f.X, of.Right(), tol)
				rightOK = rightOK || near(f.Right(), of.X, tol)
			}
			if rangesOverlap(f.X, f.Right(), of.X, of.Right()) {
				topOK = topOK || near(f.Y, of.Bottom(), tol)
				bottomOK = bottomOK || near(f.Bottom(), of.Y, tol)
			}
		}

		edges := 0
		for _, ok := range []bool{leftOK, rightOK, topOK, bottomOK} {
			if ok {
				edges++
			}
		}
		if edges >= 2 {
			tiled = append(tiled, w)
		}
	}

	if len(tiled) == 0 {
		return windows
	}
	return tiled
}

// inferDivisionCount estimates how many vertical strips the windows form.
// It samples horizontal slices at every window's top, bottom, and vertical
// midpoint, counts merged X-interval clusters at each slice, and takes the
// maximum.
func (s *Scanner) inferDivisionCount(windows []platform.Window) int {
	samples := make([]int, 0, len(windows)*3)
	for _, w := range windows {
		samples = append(samples, w.Frame.Y+1, w.Frame.Bottom()-1, w.Frame.Y+w.Frame.Height/2)
	}

	best := 1
	for _, y := range samples {
		row := make([]geometry.Rect, 0, len(windows))
		for _, w := range windows {
			if y >= w.Frame.Y && y < w.Frame.Bottom() {
				row = append(row, w.Frame)
			}
		}
		if n := s.countClusters(row); n > best {
			best = n
		}
	}
	if max := int(1.0 / s.minProportion); best > max {
		best = max
	}
	return best
}

// countClusters greedily merges X-intervals: sorted by left edge, a rect
// starts a new cluster only when its left edge clears the running cluster's
// right edge minus the tolerance.
func (s *Scanner) countClusters(rects []geometry.Rect) int {
	if len(rects) == 0 {
		return 0
	}
	sorted := make([]geometry.Rect, len(rects))
	copy(sorted, rects)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	count := 1
	right := sorted[0].Right()
	for _, r := range sorted[1:] {
		if r.X > right-s.edgeTolerance {
			count++
			right = r.Right()
			continue
		}
		if r.Right() > right {
			right = r.Right()
		}
	}
	return count
}

// buildLayout buckets windows into divisionCount equal-width boundaries by
// center X, sorts each bucket top to bottom, and derives proportions from
// the measured extents so asymmetric arrangements survive the scan.
func (s *Scanner) buildLayout(container geometry.Rect, windows []platform.Window, divisionCount int, mode grid.Mode) *grid.Layout {
	if divisionCount < 1 {
		divisionCount = 1
	}

	buckets := make([][]platform.Window, divisionCount)
	bucketWidth := float64(container.Width) / float64(divisionCount)
	for _, w := range windows {
		center := float64(w.Frame.X-container.X) + float64(w.Frame.Width)/2
		idx := int(center / bucketWidth)
		if idx < 0 {
			idx = 0
		}
		if idx >= divisionCount {
			idx = divisionCount - 1
		}
		buckets[idx] = append(buckets[idx], w)
	}

	layout := grid.New(mode, container, s.minProportion)

	for _, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		sort.Slice(bucket, func(i, j int) bool { return bucket[i].Frame.Y < bucket[j].Frame.Y })

		avgWidth := 0.0
		for _, w := range bucket {
			avgWidth += float64(w.Frame.Width)
		}
		avgWidth /= float64(len(bucket))

		div := &grid.Division{
			ID:         uuid.NewString(),
			Proportion: avgWidth / float64(container.Width),
		}
		for _, w := range bucket {
			div.Slots = append(div.Slots, &grid.Slot{
				ID:         uuid.NewString(),
				Window:     w.ID,
				Proportion: float64(w.Frame.Height) / float64(container.Height),
			})
		}
		layout.Divisions = append(layout.Divisions, div)
	}

	layout.Normalize()
	return layout
}
