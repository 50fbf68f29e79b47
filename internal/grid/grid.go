package grid

import (
	"math"

	"github.com/google/uuid"

	"github.com/1broseidon/proptile/internal/geometry"
	"github.com/1broseidon/proptile/internal/platform"
)

// Mode selects the primary axis of the grid.
type Mode string

const (
	// ColumnMajor arranges divisions as vertical strips left to right;
	// slots stack top to bottom inside a division.
	ColumnMajor Mode = "columns"
	// RowMajor arranges divisions as horizontal strips top to bottom;
	// slots lay left to right inside a division.
	RowMajor Mode = "rows"
)

const (
	// SumTolerance is the allowed drift of a sibling proportion sum from 1.0
	// before renormalization kicks in.
	SumTolerance = 1e-4

	// DefaultMinProportion is the floor for any division or slot share.
	DefaultMinProportion = 0.10
)

// Slot is one window's place within a division. Proportion is the slot's
// share of the division along the secondary axis.
type Slot struct {
	ID         string
	Window     platform.WindowID
	Proportion float64
}

// Division is one primary-axis strip of the grid. Proportion is the
// division's share of the layout along the primary axis.
type Division struct {
	ID         string
	Proportion float64
	Slots      []*Slot
}

// Layout is the proportional grid for one monitor. Sibling proportions at
// each level sum to 1.0 within SumTolerance whenever the layout is not
// mid-edit.
type Layout struct {
	Mode          Mode
	Divisions     []*Division
	Container     geometry.Rect
	Active        bool
	MinProportion float64
}

// New creates an empty layout for the given container bounds.
func New(mode Mode, container geometry.Rect, minProportion float64) *Layout {
	if minProportion <= 0 || minProportion >= 1 {
		minProportion = DefaultMinProportion
	}
	return &Layout{
		Mode:          mode,
		Container:     container,
		MinProportion: minProportion,
	}
}

// PrimaryAxis returns the axis along which divisions are laid out.
func (l *Layout) PrimaryAxis() geometry.Axis {
	if l.Mode == RowMajor {
		return geometry.Vertical
	}
	return geometry.Horizontal
}

// SecondaryAxis returns the axis along which slots are laid out.
func (l *Layout) SecondaryAxis() geometry.Axis {
	if l.Mode == RowMajor {
		return geometry.Horizontal
	}
	return geometry.Vertical
}

// SetupFixed resets the layout to count equal empty divisions. Counts
// outside [1, 1/MinProportion] are clamped to that range.
func (l *Layout) SetupFixed(count int) {
	if count < 1 {
		count = 1
	}
	if maxCount := int(1.0 / l.MinProportion); count > maxCount {
		count = maxCount
	}

	l.Divisions = make([]*Division, count)
	share := 1.0 / float64(count)
	for i := range l.Divisions {
		l.Divisions[i] = &Division{ID: uuid.NewString(), Proportion: share}
	}
}

// Rescale updates the container bounds, preserving all proportions. Used
// when the monitor's usable area changes.
func (l *Layout) Rescale(bounds geometry.Rect) {
	l.Container = bounds
}

// AddSlot appends the window to the division at divIndex. Existing slot
// proportions are recomputed to the equal share 1/(n+1) and the new slot
// takes the same share, preserving slot order. No-op with a nil return on a
// bad index or a window already placed in the layout.
func (l *Layout) AddSlot(divIndex int, win platform.WindowID) *Slot {
	if divIndex < 0 || divIndex >= len(l.Divisions) {
		return nil
	}
	return l.InsertSlotAt(divIndex, len(l.Divisions[divIndex].Slots), win)
}

// InsertSlotAt splices the window into the division at the given slot
// position with the equal-redistribution rule of AddSlot.
func (l *Layout) InsertSlotAt(divIndex, slotIndex int, win platform.WindowID) *Slot {
	if divIndex < 0 || divIndex >= len(l.Divisions) {
		return nil
	}
	if _, _, existing := l.FindWindow(win); existing != nil {
		return nil
	}

	div := l.Divisions[divIndex]
	if slotIndex < 0 {
		slotIndex = 0
	}
	if slotIndex > len(div.Slots) {
		slotIndex = len(div.Slots)
	}

	share := 1.0 / float64(len(div.Slots)+1)
	for _, s := range div.Slots {
		s.Proportion = share
	}

	slot := &Slot{ID: uuid.NewString(), Window: win, Proportion: share}
	div.Slots = append(div.Slots, nil)
	copy(div.Slots[slotIndex+1:], div.Slots[slotIndex:])
	div.Slots[slotIndex] = slot
	return slot
}

// RemoveSlot removes the slot with the given ID. When the division becomes
// empty it is removed too and the remaining division proportions are
// redistributed equally; otherwise the remaining slot proportions in the
// division are redistributed equally. Returns false when the ID is unknown.
func (l *Layout) RemoveSlot(slotID string) bool {
	for di, div := range l.Divisions {
		for si, slot := range div.Slots {
			if slot.ID != slotID {
				continue
			}
			div.Slots = append(div.Slots[:si], div.Slots[si+1:]...)
			if len(div.Slots) == 0 {
				l.Divisions = append(l.Divisions[:di], l.Divisions[di+1:]...)
				equalize(divisionProps(l.Divisions))
			} else {
				equalize(slotProps(div.Slots))
			}
			return true
		}
	}
	return false
}

// RemoveWindow removes the slot holding the given window, with the same
// redistribution rules as RemoveSlot.
func (l *Layout) RemoveWindow(win platform.WindowID) bool {
	_, _, slot := l.FindWindow(win)
	if slot == nil {
		return false
	}
	return l.RemoveSlot(slot.ID)
}

// MoveWindow relocates a window to the division at divIndex, removing it
// from its current slot first. Moving a window into the division it already
// occupies returns its existing slot unchanged. Returns nil on a bad index
// or unknown window.
func (l *Layout) MoveWindow(win platform.WindowID, divIndex int) *Slot {
	if divIndex < 0 || divIndex >= len(l.Divisions) {
		return nil
	}
	di, _, slot := l.FindWindow(win)
	if slot == nil {
		return nil
	}
	if di == divIndex {
		return slot
	}
	targetID := l.Divisions[divIndex].ID
	l.RemoveSlot(slot.ID)

	// Removing the window may have collapsed its old division and shifted
	// indices; resolve the target by ID.
	for di, div := range l.Divisions {
		if div.ID == targetID {
			return l.AddSlot(di, win)
		}
	}
	return nil
}

// ReorderSlot moves a slot within its division from one position to
// another without changing any proportion. No-op on bad indices.
func (l *Layout) ReorderSlot(divIndex, from, to int) {
	if divIndex < 0 || divIndex >= len(l.Divisions) {
		return
	}
	slots := l.Divisions[divIndex].Slots
	if from < 0 || from >= len(slots) || to < 0 || to >= len(slots) || from == to {
		return
	}
	slot := slots[from]
	slots = append(slots[:from], slots[from+1:]...)
	slots = append(slots, nil)
	copy(slots[to+1:], slots[to:])
	slots[to] = slot
	l.Divisions[divIndex].Slots = slots
}

// ResizeDivisionDivider moves the boundary between divisions i and i+1 by
// deltaPx along the primary axis. Positive delta grows division i. The
// resize is rejected (returns false, model unchanged) when either side
// would drop below the minimum proportion.
func (l *Layout) ResizeDivisionDivider(i int, deltaPx int) bool {
	return resizeBetween(divisionProps(l.Divisions), i, deltaPx, l.primaryExtent(), l.MinProportion)
}

// ResizeSlotDivider moves the boundary between slots i and i+1 of the
// division at divIndex by deltaPx along the secondary axis, with the same
// acceptance rule as ResizeDivisionDivider.
func (l *Layout) ResizeSlotDivider(divIndex, i int, deltaPx int) bool {
	if divIndex < 0 || divIndex >= len(l.Divisions) {
		return false
	}
	extent := l.secondaryExtent()
	return resizeBetween(slotProps(l.Divisions[divIndex].Slots), i, deltaPx, extent, l.MinProportion)
}

// FindWindow locates the slot holding the window, returning its division
// index, slot index, and slot. slot is nil when the window is not placed.
func (l *Layout) FindWindow(win platform.WindowID) (divIndex, slotIndex int, slot *Slot) {
	for di, div := range l.Divisions {
		for si, s := range div.Slots {
			if s.Window == win {
				return di, si, s
			}
		}
	}
	return 0, 0, nil
}

// SlotByID locates a slot by ID. Same return convention as FindWindow.
func (l *Layout) SlotByID(id string) (divIndex, slotIndex int, slot *Slot) {
	for di, div := range l.Divisions {
		for si, s := range div.Slots {
			if s.ID == id {
				return di, si, s
			}
		}
	}
	return 0, 0, nil
}

// Windows returns every placed window in division-then-slot order.
func (l *Layout) Windows() []platform.WindowID {
	var out []platform.WindowID
	for _, div := range l.Divisions {
		for _, s := range div.Slots {
			out = append(out, s.Window)
		}
	}
	return out
}

// SlotCount returns the total number of slots across all divisions.
func (l *Layout) SlotCount() int {
	n := 0
	for _, div := range l.Divisions {
		n += len(div.Slots)
	}
	return n
}

// Normalize renormalizes division proportions and every division's slot
// proportions. Returns false only in the degenerate case where some sibling
// list sums to zero and cannot be renormalized; that state indicates a
// programming error upstream, not a recoverable condition.
func (l *Layout) Normalize() bool {
	ok := normalize(divisionProps(l.Divisions))
	for _, div := range l.Divisions {
		if !normalize(slotProps(div.Slots)) {
			ok = false
		}
	}
	return ok
}

// SlotFrame pairs a slot with its computed frame and its position in the
// tiling order. LastDiv / LastSlot mark elements whose far edge must stay
// flush with the container after size clamping.
type SlotFrame struct {
	DivIndex  int
	SlotIndex int
	SlotID    string
	Window    platform.WindowID
	Frame     geometry.Rect
	LastDiv   bool
	LastSlot  bool
}

// SlotFrames computes the absolute frame of every slot: divisions are split
// along the primary axis, then each division's slots along the secondary
// axis. The result exactly tiles the container.
func (l *Layout) SlotFrames() []SlotFrame {
	if len(l.Divisions) == 0 {
		return nil
	}

	divRects := geometry.SplitRects(l.Container, divisionProportions(l.Divisions), l.PrimaryAxis())

	var out []SlotFrame
	for di, div := range l.Divisions {
		if len(div.Slots) == 0 {
			continue
		}
		slotRects := geometry.SplitRects(divRects[di], slotProportions(div.Slots), l.SecondaryAxis())
		for si, s := range div.Slots {
			out = append(out, SlotFrame{
				DivIndex:  di,
				SlotIndex: si,
				SlotID:    s.ID,
				Window:    s.Window,
				Frame:     slotRects[si],
				LastDiv:   di == len(l.Divisions)-1,
				LastSlot:  si == len(div.Slots)-1,
			})
		}
	}
	return out
}

func (l *Layout) primaryExtent() int {
	if l.PrimaryAxis() == geometry.Horizontal {
		return l.Container.Width
	}
	return l.Container.Height
}

func (l *Layout) secondaryExtent() int {
	if l.SecondaryAxis() == geometry.Horizontal {
		return l.Container.Width
	}
	return l.Container.Height
}

// divisionProportions returns a copy of the division proportion values.
func divisionProportions(divs []*Division) []float64 {
	out := make([]float64, len(divs))
	for i, d := range divs {
		out[i] = d.Proportion
	}
	return out
}

// slotProportions returns a copy of the slot proportion values.
func slotProportions(slots []*Slot) []float64 {
	out := make([]float64, len(slots))
	for i, s := range slots {
		out[i] = s.Proportion
	}
	return out
}

// propList is a view over sibling proportions that mutates in place.
type propList []*float64

func divisionProps(divs []*Division) propList {
	out := make(propList, len(divs))
	for i, d := range divs {
		out[i] = &d.Proportion
	}
	return out
}

func slotProps(slots []*Slot) propList {
	out := make(propList, len(slots))
	for i, s := range slots {
		out[i] = &s.Proportion
	}
	return out
}

// equalize sets every sibling proportion to the equal share.
func equalize(props propList) {
	if len(props) == 0 {
		return
	}
	share := 1.0 / float64(len(props))
	for _, p := range props {
		*p = share
	}
}

// normalize divides every proportion by the current sum when the sum has
// drifted beyond SumTolerance. Idempotent. Returns false when the sum is
// zero and nothing can be done.
func normalize(props propList) bool {
	if len(props) == 0 {
		return true
	}
	sum := 0.0
	for _, p := range props {
		sum += *p
	}
	if sum == 0 {
		return false
	}
	if math.Abs(sum-1.0) <= SumTolerance {
		return true
	}
	for _, p := range props {
		*p /= sum
	}
	return true
}

// resizeBetween converts deltaPx to a proportional delta against extentPx
// and tentatively moves it from element i+1 to element i. The move is
// accepted only when both resulting proportions stay at or above min; on
// acceptance the whole sibling list is renormalized to absorb drift.
func resizeBetween(props propList, i, deltaPx, extentPx int, min float64) bool {
	if i < 0 || i+1 >= len(props) || extentPx <= 0 || deltaPx == 0 {
		return false
	}

	delta := float64(deltaPx) / float64(extentPx)
	a := *props[i] + delta
	b := *props[i+1] - delta
	// Landing exactly on the minimum must be accepted even when the pixel
	// conversion undershoots it by floating-point error.
	if a < min-SumTolerance || b < min-SumTolerance {
		return false
	}

	*props[i] = a
	*props[i+1] = b
	normalize(props)
	return true
}
