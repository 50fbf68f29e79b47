package manager

import (
	"github.com/1broseidon/proptile/internal/geometry"
	"github.com/1broseidon/proptile/internal/grid"
	"github.com/1broseidon/proptile/internal/platform"
)

// edgeDeltas holds the signed per-edge drift of a live frame from its
// expected frame, in the top-left/Y-down convention.
type edgeDeltas struct {
	left, right, top, bottom int
}

func (d edgeDeltas) widthChange() int  { return d.right - d.left }
func (d edgeDeltas) heightChange() int { return d.bottom - d.top }

func (d edgeDeltas) belowNoise(threshold int) bool {
	return abs(d.left) < threshold && abs(d.right) < threshold &&
		abs(d.top) < threshold && abs(d.bottom) < threshold
}

// magnitude is the aggregate drift used to pick the single slot a pass
// acts on when several windows moved at once.
func (d edgeDeltas) magnitude() int {
	return abs(d.left) + abs(d.right) + abs(d.top) + abs(d.bottom)
}

// drift pairs a slot with its measured deltas.
type drift struct {
	slotID string
	deltas edgeDeltas
}

// reconcileAll runs one reconciliation pass over every active layout.
func (m *Manager) reconcileAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ml := range m.layouts {
		m.reconcileLocked(ml, 0)
	}
}

// reconcileWindow runs a pass restricted to the layout holding the window.
func (m *Manager) reconcileWindow(win platform.WindowID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ml := range m.layouts {
		if _, _, slot := ml.layout.FindWindow(win); slot != nil {
			m.reconcileLocked(ml, win)
			return
		}
	}
}

// reconcileLocked performs one pass for one layout. When only is nonzero
// the comparison is restricted to that window; otherwise every placed
// window is checked. At most one slot's drift is applied per pass; the
// others are picked up by the next pass once the re-apply has settled.
// Caller holds the mutex.
func (m *Manager) reconcileLocked(ml *managedLayout, only platform.WindowID) {
	defer func() {
		if err := recover(); err != nil {
			m.logger.Error("reconcile panic recovered", "monitor", ml.monitor.ID, "error", err)
		}
	}()

	if !ml.layout.Active || ml.applying {
		return
	}

	var best *drift
	for _, sf := range ml.layout.SlotFrames() {
		if sf.Window == 0 || (only != 0 && sf.Window != only) {
			continue
		}
		exp, ok := ml.expected[sf.SlotID]
		if !ok {
			continue
		}
		live, ok := m.backend.GetFrame(sf.Window)
		if !ok {
			// Transient unavailability is no new information; the
			// liveness sweep decides whether the window is gone.
			continue
		}

		d := edgeDeltas{
			left:   live.X - exp.X,
			right:  live.Right() - exp.Right(),
			top:    live.Y - exp.Y,
			bottom: live.Bottom() - exp.Bottom(),
		}
		if d.belowNoise(m.cfg.NoiseThresholdPx) {
			continue
		}
		if best == nil || d.magnitude() > best.deltas.magnitude() {
			best = &drift{slotID: sf.SlotID, deltas: d}
		}
	}
	if best == nil {
		return
	}

	if m.applyDriftLocked(ml, best.slotID, best.deltas) {
		ml.layout.Normalize()
		m.applyLocked(ml)
	}
}

// applyDriftLocked classifies which edge the user dragged and transfers the
// matching proportion between the slot (or its division) and the immediate
// neighbor. Returns true when the model changed.
func (m *Manager) applyDriftLocked(ml *managedLayout, slotID string, d edgeDeltas) bool {
	divIndex, slotIndex, slot := ml.layout.SlotByID(slotID)
	if slot == nil {
		return false
	}

	// Map screen edges onto the layout's two levels: the primary-axis
	// extent change adjusts division dividers, the secondary-axis change
	// adjusts slot dividers within the division. Row-major is the
	// transpose of column-major.
	primLead, primTrail := d.left, d.right
	primChange := d.widthChange()
	secLead, secTrail := d.top, d.bottom
	secChange := d.heightChange()
	if ml.layout.PrimaryAxis() == geometry.Vertical {
		primLead, primTrail = d.top, d.bottom
		primChange = d.heightChange()
		secLead, secTrail = d.left, d.right
		secChange = d.widthChange()
	}

	// Act on the axis with the larger extent change; below the drag
	// threshold a change is treated as window-manager jitter.
	if abs(primChange) >= abs(secChange) {
		if abs(primChange) < m.cfg.DragThresholdPx {
			return false
		}
		return m.resizeDivisionFromDrag(ml.layout, divIndex, primLead, primTrail)
	}
	if abs(secChange) < m.cfg.DragThresholdPx {
		return false
	}
	return m.resizeSlotFromDrag(ml.layout, divIndex, slotIndex, secLead, secTrail)
}

// resizeDivisionFromDrag resolves which division divider the drag moved.
// The dragged edge is the one with the larger absolute delta; the opposite
// edge is assumed to have stayed put. Outer container edges have no
// neighbor to borrow from and are ignored.
func (m *Manager) resizeDivisionFromDrag(l *grid.Layout, divIndex, lead, trail int) bool {
	if abs(lead) > abs(trail) {
		if divIndex == 0 {
			return false
		}
		return l.ResizeDivisionDivider(divIndex-1, lead)
	}
	if divIndex >= len(l.Divisions)-1 {
		return false
	}
	return l.ResizeDivisionDivider(divIndex, trail)
}

// resizeSlotFromDrag is the slot-level counterpart; the borrow never leaves
// the slot's own division.
func (m *Manager) resizeSlotFromDrag(l *grid.Layout, divIndex, slotIndex, lead, trail int) bool {
	if divIndex < 0 || divIndex >= len(l.Divisions) {
		return false
	}
	slots := l.Divisions[divIndex].Slots
	if abs(lead) > abs(trail) {
		if slotIndex == 0 {
			return false
		}
		return l.ResizeSlotDivider(divIndex, slotIndex-1, lead)
	}
	if slotIndex >= len(slots)-1 {
		return false
	}
	return l.ResizeSlotDivider(divIndex, slotIndex, trail)
}

// sweepClosed removes windows whose frame is unavailable and whose owning
// process is confirmed dead. Frame-read failures alone never remove a slot;
// an app mid-hang or a machine waking from sleep must not destroy layout
// state.
func (m *Manager) sweepClosed() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ml := range m.layouts {
		if !ml.layout.Active || ml.applying {
			continue
		}

		var gone []platform.WindowID
		for _, win := range ml.layout.Windows() {
			if _, ok := m.backend.GetFrame(win); ok {
				continue
			}
			if m.backend.IsProcessAlive(win) {
				continue
			}
			gone = append(gone, win)
		}
		if len(gone) == 0 {
			continue
		}

		for _, win := range gone {
			ml.layout.RemoveWindow(win)
			m.backend.Unsubscribe(win)
			m.logger.Info("closed window removed", "monitor", ml.monitor.ID, "window", win)
		}
		m.applyLocked(ml)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
