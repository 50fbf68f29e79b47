package manager

import (
	"github.com/1broseidon/proptile/internal/geometry"
)

// applyLocked computes every slot's frame, clamps it against the window's
// reported size hints, issues the frame to the backend, and refreshes the
// expected rectangles the sync engine compares against. Caller holds the
// mutex. The applying flag is set for the duration so geometry events
// caused by our own frame commands do not feed back into the model.
func (m *Manager) applyLocked(ml *managedLayout) {
	ml.applying = true
	defer func() { ml.applying = false }()

	expected := make(map[string]geometry.Rect, ml.layout.SlotCount())
	for _, sf := range ml.layout.SlotFrames() {
		if sf.Window == 0 {
			continue
		}

		frame := sf.Frame
		minSize, maxSize := m.backend.SizeHints(sf.Window)
		lastH := sf.LastDiv
		lastV := sf.LastSlot
		if ml.layout.PrimaryAxis() == geometry.Vertical {
			// Row-major: the division boundary is horizontal, so the
			// flush edges swap.
			lastH, lastV = sf.LastSlot, sf.LastDiv
		}
		frame = geometry.ClampRect(frame, minSize, maxSize, lastH, lastV)

		if err := m.backend.SetFrame(sf.Window, frame); err != nil {
			m.logger.Warn("set frame failed", "window", sf.Window, "error", err)
		}
		expected[sf.SlotID] = frame
	}
	ml.expected = expected
}
