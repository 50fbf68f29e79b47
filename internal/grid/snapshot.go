package grid

import (
	"github.com/google/uuid"

	"github.com/1broseidon/proptile/internal/geometry"
	"github.com/1broseidon/proptile/internal/platform"
)

// SlotSnapshot is the serializable form of a Slot. Window is the live
// window handle and is zero in saved layouts.
type SlotSnapshot struct {
	ID         string  `json:"id"`
	Window     uint32  `json:"window,omitempty"`
	Proportion float64 `json:"proportion"`
}

// DivisionSnapshot is the serializable form of a Division.
type DivisionSnapshot struct {
	ID         string         `json:"id"`
	Proportion float64        `json:"proportion"`
	Slots      []SlotSnapshot `json:"slots"`
}

// Snapshot is the serializable form of a Layout, used for IPC responses
// and saved layout files.
type Snapshot struct {
	Mode       Mode               `json:"mode"`
	Container  geometry.Rect      `json:"container"`
	Active     bool               `json:"active"`
	Divisions  []DivisionSnapshot `json:"divisions"`
	MinPortion float64            `json:"min_proportion"`
}

// Snapshot captures the layout's current state.
func (l *Layout) Snapshot() Snapshot {
	snap := Snapshot{
		Mode:       l.Mode,
		Container:  l.Container,
		Active:     l.Active,
		MinPortion: l.MinProportion,
		Divisions:  make([]DivisionSnapshot, len(l.Divisions)),
	}
	for i, div := range l.Divisions {
		ds := DivisionSnapshot{
			ID:         div.ID,
			Proportion: div.Proportion,
			Slots:      make([]SlotSnapshot, len(div.Slots)),
		}
		for j, s := range div.Slots {
			ds.Slots[j] = SlotSnapshot{
				ID:         s.ID,
				Window:     uint32(s.Window),
				Proportion: s.Proportion,
			}
		}
		snap.Divisions[i] = ds
	}
	return snap
}

// FromSnapshot rebuilds a Layout from a snapshot. IDs missing from the
// snapshot (hand-edited files) are regenerated, and proportions are
// renormalized so a stale file cannot produce an inconsistent model.
func FromSnapshot(snap Snapshot) *Layout {
	l := New(snap.Mode, snap.Container, snap.MinPortion)
	l.Active = snap.Active
	l.Divisions = make([]*Division, len(snap.Divisions))
	for i, ds := range snap.Divisions {
		div := &Division{
			ID:         ds.ID,
			Proportion: ds.Proportion,
			Slots:      make([]*Slot, len(ds.Slots)),
		}
		if div.ID == "" {
			div.ID = uuid.NewString()
		}
		for j, ss := range ds.Slots {
			slot := &Slot{
				ID:         ss.ID,
				Window:     platform.WindowID(ss.Window),
				Proportion: ss.Proportion,
			}
			if slot.ID == "" {
				slot.ID = uuid.NewString()
			}
			div.Slots[j] = slot
		}
		l.Divisions[i] = div
	}
	l.Normalize()
	return l
}
