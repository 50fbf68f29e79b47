package platform

import "github.com/1broseidon/proptile/internal/geometry"

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Monitor describes a physical display and its usable work area (panels and
// docks excluded). Monitors are immutable; a display-configuration change
// produces a fresh set rather than mutating existing values.
type Monitor struct {
	ID      string
	Name    string
	Usable  geometry.Rect
	Primary bool
}

// Window contains metadata and geometry for an externally owned top-level
// window. The manager never owns the window's lifecycle; it only reads and
// writes geometry through its ID.
type Window struct {
	ID    WindowID
	PID   int
	AppID string
	Title string
	Frame geometry.Rect
}

// EventKind classifies a backend notification.
type EventKind int

const (
	// GeometryChanged means a subscribed window moved or resized.
	GeometryChanged EventKind = iota
	// WindowDestroyed means a subscribed window was destroyed.
	WindowDestroyed
	// MonitorsChanged means the display set or geometry changed.
	MonitorsChanged
)

// Event is a backend notification delivered on the Events channel. The
// channel is consumed by a single owner; backend callbacks must push here
// and never touch layout state directly.
type Event struct {
	Window WindowID
	Kind   EventKind
}

// Backend abstracts window-system operations across platforms. Every call
// may fail or return stale data; callers never assume a write has taken
// effect before the next read.
type Backend interface {
	Monitors() ([]Monitor, error)
	ListWindows(monitorID string) ([]Window, error)

	// GetFrame returns the window's current frame, or ok=false when the
	// window system cannot report it (closed window, hung app, sleep).
	GetFrame(id WindowID) (geometry.Rect, bool)
	SetFrame(id WindowID, frame geometry.Rect) error
	SizeHints(id WindowID) (minSize, maxSize geometry.Size)

	// IsProcessAlive reports whether the window's owning process still
	// exists. Used to distinguish a transiently unreadable window from a
	// confirmed-gone one.
	IsProcessAlive(id WindowID) bool

	// Subscribe starts geometry/destroy notifications for a window;
	// Unsubscribe stops them. Notifications arrive on Events.
	Subscribe(id WindowID) error
	Unsubscribe(id WindowID)
	Events() <-chan Event
}
