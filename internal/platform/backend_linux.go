//go:build linux

package platform

import (
	"fmt"
	"sort"
	"sync"
	"syscall"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/proptile/internal/geometry"
	"github.com/1broseidon/proptile/internal/x11"
)

// X11Backend implements Backend over an X11 connection. Event callbacks run
// on the X event loop goroutine and only push onto the events channel;
// layout state is never touched from there.
type X11Backend struct {
	conn   *x11.Connection
	events chan Event

	mu      sync.Mutex
	watched map[WindowID]bool
}

var _ Backend = (*X11Backend)(nil)

// NewX11Backend opens a fresh X11 connection.
func NewX11Backend() (*X11Backend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &X11Backend{
		conn:    conn,
		events:  make(chan Event, 64),
		watched: make(map[WindowID]bool),
	}, nil
}

// EventLoop runs the X11 event loop (blocking). Must be running for
// Subscribe notifications to be delivered.
func (b *X11Backend) EventLoop() {
	b.conn.EventLoop()
}

// Close disconnects from the X server.
func (b *X11Backend) Close() {
	b.conn.Close()
}

// Monitors returns all active displays, identified by their RandR output
// name.
func (b *X11Backend) Monitors() ([]Monitor, error) {
	monitors, err := b.conn.GetMonitors()
	if err != nil {
		return nil, err
	}

	out := make([]Monitor, 0, len(monitors))
	for _, m := range monitors {
		out = append(out, Monitor{
			ID:      m.Name,
			Name:    m.Name,
			Usable:  m.Usable,
			Primary: m.Primary,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListWindows returns the normal, viewable windows whose centers fall
// inside the monitor's usable area.
func (b *X11Backend) ListWindows(monitorID string) ([]Window, error) {
	monitors, err := b.Monitors()
	if err != nil {
		return nil, err
	}
	var target *Monitor
	for i := range monitors {
		if monitors[i].ID == monitorID {
			target = &monitors[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("monitor %q not found", monitorID)
	}

	clients, err := b.conn.ListClients()
	if err != nil {
		return nil, err
	}

	windows := make([]Window, 0, len(clients))
	for _, client := range clients {
		if !b.conn.IsNormalWindow(client) || !b.conn.IsViewable(client) {
			continue
		}
		frame, ok := b.conn.WindowFrame(client)
		if !ok {
			continue
		}
		centerX := frame.X + frame.Width/2
		centerY := frame.Y + frame.Height/2
		if !target.Usable.Contains(centerX, centerY) {
			continue
		}
		windows = append(windows, Window{
			ID:    WindowID(client),
			PID:   b.conn.WindowPID(client),
			AppID: b.conn.WindowClass(client),
			Title: b.conn.WindowTitle(client),
			Frame: frame,
		})
	}

	sort.Slice(windows, func(i, j int) bool { return windows[i].ID < windows[j].ID })
	return windows, nil
}

func (b *X11Backend) GetFrame(id WindowID) (geometry.Rect, bool) {
	return b.conn.WindowFrame(xproto.Window(id))
}

func (b *X11Backend) SetFrame(id WindowID, frame geometry.Rect) error {
	return b.conn.MoveResizeWindow(xproto.Window(id), frame)
}

func (b *X11Backend) SizeHints(id WindowID) (geometry.Size, geometry.Size) {
	return b.conn.SizeHints(xproto.Window(id))
}

// IsProcessAlive checks the window's _NET_WM_PID with a zero signal. A
// window without a published PID is assumed alive; removal then waits for
// the DestroyNotify path.
func (b *X11Backend) IsProcessAlive(id WindowID) bool {
	pid := b.conn.WindowPID(xproto.Window(id))
	if pid <= 0 {
		return true
	}
	return syscall.Kill(pid, 0) == nil
}

func (b *X11Backend) Subscribe(id WindowID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.watched[id] {
		return nil
	}

	err := b.conn.WatchWindow(xproto.Window(id),
		func() { b.push(Event{Window: id, Kind: GeometryChanged}) },
		func() { b.push(Event{Window: id, Kind: WindowDestroyed}) },
	)
	if err != nil {
		return err
	}
	b.watched[id] = true
	return nil
}

func (b *X11Backend) Unsubscribe(id WindowID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.watched[id] {
		return
	}
	b.conn.UnwatchWindow(xproto.Window(id))
	delete(b.watched, id)
}

func (b *X11Backend) Events() <-chan Event { return b.events }

// push never blocks the X event loop; when the consumer is behind, the
// event is dropped and the periodic poll catches the drift instead.
func (b *X11Backend) push(ev Event) {
	select {
	case b.events <- ev:
	default:
	}
}
