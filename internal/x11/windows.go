package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/proptile/internal/geometry"
)

// MoveResizeWindow moves and resizes a window to the given frame.
func (c *Connection) MoveResizeWindow(windowID xproto.Window, frame geometry.Rect) error {
	// A maximized window ignores configure requests; drop the state first.
	c.unmaximizeWindow(windowID)

	err := ewmh.MoveresizeWindow(c.XUtil, windowID, frame.X, frame.Y, frame.Width, frame.Height)
	if err != nil {
		// Fallback to direct window manipulation for WMs without
		// _NET_MOVERESIZE_WINDOW support.
		xwindow.New(c.XUtil, windowID).MoveResize(frame.X, frame.Y, frame.Width, frame.Height)
	}
	return nil
}

// unmaximizeWindow removes maximized state from a window.
func (c *Connection) unmaximizeWindow(windowID xproto.Window) {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return
	}
	for _, state := range states {
		switch state {
		case "_NET_WM_STATE_MAXIMIZED_HORZ", "_NET_WM_STATE_MAXIMIZED_VERT":
			ewmh.WmStateReq(c.XUtil, windowID, 0, state)
		}
	}
}

// WindowFrame returns the window's frame in root coordinates. ok is false
// when the window cannot be queried (destroyed, or the server is
// mid-reparent).
func (c *Connection) WindowFrame(windowID xproto.Window) (geometry.Rect, bool) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return geometry.Rect{}, false
	}
	translate, err := xproto.TranslateCoordinates(c.XUtil.Conn(), windowID, c.Root, 0, 0).Reply()
	if err != nil {
		return geometry.Rect{}, false
	}
	return geometry.Rect{
		X:      int(translate.DstX),
		Y:      int(translate.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, true
}

// SizeHints returns the window's WM_NORMAL_HINTS min/max sizes. Zero values
// mean unconstrained.
func (c *Connection) SizeHints(windowID xproto.Window) (minSize, maxSize geometry.Size) {
	hints, err := icccm.WmNormalHintsGet(c.XUtil, windowID)
	if err != nil {
		return geometry.Size{}, geometry.Size{}
	}
	if hints.Flags&icccm.SizeHintPMinSize > 0 {
		minSize = geometry.Size{Width: int(hints.MinWidth), Height: int(hints.MinHeight)}
	}
	if hints.Flags&icccm.SizeHintPMaxSize > 0 {
		maxSize = geometry.Size{Width: int(hints.MaxWidth), Height: int(hints.MaxHeight)}
	}
	return minSize, maxSize
}

// WindowPID returns the owning process ID from _NET_WM_PID, or 0 when the
// window does not publish one.
func (c *Connection) WindowPID(windowID xproto.Window) int {
	pid, err := ewmh.WmPidGet(c.XUtil, windowID)
	if err != nil {
		return 0
	}
	return int(pid)
}

// WindowTitle returns the window's title, preferring _NET_WM_NAME.
func (c *Connection) WindowTitle(windowID xproto.Window) string {
	if name, err := ewmh.WmNameGet(c.XUtil, windowID); err == nil && name != "" {
		return name
	}
	if name, err := icccm.WmNameGet(c.XUtil, windowID); err == nil {
		return name
	}
	return ""
}

// WindowClass returns the window's WM_CLASS class name.
func (c *Connection) WindowClass(windowID xproto.Window) string {
	class, err := icccm.WmClassGet(c.XUtil, windowID)
	if err != nil {
		return ""
	}
	return class.Class
}

// ListClients returns the window manager's client list.
func (c *Connection) ListClients() ([]xproto.Window, error) {
	return ewmh.ClientListGet(c.XUtil)
}

// IsNormalWindow reports whether a window is a regular application window
// rather than a dock, desktop, splash, or notification surface.
func (c *Connection) IsNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		return true
	}
	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_NORMAL":
			return true
		case "_NET_WM_WINDOW_TYPE_DESKTOP",
			"_NET_WM_WINDOW_TYPE_DOCK",
			"_NET_WM_WINDOW_TYPE_SPLASH",
			"_NET_WM_WINDOW_TYPE_TOOLBAR",
			"_NET_WM_WINDOW_TYPE_MENU",
			"_NET_WM_WINDOW_TYPE_NOTIFICATION":
			return false
		}
	}
	return len(types) == 0
}

// IsViewable reports whether the window is neither hidden nor fullscreen.
// Hidden and fullscreen windows are excluded from scans.
func (c *Connection) IsViewable(windowID xproto.Window) bool {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return true
	}
	for _, state := range states {
		switch state {
		case "_NET_WM_STATE_HIDDEN", "_NET_WM_STATE_FULLSCREEN":
			return false
		}
	}
	return true
}
