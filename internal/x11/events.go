package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// WatchWindow registers for StructureNotify on the window and invokes the
// callbacks from the X event loop goroutine. onConfigure fires on any
// move/resize; onDestroy fires once when the window is destroyed.
func (c *Connection) WatchWindow(windowID xproto.Window, onConfigure func(), onDestroy func()) error {
	win := xwindow.New(c.XUtil, windowID)
	if err := win.Listen(xproto.EventMaskStructureNotify); err != nil {
		return err
	}

	xevent.ConfigureNotifyFun(func(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		onConfigure()
	}).Connect(c.XUtil, windowID)

	xevent.DestroyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
		onDestroy()
	}).Connect(c.XUtil, windowID)

	return nil
}

// UnwatchWindow removes all callbacks registered for the window.
func (c *Connection) UnwatchWindow(windowID xproto.Window) {
	xevent.Detach(c.XUtil, windowID)
}
