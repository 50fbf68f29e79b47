package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/1broseidon/proptile/internal/geometry"
)

// Monitor represents one active display as reported by XRandR. Usable is
// the monitor rectangle minus any dock struts that fall on it.
type Monitor struct {
	Name    string
	Bounds  geometry.Rect
	Usable  geometry.Rect
	Primary bool
}

// GetMonitors retrieves all active monitors using XRandR, with per-monitor
// usable areas already reduced by dock struts.
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var primaryOutput randr.Output
	if reply, err := randr.GetOutputPrimary(c.XUtil.Conn(), c.Root).Reply(); err == nil {
		primaryOutput = reply.Output
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Monitor%d", i)
		primary := false
		if outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(outputInfo.Name)
		}
		if primaryOutput != 0 && crtcInfo.Outputs[0] == primaryOutput {
			primary = true
		}

		bounds := geometry.Rect{
			X:      int(crtcInfo.X),
			Y:      int(crtcInfo.Y),
			Width:  int(crtcInfo.Width),
			Height: int(crtcInfo.Height),
		}
		monitors = append(monitors, Monitor{
			Name:    name,
			Bounds:  bounds,
			Usable:  bounds,
			Primary: primary,
		})
	}

	c.applyDockStruts(monitors)
	return monitors, nil
}

// applyDockStruts shrinks each monitor's usable rectangle by the dock
// struts that intersect it (_NET_WM_STRUT_PARTIAL, falling back to
// _NET_WM_STRUT).
func (c *Connection) applyDockStruts(monitors []Monitor) {
	rootGeom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return
	}
	rootWidth := int(rootGeom.Width)
	rootHeight := int(rootGeom.Height)

	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return
	}

	for _, windowID := range clients {
		types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
		if err != nil {
			continue
		}
		isDock := false
		for _, t := range types {
			if t == "_NET_WM_WINDOW_TYPE_DOCK" {
				isDock = true
				break
			}
		}
		if !isDock {
			continue
		}

		sp, err := ewmh.WmStrutPartialGet(c.XUtil, windowID)
		if err != nil {
			// Some docks only set _NET_WM_STRUT (no partial ranges).
			s, err := ewmh.WmStrutGet(c.XUtil, windowID)
			if err != nil {
				continue
			}
			sp = &ewmh.WmStrutPartial{
				Left:         s.Left,
				Right:        s.Right,
				Top:          s.Top,
				Bottom:       s.Bottom,
				LeftStartY:   0,
				LeftEndY:     uint(rootHeight - 1),
				RightStartY:  0,
				RightEndY:    uint(rootHeight - 1),
				TopStartX:    0,
				TopEndX:      uint(rootWidth - 1),
				BottomStartX: 0,
				BottomEndX:   uint(rootWidth - 1),
			}
		}

		for i := range monitors {
			applyStrut(&monitors[i], rootWidth, rootHeight, sp)
		}
	}
}

// applyStrut reduces one monitor's usable rect by one dock's strut where
// the strut band intersects the monitor.
func applyStrut(mon *Monitor, rootWidth, rootHeight int, sp *ewmh.WmStrutPartial) {
	usable := mon.Usable

	if sp.Top > 0 {
		band := geometry.Rect{
			X:      int(sp.TopStartX),
			Y:      0,
			Width:  int(sp.TopEndX) - int(sp.TopStartX) + 1,
			Height: int(sp.Top),
		}
		if cut := geometry.Intersect(usable, band); cut.Area() > 0 {
			usable.Y += cut.Height
			usable.Height -= cut.Height
		}
	}
	if sp.Bottom > 0 {
		band := geometry.Rect{
			X:      int(sp.BottomStartX),
			Y:      rootHeight - int(sp.Bottom),
			Width:  int(sp.BottomEndX) - int(sp.BottomStartX) + 1,
			Height: int(sp.Bottom),
		}
		if cut := geometry.Intersect(usable, band); cut.Area() > 0 {
			usable.Height -= cut.Height
		}
	}
	if sp.Left > 0 {
		band := geometry.Rect{
			X:      0,
			Y:      int(sp.LeftStartY),
			Width:  int(sp.Left),
			Height: int(sp.LeftEndY) - int(sp.LeftStartY) + 1,
		}
		if cut := geometry.Intersect(usable, band); cut.Area() > 0 {
			usable.X += cut.Width
			usable.Width -= cut.Width
		}
	}
	if sp.Right > 0 {
		band := geometry.Rect{
			X:      rootWidth - int(sp.Right),
			Y:      int(sp.RightStartY),
			Width:  int(sp.Right),
			Height: int(sp.RightEndY) - int(sp.RightStartY) + 1,
		}
		if cut := geometry.Intersect(usable, band); cut.Area() > 0 {
			usable.Width -= cut.Width
		}
	}

	if usable.Width < 1 {
		usable.Width = 1
	}
	if usable.Height < 1 {
		usable.Height = 1
	}
	mon.Usable = usable
}
