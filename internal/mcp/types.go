package mcp

// ListMonitorsInput is the input for the list_monitors tool.
type ListMonitorsInput struct{}

// MonitorInfo describes one display.
type MonitorInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Primary  bool   `json:"primary"`
	Selected bool   `json:"selected"`
}

// ListMonitorsOutput is the output for the list_monitors tool.
type ListMonitorsOutput struct {
	Monitors []MonitorInfo `json:"monitors"`
}

// SelectMonitorInput is the input for the select_monitor tool.
type SelectMonitorInput struct {
	MonitorID string `json:"monitor_id" jsonschema:"required,Monitor ID (RandR output name, e.g. DP-1) to target with subsequent commands"`
}

// SelectMonitorOutput is the output for the select_monitor tool.
type SelectMonitorOutput struct {
	Selected string `json:"selected"`
}

// GetLayoutInput is the input for the get_layout tool.
type GetLayoutInput struct{}

// SlotInfo describes one window slot in the layout.
type SlotInfo struct {
	WindowID   uint32  `json:"window_id"`
	Proportion float64 `json:"proportion"`
}

// DivisionInfo describes one division of the layout.
type DivisionInfo struct {
	Proportion float64    `json:"proportion"`
	Slots      []SlotInfo `json:"slots"`
}

// GetLayoutOutput is the output for the get_layout tool.
type GetLayoutOutput struct {
	Monitor   string         `json:"monitor"`
	Mode      string         `json:"mode"`
	Active    bool           `json:"active"`
	Divisions []DivisionInfo `json:"divisions"`
}

// SetupGridInput is the input for the setup_grid tool.
type SetupGridInput struct {
	Divisions int `json:"divisions" jsonschema:"required,Number of equal empty divisions to create (1-10)"`
}

// SetupGridOutput is the output for the setup_grid tool.
type SetupGridOutput struct {
	Divisions int `json:"divisions"`
}

// ScanLayoutInput is the input for the scan_layout tool.
type ScanLayoutInput struct{}

// ScanLayoutOutput is the output for the scan_layout tool.
type ScanLayoutOutput struct {
	Scanned   bool `json:"scanned"`
	Divisions int  `json:"divisions"`
	Slots     int  `json:"slots"`
}

// AddWindowInput is the input for the add_window tool.
type AddWindowInput struct {
	WindowID uint32 `json:"window_id" jsonschema:"required,X11 window ID to place in the grid"`
	Division int    `json:"division" jsonschema:"Division index to place the window in (default 0)"`
}

// AddWindowOutput is the output for the add_window tool.
type AddWindowOutput struct {
	WindowID uint32 `json:"window_id"`
	Division int    `json:"division"`
}

// ResizeDividerInput is the input for the resize_divider tool.
type ResizeDividerInput struct {
	Division *int `json:"division,omitempty" jsonschema:"When set, resize the slot divider inside this division; when omitted, resize the division-level divider"`
	Index    int  `json:"index" jsonschema:"required,Divider index: the boundary between element index and index+1"`
	DeltaPx  int  `json:"delta_px" jsonschema:"required,Pixels to move the divider; positive grows the earlier element"`
}

// ResizeDividerOutput is the output for the resize_divider tool.
type ResizeDividerOutput struct {
	Applied bool `json:"applied"`
}

// StartManagingInput is the input for the start_managing tool.
type StartManagingInput struct{}

// StopManagingInput is the input for the stop_managing tool.
type StopManagingInput struct{}

// ManageOutput is the output for start_managing and stop_managing.
type ManageOutput struct {
	Active bool `json:"active"`
}
