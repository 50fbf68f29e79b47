package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/proptile/internal/grid"
	"github.com/1broseidon/proptile/internal/manager"
)

// CommandType represents different IPC command types.
type CommandType string

const (
	CommandGetStatus     CommandType = "GET_STATUS"
	CommandGetMonitors   CommandType = "GET_MONITORS"
	CommandSelectMonitor CommandType = "SELECT_MONITOR"
	CommandSetMode       CommandType = "SET_MODE"
	CommandSetupGrid     CommandType = "SETUP_GRID"
	CommandScanLayout    CommandType = "SCAN_LAYOUT"
	CommandAddWindow     CommandType = "ADD_WINDOW"
	CommandRemoveWindow  CommandType = "REMOVE_WINDOW"
	CommandMoveWindow    CommandType = "MOVE_WINDOW"
	CommandResizeDivider CommandType = "RESIZE_DIVIDER"
	CommandStart         CommandType = "START"
	CommandStop          CommandType = "STOP"
	CommandGetLayout     CommandType = "GET_LAYOUT"
	CommandSaveLayout    CommandType = "SAVE_LAYOUT"
	CommandApplySaved    CommandType = "APPLY_SAVED"
	CommandListLayouts   CommandType = "LIST_LAYOUTS"
	CommandDeleteLayout  CommandType = "DELETE_LAYOUT"
	CommandReload        CommandType = "RELOAD"
)

// Request represents an IPC request from client to server.
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client.
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData is returned by GET_STATUS.
type StatusData struct {
	manager.Status
	UptimeSeconds int64 `json:"uptime_seconds"`
	DaemonRunning bool  `json:"daemon_running"`
}

// MonitorInfo describes a single monitor.
type MonitorInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Primary bool   `json:"primary"`
}

// MonitorsData is returned by GET_MONITORS.
type MonitorsData struct {
	Monitors []MonitorInfo `json:"monitors"`
	Selected string        `json:"selected,omitempty"`
}

// SelectMonitorPayload targets a monitor by ID.
type SelectMonitorPayload struct {
	MonitorID string `json:"monitor_id"`
}

// SetModePayload switches the grid mode.
type SetModePayload struct {
	Mode string `json:"mode"`
}

// SetupGridPayload configures a fixed empty grid.
type SetupGridPayload struct {
	Divisions int `json:"divisions"`
}

// ScanResultData is returned by SCAN_LAYOUT.
type ScanResultData struct {
	Scanned   bool `json:"scanned"`
	Divisions int  `json:"divisions"`
	Slots     int  `json:"slots"`
}

// WindowPayload names a window, optionally with a target division.
type WindowPayload struct {
	WindowID uint32 `json:"window_id"`
	Division int    `json:"division"`
}

// ResizeDividerPayload moves a divider by DeltaPx. Division -1 targets the
// division-level divider at Index; any other value targets the slot divider
// at Index within that division.
type ResizeDividerPayload struct {
	Division int `json:"division"`
	Index    int `json:"index"`
	DeltaPx  int `json:"delta_px"`
}

// LayoutData is returned by GET_LAYOUT.
type LayoutData struct {
	Monitor string        `json:"monitor"`
	Layout  grid.Snapshot `json:"layout"`
}

// NamedLayoutPayload names a saved layout.
type NamedLayoutPayload struct {
	Name string `json:"name"`
}

// LayoutListData is returned by LIST_LAYOUTS.
type LayoutListData struct {
	Names []string `json:"names"`
}

// NewOKResponse creates a successful response with optional data.
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}
	return &Response{Status: "OK", Data: dataBytes}, nil
}

// NewErrorResponse creates an error response with a message.
func NewErrorResponse(errMsg string) *Response {
	return &Response{Status: "ERROR", Error: errMsg}
}

// ParseRequest parses a request from JSON bytes.
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes.
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
