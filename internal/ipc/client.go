package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/proptile/internal/grid"
	"github.com/1broseidon/proptile/internal/runtimepath"
)

// Client handles IPC communication with the daemon.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}
	return &resp, nil
}

func (c *Client) sendCommand(cmd CommandType, payload interface{}) (*Response, error) {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		req.Payload = data
	}
	return c.sendRequest(req)
}

// GetStatus retrieves daemon status.
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendCommand(CommandGetStatus, nil)
	if err != nil {
		return nil, err
	}
	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}
	return &status, nil
}

// GetMonitors retrieves monitor information.
func (c *Client) GetMonitors() (*MonitorsData, error) {
	resp, err := c.sendCommand(CommandGetMonitors, nil)
	if err != nil {
		return nil, err
	}
	var data MonitorsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse monitors data: %w", err)
	}
	return &data, nil
}

// SelectMonitor targets a monitor for subsequent layout commands.
func (c *Client) SelectMonitor(monitorID string) error {
	_, err := c.sendCommand(CommandSelectMonitor, SelectMonitorPayload{MonitorID: monitorID})
	return err
}

// SetMode switches the selected monitor between columns and rows.
func (c *Client) SetMode(mode string) error {
	_, err := c.sendCommand(CommandSetMode, SetModePayload{Mode: mode})
	return err
}

// SetupGrid resets the selected monitor to a fixed empty grid.
func (c *Client) SetupGrid(divisions int) error {
	_, err := c.sendCommand(CommandSetupGrid, SetupGridPayload{Divisions: divisions})
	return err
}

// ScanLayout infers a layout from the windows on the selected monitor.
func (c *Client) ScanLayout() (*ScanResultData, error) {
	resp, err := c.sendCommand(CommandScanLayout, nil)
	if err != nil {
		return nil, err
	}
	var result ScanResultData
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse scan result: %w", err)
	}
	return &result, nil
}

// AddWindow assigns a window to a division.
func (c *Client) AddWindow(windowID uint32, division int) error {
	_, err := c.sendCommand(CommandAddWindow, WindowPayload{WindowID: windowID, Division: division})
	return err
}

// RemoveWindow unassigns a window.
func (c *Client) RemoveWindow(windowID uint32) error {
	_, err := c.sendCommand(CommandRemoveWindow, WindowPayload{WindowID: windowID})
	return err
}

// MoveWindow relocates a window to another division.
func (c *Client) MoveWindow(windowID uint32, division int) error {
	_, err := c.sendCommand(CommandMoveWindow, WindowPayload{WindowID: windowID, Division: division})
	return err
}

// ResizeDivider moves a divider. division -1 targets the division-level
// divider at index; otherwise the slot divider inside that division.
func (c *Client) ResizeDivider(division, index, deltaPx int) error {
	_, err := c.sendCommand(CommandResizeDivider, ResizeDividerPayload{
		Division: division,
		Index:    index,
		DeltaPx:  deltaPx,
	})
	return err
}

// Start activates management of the selected monitor.
func (c *Client) Start() error {
	_, err := c.sendCommand(CommandStart, nil)
	return err
}

// Stop deactivates management of the selected monitor.
func (c *Client) Stop() error {
	_, err := c.sendCommand(CommandStop, nil)
	return err
}

// GetLayout retrieves the selected monitor's layout snapshot.
func (c *Client) GetLayout() (string, *grid.Snapshot, error) {
	resp, err := c.sendCommand(CommandGetLayout, nil)
	if err != nil {
		return "", nil, err
	}
	var data LayoutData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return "", nil, fmt.Errorf("failed to parse layout data: %w", err)
	}
	return data.Monitor, &data.Layout, nil
}

// SaveLayout stores the current layout under a name.
func (c *Client) SaveLayout(name string) error {
	_, err := c.sendCommand(CommandSaveLayout, NamedLayoutPayload{Name: name})
	return err
}

// ApplySaved restores a saved layout onto the selected monitor.
func (c *Client) ApplySaved(name string) error {
	_, err := c.sendCommand(CommandApplySaved, NamedLayoutPayload{Name: name})
	return err
}

// ListLayouts returns the names of all saved layouts.
func (c *Client) ListLayouts() ([]string, error) {
	resp, err := c.sendCommand(CommandListLayouts, nil)
	if err != nil {
		return nil, err
	}
	var data LayoutListData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse layout list: %w", err)
	}
	return data.Names, nil
}

// DeleteLayout removes a saved layout.
func (c *Client) DeleteLayout(name string) error {
	_, err := c.sendCommand(CommandDeleteLayout, NamedLayoutPayload{Name: name})
	return err
}

// Reload asks the daemon to reload its configuration.
func (c *Client) Reload() error {
	_, err := c.sendCommand(CommandReload, nil)
	return err
}
