// Package mcp exposes the tiling daemon's command surface as MCP tools so
// an AI agent can drive grid setup and management over stdio. All tools
// talk to the running daemon through the IPC client.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/proptile/internal/ipc"
)

const (
	ServerName    = "proptile"
	ServerVersion = "0.1.0"
)

// Server is the MCP server bridging tools to the daemon's IPC surface.
type Server struct {
	mcpServer *mcpsdk.Server
	client    *ipc.Client
}

// NewServer creates the MCP server. The daemon must be running for tool
// calls to succeed; construction itself does not touch the socket.
func NewServer() *Server {
	s := &Server{
		client: ipc.NewClient(),
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_monitors",
		Description: "List all connected monitors with their usable areas (panels and docks excluded) and which one is currently selected for layout commands.",
	}, s.handleListMonitors)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "select_monitor",
		Description: "Select the monitor that subsequent layout commands target. Creates an empty layout for the monitor on first selection.",
	}, s.handleSelectMonitor)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_layout",
		Description: "Return the selected monitor's grid layout: mode, divisions, slots, proportions, and whether active management is running.",
	}, s.handleGetLayout)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "setup_grid",
		Description: "Reset the selected monitor to a fixed number of equal empty divisions. Existing window assignments are discarded.",
	}, s.handleSetupGrid)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "scan_layout",
		Description: "Infer a grid layout from the windows already positioned on the selected monitor, preserving their relative sizes. Reports scanned=false when no window sufficiently overlaps the monitor; fall back to setup_grid in that case.",
	}, s.handleScanLayout)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "add_window",
		Description: "Assign a window to a division of the selected monitor's grid. Sibling slots are rebalanced to equal shares.",
	}, s.handleAddWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "resize_divider",
		Description: "Move a grid divider by a pixel delta. Without a division the divider between divisions index and index+1 moves; with a division the slot divider inside it moves. Resizes that would push either side below the minimum share are silently rejected.",
	}, s.handleResizeDivider)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "start_managing",
		Description: "Activate the selected monitor's layout: apply all window frames and keep live geometry synchronized with the grid, including user drags on managed windows.",
	}, s.handleStartManaging)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "stop_managing",
		Description: "Deactivate management of the selected monitor. Windows keep their current frames but are no longer synchronized.",
	}, s.handleStopManaging)
}

func (s *Server) handleListMonitors(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListMonitorsInput) (*mcpsdk.CallToolResult, ListMonitorsOutput, error) {
	data, err := s.client.GetMonitors()
	if err != nil {
		return nil, ListMonitorsOutput{}, err
	}

	out := ListMonitorsOutput{Monitors: make([]MonitorInfo, len(data.Monitors))}
	for i, m := range data.Monitors {
		out.Monitors[i] = MonitorInfo{
			ID:       m.ID,
			Name:     m.Name,
			X:        m.X,
			Y:        m.Y,
			Width:    m.Width,
			Height:   m.Height,
			Primary:  m.Primary,
			Selected: m.ID == data.Selected,
		}
	}
	return nil, out, nil
}

func (s *Server) handleSelectMonitor(_ context.Context, _ *mcpsdk.CallToolRequest, args SelectMonitorInput) (*mcpsdk.CallToolResult, SelectMonitorOutput, error) {
	if err := s.client.SelectMonitor(args.MonitorID); err != nil {
		return nil, SelectMonitorOutput{}, err
	}
	return nil, SelectMonitorOutput{Selected: args.MonitorID}, nil
}

func (s *Server) handleGetLayout(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetLayoutInput) (*mcpsdk.CallToolResult, GetLayoutOutput, error) {
	monitor, snap, err := s.client.GetLayout()
	if err != nil {
		return nil, GetLayoutOutput{}, err
	}

	out := GetLayoutOutput{
		Monitor:   monitor,
		Mode:      string(snap.Mode),
		Active:    snap.Active,
		Divisions: make([]DivisionInfo, len(snap.Divisions)),
	}
	for i, div := range snap.Divisions {
		info := DivisionInfo{
			Proportion: div.Proportion,
			Slots:      make([]SlotInfo, len(div.Slots)),
		}
		for j, slot := range div.Slots {
			info.Slots[j] = SlotInfo{WindowID: slot.Window, Proportion: slot.Proportion}
		}
		out.Divisions[i] = info
	}
	return nil, out, nil
}

func (s *Server) handleSetupGrid(_ context.Context, _ *mcpsdk.CallToolRequest, args SetupGridInput) (*mcpsdk.CallToolResult, SetupGridOutput, error) {
	if err := s.client.SetupGrid(args.Divisions); err != nil {
		return nil, SetupGridOutput{}, err
	}
	return nil, SetupGridOutput{Divisions: args.Divisions}, nil
}

func (s *Server) handleScanLayout(_ context.Context, _ *mcpsdk.CallToolRequest, _ ScanLayoutInput) (*mcpsdk.CallToolResult, ScanLayoutOutput, error) {
	result, err := s.client.ScanLayout()
	if err != nil {
		return nil, ScanLayoutOutput{}, err
	}
	return nil, ScanLayoutOutput{
		Scanned:   result.Scanned,
		Divisions: result.Divisions,
		Slots:     result.Slots,
	}, nil
}

func (s *Server) handleAddWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args AddWindowInput) (*mcpsdk.CallToolResult, AddWindowOutput, error) {
	if err := s.client.AddWindow(args.WindowID, args.Division); err != nil {
		return nil, AddWindowOutput{}, err
	}
	return nil, AddWindowOutput{WindowID: args.WindowID, Division: args.Division}, nil
}

func (s *Server) handleResizeDivider(_ context.Context, _ *mcpsdk.CallToolRequest, args ResizeDividerInput) (*mcpsdk.CallToolResult, ResizeDividerOutput, error) {
	division := -1
	if args.Division != nil {
		division = *args.Division
	}
	if err := s.client.ResizeDivider(division, args.Index, args.DeltaPx); err != nil {
		return nil, ResizeDividerOutput{}, err
	}
	return nil, ResizeDividerOutput{Applied: true}, nil
}

func (s *Server) handleStartManaging(_ context.Context, _ *mcpsdk.CallToolRequest, _ StartManagingInput) (*mcpsdk.CallToolResult, ManageOutput, error) {
	if err := s.client.Start(); err != nil {
		return nil, ManageOutput{}, err
	}
	return nil, ManageOutput{Active: true}, nil
}

func (s *Server) handleStopManaging(_ context.Context, _ *mcpsdk.CallToolRequest, _ StopManagingInput) (*mcpsdk.CallToolResult, ManageOutput, error) {
	if err := s.client.Stop(); err != nil {
		return nil, ManageOutput{}, err
	}
	return nil, ManageOutput{Active: false}, nil
}
