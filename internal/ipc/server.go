package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/proptile/internal/grid"
	"github.com/1broseidon/proptile/internal/layoutstore"
	"github.com/1broseidon/proptile/internal/manager"
	"github.com/1broseidon/proptile/internal/platform"
	"github.com/1broseidon/proptile/internal/runtimepath"
)

// Server handles IPC requests from clients over a unix socket.
type Server struct {
	socketPath   string
	listener     net.Listener
	mgr          *manager.Manager
	store        *layoutstore.Store
	logger       *slog.Logger
	startTime    time.Time
	reloadChan   chan struct{}
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server bound to the runtime socket path.
func NewServer(mgr *manager.Manager, store *layoutstore.Store, reloadChan chan struct{}, logger *slog.Logger) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}

	// Remove a stale socket from an earlier daemon.
	os.Remove(socketPath)

	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		socketPath: socketPath,
		mgr:        mgr,
		store:      store,
		logger:     logger,
		startTime:  time.Now(),
		reloadChan: reloadChan,
	}, nil
}

// Start begins listening for IPC connections.
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)
	go s.acceptLoop()
	return nil
}

// Stop closes the listener and removes the socket.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			down := s.shuttingDown
			s.shutdownMu.Unlock()
			if down {
				return
			}
			s.logger.Error("IPC accept error", "error", err)
			continue
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Error("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendResponse(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	s.sendResponse(conn, s.handleCommand(req))
}

func (s *Server) sendResponse(conn net.Conn, resp *Response) {
	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		return
	}
	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Error("failed to send response", "error", err)
	}
}

func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandGetMonitors:
		return s.handleGetMonitors()
	case CommandSelectMonitor:
		return s.handleSelectMonitor(req.Payload)
	case CommandSetMode:
		return s.handleSetMode(req.Payload)
	case CommandSetupGrid:
		return s.handleSetupGrid(req.Payload)
	case CommandScanLayout:
		return s.handleScanLayout()
	case CommandAddWindow:
		return s.handleAddWindow(req.Payload)
	case CommandRemoveWindow:
		return s.handleRemoveWindow(req.Payload)
	case CommandMoveWindow:
		return s.handleMoveWindow(req.Payload)
	case CommandResizeDivider:
		return s.handleResizeDivider(req.Payload)
	case CommandStart:
		return s.callManager(s.mgr.StartManaging)
	case CommandStop:
		return s.callManager(s.mgr.StopManaging)
	case CommandGetLayout:
		return s.handleGetLayout()
	case CommandSaveLayout:
		return s.handleSaveLayout(req.Payload)
	case CommandApplySaved:
		return s.handleApplySaved(req.Payload)
	case CommandListLayouts:
		return s.handleListLayouts()
	case CommandDeleteLayout:
		return s.handleDeleteLayout(req.Payload)
	case CommandReload:
		return s.handleReload()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) callManager(fn func() error) *Response {
	if err := fn(); err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleGetStatus() *Response {
	status := StatusData{
		Status:        s.mgr.Status(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
	}
	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleGetMonitors() *Response {
	monitors, err := s.mgr.Monitors()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get monitors: %v", err))
	}

	infos := make([]MonitorInfo, len(monitors))
	for i, m := range monitors {
		infos[i] = MonitorInfo{
			ID:      m.ID,
			Name:    m.Name,
			X:       m.Usable.X,
			Y:       m.Usable.Y,
			Width:   m.Usable.Width,
			Height:  m.Usable.Height,
			Primary: m.Primary,
		}
	}
	resp, _ := NewOKResponse(MonitorsData{Monitors: infos, Selected: s.mgr.SelectedMonitor()})
	return resp
}

func (s *Server) handleSelectMonitor(payload json.RawMessage) *Response {
	var p SelectMonitorPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid select payload: %v", err))
	}
	return s.callManager(func() error { return s.mgr.SelectMonitor(p.MonitorID) })
}

func (s *Server) handleSetMode(payload json.RawMessage) *Response {
	var p SetModePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid mode payload: %v", err))
	}
	mode := grid.Mode(p.Mode)
	if mode != grid.ColumnMajor && mode != grid.RowMajor {
		return NewErrorResponse(fmt.Sprintf("Unknown mode: %s", p.Mode))
	}
	return s.callManager(func() error { return s.mgr.SetMode(mode) })
}

func (s *Server) handleSetupGrid(payload json.RawMessage) *Response {
	var p SetupGridPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid setup payload: %v", err))
	}
	return s.callManager(func() error { return s.mgr.SetupFixedGrid(p.Divisions) })
}

func (s *Server) handleScanLayout() *Response {
	scanned, err := s.mgr.ScanExistingLayout()
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	result := ScanResultData{Scanned: scanned}
	if scanned {
		if snap, err := s.mgr.LayoutSnapshot(); err == nil {
			result.Divisions = len(snap.Divisions)
			for _, d := range snap.Divisions {
				result.Slots += len(d.Slots)
			}
		}
	}
	resp, _ := NewOKResponse(result)
	return resp
}

func (s *Server) handleAddWindow(payload json.RawMessage) *Response {
	var p WindowPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid window payload: %v", err))
	}
	return s.callManager(func() error {
		return s.mgr.AddWindow(platform.WindowID(p.WindowID), p.Division)
	})
}

func (s *Server) handleRemoveWindow(payload json.RawMessage) *Response {
	var p WindowPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid window payload: %v", err))
	}
	return s.callManager(func() error {
		return s.mgr.RemoveWindow(platform.WindowID(p.WindowID))
	})
}

func (s *Server) handleMoveWindow(payload json.RawMessage) *Response {
	var p WindowPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid window payload: %v", err))
	}
	return s.callManager(func() error {
		return s.mgr.MoveWindow(platform.WindowID(p.WindowID), p.Division)
	})
}

func (s *Server) handleResizeDivider(payload json.RawMessage) *Response {
	var p ResizeDividerPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid resize payload: %v", err))
	}
	return s.callManager(func() error {
		if p.Division < 0 {
			return s.mgr.ResizeDivider(p.Index, p.DeltaPx)
		}
		return s.mgr.ResizeSlotDivider(p.Division, p.Index, p.DeltaPx)
	})
}

func (s *Server) handleGetLayout() *Response {
	snap, err := s.mgr.LayoutSnapshot()
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(LayoutData{Monitor: s.mgr.SelectedMonitor(), Layout: snap})
	return resp
}

func (s *Server) handleSaveLayout(payload json.RawMessage) *Response {
	var p NamedLayoutPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid save payload: %v", err))
	}
	snap, err := s.mgr.LayoutSnapshot()
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	if err := s.store.Save(p.Name, s.mgr.SelectedMonitor(), snap); err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleApplySaved(payload json.RawMessage) *Response {
	var p NamedLayoutPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid apply payload: %v", err))
	}
	saved, err := s.store.Load(p.Name)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return s.callManager(func() error { return s.mgr.RestoreSnapshot(saved.Layout) })
}

func (s *Server) handleListLayouts() *Response {
	names, err := s.store.List()
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(LayoutListData{Names: names})
	return resp
}

func (s *Server) handleDeleteLayout(payload json.RawMessage) *Response {
	var p NamedLayoutPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid delete payload: %v", err))
	}
	if err := s.store.Delete(p.Name); err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleReload() *Response {
	s.logger.Info("IPC: received RELOAD command")
	select {
	case s.reloadChan <- struct{}{}:
	default:
	}
	resp, _ := NewOKResponse(nil)
	return resp
}
