// Package manager owns the per-monitor layouts and the active management
// loop that keeps live window geometry and the proportional model in sync.
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/1broseidon/proptile/internal/geometry"
	"github.com/1broseidon/proptile/internal/grid"
	"github.com/1broseidon/proptile/internal/platform"
	"github.com/1broseidon/proptile/internal/scan"
)

// Config holds tuning knobs for the manager.
type Config struct {
	Mode             grid.Mode
	Divisions        int
	EdgeTolerancePx  int
	NoiseThresholdPx int
	DragThresholdPx  int
	MinProportion    float64
	PollInterval     time.Duration
	LivenessInterval time.Duration
	Logger           *slog.Logger

	// Per-monitor overrides, keyed by monitor ID.
	MonitorModes     map[string]grid.Mode
	MonitorDivisions map[string]int
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = grid.ColumnMajor
	}
	if c.Divisions <= 0 {
		c.Divisions = 2
	}
	if c.EdgeTolerancePx <= 0 {
		c.EdgeTolerancePx = scan.DefaultEdgeTolerance
	}
	if c.NoiseThresholdPx <= 0 {
		c.NoiseThresholdPx = 5
	}
	if c.DragThresholdPx <= 0 {
		c.DragThresholdPx = 8
	}
	if c.MinProportion <= 0 || c.MinProportion >= 1 {
		c.MinProportion = grid.DefaultMinProportion
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 200 * time.Millisecond
	}
	if c.LivenessInterval <= 0 {
		c.LivenessInterval = time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// managedLayout pairs one monitor's layout with the reconciliation state
// for it.
type managedLayout struct {
	monitor  platform.Monitor
	layout   *grid.Layout
	expected map[string]geometry.Rect
	applying bool
}

// Manager is the single owner of all layout state. Every entry point takes
// the one mutex; the event loop, IPC handlers, and tickers all funnel
// through it.
type Manager struct {
	mu       sync.Mutex
	backend  platform.Backend
	cfg      Config
	logger   *slog.Logger
	scanner  *scan.Scanner
	layouts  map[string]*managedLayout
	selected string
}

// New creates a manager over the given backend.
func New(backend platform.Backend, cfg Config) *Manager {
	cfg.applyDefaults()
	return &Manager{
		backend: backend,
		cfg:     cfg,
		logger:  cfg.Logger,
		scanner: scan.New(cfg.EdgeTolerancePx, cfg.MinProportion),
		layouts: make(map[string]*managedLayout),
	}
}

// Monitors returns the backend's current monitor list.
func (m *Manager) Monitors() ([]platform.Monitor, error) {
	return m.backend.Monitors()
}

// SelectMonitor makes the monitor the target of subsequent layout commands,
// creating an empty layout for it on first selection.
func (m *Manager) SelectMonitor(monitorID string) error {
	monitors, err := m.backend.Monitors()
	if err != nil {
		return err
	}

	var mon *platform.Monitor
	for i := range monitors {
		if monitors[i].ID == monitorID {
			mon = &monitors[i]
			break
		}
	}
	if mon == nil {
		return &UnknownMonitorError{ID: monitorID}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.selected = mon.ID
	if ml, ok := m.layouts[mon.ID]; ok {
		ml.monitor = *mon
		ml.layout.Rescale(mon.Usable)
		return nil
	}
	m.layouts[mon.ID] = &managedLayout{
		monitor:  *mon,
		layout:   grid.New(m.modeFor(mon.ID), mon.Usable, m.cfg.MinProportion),
		expected: make(map[string]geometry.Rect),
	}
	m.logger.Info("monitor selected", "monitor", mon.ID, "usable", mon.Usable)
	return nil
}

// SelectedMonitor returns the ID of the currently selected monitor, or ""
// when none is selected.
func (m *Manager) SelectedMonitor() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected
}

// SetMode switches the selected monitor's layout between column-major and
// row-major, resetting divisions since the two arrangements do not map onto
// each other.
func (m *Manager) SetMode(mode grid.Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ml, err := m.selectedLocked()
	if err != nil {
		return err
	}
	if ml.layout.Mode == mode {
		return nil
	}
	ml.layout = grid.New(mode, ml.monitor.Usable, m.cfg.MinProportion)
	ml.expected = make(map[string]geometry.Rect)
	return nil
}

// SetupFixedGrid resets the selected monitor's layout to count equal empty
// divisions and deactivates management until windows are assigned. A count
// of zero falls back to the configured division count for the monitor.
func (m *Manager) SetupFixedGrid(count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ml, err := m.selectedLocked()
	if err != nil {
		return err
	}
	if count <= 0 {
		count = m.divisionsFor(ml.monitor.ID)
	}

	m.deactivateLocked(ml)
	ml.layout = grid.New(ml.layout.Mode, ml.monitor.Usable, m.cfg.MinProportion)
	ml.layout.SetupFixed(count)
	ml.expected = make(map[string]geometry.Rect)
	m.logger.Info("fixed grid set up", "monitor", ml.monitor.ID, "divisions", len(ml.layout.Divisions))
	return nil
}

// ScanExistingLayout infers a layout from the windows currently on the
// selected monitor. Returns false (with a nil error) when no window
// sufficiently overlaps the monitor; the caller decides the fallback.
func (m *Manager) ScanExistingLayout() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ml, err := m.selectedLocked()
	if err != nil {
		return false, err
	}

	windows, err := m.backend.ListWindows(ml.monitor.ID)
	if err != nil {
		return false, err
	}

	layout, ok := m.scanner.Scan(ml.monitor, windows, ml.layout.Mode)
	if !ok {
		m.logger.Warn("layout scan found no usable windows", "monitor", ml.monitor.ID)
		return false, nil
	}

	m.deactivateLocked(ml)
	ml.layout = layout
	ml.expected = make(map[string]geometry.Rect)
	m.logger.Info("layout scanned",
		"monitor", ml.monitor.ID,
		"divisions", len(layout.Divisions),
		"slots", layout.SlotCount())
	return true, nil
}

// AddWindow assigns a window to the division at divIndex on the selected
// monitor and re-applies the layout if management is active.
func (m *Manager) AddWindow(win platform.WindowID, divIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ml, err := m.selectedLocked()
	if err != nil {
		return err
	}
	if ml.layout.AddSlot(divIndex, win) == nil {
		return fmt.Errorf("cannot add window %d to division %d", win, divIndex)
	}
	if ml.layout.Active {
		m.subscribeLocked(win)
		m.applyLocked(ml)
	}
	return nil
}

// RemoveWindow unassigns a window from the selected monitor's layout.
func (m *Manager) RemoveWindow(win platform.WindowID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ml, err := m.selectedLocked()
	if err != nil {
		return err
	}
	if !ml.layout.RemoveWindow(win) {
		return nil
	}
	m.backend.Unsubscribe(win)
	if ml.layout.Active {
		m.applyLocked(ml)
	}
	return nil
}

// MoveWindow relocates a window to another division on the selected
// monitor.
func (m *Manager) MoveWindow(win platform.WindowID, divIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ml, err := m.selectedLocked()
	if err != nil {
		return err
	}
	if ml.layout.MoveWindow(win, divIndex) == nil {
		return fmt.Errorf("cannot move window %d to division %d", win, divIndex)
	}
	if ml.layout.Active {
		m.applyLocked(ml)
	}
	return nil
}

// ResizeDivider moves the boundary between divisions i and i+1 by deltaPx.
// Out-of-range indices and below-minimum results are silent no-ops.
func (m *Manager) ResizeDivider(i, deltaPx int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ml, err := m.selectedLocked()
	if err != nil {
		return err
	}
	if !ml.layout.ResizeDivisionDivider(i, deltaPx) {
		return nil
	}
	if ml.layout.Active {
		m.applyLocked(ml)
	}
	return nil
}

// ResizeSlotDivider moves the boundary between slots i and i+1 inside the
// division at divIndex.
func (m *Manager) ResizeSlotDivider(divIndex, i, deltaPx int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ml, err := m.selectedLocked()
	if err != nil {
		return err
	}
	if !ml.layout.ResizeSlotDivider(divIndex, i, deltaPx) {
		return nil
	}
	if ml.layout.Active {
		m.applyLocked(ml)
	}
	return nil
}

// StartManaging activates the selected monitor's layout: applies all
// frames, records expectations, and subscribes to geometry changes for
// every placed window.
func (m *Manager) StartManaging() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ml, err := m.selectedLocked()
	if err != nil {
		return err
	}
	if ml.layout.Active {
		return nil
	}
	ml.layout.Active = true
	for _, win := range ml.layout.Windows() {
		m.subscribeLocked(win)
	}
	m.applyLocked(ml)
	m.logger.Info("management started", "monitor", ml.monitor.ID, "slots", ml.layout.SlotCount())
	return nil
}

// StopManaging deactivates the selected monitor's layout synchronously; no
// reconciliation pass runs for it after this returns.
func (m *Manager) StopManaging() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ml, err := m.selectedLocked()
	if err != nil {
		return err
	}
	m.deactivateLocked(ml)
	m.logger.Info("management stopped", "monitor", ml.monitor.ID)
	return nil
}

// LayoutSnapshot returns the selected monitor's layout in serializable
// form.
func (m *Manager) LayoutSnapshot() (grid.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ml, err := m.selectedLocked()
	if err != nil {
		return grid.Snapshot{}, err
	}
	return ml.layout.Snapshot(), nil
}

// RestoreSnapshot replaces the selected monitor's layout with a saved one,
// rescaled to the monitor's current usable area. Windows referenced by the
// snapshot that no longer exist are dropped.
func (m *Manager) RestoreSnapshot(snap grid.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ml, err := m.selectedLocked()
	if err != nil {
		return err
	}

	m.deactivateLocked(ml)
	layout := grid.FromSnapshot(snap)
	layout.Active = false
	layout.Rescale(ml.monitor.Usable)
	for _, win := range layout.Windows() {
		if win == 0 {
			continue
		}
		if _, ok := m.backend.GetFrame(win); !ok {
			layout.RemoveWindow(win)
		}
	}
	ml.layout = layout
	ml.expected = make(map[string]geometry.Rect)
	return nil
}

// Status summarizes the manager's state for the IPC surface.
type Status struct {
	SelectedMonitor string         `json:"selected_monitor"`
	Layouts         []LayoutStatus `json:"layouts"`
}

// LayoutStatus is the per-monitor slice of Status.
type LayoutStatus struct {
	Monitor   string `json:"monitor"`
	Mode      string `json:"mode"`
	Divisions int    `json:"divisions"`
	Slots     int    `json:"slots"`
	Active    bool   `json:"active"`
}

// Status reports the selected monitor and all known layouts.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{SelectedMonitor: m.selected}
	for id, ml := range m.layouts {
		st.Layouts = append(st.Layouts, LayoutStatus{
			Monitor:   id,
			Mode:      string(ml.layout.Mode),
			Divisions: len(ml.layout.Divisions),
			Slots:     ml.layout.SlotCount(),
			Active:    ml.layout.Active,
		})
	}
	sort.Slice(st.Layouts, func(i, j int) bool { return st.Layouts[i].Monitor < st.Layouts[j].Monitor })
	return st
}

// Run consumes backend events and drives the periodic reconciliation and
// liveness tickers. Blocks until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	poll := time.NewTicker(m.cfg.PollInterval)
	defer poll.Stop()
	liveness := time.NewTicker(m.cfg.LivenessInterval)
	defer liveness.Stop()

	m.logger.Info("manager loop started",
		"poll_interval", m.cfg.PollInterval,
		"liveness_interval", m.cfg.LivenessInterval)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("manager loop stopped")
			return
		case ev, ok := <-m.backend.Events():
			if !ok {
				m.logger.Warn("backend event stream closed")
				return
			}
			m.handleEvent(ev)
		case <-poll.C:
			m.reconcileAll()
		case <-liveness.C:
			m.sweepClosed()
			m.refreshMonitors()
		}
	}
}

func (m *Manager) handleEvent(ev platform.Event) {
	switch ev.Kind {
	case platform.GeometryChanged:
		m.reconcileWindow(ev.Window)
	case platform.WindowDestroyed:
		m.sweepClosed()
	case platform.MonitorsChanged:
		m.refreshMonitors()
	}
}

// refreshMonitors rescales layouts whose monitor's usable rectangle moved
// and drops layouts for monitors that disappeared.
func (m *Manager) refreshMonitors() {
	monitors, err := m.backend.Monitors()
	if err != nil {
		m.logger.Error("monitor refresh failed", "error", err)
		return
	}

	byID := make(map[string]platform.Monitor, len(monitors))
	for _, mon := range monitors {
		byID[mon.ID] = mon
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, ml := range m.layouts {
		mon, ok := byID[id]
		if !ok {
			m.deactivateLocked(ml)
			delete(m.layouts, id)
			if m.selected == id {
				m.selected = ""
			}
			m.logger.Info("monitor removed", "monitor", id)
			continue
		}
		if mon.Usable != ml.monitor.Usable {
			ml.monitor = mon
			ml.layout.Rescale(mon.Usable)
			if ml.layout.Active {
				m.applyLocked(ml)
			}
			m.logger.Info("monitor rescaled", "monitor", id, "usable", mon.Usable)
		} else {
			ml.monitor = mon
		}
	}
}

// UpdateConfig swaps the manager's tuning knobs, typically after a config
// reload. Poll and liveness intervals take effect on the next daemon start;
// everything else applies immediately.
func (m *Manager) UpdateConfig(cfg Config) {
	cfg.applyDefaults()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
	m.logger = cfg.Logger
	m.scanner = scan.New(cfg.EdgeTolerancePx, cfg.MinProportion)
}

func (m *Manager) modeFor(id string) grid.Mode {
	if mode, ok := m.cfg.MonitorModes[id]; ok && mode != "" {
		return mode
	}
	return m.cfg.Mode
}

func (m *Manager) divisionsFor(id string) int {
	if n, ok := m.cfg.MonitorDivisions[id]; ok && n > 0 {
		return n
	}
	return m.cfg.Divisions
}

func (m *Manager) selectedLocked() (*managedLayout, error) {
	if m.selected == "" {
		return nil, ErrNoMonitorSelected
	}
	ml, ok := m.layouts[m.selected]
	if !ok {
		return nil, ErrNoMonitorSelected
	}
	return ml, nil
}

// subscribeLocked registers for geometry notifications; the periodic poll
// still covers the window when the subscription fails.
func (m *Manager) subscribeLocked(win platform.WindowID) {
	if err := m.backend.Subscribe(win); err != nil {
		m.logger.Warn("subscribe failed", "window", win, "error", err)
	}
}

func (m *Manager) deactivateLocked(ml *managedLayout) {
	if !ml.layout.Active {
		return
	}
	ml.layout.Active = false
	for _, win := range ml.layout.Windows() {
		m.backend.Unsubscribe(win)
	}
}
