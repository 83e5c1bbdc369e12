package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"
	"tradedash/clients/backend"
	"tradedash/clients/notifier"
	"tradedash/internal/view"
)

// MockRenderer records everything drawn on it.
type MockRenderer struct {
	mu sync.Mutex

	stats       []view.StatsView
	positions   []view.PositionsView
	statuses    []view.BotStatusView
	configs     []view.ConfigView
	logs        []view.LogsView
	lastUpdated []time.Time

	busy     map[Control]string
	resets   []Control
	enabled  map[Control]bool
	messages []Message
	exports  []ExportStatus
	download map[string][]byte
	dlErr    error

	toasts  []Toast
	closing []string
	removed []string
	focused bool
	bells   int

	runErr error
	runFn  func(ctx context.Context, actions Actions)
}

func NewMockRenderer() *MockRenderer {
	return &MockRenderer{
		busy:     make(map[Control]string),
		enabled:  make(map[Control]bool),
		download: make(map[string][]byte),
		focused:  true,
	}
}

func (m *MockRenderer) RenderStats(v view.StatsView) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = append(m.stats, v)
}

func (m *MockRenderer) RenderPositions(v view.PositionsView) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions = append(m.positions, v)
}

func (m *MockRenderer) RenderBotStatus(v view.BotStatusView) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, v)
}

func (m *MockRenderer) RenderConfig(v view.ConfigView) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs = append(m.configs, v)
}

func (m *MockRenderer) RenderLogs(v view.LogsView) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, v)
}

func (m *MockRenderer) RenderLastUpdated(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUpdated = append(m.lastUpdated, t)
}

func (m *MockRenderer) SetControlBusy(c Control, label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy[c] = label
	m.enabled[c] = false
}

func (m *MockRenderer) ResetControlLabel(c Control) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, c)
	delete(m.busy, c)
}

func (m *MockRenderer) SetControlEnabled(c Control, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled[c] = enabled
}

func (m *MockRenderer) ShowMessage(msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *MockRenderer) ShowExportStatus(s ExportStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exports = append(m.exports, s)
}

func (m *MockRenderer) Download(filename string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dlErr != nil {
		return m.dlErr
	}
	m.download[filename] = data
	return nil
}

func (m *MockRenderer) ShowToast(t Toast) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toasts = append(m.toasts, t)
}

func (m *MockRenderer) MarkToastClosing(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closing = append(m.closing, id)
}

func (m *MockRenderer) RemoveToast(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, id)
}

func (m *MockRenderer) Focused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.focused
}

func (m *MockRenderer) Bell() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bells++
}

// Run makes MockRenderer an InteractiveRenderer. It returns immediately
// unless runFn is set.
func (m *MockRenderer) Run(ctx context.Context, actions Actions) error {
	if m.runFn != nil {
		m.runFn(ctx, actions)
	}
	return m.runErr
}

// SetFocused sets the value reported by Focused.
func (m *MockRenderer) SetFocused(f bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.focused = f
}

// MockBackend is a canned BackendAPI.
type MockBackend struct {
	mu sync.Mutex

	stats     *backend.Stats
	positions *backend.Positions
	status    *backend.BotStatus
	config    *backend.TradingConfig
	logs      *backend.Logs
	start     *backend.ActionResult
	stop      *backend.ActionResult
	export    *backend.CSVExport

	statsErr     error
	positionsErr error
	statusErr    error
	configErr    error
	logsErr      error
	startErr     error
	stopErr      error
	exportErr    error

	calls map[string]int
}

func NewMockBackend() *MockBackend {
	return &MockBackend{
		stats:     &backend.Stats{},
		positions: &backend.Positions{},
		status:    &backend.BotStatus{Running: false},
		config:    &backend.TradingConfig{},
		logs:      &backend.Logs{},
		start:     &backend.ActionResult{Success: true},
		stop:      &backend.ActionResult{Success: true},
		export:    &backend.CSVExport{ContentType: "text/csv", Data: []byte("id,symbol\n1,BTC/USDT\n")},
		calls:     make(map[string]int),
	}
}

func (m *MockBackend) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[name]++
}

// Calls returns how many times a method was invoked.
func (m *MockBackend) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockBackend) GetStats(ctx context.Context) (*backend.Stats, error) {
	m.record("GetStats")
	return m.stats, m.statsErr
}

func (m *MockBackend) GetPositions(ctx context.Context) (*backend.Positions, error) {
	m.record("GetPositions")
	return m.positions, m.positionsErr
}

func (m *MockBackend) GetBotStatus(ctx context.Context) (*backend.BotStatus, error) {
	m.record("GetBotStatus")
	return m.status, m.statusErr
}

func (m *MockBackend) GetConfig(ctx context.Context) (*backend.TradingConfig, error) {
	m.record("GetConfig")
	return m.config, m.configErr
}

func (m *MockBackend) GetLogs(ctx context.Context) (*backend.Logs, error) {
	m.record("GetLogs")
	return m.logs, m.logsErr
}

func (m *MockBackend) StartBot(ctx context.Context) (*backend.ActionResult, error) {
	m.record("StartBot")
	if m.startErr != nil {
		return nil, m.startErr
	}
	return m.start, nil
}

func (m *MockBackend) StopBot(ctx context.Context) (*backend.ActionResult, error) {
	m.record("StopBot")
	if m.stopErr != nil {
		return nil, m.stopErr
	}
	return m.stop, nil
}

func (m *MockBackend) ExportTradesCSV(ctx context.Context) (*backend.CSVExport, error) {
	m.record("ExportTradesCSV")
	if m.exportErr != nil {
		return nil, m.exportErr
	}
	return m.export, nil
}

// MockStream is a scripted EventStream. Each Connect pops the next error
// from connectErrs; an empty queue means success.
type MockStream struct {
	mu          sync.Mutex
	connectErrs []error
	connects    int
	closes      int

	msgCh chan json.RawMessage
	errCh chan error
}

func NewMockStream() *MockStream {
	return &MockStream{
		msgCh: make(chan json.RawMessage, 16),
		errCh: make(chan error, 16),
	}
}

func (m *MockStream) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connects++
	if len(m.connectErrs) == 0 {
		return nil
	}
	err := m.connectErrs[0]
	m.connectErrs = m.connectErrs[1:]
	return err
}

func (m *MockStream) Messages() <-chan json.RawMessage { return m.msgCh }

func (m *MockStream) Errors() <-chan error { return m.errCh }

func (m *MockStream) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	return nil
}

// Connects returns the number of Connect calls.
func (m *MockStream) Connects() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connects
}

// MockNotifier records alerts and retractions.
type MockNotifier struct {
	mu        sync.Mutex
	alerts    []notifier.Alert
	retracted int
}

func (m *MockNotifier) Notify(alert notifier.Alert) notifier.Retraction {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, alert)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.retracted++
	}
}

func (m *MockNotifier) Close() error { return nil }

// MockPrompter answers the permission banner.
type MockPrompter struct {
	accept bool
	err    error
	calls  int
}

func (m *MockPrompter) AskNotificationPermission() (bool, error) {
	m.calls++
	return m.accept, m.err
}

// fakeTimers captures afterFunc calls so tests can inspect the requested
// durations and fire callbacks by hand.
type fakeTimers struct {
	mu    sync.Mutex
	delay []time.Duration
	fns   []func()
}

func (f *fakeTimers) afterFunc(d time.Duration, fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = append(f.delay, d)
	f.fns = append(f.fns, fn)
}

// fire runs the i-th scheduled callback.
func (f *fakeTimers) fire(i int) {
	f.mu.Lock()
	fn := f.fns[i]
	f.mu.Unlock()
	fn()
}

func (f *fakeTimers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fns)
}
