package display

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
	"tradedash/config"
	"tradedash/internal/app"
	"tradedash/internal/view"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var _ app.InteractiveRenderer = (*Web)(nil)
var _ app.HealthProvider = (*Web)(nil)

// Regions pushed to the page. Regions in persistentRegions are replayed to
// pages that connect later.
const (
	RegionStats        = "stats"
	RegionPositions    = "positions"
	RegionStatus       = "status"
	RegionConfig       = "config"
	RegionLogs         = "logs"
	RegionLastUpdated  = "last_updated"
	RegionControls     = "controls"
	RegionMessage      = "message"
	RegionExportStatus = "export_status"
	RegionToasts       = "toasts"
	RegionToast        = "toast"
	RegionToastClosing = "toast_closing"
	RegionToastRemoved = "toast_removed"
	RegionBell         = "bell"
	RegionDownload     = "download"
	RegionPermission   = "permission"
)

var persistentRegions = []string{
	RegionStats, RegionPositions, RegionStatus, RegionConfig, RegionLogs,
	RegionLastUpdated, RegionControls, RegionMessage, RegionExportStatus,
}

const clientSendBuffer = 64

// Frame is one server-to-page update.
type Frame struct {
	Region  string `json:"region"`
	Payload any    `json:"payload"`
}

// inbound is a page-to-server message.
type inbound struct {
	Action  string `json:"action"`
	ID      string `json:"id,omitempty"`
	Visible bool   `json:"visible,omitempty"`
	Answer  string `json:"answer,omitempty"`
}

type controlFrame struct {
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}

type downloadFrame struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"` // base64 in JSON
}

type wsClient struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	visible bool
}

// Web serves the dashboard page and pushes region updates to every
// connected page over a WebSocket.
type Web struct {
	logger   *zap.Logger
	port     int
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	clients  map[string]*wsClient
	regions  map[string][]byte
	controls map[app.Control]controlFrame
	toasts   []app.Toast
	healthFn func() app.HealthStats

	ctx     context.Context
	actions app.Actions
}

func NewWeb(logger *zap.Logger, cfg *config.Config) *Web {
	if logger == nil {
		logger = zap.NewNop()
	}

	controls := make(map[app.Control]controlFrame)
	for _, c := range []app.Control{app.ControlStart, app.ControlStop, app.ControlExport} {
		controls[c] = controlFrame{Label: app.ControlLabel(c), Enabled: true}
	}

	return &Web{
		logger: logger,
		port:   cfg.Web.Port,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:  make(map[string]*wsClient),
		regions:  make(map[string][]byte),
		controls: controls,
		ctx:      context.Background(),
	}
}

func (w *Web) SetHealthFunc(fn func() app.HealthStats) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.healthFn = fn
}

// Handler returns the HTTP routes of the dashboard.
func (w *Web) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", func(rw http.ResponseWriter, _ *http.Request) {
		rw.Header().Set("Content-Type", "text/html; charset=utf-8")
		rw.WriteHeader(http.StatusOK)
		rw.Write([]byte(dashboardHTML))
	})
	r.Get("/health", w.handleHealth)
	r.Get("/ws", w.handleWebSocket)

	return r
}

func (w *Web) handleHealth(rw http.ResponseWriter, _ *http.Request) {
	w.mu.RLock()
	fn := w.healthFn
	w.mu.RUnlock()

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusOK)
	if fn == nil {
		json.NewEncoder(rw).Encode(map[string]string{"status": "ok"})
		return
	}
	json.NewEncoder(rw).Encode(fn())
}

// Run serves until ctx is cancelled.
func (w *Web) Run(ctx context.Context, actions app.Actions) error {
	w.bind(ctx, actions)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", w.port),
		Handler:           w.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		w.logger.Info("web dashboard listening", zap.Int("port", w.port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("web server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		w.logger.Warn("web server shutdown", zap.Error(err))
	}
	w.closeClients()
	return nil
}

func (w *Web) bind(ctx context.Context, actions app.Actions) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ctx = ctx
	w.actions = actions
}

func (w *Web) handleWebSocket(rw http.ResponseWriter, req *http.Request) {
	conn, err := w.upgrader.Upgrade(rw, req, nil)
	if err != nil {
		w.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{
		id:      uuid.NewString(),
		conn:    conn,
		send:    make(chan []byte, clientSendBuffer),
		visible: true,
	}

	w.mu.RLock()
	actions := w.actions
	w.mu.RUnlock()
	askPermission := actions != nil && actions.ShouldAskPermission()

	w.mu.Lock()
	for _, region := range persistentRegions {
		if frame, ok := w.regions[region]; ok {
			client.send <- frame
		}
	}
	if askPermission {
		if frame, err := json.Marshal(Frame{Region: RegionPermission, Payload: true}); err == nil {
			client.send <- frame
		}
	}
	if frame, err := json.Marshal(Frame{Region: RegionToasts, Payload: w.toasts}); err == nil {
		client.send <- frame
	}
	w.clients[client.id] = client
	count := len(w.clients)
	w.mu.Unlock()

	w.logger.Info("dashboard page connected", zap.String("client", client.id), zap.Int("clients", count))

	go w.writeLoop(client)
	w.readLoop(client)
}

func (w *Web) writeLoop(c *wsClient) {
	for frame := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			w.logger.Debug("websocket write failed", zap.String("client", c.id), zap.Error(err))
			w.removeClient(c.id)
			return
		}
	}
}

func (w *Web) readLoop(c *wsClient) {
	defer w.removeClient(c.id)

	for {
		var msg inbound
		if err := c.conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				w.logger.Debug("websocket read ended", zap.String("client", c.id), zap.Error(err))
			}
			return
		}
		w.handleInbound(c, msg)
	}
}

func (w *Web) handleInbound(c *wsClient, msg inbound) {
	w.mu.Lock()
	ctx, actions := w.ctx, w.actions
	if msg.Action == "visibility" {
		c.visible = msg.Visible
	}
	w.mu.Unlock()

	if actions == nil {
		return
	}

	switch msg.Action {
	case "start":
		if w.controlEnabled(app.ControlStart) {
			go actions.StartBot(ctx)
		}
	case "stop":
		if w.controlEnabled(app.ControlStop) {
			go actions.StopBot(ctx)
		}
	case "export":
		if w.controlEnabled(app.ControlExport) {
			go actions.ExportCSV(ctx)
		}
	case "refresh":
		go actions.Refresh(ctx)
	case "test":
		actions.SendTestNotification()
	case "dismiss":
		actions.DismissToast(msg.ID)
	case "permission":
		state := actions.AnswerPermission(app.BannerAnswer(msg.Answer))
		w.logger.Debug("permission banner answered", zap.String("client", c.id), zap.String("state", state))
		w.publish(RegionPermission, false, false)
	case "visibility":
	default:
		w.logger.Warn("unknown dashboard action", zap.String("action", msg.Action))
	}
}

func (w *Web) controlEnabled(c app.Control) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.controls[c].Enabled
}

func (w *Web) removeClient(id string) {
	w.mu.Lock()
	c, ok := w.clients[id]
	if ok {
		delete(w.clients, id)
		close(c.send)
	}
	w.mu.Unlock()

	if ok {
		c.conn.Close()
		w.logger.Info("dashboard page disconnected", zap.String("client", id))
	}
}

func (w *Web) closeClients() {
	w.mu.RLock()
	ids := make([]string, 0, len(w.clients))
	for id := range w.clients {
		ids = append(ids, id)
	}
	w.mu.RUnlock()

	for _, id := range ids {
		w.removeClient(id)
	}
}

// ClientCount returns the number of connected pages.
func (w *Web) ClientCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.clients)
}

// publish sends a frame to every page. Persistent regions are also kept
// for pages that connect later.
func (w *Web) publish(region string, payload any, persist bool) {
	frame, err := json.Marshal(Frame{Region: region, Payload: payload})
	if err != nil {
		w.logger.Error("marshal frame", zap.String("region", region), zap.Error(err))
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if persist {
		w.regions[region] = frame
	}
	for id, c := range w.clients {
		select {
		case c.send <- frame:
		default:
			w.logger.Warn("dropping slow dashboard page", zap.String("client", id))
			delete(w.clients, id)
			close(c.send)
			go c.conn.Close()
		}
	}
}

// updateControls mutates the control map and publishes it. The caller must
// not hold mu.
func (w *Web) updateControls(fn func(m map[app.Control]controlFrame)) {
	w.mu.Lock()
	fn(w.controls)
	snapshot := make(map[app.Control]controlFrame, len(w.controls))
	for k, v := range w.controls {
		snapshot[k] = v
	}
	w.mu.Unlock()

	w.publish(RegionControls, snapshot, true)
}

func (w *Web) RenderStats(v view.StatsView)         { w.publish(RegionStats, v, true) }
func (w *Web) RenderPositions(v view.PositionsView) { w.publish(RegionPositions, v, true) }
func (w *Web) RenderConfig(v view.ConfigView)       { w.publish(RegionConfig, v, true) }
func (w *Web) RenderLogs(v view.LogsView)           { w.publish(RegionLogs, v, true) }

func (w *Web) RenderBotStatus(v view.BotStatusView) {
	w.publish(RegionStatus, v, true)
	w.updateControls(func(m map[app.Control]controlFrame) {
		start, stop := m[app.ControlStart], m[app.ControlStop]
		start.Enabled, stop.Enabled = v.StartEnabled, v.StopEnabled
		m[app.ControlStart], m[app.ControlStop] = start, stop
	})
}

func (w *Web) RenderLastUpdated(t time.Time) {
	w.publish(RegionLastUpdated, t.Format("15:04:05"), true)
}

func (w *Web) SetControlBusy(c app.Control, label string) {
	w.updateControls(func(m map[app.Control]controlFrame) {
		m[c] = controlFrame{Label: label, Enabled: false}
	})
}

func (w *Web) ResetControlLabel(c app.Control) {
	w.updateControls(func(m map[app.Control]controlFrame) {
		s := m[c]
		s.Label = app.ControlLabel(c)
		m[c] = s
	})
}

func (w *Web) SetControlEnabled(c app.Control, enabled bool) {
	w.updateControls(func(m map[app.Control]controlFrame) {
		s := m[c]
		s.Enabled = enabled
		m[c] = s
	})
}

func (w *Web) ShowMessage(m app.Message)           { w.publish(RegionMessage, m, true) }
func (w *Web) ShowExportStatus(s app.ExportStatus) { w.publish(RegionExportStatus, s, true) }

// Download hands the file to every connected page. It fails when no page
// is there to receive it.
func (w *Web) Download(filename string, data []byte) error {
	if w.ClientCount() == 0 {
		return errors.New("no dashboard page connected")
	}
	w.publish(RegionDownload, downloadFrame{Filename: filename, Data: data}, false)
	return nil
}

func (w *Web) ShowToast(t app.Toast) {
	w.mu.Lock()
	w.toasts = append(w.toasts, t)
	w.mu.Unlock()
	w.publish(RegionToast, t, false)
}

func (w *Web) MarkToastClosing(id string) {
	w.mu.Lock()
	for i := range w.toasts {
		if w.toasts[i].ID == id {
			w.toasts[i].Closing = true
		}
	}
	w.mu.Unlock()
	w.publish(RegionToastClosing, id, false)
}

func (w *Web) RemoveToast(id string) {
	w.mu.Lock()
	for i := range w.toasts {
		if w.toasts[i].ID == id {
			w.toasts = append(w.toasts[:i], w.toasts[i+1:]...)
			break
		}
	}
	w.mu.Unlock()
	w.publish(RegionToastRemoved, id, false)
}

// Focused reports whether any connected page is visible.
func (w *Web) Focused() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, c := range w.clients {
		if c.visible {
			return true
		}
	}
	return false
}

func (w *Web) Bell() {
	w.publish(RegionBell, nil, false)
}
