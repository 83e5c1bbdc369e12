package app

import (
	"context"
	"errors"
	"fmt"
	"time"
	"tradedash/clients/backend"
	"tradedash/config"
	"tradedash/internal/view"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BackendAPI is the subset of the backend client the Poller uses.
type BackendAPI interface {
	GetStats(ctx context.Context) (*backend.Stats, error)
	GetPositions(ctx context.Context) (*backend.Positions, error)
	GetBotStatus(ctx context.Context) (*backend.BotStatus, error)
	GetConfig(ctx context.Context) (*backend.TradingConfig, error)
	GetLogs(ctx context.Context) (*backend.Logs, error)
	StartBot(ctx context.Context) (*backend.ActionResult, error)
	StopBot(ctx context.Context) (*backend.ActionResult, error)
	ExportTradesCSV(ctx context.Context) (*backend.CSVExport, error)
}

// afterFunc runs f once d has elapsed.
type afterFunc func(d time.Duration, f func())

func realAfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

// Poller keeps the dashboard in sync with the backend on a fixed cadence
// and runs the start/stop/export actions.
type Poller struct {
	logger   *zap.Logger
	api      BackendAPI
	renderer DashboardRenderer
	cfg      config.DashboardConfig

	now       func() time.Time
	afterFunc afterFunc
}

func NewPoller(logger *zap.Logger, api BackendAPI, renderer DashboardRenderer, cfg config.DashboardConfig) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Poller{
		logger:    logger,
		api:       api,
		renderer:  renderer,
		cfg:       cfg,
		now:       time.Now,
		afterFunc: realAfterFunc,
	}
}

// Run performs the initial refresh and config load, then refreshes on the
// configured interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.Refresh(ctx)
	p.LoadConfig(ctx)

	c := cron.New(
		cron.WithLogger(cronLogger{p.logger}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{p.logger})),
	)
	spec := fmt.Sprintf("@every %s", p.cfg.RefreshInterval)
	if _, err := c.AddFunc(spec, func() { p.Refresh(ctx) }); err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}

	c.Start()
	p.logger.Info("auto-refresh enabled", zap.Duration("interval", p.cfg.RefreshInterval))

	<-ctx.Done()
	p.logger.Info("poller shutting down")

	<-c.Stop().Done()
	return nil
}

// Refresh fetches stats, positions, bot status and logs concurrently. A
// failing section is logged and keeps its previous rendering; it never
// affects the other sections.
func (p *Poller) Refresh(ctx context.Context) {
	var g errgroup.Group

	g.Go(func() error {
		p.refreshStats(ctx)
		return nil
	})
	g.Go(func() error {
		p.refreshPositions(ctx)
		return nil
	})
	g.Go(func() error {
		p.RefreshStatus(ctx)
		return nil
	})
	g.Go(func() error {
		p.refreshLogs(ctx)
		return nil
	})

	_ = g.Wait()
	p.renderer.RenderLastUpdated(p.now())
}

func (p *Poller) refreshStats(ctx context.Context) {
	stats, err := p.api.GetStats(ctx)
	if err != nil {
		p.logger.Warn("failed to update stats", zap.Error(err))
		return
	}
	p.renderer.RenderStats(view.BuildStats(stats))
}

func (p *Poller) refreshPositions(ctx context.Context) {
	positions, err := p.api.GetPositions(ctx)
	if err != nil {
		p.logger.Warn("failed to update positions", zap.Error(err))
		return
	}
	p.renderer.RenderPositions(view.BuildPositions(positions, p.cfg.ExchangeURLTemplate, p.now()))
}

// RefreshStatus re-reads the bot status and updates the status badge and
// the start/stop controls.
func (p *Poller) RefreshStatus(ctx context.Context) {
	status, err := p.api.GetBotStatus(ctx)
	if err != nil {
		p.logger.Warn("failed to update bot status", zap.Error(err))
		return
	}
	p.renderer.RenderBotStatus(view.BuildBotStatus(status))
}

func (p *Poller) refreshLogs(ctx context.Context) {
	logs, err := p.api.GetLogs(ctx)
	if err != nil {
		p.logger.Warn("failed to update logs", zap.Error(err))
		return
	}
	p.renderer.RenderLogs(view.BuildLogs(logs))
}

// LoadConfig renders the trading configuration. It is read once per
// session.
func (p *Poller) LoadConfig(ctx context.Context) {
	cfg, err := p.api.GetConfig(ctx)
	if err != nil {
		p.logger.Warn("failed to load config", zap.Error(err))
		return
	}
	p.renderer.RenderConfig(view.BuildConfig(cfg))
}

type botAction struct {
	control   Control
	busyLabel string
	call      func(ctx context.Context) (*backend.ActionResult, error)
	success   string
	failure   string
}

// StartBot asks the backend to start trading.
func (p *Poller) StartBot(ctx context.Context) {
	p.runBotAction(ctx, botAction{
		control:   ControlStart,
		busyLabel: "Starting...",
		call:      p.api.StartBot,
		success:   "✓ Bot started successfully",
		failure:   "✗ Error while starting: ",
	})
}

// StopBot asks the backend to stop trading.
func (p *Poller) StopBot(ctx context.Context) {
	p.runBotAction(ctx, botAction{
		control:   ControlStop,
		busyLabel: "Stopping...",
		call:      p.api.StopBot,
		success:   "✓ Bot stopped successfully",
		failure:   "✗ Error while stopping: ",
	})
}

// runBotAction shows the control busy, reports the outcome, then always
// re-reads the bot status so the controls match the backend.
func (p *Poller) runBotAction(ctx context.Context, a botAction) {
	p.renderer.SetControlBusy(a.control, a.busyLabel)

	result, err := a.call(ctx)
	switch {
	case err != nil:
		p.logger.Warn("bot action failed", zap.String("action", string(a.control)), zap.Error(err))
		p.renderer.ShowMessage(Message{Level: MessageError, Text: a.failure + err.Error()})
	case result.Success:
		p.logger.Info("bot action succeeded", zap.String("action", string(a.control)))
		p.renderer.ShowMessage(Message{Level: MessageSuccess, Text: a.success})
		p.RefreshStatus(ctx)
	default:
		p.logger.Warn("bot action rejected",
			zap.String("action", string(a.control)),
			zap.String("message", result.Message),
		)
		p.renderer.ShowMessage(Message{Level: MessageError, Text: "✗ Error: " + result.Message})
	}

	p.renderer.ResetControlLabel(a.control)
	p.RefreshStatus(ctx)
}

// ExportFilename is the download name for an export made at t.
func ExportFilename(t time.Time) string {
	return "trades_export_" + t.UTC().Format("2006-01-02") + ".csv"
}

// ExportCSV downloads the closed trades. Whatever the outcome, the export
// control is re-enabled and the status cleared after the configured delay.
func (p *Poller) ExportCSV(ctx context.Context) {
	p.renderer.ShowExportStatus(ExportStatus{Text: "Preparing export..."})
	p.renderer.SetControlEnabled(ControlExport, false)

	defer p.afterFunc(p.cfg.ExportReenableDelay, func() {
		p.renderer.SetControlEnabled(ControlExport, true)
		p.renderer.ShowExportStatus(ExportStatus{})
	})

	export, err := p.api.ExportTradesCSV(ctx)
	if err != nil {
		p.logger.Warn("export failed", zap.Error(err))
		p.renderer.ShowExportStatus(ExportStatus{Text: "✗ " + exportErrorText(err), Class: "error"})
		return
	}

	filename := ExportFilename(p.now())
	if err := p.renderer.Download(filename, export.Data); err != nil {
		p.logger.Warn("export download failed", zap.String("file", filename), zap.Error(err))
		p.renderer.ShowExportStatus(ExportStatus{Text: "✗ " + err.Error(), Class: "error"})
		return
	}

	p.logger.Info("export downloaded", zap.String("file", filename), zap.Int("bytes", len(export.Data)))
	p.renderer.ShowExportStatus(ExportStatus{Text: "✓ Export successful!", Class: "success"})
}

func exportErrorText(err error) string {
	var exportErr *backend.ExportError
	switch {
	case errors.As(err, &exportErr):
		return exportErr.Message
	case errors.Is(err, backend.ErrUnexpectedExportFormat):
		return "Unexpected response format"
	case errors.Is(err, backend.ErrExportServer):
		return "Server error during export"
	default:
		return err.Error()
	}
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, zap.Any("kv", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, zap.Error(err), zap.Any("kv", keysAndValues))
}
