package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
	clts "tradedash/clients"
	"tradedash/config"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Build info - populated from embedded VCS info at init time
var (
	BuildCommit = "dev"
	BuildTime   = "unknown"
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if setting.Value != "" {
					BuildCommit = setting.Value
				}
			case "vcs.time":
				BuildTime = setting.Value
			}
		}
	}
}

// Actions are the user inputs a renderer forwards to the application.
type Actions interface {
	StartBot(ctx context.Context)
	StopBot(ctx context.Context)
	ExportCSV(ctx context.Context)
	Refresh(ctx context.Context)
	SendTestNotification()
	DismissToast(id string)

	// ShouldAskPermission reports whether a permission banner may still be
	// offered this session.
	ShouldAskPermission() bool
	// AnswerPermission applies a banner reply and returns the new state.
	AnswerPermission(answer BannerAnswer) string
}

// InteractiveRenderer is a Renderer that owns an input loop. Run returns
// when the user quits or ctx is cancelled.
type InteractiveRenderer interface {
	Renderer
	Run(ctx context.Context, actions Actions) error
}

// HealthProvider is implemented by renderers that expose service health.
type HealthProvider interface {
	SetHealthFunc(fn func() HealthStats)
}

// HealthStats is the service snapshot served on the health endpoint.
type HealthStats struct {
	Build struct {
		Commit    string `json:"commit"`
		Time      string `json:"time,omitempty"`
		GoVersion string `json:"go_version"`
	} `json:"build"`

	StartTime string `json:"start_time"`
	Uptime    string `json:"uptime"`
	UptimeSec int64  `json:"uptime_seconds"`

	Backend string `json:"backend"`

	Stream struct {
		Enabled        bool   `json:"enabled"`
		MessageCount   uint64 `json:"message_count"`
		LastMessageAt  string `json:"last_message_at,omitempty"`
		LastMessageAgo string `json:"last_message_ago,omitempty"`
	} `json:"stream"`

	Notifications struct {
		Backend         string `json:"backend"`
		DiscordEnabled  bool   `json:"discord_enabled"`
		TelegramEnabled bool   `json:"telegram_enabled"`
	} `json:"notifications"`

	Runtime struct {
		Goroutines int    `json:"goroutines"`
		HeapAlloc  uint64 `json:"heap_alloc"`
		NumGC      uint32 `json:"num_gc"`
	} `json:"runtime"`
}

// Runner wires the poller, the notification layer and a renderer into one
// dashboard session.
type Runner struct {
	logger        *zap.Logger
	clients       *clts.Clients
	cfg           *config.Config
	renderer      InteractiveRenderer
	prompter      Prompter
	poller        *Poller
	notifications NotificationBackend
	startTime     time.Time
}

// NewRunner builds a session. prompter may be nil, in which case the
// configured permission is used as is.
func NewRunner(clients *clts.Clients, cfg *config.Config, renderer InteractiveRenderer, prompter Prompter) *Runner {
	logger := clients.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Runner{
		logger:   logger,
		clients:  clients,
		cfg:      cfg,
		renderer: renderer,
		prompter: prompter,
		poller:   NewPoller(logger, clients.Backend, renderer, cfg.Dashboard),
	}

	var stream EventStream
	if clients.Stream != nil {
		stream = clients.Stream
	}
	r.notifications = NewNotificationBackend(logger, cfg.Notifications, stream, renderer, clients.Notifier)

	return r
}

// Run blocks until ctx is cancelled or the renderer exits.
func (r *Runner) Run(ctx context.Context) error {
	r.startTime = time.Now()
	logger := r.logger

	logger.Info("starting dashboard",
		zap.String("backend", r.cfg.Backend.BaseURL),
		zap.String("renderer", r.cfg.Dashboard.Renderer),
		zap.String("notifications", r.cfg.Notifications.Backend),
		zap.Duration("refreshInterval", r.cfg.Dashboard.RefreshInterval),
	)

	if hp, ok := r.renderer.(HealthProvider); ok {
		hp.SetHealthFunc(r.Health)
	}

	if r.prompter != nil && r.notifications.ShouldAskPermission() {
		state := r.notifications.RequestPermission(r.prompter)
		logger.Info("notification permission", zap.String("state", state))
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.poller.Run(gctx)
	})
	g.Go(func() error {
		return r.notifications.Run(gctx)
	})

	// The renderer's exit ends the session.
	g.Go(func() error {
		err := r.renderer.Run(gctx, r)
		if err != nil {
			return fmt.Errorf("renderer: %w", err)
		}
		return errSessionEnded
	})

	err := g.Wait()
	if errors.Is(err, errSessionEnded) {
		err = nil
	}

	logger.Info("dashboard stopped")
	return err
}

var errSessionEnded = errors.New("session ended")

func (r *Runner) StartBot(ctx context.Context)  { r.poller.StartBot(ctx) }
func (r *Runner) StopBot(ctx context.Context)   { r.poller.StopBot(ctx) }
func (r *Runner) ExportCSV(ctx context.Context) { r.poller.ExportCSV(ctx) }
func (r *Runner) Refresh(ctx context.Context)   { r.poller.Refresh(ctx) }
func (r *Runner) SendTestNotification()         { r.notifications.SendTestNotification() }
func (r *Runner) DismissToast(id string)        { r.notifications.DismissToast(id) }
func (r *Runner) ShouldAskPermission() bool     { return r.notifications.ShouldAskPermission() }

func (r *Runner) AnswerPermission(answer BannerAnswer) string {
	state := r.notifications.RequestPermission(answer)
	r.logger.Info("notification permission answered on page",
		zap.String("answer", string(answer)), zap.String("state", state))
	return state
}

// Health returns a snapshot of the session.
func (r *Runner) Health() HealthStats {
	var stats HealthStats

	stats.Build.Commit = BuildCommit
	stats.Build.Time = BuildTime
	stats.Build.GoVersion = runtime.Version()

	uptime := time.Since(r.startTime)
	stats.StartTime = r.startTime.UTC().Format(time.RFC3339)
	stats.Uptime = uptime.Truncate(time.Second).String()
	stats.UptimeSec = int64(uptime.Seconds())

	stats.Backend = r.cfg.Backend.BaseURL

	if r.clients.Stream != nil {
		ss := r.clients.Stream.Stats()
		stats.Stream.Enabled = true
		stats.Stream.MessageCount = ss.MessageCount
		if !ss.LastMessageAt.IsZero() {
			stats.Stream.LastMessageAt = ss.LastMessageAt.UTC().Format(time.RFC3339)
			stats.Stream.LastMessageAgo = time.Since(ss.LastMessageAt).Truncate(time.Second).String()
		}
	}

	stats.Notifications.Backend = r.cfg.Notifications.Backend
	stats.Notifications.DiscordEnabled = r.clients.Discord != nil && r.clients.Discord.Enabled()
	stats.Notifications.TelegramEnabled = r.clients.Telegram != nil && r.clients.Telegram.Enabled()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	stats.Runtime.Goroutines = runtime.NumGoroutine()
	stats.Runtime.HeapAlloc = mem.HeapAlloc
	stats.Runtime.NumGC = mem.NumGC

	return stats
}
