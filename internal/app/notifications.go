package app

import (
	"context"
	"tradedash/clients/notifier"
	"tradedash/config"

	"go.uber.org/zap"
)

// NotificationBackend is the notification layer of the dashboard. It is
// chosen once at start-up; the rest of the application never checks which
// one is active.
type NotificationBackend interface {
	// Run listens for server-push events until ctx is cancelled.
	Run(ctx context.Context) error
	SendTestNotification()
	DismissToast(id string)
	// RequestPermission offers the system notification banner at most once
	// and returns the resulting permission state.
	RequestPermission(p Prompter) string
	ShouldAskPermission() bool
}

// NewNotificationBackend returns the full layer, or the null one when the
// configuration disables it or no stream is available.
func NewNotificationBackend(
	logger *zap.Logger,
	cfg config.NotificationsConfig,
	s EventStream,
	renderer ToastRenderer,
	n notifier.Notifier,
) NotificationBackend {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.Backend != config.NotificationBackendFull || s == nil {
		logger.Info("notifications disabled", zap.String("backend", cfg.Backend))
		return nullNotifications{}
	}

	toasts := NewToastManager(logger, renderer, cfg)
	gate := NewPermissionGate(logger, toasts, cfg.Permission)
	return &fullNotifications{
		toasts:   toasts,
		gate:     gate,
		listener: NewListener(logger, s, toasts, gate, renderer, n, cfg),
	}
}

type fullNotifications struct {
	toasts   *ToastManager
	gate     *PermissionGate
	listener *Listener
}

func (f *fullNotifications) Run(ctx context.Context) error {
	return f.listener.Run(ctx)
}

func (f *fullNotifications) SendTestNotification() {
	f.listener.SendTestNotification()
}

func (f *fullNotifications) DismissToast(id string) {
	f.toasts.Dismiss(id)
}

func (f *fullNotifications) RequestPermission(p Prompter) string {
	return f.gate.Request(p)
}

func (f *fullNotifications) ShouldAskPermission() bool {
	return f.gate.ShouldAsk()
}

// nullNotifications does nothing. Run blocks until cancelled so callers
// can treat both backends alike.
type nullNotifications struct{}

func (nullNotifications) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (nullNotifications) SendTestNotification() {}

func (nullNotifications) DismissToast(string) {}

func (nullNotifications) RequestPermission(Prompter) string {
	return config.PermissionDenied
}

func (nullNotifications) ShouldAskPermission() bool { return false }
