package app

import (
	"context"
	"encoding/json"
	"time"
	"tradedash/clients/notifier"
	"tradedash/clients/stream"
	"tradedash/config"

	"go.uber.org/zap"
)

// EventStream is a reconnectable server-push connection.
type EventStream interface {
	Connect(ctx context.Context) error
	Messages() <-chan json.RawMessage
	Errors() <-chan error
	Close() error
}

// sleepFunc waits for d and reports false if ctx ended first.
type sleepFunc func(ctx context.Context, d time.Duration) bool

func realSleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Listener turns stream events into toasts and system notifications.
type Listener struct {
	logger   *zap.Logger
	stream   EventStream
	toasts   *ToastManager
	gate     *PermissionGate
	renderer ToastRenderer
	notifier notifier.Notifier
	cfg      config.NotificationsConfig

	afterFunc afterFunc
	sleep     sleepFunc
	now       func() time.Time
}

func NewListener(
	logger *zap.Logger,
	s EventStream,
	toasts *ToastManager,
	gate *PermissionGate,
	renderer ToastRenderer,
	n notifier.Notifier,
	cfg config.NotificationsConfig,
) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Listener{
		logger:    logger,
		stream:    s,
		toasts:    toasts,
		gate:      gate,
		renderer:  renderer,
		notifier:  n,
		cfg:       cfg,
		afterFunc: realAfterFunc,
		sleep:     realSleep,
		now:       time.Now,
	}
}

// Run keeps the stream connected until ctx is cancelled. Every failure,
// whether on connect or mid-stream, is followed by exactly one retry after
// the fixed reconnect delay.
func (l *Listener) Run(ctx context.Context) error {
	defer l.stream.Close()

	for attempt := 1; ; attempt++ {
		l.logger.Info("connecting to event stream", zap.Int("attempt", attempt))

		if err := l.stream.Connect(ctx); err != nil {
			l.logger.Warn("event stream connect failed", zap.Int("attempt", attempt), zap.Error(err))
		} else {
			attempt = 0
			if err := l.consume(ctx); err != nil {
				l.logger.Warn("event stream error", zap.Error(err))
			}
			_ = l.stream.Close()
		}

		if ctx.Err() != nil {
			l.logger.Info("event stream listener shutting down")
			return nil
		}

		l.logger.Info("reconnecting to event stream", zap.Duration("delay", l.cfg.ReconnectDelay))
		if !l.sleep(ctx, l.cfg.ReconnectDelay) {
			l.logger.Info("event stream listener shutting down")
			return nil
		}
	}
}

// consume handles messages until the stream reports an error or ctx ends.
func (l *Listener) consume(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-l.stream.Errors():
			return err
		case msg := <-l.stream.Messages():
			l.HandleMessage(msg)
		}
	}
}

// HandleMessage decodes one stream frame and dispatches it. Malformed
// frames are logged and dropped.
func (l *Listener) HandleMessage(raw json.RawMessage) {
	event, err := stream.ParseEvent(raw)
	if err != nil {
		l.logger.Warn("dropping malformed stream event", zap.Error(err), zap.ByteString("raw", raw))
		return
	}
	l.HandleEvent(event)
}

// Classify maps an event to its toast category and icon. ok is false for
// events that are never shown.
func Classify(e *stream.Event) (category notifier.Category, icon string, ok bool) {
	switch e.Type {
	case stream.EventHeartbeat, stream.EventConnected:
		return "", "", false
	case stream.EventPositionOpened:
		return notifier.CategoryInfo, "📈", true
	case stream.EventPositionClosed:
		category, icon = notifier.CategoryError, "🔴"
		if e.Data.PnLUSDT.IsPositive() {
			category, icon = notifier.CategorySuccess, "🟢"
		}
		if e.Data.CloseReason == "LIQUIDATED" {
			icon = "💀"
		}
		return category, icon, true
	default:
		return notifier.CategoryInfo, "🔔", true
	}
}

// HandleEvent shows the toast for an event, raises a system notification
// when allowed and the dashboard is in the background, and rings the bell
// for position events.
func (l *Listener) HandleEvent(e *stream.Event) {
	category, icon, ok := Classify(e)
	if !ok {
		return
	}

	l.logger.Info("stream notification", zap.String("type", e.Type), zap.String("title", e.Title))
	l.toasts.Show(category, e.Title, e.Message, icon)

	if l.gate != nil && l.gate.Granted() && !l.renderer.Focused() {
		l.raiseSystemNotification(category, e.Title, e.Message, icon)
	}

	if l.cfg.Sound && (e.Type == stream.EventPositionOpened || e.Type == stream.EventPositionClosed) {
		l.renderer.Bell()
	}
}

func (l *Listener) raiseSystemNotification(category notifier.Category, title, message, icon string) {
	if l.notifier == nil {
		return
	}

	retract := l.notifier.Notify(notifier.Alert{
		Title:     title,
		Message:   notifier.SingleLine(message),
		Icon:      icon,
		Category:  category,
		Timestamp: l.now(),
	})
	if retract == nil {
		return
	}
	l.afterFunc(l.cfg.SystemTTL, retract)
}

// SendTestNotification shows a fixed info toast.
func (l *Listener) SendTestNotification() {
	l.toasts.Show(notifier.CategoryInfo, "🧪 Test notification",
		"If you can see this message, notifications are working correctly!", "")
}
