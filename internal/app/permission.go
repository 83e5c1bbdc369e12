package app

import (
	"errors"
	"sync"
	"tradedash/clients/notifier"
	"tradedash/config"

	"go.uber.org/zap"
)

// ErrPromptDismissed is returned by a Prompter when the user closed the
// banner without answering.
var ErrPromptDismissed = errors.New("permission prompt dismissed")

// Prompter asks the user whether system notifications may be shown.
type Prompter interface {
	AskNotificationPermission() (bool, error)
}

// BannerAnswer is a reply collected by a renderer's own permission
// banner. It answers the gate as a Prompter would.
type BannerAnswer string

const (
	AnswerAllow   BannerAnswer = "allow"
	AnswerBlock   BannerAnswer = "block"
	AnswerDismiss BannerAnswer = "dismiss"
)

func (a BannerAnswer) AskNotificationPermission() (bool, error) {
	switch a {
	case AnswerAllow:
		return true, nil
	case AnswerBlock:
		return false, nil
	default:
		return false, ErrPromptDismissed
	}
}

// PermissionGate tracks the system notification permission for the
// session. The user is asked at most once.
type PermissionGate struct {
	logger *zap.Logger
	toasts *ToastManager

	mu    sync.Mutex
	state string
	asked bool
}

func NewPermissionGate(logger *zap.Logger, toasts *ToastManager, initial string) *PermissionGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch initial {
	case config.PermissionGranted, config.PermissionDenied:
	default:
		initial = config.PermissionDefault
	}

	return &PermissionGate{
		logger: logger,
		toasts: toasts,
		state:  initial,
	}
}

// State returns default, granted or denied.
func (g *PermissionGate) State() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *PermissionGate) Granted() bool {
	return g.State() == config.PermissionGranted
}

// ShouldAsk reports whether the banner should be offered.
func (g *PermissionGate) ShouldAsk() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state == config.PermissionDefault && !g.asked
}

// Request shows the banner through p unless permission was already decided
// or the banner was already shown this session.
func (g *PermissionGate) Request(p Prompter) string {
	g.mu.Lock()
	if g.state != config.PermissionDefault || g.asked {
		state := g.state
		g.mu.Unlock()
		return state
	}
	g.asked = true
	g.mu.Unlock()

	accepted, err := p.AskNotificationPermission()
	if err != nil {
		g.logger.Info("notification permission not answered", zap.Error(err))
		return g.State()
	}

	g.mu.Lock()
	if accepted {
		g.state = config.PermissionGranted
	} else {
		g.state = config.PermissionDenied
	}
	state := g.state
	g.mu.Unlock()

	g.logger.Info("notification permission decided", zap.String("state", state))
	if accepted && g.toasts != nil {
		g.toasts.Show(notifier.CategorySuccess, "Notifications enabled",
			"You will now receive system notifications.", "")
	}
	return state
}
