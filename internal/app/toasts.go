package app

import (
	"fmt"
	"sync"
	"time"
	"tradedash/clients/notifier"
	"tradedash/config"

	"go.uber.org/zap"
)

// Toast is one transient in-dashboard notification.
type Toast struct {
	ID       string            `json:"id"`
	Category notifier.Category `json:"category"`
	Title    string            `json:"title"`
	Message  string            `json:"message"`
	Icon     string            `json:"icon"`
	Closing  bool              `json:"closing,omitempty"`
}

var defaultIcons = map[notifier.Category]string{
	notifier.CategorySuccess: "✓",
	notifier.CategoryError:   "✗",
	notifier.CategoryWarning: "⚠",
	notifier.CategoryInfo:    "ℹ",
}

// DefaultIcon returns the icon used for a category when none is given.
func DefaultIcon(c notifier.Category) string {
	if icon, ok := defaultIcons[c]; ok {
		return icon
	}
	return defaultIcons[notifier.CategoryInfo]
}

// ToastManager owns the toast stack: id allocation, auto-dismissal and
// the closing fade.
type ToastManager struct {
	logger   *zap.Logger
	renderer ToastRenderer

	ttl  time.Duration
	fade time.Duration

	afterFunc afterFunc

	mu     sync.Mutex
	nextID int
	active map[string]*Toast
	order  []string
}

func NewToastManager(logger *zap.Logger, renderer ToastRenderer, cfg config.NotificationsConfig) *ToastManager {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ToastManager{
		logger:    logger,
		renderer:  renderer,
		ttl:       cfg.ToastTTL,
		fade:      cfg.ToastFade,
		afterFunc: realAfterFunc,
		active:    make(map[string]*Toast),
	}
}

// Show appends a toast to the stack and schedules its dismissal. An empty
// icon is replaced by the category default. The toast id is returned.
func (m *ToastManager) Show(category notifier.Category, title, message, icon string) string {
	if icon == "" {
		icon = DefaultIcon(category)
	}

	m.mu.Lock()
	id := fmt.Sprintf("toast-%d", m.nextID)
	m.nextID++
	t := &Toast{ID: id, Category: category, Title: title, Message: message, Icon: icon}
	m.active[id] = t
	m.order = append(m.order, id)
	m.mu.Unlock()

	m.renderer.ShowToast(*t)
	m.afterFunc(m.ttl, func() { m.Dismiss(id) })

	return id
}

// Dismiss marks a toast closing and removes it once the fade has elapsed.
// Unknown or already closing toasts are ignored.
func (m *ToastManager) Dismiss(id string) {
	m.mu.Lock()
	t, ok := m.active[id]
	if !ok || t.Closing {
		m.mu.Unlock()
		return
	}
	t.Closing = true
	m.mu.Unlock()

	m.renderer.MarkToastClosing(id)
	m.afterFunc(m.fade, func() { m.remove(id) })
}

func (m *ToastManager) remove(id string) {
	m.mu.Lock()
	if _, ok := m.active[id]; !ok {
		m.mu.Unlock()
		return
	}
	delete(m.active, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	m.renderer.RemoveToast(id)
}

// Active returns the toasts currently on screen, oldest first.
func (m *ToastManager) Active() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Toast, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.active[id])
	}
	return out
}
