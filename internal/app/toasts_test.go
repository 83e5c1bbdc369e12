package app

import (
	"testing"
	"time"
	"tradedash/clients/notifier"
	"tradedash/config"
)

func newTestToasts(r *MockRenderer) (*ToastManager, *fakeTimers) {
	m := NewToastManager(nil, r, config.Defaults().Notifications)
	timers := &fakeTimers{}
	m.afterFunc = timers.afterFunc
	return m, timers
}

func TestToastManager_IDsIncrement(t *testing.T) {
	r := NewMockRenderer()
	m, _ := newTestToasts(r)

	first := m.Show(notifier.CategoryInfo, "a", "", "")
	second := m.Show(notifier.CategoryInfo, "b", "", "")

	if first != "toast-0" || second != "toast-1" {
		t.Errorf("expected toast-0, toast-1; got %s, %s", first, second)
	}
	if len(m.Active()) != 2 {
		t.Errorf("expected 2 active toasts, got %d", len(m.Active()))
	}
}

func TestToastManager_DefaultIcons(t *testing.T) {
	tests := []struct {
		category notifier.Category
		want     string
	}{
		{notifier.CategorySuccess, "✓"},
		{notifier.CategoryError, "✗"},
		{notifier.CategoryWarning, "⚠"},
		{notifier.CategoryInfo, "ℹ"},
		{notifier.Category("other"), "ℹ"},
	}

	for _, tt := range tests {
		r := NewMockRenderer()
		m, _ := newTestToasts(r)
		m.Show(tt.category, "title", "msg", "")
		if got := r.toasts[0].Icon; got != tt.want {
			t.Errorf("%s: expected icon %q, got %q", tt.category, tt.want, got)
		}
	}

	r := NewMockRenderer()
	m, _ := newTestToasts(r)
	m.Show(notifier.CategoryInfo, "title", "msg", "📈")
	if r.toasts[0].Icon != "📈" {
		t.Errorf("explicit icon should be kept, got %q", r.toasts[0].Icon)
	}
}

func TestToastManager_AutoDismissLifecycle(t *testing.T) {
	r := NewMockRenderer()
	m, timers := newTestToasts(r)

	id := m.Show(notifier.CategorySuccess, "Closed", "BTC/USDT", "")

	if timers.count() != 1 || timers.delay[0] != 7*time.Second {
		t.Fatalf("expected a 7s auto-dismiss timer, got %v", timers.delay)
	}

	timers.fire(0)
	if len(r.closing) != 1 || r.closing[0] != id {
		t.Fatalf("expected %s marked closing, got %v", id, r.closing)
	}
	if len(r.removed) != 0 {
		t.Fatal("toast should stay until the fade completes")
	}
	if timers.count() != 2 || timers.delay[1] != 300*time.Millisecond {
		t.Fatalf("expected a 300ms fade timer, got %v", timers.delay)
	}

	timers.fire(1)
	if len(r.removed) != 1 || r.removed[0] != id {
		t.Errorf("expected %s removed, got %v", id, r.removed)
	}
	if len(m.Active()) != 0 {
		t.Error("no toast should remain active")
	}
}

func TestToastManager_EarlyDismiss(t *testing.T) {
	r := NewMockRenderer()
	m, timers := newTestToasts(r)

	id := m.Show(notifier.CategoryInfo, "x", "", "")
	m.Dismiss(id)
	timers.fire(1) // fade
	timers.fire(0) // auto-dismiss fires after the toast is gone

	if len(r.closing) != 1 {
		t.Errorf("expected a single closing mark, got %v", r.closing)
	}
	if len(r.removed) != 1 {
		t.Errorf("expected a single removal, got %v", r.removed)
	}
	if timers.count() != 2 {
		t.Errorf("dismissing a removed toast should schedule nothing, got %d timers", timers.count())
	}
}

func TestToastManager_DismissUnknown(t *testing.T) {
	r := NewMockRenderer()
	m, timers := newTestToasts(r)

	m.Dismiss("toast-42")

	if len(r.closing) != 0 || timers.count() != 0 {
		t.Error("unknown toast should be ignored")
	}
}
