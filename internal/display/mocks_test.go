package display

import (
	"context"
	"sync"
	"testing"
	"time"
	"tradedash/internal/app"
)

// MockActions records forwarded user actions on a channel, since most of
// them are dispatched from their own goroutine.
type MockActions struct {
	calls chan string

	mu            sync.Mutex
	askPermission bool
}

func NewMockActions() *MockActions {
	return &MockActions{calls: make(chan string, 32)}
}

func (m *MockActions) StartBot(ctx context.Context)  { m.calls <- "start" }
func (m *MockActions) StopBot(ctx context.Context)   { m.calls <- "stop" }
func (m *MockActions) ExportCSV(ctx context.Context) { m.calls <- "export" }
func (m *MockActions) Refresh(ctx context.Context)   { m.calls <- "refresh" }
func (m *MockActions) SendTestNotification()         { m.calls <- "test" }
func (m *MockActions) DismissToast(id string)        { m.calls <- "dismiss:" + id }

func (m *MockActions) ShouldAskPermission() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.askPermission
}

func (m *MockActions) AnswerPermission(answer app.BannerAnswer) string {
	m.mu.Lock()
	m.askPermission = false
	m.mu.Unlock()
	m.calls <- "permission:" + string(answer)
	return ""
}

// expect waits for the next recorded call.
func (m *MockActions) expect(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-m.calls:
		if got != want {
			t.Errorf("expected action %q, got %q", want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for action %q", want)
	}
}

// expectNone fails if any call arrives within a short window.
func (m *MockActions) expectNone(t *testing.T) {
	t.Helper()
	select {
	case got := <-m.calls:
		t.Errorf("unexpected action %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}
