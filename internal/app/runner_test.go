package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	clts "tradedash/clients"
	"tradedash/clients/backend"
	"tradedash/config"
)

func newTestRunner(t *testing.T, r *MockRenderer, prompter Prompter) (*Runner, *config.Config) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case req.URL.Path == "/api/bot/status":
			w.Write([]byte(`{"running": true}`))
		case req.URL.Path == "/api/positions":
			w.Write([]byte(`{"open": [], "closed": []}`))
		case req.URL.Path == "/api/logs":
			w.Write([]byte(`{"logs": []}`))
		case strings.HasPrefix(req.URL.Path, "/api/"):
			w.Write([]byte(`{}`))
		default:
			http.NotFound(w, req)
		}
	}))
	t.Cleanup(server.Close)

	cfg := config.Defaults()
	cfg.Backend.BaseURL = server.URL
	cfg.Dashboard.RefreshInterval = time.Hour
	cfg.Notifications.Backend = config.NotificationBackendNull

	clients := &clts.Clients{Backend: backend.NewBackendClient(nil, cfg)}
	return NewRunner(clients, cfg, r, prompter), cfg
}

func TestRunner_RendererExitEndsSession(t *testing.T) {
	r := NewMockRenderer()
	r.runFn = func(ctx context.Context, actions Actions) {
		// Wait for the initial refresh so the poller has drawn something.
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			r.mu.Lock()
			n := len(r.configs)
			r.mu.Unlock()
			if n > 0 {
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
	}
	runner, _ := newTestRunner(t, r, nil)

	done := make(chan error, 1)
	go func() { done <- runner.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the renderer exited")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.statuses) == 0 || !r.statuses[0].Running {
		t.Errorf("expected running status rendered, got %+v", r.statuses)
	}
	if len(r.configs) != 1 {
		t.Errorf("expected config loaded once, got %d", len(r.configs))
	}
}

func TestRunner_RendererErrorIsReturned(t *testing.T) {
	r := NewMockRenderer()
	r.runErr = errors.New("terminal gone")
	runner, _ := newTestRunner(t, r, nil)

	err := runner.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "terminal gone") {
		t.Fatalf("expected renderer error, got %v", err)
	}
}

func TestRunner_ActionsReachPoller(t *testing.T) {
	r := NewMockRenderer()
	runner, _ := newTestRunner(t, r, nil)
	timers := &fakeTimers{}
	runner.poller.afterFunc = timers.afterFunc

	runner.StartBot(context.Background())

	if len(r.messages) != 1 || r.messages[0].Level != MessageError {
		// The fake backend answers {} so success is false.
		t.Errorf("expected an error message for an unsuccessful start, got %+v", r.messages)
	}

	// The null notification layer ignores these.
	runner.SendTestNotification()
	runner.DismissToast("toast-0")
	if len(r.toasts) != 0 {
		t.Error("null notifications must not render toasts")
	}
}

func TestRunner_Health(t *testing.T) {
	r := NewMockRenderer()
	runner, cfg := newTestRunner(t, r, nil)
	runner.startTime = time.Now().Add(-90 * time.Second)

	stats := runner.Health()

	if stats.Build.Commit == "" || stats.Build.GoVersion == "" {
		t.Error("expected build info")
	}
	if stats.UptimeSec < 90 {
		t.Errorf("expected uptime >= 90s, got %d", stats.UptimeSec)
	}
	if stats.Backend != cfg.Backend.BaseURL {
		t.Errorf("unexpected backend %q", stats.Backend)
	}
	if stats.Stream.Enabled {
		t.Error("stream should be disabled without a stream client")
	}
	if stats.Notifications.Backend != config.NotificationBackendNull {
		t.Errorf("unexpected notifications backend %q", stats.Notifications.Backend)
	}
	if stats.Runtime.Goroutines == 0 {
		t.Error("expected goroutine count")
	}
}

func TestRunner_AnswerPermissionWithoutNotifications(t *testing.T) {
	runner, _ := newTestRunner(t, NewMockRenderer(), nil)

	if runner.ShouldAskPermission() {
		t.Error("null notifications never offer the banner")
	}
	if state := runner.AnswerPermission(AnswerAllow); state != config.PermissionDenied {
		t.Errorf("expected denied, got %s", state)
	}
}
