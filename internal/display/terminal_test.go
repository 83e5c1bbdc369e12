package display

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	"tradedash/clients/notifier"
	"tradedash/config"
	"tradedash/internal/app"
	"tradedash/internal/view"
)

// syncBuffer is a bytes.Buffer safe for the render loop and the test to
// share.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestTerminal(t *testing.T) (*Terminal, *syncBuffer) {
	t.Helper()
	cfg := config.Defaults().Dashboard
	cfg.ExportDir = t.TempDir()
	out := &syncBuffer{}
	return newTerminal(nil, cfg, strings.NewReader(""), out, 0, false), out
}

func TestInputParser_Keys(t *testing.T) {
	var p inputParser
	events := p.feed([]byte("sxq"))

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, want := range "sxq" {
		if events[i].key != want || events[i].focus != focusNone {
			t.Errorf("event %d: expected key %q, got %+v", i, want, events[i])
		}
	}
}

func TestInputParser_FocusReports(t *testing.T) {
	var p inputParser
	events := p.feed([]byte("\x1b[Oa\x1b[I"))

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %+v", events)
	}
	if events[0].focus != focusLost {
		t.Errorf("expected focus lost, got %+v", events[0])
	}
	if events[1].key != 'a' {
		t.Errorf("expected key a, got %+v", events[1])
	}
	if events[2].focus != focusGained {
		t.Errorf("expected focus gained, got %+v", events[2])
	}
}

func TestInputParser_SplitSequence(t *testing.T) {
	var p inputParser

	if events := p.feed([]byte("\x1b")); len(events) != 0 {
		t.Fatalf("expected no events for a partial sequence, got %+v", events)
	}
	if events := p.feed([]byte("[")); len(events) != 0 {
		t.Fatalf("expected no events for a partial sequence, got %+v", events)
	}
	events := p.feed([]byte("O"))
	if len(events) != 1 || events[0].focus != focusLost {
		t.Errorf("expected focus lost after completion, got %+v", events)
	}
}

func TestInputParser_DiscardsOtherSequences(t *testing.T) {
	var p inputParser
	// Arrow up, then a plain key.
	events := p.feed([]byte("\x1b[Ae"))

	if len(events) != 1 || events[0].key != 'e' {
		t.Errorf("expected only key e, got %+v", events)
	}
}

func TestTerminal_View(t *testing.T) {
	term, _ := newTestTerminal(t)

	term.RenderStats(view.StatsView{Portfolio: "$1,234.56", Balance: "$1,000.00", TotalPnL: "$234.56", WinRate: "66.7%"})
	term.RenderPositions(view.PositionsView{
		Open:    []view.OpenRow{{Placeholder: view.NoOpenPositions}},
		History: []view.HistoryRow{{Symbol: "BTC/USDT", Reason: "🎯 TP_HIT", PnL: "$12.00", PnLClass: view.ClassPositive}},
	})
	term.RenderBotStatus(view.BotStatusView{Running: true, Label: view.StatusRunning, StopEnabled: true})
	term.RenderConfig(view.ConfigView{Sections: []view.Section{{Title: "Trading", Fields: []view.Field{{Label: "Timeframe", Value: "1h"}}}}})
	term.RenderLogs(view.LogsView{Placeholder: view.NoLogs})
	term.ShowMessage(app.Message{Level: app.MessageSuccess, Text: "✓ Bot started successfully"})
	term.ShowToast(app.Toast{ID: "toast-0", Category: notifier.CategoryInfo, Title: "Position opened", Message: "ETH/USDT", Icon: "📈"})

	out := term.View()
	for _, want := range []string{
		"$1,234.56", "66.7%", view.NoOpenPositions, "BTC/USDT", "TP_HIT",
		view.StatusRunning, "Timeframe", "1h", view.NoLogs,
		"✓ Bot started successfully", "Position opened", "▶ Start", "⏹ Stop",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestTerminal_ControlsFollowStatus(t *testing.T) {
	term, _ := newTestTerminal(t)
	actions := NewMockActions()
	ctx := context.Background()

	term.RenderBotStatus(view.BotStatusView{Running: true, Label: view.StatusRunning, StopEnabled: true})

	term.handleInput(ctx, inputEvent{key: 's'}, actions)
	actions.expectNone(t)

	term.handleInput(ctx, inputEvent{key: 'x'}, actions)
	actions.expect(t, "stop")

	term.SetControlBusy(app.ControlExport, "Preparing...")
	term.handleInput(ctx, inputEvent{key: 'e'}, actions)
	actions.expectNone(t)

	term.ResetControlLabel(app.ControlExport)
	if !strings.Contains(term.View(), "⬇ Export CSV") {
		t.Error("export label should be restored")
	}
	term.SetControlEnabled(app.ControlExport, true)
	term.handleInput(ctx, inputEvent{key: 'e'}, actions)
	actions.expect(t, "export")
}

func TestTerminal_ReadInputStopsWhenRunReturns(t *testing.T) {
	term, _ := newTestTerminal(t)
	term.in = strings.NewReader("qsx")

	// Nothing receives on events, as after Run has returned on q.
	events := make(chan inputEvent)
	done := make(chan struct{})
	close(done)

	finished := make(chan struct{})
	go func() {
		term.readInput(events, done)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("readInput blocked on keys nobody reads")
	}
}

func TestTerminal_ToastKeys(t *testing.T) {
	term, _ := newTestTerminal(t)
	actions := NewMockActions()
	ctx := context.Background()

	term.handleInput(ctx, inputEvent{key: 'd'}, actions)
	actions.expectNone(t)

	term.ShowToast(app.Toast{ID: "toast-0"})
	term.ShowToast(app.Toast{ID: "toast-1"})
	term.MarkToastClosing("toast-0")

	term.handleInput(ctx, inputEvent{key: 'd'}, actions)
	actions.expect(t, "dismiss:toast-1")

	term.handleInput(ctx, inputEvent{key: 't'}, actions)
	actions.expect(t, "test")

	term.RemoveToast("toast-0")
	term.RemoveToast("toast-1")
	if len(term.toasts) != 0 {
		t.Errorf("expected no toasts left, got %+v", term.toasts)
	}

	if quit := term.handleInput(ctx, inputEvent{key: 'q'}, actions); !quit {
		t.Error("q should quit")
	}
}

func TestTerminal_FocusEvents(t *testing.T) {
	term, _ := newTestTerminal(t)
	actions := NewMockActions()

	if !term.Focused() {
		t.Fatal("terminal should start focused")
	}
	term.handleInput(context.Background(), inputEvent{focus: focusLost}, actions)
	if term.Focused() {
		t.Error("expected unfocused after focus-out report")
	}
	term.handleInput(context.Background(), inputEvent{focus: focusGained}, actions)
	if !term.Focused() {
		t.Error("expected focused after focus-in report")
	}
	actions.expectNone(t)
}

func TestTerminal_Download(t *testing.T) {
	term, _ := newTestTerminal(t)

	if err := term.Download("trades_export_2024-03-09.csv", []byte("a,b\n")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(term.cfg.ExportDir, "trades_export_2024-03-09.csv"))
	if err != nil {
		t.Fatalf("export not written: %v", err)
	}
	if string(data) != "a,b\n" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestTerminal_DownloadMissingDir(t *testing.T) {
	term, _ := newTestTerminal(t)
	term.cfg.ExportDir = filepath.Join(term.cfg.ExportDir, "missing")

	if err := term.Download("x.csv", nil); err == nil {
		t.Error("expected error for a missing directory")
	}
}

func TestTerminal_Bell(t *testing.T) {
	term, out := newTestTerminal(t)

	term.Bell()

	if out.String() != "\a" {
		t.Errorf("expected BEL, got %q", out.String())
	}
}

func TestTerminal_RunDrawsUntilCancelled(t *testing.T) {
	term, out := newTestTerminal(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- term.Run(ctx, NewMockActions()) }()

	term.RenderLogs(view.LogsView{Lines: []string{"bot started"}})

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(out.String(), "bot started") && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if !strings.Contains(out.String(), "bot started") {
		t.Error("expected the log line to be drawn")
	}
}
