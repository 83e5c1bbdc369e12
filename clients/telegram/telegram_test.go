package telegram

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"tradedash/clients/notifier"
	"tradedash/config"

	"go.uber.org/zap"
)

type recordedCall struct {
	path    string
	payload map[string]any
}

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *[]recordedCall) {
	t.Helper()
	var mu sync.Mutex
	calls := &[]recordedCall{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		mu.Lock()
		*calls = append(*calls, recordedCall{path: r.URL.Path, payload: payload})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, calls
}

func testConfig(apiURL string) *config.Config {
	return &config.Config{
		Telegram: config.TelegramConfig{
			BotToken:   "test-token",
			BetaChatID: "beta-chat",
			APIURL:     apiURL,
		},
	}
}

func TestNewTelegramClient_NoToken(t *testing.T) {
	cfg := &config.Config{
		IsProd: false,
		Telegram: config.TelegramConfig{
			ProdChatID: "prod-chat",
			BetaChatID: "beta-chat",
		},
	}

	client := NewTelegramClient(zap.NewNop(), cfg)

	if client.botToken != "" {
		t.Error("expected empty token")
	}
	if client.Enabled() {
		t.Error("expected client disabled without token")
	}
	if client.chatID != "beta-chat" {
		t.Errorf("expected beta chat, got: %s", client.chatID)
	}
}

func TestNewTelegramClient_ProdChat(t *testing.T) {
	cfg := &config.Config{
		IsProd: true,
		Telegram: config.TelegramConfig{
			ProdChatID: "prod-chat",
			BetaChatID: "beta-chat",
		},
	}

	client := NewTelegramClient(nil, cfg)

	if client.chatID != "prod-chat" {
		t.Errorf("expected prod chat, got: %s", client.chatID)
	}
}

func TestNotify_NotConfigured(t *testing.T) {
	client := NewTelegramClient(nil, &config.Config{})

	// Should not panic
	retract := client.Notify(notifier.Alert{Title: "test"})
	if retract == nil {
		t.Fatal("expected non-nil retraction")
	}
	retract()
}

func TestNotify_SendsAndRetracts(t *testing.T) {
	server, calls := newTestServer(t, http.StatusOK, `{"ok": true, "result": {"message_id": 42}}`)
	client := NewTelegramClient(zap.NewNop(), testConfig(server.URL))

	retract := client.Notify(notifier.Alert{
		Title:   "Position opened",
		Message: "BTC/USDT\nLONG",
		Icon:    "📈",
	})

	if len(*calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(*calls))
	}
	send := (*calls)[0]
	if send.path != "/bottest-token/sendMessage" {
		t.Errorf("unexpected path: %s", send.path)
	}
	if send.payload["chat_id"] != "beta-chat" {
		t.Errorf("unexpected chat id: %v", send.payload["chat_id"])
	}
	if send.payload["text"] != "*📈 Position opened*\nBTC/USDT | LONG" {
		t.Errorf("unexpected text: %v", send.payload["text"])
	}

	retract()
	retract()

	if len(*calls) != 2 {
		t.Fatalf("expected exactly one delete call, got %d calls", len(*calls))
	}
	del := (*calls)[1]
	if del.path != "/bottest-token/deleteMessage" {
		t.Errorf("unexpected path: %s", del.path)
	}
	if del.payload["message_id"] != float64(42) {
		t.Errorf("unexpected message id: %v", del.payload["message_id"])
	}
}

func TestNotify_APIError(t *testing.T) {
	server, calls := newTestServer(t, http.StatusBadRequest, `{"ok": false, "description": "chat not found"}`)
	client := NewTelegramClient(zap.NewNop(), testConfig(server.URL))

	retract := client.Notify(notifier.Alert{Title: "x"})
	retract()

	if len(*calls) != 1 {
		t.Errorf("expected no delete after failed send, got %d calls", len(*calls))
	}
}

func TestCall_NonJSON(t *testing.T) {
	server, _ := newTestServer(t, http.StatusBadGateway, `<html></html>`)
	client := NewTelegramClient(zap.NewNop(), testConfig(server.URL))

	if _, err := client.sendMessage("hi"); err == nil {
		t.Error("expected error for non-JSON response")
	}
}

func TestBuildMessage(t *testing.T) {
	tests := []struct {
		alert notifier.Alert
		want  string
	}{
		{notifier.Alert{Title: "Hello"}, "*Hello*"},
		{notifier.Alert{Title: "Closed", Icon: "🟢", Message: "PnL: +3.00"}, "*🟢 Closed*\nPnL: +3.00"},
		{notifier.Alert{Title: "TP_HIT", Message: "a\nb"}, "*TP\\_HIT*\na | b"},
	}

	for _, tt := range tests {
		if got := buildMessage(tt.alert); got != tt.want {
			t.Errorf("buildMessage(%+v) = %q, want %q", tt.alert, got, tt.want)
		}
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello", "hello"},
		{"hello_world", "hello\\_world"},
		{"*bold*", "\\*bold\\*"},
		{"[link]", "\\[link\\]"},
		{"`code`", "\\`code\\`"},
	}

	for _, tt := range tests {
		if got := escapeMarkdown(tt.input); got != tt.expected {
			t.Errorf("escapeMarkdown(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestClose(t *testing.T) {
	client := NewTelegramClient(nil, &config.Config{})
	if err := client.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTelegramClient_ImplementsNotifier(t *testing.T) {
	var _ notifier.Notifier = (*TelegramClient)(nil)
}
