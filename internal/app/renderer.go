package app

import (
	"time"
	"tradedash/internal/view"
)

// Control identifies a user-facing action control.
type Control string

const (
	ControlStart  Control = "start"
	ControlStop   Control = "stop"
	ControlExport Control = "export"
)

// Default control labels, restored when a busy state ends.
var controlLabels = map[Control]string{
	ControlStart:  "▶ Start",
	ControlStop:   "⏹ Stop",
	ControlExport: "⬇ Export CSV",
}

// ControlLabel returns the idle label of a control.
func ControlLabel(c Control) string {
	return controlLabels[c]
}

// MessageLevel distinguishes action outcomes shown to the user.
type MessageLevel string

const (
	MessageSuccess MessageLevel = "success"
	MessageError   MessageLevel = "error"
)

// Message is the outcome of a user action (start/stop).
type Message struct {
	Level MessageLevel `json:"level"`
	Text  string       `json:"text"`
}

// ExportStatus is the inline status next to the export control. The zero
// value clears it.
type ExportStatus struct {
	Text  string `json:"text"`
	Class string `json:"class"` // "", "success" or "error"
}

// DashboardRenderer draws the regions the Poller owns.
type DashboardRenderer interface {
	RenderStats(v view.StatsView)
	RenderPositions(v view.PositionsView)
	RenderBotStatus(v view.BotStatusView)
	RenderConfig(v view.ConfigView)
	RenderLogs(v view.LogsView)
	RenderLastUpdated(t time.Time)

	// SetControlBusy disables a control and replaces its label.
	SetControlBusy(c Control, label string)
	// ResetControlLabel restores the idle label without touching the
	// enabled state.
	ResetControlLabel(c Control)
	SetControlEnabled(c Control, enabled bool)

	ShowMessage(m Message)
	ShowExportStatus(s ExportStatus)
	// Download hands a file to the user.
	Download(filename string, data []byte) error
}

// ToastRenderer draws the notification stack the Listener owns.
type ToastRenderer interface {
	ShowToast(t Toast)
	MarkToastClosing(id string)
	RemoveToast(id string)

	// Focused reports whether the dashboard is in the foreground.
	Focused() bool
	// Bell plays a short sound cue.
	Bell()
}

// Renderer is the full presentation layer.
type Renderer interface {
	DashboardRenderer
	ToastRenderer
}
