package display

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"tradedash/config"
	"tradedash/internal/app"
	"tradedash/internal/view"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var _ app.InteractiveRenderer = (*Terminal)(nil)

const (
	// Alternate screen, hidden cursor, focus in/out reporting.
	enterScreen = "\x1b[?1049h\x1b[?25l\x1b[?1004h"
	exitScreen  = "\x1b[?1004l\x1b[?25h\x1b[?1049l"
	clearScreen = "\x1b[2J\x1b[H"

	maxHistoryRows = 10
	maxLogLines    = 10
)

type controlState struct {
	label   string
	enabled bool
}

// Terminal draws the dashboard on an ANSI terminal and reads single-key
// commands from stdin.
type Terminal struct {
	logger *zap.Logger
	cfg    config.DashboardConfig

	in          io.Reader
	out         io.Writer
	fd          int
	interactive bool

	writeMu sync.Mutex

	mu            sync.Mutex
	stats         *view.StatsView
	positions     *view.PositionsView
	status        *view.BotStatusView
	tradingConfig *view.ConfigView
	logs          *view.LogsView
	lastUpdated   time.Time
	controls      map[app.Control]*controlState
	message       *app.Message
	exportStatus  app.ExportStatus
	toasts        []app.Toast
	focused       bool

	redraw chan struct{}
}

// NewTerminal draws on stdout. Raw keyboard input and focus reporting are
// only enabled when both stdin and stdout are terminals.
func NewTerminal(logger *zap.Logger, cfg config.DashboardConfig) *Terminal {
	interactive := isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
	return newTerminal(logger, cfg, os.Stdin, os.Stdout, int(os.Stdin.Fd()), interactive)
}

func newTerminal(logger *zap.Logger, cfg config.DashboardConfig, in io.Reader, out io.Writer, fd int, interactive bool) *Terminal {
	if logger == nil {
		logger = zap.NewNop()
	}

	controls := make(map[app.Control]*controlState)
	for _, c := range []app.Control{app.ControlStart, app.ControlStop, app.ControlExport} {
		controls[c] = &controlState{label: app.ControlLabel(c), enabled: true}
	}

	return &Terminal{
		logger:      logger,
		cfg:         cfg,
		in:          in,
		out:         out,
		fd:          fd,
		interactive: interactive,
		controls:    controls,
		focused:     true,
		redraw:      make(chan struct{}, 1),
	}
}

// Interactive reports whether the terminal accepts keyboard commands.
func (t *Terminal) Interactive() bool {
	return t.interactive
}

func (t *Terminal) invalidate() {
	select {
	case t.redraw <- struct{}{}:
	default:
	}
}

func (t *Terminal) update(fn func()) {
	t.mu.Lock()
	fn()
	t.mu.Unlock()
	t.invalidate()
}

func (t *Terminal) RenderStats(v view.StatsView) {
	t.update(func() { t.stats = &v })
}

func (t *Terminal) RenderPositions(v view.PositionsView) {
	t.update(func() { t.positions = &v })
}

func (t *Terminal) RenderBotStatus(v view.BotStatusView) {
	t.update(func() {
		t.status = &v
		t.controls[app.ControlStart].enabled = v.StartEnabled
		t.controls[app.ControlStop].enabled = v.StopEnabled
	})
}

func (t *Terminal) RenderConfig(v view.ConfigView) {
	t.update(func() { t.tradingConfig = &v })
}

func (t *Terminal) RenderLogs(v view.LogsView) {
	t.update(func() { t.logs = &v })
}

func (t *Terminal) RenderLastUpdated(ts time.Time) {
	t.update(func() { t.lastUpdated = ts })
}

func (t *Terminal) SetControlBusy(c app.Control, label string) {
	t.update(func() {
		t.controls[c].label = label
		t.controls[c].enabled = false
	})
}

func (t *Terminal) ResetControlLabel(c app.Control) {
	t.update(func() { t.controls[c].label = app.ControlLabel(c) })
}

func (t *Terminal) SetControlEnabled(c app.Control, enabled bool) {
	t.update(func() { t.controls[c].enabled = enabled })
}

func (t *Terminal) ShowMessage(m app.Message) {
	t.update(func() { t.message = &m })
}

func (t *Terminal) ShowExportStatus(s app.ExportStatus) {
	t.update(func() { t.exportStatus = s })
}

// Download writes the file into the configured export directory.
func (t *Terminal) Download(filename string, data []byte) error {
	path := filepath.Join(t.cfg.ExportDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	t.logger.Info("export written", zap.String("path", path))
	return nil
}

func (t *Terminal) ShowToast(toast app.Toast) {
	t.update(func() { t.toasts = append(t.toasts, toast) })
}

func (t *Terminal) MarkToastClosing(id string) {
	t.update(func() {
		for i := range t.toasts {
			if t.toasts[i].ID == id {
				t.toasts[i].Closing = true
			}
		}
	})
}

func (t *Terminal) RemoveToast(id string) {
	t.update(func() {
		for i := range t.toasts {
			if t.toasts[i].ID == id {
				t.toasts = append(t.toasts[:i], t.toasts[i+1:]...)
				return
			}
		}
	})
}

func (t *Terminal) Focused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.focused
}

func (t *Terminal) Bell() {
	t.write("\a")
}

func (t *Terminal) write(s string) {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_, _ = io.WriteString(t.out, s)
}

// Run draws on every change and dispatches key presses until q is pressed
// or ctx is cancelled.
func (t *Terminal) Run(ctx context.Context, actions app.Actions) error {
	events := make(chan inputEvent, 16)
	done := make(chan struct{})
	defer close(done)

	if t.interactive {
		state, err := term.MakeRaw(t.fd)
		if err != nil {
			return fmt.Errorf("enter raw mode: %w", err)
		}
		defer term.Restore(t.fd, state)

		t.write(enterScreen)
		defer t.write(exitScreen)

		go t.readInput(events, done)
	}

	t.invalidate()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if t.handleInput(ctx, ev, actions) {
				return nil
			}
		case <-t.redraw:
			t.draw()
		}
	}
}

// readInput forwards parsed key presses until the input closes or done is
// closed by a returning Run.
func (t *Terminal) readInput(events chan<- inputEvent, done <-chan struct{}) {
	var p inputParser
	buf := make([]byte, 64)
	for {
		n, err := t.in.Read(buf)
		for _, ev := range p.feed(buf[:n]) {
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
		if err != nil {
			t.logger.Debug("terminal input closed", zap.Error(err))
			return
		}
	}
}

// handleInput applies one input event and reports whether to quit.
func (t *Terminal) handleInput(ctx context.Context, ev inputEvent, actions app.Actions) bool {
	if ev.focus != focusNone {
		t.update(func() { t.focused = ev.focus == focusGained })
		return false
	}

	switch ev.key {
	case 'q', 'Q', keyCtrlC:
		return true
	case 's', 'S':
		if t.controlEnabled(app.ControlStart) {
			go actions.StartBot(ctx)
		}
	case 'x', 'X':
		if t.controlEnabled(app.ControlStop) {
			go actions.StopBot(ctx)
		}
	case 'e', 'E':
		if t.controlEnabled(app.ControlExport) {
			go actions.ExportCSV(ctx)
		}
	case 'r', 'R':
		go actions.Refresh(ctx)
	case 't', 'T':
		actions.SendTestNotification()
	case 'd', 'D':
		if id := t.oldestOpenToast(); id != "" {
			actions.DismissToast(id)
		}
	}
	return false
}

func (t *Terminal) controlEnabled(c app.Control) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.controls[c].enabled
}

func (t *Terminal) oldestOpenToast() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, toast := range t.toasts {
		if !toast.Closing {
			return toast.ID
		}
	}
	return ""
}

func (t *Terminal) draw() {
	s := t.View()
	if t.interactive {
		s = clearScreen + strings.ReplaceAll(s, "\n", "\r\n")
	}
	t.write(s + "\n")
}

// View renders the whole dashboard.
func (t *Terminal) View() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	sections := []string{
		t.headerView(),
		t.statsView(),
		t.openPositionsView(),
		t.historyView(),
		t.configView(),
		t.logsView(),
		t.controlsView(),
	}
	if toasts := t.toastsView(); toasts != "" {
		sections = append(sections, toasts)
	}
	if t.interactive {
		sections = append(sections, mutedStyle.Render("s start · x stop · e export · r refresh · t test notification · d dismiss · q quit"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (t *Terminal) headerView() string {
	badge := mutedStyle.Render("…")
	if t.status != nil {
		if t.status.Running {
			badge = runningBadge.Render(t.status.Label)
		} else {
			badge = stoppedBadge.Render(t.status.Label)
		}
	}

	updated := "-"
	if !t.lastUpdated.IsZero() {
		updated = t.lastUpdated.Format("15:04:05")
	}

	return titleStyle.Render("📊 Trading Bot Dashboard") + " " + badge + "  " +
		labelStyle.Render("Last updated: "+updated)
}

func (t *Terminal) statsView() string {
	if t.stats == nil {
		return panelStyle.Render(mutedStyle.Render("Loading stats..."))
	}
	s := t.stats

	lines := []string{
		sectionStyle.Render("Portfolio"),
		field("Value", s.Portfolio+" "+pnlStyle(s.ROIClass).Render(s.PortfolioChange)),
		field("Balance", s.Balance),
		field("ROI", pnlStyle(s.ROIClass).Render(s.ROI)),
		field("Total PnL", pnlStyle(s.TotalPnLClass).Render(s.TotalPnL)),
		field("Unrealized", pnlStyle(s.UnrealizedCls).Render(s.Unrealized)),
		"",
		sectionStyle.Render("Trades"),
		field("Total", fmt.Sprintf("%d (%d open)", s.TotalTrades, s.OpenPositions)),
		field("Win rate", fmt.Sprintf("%s (%dW / %dL)", s.WinRate, s.Wins, s.Losses)),
		field("Avg win / loss", s.AvgWin+" / "+s.AvgLoss),
		field("Best / worst", s.BestTrade+" / "+s.WorstTrade),
		field("Avg duration", s.AvgDuration),
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func field(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-15s", label)) + value
}

func (t *Terminal) openPositionsView() string {
	title := sectionStyle.Render("Open positions")
	if t.positions == nil {
		return title + "\n" + mutedStyle.Render("Loading...")
	}
	title = sectionStyle.Render(fmt.Sprintf("Open positions (%d)", t.positions.OpenCount))

	headers := []string{"Symbol", "Side", "Entry", "Current", "TP", "SL", "Size", "Lev", "PnL", "PnL %", "Duration"}
	var rows [][]string
	var classes []string
	for _, r := range t.positions.Open {
		if r.Placeholder != "" {
			rows = append(rows, placeholderRow(r.Placeholder, len(headers)))
			classes = append(classes, "")
			continue
		}
		rows = append(rows, []string{r.Symbol, r.Side, r.Entry, r.Current, r.Target, r.Stop, r.Size, r.Leverage, r.PnL, r.PnLPercent, r.Duration})
		classes = append(classes, r.PnLClass)
	}

	return title + "\n" + renderTable(headers, rows, classes, 8, 9)
}

func (t *Terminal) historyView() string {
	title := sectionStyle.Render("Trade history")
	if t.positions == nil {
		return title + "\n" + mutedStyle.Render("Loading...")
	}

	headers := []string{"Closed", "Symbol", "Side", "Entry", "Exit", "Reason", "Size", "Lev", "PnL", "PnL %", "Duration"}
	var rows [][]string
	var classes []string
	for i, r := range t.positions.History {
		if i == maxHistoryRows {
			break
		}
		if r.Placeholder != "" {
			rows = append(rows, placeholderRow(r.Placeholder, len(headers)))
			classes = append(classes, "")
			continue
		}
		rows = append(rows, []string{r.ClosedAt, r.Symbol, r.Side, r.Entry, r.Exit, r.Reason, r.Size, r.Leverage, r.PnL, r.PnLPercent, r.Duration})
		classes = append(classes, r.PnLClass)
	}

	return title + "\n" + renderTable(headers, rows, classes, 8, 9)
}

func placeholderRow(text string, width int) []string {
	row := make([]string, width)
	row[0] = text
	return row
}

// renderTable draws rows with the PnL columns colored by the row's class.
// An empty class marks a placeholder row.
func renderTable(headers []string, rows [][]string, classes []string, pnlCols ...int) string {
	isPnL := make(map[int]bool, len(pnlCols))
	for _, c := range pnlCols {
		isPnL[c] = true
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(tableBorderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if row < 0 || row >= len(classes) {
				return tableCellStyle
			}
			if classes[row] == "" {
				return tableCellStyle.Inherit(mutedStyle)
			}
			if isPnL[col] {
				return tableCellStyle.Inherit(pnlStyle(classes[row]))
			}
			return tableCellStyle
		})

	return tbl.Render()
}

func (t *Terminal) configView() string {
	if t.tradingConfig == nil {
		return panelStyle.Render(mutedStyle.Render("Loading config..."))
	}

	var lines []string
	for i, section := range t.tradingConfig.Sections {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, sectionStyle.Render(section.Title))
		for _, f := range section.Fields {
			lines = append(lines, field(f.Label, f.Value))
		}
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (t *Terminal) logsView() string {
	title := sectionStyle.Render("Logs")
	if t.logs == nil {
		return title + "\n" + mutedStyle.Render("Loading...")
	}
	if t.logs.Placeholder != "" {
		return title + "\n" + mutedStyle.Render(t.logs.Placeholder)
	}

	lines := t.logs.Lines
	if len(lines) > maxLogLines {
		lines = lines[len(lines)-maxLogLines:]
	}
	return title + "\n" + strings.Join(lines, "\n")
}

func (t *Terminal) controlsView() string {
	keys := map[app.Control]string{
		app.ControlStart:  "s",
		app.ControlStop:   "x",
		app.ControlExport: "e",
	}

	var buttons []string
	for _, c := range []app.Control{app.ControlStart, app.ControlStop, app.ControlExport} {
		state := t.controls[c]
		text := "[" + keys[c] + "] " + state.label
		if state.enabled {
			buttons = append(buttons, buttonStyle.Render(text))
		} else {
			buttons = append(buttons, disabledButtonStyle.Render(text))
		}
	}
	line := strings.Join(buttons, " ")

	if t.exportStatus.Text != "" {
		style := labelStyle
		switch t.exportStatus.Class {
		case "success":
			style = positiveStyle
		case "error":
			style = negativeStyle
		}
		line += "  " + style.Render(t.exportStatus.Text)
	}

	if t.message != nil {
		style := positiveStyle
		if t.message.Level == app.MessageError {
			style = negativeStyle
		}
		line += "\n" + style.Render(t.message.Text)
	}
	return line
}

func (t *Terminal) toastsView() string {
	if len(t.toasts) == 0 {
		return ""
	}

	var boxes []string
	for _, toast := range t.toasts {
		body := categoryStyle(toast.Category).Render(toast.Icon+" "+toast.Title) + "\n" + toast.Message
		style := toastStyle.BorderForeground(categoryBorder(toast.Category))
		if toast.Closing {
			style = style.Faint(true)
		}
		boxes = append(boxes, style.Render(body))
	}
	return lipgloss.JoinVertical(lipgloss.Left, boxes...)
}

type focusChange int

const (
	focusNone focusChange = iota
	focusGained
	focusLost
)

const keyCtrlC = 0x03

// inputEvent is a key press or a focus change.
type inputEvent struct {
	key   rune
	focus focusChange
}

// inputParser splits raw terminal input into key presses and xterm focus
// reports (ESC [ I and ESC [ O). Other escape sequences are discarded.
type inputParser struct {
	pending []byte
}

func (p *inputParser) feed(b []byte) []inputEvent {
	data := append(p.pending, b...)
	p.pending = nil

	var events []inputEvent
	for i := 0; i < len(data); i++ {
		c := data[i]
		if c != 0x1b {
			events = append(events, inputEvent{key: rune(c)})
			continue
		}

		// Incomplete sequence: wait for more input.
		if i+1 >= len(data) {
			p.pending = append(p.pending, data[i:]...)
			break
		}
		if data[i+1] != '[' {
			// Alt+key or a lone escape.
			i++
			continue
		}

		end := i + 2
		for end < len(data) && (data[end] < 0x40 || data[end] > 0x7e) {
			end++
		}
		if end >= len(data) {
			p.pending = append(p.pending, data[i:]...)
			break
		}

		if end == i+2 {
			switch data[end] {
			case 'I':
				events = append(events, inputEvent{focus: focusGained})
			case 'O':
				events = append(events, inputEvent{focus: focusLost})
			}
		}
		i = end
	}
	return events
}
